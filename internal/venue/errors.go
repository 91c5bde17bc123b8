package venue

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies transport failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidURL
	KindResponse
	KindDecoding
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalidURL"
	case KindResponse:
		return "responseError"
	case KindDecoding:
		return "decodingError"
	case KindTimeout:
		return "timeout"
	default:
		return "unknownError"
	}
}

// Error is the single error type returned by Client. Compare against the
// sentinels with errors.Is; only the Kind takes part in the comparison.
type Error struct {
	Kind   ErrorKind
	Status int // HTTP status, set for KindResponse
	Err    error
}

// Sentinels for errors.Is.
var (
	ErrInvalidURL = &Error{Kind: KindInvalidURL}
	ErrResponse   = &Error{Kind: KindResponse}
	ErrDecoding   = &Error{Kind: KindDecoding}
	ErrTimeout    = &Error{Kind: KindTimeout}
	ErrUnknown    = &Error{Kind: KindUnknown}
)

// Error returns the human-readable description that ends up in
// ListState.FetchError.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindInvalidURL:
		msg = "could not build the events URL"
	case KindResponse:
		msg = fmt.Sprintf("the venue responded with HTTP %d %s", e.Status, http.StatusText(e.Status))
	case KindDecoding:
		msg = "the venue returned events in an unexpected format"
	case KindTimeout:
		msg = "the venue did not respond in time"
	default:
		msg = "an unknown error occurred while fetching events"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
