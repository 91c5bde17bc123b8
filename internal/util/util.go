// Package util provides shared utilities: venue date handling and error
// aggregation.
package util

import (
	"fmt"
	"strings"
	"time"
)

// ─── Dates ────────────────────────────────────────────────────────────────────

// VenueLayout is the yyyyMMdd form the events API expects.
const VenueLayout = "20060102"

const isoLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or yyyyMMdd and returns the date at midnight
// in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{VenueLayout, isoLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or YYYYMMDD", s)
}

// VenueDate formats t as yyyyMMdd.
func VenueDate(t time.Time) string {
	return t.Format(VenueLayout)
}

// NormalizeDate parses s and re-formats it as yyyyMMdd.
func NormalizeDate(s string, loc *time.Location) (string, error) {
	t, err := ParseDate(s, loc)
	if err != nil {
		return "", err
	}
	return VenueDate(t), nil
}

// Today returns the current date in loc, truncated to midnight.
func Today(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// EndOfYear returns 31 December of t's year.
func EndOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
}

// LoadLocation resolves an IANA zone name. An empty name is the local zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// ─── Error Helpers ────────────────────────────────────────────────────────────

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
