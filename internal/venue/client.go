// Package venue implements the HTTP client for the venue's event listing
// endpoint. Every request is context-aware, passes the shared rate limiter,
// and is bounded by its own client-side timeout.
package venue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/derickschaefer/encore/internal/model"
	"github.com/derickschaefer/encore/internal/transform"
)

const (
	DefaultBaseURL = "https://api.huset.example/v2/"
	DefaultTimeout = 5 * time.Second

	apiVersion = "2"
	apiMethod  = "getEvents"
	apiFormat  = "json"
)

// Result is the single value emitted by Stream.
type Result struct {
	Events []model.EventModel
	Err    error
}

// Client is the venue API HTTP client.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	builder    *transform.Builder
	debug      bool
}

// NewClient creates a Client. A zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, builder *transform.Builder, debug bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		builder:    builder,
		debug:      debug,
	}
}

// EventsURL builds the request URL for the inclusive range [from, to].
// Both dates (yyyyMMdd) are passed through verbatim.
func (c *Client) EventsURL(from, to string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &Error{Kind: KindInvalidURL, Err: errors.New("base URL must be absolute: " + c.baseURL)}
	}
	params := url.Values{}
	params.Set("version", apiVersion)
	params.Set("method", apiMethod)
	params.Set("format", apiFormat)
	params.Set("from", from)
	params.Set("to", to)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// ─── Call shapes ──────────────────────────────────────────────────────────────

// FetchEvents retrieves events for [from, to] and returns their display
// models in transport order.
func (c *Client) FetchEvents(ctx context.Context, from, to string) ([]model.EventModel, error) {
	events, err := c.fetchRaw(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildAll(events), nil
}

// Stream runs FetchEvents in the background. The returned channel yields
// exactly one Result and is then closed.
func (c *Client) Stream(ctx context.Context, from, to string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		events, err := c.FetchEvents(ctx, from, to)
		out <- Result{Events: events, Err: err}
	}()
	return out
}

// Fetch runs FetchEvents in the background and hands the outcome to done.
// It is the shape used by background refresh.
func (c *Client) Fetch(ctx context.Context, from, to string, done func([]model.EventModel, error)) {
	go func() {
		done(c.FetchEvents(ctx, from, to))
	}()
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

// fetchRaw performs one GET and decodes the raw event array. The timeout
// timer belongs to this request alone.
func (c *Client) fetchRaw(ctx context.Context, from, to string) ([]model.Event, error) {
	reqURL, err := c.EventsURL(from, to)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindUnknown, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "encore-cli/1.0")
	req.Header.Set("X-Request-ID", requestID)

	if c.debug {
		slog.Debug("venue request", "url", reqURL, "request_id", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(reqCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(reqCtx, err)
	}

	if c.debug {
		slog.Debug("venue response", "status", resp.StatusCode, "bytes", len(body), "request_id", requestID)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindResponse, Status: resp.StatusCode}
	}

	var events []model.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, &Error{Kind: KindDecoding, Err: err}
	}
	return events, nil
}

// classify maps a failed round trip onto the error taxonomy.
func classify(reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}
