// Package fetch is the HTTP collaborator used for listing pages and raw file
// content. Every fetch settles into a single Result carrying either the
// response or a transport error.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
)

const (
	defaultUserAgent    = "repomirror"
	defaultMaxBodyBytes = 256 << 20 // 256MB
)

// ErrBodyTooLarge marks responses exceeding the configured body limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Result is the settled outcome of one fetch.
type Result struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
	// Err is set for transport-level failures. A non-200 status alone does
	// not set Err.
	Err error
}

// OK reports whether the fetch succeeded with status 200.
func (r Result) OK() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

// AsError returns an *HTTPError for unsuccessful results and nil otherwise.
func (r Result) AsError() error {
	if r.OK() {
		return nil
	}
	return &HTTPError{URL: r.URL, Status: r.Status, Err: r.Err}
}

// HTTPError reports a non-200 response or a transport failure (Status 0).
type HTTPError struct {
	URL    string
	Status int
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// Fetcher retrieves a URL. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Result
}

// Go issues the fetch on its own goroutine and delivers the result on the
// returned channel, which is buffered so the sender never blocks.
func Go(ctx context.Context, f Fetcher, url string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		out <- f.Fetch(ctx, url)
	}()
	return out
}

// Options configures a Client.
type Options struct {
	// Timeout bounds a whole request; zero disables it.
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client fetches over HTTP, transparently decoding compressed responses.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewClient creates a Client. Zero-value fields in opts receive defaults.
func NewClient(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: gzhttp.Transport(base),
		},
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch performs a GET request and reads the full body.
func (c *Client) Fetch(ctx context.Context, url string) Result {
	res := Result{URL: url}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.Status = resp.StatusCode
	res.Header = resp.Header
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		res.Err = err
		return res
	}
	if int64(len(body)) > c.maxBodyBytes {
		res.Err = ErrBodyTooLarge
		return res
	}
	res.Body = body
	return res
}
