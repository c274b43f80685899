package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when no User-Agent is configured.
const DefaultUserAgent = "problem-archiver/1.0"

// DefaultTimeout bounds every request made through a Client unless a
// per-call timeout is shorter.
const DefaultTimeout = 60 * time.Second

// maxBodyBytes caps response bodies read into memory.
const maxBodyBytes = 32 << 20

// Client wraps HTTP operations with archiver-specific configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling
//   - JSON POST requests (used for GraphQL queries)
//   - Byte downloads with an optional per-call timeout (used for media)
//
// Example usage:
//
//	client := NewClient(Options{UserAgent: "my-agent"})
//
//	// Download an image, giving up after 10 seconds
//	data, err := client.DownloadBytes(ctx, imageURL, 10*time.Second)
//
//	// POST a JSON body and decode the JSON reply
//	var out response
//	err = client.PostJSON(ctx, endpoint, headers, cookies, payload, &out)
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Options configures a Client.
type Options struct {
	// UserAgent is sent with every request. Defaults to DefaultUserAgent.
	UserAgent string

	// Timeout is the overall request timeout. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Transport overrides the round tripper, mostly for tests.
	Transport http.RoundTripper
}

// NewClient creates a new HTTP client.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		userAgent: opts.UserAgent,
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, e.Status)
}

// Temporary reports whether the status is worth retrying (429 or 5xx).
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent header.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK (as *StatusError)
//   - Reading the body fails
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Method: http.MethodGet, URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// DownloadBytes downloads a file and returns the bytes in memory.
//
// When timeout is positive the download is abandoned after that long,
// independently of the client-wide timeout. Use this for small files like
// embedded images.
//
// Example:
//
//	imageData, err := client.DownloadBytes(ctx, imageURL, 10*time.Second)
func (c *Client) DownloadBytes(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.Get(ctx, url)
}

// PostJSON marshals body as JSON, POSTs it to url and decodes the JSON reply
// into out.
//
// headers and cookies are added to the request as given. A non-2xx status
// yields *StatusError without decoding the body.
func (c *Client) PostJSON(
	ctx context.Context,
	url string,
	headers map[string]string,
	cookies []*http.Cookie,
	body any,
	out any,
) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
