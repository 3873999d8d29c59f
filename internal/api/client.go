package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"examtrack/internal/logging"
)

// ErrAuthRequired signals an HTTP 401. Callers must stop processing; the
// registered auth handler has already been invoked by the time they see it.
var ErrAuthRequired = errors.New("authentication required")

// RequestError is any non-2xx response other than 401.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// IsNotFound reports whether err is a RequestError with status 404.
func IsNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// Client talks JSON to the tracker server. Session auth rides on the cookie
// jar, so one Client covers the whole login lifetime.
type Client struct {
	base        string
	http        *http.Client
	authHandler func()
}

func New(base string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Jar: jar},
	}, nil
}

// OnAuthRequired registers the handler invoked exactly once per 401 response,
// before the call returns ErrAuthRequired.
func (c *Client) OnAuthRequired(fn func()) {
	c.authHandler = fn
}

// do performs one round trip. body (when non-nil) is JSON-encoded; out (when
// non-nil) receives the decoded response. An empty or malformed 2xx body is
// treated as success with out left at its zero value.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.authHandler != nil {
			c.authHandler()
		}
		return ErrAuthRequired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		// Tolerant read: a 2xx with an undecodable body is not a failure.
		logging.Logger.Warn("undecodable response body", "method", method, "path", path, "err", err)
	}
	return nil
}

// errorMessage prefers the server-supplied error field.
func errorMessage(data []byte, status int) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("request failed: %d", status)
}
