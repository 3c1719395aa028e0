// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by completion backends.
package httputil

import (
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of an error response body is read back for
// error messages.
const maxErrorBody = 4 << 10

// NewClient returns an HTTP client with the given request timeout.
// Callers additionally bound each attempt with a context deadline; the
// client timeout is a backstop.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// RetryableStatus reports whether an HTTP status code indicates a
// transient service condition: 429 (rate limit), 408 (request timeout),
// or any 5xx.
func RetryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests:
		return true
	case code == http.StatusRequestTimeout:
		return true
	case code >= 500 && code < 600:
		return true
	}
	return false
}

// ErrorBody reads a bounded preview of a response body for use in error
// messages. The body is fully drained and closed so the underlying
// connection can be reused.
func ErrorBody(resp *http.Response) string {
	defer resp.Body.Close()
	preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)
	return string(preview)
}
