package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindForbidden ErrorKind = "forbidden"
	KindTimeout   ErrorKind = "timeout"
	KindNetwork   ErrorKind = "network"
)

// FetchError is returned by every Fetcher when a page could not be retrieved.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (HTTP %d)", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// statusKind maps an upstream HTTP status onto an error kind.
func statusKind(code int) ErrorKind {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return KindTimeout
	default:
		return KindNetwork
	}
}

// retryableStatus reports whether a response status is worth another attempt.
// 403 and 404 are never retried.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// transportKind maps a client error onto an error kind.
func transportKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func newStatusError(rawURL string, code int) *FetchError {
	return &FetchError{
		Kind:       statusKind(code),
		URL:        rawURL,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status %d", code),
	}
}
