// SPDX-License-Identifier: MIT
package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// ClassifyError maps fetch errors into broad actionable categories.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Err == nil {
		switch {
		case httpErr.Status == http.StatusNotFound || httpErr.Status == http.StatusGone:
			return "not_found"
		case httpErr.Status == http.StatusUnauthorized || httpErr.Status == http.StatusForbidden:
			return "auth"
		case httpErr.Status == http.StatusTooManyRequests:
			return "rate_limited"
		default:
			return "http"
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return "too_large"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "no such host", "connection refused", "network is unreachable", "connection reset", "tls handshake", "eof"):
		return "network"
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return "timeout"
	default:
		return "unknown"
	}
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
