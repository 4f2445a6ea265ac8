package client

import (
	"fmt"
	"net/http"
	"strings"
)

// APIError is a failed handshake (StatusCode set) or a request the server
// refused (Op set).
type APIError struct {
	StatusCode int
	Op         string
	Message    string
	RetryAfter string
}

func (e *APIError) Error() string {
	if friendly := friendlyErrorMessage(e.StatusCode, e.Message, e.RetryAfter); friendly != "" {
		return friendly
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// friendlyErrorMessage translates handshake failures into user-facing messages.
func friendlyErrorMessage(statusCode int, message, retryAfter string) string {
	switch statusCode {
	case http.StatusTooManyRequests:
		if retryAfter != "" {
			return fmt.Sprintf("rate limited by server; retry after %s", retryAfter)
		}
		return "rate limited by server; retry in a moment"
	case http.StatusForbidden:
		return "server refused the session: origin not allowed"
	case http.StatusNotFound:
		return "no gridcalc session endpoint at this URL"
	default:
		return ""
	}
}

// IsOutOfBounds reports whether the server refused a request because it
// addressed a cell, row or column outside the grid.
func IsOutOfBounds(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Op != "" && strings.Contains(apiErr.Message, "out of bounds")
	}
	return false
}
