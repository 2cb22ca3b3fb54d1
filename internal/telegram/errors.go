package telegram

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	KindRateLimited  = "rate_limited"
	KindUnauthorized = "unauthorized"
	KindBadRequest   = "bad_request"
	KindAPIError     = "api_error"
	KindTransport    = "transport"
)

// APIError is a non-200 reply from the Bot API.
type APIError struct {
	Method      string
	Status      int
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %s: %d %s (retry after %ds)", e.Method, e.Status, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %s: %d %s", e.Method, e.Status, e.Description)
}

// Kind groups the reply for logs and metrics.
func (e *APIError) Kind() string {
	switch e.Status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusBadRequest, http.StatusNotFound:
		return KindBadRequest
	default:
		return KindAPIError
	}
}

// KindOf returns the APIError kind of err, KindTransport otherwise.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind()
	}
	return KindTransport
}
