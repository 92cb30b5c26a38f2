package controller

import (
	"errors"
	"math/rand/v2"
	"net/http"
	"time"
)

// MaxAttempts is the default number of tries for a retryable call.
const MaxAttempts = 3

// IsRetryable checks if an error is worth retrying: the controller was
// overloaded or failed internally.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	// 1<<5 seconds already exceeds the cap.
	attempt = min(max(attempt, 0), 5)
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
