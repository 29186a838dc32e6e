package llm

import (
	"context"
	"errors"
)

// Sentinel errors classifying provider failures. Backends wrap the underlying
// SDK error with exactly one of these so that callers can branch with
// errors.Is without inspecting provider-specific types.
var (
	// ErrTimeout is returned when the bounded per-call timeout elapses or the
	// context deadline is exceeded before a response arrives.
	ErrTimeout = errors.New("llm: request timed out")

	// ErrRateLimited is returned when the backend rejects the request due to
	// quota or rate limits (HTTP 429 and equivalents).
	ErrRateLimited = errors.New("llm: rate limited")

	// ErrAuthFailed is returned when credentials are missing, invalid, or
	// lack permission (HTTP 401/403 and equivalents).
	ErrAuthFailed = errors.New("llm: authentication failed")

	// ErrUnavailable is returned for transport failures, 5xx responses, and
	// any failure that fits no more specific category.
	ErrUnavailable = errors.New("llm: provider unavailable")

	// ErrMalformedResponse is returned when the backend answers but the
	// response carries no usable text (empty choices, nil content).
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// ClassifyStatus maps an HTTP status code to the matching sentinel error.
// Unrecognised codes map to ErrUnavailable.
func ClassifyStatus(code int) error {
	switch {
	case code == 401 || code == 403:
		return ErrAuthFailed
	case code == 429:
		return ErrRateLimited
	case code == 408 || code == 504:
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}

// ClassifyContextErr maps a context error to ErrTimeout (deadline) or returns
// nil when err is not a context error. Cancellation is intentionally not
// reclassified: a cancelled pipeline run is not a provider fault.
func ClassifyContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return nil
}
