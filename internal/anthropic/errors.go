package anthropic

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrAuthError indicates a missing or invalid API key.
	ErrAuthError = errors.New("anthropic authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("anthropic rate limit exceeded")

	// ErrOverloaded indicates the API is temporarily overloaded.
	ErrOverloaded = errors.New("anthropic API overloaded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with anthropic")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from anthropic")

	// ErrCircuitOpen indicates recent calls failed and the client is refusing new ones.
	ErrCircuitOpen = errors.New("anthropic backend unavailable (circuit open)")
)

// APIError represents an error response from the Messages API.
type APIError struct {
	StatusCode int
	Type       string // Error type from the API (e.g., "invalid_request_error")
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("anthropic API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("anthropic API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.Type == "rate_limit_error"
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// isBackendFailure reports whether err says the backend itself is unhealthy,
// as opposed to a problem with this particular request.
func isBackendFailure(err error) bool {
	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrOverloaded) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	return false
}
