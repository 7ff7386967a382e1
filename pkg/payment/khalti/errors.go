package khalti

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid khalti configuration")

	// ErrInvalidRequest is returned when the request parameters are rejected.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when the secret key is invalid.
	ErrUnauthorized = errors.New("unauthorized: invalid secret key")

	// ErrNetworkError is returned when the API cannot be reached.
	ErrNetworkError = errors.New("khalti network error")

	// ErrLookupFailed is returned when a payment lookup answers with an error.
	ErrLookupFailed = errors.New("khalti lookup failed")
)
