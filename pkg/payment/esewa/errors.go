package esewa

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid esewa configuration")

	// ErrInvalidSignature is returned when a callback signature does not verify.
	ErrInvalidSignature = errors.New("signature verification failed")

	// ErrInvalidCallbackData is returned when the redirect data envelope cannot be decoded.
	ErrInvalidCallbackData = errors.New("invalid callback data")

	// ErrNetworkError is returned when the status API cannot be reached.
	ErrNetworkError = errors.New("esewa network error")

	// ErrStatusLookupFailed is returned when the status API answers with a non-2xx code.
	ErrStatusLookupFailed = errors.New("esewa status lookup failed")
)
