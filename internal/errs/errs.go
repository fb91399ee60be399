// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrInvalidCredential indicates the provider identity token failed verification.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrTokenExpired indicates a session token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a malformed or badly signed session token.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidInput indicates a request that failed validation before any side effect.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuotaExceeded indicates the daily optimization allowance is spent.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrProvider indicates a failed or timed-out generation provider call.
	ErrProvider = errors.New("provider error")

	// ErrPersistence indicates a storage failure after a successful provider call.
	ErrPersistence = errors.New("persistence error")

	// ErrNotFound indicates the requested entity does not exist or is not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates transport-level throttling, independent of the daily quota.
	ErrRateLimited = errors.New("rate limited")
)
