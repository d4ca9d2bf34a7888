package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Access-gating error taxonomy. Each maps to a distinct user-visible message;
// none is fatal to the process.
var (
	// ErrMalformedLink marks a share token that cannot be decoded. It is
	// never coerced to item id 0.
	ErrMalformedLink = errors.New("malformed share link")

	ErrTokenInvalid   = errors.New("verification token invalid")
	ErrTokenExpired   = errors.New("verification token expired")
	ErrTokenReused    = errors.New("verification token already used")
	ErrBypassDetected = errors.New("verification bypass detected")

	// ErrInsufficientCredit routes the request to challenge issuance; it is
	// not surfaced to the user as an error.
	ErrInsufficientCredit = errors.New("insufficient credit")

	ErrBatchNotFound = errors.New("batch not found")

	ErrOwnerBanned = errors.New("owner banned")
)
