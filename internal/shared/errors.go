package shared

import "errors"

var (
	// ErrNotFound is returned when a product, category, cart or order
	// lookup misses.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials covers every shopper login failure, so a
	// response never reveals whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a form posts without its token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the posted token does not match
	// the session's.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
