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

// Registration flow failures. All are expected caller-facing outcomes, never
// programming defects; handlers map each to its own message and status.
var (
	ErrDomainNotAllowed  = errors.New("email domain not allowed")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrDeliveryFailed    = errors.New("code delivery failed")
	ErrNoPendingCode     = errors.New("no pending code")
	ErrCodeExpired       = errors.New("code expired")
	ErrTooManyAttempts   = errors.New("too many attempts")
	ErrCodeMismatch      = errors.New("code mismatch")
)

// Ticket flow failures. Signature and identity mismatches share deliberately
// vague user-facing text so a forger learns nothing about which field failed.
var (
	ErrMalformedPayload      = errors.New("malformed payload")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrIdentityMismatch      = errors.New("identity mismatch")
	ErrTicketAlreadyRedeemed = errors.New("ticket already redeemed")
	ErrDuplicateIdentifier   = errors.New("duplicate ticket identifier")
	ErrIssuanceFailed        = errors.New("ticket issuance failed")
)
