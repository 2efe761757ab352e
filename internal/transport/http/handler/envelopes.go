package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ecell-portal/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisteredEnvelope wraps a successful code confirmation.
type RegisteredEnvelope struct {
	Message string         `json:"message"`
	Bearer  string         `json:"Bearer"`
	Member  *domain.Member `json:"member"`
}

// EventsEnvelope wraps the upcoming-events listing.
type EventsEnvelope struct {
	Count  int            `json:"count"`
	Events []domain.Event `json:"events"`
}

// TicketsEnvelope wraps the ticket listing.
type TicketsEnvelope struct {
	Count   int             `json:"count"`
	Tickets []domain.Ticket `json:"tickets"`
}

// RedeemedEnvelope wraps verify/redeem responses. UsedAt is only populated
// when the ticket was already redeemed, so the organizer sees when.
type RedeemedEnvelope struct {
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Ticket  *domain.Ticket `json:"ticket,omitempty"`
	UsedAt  string         `json:"used_at,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps a domain sentinel to its HTTP status and a stable,
// non-leaking message. Unknown errors become an opaque 500.
func writeDomainError(w http.ResponseWriter, err error) {
	for _, m := range errStatusMap {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.message)
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

var errStatusMap = []struct {
	sentinel error
	status   int
	message  string
}{
	{domain.ErrDomainNotAllowed, http.StatusBadRequest, "this email domain is not allowed"},
	{domain.ErrAlreadyRegistered, http.StatusConflict, "a member with this email or roll number already exists"},
	{domain.ErrDeliveryFailed, http.StatusBadGateway, "could not send the verification email; try resending"},
	{domain.ErrNoPendingCode, http.StatusBadRequest, "no pending code; request a new one"},
	{domain.ErrCodeExpired, http.StatusBadRequest, "code has expired; request a new one"},
	{domain.ErrTooManyAttempts, http.StatusBadRequest, "too many attempts; request a new code"},
	{domain.ErrCodeMismatch, http.StatusBadRequest, "incorrect code"},
	{domain.ErrMalformedPayload, http.StatusBadRequest, "invalid payload: missing required fields"},
	{domain.ErrInvalidSignature, http.StatusBadRequest, "payload could not be verified"},
	{domain.ErrTicketNotFound, http.StatusNotFound, "ticket not found"},
	{domain.ErrIdentityMismatch, http.StatusBadRequest, "payload could not be verified"},
	{domain.ErrTicketAlreadyRedeemed, http.StatusConflict, "ticket has already been used"},
	{domain.ErrIssuanceFailed, http.StatusInternalServerError, "could not issue ticket"},
	{domain.ErrBadRequest, http.StatusBadRequest, "invalid request"},
	{domain.ErrNotFound, http.StatusNotFound, "not found"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
}
