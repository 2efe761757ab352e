package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ecell-portal/internal/application/ticketing"
	"github.com/ecell-portal/internal/domain"
)

// TicketHandler handles ticket issuance, listing, and redemption.
type TicketHandler struct {
	svc ticketing.Service
}

func NewTicketHandler(svc ticketing.Service) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	issued, err := h.svc.IssueTicket(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issued)
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.ListTickets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TicketsEnvelope{Count: len(tickets), Tickets: tickets})
}

// Verify runs the full redemption check without consuming the ticket.
func (h *TicketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload domain.SignedTicketPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ticket, err := h.svc.VerifyTicket(r.Context(), payload)
	if err != nil {
		writeRedeemError(w, ticket, err)
		return
	}
	writeJSON(w, http.StatusOK, RedeemedEnvelope{Message: "ticket is valid", Ticket: ticket})
}

// Redeem consumes the ticket: at most one call for a given ticket succeeds.
func (h *TicketHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var payload domain.SignedTicketPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ticket, err := h.svc.RedeemTicket(r.Context(), payload)
	if err != nil {
		writeRedeemError(w, ticket, err)
		return
	}
	writeJSON(w, http.StatusOK, RedeemedEnvelope{Message: "ticket redeemed", Ticket: ticket})
}

// writeRedeemError handles the already-redeemed case specially so the
// organizer sees when the ticket was first used.
func writeRedeemError(w http.ResponseWriter, ticket *domain.Ticket, err error) {
	if errors.Is(err, domain.ErrTicketAlreadyRedeemed) && ticket != nil && ticket.UsedAt != nil {
		writeJSON(w, http.StatusConflict, RedeemedEnvelope{
			Error:  "ticket has already been used",
			UsedAt: ticket.UsedAt.UTC().Format(time.RFC3339),
		})
		return
	}
	writeDomainError(w, err)
}
