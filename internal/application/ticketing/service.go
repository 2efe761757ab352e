package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ecell-portal/internal/domain"
	"github.com/ecell-portal/internal/infrastructure/qr"
	"github.com/ecell-portal/internal/pkg/id"
	"github.com/ecell-portal/internal/pkg/signature"
	"github.com/ecell-portal/internal/pkg/validate"
)

// IssuedTicket bundles everything the caller needs after issuance: the
// ledger record, the signed payload, and its QR rendering.
type IssuedTicket struct {
	Ticket  *domain.Ticket             `json:"ticket"`
	Payload domain.SignedTicketPayload `json:"payload"`
	QRCode  string                     `json:"qr_code"`
}

type Service interface {
	IssueTicket(ctx context.Context, req domain.CreateTicketRequest) (*IssuedTicket, error)
	// VerifyTicket is the read-only preview: it runs every redemption check
	// without transitioning state.
	VerifyTicket(ctx context.Context, payload domain.SignedTicketPayload) (*domain.Ticket, error)
	// RedeemTicket atomically consumes the ticket: first valid call wins,
	// every later call fails with the original redemption timestamp attached.
	RedeemTicket(ctx context.Context, payload domain.SignedTicketPayload) (*domain.Ticket, error)
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
}

type ticketLedger interface {
	Create(ctx context.Context, t *domain.Ticket) error
	Get(ctx context.Context, ticketID string) (*domain.Ticket, error)
	MarkUsed(ctx context.Context, ticketID string, usedAt time.Time) (*domain.Ticket, error)
	ListByCreatedDesc(ctx context.Context) ([]domain.Ticket, error)
}

type service struct {
	ledger ticketLedger
	codec  *signature.Codec
	now    func() time.Time
}

type ServiceDeps struct {
	Ledger ticketLedger
	Codec  *signature.Codec
}

func NewService(deps ServiceDeps) Service {
	return &service{
		ledger: deps.Ledger,
		codec:  deps.Codec,
		now:    time.Now,
	}
}

func (s *service) IssueTicket(ctx context.Context, req domain.CreateTicketRequest) (*IssuedTicket, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	createdAt := s.now().UTC()

	ticket, err := s.createWithRetry(ctx, req.Name, email, createdAt)
	if err != nil {
		return nil, err
	}

	payload := domain.TicketPayload{
		TicketID:  ticket.TicketID,
		Email:     email,
		CreatedAt: createdAt.Format(time.RFC3339Nano),
	}
	signed := domain.SignedTicketPayload{
		TicketPayload: payload,
		Signature:     s.codec.Sign(payload),
	}
	qrDataURL, err := qr.DataURL(signed)
	if err != nil {
		return nil, err
	}
	return &IssuedTicket{Ticket: ticket, Payload: signed, QRCode: qrDataURL}, nil
}

// createWithRetry inserts the ticket, regenerating the identifier once if the
// ledger reports a duplicate. A second duplicate surfaces as IssuanceFailed.
func (s *service) createWithRetry(ctx context.Context, name, email string, createdAt time.Time) (*domain.Ticket, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ticket := &domain.Ticket{
			TicketID:  id.NewTicketID(),
			Email:     email,
			Name:      name,
			Status:    domain.TicketCreated,
			CreatedAt: createdAt,
		}
		err := s.ledger.Create(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, domain.ErrDuplicateIdentifier) {
			return nil, err
		}
		slog.Warn("ticket identifier collision", "ticket_id", ticket.TicketID, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("identifier collision persisted: %w", domain.ErrIssuanceFailed)
}

func (s *service) VerifyTicket(ctx context.Context, payload domain.SignedTicketPayload) (*domain.Ticket, error) {
	ticket, err := s.check(ctx, payload)
	if err != nil {
		return ticket, err
	}
	if ticket.Status == domain.TicketUsed {
		return ticket, fmt.Errorf("ticket %s: %w", ticket.TicketID, domain.ErrTicketAlreadyRedeemed)
	}
	return ticket, nil
}

func (s *service) RedeemTicket(ctx context.Context, payload domain.SignedTicketPayload) (*domain.Ticket, error) {
	if _, err := s.check(ctx, payload); err != nil {
		return nil, err
	}
	// The ledger's compare-and-set is the only state transition; everything
	// above was advisory and may be stale by the time we get here.
	return s.ledger.MarkUsed(ctx, payload.TicketID, s.now().UTC())
}

func (s *service) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.ledger.ListByCreatedDesc(ctx)
}

// check validates payload shape, signature, existence, and holder identity.
func (s *service) check(ctx context.Context, payload domain.SignedTicketPayload) (*domain.Ticket, error) {
	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrMalformedPayload)
	}
	p := domain.TicketPayload{
		TicketID:  payload.TicketID,
		Email:     strings.ToLower(payload.Email),
		CreatedAt: payload.CreatedAt,
	}
	if !s.codec.Verify(p, payload.Signature) {
		return nil, fmt.Errorf("payload rejected: %w", domain.ErrInvalidSignature)
	}
	ticket, err := s.ledger.Get(ctx, payload.TicketID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(ticket.Email, payload.Email) {
		return nil, fmt.Errorf("payload rejected: %w", domain.ErrIdentityMismatch)
	}
	return ticket, nil
}
