package ticketing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ecell-portal/internal/domain"
	"github.com/ecell-portal/internal/pkg/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ledger (for issuance paths) ---

type mockLedger struct{ mock.Mock }

func (m *mockLedger) Create(ctx context.Context, t *domain.Ticket) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockLedger) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if t, _ := args.Get(0).(*domain.Ticket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockLedger) MarkUsed(ctx context.Context, ticketID string, usedAt time.Time) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID, usedAt)
	if t, _ := args.Get(0).(*domain.Ticket); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockLedger) ListByCreatedDesc(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if ts, _ := args.Get(0).([]domain.Ticket); ts != nil {
		return ts, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- fake ledger (for redemption state-machine paths) ---
// Mirrors the DynamoDB repo contract: conditional insert, conditional
// created->used transition under a single lock.

type fakeLedger struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{tickets: make(map[string]*domain.Ticket)}
}

func (f *fakeLedger) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tickets[t.TicketID]; ok {
		return fmt.Errorf("ticket %s: %w", t.TicketID, domain.ErrDuplicateIdentifier)
	}
	cp := *t
	f.tickets[t.TicketID] = &cp
	return nil
}

func (f *fakeLedger) Get(_ context.Context, ticketID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketNotFound)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeLedger) MarkUsed(_ context.Context, ticketID string, usedAt time.Time) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[ticketID]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketNotFound)
	}
	if t.Status == domain.TicketUsed {
		cp := *t
		return &cp, fmt.Errorf("ticket %s: %w", ticketID, domain.ErrTicketAlreadyRedeemed)
	}
	t.Status = domain.TicketUsed
	at := usedAt
	t.UsedAt = &at
	cp := *t
	return &cp, nil
}

func (f *fakeLedger) ListByCreatedDesc(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, t := range f.tickets {
		out = append(out, *t)
	}
	return out, nil
}

// --- builders ---

func newCodec(t *testing.T) *signature.Codec {
	t.Helper()
	c, err := signature.NewCodec("test-secret")
	require.NoError(t, err)
	return c
}

func newFakeService(t *testing.T) (Service, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	return NewService(ServiceDeps{Ledger: ledger, Codec: newCodec(t)}), ledger
}

func issueFor(t *testing.T, svc Service, email string) *IssuedTicket {
	t.Helper()
	issued, err := svc.IssueTicket(context.Background(), domain.CreateTicketRequest{
		Name:  "Bob",
		Email: email,
	})
	require.NoError(t, err)
	return issued
}

// --- IssueTicket ---

func TestIssueTicket_HappyPath(t *testing.T) {
	svc, ledger := newFakeService(t)

	issued := issueFor(t, svc, "Bob@Example.EDU")

	assert.True(t, strings.HasPrefix(issued.Ticket.TicketID, "TK"))
	assert.Equal(t, "bob@example.edu", issued.Ticket.Email)
	assert.Equal(t, domain.TicketCreated, issued.Ticket.Status)
	assert.Nil(t, issued.Ticket.UsedAt)
	assert.Equal(t, issued.Ticket.TicketID, issued.Payload.TicketID)
	assert.NotEmpty(t, issued.Payload.Signature)
	assert.True(t, strings.HasPrefix(issued.QRCode, "data:image/png;base64,"))

	stored, err := ledger.Get(context.Background(), issued.Ticket.TicketID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCreated, stored.Status)
}

func TestIssueTicket_RejectsInvalidEmail(t *testing.T) {
	svc, _ := newFakeService(t)

	_, err := svc.IssueTicket(context.Background(), domain.CreateTicketRequest{
		Name:  "Bob",
		Email: "not-an-email",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestIssueTicket_RetriesOnceOnDuplicateIdentifier(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("Create", mock.Anything, mock.AnythingOfType("*domain.Ticket")).
		Return(fmt.Errorf("dup: %w", domain.ErrDuplicateIdentifier)).Once()
	ledger.On("Create", mock.Anything, mock.AnythingOfType("*domain.Ticket")).
		Return(nil).Once()

	svc := NewService(ServiceDeps{Ledger: ledger, Codec: newCodec(t)})
	issued, err := svc.IssueTicket(context.Background(), domain.CreateTicketRequest{
		Name:  "Bob",
		Email: "bob@example.edu",
	})

	require.NoError(t, err)
	assert.NotNil(t, issued)
	ledger.AssertNumberOfCalls(t, "Create", 2)
}

func TestIssueTicket_SecondDuplicateSurfacesIssuanceFailed(t *testing.T) {
	ledger := &mockLedger{}
	ledger.On("Create", mock.Anything, mock.AnythingOfType("*domain.Ticket")).
		Return(fmt.Errorf("dup: %w", domain.ErrDuplicateIdentifier)).Twice()

	svc := NewService(ServiceDeps{Ledger: ledger, Codec: newCodec(t)})
	_, err := svc.IssueTicket(context.Background(), domain.CreateTicketRequest{
		Name:  "Bob",
		Email: "bob@example.edu",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIssuanceFailed))
	ledger.AssertNumberOfCalls(t, "Create", 2)
}

// --- RedeemTicket ---

func TestRedeemTicket_HappyPathThenAlreadyRedeemed(t *testing.T) {
	svc, _ := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	redeemed, err := svc.RedeemTicket(context.Background(), issued.Payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketUsed, redeemed.Status)
	require.NotNil(t, redeemed.UsedAt)
	firstUsedAt := *redeemed.UsedAt

	again, err := svc.RedeemTicket(context.Background(), issued.Payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTicketAlreadyRedeemed))
	require.NotNil(t, again)
	require.NotNil(t, again.UsedAt)
	assert.Equal(t, firstUsedAt, *again.UsedAt, "ledger state unchanged by the failed second redemption")
}

func TestRedeemTicket_MissingFields(t *testing.T) {
	svc, _ := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	for _, mutate := range []func(*domain.SignedTicketPayload){
		func(p *domain.SignedTicketPayload) { p.TicketID = "" },
		func(p *domain.SignedTicketPayload) { p.Email = "" },
		func(p *domain.SignedTicketPayload) { p.CreatedAt = "" },
		func(p *domain.SignedTicketPayload) { p.Signature = "" },
	} {
		payload := issued.Payload
		mutate(&payload)
		_, err := svc.RedeemTicket(context.Background(), payload)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformedPayload))
	}
}

func TestRedeemTicket_TamperedFieldFailsSignature(t *testing.T) {
	svc, _ := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	tampered := issued.Payload
	tampered.Email = "mallory@example.edu"
	_, err := svc.RedeemTicket(context.Background(), tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))

	tampered = issued.Payload
	tampered.CreatedAt = time.Now().UTC().Add(time.Hour).Format(time.RFC3339Nano)
	_, err = svc.RedeemTicket(context.Background(), tampered)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSignature))
}

func TestRedeemTicket_UnknownTicket(t *testing.T) {
	svc, _ := newFakeService(t)
	codec := newCodec(t)

	p := domain.TicketPayload{
		TicketID:  "TK00000000000000000000000000",
		Email:     "bob@example.edu",
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	payload := domain.SignedTicketPayload{TicketPayload: p, Signature: codec.Sign(p)}

	_, err := svc.RedeemTicket(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTicketNotFound))
}

func TestRedeemTicket_IdentityMismatch(t *testing.T) {
	svc, ledger := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	// The holder recorded in the ledger changes out from under the payload;
	// a validly-signed payload for the old identity must be rejected.
	ledger.mu.Lock()
	ledger.tickets[issued.Ticket.TicketID].Email = "someone-else@example.edu"
	ledger.mu.Unlock()

	_, err := svc.RedeemTicket(context.Background(), issued.Payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIdentityMismatch))
}

func TestRedeemTicket_ConcurrentCallers_ExactlyOneSuccess(t *testing.T) {
	svc, _ := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, alreadyRedeemed := 0, 0

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.RedeemTicket(context.Background(), issued.Payload)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrTicketAlreadyRedeemed):
				alreadyRedeemed++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, alreadyRedeemed)
}

// --- VerifyTicket ---

func TestVerifyTicket_DoesNotConsume(t *testing.T) {
	svc, _ := newFakeService(t)
	issued := issueFor(t, svc, "bob@example.edu")

	ticket, err := svc.VerifyTicket(context.Background(), issued.Payload)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketCreated, ticket.Status)

	// Still redeemable afterwards.
	_, err = svc.RedeemTicket(context.Background(), issued.Payload)
	require.NoError(t, err)

	_, err = svc.VerifyTicket(context.Background(), issued.Payload)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTicketAlreadyRedeemed))
}

// --- ListTickets ---

func TestListTickets(t *testing.T) {
	svc, _ := newFakeService(t)
	issueFor(t, svc, "bob@example.edu")
	issueFor(t, svc, "carol@example.edu")

	tickets, err := svc.ListTickets(context.Background())
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}
