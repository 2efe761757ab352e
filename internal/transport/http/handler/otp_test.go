package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ecell-portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRegistrationService lets each test script the service outcome directly.
type stubRegistrationService struct {
	requestErr error
	member     *domain.Member
	bearer     string
	confirmErr error
}

func (s *stubRegistrationService) RequestCode(_ context.Context, _ domain.RegistrationRequest) error {
	return s.requestErr
}

func (s *stubRegistrationService) ResendCode(_ context.Context, _ domain.RegistrationRequest) error {
	return s.requestErr
}

func (s *stubRegistrationService) ConfirmCode(_ context.Context, _ domain.ConfirmCodeRequest) (*domain.Member, string, error) {
	return s.member, s.bearer, s.confirmErr
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestOTPSend_Success(t *testing.T) {
	h := NewOTPHandler(&stubRegistrationService{})

	rec := postJSON(t, h.Send, `{"name":"Alice","email":"alice@example.edu","password":"hunter22","roll_number":"21BCE10001"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Contains(t, env.Message, "sent")
}

func TestOTPSend_InvalidBody(t *testing.T) {
	h := NewOTPHandler(&stubRegistrationService{})

	rec := postJSON(t, h.Send, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOTPSend_DomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrDomainNotAllowed, http.StatusBadRequest},
		{domain.ErrAlreadyRegistered, http.StatusConflict},
		{domain.ErrDeliveryFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewOTPHandler(&stubRegistrationService{
				requestErr: fmt.Errorf("wrapped: %w", tc.err),
			})
			rec := postJSON(t, h.Send, `{"name":"A","email":"a@example.edu","password":"hunter22","roll_number":"R1"}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestOTPVerify_Success(t *testing.T) {
	h := NewOTPHandler(&stubRegistrationService{
		member: &domain.Member{MemberID: "m1", Email: "alice@example.edu", ClubMemberNo: "EC0001"},
		bearer: "bearer-token",
	})

	rec := postJSON(t, h.Verify, `{"email":"alice@example.edu","otp":"123456"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env RegisteredEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "bearer-token", env.Bearer)
	require.NotNil(t, env.Member)
	assert.Equal(t, "EC0001", env.Member.ClubMemberNo)
}

func TestOTPVerify_FailureMessagesAreStable(t *testing.T) {
	// Handler messages come from the status map, not from internal error
	// text, so nothing about store internals can leak to a client.
	h := NewOTPHandler(&stubRegistrationService{
		confirmErr: fmt.Errorf("entry for alice has 5 attempts: %w", domain.ErrTooManyAttempts),
	})

	rec := postJSON(t, h.Verify, `{"email":"alice@example.edu","otp":"123456"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "too many attempts; request a new code", env.Error)
	assert.NotContains(t, env.Error, "alice")
}
