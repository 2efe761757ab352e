package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ecell-portal/internal/application/registration"
	"github.com/ecell-portal/internal/domain"
)

// OTPHandler handles the registration code flow: send, resend, verify.
type OTPHandler struct {
	svc registration.Service
}

func NewOTPHandler(svc registration.Service) *OTPHandler {
	return &OTPHandler{svc: svc}
}

// Send issues a verification code and emails it to the applicant.
func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.RequestCode(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent to your email"})
}

// Resend issues a fresh code, superseding any code still pending.
func (h *OTPHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.ResendCode(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "new verification code sent"})
}

// Verify confirms the code and completes registration.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, bearer, err := h.svc.ConfirmCode(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisteredEnvelope{
		Message: "email verified and registration successful",
		Bearer:  bearer,
		Member:  m,
	})
}
