package handler

import (
	"net/http"

	"github.com/ecell-portal/internal/application/member"
	"github.com/ecell-portal/internal/transport/http/middleware"
)

// MemberHandler handles member profile endpoints.
type MemberHandler struct {
	svc member.Service
}

func NewMemberHandler(svc member.Service) *MemberHandler {
	return &MemberHandler{svc: svc}
}

// Me returns the authenticated member's own profile.
func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	m, err := h.svc.Get(r.Context(), claims.MemberID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
