package handler

import (
	"net/http"

	"github.com/mediagate/internal/application/gate"
)

// SecurityHandler is the admin window into the verification gate: token and
// bypass statistics, record clearing, and token revocation.
type SecurityHandler struct {
	svc gate.Service
}

func NewSecurityHandler(svc gate.Service) *SecurityHandler {
	return &SecurityHandler{svc: svc}
}

func (h *SecurityHandler) TokenStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.TokenStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *SecurityHandler) BypassStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.BypassStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *SecurityHandler) ClearBypassRecord(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	n, err := h.svc.ClearBypassRecord(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n, Message: "bypass record cleared"})
}

func (h *SecurityHandler) RevokeTokens(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	n, err := h.svc.RevokeTokens(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n, Message: "tokens revoked"})
}
