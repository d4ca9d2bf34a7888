package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mediagate/internal/application/ledger"
	"github.com/mediagate/internal/pkg/validate"
)

// CreditHandler is the admin view of the credit ledger.
type CreditHandler struct {
	svc ledger.Service
}

func NewCreditHandler(svc ledger.Service) *CreditHandler {
	return &CreditHandler{svc: svc}
}

func ownerParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	return id, err == nil
}

func (h *CreditHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	acct, err := h.svc.Get(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type creditRequest struct {
	Amount int    `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason"`
	// ExpiryDays overrides the configured credit lifetime; 0 keeps the default.
	ExpiryDays int `json:"expiry_days" validate:"gte=0"`
}

func (h *CreditHandler) Grant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "operator grant"
	}
	if err := h.svc.CreditWithExpiry(r.Context(), ownerID, req.Amount, reason, req.ExpiryDays); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "credited"})
}

type setBalanceRequest struct {
	Amount     int    `json:"amount" validate:"gte=0"`
	Reason     string `json:"reason"`
	ExpiryDays int    `json:"expiry_days" validate:"gte=0"`
}

func (h *CreditHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	var req setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "operator set"
	}
	if err := h.svc.SetBalanceWithExpiry(r.Context(), ownerID, req.Amount, reason, req.ExpiryDays); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "balance set"})
}

func (h *CreditHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	if err := h.svc.Reset(r.Context(), ownerID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "reset"})
}

func (h *CreditHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	txns, err := h.svc.Transactions(r.Context(), ownerID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *CreditHandler) ReferralCode(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	code, err := h.svc.EnsureReferralCode(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"referral_code": code})
}

func (h *CreditHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
