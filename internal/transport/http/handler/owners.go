package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/validate"
)

type ownerAdminStore interface {
	Get(ctx context.Context, ownerID int64) (*domain.Owner, error)
	Update(ctx context.Context, ownerID int64, updates map[string]interface{}) error
	ListBanned(ctx context.Context) ([]domain.Owner, error)
	ListPremium(ctx context.Context) ([]domain.Owner, error)
}

// OwnerHandler covers the operator's moderation actions: bans and premium.
type OwnerHandler struct {
	owners ownerAdminStore
}

func NewOwnerHandler(owners ownerAdminStore) *OwnerHandler {
	return &OwnerHandler{owners: owners}
}

func (h *OwnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	o, err := h.owners.Get(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OwnerHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true, "banned")
}

func (h *OwnerHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false, "unbanned")
}

func (h *OwnerHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool, msg string) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	if err := h.owners.Update(r.Context(), ownerID, map[string]interface{}{"banned": banned}); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
}

func (h *OwnerHandler) ListBanned(w http.ResponseWriter, r *http.Request) {
	owners, err := h.owners.ListBanned(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, owners)
}

func (h *OwnerHandler) ListPremium(w http.ResponseWriter, r *http.Request) {
	owners, err := h.owners.ListPremium(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, owners)
}

type premiumRequest struct {
	// Days of premium; 0 grants it without an expiry.
	Days int `json:"days" validate:"gte=0"`
}

func (h *OwnerHandler) GrantPremium(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	var req premiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updates := map[string]interface{}{"premium": true}
	if req.Days > 0 {
		updates["premium_expire"] = time.Now().UTC().Add(time.Duration(req.Days) * 24 * time.Hour)
	}
	if err := h.owners.Update(r.Context(), ownerID, updates); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "premium granted"})
}

func (h *OwnerHandler) RevokePremium(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	if err := h.owners.Update(r.Context(), ownerID, map[string]interface{}{"premium": false}); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "premium revoked"})
}
