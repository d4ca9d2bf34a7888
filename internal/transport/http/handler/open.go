package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediagate/internal/application/access"
	"github.com/mediagate/internal/application/gate"
	"github.com/mediagate/internal/pkg/validate"
)

// OpenHandler is the public face of the gate: it resolves deep-link payloads
// and counts shortener click-throughs.
type OpenHandler struct {
	access access.Service
	gate   gate.Service
}

func NewOpenHandler(accessSvc access.Service, gateSvc gate.Service) *OpenHandler {
	return &OpenHandler{access: accessSvc, gate: gateSvc}
}

type openRequest struct {
	OwnerID int64  `json:"owner_id" validate:"required"`
	Payload string `json:"payload" validate:"required"`
}

func (h *OpenHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.access.Open(r.Context(), req.OwnerID, req.Payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Click is the shortener's click-through callback. It always answers 200 so
// a retried callback never errors on the shortener side.
func (h *OpenHandler) Click(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	_ = h.gate.RecordClick(r.Context(), token)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
}
