package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mediagate/internal/application/access"
	"github.com/mediagate/internal/pkg/validate"
)

// DeliveryHandler receives delivered-message callbacks from the transport so
// the sweeper can delete them when the auto-delete timer fires.
type DeliveryHandler struct {
	access access.Service
}

func NewDeliveryHandler(accessSvc access.Service) *DeliveryHandler {
	return &DeliveryHandler{access: accessSvc}
}

type deliveryRequest struct {
	ChatID    int64 `json:"chat_id" validate:"required"`
	MessageID int64 `json:"message_id" validate:"required"`
}

func (h *DeliveryHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.access.RegisterDelivery(r.Context(), req.ChatID, req.MessageID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "registered"})
}
