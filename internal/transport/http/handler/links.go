package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mediagate/internal/domain"
	"github.com/mediagate/internal/pkg/validate"
)

type linkEncoder interface {
	EncodeSingle(locationID, itemID int64) string
	EncodeRange(locationID, firstID, lastID int64) string
}

type batchLister interface {
	List(ctx context.Context) ([]domain.Batch, error)
}

// LinkHandler mints share links for the operator: single items, item ranges,
// and batch links.
type LinkHandler struct {
	codec   linkEncoder
	batches batchLister
}

func NewLinkHandler(codec linkEncoder, batches batchLister) *LinkHandler {
	return &LinkHandler{codec: codec, batches: batches}
}

type rangeLinkRequest struct {
	LocationID int64 `json:"location_id" validate:"required"`
	FirstID    int64 `json:"first_id" validate:"required,gt=0"`
	LastID     int64 `json:"last_id" validate:"required,gt=0"`
}

func (h *LinkHandler) CreateRange(w http.ResponseWriter, r *http.Request) {
	var req rangeLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	link := h.codec.EncodeRange(req.LocationID, req.FirstID, req.LastID)
	writeJSON(w, http.StatusCreated, map[string]string{"share_link": link})
}

type singleLinkRequest struct {
	LocationID int64 `json:"location_id" validate:"required"`
	ItemID     int64 `json:"item_id" validate:"required,gt=0"`
}

func (h *LinkHandler) CreateSingle(w http.ResponseWriter, r *http.Request) {
	var req singleLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	link := h.codec.EncodeSingle(req.LocationID, req.ItemID)
	writeJSON(w, http.StatusCreated, map[string]string{"share_link": link})
}

func (h *LinkHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}
