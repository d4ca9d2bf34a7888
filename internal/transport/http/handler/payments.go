package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediagate/internal/application/payment"
	"github.com/mediagate/internal/pkg/validate"
)

// PaymentHandler sells credit packages and lets the operator settle them.
type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) Packages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Packages())
}

type createPaymentRequest struct {
	OwnerID   int64  `json:"owner_id" validate:"required"`
	PackageID string `json:"package_id" validate:"required"`
	Method    string `json:"method" validate:"required"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instr, err := h.svc.Create(r.Context(), req.OwnerID, req.PackageID, req.Method)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, instr)
}

func (h *PaymentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Approve(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Reject(r.Context(), chi.URLParam(r, "paymentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid owner id")
		return
	}
	history, err := h.svc.History(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
