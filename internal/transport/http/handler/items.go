package handler

import (
	"net/http"
	"strconv"

	"github.com/mediagate/internal/application/ingest"
)

// maxUploadBytes caps a single multipart upload at 4 GiB.
const maxUploadBytes = 4 << 30

// ItemHandler ingests uploaded media files.
type ItemHandler struct {
	svc ingest.Service
}

func NewItemHandler(svc ingest.Service) *ItemHandler {
	return &ItemHandler{svc: svc}
}

func (h *ItemHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' required")
		return
	}
	defer file.Close()

	// Optional attribution when the operator uploads on someone's behalf.
	var uploadedBy int64
	if v := r.FormValue("owner_id"); v != "" {
		uploadedBy, _ = strconv.ParseInt(v, 10, 64)
	}

	res, err := h.svc.Upload(r.Context(), header.Filename, header.Size, file, uploadedBy)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
