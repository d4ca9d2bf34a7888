package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mediagate/internal/config"
	jwtinfra "github.com/mediagate/internal/infrastructure/jwt"
	"github.com/mediagate/internal/pkg/validate"
)

// SessionHandler authenticates the operator and mints admin JWTs.
type SessionHandler struct {
	cfg *config.Config
	jwt *jwtinfra.Provider
}

func NewSessionHandler(cfg *config.Config, jwt *jwtinfra.Provider) *SessionHandler {
	return &SessionHandler{cfg: cfg, jwt: jwt}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.OperatorUsername)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.OperatorPasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	bearer, err := h.jwt.Sign(req.Username, "operator")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Bearer: bearer})
}
