package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mailflow/infrastructure/config"
	"mailflow/pkg/auth"
	"mailflow/pkg/errors"
)

// AuthHandler issues bearer tokens for the single configured account.
type AuthHandler struct {
	generator  *auth.JWTGenerator
	cfg        *config.Config
	errHandler *errors.ErrorHandler
	logger     *zap.Logger
}

// NewAuthHandler creates the handler.
func NewAuthHandler(
	generator *auth.JWTGenerator,
	cfg *config.Config,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		generator:  generator,
		cfg:        cfg,
		errHandler: errHandler,
		logger:     logger,
	}
}

// TokenRequest accepts either an email or a username.
type TokenRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Token handles POST /api/token/.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errHandler.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if req.Password == "" || (req.Email == "" && req.Username == "") {
		h.errHandler.Handle(w, r, errors.NewValidationError("email or username and password are required"))
		return
	}

	if !h.credentialsMatch(req) {
		h.logger.Warn("Failed login attempt",
			zap.String("email", req.Email),
			zap.String("username", req.Username),
		)
		h.errHandler.Handle(w, r, errors.NewUnauthorizedError("invalid credentials"))
		return
	}

	token, err := h.generator.GenerateToken(h.cfg.AuthUserID, h.cfg.AuthEmail)
	if err != nil {
		h.errHandler.Handle(w, r, errors.NewInternalError("failed to issue token").WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(TokenResponse{
		Token:  token,
		UserID: h.cfg.AuthUserID,
		Email:  h.cfg.AuthEmail,
	})
}

func (h *AuthHandler) credentialsMatch(req TokenRequest) bool {
	identityOK := false
	if req.Email != "" && req.Email == h.cfg.AuthEmail {
		identityOK = true
	}
	if req.Username != "" && req.Username == h.cfg.AuthUsername {
		identityOK = true
	}
	if !identityOK || h.cfg.AuthPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AuthPassword)) == 1
}
