package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/clinic-calendar/internal/accounts"
	"github.com/wolfman30/clinic-calendar/pkg/logging"
)

// Authenticator is satisfied by *accounts.Directory.
type Authenticator interface {
	Authenticate(email, password string) (accounts.User, error)
}

// TokenSigner is satisfied by *accounts.TokenIssuer.
type TokenSigner interface {
	Issue(u accounts.User) (string, time.Time, error)
}

// AuthHandler exchanges credentials for a session token.
type AuthHandler struct {
	users  Authenticator
	tokens TokenSigner
	logger *logging.Logger
}

func NewAuthHandler(users Authenticator, tokens TokenSigner, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      accounts.User `json:"user"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			h.logger.Info("login rejected", "email", req.Email)
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, expires, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue session token failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.logger.Info("user logged in", "user_id", user.ID, "role", string(user.Role))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}
