package handler

import (
	"net/http"
	"time"

	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	GetExpiration() time.Duration
}

// AuthHandler handles login
type AuthHandler struct {
	users  *service.UserService
	tokens TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *service.UserService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      *model.User `json:"user"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "login"))
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		WriteError(w, model.NewInternalError("login: could not issue token"))
		return
	}

	WriteData(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: int64(h.tokens.GetExpiration() / time.Second),
		User:      user,
	})
}
