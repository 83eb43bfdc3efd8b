package handler

import (
	"net/http"

	"github.com/eventsphere/api/internal/middleware"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// UserHandler handles user HTTP requests
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create handles POST /v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.svc.CreateUser(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create user"))
		return
	}

	WriteData(w, http.StatusCreated, user)
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Get handles GET /v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get user"))
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Delete handles DELETE /v1/users/{id}. Tasks assigned to the user are
// unassigned and the user is removed from every event.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.svc.DeleteUser(ctx, middleware.GetUserID(ctx), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete user"))
		return
	}

	WriteData(w, http.StatusOK, result)
}
