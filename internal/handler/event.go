package handler

import (
	"net/http"

	"github.com/eventsphere/api/internal/middleware"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// Create handles POST /v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create event"))
		return
	}

	WriteData(w, http.StatusCreated, event)
}

// Get handles GET /v1/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get event"))
		return
	}

	WriteData(w, http.StatusOK, event)
}

// List handles GET /v1/admin/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list events"))
		return
	}

	WriteData(w, http.StatusOK, events)
}

// Update handles PATCH /v1/events/{id}
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	event, err := h.svc.UpdateEvent(ctx, middleware.CurrentUser(ctx), r.PathValue("id"), &req)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "update event"))
		return
	}

	WriteData(w, http.StatusOK, event)
}

// ChangeStatus handles PATCH /v1/events/{id}/status
func (h *EventHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	event, err := h.svc.ChangeStatus(ctx, r.PathValue("id"), req.Status, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "change event status"))
		return
	}

	WriteData(w, http.StatusOK, event)
}

// Delete handles DELETE /v1/events/{id}. The response reports what the
// cascade removed.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.svc.DeleteEvent(ctx, r.PathValue("id"), middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete event"))
		return
	}

	WriteData(w, http.StatusOK, result)
}

// AddMember handles POST /v1/events/{id}/members
func (h *EventHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req model.AddMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	event, err := h.svc.AddMember(ctx, r.PathValue("id"), &req, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "add event member"))
		return
	}

	WriteData(w, http.StatusOK, event)
}

// RemoveMember handles DELETE /v1/events/{id}/members/{userId}
func (h *EventHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	event, err := h.svc.RemoveMember(ctx, r.PathValue("id"), r.PathValue("userId"), middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "remove event member"))
		return
	}

	WriteData(w, http.StatusOK, event)
}
