package handler

import (
	"net/http"

	"github.com/eventsphere/api/internal/middleware"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// TaskHandler handles task HTTP requests
type TaskHandler struct {
	svc *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// Create handles POST /v1/events/{id}/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.svc.CreateTask(ctx, r.PathValue("id"), &req, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "create task"))
		return
	}

	WriteData(w, http.StatusCreated, task)
}

// ListForEvent handles GET /v1/events/{id}/tasks
func (h *TaskHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListEventTasks(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list tasks"))
		return
	}

	WriteData(w, http.StatusOK, tasks)
}

// ListAll handles GET /v1/admin/tasks
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListAllTasks(r.Context())
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "list tasks"))
		return
	}

	WriteData(w, http.StatusOK, tasks)
}

// Get handles GET /v1/tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "get task"))
		return
	}

	WriteData(w, http.StatusOK, task)
}

// Update handles PATCH /v1/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.svc.UpdateTask(ctx, r.PathValue("id"), &req, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "update task"))
		return
	}

	WriteData(w, http.StatusOK, task)
}

// ChangeStatus handles PATCH /v1/tasks/{id}/status
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeTaskStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.svc.ChangeStatus(ctx, middleware.CurrentUser(ctx), r.PathValue("id"), req.Status)
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "change task status"))
		return
	}

	WriteData(w, http.StatusOK, task)
}

// Assign handles PUT /v1/tasks/{id}/assignee
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req model.AssignTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	task, err := h.svc.AssignTask(ctx, r.PathValue("id"), req.UserID, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "assign task"))
		return
	}

	WriteData(w, http.StatusOK, task)
}

// Delete handles DELETE /v1/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.svc.DeleteTask(ctx, r.PathValue("id"), middleware.GetUserID(ctx)); err != nil {
		WriteError(w, MapServiceErrorWithContext(err, "delete task"))
		return
	}

	WriteNoContent(w)
}
