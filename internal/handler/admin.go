package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/eventsphere/api/internal/jobs"
	"github.com/eventsphere/api/internal/model"
)

// TaskRunner is the part of the lifecycle scheduler the admin surface uses
type TaskRunner interface {
	Status() jobs.Status
	RunNow(ctx context.Context, name jobs.TaskName) error
}

// AdminHandler handles scheduler and role catalog requests
type AdminHandler struct {
	jobs TaskRunner
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(jobs TaskRunner) *AdminHandler {
	return &AdminHandler{jobs: jobs}
}

// TaskView is one row of the scheduled task listing
type TaskView struct {
	Name string `json:"name"`
	jobs.TaskStatus
}

// TasksView is the scheduled task listing
type TasksView struct {
	Running bool       `json:"running"`
	Tasks   []TaskView `json:"tasks"`
}

// ListJobs handles GET /v1/admin/jobs
func (h *AdminHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	st := h.jobs.Status()

	view := TasksView{Running: st.Running, Tasks: make([]TaskView, 0, len(st.Tasks))}
	for name, ts := range st.Tasks {
		view.Tasks = append(view.Tasks, TaskView{Name: string(name), TaskStatus: ts})
	}
	sort.Slice(view.Tasks, func(i, j int) bool { return view.Tasks[i].Name < view.Tasks[j].Name })

	WriteData(w, http.StatusOK, view)
}

// RunJob handles POST /v1/admin/jobs/{name}/run
func (h *AdminHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name, err := jobs.ParseTaskName(r.PathValue("name"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	if err := h.jobs.RunNow(r.Context(), name); err != nil {
		if errors.Is(err, jobs.ErrTaskNotFound) {
			WriteError(w, MapServiceError(err))
			return
		}
		WriteError(w, model.NewInternalError("task "+string(name)+" failed: "+err.Error()))
		return
	}

	WriteData(w, http.StatusOK, h.jobs.Status().Tasks[name])
}

// Roles handles GET /v1/admin/roles
func (h *AdminHandler) Roles(w http.ResponseWriter, r *http.Request) {
	WriteData(w, http.StatusOK, model.DescribeRoles())
}
