package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/eventsphere/api/internal/middleware"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// Tokens validates bearer tokens and issues new ones at login
type Tokens interface {
	middleware.TokenValidator
	TokenIssuer
}

// RouterConfig holds the dependencies of the HTTP surface
type RouterConfig struct {
	Events   *service.EventService
	Users    *service.UserService
	Tasks    *service.TaskService
	Archives *service.ArchiveService
	Jobs     TaskRunner
	Tokens   Tokens
	Ping     func(ctx context.Context) error
	Logger   *slog.Logger
}

// NewRouter builds the API mux with global middleware applied
func NewRouter(cfg RouterConfig) http.Handler {
	auth := NewAuthHandler(cfg.Users, cfg.Tokens)
	events := NewEventHandler(cfg.Events)
	users := NewUserHandler(cfg.Users)
	tasks := NewTaskHandler(cfg.Tasks)
	archives := NewArchiveHandler(cfg.Archives)
	admin := NewAdminHandler(cfg.Jobs)

	authMiddleware := middleware.Auth(cfg.Tokens, cfg.Users)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}
	can := func(perm model.Permission, h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, authMiddleware, middleware.RequirePermission(perm))
	}
	gated := func(gate middleware.Middleware, h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, authMiddleware, gate)
	}

	mux := http.NewServeMux()

	mux.Handle("GET /health", Health{Ping: cfg.Ping})

	// Auth
	mux.HandleFunc("POST /v1/auth/login", auth.Login)

	// Events
	mux.Handle("POST /v1/events", can(model.PermCreateEvents, events.Create))
	mux.Handle("GET /v1/events/{id}", can(model.PermViewEvents, events.Get))
	mux.Handle("PATCH /v1/events/{id}", can(model.PermEditEvents, events.Update))
	mux.Handle("PATCH /v1/events/{id}/status", can(model.PermEditEvents, events.ChangeStatus))
	mux.Handle("DELETE /v1/events/{id}", can(model.PermDeleteEvents, events.Delete))
	mux.Handle("POST /v1/events/{id}/members", can(model.PermAssignUsers, events.AddMember))
	mux.Handle("DELETE /v1/events/{id}/members/{userId}", can(model.PermAssignUsers, events.RemoveMember))

	// Tasks
	mux.Handle("POST /v1/events/{id}/tasks", can(model.PermCreateTasks, tasks.Create))
	mux.Handle("GET /v1/events/{id}/tasks", can(model.PermViewTasks, tasks.ListForEvent))
	mux.Handle("GET /v1/tasks/{id}", can(model.PermViewTasks, tasks.Get))
	mux.Handle("PATCH /v1/tasks/{id}", can(model.PermEditAllTasks, tasks.Update))
	mux.Handle("PATCH /v1/tasks/{id}/status", can(model.PermEditOwnTasks, tasks.ChangeStatus))
	mux.Handle("PUT /v1/tasks/{id}/assignee", can(model.PermEditAllTasks, tasks.Assign))
	mux.Handle("DELETE /v1/tasks/{id}", can(model.PermDeleteTasks, tasks.Delete))

	// Archives
	mux.Handle("POST /v1/events/{id}/archives", can(model.PermManageArchive, archives.Create))
	mux.Handle("GET /v1/events/{id}/archives", can(model.PermViewArchive, archives.ListForEvent))
	mux.Handle("DELETE /v1/archives/{id}", can(model.PermManageArchive, archives.Delete))

	// Users
	mux.Handle("POST /v1/users", can(model.PermManageUsers, users.Create))
	mux.Handle("GET /v1/users/me", authed(users.Me))
	mux.Handle("GET /v1/users/{id}", gated(middleware.RequireRole(model.RoleEventCoordinator), users.Get))
	mux.Handle("DELETE /v1/users/{id}", can(model.PermManageUsers, users.Delete))

	// Admin
	mux.Handle("GET /v1/admin/events", gated(middleware.RequireManagement(), events.List))
	mux.Handle("GET /v1/admin/tasks", gated(middleware.RequireManagement(), tasks.ListAll))
	mux.Handle("GET /v1/admin/archives", gated(middleware.RequireManagement(), archives.ListAll))
	mux.Handle("GET /v1/admin/jobs", gated(middleware.RequireAdmin(), admin.ListJobs))
	mux.Handle("POST /v1/admin/jobs/{name}/run", gated(middleware.RequireAdmin(), admin.RunJob))
	mux.Handle("GET /v1/admin/roles", authed(admin.Roles))

	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
	)
}
