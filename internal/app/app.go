// Package app wires configuration, storage and services into a runnable
// process. Both binaries under cmd/ build on it.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eventsphere/api/internal/config"
	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/handler"
	"github.com/eventsphere/api/internal/jobs"
	"github.com/eventsphere/api/internal/repository"
	"github.com/eventsphere/api/internal/repository/memory"
	"github.com/eventsphere/api/internal/service"
	"github.com/eventsphere/api/pkg/jwt"
)

// App holds the wired components of one process
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Gateway   repository.Gateway
	Events    *service.EventService
	Users     *service.UserService
	Tasks     *service.TaskService
	Archives  *service.ArchiveService
	Reports   *service.ReportService
	Scheduler *jobs.Scheduler
	Tokens    *jwt.Service

	ping    func(ctx context.Context) error
	closers []io.Closer
}

// New opens the configured store and builds every service on top of it
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		a.Gateway = memory.New(memory.WithTransactions(cfg.Database.Transactions != database.TxModeOff))
		logger.Warn("using in-memory store; data is lost on exit")
	default:
		db := database.NewSurrealDB(database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Namespace:       cfg.Database.Namespace,
			Database:        cfg.Database.Database,
			TransactionMode: cfg.Database.Transactions,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db)
		a.ping = db.Ping
		a.Gateway = repository.NewSurrealGateway(db)

		logger.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
			slog.Bool("transactions", db.SupportsTransactions()),
		)
	}

	tokens, err := jwt.NewService(jwt.Config{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.TokenTTL,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	a.Tokens = tokens

	coordinator := service.NewCoordinator(a.Gateway, logger, cfg.Cascade.Timeout)
	a.Events = service.NewEventService(a.Gateway, coordinator, logger, time.Now)
	a.Users = service.NewUserService(a.Gateway, coordinator, logger, time.Now).
		WithLoginPolicy(service.LoginPolicy{
			MaxAttempts: cfg.Auth.MaxLoginAttempts,
			Lockout:     cfg.Auth.LockoutDuration,
		})
	a.Tasks = service.NewTaskService(a.Gateway, coordinator, logger, time.Now)
	a.Archives = service.NewArchiveService(a.Gateway, coordinator, logger)
	a.Reports = service.NewReportService(a.Gateway, logger, time.Now)

	a.Scheduler = jobs.NewScheduler(logger, cfg.Jobs.TickTimeout)
	jobs.RegisterLifecycleTasks(a.Scheduler, jobs.Dependencies{
		Events:  a.Events,
		Reports: a.Reports,
		Users:   a.Users,
		Logger:  logger,
	}, JobsConfig(cfg))

	return a, nil
}

// JobsConfig projects the scheduler settings out of cfg
func JobsConfig(cfg *config.Config) jobs.Config {
	return jobs.Config{
		StatusInterval:       cfg.Jobs.StatusInterval,
		ReportInterval:       cfg.Jobs.ReportInterval,
		LogCleanupInterval:   cfg.Jobs.LogCleanupInterval,
		UserActivityInterval: cfg.Jobs.UserActivityInterval,
		LogDir:               cfg.Log.Dir,
		LogRetention:         cfg.Jobs.LogRetention,
		InactivityThreshold:  cfg.Jobs.InactivityThreshold,
	}
}

// Handler builds the routed, middleware-wrapped HTTP surface
func (a *App) Handler() http.Handler {
	return handler.NewRouter(handler.RouterConfig{
		Events:   a.Events,
		Users:    a.Users,
		Tasks:    a.Tasks,
		Archives: a.Archives,
		Jobs:     a.Scheduler,
		Tokens:   a.Tokens,
		Ping:     a.ping,
		Logger:   a.Logger,
	})
}

// Close stops the scheduler and releases the store connection
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// NewLogger builds the process logger. JSON goes to stdout and, when dir is
// set, also to dir/eventsphere-YYYY-MM-DD.log. The returned closer releases
// the log file.
func NewLogger(level, dir string, now time.Time) (*slog.Logger, io.Closer, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		name := filepath.Join(dir, "eventsphere-"+now.Format("2006-01-02")+".log")
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
