package jobs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/eventsphere/api/internal/service"
)

// StatusUpdater persists derived event statuses
type StatusUpdater interface {
	UpdateEventStatuses(ctx context.Context) (int, error)
}

// Reporter builds the daily activity report
type Reporter interface {
	DailyReport(ctx context.Context) (*service.DailyReport, error)
}

// UserDeactivator marks long-inactive users inactive
type UserDeactivator interface {
	DeactivateInactive(ctx context.Context, threshold time.Duration) (int, error)
}

// Dependencies are the services the lifecycle tasks call
type Dependencies struct {
	Events  StatusUpdater
	Reports Reporter
	Users   UserDeactivator
	Logger  *slog.Logger
}

// Config holds task periods and maintenance thresholds
type Config struct {
	StatusInterval       time.Duration
	ReportInterval       time.Duration
	LogCleanupInterval   time.Duration
	UserActivityInterval time.Duration

	LogDir              string
	LogRetention        time.Duration
	InactivityThreshold time.Duration
}

// DefaultConfig matches the production schedule
func DefaultConfig() Config {
	return Config{
		StatusInterval:       5 * time.Minute,
		ReportInterval:       24 * time.Hour,
		LogCleanupInterval:   7 * 24 * time.Hour,
		UserActivityInterval: 24 * time.Hour,
		LogRetention:         30 * 24 * time.Hour,
		InactivityThreshold:  90 * 24 * time.Hour,
	}
}

// RegisterLifecycleTasks schedules the four lifecycle tasks and returns how many were registered
func RegisterLifecycleTasks(s *Scheduler, deps Dependencies, cfg Config) int {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registered := 0
	for _, entry := range []struct {
		name   TaskName
		period time.Duration
		fn     TaskFunc
	}{
		{TaskUpdateEventStatuses, cfg.StatusInterval, updateEventStatuses(deps.Events, logger)},
		{TaskDailyReport, cfg.ReportInterval, dailyReport(deps.Reports)},
		{TaskCleanupLogs, cfg.LogCleanupInterval, cleanupLogs(cfg.LogDir, cfg.LogRetention, logger)},
		{TaskUpdateUserActivity, cfg.UserActivityInterval, updateUserActivity(deps.Users, cfg.InactivityThreshold)},
	} {
		if s.Schedule(entry.name, entry.period, entry.fn) {
			registered++
		}
	}
	return registered
}

func updateEventStatuses(events StatusUpdater, logger *slog.Logger) TaskFunc {
	return func(ctx context.Context) error {
		n, err := events.UpdateEventStatuses(ctx)
		if n > 0 {
			logger.Info("event statuses updated", slog.Int("count", n))
		}
		return err
	}
}

func dailyReport(reports Reporter) TaskFunc {
	return func(ctx context.Context) error {
		_, err := reports.DailyReport(ctx)
		return err
	}
}

func updateUserActivity(users UserDeactivator, threshold time.Duration) TaskFunc {
	return func(ctx context.Context) error {
		_, err := users.DeactivateInactive(ctx, threshold)
		return err
	}
}

func cleanupLogs(dir string, retention time.Duration, logger *slog.Logger) TaskFunc {
	return func(ctx context.Context) error {
		n, err := CleanupLogs(ctx, dir, retention, time.Now())
		if err != nil {
			return err
		}
		logger.Info("old log files cleaned up", slog.Int("count", n), slog.String("dir", dir))
		return nil
	}
}

// CleanupLogs deletes regular files in dir last modified before now-retention.
// An empty dir or a missing directory is not an error.
func CleanupLogs(ctx context.Context, dir string, retention time.Duration, now time.Time) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-retention)
	deleted := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
