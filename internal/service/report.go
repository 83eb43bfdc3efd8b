package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
)

// DailyStatistics are the counters of a daily report
type DailyStatistics struct {
	EventsCreatedToday  int `json:"events_created_today"`
	UsersCreatedToday   int `json:"users_created_today"`
	TasksCompletedToday int `json:"tasks_completed_today"`
	ActiveEvents        int `json:"active_events"`
	UpcomingEvents      int `json:"upcoming_events"`
}

// DailyReport summarises activity for one UTC day
type DailyReport struct {
	Date        string          `json:"date"`
	Statistics  DailyStatistics `json:"statistics"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ReportService builds activity reports
type ReportService struct {
	gateway repository.Gateway
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportService creates a new report service. A nil clock uses time.Now.
func NewReportService(gateway repository.Gateway, logger *slog.Logger, now func() time.Time) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{gateway: gateway, logger: logger, now: now}
}

// DailyReport counts today's activity and logs the result
func (s *ReportService) DailyReport(ctx context.Context) (*DailyReport, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	var (
		stats DailyStatistics
		err   error
	)
	if stats.EventsCreatedToday, err = s.gateway.Events().CountCreatedBetween(ctx, today, tomorrow); err != nil {
		return nil, err
	}
	if stats.UsersCreatedToday, err = s.gateway.Users().CountCreatedBetween(ctx, today, tomorrow); err != nil {
		return nil, err
	}
	if stats.TasksCompletedToday, err = s.gateway.Tasks().CountCompletedBetween(ctx, today, tomorrow); err != nil {
		return nil, err
	}
	if stats.ActiveEvents, err = s.gateway.Events().CountByStatus(ctx, model.EventStatusActive); err != nil {
		return nil, err
	}
	if stats.UpcomingEvents, err = s.gateway.Events().CountUpcoming(ctx, now); err != nil {
		return nil, err
	}

	report := &DailyReport{
		Date:        today.Format(time.DateOnly),
		Statistics:  stats,
		GeneratedAt: now,
	}

	s.logger.Info("daily report generated",
		slog.String("date", report.Date),
		slog.Int("events_created_today", stats.EventsCreatedToday),
		slog.Int("users_created_today", stats.UsersCreatedToday),
		slog.Int("tasks_completed_today", stats.TasksCompletedToday),
		slog.Int("active_events", stats.ActiveEvents),
		slog.Int("upcoming_events", stats.UpcomingEvents),
	)
	return report, nil
}
