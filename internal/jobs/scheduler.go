package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskName identifies one of the lifecycle tasks the scheduler knows about
type TaskName string

const (
	TaskUpdateEventStatuses TaskName = "updateEventStatuses"
	TaskDailyReport         TaskName = "dailyReport"
	TaskCleanupLogs         TaskName = "cleanupLogs"
	TaskUpdateUserActivity  TaskName = "updateUserActivity"
)

// ErrTaskNotFound is returned for a task name that is unknown or not registered
var ErrTaskNotFound = errors.New("task not found")

// KnownTasks returns every task name in registration order
func KnownTasks() []TaskName {
	return []TaskName{TaskUpdateEventStatuses, TaskDailyReport, TaskCleanupLogs, TaskUpdateUserActivity}
}

// ParseTaskName maps a string to a known task name
func ParseTaskName(s string) (TaskName, error) {
	for _, name := range KnownTasks() {
		if string(name) == s {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTaskNotFound, s)
}

// DefaultTickTimeout bounds a single run when no timeout is configured
const DefaultTickTimeout = 2 * time.Minute

// TaskFunc is the body of a scheduled task
type TaskFunc func(ctx context.Context) error

// TaskStatus describes one registered task
type TaskStatus struct {
	Running   bool          `json:"running"`
	Period    time.Duration `json:"period"`
	Runs      int           `json:"runs"`
	LastRun   *time.Time    `json:"last_run,omitempty"`
	LastError string        `json:"last_error,omitempty"`
}

// Status describes the scheduler and all registered tasks
type Status struct {
	Running bool                    `json:"running"`
	Tasks   map[TaskName]TaskStatus `json:"tasks"`
}

type task struct {
	name   TaskName
	period time.Duration
	fn     TaskFunc
	stopCh chan struct{}

	mu        sync.Mutex
	runs      int
	lastRun   *time.Time
	lastError string
}

// Scheduler runs named periodic tasks. Each name can be registered once.
type Scheduler struct {
	logger      *slog.Logger
	tickTimeout time.Duration

	mu    sync.Mutex
	tasks map[TaskName]*task
	wg    sync.WaitGroup
}

// NewScheduler creates an empty scheduler. A zero tickTimeout uses DefaultTickTimeout.
func NewScheduler(logger *slog.Logger, tickTimeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if tickTimeout <= 0 {
		tickTimeout = DefaultTickTimeout
	}
	return &Scheduler{
		logger:      logger,
		tickTimeout: tickTimeout,
		tasks:       make(map[TaskName]*task),
	}
}

// Schedule registers fn under name and starts its timer. It returns false
// without replacing anything when name is already registered.
func (s *Scheduler) Schedule(name TaskName, period time.Duration, fn TaskFunc) bool {
	if _, err := ParseTaskName(string(name)); err != nil {
		s.logger.Warn("refusing to schedule unknown task", slog.String("task", string(name)))
		return false
	}
	if period <= 0 || fn == nil {
		s.logger.Warn("refusing to schedule task without period or function", slog.String("task", string(name)))
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[name]; exists {
		s.logger.Warn("task already exists, skipping", slog.String("task", string(name)))
		return false
	}

	t := &task{name: name, period: period, fn: fn, stopCh: make(chan struct{})}
	s.tasks[name] = t

	s.wg.Add(1)
	go s.loop(t)

	s.logger.Info("scheduled task",
		slog.String("task", string(name)),
		slog.Duration("period", period),
	)
	return true
}

// Stop stops and removes every task, waiting for running ticks to finish.
// Calling Stop on a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}
	stopping := s.tasks
	s.tasks = make(map[TaskName]*task)
	s.mu.Unlock()

	for _, t := range stopping {
		close(t.stopCh)
	}
	s.wg.Wait()
	s.logger.Info("all scheduled tasks stopped", slog.Int("count", len(stopping)))
}

// Status reports the scheduler and every registered task
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running: len(s.tasks) > 0,
		Tasks:   make(map[TaskName]TaskStatus, len(s.tasks)),
	}
	for name, t := range s.tasks {
		t.mu.Lock()
		ts := TaskStatus{
			Running:   true,
			Period:    t.period,
			Runs:      t.runs,
			LastError: t.lastError,
		}
		if t.lastRun != nil {
			last := *t.lastRun
			ts.LastRun = &last
		}
		t.mu.Unlock()
		st.Tasks[name] = ts
	}
	return st
}

// RunNow runs a registered task immediately and waits for it. The same
// function is used as for timer ticks.
func (s *Scheduler) RunNow(ctx context.Context, name TaskName) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	s.logger.Info("manually running task", slog.String("task", string(name)))
	return s.execute(ctx, t)
}

func (s *Scheduler) loop(t *task) {
	defer s.wg.Done()

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.execute(context.Background(), t)
		case <-t.stopCh:
			return
		}
	}
}

// execute runs one tick. Errors and panics are logged and recorded, never propagated past the tick.
func (s *Scheduler) execute(parent context.Context, t *task) (err error) {
	ctx, cancel := context.WithTimeout(parent, s.tickTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t.name, r)
		}
		s.record(t, started, err)
	}()

	return t.fn(ctx)
}

func (s *Scheduler) record(t *task, started time.Time, err error) {
	t.mu.Lock()
	t.runs++
	t.lastRun = &started
	t.lastError = ""
	if err != nil {
		t.lastError = err.Error()
	}
	t.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled task failed",
			slog.String("task", string(t.name)),
			slog.Duration("duration", time.Since(started)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("scheduled task completed",
		slog.String("task", string(t.name)),
		slog.Duration("duration", time.Since(started)),
	)
}
