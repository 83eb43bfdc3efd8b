package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/repository"
)

// Atomicity tells whether a multi-collection operation ran inside a transaction
type Atomicity int

const (
	// Atomic means all writes committed together or none did
	Atomic Atomicity = iota
	// BestEffort means writes were applied one by one without a transaction
	BestEffort
)

func (a Atomicity) String() string {
	if a == BestEffort {
		return "best_effort"
	}
	return "atomic"
}

// MarshalText encodes the atomicity as its String form
func (a Atomicity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// DefaultCascadeTimeout bounds a cascade when no timeout is configured
const DefaultCascadeTimeout = 30 * time.Second

// WorkFunc is the body of an atomic unit. It must only use the given collections.
type WorkFunc func(ctx context.Context, cols repository.Collections) error

// Coordinator runs multi-collection mutations atomically when the store allows it
type Coordinator struct {
	gateway repository.Gateway
	logger  *slog.Logger
	timeout time.Duration
	opts    database.TxOptions
}

// NewCoordinator creates a coordinator. A zero timeout uses DefaultCascadeTimeout.
func NewCoordinator(gateway repository.Gateway, logger *slog.Logger, timeout time.Duration) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultCascadeTimeout
	}
	return &Coordinator{
		gateway: gateway,
		logger:  logger,
		timeout: timeout,
		opts:    database.DefaultTxOptions(),
	}
}

// RunAtomic runs work in a transaction if the store supports one, otherwise
// directly against the gateway. The returned Atomicity says which path ran.
//
// Domain errors returned by work (validation, not found, membership rules)
// are returned as is. Any other failure is wrapped in *TransactionAbortedError.
func (c *Coordinator) RunAtomic(ctx context.Context, op string, work WorkFunc) (Atomicity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	supported, err := c.gateway.SupportsTransactions(ctx)
	if err != nil {
		c.logger.Warn("transaction capability probe failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		supported = false
	}
	if !supported {
		return BestEffort, c.runBestEffort(ctx, op, work)
	}

	tx, err := c.gateway.BeginTx(ctx, c.opts)
	if errors.Is(err, database.ErrTxUnsupported) {
		return BestEffort, c.runBestEffort(ctx, op, work)
	}
	if err != nil {
		return Atomic, c.abort(op, Atomic, err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(context.Background())
		}
	}()

	if err := work(ctx, tx); err != nil {
		finished = true
		_ = tx.Rollback(ctx)
		return Atomic, c.abort(op, Atomic, err)
	}
	if err := ctx.Err(); err != nil {
		finished = true
		_ = tx.Rollback(context.Background())
		return Atomic, c.abort(op, Atomic, err)
	}

	finished = true
	if err := tx.Commit(ctx); err != nil {
		return Atomic, c.abort(op, Atomic, err)
	}

	c.logger.Debug("atomic operation committed",
		slog.String("op", op),
		slog.String("atomicity", Atomic.String()),
	)
	return Atomic, nil
}

func (c *Coordinator) runBestEffort(ctx context.Context, op string, work WorkFunc) error {
	c.logger.Warn("transactions unavailable, running without atomicity",
		slog.String("op", op),
		slog.String("atomicity", BestEffort.String()),
	)

	err := work(ctx, c.gateway)
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}

	c.logger.Error("best-effort operation failed part way",
		slog.String("op", op),
		slog.String("atomicity", BestEffort.String()),
		slog.Bool("data_consistency_risk", true),
		slog.String("error", err.Error()),
	)
	return &TransactionAbortedError{Op: op, Mode: BestEffort, Err: err}
}

func (c *Coordinator) abort(op string, mode Atomicity, err error) error {
	if isDomainError(err) {
		return err
	}
	c.logger.Warn("atomic operation rolled back",
		slog.String("op", op),
		slog.String("atomicity", mode.String()),
		slog.String("error", err.Error()),
	)
	return &TransactionAbortedError{Op: op, Mode: mode, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrEventNotFound,
		ErrUserNotFound,
		ErrTaskNotFound,
		ErrArchiveLinkNotFound,
		ErrAssigneeNotMember,
		ErrParticipantLimit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// EventCascadeResult reports what DeleteEventCascade removed
type EventCascadeResult struct {
	TasksDeleted        int       `json:"tasks_deleted"`
	ArchiveLinksDeleted int       `json:"archive_links_deleted"`
	UsersUpdated        int       `json:"users_updated"`
	Atomicity           Atomicity `json:"atomicity"`
}

// DeleteEventCascade deletes an event with its tasks and archive links and
// removes it from every member's events. Counts are taken before any write.
func (c *Coordinator) DeleteEventCascade(ctx context.Context, eventID, deletedBy string) (*EventCascadeResult, error) {
	result := &EventCascadeResult{}

	mode, err := c.RunAtomic(ctx, "delete_event_cascade", func(ctx context.Context, cols repository.Collections) error {
		event, err := cols.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return ErrEventNotFound
		}

		if result.TasksDeleted, err = cols.Tasks().CountByEvent(ctx, eventID); err != nil {
			return err
		}
		if result.ArchiveLinksDeleted, err = cols.ArchiveLinks().CountByEvent(ctx, eventID); err != nil {
			return err
		}
		if result.UsersUpdated, err = cols.Users().CountWithEvent(ctx, eventID); err != nil {
			return err
		}

		if err := cols.Tasks().DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		if err := cols.ArchiveLinks().DeleteByEvent(ctx, eventID); err != nil {
			return err
		}
		if err := cols.Users().RemoveEventEverywhere(ctx, eventID); err != nil {
			return err
		}
		return cols.Events().Delete(ctx, eventID)
	})
	result.Atomicity = mode
	if err != nil {
		return nil, err
	}

	c.logger.Info("event deleted with cascade",
		slog.String("event_id", eventID),
		slog.String("deleted_by", deletedBy),
		slog.Int("tasks_deleted", result.TasksDeleted),
		slog.Int("archive_links_deleted", result.ArchiveLinksDeleted),
		slog.Int("users_updated", result.UsersUpdated),
		slog.String("atomicity", mode.String()),
	)
	return result, nil
}

// UserCascadeResult reports what DeleteUserCascade changed
type UserCascadeResult struct {
	TasksUnassigned int       `json:"tasks_unassigned"`
	EventsUpdated   int       `json:"events_updated"`
	Atomicity       Atomicity `json:"atomicity"`
}

// DeleteUserCascade deletes a user, unassigns their tasks without deleting
// them, and removes them from every event's users.
func (c *Coordinator) DeleteUserCascade(ctx context.Context, userID, deletedBy string) (*UserCascadeResult, error) {
	result := &UserCascadeResult{}

	mode, err := c.RunAtomic(ctx, "delete_user_cascade", func(ctx context.Context, cols repository.Collections) error {
		user, err := cols.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		if result.TasksUnassigned, err = cols.Tasks().CountAssignedTo(ctx, userID); err != nil {
			return err
		}
		if result.EventsUpdated, err = cols.Events().CountWithMember(ctx, userID); err != nil {
			return err
		}

		if err := cols.Tasks().UnassignUser(ctx, userID); err != nil {
			return err
		}
		if err := cols.Events().RemoveMemberEverywhere(ctx, userID); err != nil {
			return err
		}
		return cols.Users().Delete(ctx, userID)
	})
	result.Atomicity = mode
	if err != nil {
		return nil, err
	}

	c.logger.Info("user deleted with cascade",
		slog.String("user_id", userID),
		slog.String("deleted_by", deletedBy),
		slog.Int("tasks_unassigned", result.TasksUnassigned),
		slog.Int("events_updated", result.EventsUpdated),
		slog.String("atomicity", mode.String()),
	)
	return result, nil
}
