package repository

import (
	"context"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
)

// EventStore is the event collection
type EventStore interface {
	Create(ctx context.Context, event *model.Event) error
	// Get returns nil, nil when the event does not exist
	Get(ctx context.Context, eventID string) (*model.Event, error)
	// Update persists the mutable fields of event (everything except users)
	Update(ctx context.Context, event *model.Event) error
	SetStatus(ctx context.Context, eventID string, status model.EventStatus) error
	Delete(ctx context.Context, eventID string) error
	// List returns every event ordered by start date
	List(ctx context.Context) ([]*model.Event, error)

	// ListReconcilable returns draft and active events, plus completed
	// events whose start is still after now
	ListReconcilable(ctx context.Context, now time.Time) ([]*model.Event, error)

	AddMember(ctx context.Context, eventID string, member model.EventMember) error
	RemoveMember(ctx context.Context, eventID, userID string) error
	CountWithMember(ctx context.Context, userID string) (int, error)
	RemoveMemberEverywhere(ctx context.Context, userID string) error

	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	CountByStatus(ctx context.Context, status model.EventStatus) (int, error)
	// CountUpcoming counts draft and active events starting after now
	CountUpcoming(ctx context.Context, now time.Time) (int, error)
}

// UserStore is the user collection
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	// Get returns nil, nil when the user does not exist
	Get(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Delete(ctx context.Context, userID string) error

	AddEvent(ctx context.Context, userID string, entry model.UserEventRole) error
	RemoveEvent(ctx context.Context, userID, eventID string) error
	CountWithEvent(ctx context.Context, eventID string) (int, error)
	RemoveEventEverywhere(ctx context.Context, eventID string) error

	// RecordLoginFailure stores the failed attempt count and, when lockUntil
	// is set, the lock expiry
	RecordLoginFailure(ctx context.Context, userID string, attempts int, lockUntil *time.Time) error
	// RecordLogin clears failed attempts and any lock and sets last_login
	RecordLogin(ctx context.Context, userID string, at time.Time) error

	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
	// DeactivateInactive clears is_active for active users whose last
	// login is before cutoff. Users that never logged in are left alone.
	DeactivateInactive(ctx context.Context, cutoff time.Time) (int, error)
}

// TaskStore is the task collection
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	// Get returns nil, nil when the task does not exist
	Get(ctx context.Context, taskID string) (*model.Task, error)
	// Update persists every field except event_id and created_on
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, taskID string) error
	List(ctx context.Context) ([]*model.Task, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Task, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	DeleteByEvent(ctx context.Context, eventID string) error
	CountAssignedTo(ctx context.Context, userID string) (int, error)
	// UnassignUser clears assigned_to on every task assigned to userID
	UnassignUser(ctx context.Context, userID string) error
	CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error)
}

// ArchiveLinkStore is the archive link collection
type ArchiveLinkStore interface {
	Create(ctx context.Context, link *model.ArchiveLink) error
	// Get returns nil, nil when the link does not exist
	Get(ctx context.Context, linkID string) (*model.ArchiveLink, error)
	Delete(ctx context.Context, linkID string) error
	List(ctx context.Context) ([]*model.ArchiveLink, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.ArchiveLink, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	DeleteByEvent(ctx context.Context, eventID string) error
}

// Collections groups the four collections bound to one connection or transaction
type Collections interface {
	Events() EventStore
	Users() UserStore
	Tasks() TaskStore
	ArchiveLinks() ArchiveLinkStore
}

// TxCollections is a Collections bound to an open transaction
type TxCollections interface {
	Collections
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Gateway is the persistence boundary used by the service layer
type Gateway interface {
	Collections

	// SupportsTransactions reports whether BeginTx can be used.
	// An error means the capability could not be determined.
	SupportsTransactions(ctx context.Context) (bool, error)

	BeginTx(ctx context.Context, opts database.TxOptions) (TxCollections, error)
}

// collections binds the SurrealDB stores to one Querier
type collections struct {
	events *EventRepository
	users  *UserRepository
	tasks  *TaskRepository
	links  *ArchiveLinkRepository
}

func newCollections(q database.Querier) collections {
	return collections{
		events: NewEventRepository(q),
		users:  NewUserRepository(q),
		tasks:  NewTaskRepository(q),
		links:  NewArchiveLinkRepository(q),
	}
}

func (c collections) Events() EventStore             { return c.events }
func (c collections) Users() UserStore               { return c.users }
func (c collections) Tasks() TaskStore               { return c.tasks }
func (c collections) ArchiveLinks() ArchiveLinkStore { return c.links }

// SurrealGateway implements Gateway over a database.Database
type SurrealGateway struct {
	collections
	db database.Database
}

// NewSurrealGateway creates a gateway backed by db
func NewSurrealGateway(db database.Database) *SurrealGateway {
	return &SurrealGateway{collections: newCollections(db), db: db}
}

// SupportsTransactions returns the capability resolved when db connected
func (g *SurrealGateway) SupportsTransactions(_ context.Context) (bool, error) {
	return g.db.SupportsTransactions(), nil
}

// BeginTx opens a transaction and binds fresh collections to it
func (g *SurrealGateway) BeginTx(ctx context.Context, opts database.TxOptions) (TxCollections, error) {
	tx, err := g.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &surrealTx{collections: newCollections(tx), tx: tx}, nil
}

type surrealTx struct {
	collections
	tx database.Transaction
}

func (t *surrealTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *surrealTx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}
