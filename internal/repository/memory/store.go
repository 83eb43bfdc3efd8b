// Package memory provides an in-memory repository.Gateway.
//
// Transactions clone the whole state on BeginTx and swap it in on Commit.
// The store mutex is held from BeginTx until Commit or Rollback, so
// transactions are serialized and non-transactional calls wait for them.
// Do not call the Store's own collections while holding a transaction
// from the same goroutine.
//
// WithTransactions(false) makes the store behave like a deployment without
// multi-document transactions, and FailOn injects faults for named
// operations ("events.Delete", "users.RemoveEventEverywhere", "commit",
// "probe", ...).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
	"github.com/google/uuid"
)

// Option configures a Store
type Option func(*Store)

// WithTransactions sets whether BeginTx is available
func WithTransactions(enabled bool) Option {
	return func(s *Store) { s.txEnabled = enabled }
}

// WithClock sets the clock used for created_on/updated_on
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

type state struct {
	events map[string]*model.Event
	users  map[string]*model.User
	tasks  map[string]*model.Task
	links  map[string]*model.ArchiveLink
}

func newState() *state {
	return &state{
		events: map[string]*model.Event{},
		users:  map[string]*model.User{},
		tasks:  map[string]*model.Task{},
		links:  map[string]*model.ArchiveLink{},
	}
}

func (s *state) clone() *state {
	c := &state{
		events: make(map[string]*model.Event, len(s.events)),
		users:  make(map[string]*model.User, len(s.users)),
		tasks:  make(map[string]*model.Task, len(s.tasks)),
		links:  make(map[string]*model.ArchiveLink, len(s.links)),
	}
	for k, v := range s.events {
		c.events[k] = v.Clone()
	}
	for k, v := range s.users {
		c.users[k] = v.Clone()
	}
	for k, v := range s.tasks {
		c.tasks[k] = v.Clone()
	}
	for k, v := range s.links {
		c.links[k] = v.Clone()
	}
	return c
}

// Store is an in-memory repository.Gateway
type Store struct {
	mu        sync.Mutex
	data      *state
	txEnabled bool
	now       func() time.Time

	faultMu sync.Mutex
	faults  map[string]error
}

var _ repository.Gateway = (*Store)(nil)

// New creates an empty store with transactions enabled
func New(opts ...Option) *Store {
	s := &Store{
		data:      newState(),
		txEnabled: true,
		now:       func() time.Time { return time.Now().UTC() },
		faults:    map[string]error{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailOn makes every later call of op return err until ClearFaults
func (s *Store) FailOn(op string, err error) {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes all injected faults
func (s *Store) ClearFaults() {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	s.faults = map[string]error{}
}

func (s *Store) fault(op string) error {
	s.faultMu.Lock()
	defer s.faultMu.Unlock()
	return s.faults[op]
}

func newID(table string) string {
	return table + ":" + uuid.NewString()
}

// access runs fn against a state, either the live one or a transaction's copy
type access interface {
	do(op string, fn func(*state) error) error
	stamp() time.Time
}

type direct struct{ s *Store }

func (d direct) do(op string, fn func(*state) error) error {
	if err := d.s.fault(op); err != nil {
		return err
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	return fn(d.s.data)
}

func (d direct) stamp() time.Time { return d.s.now() }

func (s *Store) Events() repository.EventStore             { return eventStore{direct{s}} }
func (s *Store) Users() repository.UserStore               { return userStore{direct{s}} }
func (s *Store) Tasks() repository.TaskStore               { return taskStore{direct{s}} }
func (s *Store) ArchiveLinks() repository.ArchiveLinkStore { return linkStore{direct{s}} }

// SupportsTransactions reports the WithTransactions setting. A "probe" fault is returned as is.
func (s *Store) SupportsTransactions(_ context.Context) (bool, error) {
	if err := s.fault("probe"); err != nil {
		return false, err
	}
	return s.txEnabled, nil
}

// BeginTx locks the store and returns collections over a private copy of the state
func (s *Store) BeginTx(ctx context.Context, opts database.TxOptions) (repository.TxCollections, error) {
	if !s.txEnabled {
		return nil, database.ErrTxUnsupported
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := s.fault("begin"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &tx{s: s, work: s.data.clone()}, nil
}

type tx struct {
	s    *Store
	work *state
	done bool
}

func (t *tx) do(op string, fn func(*state) error) error {
	if t.done {
		return database.ErrTxClosed
	}
	if err := t.s.fault(op); err != nil {
		return err
	}
	return fn(t.work)
}

func (t *tx) stamp() time.Time { return t.s.now() }

func (t *tx) Events() repository.EventStore             { return eventStore{t} }
func (t *tx) Users() repository.UserStore               { return userStore{t} }
func (t *tx) Tasks() repository.TaskStore               { return taskStore{t} }
func (t *tx) ArchiveLinks() repository.ArchiveLinkStore { return linkStore{t} }

// Commit publishes the transaction's state. A failed commit discards it.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return database.ErrTxClosed
	}
	t.done = true
	defer t.s.mu.Unlock()

	if err := t.s.fault("commit"); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.s.data = t.work
	return nil
}

// Rollback discards the transaction's state. It is a no-op once finished.
func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

// ============================================================================
// Events
// ============================================================================

type eventStore struct{ a access }

func (e eventStore) Create(_ context.Context, event *model.Event) error {
	return e.a.do("events.Create", func(st *state) error {
		if event.ID == "" {
			event.ID = newID("event")
		}
		now := e.a.stamp()
		event.CreatedOn, event.UpdatedOn = now, now
		if event.Users == nil {
			event.Users = []model.EventMember{}
		}
		st.events[event.ID] = event.Clone()
		return nil
	})
}

func (e eventStore) Get(_ context.Context, eventID string) (*model.Event, error) {
	var out *model.Event
	err := e.a.do("events.Get", func(st *state) error {
		out = st.events[eventID].Clone()
		return nil
	})
	return out, err
}

func (e eventStore) Update(_ context.Context, event *model.Event) error {
	return e.a.do("events.Update", func(st *state) error {
		cur, ok := st.events[event.ID]
		if !ok {
			return database.ErrNotFound
		}
		next := event.Clone()
		next.Users = cur.Users
		next.CreatedOn = cur.CreatedOn
		next.UpdatedOn = e.a.stamp()
		st.events[event.ID] = next
		return nil
	})
}

func (e eventStore) SetStatus(_ context.Context, eventID string, status model.EventStatus) error {
	return e.a.do("events.SetStatus", func(st *state) error {
		cur, ok := st.events[eventID]
		if !ok {
			return database.ErrNotFound
		}
		cur.Status = status
		cur.UpdatedOn = e.a.stamp()
		return nil
	})
}

func (e eventStore) Delete(_ context.Context, eventID string) error {
	return e.a.do("events.Delete", func(st *state) error {
		delete(st.events, eventID)
		return nil
	})
}

func (e eventStore) List(_ context.Context) ([]*model.Event, error) {
	out := make([]*model.Event, 0)
	err := e.a.do("events.List", func(st *state) error {
		for _, ev := range st.events {
			out = append(out, ev.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (e eventStore) ListReconcilable(_ context.Context, now time.Time) ([]*model.Event, error) {
	out := make([]*model.Event, 0)
	err := e.a.do("events.ListReconcilable", func(st *state) error {
		for _, ev := range st.events {
			switch {
			case ev.Status == model.EventStatusDraft, ev.Status == model.EventStatusActive:
			case ev.Status == model.EventStatusCompleted && ev.StartDate.After(now):
			default:
				continue
			}
			out = append(out, ev.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (e eventStore) AddMember(_ context.Context, eventID string, member model.EventMember) error {
	return e.a.do("events.AddMember", func(st *state) error {
		cur, ok := st.events[eventID]
		if !ok {
			return database.ErrNotFound
		}
		cur.Users = append(cur.Users, member)
		cur.UpdatedOn = e.a.stamp()
		return nil
	})
}

func (e eventStore) RemoveMember(_ context.Context, eventID, userID string) error {
	return e.a.do("events.RemoveMember", func(st *state) error {
		if cur, ok := st.events[eventID]; ok {
			cur.Users = withoutMember(cur.Users, userID)
			cur.UpdatedOn = e.a.stamp()
		}
		return nil
	})
}

func (e eventStore) CountWithMember(_ context.Context, userID string) (int, error) {
	n := 0
	err := e.a.do("events.CountWithMember", func(st *state) error {
		for _, ev := range st.events {
			if ev.HasMember(userID) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (e eventStore) RemoveMemberEverywhere(_ context.Context, userID string) error {
	return e.a.do("events.RemoveMemberEverywhere", func(st *state) error {
		for _, ev := range st.events {
			if ev.HasMember(userID) {
				ev.Users = withoutMember(ev.Users, userID)
				ev.UpdatedOn = e.a.stamp()
			}
		}
		return nil
	})
}

func (e eventStore) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	err := e.a.do("events.CountCreatedBetween", func(st *state) error {
		for _, ev := range st.events {
			if inRange(ev.CreatedOn, from, to) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (e eventStore) CountByStatus(_ context.Context, status model.EventStatus) (int, error) {
	n := 0
	err := e.a.do("events.CountByStatus", func(st *state) error {
		for _, ev := range st.events {
			if ev.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (e eventStore) CountUpcoming(_ context.Context, now time.Time) (int, error) {
	n := 0
	err := e.a.do("events.CountUpcoming", func(st *state) error {
		for _, ev := range st.events {
			if (ev.Status == model.EventStatusDraft || ev.Status == model.EventStatusActive) && ev.StartDate.After(now) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func withoutMember(members []model.EventMember, userID string) []model.EventMember {
	out := make([]model.EventMember, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			out = append(out, m)
		}
	}
	return out
}

// ============================================================================
// Users
// ============================================================================

type userStore struct{ a access }

func (u userStore) Create(_ context.Context, user *model.User) error {
	return u.a.do("users.Create", func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == user.Email {
				return database.ErrDuplicate
			}
		}
		if user.ID == "" {
			user.ID = newID("user")
		}
		now := u.a.stamp()
		user.CreatedOn, user.UpdatedOn = now, now
		if user.Events == nil {
			user.Events = []model.UserEventRole{}
		}
		st.users[user.ID] = user.Clone()
		return nil
	})
}

func (u userStore) Get(_ context.Context, userID string) (*model.User, error) {
	var out *model.User
	err := u.a.do("users.Get", func(st *state) error {
		out = st.users[userID].Clone()
		return nil
	})
	return out, err
}

func (u userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	var out *model.User
	err := u.a.do("users.GetByEmail", func(st *state) error {
		for _, user := range st.users {
			if user.Email == email {
				out = user.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (u userStore) Delete(_ context.Context, userID string) error {
	return u.a.do("users.Delete", func(st *state) error {
		delete(st.users, userID)
		return nil
	})
}

func (u userStore) AddEvent(_ context.Context, userID string, entry model.UserEventRole) error {
	return u.a.do("users.AddEvent", func(st *state) error {
		cur, ok := st.users[userID]
		if !ok {
			return database.ErrNotFound
		}
		cur.Events = append(cur.Events, entry)
		cur.UpdatedOn = u.a.stamp()
		return nil
	})
}

func (u userStore) RemoveEvent(_ context.Context, userID, eventID string) error {
	return u.a.do("users.RemoveEvent", func(st *state) error {
		if cur, ok := st.users[userID]; ok {
			cur.Events = withoutEvent(cur.Events, eventID)
			cur.UpdatedOn = u.a.stamp()
		}
		return nil
	})
}

func (u userStore) CountWithEvent(_ context.Context, eventID string) (int, error) {
	n := 0
	err := u.a.do("users.CountWithEvent", func(st *state) error {
		for _, user := range st.users {
			if user.IsMemberOf(eventID) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (u userStore) RemoveEventEverywhere(_ context.Context, eventID string) error {
	return u.a.do("users.RemoveEventEverywhere", func(st *state) error {
		for _, user := range st.users {
			if user.IsMemberOf(eventID) {
				user.Events = withoutEvent(user.Events, eventID)
				user.UpdatedOn = u.a.stamp()
			}
		}
		return nil
	})
}

func (u userStore) RecordLoginFailure(_ context.Context, userID string, attempts int, lockUntil *time.Time) error {
	return u.a.do("users.RecordLoginFailure", func(st *state) error {
		cur, ok := st.users[userID]
		if !ok {
			return database.ErrNotFound
		}
		cur.LoginAttempts = attempts
		if lockUntil != nil {
			t := *lockUntil
			cur.LockUntil = &t
		}
		cur.UpdatedOn = u.a.stamp()
		return nil
	})
}

func (u userStore) RecordLogin(_ context.Context, userID string, at time.Time) error {
	return u.a.do("users.RecordLogin", func(st *state) error {
		cur, ok := st.users[userID]
		if !ok {
			return database.ErrNotFound
		}
		cur.LoginAttempts = 0
		cur.LockUntil = nil
		cur.LastLogin = &at
		cur.UpdatedOn = u.a.stamp()
		return nil
	})
}

func (u userStore) CountCreatedBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	err := u.a.do("users.CountCreatedBetween", func(st *state) error {
		for _, user := range st.users {
			if inRange(user.CreatedOn, from, to) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (u userStore) DeactivateInactive(_ context.Context, cutoff time.Time) (int, error) {
	n := 0
	err := u.a.do("users.DeactivateInactive", func(st *state) error {
		for _, user := range st.users {
			if user.IsActive && user.LastLogin != nil && user.LastLogin.Before(cutoff) {
				user.IsActive = false
				user.UpdatedOn = u.a.stamp()
				n++
			}
		}
		return nil
	})
	return n, err
}

func withoutEvent(entries []model.UserEventRole, eventID string) []model.UserEventRole {
	out := make([]model.UserEventRole, 0, len(entries))
	for _, e := range entries {
		if e.EventID != eventID {
			out = append(out, e)
		}
	}
	return out
}

// ============================================================================
// Tasks
// ============================================================================

type taskStore struct{ a access }

func (t taskStore) Create(_ context.Context, task *model.Task) error {
	return t.a.do("tasks.Create", func(st *state) error {
		if task.ID == "" {
			task.ID = newID("task")
		}
		if task.Status == "" {
			task.Status = model.TaskStatusTodo
		}
		now := t.a.stamp()
		task.CreatedOn, task.UpdatedOn = now, now
		st.tasks[task.ID] = task.Clone()
		return nil
	})
}

func (t taskStore) Get(_ context.Context, taskID string) (*model.Task, error) {
	var out *model.Task
	err := t.a.do("tasks.Get", func(st *state) error {
		out = st.tasks[taskID].Clone()
		return nil
	})
	return out, err
}

func (t taskStore) Update(_ context.Context, task *model.Task) error {
	return t.a.do("tasks.Update", func(st *state) error {
		cur, ok := st.tasks[task.ID]
		if !ok {
			return database.ErrNotFound
		}
		next := task.Clone()
		next.EventID = cur.EventID
		next.CreatedOn = cur.CreatedOn
		next.UpdatedOn = t.a.stamp()
		st.tasks[task.ID] = next
		return nil
	})
}

func (t taskStore) Delete(_ context.Context, taskID string) error {
	return t.a.do("tasks.Delete", func(st *state) error {
		delete(st.tasks, taskID)
		return nil
	})
}

func (t taskStore) List(_ context.Context) ([]*model.Task, error) {
	out := make([]*model.Task, 0)
	err := t.a.do("tasks.List", func(st *state) error {
		for _, task := range st.tasks {
			out = append(out, task.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	return out, err
}

func (t taskStore) ListByEvent(_ context.Context, eventID string) ([]*model.Task, error) {
	out := make([]*model.Task, 0)
	err := t.a.do("tasks.ListByEvent", func(st *state) error {
		for _, task := range st.tasks {
			if task.EventID == eventID {
				out = append(out, task.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, err
}

func (t taskStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	n := 0
	err := t.a.do("tasks.CountByEvent", func(st *state) error {
		for _, task := range st.tasks {
			if task.EventID == eventID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (t taskStore) DeleteByEvent(_ context.Context, eventID string) error {
	return t.a.do("tasks.DeleteByEvent", func(st *state) error {
		for id, task := range st.tasks {
			if task.EventID == eventID {
				delete(st.tasks, id)
			}
		}
		return nil
	})
}

func (t taskStore) CountAssignedTo(_ context.Context, userID string) (int, error) {
	n := 0
	err := t.a.do("tasks.CountAssignedTo", func(st *state) error {
		for _, task := range st.tasks {
			if task.IsAssignedTo(userID) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (t taskStore) UnassignUser(_ context.Context, userID string) error {
	return t.a.do("tasks.UnassignUser", func(st *state) error {
		for _, task := range st.tasks {
			if task.IsAssignedTo(userID) {
				task.AssignedTo = nil
				task.UpdatedOn = t.a.stamp()
			}
		}
		return nil
	})
}

func (t taskStore) CountCompletedBetween(_ context.Context, from, to time.Time) (int, error) {
	n := 0
	err := t.a.do("tasks.CountCompletedBetween", func(st *state) error {
		for _, task := range st.tasks {
			if task.Status == model.TaskStatusDone && inRange(task.UpdatedOn, from, to) {
				n++
			}
		}
		return nil
	})
	return n, err
}

// ============================================================================
// Archive links
// ============================================================================

type linkStore struct{ a access }

func (l linkStore) Create(_ context.Context, link *model.ArchiveLink) error {
	return l.a.do("archive_links.Create", func(st *state) error {
		if link.ID == "" {
			link.ID = newID("archive_link")
		}
		if link.AccessLevel == "" {
			link.AccessLevel = model.AccessLevelEventMembers
		}
		now := l.a.stamp()
		link.CreatedOn, link.UpdatedOn = now, now
		st.links[link.ID] = link.Clone()
		return nil
	})
}

func (l linkStore) Get(_ context.Context, linkID string) (*model.ArchiveLink, error) {
	var out *model.ArchiveLink
	err := l.a.do("archive_links.Get", func(st *state) error {
		out = st.links[linkID].Clone()
		return nil
	})
	return out, err
}

func (l linkStore) Delete(_ context.Context, linkID string) error {
	return l.a.do("archive_links.Delete", func(st *state) error {
		delete(st.links, linkID)
		return nil
	})
}

func (l linkStore) List(_ context.Context) ([]*model.ArchiveLink, error) {
	out := make([]*model.ArchiveLink, 0)
	err := l.a.do("archive_links.List", func(st *state) error {
		for _, link := range st.links {
			out = append(out, link.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.After(out[j].CreatedOn) })
	return out, err
}

func (l linkStore) ListByEvent(_ context.Context, eventID string) ([]*model.ArchiveLink, error) {
	out := make([]*model.ArchiveLink, 0)
	err := l.a.do("archive_links.ListByEvent", func(st *state) error {
		for _, link := range st.links {
			if link.EventID == eventID {
				out = append(out, link.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedOn.Before(out[j].CreatedOn) })
	return out, err
}

func (l linkStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	n := 0
	err := l.a.do("archive_links.CountByEvent", func(st *state) error {
		for _, link := range st.links {
			if link.EventID == eventID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (l linkStore) DeleteByEvent(_ context.Context, eventID string) error {
	return l.a.do("archive_links.DeleteByEvent", func(st *state) error {
		for id, link := range st.links {
			if link.EventID == eventID {
				delete(st.links, id)
			}
		}
		return nil
	})
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
