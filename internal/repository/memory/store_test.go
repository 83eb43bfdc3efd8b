package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(opts ...Option) *Store {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func seedEvent(t *testing.T, s *Store, status model.EventStatus, start time.Time) *model.Event {
	t.Helper()
	ev := &model.Event{
		Title:           "Spring Fest",
		StartDate:       start,
		EndDate:         start.Add(4 * time.Hour),
		Status:          status,
		MaxParticipants: 10,
	}
	require.NoError(t, s.Events().Create(context.Background(), ev))
	return ev
}

func TestCreate_AssignsIDsAndTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	ev := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))
	assert.True(t, strings.HasPrefix(ev.ID, "event:"))
	assert.Equal(t, fixedNow, ev.CreatedOn)

	got, err := s.Events().Get(ctx, ev.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ev.Title, got.Title)
	assert.NotNil(t, got.Users)

	missing, err := s.Events().Get(ctx, "event:nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGet_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))

	got, _ := s.Events().Get(ctx, ev.ID)
	got.Title = "mutated"
	got.Users = append(got.Users, model.EventMember{UserID: "user:x", Role: model.RoleAdmin})

	again, _ := s.Events().Get(ctx, ev.ID)
	assert.Equal(t, "Spring Fest", again.Title)
	assert.Empty(t, again.Users)
}

func TestUsers_DuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Users().Create(ctx, &model.User{Name: "A", Email: "a@example.com", IsActive: true}))
	err := s.Users().Create(ctx, &model.User{Name: "B", Email: "a@example.com"})
	assert.ErrorIs(t, err, database.ErrDuplicate)
}

func TestListReconcilable_FiltersByStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	draft := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(time.Hour))
	active := seedEvent(t, s, model.EventStatusActive, fixedNow.Add(-time.Hour))
	prematurelyDone := seedEvent(t, s, model.EventStatusCompleted, fixedNow.Add(24*time.Hour))
	seedEvent(t, s, model.EventStatusCompleted, fixedNow.Add(-48*time.Hour))
	seedEvent(t, s, model.EventStatusCancelled, fixedNow.Add(time.Hour))

	events, err := s.Events().ListReconcilable(ctx, fixedNow)
	require.NoError(t, err)

	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{active.ID, draft.ID, prematurelyDone.ID}, ids)
}

func TestTransaction_CommitPublishes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))

	tx, err := s.BeginTx(ctx, database.DefaultTxOptions())
	require.NoError(t, err)
	require.NoError(t, tx.Events().SetStatus(ctx, ev.ID, model.EventStatusCancelled))
	require.NoError(t, tx.Commit(ctx))

	got, _ := s.Events().Get(ctx, ev.ID)
	assert.Equal(t, model.EventStatusCancelled, got.Status)
	assert.ErrorIs(t, tx.Commit(ctx), database.ErrTxClosed)
}

func TestTransaction_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))

	tx, err := s.BeginTx(ctx, database.DefaultTxOptions())
	require.NoError(t, err)
	require.NoError(t, tx.Events().Delete(ctx, ev.ID))

	inTx, _ := tx.Events().Get(ctx, ev.ID)
	assert.Nil(t, inTx)

	require.NoError(t, tx.Rollback(ctx))
	require.NoError(t, tx.Rollback(ctx))

	got, _ := s.Events().Get(ctx, ev.ID)
	assert.NotNil(t, got)

	_, err = tx.Events().Get(ctx, ev.ID)
	assert.ErrorIs(t, err, database.ErrTxClosed)
}

func TestTransaction_CommitFaultDiscards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))
	s.FailOn("commit", errors.New("write conflict"))

	tx, err := s.BeginTx(ctx, database.DefaultTxOptions())
	require.NoError(t, err)
	require.NoError(t, tx.Events().Delete(ctx, ev.ID))
	assert.EqualError(t, tx.Commit(ctx), "write conflict")

	s.ClearFaults()
	got, _ := s.Events().Get(ctx, ev.ID)
	assert.NotNil(t, got)
}

func TestBeginTx_Unsupported(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(WithTransactions(false))

	ok, err := s.SupportsTransactions(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.BeginTx(ctx, database.DefaultTxOptions())
	assert.ErrorIs(t, err, database.ErrTxUnsupported)
}

func TestBeginTx_RejectsSecondaryReads(t *testing.T) {
	s := newTestStore()
	opts := database.DefaultTxOptions()
	opts.ReadPreference = "secondaryPreferred"

	_, err := s.BeginTx(context.Background(), opts)
	assert.ErrorIs(t, err, database.ErrUnsupportedTxOption)

	// The store must still be usable, the lock was never taken.
	_, err = s.Events().Get(context.Background(), "event:x")
	assert.NoError(t, err)
}

func TestFailOn_ProbeAndOperation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	boom := errors.New("boom")

	s.FailOn("probe", boom)
	_, err := s.SupportsTransactions(ctx)
	assert.ErrorIs(t, err, boom)

	s.FailOn("tasks.DeleteByEvent", boom)
	assert.ErrorIs(t, s.Tasks().DeleteByEvent(ctx, "event:x"), boom)
}

func TestMembershipMaintenance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	a := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(48*time.Hour))
	b := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(72*time.Hour))

	user := &model.User{Name: "Vol", Email: "vol@example.com", IsActive: true}
	require.NoError(t, s.Users().Create(ctx, user))

	for _, ev := range []*model.Event{a, b} {
		require.NoError(t, s.Events().AddMember(ctx, ev.ID, model.EventMember{UserID: user.ID, Role: model.RoleVolunteer}))
		require.NoError(t, s.Users().AddEvent(ctx, user.ID, model.UserEventRole{EventID: ev.ID, Role: model.RoleVolunteer}))
	}

	n, err := s.Events().CountWithMember(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Users().CountWithEvent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Events().RemoveMemberEverywhere(ctx, user.ID))
	require.NoError(t, s.Users().RemoveEventEverywhere(ctx, a.ID))

	n, _ = s.Events().CountWithMember(ctx, user.ID)
	assert.Equal(t, 0, n)
	got, _ := s.Users().Get(ctx, user.ID)
	assert.Equal(t, []model.UserEventRole{{EventID: b.ID, Role: model.RoleVolunteer}}, got.Events)
}

func TestTasks_UnassignKeepsTask(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	userID := "user:1"

	task := &model.Task{EventID: "event:1", Title: "Posters", AssignedTo: &userID}
	require.NoError(t, s.Tasks().Create(ctx, task))
	assert.Equal(t, model.TaskStatusTodo, task.Status)

	n, _ := s.Tasks().CountAssignedTo(ctx, userID)
	assert.Equal(t, 1, n)

	require.NoError(t, s.Tasks().UnassignUser(ctx, userID))

	got, err := s.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.AssignedTo)
}

func TestDeactivateInactive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	old := fixedNow.Add(-100 * 24 * time.Hour)
	recent := fixedNow.Add(-time.Hour)

	require.NoError(t, s.Users().Create(ctx, &model.User{Email: "old@example.com", IsActive: true, LastLogin: &old}))
	require.NoError(t, s.Users().Create(ctx, &model.User{Email: "recent@example.com", IsActive: true, LastLogin: &recent}))
	require.NoError(t, s.Users().Create(ctx, &model.User{Email: "never@example.com", IsActive: true}))

	n, err := s.Users().DeactivateInactive(ctx, fixedNow.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	u, _ := s.Users().GetByEmail(ctx, "old@example.com")
	assert.False(t, u.IsActive)
	u, _ = s.Users().GetByEmail(ctx, "never@example.com")
	assert.True(t, u.IsActive)
}

func TestTasks_UpdateKeepsOwnerAndCreatedOn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	ev := seedEvent(t, s, model.EventStatusActive, fixedNow.Add(48*time.Hour))

	task := &model.Task{EventID: ev.ID, Title: "Stage", Priority: model.TaskPriorityHigh}
	require.NoError(t, s.Tasks().Create(ctx, task))
	assert.Equal(t, model.TaskStatusTodo, task.Status)

	changed := task.Clone()
	changed.EventID = "event:elsewhere"
	changed.Status = model.TaskStatusDone
	require.NoError(t, s.Tasks().Update(ctx, changed))

	got, err := s.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.EventID)
	assert.Equal(t, model.TaskStatusDone, got.Status)
	assert.Equal(t, task.CreatedOn, got.CreatedOn)

	err = s.Tasks().Update(ctx, &model.Task{ID: "task:missing"})
	assert.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, s.Tasks().Delete(ctx, task.ID))
	got, err = s.Tasks().Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLists_ReturnEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	later := seedEvent(t, s, model.EventStatusDraft, fixedNow.Add(72*time.Hour))
	sooner := seedEvent(t, s, model.EventStatusActive, fixedNow.Add(24*time.Hour))

	events, err := s.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)

	require.NoError(t, s.Tasks().Create(ctx, &model.Task{EventID: later.ID, Title: "a"}))
	require.NoError(t, s.Tasks().Create(ctx, &model.Task{EventID: sooner.ID, Title: "b"}))
	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	link := &model.ArchiveLink{EventID: later.ID, Title: "Photos", DriveURL: "https://drive.example.com/p"}
	require.NoError(t, s.ArchiveLinks().Create(ctx, link))
	links, err := s.ArchiveLinks().List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)

	got, err := s.ArchiveLinks().Get(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AccessLevelEventMembers, got.AccessLevel)

	require.NoError(t, s.ArchiveLinks().Delete(ctx, link.ID))
	got, err = s.ArchiveLinks().Get(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUsers_LoginState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	u := &model.User{Name: "Ada", Email: "ada@example.com", IsActive: true}
	require.NoError(t, s.Users().Create(ctx, u))

	lock := fixedNow.Add(15 * time.Minute)
	require.NoError(t, s.Users().RecordLoginFailure(ctx, u.ID, 5, &lock))
	got, _ := s.Users().Get(ctx, u.ID)
	assert.Equal(t, 5, got.LoginAttempts)
	require.NotNil(t, got.LockUntil)
	assert.Equal(t, lock, *got.LockUntil)

	require.NoError(t, s.Users().RecordLoginFailure(ctx, u.ID, 6, nil))
	got, _ = s.Users().Get(ctx, u.ID)
	assert.Equal(t, 6, got.LoginAttempts)
	assert.NotNil(t, got.LockUntil, "a nil lock leaves the existing one")

	require.NoError(t, s.Users().RecordLogin(ctx, u.ID, fixedNow))
	got, _ = s.Users().Get(ctx, u.ID)
	assert.Zero(t, got.LoginAttempts)
	assert.Nil(t, got.LockUntil)
	require.NotNil(t, got.LastLogin)
	assert.Equal(t, fixedNow, *got.LastLogin)

	assert.ErrorIs(t, s.Users().RecordLogin(ctx, "user:missing", fixedNow), database.ErrNotFound)
}
