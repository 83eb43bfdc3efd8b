package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventsphere/api/internal/jobs"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository/memory"
	"github.com/eventsphere/api/internal/service"
	"github.com/eventsphere/api/pkg/jwt"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ============================================================================
// Test Server
// ============================================================================

type testAPI struct {
	t         *testing.T
	handler   http.Handler
	store     *memory.Store
	events    *service.EventService
	users     *service.UserService
	tasks     *service.TaskService
	archives  *service.ArchiveService
	tokens    *jwt.Service
	scheduler *jobs.Scheduler
	home      *model.Event
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	clock := func() time.Time { return testNow }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New(memory.WithClock(clock))
	coordinator := service.NewCoordinator(store, logger, time.Second)
	events := service.NewEventService(store, coordinator, logger, clock)
	users := service.NewUserService(store, coordinator, logger, clock)
	reports := service.NewReportService(store, logger, clock)
	tasks := service.NewTaskService(store, coordinator, logger, clock)
	archives := service.NewArchiveService(store, coordinator, logger)

	tokens, err := jwt.NewService(jwt.Config{Secret: "handler-secret", Issuer: "eventsphere", Expiration: time.Hour})
	require.NoError(t, err)

	scheduler := jobs.NewScheduler(logger, time.Second)
	t.Cleanup(scheduler.Stop)
	jobs.RegisterLifecycleTasks(scheduler, jobs.Dependencies{
		Events: events, Reports: reports, Users: users, Logger: logger,
	}, jobs.DefaultConfig())

	api := &testAPI{
		t:         t,
		store:     store,
		events:    events,
		users:     users,
		tasks:     tasks,
		archives:  archives,
		tokens:    tokens,
		scheduler: scheduler,
		handler: NewRouter(RouterConfig{
			Events:   events,
			Users:    users,
			Tasks:    tasks,
			Archives: archives,
			Jobs:     scheduler,
			Tokens:   tokens,
			Logger:   logger,
		}),
	}

	api.home, err = events.CreateEvent(context.Background(), &model.CreateEventRequest{
		Title:     "Home",
		StartDate: testNow.Add(30 * 24 * time.Hour),
		EndDate:   testNow.Add(31 * 24 * time.Hour),
		Status:    model.EventStatusDraft,
	})
	require.NoError(t, err)
	return api
}

// member creates a user holding role in the home event and returns a bearer token
func (a *testAPI) member(email string, role model.Role) (*model.User, string) {
	a.t.Helper()
	ctx := context.Background()
	u, err := a.users.CreateUser(ctx, &model.CreateUserRequest{Name: email, Email: email, Password: "password123"})
	require.NoError(a.t, err)
	_, err = a.events.AddMember(ctx, a.home.ID, &model.AddMemberRequest{UserID: u.ID, Role: role}, "test")
	require.NoError(a.t, err)

	token, err := a.tokens.Issue(u.ID, u.Email)
	require.NoError(a.t, err)
	return u, token
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p), rr.Body.String())
	return p
}

// ============================================================================
// Health
// ============================================================================

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	down := Health{Ping: func(context.Context) error { return errors.New("down") }}
	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ============================================================================
// Events
// ============================================================================

func TestCreateEvent_PermissionGate(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.member("admin@example.com", model.RoleAdmin)
	_, head := api.member("head@example.com", model.RoleTEHead)

	body := map[string]interface{}{
		"title":      "Launch",
		"start_date": testNow.Add(48 * time.Hour).Format(time.RFC3339),
		"end_date":   testNow.Add(50 * time.Hour).Format(time.RFC3339),
	}

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/v1/events", "", body).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/v1/events", head, body).Code)

	rr := api.do(http.MethodPost, "/v1/events", admin, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var ev model.Event
	decodeData(t, rr, &ev)
	assert.Equal(t, "Launch", ev.Title)
	assert.Equal(t, model.EventStatusActive, ev.Status)
	assert.Equal(t, model.DefaultMaxParticipants, ev.MaxParticipants)
}

func TestCreateEvent_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.member("admin@example.com", model.RoleAdmin)

	rr := api.do(http.MethodPost, "/v1/events", admin, map[string]interface{}{
		"title":      "Backwards",
		"start_date": testNow.Add(50 * time.Hour).Format(time.RFC3339),
		"end_date":   testNow.Add(48 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, model.ErrCodeValidation, decodeProblem(t, rr).Code)

	rr = api.do(http.MethodPost, "/v1/events", admin, `{"title":"x","start_date":"tomorrow","end_date":"later"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "dates: invalid date format", decodeProblem(t, rr).Detail)

	rr = api.do(http.MethodPost, "/v1/events", admin, `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetEvent(t *testing.T) {
	api := newTestAPI(t)
	_, volunteer := api.member("vol@example.com", model.RoleVolunteer)

	rr := api.do(http.MethodGet, "/v1/events/"+api.home.ID, volunteer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var ev model.Event
	decodeData(t, rr, &ev)
	assert.Equal(t, api.home.ID, ev.ID)
	assert.Len(t, ev.Users, 1)

	rr = api.do(http.MethodGet, "/v1/events/event:missing", volunteer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "event not found", decodeProblem(t, rr).Detail)
}

func TestUpdateEvent_DatesLockedNearStart(t *testing.T) {
	api := newTestAPI(t)
	adminUser, admin := api.member("admin@example.com", model.RoleAdmin)

	soon, err := api.events.CreateEvent(context.Background(), &model.CreateEventRequest{
		Title:     "Soon",
		StartDate: testNow.Add(2 * time.Hour),
		EndDate:   testNow.Add(4 * time.Hour),
	})
	require.NoError(t, err)

	// a coordinator of the soon event holds a lesser role there
	coordinator, err := api.users.CreateUser(context.Background(), &model.CreateUserRequest{Name: "c", Email: "c@example.com", Password: "password123"})
	require.NoError(t, err)
	_, err = api.events.AddMember(context.Background(), api.home.ID, &model.AddMemberRequest{UserID: coordinator.ID, Role: model.RoleBEHead}, "test")
	require.NoError(t, err)
	_, err = api.events.AddMember(context.Background(), soon.ID, &model.AddMemberRequest{UserID: coordinator.ID, Role: model.RoleEventCoordinator}, "test")
	require.NoError(t, err)
	token, err := api.tokens.Issue(coordinator.ID, "")
	require.NoError(t, err)

	newEnd := testNow.Add(5 * time.Hour).Format(time.RFC3339)
	rr := api.do(http.MethodPatch, "/v1/events/"+soon.ID, token, map[string]string{"end_date": newEnd})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, model.ErrCodeDatesLocked, decodeProblem(t, rr).Code)

	// admin of the home event only has no role in soon
	rr = api.do(http.MethodPatch, "/v1/events/"+soon.ID, admin, map[string]string{"end_date": newEnd})
	assert.Equal(t, http.StatusForbidden, rr.Code, rr.Body.String())

	_, err = api.events.AddMember(context.Background(), soon.ID, &model.AddMemberRequest{UserID: adminUser.ID, Role: model.RoleAdmin}, "test")
	require.NoError(t, err)
	rr = api.do(http.MethodPatch, "/v1/events/"+soon.ID, admin, map[string]string{"end_date": newEnd})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestChangeStatus(t *testing.T) {
	api := newTestAPI(t)
	_, head := api.member("head@example.com", model.RoleTEHead)

	// home starts in 30 days, beyond the activation horizon
	rr := api.do(http.MethodPatch, "/v1/events/"+api.home.ID+"/status", head, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = api.do(http.MethodPatch, "/v1/events/"+api.home.ID+"/status", head, map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ev model.Event
	decodeData(t, rr, &ev)
	assert.Equal(t, model.EventStatusCancelled, ev.Status)
}

func TestDeleteEvent_ReportsCascade(t *testing.T) {
	api := newTestAPI(t)
	_, head := api.member("head@example.com", model.RoleBEHead)
	_, volunteer := api.member("vol@example.com", model.RoleVolunteer)

	ctx := context.Background()
	require.NoError(t, api.store.Tasks().Create(ctx, &model.Task{EventID: api.home.ID, Title: "setup"}))
	require.NoError(t, api.store.ArchiveLinks().Create(ctx, &model.ArchiveLink{EventID: api.home.ID, Title: "photos", DriveURL: "https://example.com"}))

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/v1/events/"+api.home.ID, volunteer, nil).Code)

	rr := api.do(http.MethodDelete, "/v1/events/"+api.home.ID, head, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result struct {
		TasksDeleted        int    `json:"tasks_deleted"`
		ArchiveLinksDeleted int    `json:"archive_links_deleted"`
		UsersUpdated        int    `json:"users_updated"`
		Atomicity           string `json:"atomicity"`
	}
	decodeData(t, rr, &result)
	assert.Equal(t, 1, result.TasksDeleted)
	assert.Equal(t, 1, result.ArchiveLinksDeleted)
	assert.Equal(t, 2, result.UsersUpdated)
	assert.Equal(t, "atomic", result.Atomicity)

	// the head lost their only membership, and with it every permission
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/v1/events/"+api.home.ID, head, nil).Code)
}

func TestMembers_AddAndRemove(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.member("admin@example.com", model.RoleAdmin)
	newcomer, err := api.users.CreateUser(context.Background(), &model.CreateUserRequest{Name: "n", Email: "n@example.com", Password: "password123"})
	require.NoError(t, err)

	path := "/v1/events/" + api.home.ID + "/members"
	rr := api.do(http.MethodPost, path, admin, map[string]string{"user_id": newcomer.ID, "role": "wizard"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = api.do(http.MethodPost, path, admin, map[string]string{"user_id": newcomer.ID, "role": "volunteer"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ev model.Event
	decodeData(t, rr, &ev)
	assert.True(t, ev.HasMember(newcomer.ID))

	rr = api.do(http.MethodDelete, path+"/"+newcomer.ID, admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &ev)
	assert.False(t, ev.HasMember(newcomer.ID))

	u, err := api.users.GetUser(context.Background(), newcomer.ID)
	require.NoError(t, err)
	assert.False(t, u.IsMemberOf(api.home.ID))
}

// ============================================================================
// Users
// ============================================================================

func TestUsers(t *testing.T) {
	api := newTestAPI(t)
	adminUser, admin := api.member("admin@example.com", model.RoleAdmin)

	rr := api.do(http.MethodPost, "/v1/users", admin, map[string]string{"name": "Dup", "email": "ADMIN@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = api.do(http.MethodPost, "/v1/users", admin, map[string]string{"name": "Short", "email": "s@example.com", "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = api.do(http.MethodPost, "/v1/users", admin, map[string]string{"name": "New", "email": "new@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created model.User
	decodeData(t, rr, &created)
	assert.NotContains(t, rr.Body.String(), "password123")

	rr = api.do(http.MethodDelete, "/v1/users/"+adminUser.ID, admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = api.do(http.MethodDelete, "/v1/users/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = api.do(http.MethodDelete, "/v1/users/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(http.MethodGet, "/v1/users/me", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me model.User
	decodeData(t, rr, &me)
	assert.Equal(t, adminUser.ID, me.ID)
}

func TestGetUser_RequiresCoordinatorRole(t *testing.T) {
	api := newTestAPI(t)
	volUser, volunteer := api.member("vol@example.com", model.RoleVolunteer)
	_, coordinator := api.member("coord@example.com", model.RoleEventCoordinator)

	path := "/v1/users/" + volUser.ID
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, path, volunteer, nil).Code)

	rr := api.do(http.MethodGet, path, coordinator, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got model.User
	decodeData(t, rr, &got)
	assert.Equal(t, volUser.ID, got.ID)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/v1/users/user:missing", coordinator, nil).Code)
}

// ============================================================================
// Auth
// ============================================================================

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	u, _ := api.member("vol@example.com", model.RoleVolunteer)

	rr := api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "VOL@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp LoginResponse
	decodeData(t, rr, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(time.Hour/time.Second), resp.ExpiresIn)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.NotContains(t, rr.Body.String(), "password123")

	rr = api.do(http.MethodGet, "/v1/users/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me model.User
	decodeData(t, rr, &me)
	assert.Equal(t, u.ID, me.ID)
	require.NotNil(t, me.LastLogin)
	assert.True(t, me.LastLogin.Equal(testNow))
}

func TestLogin_Failures(t *testing.T) {
	api := newTestAPI(t)
	api.member("vol@example.com", model.RoleVolunteer)

	rr := api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, model.ErrCodeInvalidCredentials, decodeProblem(t, rr).Code)

	rr = api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	wrong := map[string]string{"email": "vol@example.com", "password": "not-the-password"}
	for i := 0; i < service.DefaultMaxLoginAttempts; i++ {
		assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/v1/auth/login", "", wrong).Code)
	}

	rr = api.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "vol@example.com", "password": "password123"})
	assert.Equal(t, http.StatusLocked, rr.Code)
	p := decodeProblem(t, rr)
	assert.Equal(t, model.ErrCodeAccountLocked, p.Code)
	assert.Contains(t, p.Detail, testNow.Add(service.DefaultLockoutDuration).Format(time.RFC3339))
}

// ============================================================================
// Tasks
// ============================================================================

func TestTasks_PermissionGates(t *testing.T) {
	api := newTestAPI(t)
	_, volunteer := api.member("vol@example.com", model.RoleVolunteer)
	coordUser, coordinator := api.member("coord@example.com", model.RoleEventCoordinator)
	_, head := api.member("head@example.com", model.RoleTEHead)

	path := "/v1/events/" + api.home.ID + "/tasks"
	body := map[string]string{"title": "Book venue"}

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, path, "", body).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, path, volunteer, body).Code)

	rr := api.do(http.MethodPost, path, coordinator, map[string]string{"title": "Book venue", "assigned_to": coordUser.ID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var task model.Task
	decodeData(t, rr, &task)
	assert.Equal(t, api.home.ID, task.EventID)
	assert.Equal(t, model.TaskStatusTodo, task.Status)

	rr = api.do(http.MethodGet, path, volunteer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var tasks []model.Task
	decodeData(t, rr, &tasks)
	assert.Len(t, tasks, 1)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/v1/tasks/"+task.ID, volunteer, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/v1/tasks/task:missing", volunteer, nil).Code)

	// edit_all_tasks
	taskPath := "/v1/tasks/" + task.ID
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, taskPath, coordinator, map[string]string{"title": "x"}).Code)
	rr = api.do(http.MethodPatch, taskPath, head, map[string]string{"title": "Book hall", "priority": "high"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &task)
	assert.Equal(t, "Book hall", task.Title)

	// edit_own_tasks lets the assignee move their own task
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, taskPath+"/status", volunteer, map[string]string{"status": "done"}).Code)
	rr = api.do(http.MethodPatch, taskPath+"/status", coordinator, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeData(t, rr, &task)
	assert.Equal(t, model.TaskStatusDone, task.Status)
	assert.NotNil(t, task.CompletedAt)

	// delete_tasks
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, taskPath, coordinator, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, taskPath, head, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, taskPath, head, nil).Code)
}

func TestTasks_CreateChecksEventAndAssignee(t *testing.T) {
	api := newTestAPI(t)
	_, head := api.member("head@example.com", model.RoleTEHead)
	outsider, err := api.users.CreateUser(context.Background(), &model.CreateUserRequest{Name: "o", Email: "o@example.com", Password: "password123"})
	require.NoError(t, err)

	rr := api.do(http.MethodPost, "/v1/events/event:missing/tasks", head, map[string]string{"title": "Orphan"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(http.MethodPost, "/v1/events/"+api.home.ID+"/tasks", head, map[string]string{"title": "Chairs", "assigned_to": outsider.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	all, err := api.store.Tasks().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTasks_Assign(t *testing.T) {
	api := newTestAPI(t)
	volUser, volunteer := api.member("vol@example.com", model.RoleVolunteer)
	_, head := api.member("head@example.com", model.RoleTEHead)

	task, err := api.tasks.CreateTask(context.Background(), api.home.ID, &model.CreateTaskRequest{Title: "Tickets"}, "test")
	require.NoError(t, err)
	path := "/v1/tasks/" + task.ID + "/assignee"

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPut, path, volunteer, map[string]string{"user_id": volUser.ID}).Code)

	rr := api.do(http.MethodPut, path, head, map[string]string{"user_id": volUser.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got model.Task
	decodeData(t, rr, &got)
	assert.True(t, got.IsAssignedTo(volUser.ID))

	// being assigned does not grant edit_own_tasks to a volunteer
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, "/v1/tasks/"+task.ID+"/status", volunteer, map[string]string{"status": "in_progress"}).Code)

	rr = api.do(http.MethodPut, path, head, `{"user_id":null}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got = model.Task{}
	decodeData(t, rr, &got)
	assert.Nil(t, got.AssignedTo)
}

// ============================================================================
// Archives
// ============================================================================

func TestArchives(t *testing.T) {
	api := newTestAPI(t)
	_, volunteer := api.member("vol@example.com", model.RoleVolunteer)
	_, head := api.member("head@example.com", model.RoleBEHead)

	path := "/v1/events/" + api.home.ID + "/archives"
	body := map[string]string{"title": "Photos", "drive_url": "https://drive.example.com/folder/1", "file_type": "image"}

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, path, volunteer, body).Code)

	rr := api.do(http.MethodPost, path, head, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var link model.ArchiveLink
	decodeData(t, rr, &link)
	assert.Equal(t, model.FileTypeImage, link.FileType)
	assert.Equal(t, model.AccessLevelEventMembers, link.AccessLevel)

	rr = api.do(http.MethodPost, path, head, map[string]string{"title": "Bad", "drive_url": "not a url"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = api.do(http.MethodPost, "/v1/events/event:missing/archives", head, body)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = api.do(http.MethodGet, path, volunteer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var links []model.ArchiveLink
	decodeData(t, rr, &links)
	assert.Len(t, links, 1)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, "/v1/archives/"+link.ID, volunteer, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/v1/archives/"+link.ID, head, nil).Code)

	rr = api.do(http.MethodDelete, "/v1/archives/"+link.ID, head, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "archive link not found", decodeProblem(t, rr).Detail)
}

// ============================================================================
// Admin
// ============================================================================

func TestAdminJobs(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.member("admin@example.com", model.RoleAdmin)
	_, head := api.member("head@example.com", model.RoleTEHead)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/v1/admin/jobs", head, nil).Code)

	rr := api.do(http.MethodGet, "/v1/admin/jobs", admin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view TasksView
	decodeData(t, rr, &view)
	assert.True(t, view.Running)
	require.Len(t, view.Tasks, len(jobs.KnownTasks()))
	assert.Equal(t, "cleanupLogs", view.Tasks[0].Name)

	rr = api.do(http.MethodPost, "/v1/admin/jobs/reindex/run", admin, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, fmt.Sprintf("/v1/admin/jobs/%s/run", jobs.TaskUpdateEventStatuses), head, nil).Code)

	rr = api.do(http.MethodPost, fmt.Sprintf("/v1/admin/jobs/%s/run", jobs.TaskUpdateEventStatuses), admin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var ts jobs.TaskStatus
	decodeData(t, rr, &ts)
	assert.Equal(t, 1, ts.Runs)
}

func TestAdminListings_RequireManagement(t *testing.T) {
	api := newTestAPI(t)
	_, head := api.member("head@example.com", model.RoleTEHead)
	_, coordinator := api.member("coord@example.com", model.RoleEventCoordinator)

	ctx := context.Background()
	require.NoError(t, api.store.Tasks().Create(ctx, &model.Task{EventID: api.home.ID, Title: "setup"}))
	require.NoError(t, api.store.ArchiveLinks().Create(ctx, &model.ArchiveLink{EventID: api.home.ID, Title: "photos", DriveURL: "https://example.com"}))

	for _, path := range []string{"/v1/admin/events", "/v1/admin/tasks", "/v1/admin/archives"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, path, "", nil).Code)
			assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, path, coordinator, nil).Code)

			rr := api.do(http.MethodGet, path, head, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var items []map[string]interface{}
			decodeData(t, rr, &items)
			assert.Len(t, items, 1)
		})
	}
}

func TestAdminRoles(t *testing.T) {
	api := newTestAPI(t)
	_, volunteer := api.member("vol@example.com", model.RoleVolunteer)

	rr := api.do(http.MethodGet, "/v1/admin/roles", volunteer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var roles []model.RoleInfo
	decodeData(t, rr, &roles)
	require.Len(t, roles, 6)
	assert.Equal(t, model.RoleAdmin, roles[5].Role)
	assert.Equal(t, 3, roles[5].Level)
}

// ============================================================================
// Error mapping
// ============================================================================

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"nil", nil, 0},
		{"validation", &service.ValidationError{Field: "title", Message: "title is required"}, http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrEventNotFound), http.StatusNotFound},
		{"user not found", service.ErrUserNotFound, http.StatusNotFound},
		{"dates locked", service.ErrDateChangeForbidden, http.StatusForbidden},
		{"participant limit", service.ErrParticipantLimit, http.StatusUnprocessableEntity},
		{"participant limit with counts", &service.LimitError{Limit: 5, Current: 5}, http.StatusUnprocessableEntity},
		{"duplicate email", service.ErrEmailAlreadyExists, http.StatusConflict},
		{"self delete", service.ErrCannotDeleteSelf, http.StatusUnprocessableEntity},
		{"task not found", service.ErrTaskNotFound, http.StatusNotFound},
		{"archive link not found", service.ErrArchiveLinkNotFound, http.StatusNotFound},
		{"assignee not member", service.ErrAssigneeNotMember, http.StatusUnprocessableEntity},
		{"task edit forbidden", service.ErrTaskEditForbidden, http.StatusForbidden},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"locked", &service.AccountLockedError{Until: testNow}, http.StatusLocked},
		{"locked sentinel", service.ErrAccountLocked, http.StatusLocked},
		{"deactivated", service.ErrAccountDeactivated, http.StatusForbidden},
		{"scheduled task", jobs.ErrTaskNotFound, http.StatusNotFound},
		{"aborted", &service.TransactionAbortedError{Op: "delete_event", Mode: service.Atomic, Err: errors.New("x")}, http.StatusServiceUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pd := MapServiceError(tt.err)
			if tt.status == 0 {
				assert.Nil(t, pd)
				return
			}
			require.NotNil(t, pd)
			assert.Equal(t, tt.status, pd.Status)
		})
	}

	limit := MapServiceError(&service.LimitError{Limit: 5, Current: 5})
	assert.Equal(t, model.ErrCodeLimitExceeded, limit.Code)
	require.NotNil(t, limit.Limit)
	assert.Equal(t, 5, *limit.Limit)

	partial := MapServiceError(&service.TransactionAbortedError{Op: "delete_event", Mode: service.BestEffort, Err: errors.New("x")})
	assert.Contains(t, partial.Detail, "may already be applied")

	internal := MapServiceErrorWithContext(errors.New("secret detail"), "delete event")
	assert.Equal(t, "delete event: an unexpected error occurred", internal.Detail)
}
