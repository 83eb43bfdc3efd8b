package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
)

// TaskRepository handles task data access
type TaskRepository struct {
	db database.Querier
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db database.Querier) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task. The id is assigned client side, so inside a
// transaction the create is buffered until Commit.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `
		CREATE type::record($task_id) CONTENT {
			event_id: $event_id,
			title: $title,
			description: IF $description != NONE THEN $description ELSE NONE END,
			assigned_to: IF $assigned_to != NONE THEN $assigned_to ELSE NONE END,
			status: $status,
			priority: $priority,
			deadline: IF $deadline != NONE THEN $deadline ELSE NONE END,
			created_on: $now,
			updated_on: $now
		}
	`
	if task.Status == "" {
		task.Status = model.TaskStatusTodo
	}
	id := newRecordID("task")
	now := time.Now().UTC()
	vars := map[string]interface{}{
		"task_id":     id,
		"event_id":    task.EventID,
		"title":       task.Title,
		"description": ptrToNone(task.Description),
		"assigned_to": ptrToNone(task.AssignedTo),
		"status":      string(task.Status),
		"priority":    task.Priority,
		"deadline":    timePtrToNone(task.Deadline),
		"now":         now,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return err
	}

	task.ID = id
	task.CreatedOn = now
	task.UpdatedOn = now
	return nil
}

// Get retrieves a task by ID
func (r *TaskRepository) Get(ctx context.Context, taskID string) (*model.Task, error) {
	query := `SELECT * FROM type::record($task_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"task_id": taskID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseTaskResult(result)
}

// Update writes the mutable task fields
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `
		UPDATE type::record($task_id) SET
			title = $title,
			description = IF $description != NONE THEN $description ELSE NONE END,
			assigned_to = IF $assigned_to != NONE THEN $assigned_to ELSE NONE END,
			status = $status,
			priority = $priority,
			deadline = IF $deadline != NONE THEN $deadline ELSE NONE END,
			completed_at = IF $completed_at != NONE THEN $completed_at ELSE NONE END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"task_id":      task.ID,
		"title":        task.Title,
		"description":  ptrToNone(task.Description),
		"assigned_to":  ptrToNone(task.AssignedTo),
		"status":       string(task.Status),
		"priority":     task.Priority,
		"deadline":     timePtrToNone(task.Deadline),
		"completed_at": timePtrToNone(task.CompletedAt),
	}
	return r.db.Execute(ctx, query, vars)
}

// Delete deletes a task
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	query := `DELETE type::record($task_id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"task_id": taskID})
}

// List returns every task, newest first
func (r *TaskRepository) List(ctx context.Context) ([]*model.Task, error) {
	query := `SELECT * FROM task ORDER BY created_on DESC`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return parseTasksResult(result), nil
}

// ListByEvent returns the tasks of an event
func (r *TaskRepository) ListByEvent(ctx context.Context, eventID string) ([]*model.Task, error) {
	query := `SELECT * FROM task WHERE event_id = $event_id ORDER BY created_on ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"event_id": eventID})
	if err != nil {
		return nil, err
	}
	return parseTasksResult(result), nil
}

// CountByEvent counts tasks owned by eventID
func (r *TaskRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	query := `SELECT count() AS count FROM task WHERE event_id = $event_id GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// DeleteByEvent deletes every task owned by eventID
func (r *TaskRepository) DeleteByEvent(ctx context.Context, eventID string) error {
	query := `DELETE task WHERE event_id = $event_id`
	return r.db.Execute(ctx, query, map[string]interface{}{"event_id": eventID})
}

// CountAssignedTo counts tasks assigned to userID
func (r *TaskRepository) CountAssignedTo(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM task WHERE assigned_to = $user_id GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// UnassignUser clears assigned_to without deleting the tasks
func (r *TaskRepository) UnassignUser(ctx context.Context, userID string) error {
	query := `UPDATE task SET assigned_to = NONE, updated_on = time::now() WHERE assigned_to = $user_id`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": userID})
}

// CountCompletedBetween counts done tasks last updated in [from, to)
func (r *TaskRepository) CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT count() AS count FROM task WHERE status = "done" AND updated_on >= $from AND updated_on < $to GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"from": from, "to": to})
}

func parseTasksResult(result []interface{}) []*model.Task {
	tasks := make([]*model.Task, 0)
	for _, data := range extractQueryResults(result) {
		task, err := parseTaskResult(data)
		if err != nil {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func parseTaskResult(result interface{}) (*model.Task, error) {
	data, ok := result.(map[string]interface{})
	if !ok || data == nil {
		return nil, errors.New("unexpected result format")
	}

	task := &model.Task{
		ID:          convertSurrealID(data["id"]),
		EventID:     convertSurrealID(data["event_id"]),
		Title:       getString(data, "title"),
		Description: getStringPtr(data, "description"),
		Status:      model.TaskStatus(getString(data, "status")),
		Priority:    getString(data, "priority"),
		Deadline:    getTime(data, "deadline"),
		CompletedAt: getTime(data, "completed_at"),
	}
	if a := convertSurrealID(data["assigned_to"]); a != "" {
		task.AssignedTo = &a
	}
	if t := getTime(data, "created_on"); t != nil {
		task.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		task.UpdatedOn = *t
	}
	return task, nil
}
