package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
)

// TaskService handles the tasks owned by events
type TaskService struct {
	gateway     repository.Gateway
	coordinator *Coordinator
	logger      *slog.Logger
	now         func() time.Time
}

// NewTaskService creates a new task service. A nil clock uses time.Now.
func NewTaskService(gateway repository.Gateway, coordinator *Coordinator, logger *slog.Logger, now func() time.Time) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		gateway:     gateway,
		coordinator: coordinator,
		logger:      logger,
		now:         now,
	}
}

// CreateTask adds a task to eventID. The event and the assignee are checked
// in the same atomic unit as the write, so a concurrent event delete cannot
// leave an orphan task behind.
func (s *TaskService) CreateTask(ctx context.Context, eventID string, req *model.CreateTaskRequest, createdBy string) (*model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if err := validateTaskTitle(title); err != nil {
		return nil, err
	}
	priority := req.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !model.ValidTaskPriority(priority) {
		return nil, invalid("priority", "invalid priority %q", priority)
	}

	task := &model.Task{
		EventID:     eventID,
		Title:       title,
		Description: req.Description,
		AssignedTo:  normalizeAssignee(req.AssignedTo),
		Status:      model.TaskStatusTodo,
		Priority:    priority,
		Deadline:    req.Deadline,
	}

	_, err := s.coordinator.RunAtomic(ctx, "create_task", func(ctx context.Context, cols repository.Collections) error {
		if _, err := loadEvent(ctx, cols, eventID); err != nil {
			return err
		}
		if task.AssignedTo != nil {
			if err := checkAssignee(ctx, cols, eventID, *task.AssignedTo); err != nil {
				return err
			}
		}
		return cols.Tasks().Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("event_id", eventID),
		slog.String("created_by", createdBy),
	)
	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	return loadTask(ctx, s.gateway, taskID)
}

// ListEventTasks returns the tasks of an existing event
func (s *TaskService) ListEventTasks(ctx context.Context, eventID string) ([]*model.Task, error) {
	if _, err := loadEvent(ctx, s.gateway, eventID); err != nil {
		return nil, err
	}
	return s.gateway.Tasks().ListByEvent(ctx, eventID)
}

// ListAllTasks returns every task across events
func (s *TaskService) ListAllTasks(ctx context.Context) ([]*model.Task, error) {
	return s.gateway.Tasks().List(ctx)
}

// UpdateTask applies a partial update on behalf of a task manager
func (s *TaskService) UpdateTask(ctx context.Context, taskID string, req *model.UpdateTaskRequest, updatedBy string) (*model.Task, error) {
	task, err := loadTask(ctx, s.gateway, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTaskTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		if !model.ValidTaskPriority(*req.Priority) {
			return nil, invalid("priority", "invalid priority %q", *req.Priority)
		}
		task.Priority = *req.Priority
	}
	if req.Deadline != nil {
		task.Deadline = req.Deadline
	}
	if req.Status != nil {
		if err := s.applyStatus(task, *req.Status); err != nil {
			return nil, err
		}
	}

	if err := s.gateway.Tasks().Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task updated",
		slog.String("task_id", taskID),
		slog.String("updated_by", updatedBy),
	)
	return loadTask(ctx, s.gateway, taskID)
}

// ChangeStatus moves a task to status. Callers without edit_all_tasks may
// only change tasks assigned to them.
func (s *TaskService) ChangeStatus(ctx context.Context, actor *model.User, taskID string, status model.TaskStatus) (*model.Task, error) {
	task, err := loadTask(ctx, s.gateway, taskID)
	if err != nil {
		return nil, err
	}
	if !model.HasPermission(actor.Roles(), model.PermEditAllTasks) && !task.IsAssignedTo(actorID(actor)) {
		return nil, ErrTaskEditForbidden
	}

	previous := task.Status
	if err := s.applyStatus(task, status); err != nil {
		return nil, err
	}
	if err := s.gateway.Tasks().Update(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task status updated",
		slog.String("task_id", taskID),
		slog.String("old_status", string(previous)),
		slog.String("new_status", string(status)),
		slog.String("updated_by", actorID(actor)),
	)
	return task, nil
}

// AssignTask sets the assignee of a task, or clears it when userID is nil.
// The assignee must be a member of the task's event.
func (s *TaskService) AssignTask(ctx context.Context, taskID string, userID *string, assignedBy string) (*model.Task, error) {
	assignee := normalizeAssignee(userID)

	var task *model.Task
	_, err := s.coordinator.RunAtomic(ctx, "assign_task", func(ctx context.Context, cols repository.Collections) error {
		var err error
		if task, err = loadTask(ctx, cols, taskID); err != nil {
			return err
		}
		if assignee != nil {
			if err := checkAssignee(ctx, cols, task.EventID, *assignee); err != nil {
				return err
			}
		}
		task.AssignedTo = assignee
		return cols.Tasks().Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{slog.String("task_id", taskID), slog.String("assigned_by", assignedBy)}
	if assignee != nil {
		attrs = append(attrs, slog.String("assigned_to", *assignee))
	}
	s.logger.Info("task assignment updated", attrs...)
	return loadTask(ctx, s.gateway, taskID)
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID, deletedBy string) error {
	if _, err := loadTask(ctx, s.gateway, taskID); err != nil {
		return err
	}
	if err := s.gateway.Tasks().Delete(ctx, taskID); err != nil {
		return err
	}

	s.logger.Info("task deleted",
		slog.String("task_id", taskID),
		slog.String("deleted_by", deletedBy),
	)
	return nil
}

// applyStatus sets status and keeps completed_at in step with it
func (s *TaskService) applyStatus(task *model.Task, status model.TaskStatus) error {
	if !status.Valid() {
		return invalid("status", "invalid status %q", status)
	}
	switch {
	case status == model.TaskStatusDone && task.Status != model.TaskStatusDone:
		at := s.now().UTC()
		task.CompletedAt = &at
	case status != model.TaskStatusDone:
		task.CompletedAt = nil
	}
	task.Status = status
	return nil
}

func loadTask(ctx context.Context, cols repository.Collections, taskID string) (*model.Task, error) {
	task, err := cols.Tasks().Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func checkAssignee(ctx context.Context, cols repository.Collections, eventID, userID string) error {
	user, err := cols.Users().Get(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if !user.IsMemberOf(eventID) {
		return ErrAssigneeNotMember
	}
	return nil
}

func normalizeAssignee(userID *string) *string {
	if userID == nil || strings.TrimSpace(*userID) == "" {
		return nil
	}
	id := strings.TrimSpace(*userID)
	return &id
}

func validateTaskTitle(title string) error {
	if title == "" {
		return invalid("title", "title is required")
	}
	if len(title) > model.MaxTaskTitleLength {
		return invalid("title", "title cannot exceed %d characters", model.MaxTaskTitleLength)
	}
	return nil
}
