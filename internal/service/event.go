package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/repository"
)

// EventService handles event business logic
type EventService struct {
	gateway     repository.Gateway
	coordinator *Coordinator
	logger      *slog.Logger
	now         func() time.Time
}

// NewEventService creates a new event service. A nil clock uses time.Now.
func NewEventService(gateway repository.Gateway, coordinator *Coordinator, logger *slog.Logger, now func() time.Time) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		gateway:     gateway,
		coordinator: coordinator,
		logger:      logger,
		now:         now,
	}
}

// CreateEvent creates a new event. The initial status is draft when asked
// for, otherwise it is derived from the dates as if the event were active.
func (s *EventService) CreateEvent(ctx context.Context, req *model.CreateEventRequest) (*model.Event, error) {
	now := s.now()

	title := strings.TrimSpace(req.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	start, end, err := ValidateEventDates(req.StartDate, req.EndDate, now)
	if err != nil {
		return nil, err
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = model.DefaultMaxParticipants
	}
	if err := validateMaxParticipants(maxParticipants, 0); err != nil {
		return nil, err
	}

	event := &model.Event{
		Title:           title,
		Description:     req.Description,
		Location:        req.Location,
		StartDate:       start,
		EndDate:         end,
		MaxParticipants: maxParticipants,
		Users:           []model.EventMember{},
	}

	switch req.Status {
	case model.EventStatusDraft:
		event.Status = model.EventStatusDraft
	case "", model.EventStatusActive:
		event.Status = model.EventStatusActive
		event.Status = DetermineStatus(event, now)
	default:
		return nil, invalid("status", "new events must be draft or active")
	}

	if err := s.gateway.Events().Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		slog.String("event_id", event.ID),
		slog.String("status", string(event.Status)),
	)
	return event, nil
}

// GetEvent returns an event with its status derived for the current time.
// The derived status is not persisted.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.load(ctx, s.gateway, eventID)
	if err != nil {
		return nil, err
	}
	event.Status = DetermineStatus(event, s.now())
	return event, nil
}

// ListEvents returns every event ordered by start date, statuses derived as in GetEvent
func (s *EventService) ListEvents(ctx context.Context) ([]*model.Event, error) {
	events, err := s.gateway.Events().List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, ev := range events {
		ev.Status = DetermineStatus(ev, now)
	}
	return events, nil
}

// UpdateEvent applies a partial update on behalf of actor
func (s *EventService) UpdateEvent(ctx context.Context, actor *model.User, eventID string, req *model.UpdateEventRequest) (*model.Event, error) {
	now := s.now()

	current, err := s.load(ctx, s.gateway, eventID)
	if err != nil {
		return nil, err
	}
	updated := current.Clone()

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		updated.Title = title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Location != nil {
		loc := *req.Location
		updated.Location = &loc
	}
	if req.MaxParticipants != nil {
		if err := validateMaxParticipants(*req.MaxParticipants, current.ParticipantCount()); err != nil {
			return nil, err
		}
		updated.MaxParticipants = *req.MaxParticipants
	}

	if req.HasDateChange() {
		if !CanModifyDates(current, now, dateRole(actor, current, now)) {
			return nil, ErrDateChangeForbidden
		}
		if req.StartDate != nil {
			updated.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			updated.EndDate = *req.EndDate
		}
		if updated.StartDate, updated.EndDate, err = ValidateEventDates(updated.StartDate, updated.EndDate, now); err != nil {
			return nil, err
		}
		updated.Status = DetermineStatus(updated, now)
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}

	if updated.Status != current.Status {
		if err := ValidateStatusTransition(current.Status, updated.Status, updated, now); err != nil {
			return nil, err
		}
	}

	if err := s.gateway.Events().Update(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info("event updated",
		slog.String("event_id", eventID),
		slog.String("updated_by", actorID(actor)),
	)
	return s.load(ctx, s.gateway, eventID)
}

// ChangeStatus sets the status of an event after validating the transition
func (s *EventService) ChangeStatus(ctx context.Context, eventID string, next model.EventStatus, changedBy string) (*model.Event, error) {
	if !next.Valid() {
		return nil, invalid("status", "invalid status value")
	}

	event, err := s.load(ctx, s.gateway, eventID)
	if err != nil {
		return nil, err
	}
	if err := ValidateStatusTransition(event.Status, next, event, s.now()); err != nil {
		return nil, err
	}

	if err := s.gateway.Events().SetStatus(ctx, eventID, next); err != nil {
		return nil, err
	}

	s.logger.Info("event status updated",
		slog.String("event_id", eventID),
		slog.String("old_status", string(event.Status)),
		slog.String("new_status", string(next)),
		slog.String("updated_by", changedBy),
	)
	event.Status = next
	return event, nil
}

// AddMember gives userID a role in the event and records the event on the
// user. A user who is already a member has their role replaced.
func (s *EventService) AddMember(ctx context.Context, eventID string, req *model.AddMemberRequest, addedBy string) (*model.Event, error) {
	if req.UserID == "" {
		return nil, invalid("user_id", "user ID and role are required")
	}
	if !req.Role.Valid() {
		return nil, invalid("role", "invalid role %q", req.Role)
	}

	_, err := s.coordinator.RunAtomic(ctx, "add_event_member", func(ctx context.Context, cols repository.Collections) error {
		event, err := s.load(ctx, cols, eventID)
		if err != nil {
			return err
		}
		user, err := cols.Users().Get(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		if event.HasMember(req.UserID) {
			if err := cols.Events().RemoveMember(ctx, eventID, req.UserID); err != nil {
				return err
			}
		} else if event.ParticipantCount() >= event.MaxParticipants {
			return &LimitError{Limit: event.MaxParticipants, Current: event.ParticipantCount()}
		}
		if user.IsMemberOf(eventID) {
			if err := cols.Users().RemoveEvent(ctx, req.UserID, eventID); err != nil {
				return err
			}
		}

		if err := cols.Events().AddMember(ctx, eventID, model.EventMember{UserID: req.UserID, Role: req.Role}); err != nil {
			return err
		}
		return cols.Users().AddEvent(ctx, req.UserID, model.UserEventRole{EventID: eventID, Role: req.Role})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user added to event",
		slog.String("event_id", eventID),
		slog.String("user_id", req.UserID),
		slog.String("role", string(req.Role)),
		slog.String("added_by", addedBy),
	)
	return s.load(ctx, s.gateway, eventID)
}

// RemoveMember removes userID from the event on both sides of the relation.
// Removing a user who is not a member succeeds.
func (s *EventService) RemoveMember(ctx context.Context, eventID, userID, removedBy string) (*model.Event, error) {
	_, err := s.coordinator.RunAtomic(ctx, "remove_event_member", func(ctx context.Context, cols repository.Collections) error {
		if _, err := s.load(ctx, cols, eventID); err != nil {
			return err
		}
		if err := cols.Events().RemoveMember(ctx, eventID, userID); err != nil {
			return err
		}
		return cols.Users().RemoveEvent(ctx, userID, eventID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user removed from event",
		slog.String("event_id", eventID),
		slog.String("user_id", userID),
		slog.String("removed_by", removedBy),
	)
	return s.load(ctx, s.gateway, eventID)
}

// DeleteEvent removes an event and everything that depends on it
func (s *EventService) DeleteEvent(ctx context.Context, eventID, deletedBy string) (*EventCascadeResult, error) {
	return s.coordinator.DeleteEventCascade(ctx, eventID, deletedBy)
}

// UpdateEventStatuses persists the derived status of every event whose
// stored status is stale. It returns the number of events updated.
// A failed write does not stop the batch; all failures are returned joined.
func (s *EventService) UpdateEventStatuses(ctx context.Context) (int, error) {
	now := s.now()

	events, err := s.gateway.Events().ListReconcilable(ctx, now)
	if err != nil {
		return 0, err
	}

	var errs []error
	updated := 0
	for _, change := range ReconcileBatch(events, now) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.gateway.Events().SetStatus(ctx, change.EventID, change.To); err != nil {
			s.logger.Warn("failed to persist event status",
				slog.String("event_id", change.EventID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
			continue
		}
		updated++
		s.logger.Info("event status reconciled",
			slog.String("event_id", change.EventID),
			slog.String("old_status", string(change.From)),
			slog.String("new_status", string(change.To)),
		)
	}

	return updated, errors.Join(errs...)
}

func (s *EventService) load(ctx context.Context, cols repository.Collections, eventID string) (*model.Event, error) {
	return loadEvent(ctx, cols, eventID)
}

func loadEvent(ctx context.Context, cols repository.Collections, eventID string) (*model.Event, error) {
	event, err := cols.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func validateTitle(title string) error {
	if title == "" {
		return invalid("title", "title is required")
	}
	if len(title) > model.MaxEventTitleLength {
		return invalid("title", "title must be at most %d characters", model.MaxEventTitleLength)
	}
	return nil
}

func validateMaxParticipants(n, members int) error {
	if n < 1 || n > model.MaxUsersPerEvent {
		return invalid("max_participants", "max participants must be between 1 and %d", model.MaxUsersPerEvent)
	}
	if n < members {
		return invalid("max_participants", "max participants cannot be below the current %d members", members)
	}
	return nil
}

// dateRole is the role checked against the date lock. Once an event has
// started an admin of any event may move its dates; inside the lock window
// only the actor's role in this event counts.
func dateRole(actor *model.User, ev *model.Event, now time.Time) model.Role {
	if !now.Before(ev.StartDate) && model.IsAdmin(actor.Roles()) {
		return model.RoleAdmin
	}
	return actor.RoleIn(ev.ID)
}

func actorID(actor *model.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}
