package repository

import (
	"context"
	"errors"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
)

// EventRepository handles event data access
type EventRepository struct {
	db database.Querier
}

// NewEventRepository creates a new event repository
func NewEventRepository(db database.Querier) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event. The id is assigned before the statement is
// sent, so inside a transaction the create is buffered like any other write.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		CREATE type::record($event_id) CONTENT {
			title: $title,
			description: $description,
			location: IF $location != NONE THEN $location ELSE NONE END,
			start_date: $start_date,
			end_date: $end_date,
			status: $status,
			max_participants: $max_participants,
			users: $users,
			created_on: $now,
			updated_on: $now
		}
	`
	id := newRecordID("event")
	now := time.Now().UTC()
	vars := map[string]interface{}{
		"event_id":         id,
		"title":            event.Title,
		"description":      event.Description,
		"location":         ptrToNone(event.Location),
		"start_date":       event.StartDate,
		"end_date":         event.EndDate,
		"status":           string(event.Status),
		"max_participants": event.MaxParticipants,
		"users":            memberVars(event.Users),
		"now":              now,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return err
	}

	event.ID = id
	event.CreatedOn = now
	event.UpdatedOn = now
	if event.Users == nil {
		event.Users = []model.EventMember{}
	}
	return nil
}

// Get retrieves an event by ID
func (r *EventRepository) Get(ctx context.Context, eventID string) (*model.Event, error) {
	query := `SELECT * FROM type::record($event_id)`
	vars := map[string]interface{}{"event_id": eventID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return parseEventResult(result)
}

// Update persists title, description, location, dates, status and capacity
func (r *EventRepository) Update(ctx context.Context, event *model.Event) error {
	query := `
		UPDATE type::record($event_id) SET
			title = $title,
			description = $description,
			location = IF $location != NONE THEN $location ELSE NONE END,
			start_date = $start_date,
			end_date = $end_date,
			status = $status,
			max_participants = $max_participants,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"event_id":         event.ID,
		"title":            event.Title,
		"description":      event.Description,
		"location":         ptrToNone(event.Location),
		"start_date":       event.StartDate,
		"end_date":         event.EndDate,
		"status":           string(event.Status),
		"max_participants": event.MaxParticipants,
	}
	return r.db.Execute(ctx, query, vars)
}

// SetStatus writes only the status field
func (r *EventRepository) SetStatus(ctx context.Context, eventID string, status model.EventStatus) error {
	query := `UPDATE type::record($event_id) SET status = $status, updated_on = time::now()`
	vars := map[string]interface{}{
		"event_id": eventID,
		"status":   string(status),
	}
	return r.db.Execute(ctx, query, vars)
}

// Delete deletes an event
func (r *EventRepository) Delete(ctx context.Context, eventID string) error {
	query := `DELETE type::record($event_id)`
	vars := map[string]interface{}{"event_id": eventID}
	return r.db.Execute(ctx, query, vars)
}

// List returns every event ordered by start date
func (r *EventRepository) List(ctx context.Context) ([]*model.Event, error) {
	query := `SELECT * FROM event ORDER BY start_date ASC`
	result, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return parseEventsResult(result)
}

// ListReconcilable returns the events the status reconciliation may change
func (r *EventRepository) ListReconcilable(ctx context.Context, now time.Time) ([]*model.Event, error) {
	query := `
		SELECT * FROM event
		WHERE status IN ["draft", "active"]
			OR (status = "completed" AND start_date > $now)
		ORDER BY start_date ASC
	`
	vars := map[string]interface{}{"now": now}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return parseEventsResult(result)
}

// AddMember appends member to the event's users
func (r *EventRepository) AddMember(ctx context.Context, eventID string, member model.EventMember) error {
	query := `UPDATE type::record($event_id) SET users += $member, updated_on = time::now()`
	vars := map[string]interface{}{
		"event_id": eventID,
		"member":   map[string]interface{}{"user_id": member.UserID, "role": string(member.Role)},
	}
	return r.db.Execute(ctx, query, vars)
}

// RemoveMember removes userID from the event's users
func (r *EventRepository) RemoveMember(ctx context.Context, eventID, userID string) error {
	query := `UPDATE type::record($event_id) SET users = users[WHERE user_id != $user_id], updated_on = time::now()`
	vars := map[string]interface{}{
		"event_id": eventID,
		"user_id":  userID,
	}
	return r.db.Execute(ctx, query, vars)
}

// CountWithMember counts events listing userID in users
func (r *EventRepository) CountWithMember(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() AS count FROM event WHERE users.*.user_id CONTAINS $user_id GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"user_id": userID})
}

// RemoveMemberEverywhere pulls userID out of every event's users
func (r *EventRepository) RemoveMemberEverywhere(ctx context.Context, userID string) error {
	query := `
		UPDATE event SET users = users[WHERE user_id != $user_id], updated_on = time::now()
		WHERE users.*.user_id CONTAINS $user_id
	`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": userID})
}

// CountCreatedBetween counts events created in [from, to)
func (r *EventRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT count() AS count FROM event WHERE created_on >= $from AND created_on < $to GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"from": from, "to": to})
}

// CountByStatus counts events with status
func (r *EventRepository) CountByStatus(ctx context.Context, status model.EventStatus) (int, error) {
	query := `SELECT count() AS count FROM event WHERE status = $status GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"status": string(status)})
}

// CountUpcoming counts draft and active events starting after now
func (r *EventRepository) CountUpcoming(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT count() AS count FROM event WHERE status IN ["draft", "active"] AND start_date > $now GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"now": now})
}

func memberVars(members []model.EventMember) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		out = append(out, map[string]interface{}{"user_id": m.UserID, "role": string(m.Role)})
	}
	return out
}

func parseEventResult(result interface{}) (*model.Event, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	event := &model.Event{
		ID:              convertSurrealID(data["id"]),
		Title:           getString(data, "title"),
		Description:     getString(data, "description"),
		Location:        getStringPtr(data, "location"),
		Status:          model.EventStatus(getString(data, "status")),
		MaxParticipants: getInt(data, "max_participants"),
		Users:           make([]model.EventMember, 0),
	}
	if t := getTime(data, "start_date"); t != nil {
		event.StartDate = *t
	}
	if t := getTime(data, "end_date"); t != nil {
		event.EndDate = *t
	}
	if t := getTime(data, "created_on"); t != nil {
		event.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		event.UpdatedOn = *t
	}
	for _, m := range getMaps(data, "users") {
		event.Users = append(event.Users, model.EventMember{
			UserID: convertSurrealID(m["user_id"]),
			Role:   model.Role(getString(m, "role")),
		})
	}

	return event, nil
}

func parseEventsResult(result []interface{}) ([]*model.Event, error) {
	events := make([]*model.Event, 0)
	for _, data := range extractQueryResults(result) {
		event, err := parseEventResult(data)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}
