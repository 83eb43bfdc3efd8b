package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventsphere/api/internal/database"
	"github.com/eventsphere/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user. Like every create it is buffered inside a
// transaction, so a duplicate email inside one surfaces at Commit.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		CREATE type::record($user_id) CONTENT {
			name: $name,
			email: $email,
			hash: $hash,
			events: $events,
			is_active: $is_active,
			last_login: IF $last_login != NONE THEN $last_login ELSE NONE END,
			login_attempts: 0,
			created_on: $now,
			updated_on: $now
		}
	`
	events := make([]map[string]interface{}, 0, len(user.Events))
	for _, e := range user.Events {
		events = append(events, map[string]interface{}{"event_id": e.EventID, "role": string(e.Role)})
	}
	id := newRecordID("user")
	now := time.Now().UTC()
	vars := map[string]interface{}{
		"user_id":    id,
		"name":       user.Name,
		"email":      user.Email,
		"hash":       user.Hash,
		"events":     events,
		"is_active":  user.IsActive,
		"last_login": timePtrToNone(user.LastLogin),
		"now":        now,
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		return err
	}

	user.ID = id
	user.CreatedOn = now
	user.UpdatedOn = now
	if user.Events == nil {
		user.Events = []model.UserEventRole{}
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, userID string) (*model.User, error) {
	query := `SELECT * FROM type::record($user_id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUserResult(result)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"email": email})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseUserResult(result)
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE type::record($user_id)`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": userID})
}

// AddEvent appends entry to the user's events
func (r *UserRepository) AddEvent(ctx context.Context, userID string, entry model.UserEventRole) error {
	query := `UPDATE type::record($user_id) SET events += $entry, updated_on = time::now()`
	vars := map[string]interface{}{
		"user_id": userID,
		"entry":   map[string]interface{}{"event_id": entry.EventID, "role": string(entry.Role)},
	}
	return r.db.Execute(ctx, query, vars)
}

// RemoveEvent removes eventID from the user's events
func (r *UserRepository) RemoveEvent(ctx context.Context, userID, eventID string) error {
	query := `UPDATE type::record($user_id) SET events = events[WHERE event_id != $event_id], updated_on = time::now()`
	vars := map[string]interface{}{
		"user_id":  userID,
		"event_id": eventID,
	}
	return r.db.Execute(ctx, query, vars)
}

// CountWithEvent counts users holding a role in eventID
func (r *UserRepository) CountWithEvent(ctx context.Context, eventID string) (int, error) {
	query := `SELECT count() AS count FROM user WHERE events.*.event_id CONTAINS $event_id GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"event_id": eventID})
}

// RemoveEventEverywhere pulls eventID out of every user's events
func (r *UserRepository) RemoveEventEverywhere(ctx context.Context, eventID string) error {
	query := `
		UPDATE user SET events = events[WHERE event_id != $event_id], updated_on = time::now()
		WHERE events.*.event_id CONTAINS $event_id
	`
	return r.db.Execute(ctx, query, map[string]interface{}{"event_id": eventID})
}

// RecordLoginFailure stores a failed login attempt
func (r *UserRepository) RecordLoginFailure(ctx context.Context, userID string, attempts int, lockUntil *time.Time) error {
	query := `
		UPDATE type::record($user_id) SET
			login_attempts = $attempts,
			lock_until = IF $lock_until != NONE THEN $lock_until ELSE lock_until END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"user_id":    userID,
		"attempts":   attempts,
		"lock_until": timePtrToNone(lockUntil),
	}
	return r.db.Execute(ctx, query, vars)
}

// RecordLogin resets the lockout state and stamps last_login
func (r *UserRepository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	query := `
		UPDATE type::record($user_id) SET
			login_attempts = 0,
			lock_until = NONE,
			last_login = $at,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"at":      at,
	}
	return r.db.Execute(ctx, query, vars)
}

// CountCreatedBetween counts users created in [from, to)
func (r *UserRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	query := `SELECT count() AS count FROM user WHERE created_on >= $from AND created_on < $to GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{"from": from, "to": to})
}

// DeactivateInactive marks long-idle users inactive and returns how many changed
func (r *UserRepository) DeactivateInactive(ctx context.Context, cutoff time.Time) (int, error) {
	query := `
		UPDATE user SET is_active = false, updated_on = time::now()
		WHERE is_active = true AND last_login != NONE AND last_login < $cutoff
		RETURN id
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"cutoff": cutoff})
	if err != nil {
		return 0, err
	}
	return len(extractQueryResults(result)), nil
}

func parseUserResult(result interface{}) (*model.User, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	user := &model.User{
		ID:            convertSurrealID(data["id"]),
		Name:          getString(data, "name"),
		Email:         getString(data, "email"),
		Hash:          getString(data, "hash"),
		Events:        make([]model.UserEventRole, 0),
		LastLogin:     getTime(data, "last_login"),
		IsActive:      getBool(data, "is_active"),
		LoginAttempts: getInt(data, "login_attempts"),
		LockUntil:     getTime(data, "lock_until"),
	}
	if t := getTime(data, "created_on"); t != nil {
		user.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		user.UpdatedOn = *t
	}
	for _, e := range getMaps(data, "events") {
		user.Events = append(user.Events, model.UserEventRole{
			EventID: convertSurrealID(e["event_id"]),
			Role:    model.Role(getString(e, "role")),
		})
	}

	return user, nil
}
