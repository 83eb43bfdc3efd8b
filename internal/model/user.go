package model

import "time"

// User represents a user account
type User struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Hash          string          `json:"-"` // Never expose password hash
	Events        []UserEventRole `json:"events"`
	LastLogin     *time.Time      `json:"last_login,omitempty"`
	IsActive      bool            `json:"is_active"`
	LoginAttempts int             `json:"-"`
	LockUntil     *time.Time      `json:"-"`
	CreatedOn     time.Time       `json:"created_on"`
	UpdatedOn     time.Time       `json:"updated_on"`
}

// UserEventRole is one entry of User.Events, unique per event
type UserEventRole struct {
	EventID string `json:"event_id"`
	Role    Role   `json:"role"`
}

// Roles returns the caller's resolved role set across all memberships
func (u *User) Roles() []Role {
	if u == nil {
		return nil
	}
	roles := make([]Role, 0, len(u.Events))
	for _, e := range u.Events {
		roles = append(roles, e.Role)
	}
	return roles
}

// RoleIn returns the user's role in eventID, or "" when not a member
func (u *User) RoleIn(eventID string) Role {
	if u == nil {
		return ""
	}
	for _, e := range u.Events {
		if e.EventID == eventID {
			return e.Role
		}
	}
	return ""
}

// IsMemberOf reports whether the user holds any role in eventID
func (u *User) IsMemberOf(eventID string) bool {
	return u.RoleIn(eventID) != ""
}

// Clone returns a deep copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Events = make([]UserEventRole, len(u.Events))
	copy(c.Events, u.Events)
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	if u.LockUntil != nil {
		t := *u.LockUntil
		c.LockUntil = &t
	}
	return &c
}

// CreateUserRequest represents the request to create a user account
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
