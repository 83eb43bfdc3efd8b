package model

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusActive, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event defaults and limits
const (
	DefaultMaxParticipants = 100
	MaxUsersPerEvent       = 500
	MaxEventTitleLength    = 200
)

// Event represents a scheduled event
type Event struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Location        *string       `json:"location,omitempty"`
	StartDate       time.Time     `json:"start_date"`
	EndDate         time.Time     `json:"end_date"`
	Status          EventStatus   `json:"status"`
	MaxParticipants int           `json:"max_participants"`
	Users           []EventMember `json:"users"`
	CreatedOn       time.Time     `json:"created_on"`
	UpdatedOn       time.Time     `json:"updated_on"`
}

// EventMember is one entry of Event.Users, unique per user
type EventMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// HasMember reports whether userID is in the member list
func (e *Event) HasMember(userID string) bool {
	for _, m := range e.Users {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// ParticipantCount returns the number of members
func (e *Event) ParticipantCount() int {
	return len(e.Users)
}

// Clone returns a deep copy of the event
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Location != nil {
		loc := *e.Location
		c.Location = &loc
	}
	c.Users = make([]EventMember, len(e.Users))
	copy(c.Users, e.Users)
	return &c
}

// CreateEventRequest represents the request to create an event
type CreateEventRequest struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Location        *string     `json:"location,omitempty"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	Status          EventStatus `json:"status,omitempty"`
	MaxParticipants int         `json:"max_participants,omitempty"`
}

// UpdateEventRequest represents a partial update of an event
type UpdateEventRequest struct {
	Title           *string      `json:"title,omitempty"`
	Description     *string      `json:"description,omitempty"`
	Location        *string      `json:"location,omitempty"`
	StartDate       *time.Time   `json:"start_date,omitempty"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	Status          *EventStatus `json:"status,omitempty"`
	MaxParticipants *int         `json:"max_participants,omitempty"`
}

// HasDateChange reports whether the request modifies either date
func (r *UpdateEventRequest) HasDateChange() bool {
	return r.StartDate != nil || r.EndDate != nil
}

// ChangeStatusRequest represents a status-only update
type ChangeStatusRequest struct {
	Status EventStatus `json:"status"`
}

// AddMemberRequest represents the request to add a user to an event
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}
