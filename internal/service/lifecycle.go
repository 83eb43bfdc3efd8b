package service

import (
	"fmt"
	"time"

	"github.com/eventsphere/api/internal/model"
)

// Lifecycle timing rules
const (
	// StartGraceWindow is how far in the past a start date may lie
	StartGraceWindow = time.Hour
	MinEventDuration = 15 * time.Minute
	MaxEventDuration = 365 * 24 * time.Hour
	// ActivationHorizon is the furthest start date an event may be activated for
	ActivationHorizon = 7 * 24 * time.Hour
	// DateLockWindow restricts date changes to management roles
	DateLockWindow = 24 * time.Hour
)

// allowedTransitions is the status edge table
var allowedTransitions = map[model.EventStatus][]model.EventStatus{
	model.EventStatusDraft:     {model.EventStatusActive, model.EventStatusCancelled},
	model.EventStatusActive:    {model.EventStatusCompleted, model.EventStatusCancelled},
	model.EventStatusCompleted: {model.EventStatusActive},
	model.EventStatusCancelled: {model.EventStatusDraft, model.EventStatusActive},
}

// ValidateEventDates checks start and end against now and returns them unchanged.
// Rules are checked in order and the first failure is returned.
func ValidateEventDates(start, end, now time.Time) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return start, end, invalid("dates", "invalid date format")
	}
	if start.Before(now.Add(-StartGraceWindow)) {
		return start, end, invalid("start_date", "start date cannot be in the past")
	}
	if !end.After(start) {
		return start, end, invalid("end_date", "end date must be after start date")
	}
	duration := end.Sub(start)
	if duration > MaxEventDuration {
		return start, end, invalid("end_date", "event duration cannot exceed 365 days")
	}
	if duration < MinEventDuration {
		return start, end, invalid("end_date", "event must be at least 15 minutes long")
	}
	return start, end, nil
}

// DetermineStatus derives the status an event should have at now.
// cancelled is sticky; completed is kept only once the event has started.
func DetermineStatus(ev *model.Event, now time.Time) model.EventStatus {
	switch ev.Status {
	case model.EventStatusCancelled:
		return model.EventStatusCancelled
	case model.EventStatusCompleted:
		if !now.Before(ev.StartDate) {
			return model.EventStatusCompleted
		}
		return model.EventStatusActive
	}

	switch {
	case now.Before(ev.StartDate):
		if ev.Status == model.EventStatusDraft {
			return model.EventStatusDraft
		}
		return model.EventStatusActive
	case now.After(ev.EndDate):
		return model.EventStatusCompleted
	default:
		return model.EventStatusActive
	}
}

// ValidateStatusTransition checks the edge current -> next and the date guards on next
func ValidateStatusTransition(current, next model.EventStatus, ev *model.Event, now time.Time) error {
	if !next.Valid() {
		return invalid("status", "unknown status %q", next)
	}
	if !transitionAllowed(current, next) {
		return invalid("status", "cannot transition from %s to %s", current, next)
	}

	switch next {
	case model.EventStatusActive:
		if ev.StartDate.Sub(now) > ActivationHorizon {
			return invalid("status", "cannot activate an event starting more than 7 days from now")
		}
		if now.After(ev.EndDate) {
			return invalid("status", "cannot activate an event that has already ended")
		}
	case model.EventStatusCompleted:
		if now.Before(ev.StartDate) {
			return invalid("status", "cannot complete an event that has not started")
		}
	}
	return nil
}

func transitionAllowed(current, next model.EventStatus) bool {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// CanModifyDates reports whether an actor holding role in the event may change its dates
func CanModifyDates(ev *model.Event, now time.Time, role model.Role) bool {
	if !now.Before(ev.StartDate) {
		return role == model.RoleAdmin
	}
	if ev.StartDate.Sub(now) < DateLockWindow {
		return model.IsManagementRole(role)
	}
	return true
}

// StatusChange is one diff reported by ReconcileBatch
type StatusChange struct {
	EventID string            `json:"event_id"`
	From    model.EventStatus `json:"from"`
	To      model.EventStatus `json:"to"`
}

func (c StatusChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.EventID, c.From, c.To)
}

// ReconcileBatch returns the events whose derived status differs from the stored one.
// Cancelled events are skipped. The input is not modified.
func ReconcileBatch(events []*model.Event, now time.Time) []StatusChange {
	changes := make([]StatusChange, 0)
	for _, ev := range events {
		if ev == nil || ev.Status == model.EventStatusCancelled {
			continue
		}
		if next := DetermineStatus(ev, now); next != ev.Status {
			changes = append(changes, StatusChange{EventID: ev.ID, From: ev.Status, To: next})
		}
	}
	return changes
}
