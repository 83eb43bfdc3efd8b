package service

import (
	"errors"
	"fmt"
	"time"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Validation Errors =====

// ErrValidation is the sentinel every *ValidationError unwraps to
var ErrValidation = errors.New("validation failed")

// ValidationError is a user-correctable input error. Message is shown to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ===== Not Found Errors =====
var (
	ErrEventNotFound = errors.New("event not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrTaskNotFound  = errors.New("task not found")

	ErrArchiveLinkNotFound = errors.New("archive link not found")
)

// ===== Task Errors =====
var (
	ErrTaskEditForbidden = errors.New("only the assignee or a task manager may edit this task")
	ErrAssigneeNotMember = errors.New("assignee is not a member of the event")
)

// ===== Event Errors =====
var (
	ErrDateChangeForbidden = errors.New("insufficient role to modify event dates")
	ErrParticipantLimit    = errors.New("event has reached maximum participant limit")
)

// LimitError carries the bound that was hit. It matches ErrParticipantLimit.
type LimitError struct {
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s (%d of %d)", ErrParticipantLimit, e.Current, e.Limit)
}

func (e *LimitError) Unwrap() error { return ErrParticipantLimit }

// ===== Auth Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// AccountLockedError carries the lock expiry. It matches ErrAccountLocked.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("%s until %s", ErrAccountLocked, e.Until.UTC().Format(time.RFC3339))
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// ===== User Errors =====
var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrCannotDeleteSelf   = errors.New("cannot delete yourself")
)

// ===== Transaction Errors =====

// TransactionAbortedError reports a store failure inside RunAtomic.
// With Mode Atomic nothing was committed. With Mode BestEffort some
// writes may already be visible; see Partial.
type TransactionAbortedError struct {
	Op   string
	Mode Atomicity
	Err  error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("%s aborted (%s): %v", e.Op, e.Mode, e.Err)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Err }

// Partial reports whether the failed operation may have left partial state behind
func (e *TransactionAbortedError) Partial() bool { return e.Mode == BestEffort }
