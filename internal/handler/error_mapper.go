package handler

import (
	"context"
	"errors"
	"time"

	"github.com/eventsphere/api/internal/jobs"
	"github.com/eventsphere/api/internal/model"
	"github.com/eventsphere/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	var aborted *service.TransactionAbortedError
	var limitErr *service.LimitError
	var locked *service.AccountLockedError

	switch {
	// ===== Validation Errors → 422 =====
	case errors.As(err, &verr):
		return model.NewValidationError([]model.FieldError{{Field: verr.Field, Message: verr.Message}})
	case errors.Is(err, service.ErrPasswordTooShort):
		return model.NewValidationError([]model.FieldError{{Field: "password", Message: err.Error()}})
	case errors.As(err, &limitErr):
		return model.NewLimitExceededError("participants", limitErr.Limit, limitErr.Current)
	case errors.Is(err, service.ErrParticipantLimit):
		return model.NewValidationError([]model.FieldError{{Field: "max_participants", Message: err.Error()}})
	case errors.Is(err, service.ErrCannotDeleteSelf):
		return model.NewValidationError([]model.FieldError{{Field: "user_id", Message: err.Error()}})

	case errors.Is(err, service.ErrAssigneeNotMember):
		return model.NewValidationError([]model.FieldError{{Field: "assigned_to", Message: err.Error()}})

	// ===== Authentication Errors → 401 / 423 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewInvalidCredentialsError()
	case errors.As(err, &locked):
		return model.NewAccountLockedError("account temporarily locked until " + locked.Until.UTC().Format(time.RFC3339))
	case errors.Is(err, service.ErrAccountLocked):
		return model.NewAccountLockedError("account temporarily locked")

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrDateChangeForbidden):
		return model.NewDatesLockedError(err.Error())
	case errors.Is(err, service.ErrTaskEditForbidden), errors.Is(err, service.ErrAccountDeactivated):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrTaskNotFound):
		return model.NewNotFoundError("task")
	case errors.Is(err, service.ErrArchiveLinkNotFound):
		return model.NewNotFoundError("archive link")
	case errors.Is(err, jobs.ErrTaskNotFound):
		return model.NewNotFoundError("scheduled task")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewConflictError(err.Error())

	// ===== Transaction Errors → 503 =====
	case errors.As(err, &aborted):
		detail := "the operation was rolled back; retry later"
		if aborted.Partial() {
			detail = "the operation failed part way and some changes may already be applied"
		}
		return model.NewTransactionAbortedError(detail)
	case errors.Is(err, context.DeadlineExceeded):
		return model.NewTransactionAbortedError("the operation timed out")

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
