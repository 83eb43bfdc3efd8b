package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized       ErrorCode = 1001
	ErrCodeInvalidCredentials ErrorCode = 1002
	ErrCodeTokenInvalid       ErrorCode = 1003
	ErrCodeAccountLocked      ErrorCode = 1004

	// Authorization errors (2xxx)
	ErrCodeForbidden        ErrorCode = 2001
	ErrCodeInsufficientRole ErrorCode = 2002
	ErrCodeDatesLocked      ErrorCode = 2003

	// Resource errors (3xxx)
	ErrCodeNotFound ErrorCode = 3001
	ErrCodeConflict ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation    ErrorCode = 4001
	ErrCodeInvalidInput  ErrorCode = 4002
	ErrCodeLimitExceeded ErrorCode = 4003

	// Internal errors (5xxx)
	ErrCodeInternal           ErrorCode = 5001
	ErrCodeTransactionAborted ErrorCode = 5002
)

const problemTypeBase = "https://eventsphere.dev/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code    ErrorCode `json:"code,omitempty"`
	Limit   *int      `json:"limit,omitempty"`
	Current *int      `json:"current,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func problem(slug, title string, status int, code ErrorCode, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return problem("unauthorized", "Unauthorized", http.StatusUnauthorized, ErrCodeUnauthorized, detail)
}

// NewInvalidCredentialsError is returned for a failed login
func NewInvalidCredentialsError() *ProblemDetails {
	return problem("invalid-credentials", "Unauthorized", http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
}

// NewAccountLockedError is returned while an account is locked after failed logins
func NewAccountLockedError(detail string) *ProblemDetails {
	return problem("account-locked", "Locked", http.StatusLocked, ErrCodeAccountLocked, detail)
}

func NewForbiddenError(detail string) *ProblemDetails {
	return problem("forbidden", "Forbidden", http.StatusForbidden, ErrCodeForbidden, detail)
}

// NewInsufficientRoleError is returned by the role and permission gates
func NewInsufficientRoleError(detail string) *ProblemDetails {
	return problem("forbidden", "Forbidden", http.StatusForbidden, ErrCodeInsufficientRole, detail)
}

// NewDatesLockedError is returned when event dates can no longer change
func NewDatesLockedError(detail string) *ProblemDetails {
	return problem("dates-locked", "Forbidden", http.StatusForbidden, ErrCodeDatesLocked, detail)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return problem("not-found", "Not Found", http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	p := problem("validation", "Validation Error", http.StatusUnprocessableEntity, ErrCodeValidation, detail)
	p.Errors = errors
	return p
}

func NewLimitExceededError(resource string, limit, current int) *ProblemDetails {
	p := problem("limit-exceeded", "Limit Exceeded", http.StatusUnprocessableEntity, ErrCodeLimitExceeded,
		fmt.Sprintf("Maximum of %d %s reached", limit, resource))
	p.Limit = &limit
	p.Current = &current
	return p
}

func NewConflictError(detail string) *ProblemDetails {
	return problem("conflict", "Conflict", http.StatusConflict, ErrCodeConflict, detail)
}

// NewTransactionAbortedError reports a multi-collection operation that did not commit
func NewTransactionAbortedError(detail string) *ProblemDetails {
	return problem("transaction-aborted", "Transaction Aborted", http.StatusServiceUnavailable, ErrCodeTransactionAborted, detail)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return problem("internal", "Internal Server Error", http.StatusInternalServerError, ErrCodeInternal, detail)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return problem("bad-request", "Bad Request", http.StatusBadRequest, ErrCodeInvalidInput, detail)
}
