package model

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Error() Interface Tests
// ============================================================================

func TestProblemDetails_Error_ReturnsFormattedMessage(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusNotFound,
		Title:  "Not Found",
		Detail: "User not found",
	}

	errMsg := pd.Error()

	if !strings.Contains(errMsg, "404") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "Not Found") {
		t.Errorf("error message should contain title, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "User not found") {
		t.Errorf("error message should contain detail, got: %s", errMsg)
	}
}

func TestProblemDetails_Error_EmptyDetail(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Status: http.StatusUnauthorized,
		Title:  "Unauthorized",
		Detail: "",
	}

	errMsg := pd.Error()

	// Should still produce valid error string
	if !strings.Contains(errMsg, "401") {
		t.Errorf("error message should contain status code, got: %s", errMsg)
	}
}

// ============================================================================
// WriteJSON Tests
// ============================================================================

func TestProblemDetails_WriteJSON_SetsContentType(t *testing.T) {
	t.Parallel()

	pd := NewNotFoundError("resource")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	contentType := rr.Header().Get("Content-Type")
	if contentType != "application/problem+json" {
		t.Errorf("expected Content-Type 'application/problem+json', got %q", contentType)
	}
}

func TestProblemDetails_WriteJSON_SetsStatusCode(t *testing.T) {
	t.Parallel()

	pd := NewForbiddenError("access denied")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rr.Code)
	}
}

func TestProblemDetails_WriteJSON_EncodesBody(t *testing.T) {
	t.Parallel()

	pd := NewBadRequestError("invalid input")
	rr := httptest.NewRecorder()

	pd.WriteJSON(rr)

	var result ProblemDetails
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if result.Title != "Bad Request" {
		t.Errorf("expected title 'Bad Request', got %q", result.Title)
	}
	if result.Detail != "invalid input" {
		t.Errorf("expected detail 'invalid input', got %q", result.Detail)
	}
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestConstructors_StatusTitleCodeAndType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pd     *ProblemDetails
		status int
		title  string
		code   ErrorCode
		slug   string
		detail string
	}{
		{"unauthorized", NewUnauthorizedError("token expired"), http.StatusUnauthorized, "Unauthorized", ErrCodeUnauthorized, "unauthorized", "token expired"},
		{"invalid credentials", NewInvalidCredentialsError(), http.StatusUnauthorized, "Unauthorized", ErrCodeInvalidCredentials, "invalid-credentials", "invalid credentials"},
		{"account locked", NewAccountLockedError("try again later"), http.StatusLocked, "Locked", ErrCodeAccountLocked, "account-locked", "try again later"},
		{"forbidden", NewForbiddenError("access denied"), http.StatusForbidden, "Forbidden", ErrCodeForbidden, "forbidden", "access denied"},
		{"insufficient role", NewInsufficientRoleError("role te_head or higher required"), http.StatusForbidden, "Forbidden", ErrCodeInsufficientRole, "forbidden", "role te_head or higher required"},
		{"dates locked", NewDatesLockedError("event starts within 24 hours"), http.StatusForbidden, "Forbidden", ErrCodeDatesLocked, "dates-locked", "event starts within 24 hours"},
		{"not found", NewNotFoundError("event"), http.StatusNotFound, "Not Found", ErrCodeNotFound, "not-found", "event not found"},
		{"conflict", NewConflictError("email already registered"), http.StatusConflict, "Conflict", ErrCodeConflict, "conflict", "email already registered"},
		{"transaction aborted", NewTransactionAbortedError("event cascade rolled back"), http.StatusServiceUnavailable, "Transaction Aborted", ErrCodeTransactionAborted, "transaction-aborted", "event cascade rolled back"},
		{"internal", NewInternalError("store unreachable"), http.StatusInternalServerError, "Internal Server Error", ErrCodeInternal, "internal", "store unreachable"},
		{"bad request", NewBadRequestError("invalid request body"), http.StatusBadRequest, "Bad Request", ErrCodeInvalidInput, "bad-request", "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.pd.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.pd.Status)
			}
			if tt.pd.Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, tt.pd.Title)
			}
			if tt.pd.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, tt.pd.Code)
			}
			if tt.pd.Type != problemTypeBase+tt.slug {
				t.Errorf("expected type %q, got %q", problemTypeBase+tt.slug, tt.pd.Type)
			}
			if tt.pd.Detail != tt.detail {
				t.Errorf("expected detail %q, got %q", tt.detail, tt.pd.Detail)
			}
		})
	}
}

func TestNewInternalError_EmptyDetail_UsesDefault(t *testing.T) {
	t.Parallel()

	pd := NewInternalError("")

	if pd.Detail != "An unexpected error occurred" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
}

// ============================================================================
// Constructor Tests - NewValidationError
// ============================================================================

func TestNewValidationError_SingleField_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	errors := []FieldError{
		{Field: "email", Message: "invalid format"},
	}
	pd := NewValidationError(errors)

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, pd.Status)
	}
	if pd.Title != "Validation Error" {
		t.Errorf("expected title 'Validation Error', got %q", pd.Title)
	}
	if pd.Code != ErrCodeValidation {
		t.Errorf("expected code %d, got %d", ErrCodeValidation, pd.Code)
	}
	if len(pd.Errors) != 1 {
		t.Errorf("expected 1 error, got %d", len(pd.Errors))
	}
	if !strings.Contains(pd.Detail, "email") {
		t.Errorf("detail should contain field name, got %q", pd.Detail)
	}
	if !strings.Contains(pd.Detail, "invalid format") {
		t.Errorf("detail should contain error message, got %q", pd.Detail)
	}
}

func TestNewValidationError_MultipleFields_SummarizesCount(t *testing.T) {
	t.Parallel()

	errors := []FieldError{
		{Field: "email", Message: "required"},
		{Field: "name", Message: "too short"},
		{Field: "age", Message: "must be positive"},
	}
	pd := NewValidationError(errors)

	if len(pd.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d", len(pd.Errors))
	}
	if !strings.Contains(pd.Detail, "2 more errors") {
		t.Errorf("detail should mention count of additional errors, got %q", pd.Detail)
	}
}

func TestNewValidationError_EmptyErrors_ReturnsDefaultMessage(t *testing.T) {
	t.Parallel()

	pd := NewValidationError([]FieldError{})

	if pd.Detail != "One or more fields failed validation" {
		t.Errorf("expected default detail message, got %q", pd.Detail)
	}
	if len(pd.Errors) != 0 {
		t.Errorf("expected 0 errors, got %d", len(pd.Errors))
	}
}

// ============================================================================
// Constructor Tests - NewLimitExceededError
// ============================================================================

func TestNewLimitExceededError_ReturnsCorrectValues(t *testing.T) {
	t.Parallel()

	pd := NewLimitExceededError("participants", 5, 5)

	if pd.Status != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, pd.Status)
	}
	if pd.Title != "Limit Exceeded" {
		t.Errorf("expected title 'Limit Exceeded', got %q", pd.Title)
	}
	if pd.Code != ErrCodeLimitExceeded {
		t.Errorf("expected code %d, got %d", ErrCodeLimitExceeded, pd.Code)
	}
	if pd.Limit == nil || *pd.Limit != 5 {
		t.Errorf("expected limit 5, got %v", pd.Limit)
	}
	if pd.Current == nil || *pd.Current != 5 {
		t.Errorf("expected current 5, got %v", pd.Current)
	}
	if !strings.Contains(pd.Detail, "5") {
		t.Errorf("detail should contain limit number, got %q", pd.Detail)
	}
	if !strings.Contains(pd.Detail, "participants") {
		t.Errorf("detail should contain resource name, got %q", pd.Detail)
	}
}

// ============================================================================
// Error Code Constants Tests
// ============================================================================

func TestErrorCodes_UniqueValues(t *testing.T) {
	t.Parallel()

	codes := map[string]ErrorCode{
		"ErrCodeUnauthorized":       ErrCodeUnauthorized,
		"ErrCodeTokenInvalid":       ErrCodeTokenInvalid,
		"ErrCodeForbidden":          ErrCodeForbidden,
		"ErrCodeInsufficientRole":   ErrCodeInsufficientRole,
		"ErrCodeDatesLocked":        ErrCodeDatesLocked,
		"ErrCodeNotFound":           ErrCodeNotFound,
		"ErrCodeConflict":           ErrCodeConflict,
		"ErrCodeValidation":         ErrCodeValidation,
		"ErrCodeInvalidInput":       ErrCodeInvalidInput,
		"ErrCodeLimitExceeded":      ErrCodeLimitExceeded,
		"ErrCodeInternal":           ErrCodeInternal,
		"ErrCodeTransactionAborted": ErrCodeTransactionAborted,
	}

	seen := make(map[ErrorCode]string)
	for name, code := range codes {
		if existing, exists := seen[code]; exists {
			t.Errorf("duplicate error code: %s and %s both have value %d", existing, name, code)
		}
		seen[code] = name
	}
}

func TestErrorCodes_CorrectRanges(t *testing.T) {
	t.Parallel()

	ranges := []struct {
		name  string
		low   ErrorCode
		codes []ErrorCode
	}{
		{"auth", 1000, []ErrorCode{ErrCodeUnauthorized, ErrCodeTokenInvalid}},
		{"authz", 2000, []ErrorCode{ErrCodeForbidden, ErrCodeInsufficientRole, ErrCodeDatesLocked}},
		{"resource", 3000, []ErrorCode{ErrCodeNotFound, ErrCodeConflict}},
		{"validation", 4000, []ErrorCode{ErrCodeValidation, ErrCodeInvalidInput, ErrCodeLimitExceeded}},
		{"internal", 5000, []ErrorCode{ErrCodeInternal, ErrCodeTransactionAborted}},
	}

	for _, r := range ranges {
		for _, code := range r.codes {
			if code < r.low || code >= r.low+1000 {
				t.Errorf("%s error code %d should be in %dxxx range", r.name, code, r.low/1000)
			}
		}
	}
}

// ============================================================================
// JSON Serialization Tests
// ============================================================================

func TestProblemDetails_JSON_OmitsEmptyFields(t *testing.T) {
	t.Parallel()

	pd := &ProblemDetails{
		Type:   "test",
		Title:  "Test",
		Status: 400,
		// Detail, Instance, Errors, etc. are empty
	}

	data, err := json.Marshal(pd)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	if strings.Contains(jsonStr, "detail") {
		t.Error("empty detail should be omitted from JSON")
	}
	if strings.Contains(jsonStr, "instance") {
		t.Error("empty instance should be omitted from JSON")
	}
	if strings.Contains(jsonStr, "errors") {
		t.Error("empty errors should be omitted from JSON")
	}
}

func TestProblemDetails_JSON_IncludesAllFields(t *testing.T) {
	t.Parallel()

	limit := 10
	current := 5
	pd := &ProblemDetails{
		Type:     "test-type",
		Title:    "Test Title",
		Status:   422,
		Detail:   "Test detail",
		Instance: "/api/test",
		Errors:   []FieldError{{Field: "name", Message: "required"}},
		Code:     ErrCodeValidation,
		Limit:    &limit,
		Current:  &current,
	}

	data, err := json.Marshal(pd)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	expectedFields := []string{"type", "title", "status", "detail", "instance", "errors", "code", "limit", "current"}
	for _, field := range expectedFields {
		if _, ok := result[field]; !ok {
			t.Errorf("expected field %q in JSON output", field)
		}
	}
}
