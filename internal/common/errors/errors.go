// Package errors provides standardized error handling for roster jobs and tools.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input / catalog errors
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeDuplicateCandidate   ErrorCode = "DUPLICATE_CANDIDATE"
	ErrCodeInvalidInput         ErrorCode = "INVALID_INPUT"
	ErrCodeCSVReadFailed        ErrorCode = "CSV_READ_FAILED"

	// Solver errors
	ErrCodeInvalidRequirement ErrorCode = "INVALID_REQUIREMENT"
	ErrCodeSolveTimeout       ErrorCode = "SOLVE_TIMEOUT"
	ErrCodeSolveCancelled     ErrorCode = "SOLVE_CANCELLED"

	// Infrastructure errors
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeResultPersistFailed      ErrorCode = "RESULT_PERSIST_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeIndexFailed              ErrorCode = "INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExportFailed             ErrorCode = "EXPORT_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches another *StandardError by code so callers can use errors.Is with
// a code sentinel such as errors.Is(err, &StandardError{Code: ErrCodeInvalidInput}).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// HasCode reports whether err is a *StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			return se.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMissingFieldError reports a record that lacks a load-bearing field.
// row is the 1-based position of the record in its batch; 0 means the header.
func NewMissingFieldError(field string, row int) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredField,
		Message:   "Required field missing",
		Details:   fmt.Sprintf("field: %s, row: %d", field, row),
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field, "row": row},
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateCandidateError reports a candidate id seen twice in one batch.
func NewDuplicateCandidateError(id string, row int) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateCandidate,
		Message:   "Candidate id already present in batch",
		Details:   fmt.Sprintf("id: %s, row: %d", id, row),
		Retryable: false,
		Metadata:  map[string]interface{}{"id": id, "row": row},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable payload error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCSVReadFailedError wraps a malformed tabular input.
func NewCSVReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCSVReadFailed,
		Message:   "Failed to read tabular input",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequirementError creates a non-retryable capacity requirement error.
func NewInvalidRequirementError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequirement,
		Message:   "Invalid capacity requirement",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSolveTimeoutError creates a retryable solver timeout error.
func NewSolveTimeoutError(group string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSolveTimeout,
		Message:   "Roster solve exceeded its time budget",
		Details:   fmt.Sprintf("group: %s", group),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSolveCancelledError reports a league solve stopped by its context.
func NewSolveCancelledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSolveCancelled,
		Message:   "Roster solve cancelled",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResultPersistFailedError creates a retryable persistence error.
func NewResultPersistFailedError(runID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultPersistFailed,
		Message:   "Failed to persist roster run",
		Details:   fmt.Sprintf("runId: %s, error: %s", runID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError is logged, never surfaced to a job: the cache is optional.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Result cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexFailedError creates a retryable search index error.
func NewIndexFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexFailed,
		Message:   "Failed to index standings",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError wraps a failure writing export rows.
func NewExportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "Failed to write export",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry Policy & Mapping
// ==========================

// GetRetryCount returns how many times a job failing with code may be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeResultPersistFailed,
		ErrCodeIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeSolveTimeout,
		ErrCodeSolveCancelled:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError maps a StandardError onto the workflow error surface.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FIELD") || strings.Contains(codeStr, "DUPLICATE") ||
		strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "CSV"):
		return "VALIDATION"
	case strings.Contains(codeStr, "SOLVE"):
		return "SOLVER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
