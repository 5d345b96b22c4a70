// Package errors defines the matching error codes, their BPMN mapping and
// retry policy, and the job error reporter used by every worker.
package errors

import (
	stderrors "errors"
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
	ErrCodeCandidateFetchFailed     ErrorCode = "CANDIDATE_FETCH_FAILED"
	ErrCodeCircuitOpen              ErrorCode = "CIRCUIT_OPEN"
	ErrCodeMatchRequestCreateFailed ErrorCode = "MATCH_REQUEST_CREATE_FAILED"
	ErrCodeMatchResultsSaveFailed   ErrorCode = "MATCH_RESULTS_SAVE_FAILED"
	ErrCodeMatchRequestNotFound     ErrorCode = "MATCH_REQUEST_NOT_FOUND"
	ErrCodeMentorNotFound           ErrorCode = "MENTOR_NOT_FOUND"
	ErrCodeMatchTimeout             ErrorCode = "MATCH_TIMEOUT"
	ErrCodeInvalidSearchFilters     ErrorCode = "INVALID_SEARCH_FILTERS"
	ErrCodeInvalidRecommendContext  ErrorCode = "INVALID_RECOMMEND_CONTEXT"
	ErrCodeInputValidationFailed    ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeSchemaValidationFailed   ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeEventPublishFailed       ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeSearchBackendUnavailable ErrorCode = "SEARCH_BACKEND_UNAVAILABLE"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// ErrCandidateFetchFailed marks a data-layer read failure. Candidate sources
// and recommenders wrap it with fmt.Errorf("%w: ...").
var ErrCandidateFetchFailed = stderrors.New("CANDIDATE_FETCH_FAILED")

// StandardError represents a structured application error. Details carries
// caller-facing context only; a cause stays reachable through Unwrap and is
// never copied into Details.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with k set in its metadata.
func (e *StandardError) WithMetadata(k string, v interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[k] = v
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	return e
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

func NewCandidateFetchFailedError(source string, err error) *StandardError {
	return newError(ErrCodeCandidateFetchFailed, fmt.Sprintf("Failed to fetch candidates from %s", source), err, true).
		WithMetadata("source", source)
}

func NewCircuitOpenError(source string, err error) *StandardError {
	return newError(ErrCodeCircuitOpen, fmt.Sprintf("Candidate source %s is temporarily unavailable", source), err, true).
		WithMetadata("source", source)
}

func NewMatchRequestCreateFailedError(err error) *StandardError {
	return newError(ErrCodeMatchRequestCreateFailed, "Failed to create match request record", err, true)
}

func NewMatchResultsSaveFailedError(requestID string, err error) *StandardError {
	return newError(ErrCodeMatchResultsSaveFailed, "Failed to persist match results", err, true).
		WithMetadata("requestId", requestID)
}

func NewMatchRequestNotFoundError(requestID string) *StandardError {
	return newError(ErrCodeMatchRequestNotFound, fmt.Sprintf("Match request %s not found", requestID), nil, false).
		WithMetadata("requestId", requestID)
}

func NewMentorNotFoundError(mentorID string) *StandardError {
	return newError(ErrCodeMentorNotFound, fmt.Sprintf("Verified mentor %s not found", mentorID), nil, false).
		WithMetadata("mentorId", mentorID)
}

func NewMatchTimeoutError(stage string, err error) *StandardError {
	return newError(ErrCodeMatchTimeout, fmt.Sprintf("Match deadline exceeded during %s", stage), err, true).
		WithMetadata("stage", stage)
}

func NewInvalidSearchFiltersError(details string) *StandardError {
	e := newError(ErrCodeInvalidSearchFilters, "Invalid search filters", nil, false)
	e.Details = details
	return e
}

func NewInvalidRecommendContextError(context string) *StandardError {
	e := newError(ErrCodeInvalidRecommendContext, fmt.Sprintf("Unsupported recommendation context %q", context), nil, false)
	e.Details = "context must be one of homepage, search, profile, service"
	return e
}

func NewInputValidationFailedError(details string) *StandardError {
	e := newError(ErrCodeInputValidationFailed, "Input validation failed", nil, false)
	e.Details = details
	return e
}

func NewSchemaValidationFailedError(details string) *StandardError {
	e := newError(ErrCodeSchemaValidationFailed, "Payload does not match schema", nil, false)
	e.Details = details
	return e
}

func NewEventPublishFailedError(topic string, err error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Failed to publish match event", err, true).
		WithMetadata("topic", topic)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Failed to connect to database", err, true)
}

func NewSearchBackendUnavailableError(err error) *StandardError {
	return newError(ErrCodeSearchBackendUnavailable, "Search backend is unavailable", err, true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes modelled
// on boundary events. Codes not listed pass through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCandidateFetchFailed:     "MENTOR_SOURCE_ERROR",
	ErrCodeCircuitOpen:              "MENTOR_SOURCE_ERROR",
	ErrCodeSearchBackendUnavailable: "MENTOR_SOURCE_ERROR",
	ErrCodeMatchRequestCreateFailed: "MATCH_PERSISTENCE_ERROR",
	ErrCodeMatchResultsSaveFailed:   "MATCH_PERSISTENCE_ERROR",
	ErrCodeInvalidSearchFilters:     "INVALID_INPUT",
	ErrCodeInvalidRecommendContext:  "INVALID_INPUT",
	ErrCodeInputValidationFailed:    "INVALID_INPUT",
	ErrCodeSchemaValidationFailed:   "INVALID_INPUT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCandidateFetchFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeMatchRequestCreateFailed,
		ErrCodeSearchBackendUnavailable:
		return 3

	case ErrCodeMatchTimeout,
		ErrCodeCircuitOpen:
		return 2

	case ErrCodeEventPublishFailed:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err to a StandardError. A wrapped
// ErrCandidateFetchFailed becomes CANDIDATE_FETCH_FAILED; anything else
// unknown becomes INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, ErrCandidateFetchFailed) {
		return newError(ErrCodeCandidateFetchFailed, "Failed to fetch candidates", err, true)
	}
	return NewInternalError(err)
}

// HasCode reports whether err is a StandardError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CANDIDATE") || strings.Contains(codeStr, "CIRCUIT") || strings.Contains(codeStr, "SEARCH_BACKEND"):
		return "SOURCE"
	case strings.HasPrefix(codeStr, "MATCH_"):
		return "MATCHING"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
