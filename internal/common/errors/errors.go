// Package errors provides standardized error handling for the readiness
// pipeline and its BPMN workflow integration.
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
	ErrCodeRawDataNotFound      ErrorCode = "RAW_DATA_NOT_FOUND"
	ErrCodeRawDataUnreadable    ErrorCode = "RAW_DATA_UNREADABLE"
	ErrCodeCleanedDataWriteFail ErrorCode = "CLEANED_DATA_WRITE_FAILED"

	ErrCodeTrainingDataNotFound ErrorCode = "TRAINING_DATA_NOT_FOUND"
	ErrCodeTrainingFailed       ErrorCode = "TRAINING_FAILED"
	ErrCodeDegenerateLabels     ErrorCode = "DEGENERATE_LABELS"

	ErrCodeArtifactNotFound   ErrorCode = "ARTIFACT_NOT_FOUND"
	ErrCodeArtifactInvalid    ErrorCode = "ARTIFACT_INVALID"
	ErrCodeArtifactSaveFailed ErrorCode = "ARTIFACT_SAVE_FAILED"

	ErrCodeApplicantValidationFailed ErrorCode = "APPLICANT_VALIDATION_FAILED"
	ErrCodePredictionFailed          ErrorCode = "PREDICTION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                  ErrorCode = "TIMEOUT"
	ErrCodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
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
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
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

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewRawDataNotFoundError reports a missing raw input table.
func NewRawDataNotFoundError(path string) *StandardError {
	return newError(ErrCodeRawDataNotFound, "Raw data file not found", fmt.Sprintf("path: %s", path), false, nil).
		WithMetadata("path", path)
}

// NewRawDataUnreadableError reports a raw table that cannot be parsed as CSV.
func NewRawDataUnreadableError(path string, err error) *StandardError {
	return newError(ErrCodeRawDataUnreadable, "Raw data file could not be read", fmt.Sprintf("path: %s, error: %v", path, err), false, err)
}

// NewCleanedDataWriteError reports a failure writing the cleaned table.
func NewCleanedDataWriteError(path string, err error) *StandardError {
	return newError(ErrCodeCleanedDataWriteFail, "Cleaned data could not be written", fmt.Sprintf("path: %s, error: %v", path, err), false, err)
}

// NewTrainingDataNotFoundError reports a missing cleaned table at training time.
func NewTrainingDataNotFoundError(path string) *StandardError {
	return newError(ErrCodeTrainingDataNotFound, "Training data file not found", fmt.Sprintf("path: %s", path), false, nil).
		WithMetadata("path", path)
}

// NewTrainingFailedError reports any other fatal training condition.
func NewTrainingFailedError(details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %v", details, err)
	}
	return newError(ErrCodeTrainingFailed, "Model training failed", details, false, err)
}

// NewDegenerateLabelsError reports a label column with a single class.
func NewDegenerateLabelsError(class int, rows int) *StandardError {
	return newError(ErrCodeDegenerateLabels, "Training labels contain a single class",
		fmt.Sprintf("class: %d, rows: %d", class, rows), false, nil)
}

// NewArtifactNotFoundError reports a missing model artifact.
func NewArtifactNotFoundError(path string) *StandardError {
	return newError(ErrCodeArtifactNotFound, "Model artifact not found", fmt.Sprintf("path: %s", path), false, nil).
		WithMetadata("path", path)
}

// NewArtifactInvalidError reports an artifact that cannot be decoded or is incompatible.
func NewArtifactInvalidError(path, details string, err error) *StandardError {
	if err != nil {
		details = fmt.Sprintf("%s: %v", details, err)
	}
	return newError(ErrCodeArtifactInvalid, "Model artifact is invalid", fmt.Sprintf("path: %s, %s", path, details), false, err)
}

// NewArtifactSaveFailedError reports a failure persisting an artifact.
func NewArtifactSaveFailedError(path string, err error) *StandardError {
	return newError(ErrCodeArtifactSaveFailed, "Model artifact could not be saved", fmt.Sprintf("path: %s, error: %v", path, err), false, err)
}

// NewApplicantValidationFailedError reports field-level validation failures.
func NewApplicantValidationFailedError(fieldErrors []string) *StandardError {
	return newError(ErrCodeApplicantValidationFailed, "Applicant data validation failed",
		strings.Join(fieldErrors, "; "), false, nil).
		WithMetadata("fieldErrors", fieldErrors)
}

// NewPredictionFailedError reports a record that could not be encoded or scored.
func NewPredictionFailedError(err error) *StandardError {
	return newError(ErrCodePredictionFailed, "Prediction failed", err.Error(), false, err)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewDatabaseInsertFailedError creates a retryable insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert failed", err.Error(), true, err)
}

// NewExternalServiceError wraps an error from a remote dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service %s failed", service), err.Error(), true, err).
		WithMetadata("service", service)
}

// NewTimeoutError wraps a timeout from a remote dependency.
func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Timeout calling %s", service), err.Error(), true, err).
		WithMetadata("service", service)
}

// NewResourceNotFoundError reports a missing remote resource.
func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

// ==========================
// 4. BPMN Mapping
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes not
// listed are thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeApplicantValidationFailed: "APPLICANT_VALIDATION_FAILED",
	ErrCodePredictionFailed:          "ASSESSMENT_FAILED",
	ErrCodeArtifactNotFound:          "MODEL_UNAVAILABLE",
	ErrCodeArtifactInvalid:           "MODEL_UNAVAILABLE",
	ErrCodeDatabaseConnectionFailed:  "DATABASE_CONNECTION_FAILED",
	ErrCodeDatabaseInsertFailed:      "DATABASE_INSERT_FAILED",
	ErrCodeExternalService:           "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                   "TIMEOUT",
}

// GetRetryCount returns how many job retries an error code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeExternalService:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0 // Business and pipeline errors: no retry
	}
}

// ConvertToBPMNError maps a StandardError onto a throwable BPMN error.
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
	if fe, ok := stdErr.Metadata["fieldErrors"]; ok {
		vars["fieldErrors"] = fe
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

// AsStandardError unwraps err to a *StandardError if one is in its chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "RAW_DATA") || strings.Contains(codeStr, "CLEANED_DATA"):
		return "CLEANING"
	case strings.Contains(codeStr, "TRAINING") || strings.Contains(codeStr, "LABELS"):
		return "TRAINING"
	case strings.Contains(codeStr, "ARTIFACT"):
		return "ARTIFACT"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "PREDICTION"):
		return "INFERENCE"
	case strings.Contains(codeStr, "DATABASE"):
		return "DATABASE"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "TIMEOUT"):
		return "EXTERNAL"
	default:
		return "OTHER"
	}
}
