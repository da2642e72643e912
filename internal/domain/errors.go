package domain

import (
	"errors"
	"fmt"
)

// DomainError is the error type crossing every package boundary. Code is one
// of the ErrCode constants and decides how callers react: transport status,
// retry, or reporting.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches on code and message, so a sentinel wrapped with a cause still
// satisfies errors.Is against the bare sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeResourceInit  = "RESOURCE_INIT_ERROR"
	ErrCodeTransientIO   = "TRANSIENT_IO_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyText            = NewDomainError(ErrCodeValidation, "text cannot be empty")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query text or vector is required")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidJobStatus     = NewDomainError(ErrCodeValidation, "invalid ingestion job status")
)

// Not found errors
var (
	ErrSchemeNotFound       = NewDomainError(ErrCodeNotFound, "scheme not found")
	ErrIngestionJobNotFound = NewDomainError(ErrCodeNotFound, "ingestion job not found")
	ErrDocumentNotFound     = NewDomainError(ErrCodeNotFound, "document not found")
)

// Already exists errors
var (
	ErrSchemeAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "scheme already exists")
)

// Configuration errors
var (
	ErrSemanticIndexNotConfigured = NewDomainError(ErrCodeConfiguration, "semantic index is not configured")
	ErrEmbeddingNotConfigured     = NewDomainError(ErrCodeConfiguration, "embedding provider is not configured")
	ErrDecisionNotConfigured      = NewDomainError(ErrCodeConfiguration, "decision provider is not configured")
	ErrDimensionMismatch          = NewDomainError(ErrCodeConfiguration, "embedding dimensionality does not match configuration")
)

// Resource errors
var (
	ErrEmbeddingInit     = NewDomainError(ErrCodeResourceInit, "embedding resource failed to initialize")
	ErrBucketUnavailable = NewDomainError(ErrCodeResourceInit, "document bucket is unavailable")
)

// NewValidationError reports bad caller input.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewConfigurationError wraps err as a non-retryable configuration failure.
func NewConfigurationError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeConfiguration, message, err)
}

// NewTransientError wraps err as a retryable storage or network failure.
func NewTransientError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeTransientIO, message, err)
}

// NewResourceInitError wraps a failure to load the embedding model. It is
// fatal for the process: callers should not retry.
func NewResourceInitError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeResourceInit, ErrEmbeddingInit.Message, err)
}

// ErrorCode returns the code of the first DomainError in err's chain, or "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries a DomainError with the given code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(err error) bool {
	return IsCode(err, ErrCodeTransientIO)
}
