// Package errors provides standardized error handling for the photoshoot API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeConfiguration    ErrorCode = "CONFIGURATION_ERROR"

	ErrCodeBackendQuota      ErrorCode = "BACKEND_QUOTA_EXCEEDED"
	ErrCodeBackendModel      ErrorCode = "BACKEND_MODEL_UNAVAILABLE"
	ErrCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrCodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// QuotaAdvice is shown to users when the backend refuses for quota, billing or
// rate reasons.
const QuotaAdvice = "Quota or access exceeded for the selected Gemini model. Please enable billing in Google AI Studio, try again later, or set DEMO_MODE=1 to simulate results."

// RateLimitedMessage is returned when a caller exceeds the endpoint quota.
const RateLimitedMessage = "Too many requests. Please wait a moment and try again."

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the backend error that produced this one, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable request validation error. The
// message is user facing.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError reports a missing or unusable deployment setting.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Service is not configured for generation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendQuotaError wraps a quota, billing or rate class backend failure.
func NewBackendQuotaError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendQuota,
		Message:   err.Error(),
		Details:   "all credentials exhausted by quota, billing or rate limits",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewBackendModelError wraps a failure where no configured model was usable.
func NewBackendModelError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendModel,
		Message:   err.Error(),
		Details:   "no configured model accepted the request",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationFailedError wraps a non-retryable backend failure.
func NewGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewGenerationTimeoutError reports the batch deadline elapsing.
func NewGenerationTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   fmt.Sprintf("generation timed out after %dms", timeout.Milliseconds()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError reports a caller that exceeded the endpoint quota.
func NewRateLimitedError(clientKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   RateLimitedMessage,
		Retryable: true,
		Metadata:  map[string]interface{}{"clientKey": clientKey},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification helpers
// ==========================

// "rate" only matches as a word so messages like "failed to generate" stay
// non-quota.
var quotaMessagePattern = regexp.MustCompile(`(?i)quota|429|\brate\b|rate[ _-]?limit|exceed|free_tier|billing|RESOURCE_EXHAUSTED`)

// AsStandard extracts a *StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize always returns a StandardError, wrapping unknown errors as
// INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsQuotaError reports whether err should be surfaced to users as a quota
// problem. Typed errors use their code; untyped errors are matched on text.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if stdErr, ok := AsStandard(err); ok {
		switch stdErr.Code {
		case ErrCodeBackendQuota:
			return true
		case ErrCodeValidationFailed, ErrCodeConfiguration, ErrCodeGenerationTimeout, ErrCodeRateLimited:
			return false
		}
		return quotaMessagePattern.MatchString(stdErr.Message)
	}
	return quotaMessagePattern.MatchString(err.Error())
}

// HTTPStatus maps an error to the status code returned by the API.
func HTTPStatus(err error) int {
	if stdErr, ok := AsStandard(err); ok {
		switch stdErr.Code {
		case ErrCodeValidationFailed:
			return http.StatusBadRequest
		case ErrCodeRateLimited:
			return http.StatusTooManyRequests
		}
	}
	if IsQuotaError(err) {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// UserMessage returns the message shown to API callers for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok && stdErr.Code == ErrCodeRateLimited {
		return stdErr.Message
	}
	if IsQuotaError(err) {
		return QuotaAdvice
	}
	if stdErr, ok := AsStandard(err); ok {
		if stdErr.Message == "" {
			return "Unexpected error"
		}
		return stdErr.Message
	}
	return err.Error()
}

// GetErrorCategory returns a coarse category used as a metrics label.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.HasPrefix(codeStr, "BACKEND") || strings.HasPrefix(codeStr, "GENERATION"):
		return "BACKEND"
	case strings.Contains(codeStr, "RATE"):
		return "RATE_LIMIT"
	default:
		return "OTHER"
	}
}
