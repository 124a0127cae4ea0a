// Package errors provides standardized error handling for the image test pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Pipeline error codes, one group per stage of a run.
const (
	// Workspace provisioning
	ErrCodeWorkspaceProvisionFailed ErrorCode = "WORKSPACE_PROVISION_FAILED"
	ErrCodeKeygenFailed             ErrorCode = "KEYGEN_FAILED"

	// Test invocation
	ErrCodeInvocationInputInvalid ErrorCode = "INVOCATION_INPUT_INVALID"
	ErrCodeInvocationStartFailed  ErrorCode = "INVOCATION_START_FAILED"
	ErrCodeInvocationFailed       ErrorCode = "INVOCATION_FAILED"

	// Report extraction
	ErrCodeReportNotFound    ErrorCode = "REPORT_NOT_FOUND"
	ErrCodeReportParseFailed ErrorCode = "REPORT_PARSE_FAILED"

	// Result publication
	ErrCodePublishValidationFailed ErrorCode = "PUBLISH_VALIDATION_FAILED"
	ErrCodePublishTransportFailed  ErrorCode = "PUBLISH_TRANSPORT_FAILED"
	ErrCodePublishUnexpected       ErrorCode = "PUBLISH_UNEXPECTED"

	// Messaging ingress
	ErrCodeNotificationDecodeFailed ErrorCode = "NOTIFICATION_DECODE_FAILED"
	ErrCodeBusConnectionFailed      ErrorCode = "BUS_CONNECTION_FAILED"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewWorkspaceProvisionFailedError creates a non-retryable workspace setup error.
func NewWorkspaceProvisionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkspaceProvisionFailed,
		Message:   "Failed to provision run workspace",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewKeygenFailedError creates a non-retryable key generation error. No
// fallback key is ever substituted for a run.
func NewKeygenFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeKeygenFailed,
		Message:   "SSH key pair generation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvocationInputInvalidError creates a non-retryable pre-spawn validation error.
func NewInvocationInputInvalidError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvocationInputInvalid,
		Message:   "Missing or invalid test invocation parameter",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvocationStartFailedError creates an error for a child process that
// never started (missing binary, OS error).
func NewInvocationStartFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvocationStartFailed,
		Message:   "Test tool process failed to start",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvocationFailedError creates an error for a non-zero test tool exit.
func NewInvocationFailedError(exitCode int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvocationFailed,
		Message:   "Test tool exited with a failure status",
		Details:   fmt.Sprintf("exitCode: %d", exitCode),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportNotFoundError creates an error for a missing report file or directory.
func NewReportNotFoundError(searchRoot string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportNotFound,
		Message:   "Test report file not found",
		Details:   fmt.Sprintf("searchRoot: %s", searchRoot),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportParseFailedError creates an error for malformed report XML. Partial
// results are never published.
func NewReportParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportParseFailed,
		Message:   "Test report could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPublishValidationFailedError creates an error for an outbound body that
// violates the result message schema.
func NewPublishValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePublishValidationFailed,
		Message:   "Result message failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPublishTransportFailedError creates a retryable transport error. Retry,
// if any, belongs to the transport, not the pipeline.
func NewPublishTransportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePublishTransportFailed,
		Message:   "Result message transport error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPublishUnexpectedError creates an error for any other publish failure.
func NewPublishUnexpectedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePublishUnexpected,
		Message:   "Unexpected error while publishing results",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationDecodeFailedError creates an error for an undecodable delivery.
func NewNotificationDecodeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationDecodeFailed,
		Message:   "Inbound notification could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBusConnectionFailedError creates a retryable bus connectivity error.
func NewBusConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBusConnectionFailed,
		Message:   "Message bus connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// GetErrorCategory maps an error code onto the pipeline failure taxonomy.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvocationInputInvalid:
		return "input_validation"
	case ErrCodeInvocationStartFailed, ErrCodeInvocationFailed:
		return "invocation"
	case ErrCodeReportNotFound, ErrCodeReportParseFailed:
		return "report"
	case ErrCodePublishValidationFailed, ErrCodePublishTransportFailed, ErrCodePublishUnexpected:
		return "publish"
	case ErrCodeWorkspaceProvisionFailed, ErrCodeKeygenFailed:
		return "workspace"
	case ErrCodeNotificationDecodeFailed, ErrCodeBusConnectionFailed:
		return "messaging"
	default:
		return "internal"
	}
}
