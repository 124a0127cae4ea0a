// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

// captureLogger records the last error log call for inspection.
type captureLogger struct {
	msg    string
	fields map[string]interface{}
}

func (c *captureLogger) Error(msg string, fields map[string]interface{}) {
	c.msg = msg
	c.fields = fields
}

// ==========================
// Constructor Tests
// ==========================

func TestErrorConstructors(t *testing.T) {
	cause := fmt.Errorf("underlying cause")

	tests := []struct {
		name             string
		err              *StandardError
		expectedCode     ErrorCode
		expectedRetry    bool
		expectedCategory string
	}{
		{
			name:             "workspace provision failed",
			err:              NewWorkspaceProvisionFailedError(cause),
			expectedCode:     ErrCodeWorkspaceProvisionFailed,
			expectedRetry:    false,
			expectedCategory: "workspace",
		},
		{
			name:             "keygen failed",
			err:              NewKeygenFailedError("ssh-keygen: exit status 1"),
			expectedCode:     ErrCodeKeygenFailed,
			expectedRetry:    false,
			expectedCategory: "workspace",
		},
		{
			name:             "invocation input invalid",
			err:              NewInvocationInputInvalidError("region"),
			expectedCode:     ErrCodeInvocationInputInvalid,
			expectedRetry:    false,
			expectedCategory: "input_validation",
		},
		{
			name:             "invocation start failed",
			err:              NewInvocationStartFailedError(cause),
			expectedCode:     ErrCodeInvocationStartFailed,
			expectedRetry:    false,
			expectedCategory: "invocation",
		},
		{
			name:             "invocation failed",
			err:              NewInvocationFailedError(1),
			expectedCode:     ErrCodeInvocationFailed,
			expectedRetry:    false,
			expectedCategory: "invocation",
		},
		{
			name:             "report not found",
			err:              NewReportNotFoundError("/tmp/run/lisa_results"),
			expectedCode:     ErrCodeReportNotFound,
			expectedRetry:    false,
			expectedCategory: "report",
		},
		{
			name:             "report parse failed",
			err:              NewReportParseFailedError(cause),
			expectedCode:     ErrCodeReportParseFailed,
			expectedRetry:    false,
			expectedCategory: "report",
		},
		{
			name:             "publish validation failed",
			err:              NewPublishValidationFailedError("count mismatch"),
			expectedCode:     ErrCodePublishValidationFailed,
			expectedRetry:    false,
			expectedCategory: "publish",
		},
		{
			name:             "publish transport failed",
			err:              NewPublishTransportFailedError(cause),
			expectedCode:     ErrCodePublishTransportFailed,
			expectedRetry:    true,
			expectedCategory: "publish",
		},
		{
			name:             "publish unexpected",
			err:              NewPublishUnexpectedError(cause),
			expectedCode:     ErrCodePublishUnexpected,
			expectedRetry:    false,
			expectedCategory: "publish",
		},
		{
			name:             "notification decode failed",
			err:              NewNotificationDecodeFailedError(cause),
			expectedCode:     ErrCodeNotificationDecodeFailed,
			expectedRetry:    false,
			expectedCategory: "messaging",
		},
		{
			name:             "bus connection failed",
			err:              NewBusConnectionFailedError(cause),
			expectedCode:     ErrCodeBusConnectionFailed,
			expectedRetry:    true,
			expectedCategory: "messaging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.expectedCode, tt.err.Code)
			assert.Equal(t, tt.expectedRetry, tt.err.Retryable)
			assert.Equal(t, tt.expectedCategory, GetErrorCategory(tt.err.Code))
			assert.NotEmpty(t, tt.err.Message)
			assert.NotEmpty(t, tt.err.Details)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestStandardError_Error(t *testing.T) {
	err := NewKeygenFailedError("exit status 1")

	assert.Equal(t, "StandardError[KEYGEN_FAILED]: SSH key pair generation failed", err.Error())
}

func TestGetErrorCategory_UnknownCode(t *testing.T) {
	assert.Equal(t, "internal", GetErrorCategory("SOMETHING_ELSE"))
}

// ==========================
// RunErrorHandler Tests
// ==========================

func TestRunErrorHandler_StandardErrorPassesThrough(t *testing.T) {
	log := &captureLogger{}
	handler := NewRunErrorHandler(log)

	original := NewReportNotFoundError("/tmp/run")
	stdErr := handler.HandleRunError("August30-2026-1200", original)

	assert.Same(t, original, stdErr)
	assert.Equal(t, "Run failed", log.msg)
	assert.Equal(t, "August30-2026-1200", log.fields["runName"])
	assert.Equal(t, string(ErrCodeReportNotFound), log.fields["errorCode"])
	assert.Equal(t, "report", log.fields["errorCategory"])
	assert.Equal(t, false, log.fields["retryable"])
}

func TestRunErrorHandler_NormalizesPlainError(t *testing.T) {
	log := &captureLogger{}
	handler := NewRunErrorHandler(log)

	stdErr := handler.HandleRunError("", fmt.Errorf("run panicked: boom"))

	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), stdErr.Code)
	assert.Equal(t, "run panicked: boom", stdErr.Details)
	assert.Equal(t, "internal", log.fields["errorCategory"])
}
