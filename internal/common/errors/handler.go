package errors

import (
	"time"
)

// RunErrorHandler converts arbitrary errors into StandardError at the
// boundary of a pipeline run and logs them with a consistent shape. No error
// is allowed to escape a run and take down notification processing.
type RunErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewRunErrorHandler(logger Logger) *RunErrorHandler {
	return &RunErrorHandler{logger: logger}
}

// HandleRunError normalizes and logs a terminal run error. It returns the
// normalized error so callers can branch on the code.
func (h *RunErrorHandler) HandleRunError(runName string, err error) *StandardError {
	stdErr := h.normalizeError(err)

	h.logger.Error("Run failed", map[string]interface{}{
		"runName":       runName,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	return stdErr
}

// normalizeError ensures we always have a StandardError.
func (h *RunErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
