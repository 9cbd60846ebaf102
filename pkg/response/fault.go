package response

import (
	"context"
	"errors"
	"fmt"
)

// Code classifies a Fault. The set is closed.
type Code string

const (
	CodeNotFound        Code = "not-found"
	CodeInvalidArgument Code = "invalid-argument"
	CodeBackendError    Code = "backend-error"
	CodeInternalError   Code = "internal-error"
)

// Fault is the only error shape that leaves the dispatcher.
type Fault struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	// Timeout is set when the backend call was aborted by its deadline.
	Timeout bool `json:"timeout,omitempty"`

	cause error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Unwrap exposes the underlying backend or validation error, if any.
func (f *Fault) Unwrap() error { return f.cause }

// NotFound is returned for operation names that are not in the catalog.
func NotFound(format string, args ...any) *Fault {
	return &Fault{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Invalid wraps a validation failure.
func Invalid(cause error, format string, args ...any) *Fault {
	return &Fault{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...), cause: cause}
}

// Backend wraps a failure that originated beyond the process boundary:
// subprocess exit, HTTP status, network error or stream decoding.
func Backend(cause error, format string, args ...any) *Fault {
	return &Fault{Code: CodeBackendError, Message: fmt.Sprintf(format, args...), cause: cause}
}

// TimedOut builds the backend fault used when a call exceeds its deadline.
func TimedOut(cause error, timeoutMS int64) *Fault {
	return &Fault{
		Code:    CodeBackendError,
		Message: fmt.Sprintf("timed out after %dms waiting for the ollama daemon (the model may still be loading)", timeoutMS),
		Timeout: true,
		cause:   cause,
	}
}

// Internal wraps anything unanticipated inside this layer.
func Internal(cause error, format string, args ...any) *Fault {
	return &Fault{Code: CodeInternalError, Message: fmt.Sprintf(format, args...), cause: cause}
}

// FromError converts any error into exactly one Fault. Faults pass through
// unchanged; a bare deadline is reported as a backend timeout; everything
// else is internal.
func FromError(err error) *Fault {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Fault{Code: CodeBackendError, Message: "timed out: " + err.Error(), Timeout: true, cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return Backend(err, "call cancelled: %s", err)
	}
	return Internal(err, "%s", err)
}

// IsCode reports whether err is a Fault with the given code.
func IsCode(err error, code Code) bool {
	var f *Fault
	return errors.As(err, &f) && f.Code == code
}
