package errors

import (
	stderrors "errors"
	"time"
)

// EscalationError signals that no further automation is possible for the
// current turn and a human agent has to take over. It is returned on
// authentication failure, on an unroutable intent, on an unmet verification
// requirement and by handlers that decide to escalate themselves.
type EscalationError struct {
	Reason string
}

func (e *EscalationError) Error() string {
	return e.Reason
}

// NewEscalationRequired creates an escalation error carrying a human-readable reason.
func NewEscalationRequired(reason string) *EscalationError {
	return &EscalationError{Reason: reason}
}

// AsEscalation unwraps err into an *EscalationError.
func AsEscalation(err error) (*EscalationError, bool) {
	var escErr *EscalationError
	if stderrors.As(err, &escErr) {
		return escErr, true
	}
	return nil, false
}

// IsEscalation reports whether err is, or wraps, an escalation.
func IsEscalation(err error) bool {
	_, ok := AsEscalation(err)
	return ok
}

// As and Is re-export the standard library helpers so callers importing this
// package under the name errors keep access to them.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

// Normalize ensures we always have a StandardError for logging and metrics.
// Escalations are not normalized; callers check IsEscalation first.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
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
