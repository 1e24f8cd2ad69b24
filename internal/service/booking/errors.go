package booking

import (
	"slotbook/internal/availability"
	"slotbook/internal/service/schedule"
)

// ErrNotConfigured means the business calendar has not been set up.
var ErrNotConfigured = schedule.ErrNotConfigured

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// RejectedError reports a booking that failed the availability rules.
type RejectedError struct {
	Reason availability.Reason
}

func (e *RejectedError) Error() string {
	return e.Reason.Message()
}
