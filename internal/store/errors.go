package store

import "errors"

var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrPastAppointment     = errors.New("appointment already started")
	ErrAlreadyCanceled     = errors.New("appointment already canceled")
)
