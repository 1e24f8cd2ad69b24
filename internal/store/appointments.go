package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/domain"
)

// AppointmentRepository is the persistence boundary for appointments. Create
// must enforce at most one scheduled appointment per start time and report a
// violation as ErrConflict. When appt carries an ID that is already stored
// with the same payload, Create returns the stored row and reports it as replayed.
type AppointmentRepository interface {
	BookingsOn(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error)
	Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error)
	Cancel(ctx context.Context, customerID string, appointmentID uuid.UUID, now time.Time) (domain.Appointment, error)
	Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Appointment, error)
}
