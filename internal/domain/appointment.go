package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCanceled  AppointmentStatus = "canceled"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid"`
	CustomerID      string            `bun:"customer_id,notnull"`
	StartTime       time.Time         `bun:"start_time,notnull"`
	DurationSeconds int               `bun:"duration_seconds,notnull"`
	Status          AppointmentStatus `bun:"status,notnull"`
	CanceledAt      *time.Time        `bun:"canceled_at"`
	CreatedAt       time.Time         `bun:"created_at,notnull"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull"`

	ReminderOptions []ReminderOption `bun:"m2m:appointment_reminder_options,join:Appointment=ReminderOption"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = AppointmentStatusScheduled
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

func (a Appointment) Duration() time.Duration {
	return time.Duration(a.DurationSeconds) * time.Second
}

func (a Appointment) EndTime() time.Time {
	return a.StartTime.Add(a.Duration())
}

func (a Appointment) IsPast(now time.Time) bool {
	return a.StartTime.Before(now)
}

func (a Appointment) Scheduled() bool {
	return a.Status == AppointmentStatusScheduled
}

// Booking is the slice of an appointment the availability engine reads.
type Booking struct {
	Start  TimeOfDay
	Status AppointmentStatus
}

// BlockedStarts collects the start times of scheduled bookings. Canceled
// bookings free their slot.
func BlockedStarts(bookings []Booking) map[TimeOfDay]struct{} {
	out := make(map[TimeOfDay]struct{}, len(bookings))
	for _, b := range bookings {
		if b.Status != AppointmentStatusScheduled {
			continue
		}
		out[b.Start] = struct{}{}
	}
	return out
}

type AppointmentReminderOption struct {
	bun.BaseModel `bun:"table:appointment_reminder_options"`

	AppointmentID    uuid.UUID       `bun:"appointment_id,pk,type:uuid"`
	Appointment      *Appointment    `bun:"rel:belongs-to,join:appointment_id=id"`
	ReminderOptionID int64           `bun:"reminder_option_id,pk"`
	ReminderOption   *ReminderOption `bun:"rel:belongs-to,join:reminder_option_id=id"`
}
