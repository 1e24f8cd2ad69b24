package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

const (
	uniqueViolation         = "23505"
	scheduledStartIndexName = "appointments_scheduled_start_key"
	appointmentsPkeyName    = "appointments_pkey"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

var _ store.AppointmentRepository = (*AppointmentRepo)(nil)

func (r *AppointmentRepo) BookingsOn(ctx context.Context, dayStart, dayEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Column("start_time", "status").
		Where("start_time >= ?", dayStart).
		Where("start_time < ?", dayEnd).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	loc := dayStart.Location()
	out := make([]domain.Booking, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Booking{
			Start:  domain.TimeOfDayOf(row.StartTime.In(loc)),
			Status: row.Status,
		})
	}
	return out, nil
}

func (r *AppointmentRepo) Create(ctx context.Context, appt domain.Appointment) (domain.Appointment, bool, error) {
	var (
		out      domain.Appointment
		replayed bool
	)
	err := r.inDayTransaction(ctx, appt.StartTime, func(ctx context.Context, tx bun.Tx) error {
		a, found, err := createAppointment(ctx, tx, appt)
		if err != nil {
			return err
		}
		out, replayed = a, found
		return nil
	})
	if err != nil {
		return domain.Appointment{}, false, err
	}
	return out, replayed, nil
}

func (r *AppointmentRepo) Cancel(ctx context.Context, customerID string, appointmentID uuid.UUID, now time.Time) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var appt domain.Appointment
		err := tx.NewSelect().
			Model(&appt).
			Where("id = ?", appointmentID).
			For("UPDATE").
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return err
		}
		if appt.CustomerID != customerID {
			return store.ErrNotFound
		}
		if !appt.Scheduled() {
			return store.ErrAlreadyCanceled
		}
		if appt.IsPast(now) {
			return store.ErrPastAppointment
		}

		canceledAt := now.UTC()
		appt.Status = domain.AppointmentStatusCanceled
		appt.CanceledAt = &canceledAt
		_, err = tx.NewUpdate().
			Model(&appt).
			Column("status", "canceled_at", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}

		if err := loadReminderOptions(ctx, tx, &appt); err != nil {
			return err
		}
		out = appt
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Relation("ReminderOptions").
		Where("appointment.id = ?", appointmentID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) List(ctx context.Context, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("ReminderOptions").
		Where("appointment.start_time >= ?", windowStart).
		Where("appointment.start_time < ?", windowEnd).
		OrderExpr("appointment.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("ReminderOptions").
		Where("appointment.customer_id = ?", customerID).
		OrderExpr("appointment.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// inDayTransaction serializes writers touching the same business day. The
// unique index on scheduled start times stays the source of truth.
func (r *AppointmentRepo) inDayTransaction(ctx context.Context, start time.Time, fn func(ctx context.Context, tx bun.Tx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockBusinessDay(ctx, tx, start); err != nil {
			return err
		}
		return fn(ctx, tx)
	})
}

func lockBusinessDay(ctx context.Context, tx bun.Tx, start time.Time) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "slotbook:day:"+start.Format(time.DateOnly)).Exec(ctx)
	return err
}

func createAppointment(ctx context.Context, tx bun.Tx, appt domain.Appointment) (domain.Appointment, bool, error) {
	if appt.ID != uuid.Nil {
		existing, found, err := findReplay(ctx, tx, appt)
		if err != nil {
			return domain.Appointment{}, false, err
		}
		if found {
			return existing, true, nil
		}
	}

	m := domain.Appointment{
		ID:              appt.ID,
		CustomerID:      appt.CustomerID,
		StartTime:       appt.StartTime,
		DurationSeconds: appt.DurationSeconds,
		Status:          domain.AppointmentStatusScheduled,
	}

	_, err := tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case scheduledStartIndexName:
				return domain.Appointment{}, false, store.ErrConflict
			case appointmentsPkeyName:
				return domain.Appointment{}, false, store.ErrIdempotencyConflict
			}
		}
		return domain.Appointment{}, false, err
	}

	if len(appt.ReminderOptions) > 0 {
		links := make([]domain.AppointmentReminderOption, 0, len(appt.ReminderOptions))
		for _, opt := range appt.ReminderOptions {
			links = append(links, domain.AppointmentReminderOption{AppointmentID: m.ID, ReminderOptionID: opt.ID})
		}
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return domain.Appointment{}, false, err
		}
	}

	m.ReminderOptions = appt.ReminderOptions
	return m, false, nil
}

// findReplay resolves an idempotent retry: an appointment already stored
// under the requested ID is returned when it matches the request and is still
// scheduled.
func findReplay(ctx context.Context, tx bun.Tx, appt domain.Appointment) (domain.Appointment, bool, error) {
	var existing domain.Appointment
	err := tx.NewSelect().
		Model(&existing).
		Where("id = ?", appt.ID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, false, nil
		}
		return domain.Appointment{}, false, err
	}

	if existing.CustomerID != appt.CustomerID ||
		!existing.StartTime.Equal(appt.StartTime) ||
		existing.DurationSeconds != appt.DurationSeconds {
		return domain.Appointment{}, false, store.ErrIdempotencyConflict
	}
	if !existing.Scheduled() {
		return domain.Appointment{}, false, store.ErrAlreadyCanceled
	}

	if err := loadReminderOptions(ctx, tx, &existing); err != nil {
		return domain.Appointment{}, false, err
	}
	return existing, true, nil
}

func loadReminderOptions(ctx context.Context, tx bun.Tx, appt *domain.Appointment) error {
	var opts []domain.ReminderOption
	err := tx.NewSelect().
		Model(&opts).
		Join("JOIN appointment_reminder_options AS aro ON aro.reminder_option_id = reminder_option.id").
		Where("aro.appointment_id = ?", appt.ID).
		OrderExpr("reminder_option.id ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	appt.ReminderOptions = opts
	return nil
}
