package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

// CalendarRepo stores the business calendar and the reminder option catalog.
type CalendarRepo struct {
	db *bun.DB
}

func NewCalendarRepo(db *bun.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

var (
	_ store.ScheduleRepository       = (*CalendarRepo)(nil)
	_ store.ReminderOptionRepository = (*CalendarRepo)(nil)
)

func (r *CalendarRepo) LoadSchedule(ctx context.Context) (domain.WeeklySchedule, error) {
	var rows []domain.ScheduleDay
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("weekday ASC").
		Scan(ctx)
	if err != nil {
		return domain.WeeklySchedule{}, err
	}
	if len(rows) == 0 {
		return domain.WeeklySchedule{}, store.ErrNotFound
	}
	return domain.ScheduleFromRows(rows)
}

func (r *CalendarRepo) SaveSchedule(ctx context.Context, s domain.WeeklySchedule) error {
	rows := s.Rows()
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (weekday) DO UPDATE").
			Set("open_minute = EXCLUDED.open_minute").
			Set("close_minute = EXCLUDED.close_minute").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (r *CalendarRepo) ListReminderOptions(ctx context.Context) ([]domain.ReminderOption, error) {
	var rows []domain.ReminderOption
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CalendarRepo) FindReminderOptions(ctx context.Context, ids []int64) ([]domain.ReminderOption, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []domain.ReminderOption
	err := r.db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CalendarRepo) CreateReminderOption(ctx context.Context, name string) (domain.ReminderOption, error) {
	opt := domain.ReminderOption{Name: name}
	_, err := r.db.NewInsert().
		Model(&opt).
		Returning("id").
		Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ReminderOption{}, store.ErrConflict
		}
		return domain.ReminderOption{}, err
	}
	return opt, nil
}

// CustomerRepo stores customer notification profiles.
type CustomerRepo struct {
	db *bun.DB
}

func NewCustomerRepo(db *bun.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

var _ store.CustomerRepository = (*CustomerRepo)(nil)

func (r *CustomerRepo) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	err := r.db.NewSelect().
		Model(&c).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Customer{}, store.ErrNotFound
		}
		return domain.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepo) UpsertCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	m := c
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("full_name = EXCLUDED.full_name").
		Set("email = EXCLUDED.email").
		Set("phone = EXCLUDED.phone").
		Set("receive_reminders = EXCLUDED.receive_reminders").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	return m, nil
}
