package store

import (
	"context"

	"slotbook/internal/domain"
)

// ScheduleRepository holds the single business calendar. Load returns
// ErrNotFound until a schedule has been saved.
type ScheduleRepository interface {
	LoadSchedule(ctx context.Context) (domain.WeeklySchedule, error)
	SaveSchedule(ctx context.Context, s domain.WeeklySchedule) error
}

type ReminderOptionRepository interface {
	ListReminderOptions(ctx context.Context) ([]domain.ReminderOption, error)
	FindReminderOptions(ctx context.Context, ids []int64) ([]domain.ReminderOption, error)
	CreateReminderOption(ctx context.Context, name string) (domain.ReminderOption, error)
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, id string) (domain.Customer, error)
	UpsertCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)
}
