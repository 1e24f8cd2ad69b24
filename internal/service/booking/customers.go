package booking

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"slotbook/internal/domain"
	"slotbook/internal/store"
)

type CustomerInput struct {
	ID               string
	FullName         string
	Email            string
	Phone            string
	ReceiveReminders bool
}

func (s *Service) Customer(ctx context.Context, id string) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Customer{}, validationError("customer_id is required")
	}
	return s.customers.GetCustomer(ctx, id)
}

// SaveCustomer creates or replaces the notification profile of a customer.
func (s *Service) SaveCustomer(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	c := domain.Customer{
		ID:               strings.TrimSpace(in.ID),
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.TrimSpace(in.Email),
		Phone:            strings.TrimSpace(in.Phone),
		ReceiveReminders: in.ReceiveReminders,
	}
	if c.ID == "" {
		return domain.Customer{}, validationError("customer_id is required")
	}
	if c.FullName == "" {
		return domain.Customer{}, validationError("full_name is required")
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil {
		return domain.Customer{}, validationError("invalid email")
	}
	c.Email = addr.Address
	return s.customers.UpsertCustomer(ctx, c)
}

func (s *Service) ReminderOptions(ctx context.Context) ([]domain.ReminderOption, error) {
	return s.options.ListReminderOptions(ctx)
}

func (s *Service) AddReminderOption(ctx context.Context, name string) (domain.ReminderOption, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ReminderOption{}, validationError("name is required")
	}
	if len(name) > 100 {
		return domain.ReminderOption{}, validationError("name too long")
	}
	opt, err := s.options.CreateReminderOption(ctx, name)
	if errors.Is(err, store.ErrConflict) {
		return domain.ReminderOption{}, validationError("reminder option already exists")
	}
	return opt, err
}
