package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type ReminderOption struct {
	bun.BaseModel `bun:"table:reminder_options"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

// Customer is the profile the booking flow needs for notifications. Accounts
// and credentials live elsewhere; ID is the external account reference.
type Customer struct {
	bun.BaseModel `bun:"table:customers"`

	ID               string    `bun:"id,pk"`
	FullName         string    `bun:"full_name,notnull"`
	Email            string    `bun:"email,notnull"`
	Phone            string    `bun:"phone"`
	ReceiveReminders bool      `bun:"receive_reminders,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

func (c *Customer) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
	case *bun.UpdateQuery:
		c.UpdatedAt = now
	}
	return nil
}
