// Package notify delivers customer notifications on a best-effort basis.
// Delivery failures are logged and never reported back to the caller.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
)

type Recipient struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

type Notification struct {
	ID              uuid.UUID `json:"id"`
	Kind            Kind      `json:"kind"`
	Recipient       Recipient `json:"recipient"`
	AppointmentID   uuid.UUID `json:"appointment_id"`
	StartTime       time.Time `json:"start_time"`
	DurationSeconds int       `json:"duration_seconds"`
	ReminderOptions []string  `json:"reminder_options,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Gateway is what the booking flow calls into. It has no result.
type Gateway interface {
	Notify(ctx context.Context, n Notification)
}

// Sender performs the actual delivery of a notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
	Close() error
}

var ErrUnknownDriver = errors.New("unknown notify driver")

type Dispatcher struct {
	sender  Sender
	log     *slog.Logger
	timeout time.Duration
}

func NewDispatcher(sender Sender, log *slog.Logger, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{sender: sender, log: log, timeout: timeout}
}

var _ Gateway = (*Dispatcher)(nil)

// Notify sends n synchronously. The caller's cancellation does not abort an
// in-flight delivery; the dispatcher timeout bounds it instead.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, n); err != nil {
		d.log.WarnContext(ctx, "notification failed",
			slog.String("kind", string(n.Kind)),
			slog.String("appointment_id", n.AppointmentID.String()),
			slog.String("customer_id", n.Recipient.CustomerID),
			slog.Any("err", err),
		)
		return
	}
	d.log.DebugContext(ctx, "notification sent",
		slog.String("kind", string(n.Kind)),
		slog.String("appointment_id", n.AppointmentID.String()),
	)
}

func (d *Dispatcher) Close() error {
	return d.sender.Close()
}

// LogSender writes notifications to the log. Used when no broker is configured.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.log.InfoContext(ctx, "notification",
		slog.String("kind", string(n.Kind)),
		slog.String("email", n.Recipient.Email),
		slog.String("appointment_id", n.AppointmentID.String()),
		slog.Time("start_time", n.StartTime),
	)
	return nil
}

func (s *LogSender) Close() error { return nil }
