// Package audit records booking outcomes for contention monitoring.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionBook   Action = "book"
	ActionCancel Action = "cancel"
)

type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeReplayed Outcome = "replayed"
	OutcomeRejected Outcome = "rejected"
	OutcomeConflict Outcome = "conflict"
	OutcomeCanceled Outcome = "canceled"
	OutcomeFailed   Outcome = "failed"
)

type Event struct {
	At            time.Time
	Action        Action
	Outcome       Outcome
	Reason        string
	AppointmentID uuid.UUID
	CustomerID    string
	SlotStart     time.Time
}

type Sink interface {
	Record(ctx context.Context, e Event)
}

type Nop struct{}

func (Nop) Record(context.Context, Event) {}

const defaultBufferLimit = 10_000

// Buffer collects events in memory and hands them to flush in batches.
// Record never blocks on the backend; once limit events are pending, new
// events are dropped and counted.
type Buffer struct {
	mu      sync.Mutex
	pending []Event
	dropped int
	limit   int
	flush   func(ctx context.Context, events []Event) error
	log     *slog.Logger
}

func NewBuffer(flush func(ctx context.Context, events []Event) error, limit int, log *slog.Logger) *Buffer {
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Buffer{flush: flush, limit: limit, log: log}
}

func (b *Buffer) Record(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) >= b.limit {
		b.dropped++
		return
	}
	b.pending = append(b.pending, e)
}

// Flush writes all pending events. On failure the batch is put back in front
// of events recorded meanwhile, up to the buffer limit.
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	dropped := b.dropped
	b.dropped = 0
	b.mu.Unlock()

	if dropped > 0 {
		b.log.WarnContext(ctx, "audit events dropped", slog.Int("count", dropped))
	}
	if len(batch) == 0 {
		return nil
	}

	if err := b.flush(ctx, batch); err != nil {
		b.mu.Lock()
		merged := append(batch, b.pending...)
		if len(merged) > b.limit {
			b.dropped += len(merged) - b.limit
			merged = merged[:b.limit]
		}
		b.pending = merged
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Run flushes every interval until ctx is done, then makes a final flush
// bounded by a short timeout.
func (b *Buffer) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if err := b.Flush(flushCtx); err != nil {
				b.log.Error("final audit flush failed", slog.Any("err", err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := b.Flush(ctx); err != nil {
				b.log.WarnContext(ctx, "audit flush failed", slog.Any("err", err))
			}
		}
	}
}
