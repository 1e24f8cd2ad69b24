package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestBufferFlush_WritesPendingEvents(t *testing.T) {
	var got []Event
	b := NewBuffer(func(ctx context.Context, events []Event) error {
		got = append(got, events...)
		return nil
	}, 0, discardLogger())

	b.Record(context.Background(), Event{Action: ActionBook, Outcome: OutcomeCreated})
	b.Record(context.Background(), Event{Action: ActionBook, Outcome: OutcomeConflict})

	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if len(got) != 2 || got[1].Outcome != OutcomeConflict {
		t.Fatalf("flushed = %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
	if b.Len() != 0 {
		t.Fatalf("pending = %d, want 0", b.Len())
	}
}

func TestBufferFlush_FailureKeepsEvents(t *testing.T) {
	fail := true
	b := NewBuffer(func(ctx context.Context, events []Event) error {
		if fail {
			return errors.New("clickhouse down")
		}
		return nil
	}, 0, discardLogger())

	b.Record(context.Background(), Event{Outcome: OutcomeCreated})
	if err := b.Flush(context.Background()); err == nil {
		t.Fatalf("expected flush error")
	}
	b.Record(context.Background(), Event{Outcome: OutcomeRejected})
	if b.Len() != 2 {
		t.Fatalf("pending = %d, want 2", b.Len())
	}

	fail = false
	if err := b.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("pending = %d, want 0", b.Len())
	}
}

func TestBufferRecord_DropsBeyondLimit(t *testing.T) {
	b := NewBuffer(func(ctx context.Context, events []Event) error { return nil }, 2, discardLogger())
	for i := 0; i < 5; i++ {
		b.Record(context.Background(), Event{Outcome: OutcomeCreated})
	}
	if b.Len() != 2 {
		t.Fatalf("pending = %d, want 2", b.Len())
	}
}

func TestBufferRun_FinalFlushOnStop(t *testing.T) {
	flushed := make(chan int, 1)
	b := NewBuffer(func(ctx context.Context, events []Event) error {
		flushed <- len(events)
		return nil
	}, 0, discardLogger())
	b.Record(context.Background(), Event{Outcome: OutcomeCanceled})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case n := <-flushed:
		if n != 1 {
			t.Fatalf("flushed %d events, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("final flush did not happen")
	}
	<-done
}
