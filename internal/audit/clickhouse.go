package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS booking_audit (
    at             DateTime64(3, 'UTC'),
    action         LowCardinality(String),
    outcome        LowCardinality(String),
    reason         String,
    appointment_id UUID,
    customer_id    String,
    slot_start     DateTime64(0, 'UTC')
) ENGINE = MergeTree
ORDER BY (slot_start, at)`

const insertSQL = `INSERT INTO booking_audit (at, action, outcome, reason, appointment_id, customer_id, slot_start)`

// ClickHouse is a Buffer that flushes into the booking_audit table.
type ClickHouse struct {
	*Buffer
	conn driver.Conn
}

func NewClickHouse(ctx context.Context, dsn string, log *slog.Logger) (*ClickHouse, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	if err := conn.Exec(ctx, createTableSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create booking_audit: %w", err)
	}

	c := &ClickHouse{conn: conn}
	c.Buffer = NewBuffer(c.write, 0, log)
	return c, nil
}

func (c *ClickHouse) write(ctx context.Context, events []Event) error {
	batch, err := c.conn.PrepareBatch(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, e := range events {
		err := batch.Append(
			e.At,
			string(e.Action),
			string(e.Outcome),
			e.Reason,
			e.AppointmentID,
			e.CustomerID,
			e.SlotStart.UTC(),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append audit event: %w", err)
		}
	}
	return batch.Send()
}

func (c *ClickHouse) Close() error {
	return c.conn.Close()
}
