package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; Migrate runs it on every start.
const schema = `
CREATE TABLE IF NOT EXISTS gcal_state (
	calendar_id TEXT PRIMARY KEY,
	field_map   JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS service (
	code        TEXT PRIMARY KEY,
	price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
);

CREATE TABLE IF NOT EXISTS bookings (
	id              UUID PRIMARY KEY,
	google_event_id TEXT NOT NULL UNIQUE,
	calendar_id     TEXT NOT NULL,
	first_name      TEXT,
	last_name       TEXT,
	email           TEXT,
	mobile          TEXT,
	mobile_e164     TEXT,
	service_code    TEXT,
	price_cents     BIGINT,
	pickup          TEXT,
	start_time      TIMESTAMPTZ NOT NULL,
	end_time        TIMESTAMPTZ NOT NULL,
	title           TEXT,
	is_booking      BOOLEAN NOT NULL DEFAULT false,
	is_paid         BOOLEAN NOT NULL DEFAULT false,
	extended        JSONB,
	status          TEXT NOT NULL DEFAULT 'confirmed',
	cancelled_at    TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS bookings_calendar_start_idx ON bookings (calendar_id, start_time);

CREATE TABLE IF NOT EXISTS gcal_sync_log (
	id              UUID PRIMARY KEY,
	calendar_id     TEXT NOT NULL,
	status          TEXT NOT NULL,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ NOT NULL,
	synced_count    INTEGER NOT NULL DEFAULT 0,
	cancelled_count INTEGER NOT NULL DEFAULT 0,
	skipped_count   INTEGER NOT NULL DEFAULT 0,
	message         TEXT
);
`

// Migrate creates any missing tables.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
