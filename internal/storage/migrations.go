package storage

import (
	"context"

	"github.com/Guyeche/Romki-Barber-App-V2/libs/db"
)

// The UNIQUE (date, time) constraint is the authority for double-booking:
// the application never relies on a prior read to decide a slot is free.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL,
	email TEXT NOT NULL,
	service TEXT NOT NULL DEFAULT '',
	date DATE NOT NULL,
	time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'confirmed',
	calendar_event_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (date, time)
);

CREATE TABLE IF NOT EXISTS work_schedule (
	day_of_week SMALLINT PRIMARY KEY CHECK (day_of_week BETWEEN 0 AND 6),
	start_time TEXT NOT NULL DEFAULT '09:00',
	end_time TEXT NOT NULL DEFAULT '17:00',
	is_active BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS blocked_days (
	date DATE PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS app_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_owner
	ON appointments (lower(customer_name), lower(email), date);
`

func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
