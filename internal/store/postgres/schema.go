package postgres

import (
	"context"
	"fmt"
)

// schemaStatements create the persisted tables. Kept as IF NOT EXISTS so
// opening the store against an initialized database is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stations (
		id         SERIAL PRIMARY KEY,
		name       TEXT UNIQUE NOT NULL,
		lat        DOUBLE PRECISION NOT NULL,
		lon        DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS raw_readings (
		station_id    INT NOT NULL REFERENCES stations(id) ON UPDATE CASCADE ON DELETE RESTRICT,
		timestamp_utc TIMESTAMPTZ NOT NULL,
		level_db      NUMERIC(5,2) NOT NULL,
		part_of_day   TEXT NOT NULL,
		ingested_at   TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (station_id, timestamp_utc)
	)`,
	`CREATE TABLE IF NOT EXISTS hourly_levels (
		station_id       INT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		hour_start_local TIMESTAMPTZ NOT NULL,
		sample_count     INT NOT NULL,
		laeq_db          NUMERIC(6,2) NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (station_id, hour_start_local)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_levels (
		station_id    INT NOT NULL REFERENCES stations(id) ON DELETE CASCADE,
		date_local    DATE NOT NULL,
		laeq_day_db   NUMERIC(6,2) NOT NULL,
		laeq_night_db NUMERIC(6,2) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (station_id, date_local)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_readings_ts ON raw_readings (timestamp_utc)`,
	`CREATE INDEX IF NOT EXISTS idx_hourly_levels_bucket ON hourly_levels (hour_start_local)`,
}

// EnsureSchema creates the tables and indexes if absent.
func EnsureSchema(ctx context.Context, q querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", classify(err))
		}
	}
	return nil
}
