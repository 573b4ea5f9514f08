// Package store defines the persistence contract for the noise time-series:
// a registry of stations plus raw, hourly, and daily level tables with
// idempotent merge-on-conflict writes. The postgres subpackage is the
// durable implementation; the memory subpackage backs tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
)

var (
	// ErrUnavailable marks storage connectivity failures. Fatal to the whole
	// run: the pipeline stops instead of failing every remaining file.
	ErrUnavailable = errors.New("store unavailable")

	// ErrConflict marks a merge the store rejected (for example a reading
	// referencing an unknown station). Fatal to the current file only.
	ErrConflict = errors.New("store conflict")
)

// Window bounds a query on UTC instants. Nil endpoints are unbounded; the
// upper bound is exclusive.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

// PeakFilter restricts peak queries to a station and/or local date range.
// The date upper bound is exclusive, matching Window.
type PeakFilter struct {
	StationID *int32
	DateFrom  *time.Time
	DateTo    *time.Time
}

// Tx is the write surface available inside one file's transaction. Every
// merge is set-based and idempotent: applying the same batch twice leaves
// the same final state.
type Tx interface {
	// UpsertStations inserts stations not yet present, by unique name.
	// Existing rows are untouched (first-write-wins on location).
	UpsertStations(ctx context.Context, stations []domain.Station) error

	// StationIDs resolves names to identifiers. Names missing from the
	// registry are absent from the result.
	StationIDs(ctx context.Context, names []string) (map[string]int32, error)

	// MergeRawReadings inserts or overwrites readings keyed by
	// (station_id, timestamp_utc).
	MergeRawReadings(ctx context.Context, readings []domain.RawReading) error

	// MergeHourlyLevels inserts or overwrites derived hourly levels keyed by
	// (station_id, hour_start_local).
	MergeHourlyLevels(ctx context.Context, levels []domain.HourlyLevel) error

	// MergeDailyLevels inserts or overwrites daily levels keyed by
	// (station_id, date_local). Used for spreadsheet-supplied day/night
	// pairs, which always win over derived values.
	MergeDailyLevels(ctx context.Context, levels []domain.DailyLevel) error

	// InsertMissingDailyLevels inserts daily levels only where no row exists
	// for the key, leaving supplied values untouched. Used for values
	// derived from hourly levels.
	InsertMissingDailyLevels(ctx context.Context, levels []domain.DailyLevel) error

	// FetchRawReadings returns readings whose UTC timestamp falls in the
	// window, ordered by station then time.
	FetchRawReadings(ctx context.Context, w Window) ([]domain.RawReading, error)

	// FetchHourlyLevels returns hourly levels whose local bucket start falls
	// in the window, ordered by station then bucket.
	FetchHourlyLevels(ctx context.Context, w Window) ([]domain.HourlyLevel, error)
}

// Store is the handle owned by the run: explicit lifecycle, no hidden
// process-wide state. WithinTx gives each file all-or-nothing semantics.
type Store interface {
	// WithinTx runs fn inside one transaction, committing on nil and rolling
	// back entirely on error.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies connectivity, for readiness checks.
	Ping(ctx context.Context) error

	Close()

	Reader
}

// Reader is the read-only query surface consumed by the reporting and
// mapping collaborators.
type Reader interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	RawReadingsByStation(ctx context.Context, stationID int32) ([]domain.RawReading, error)
	HourlyLevelsByStation(ctx context.Context, stationID int32) ([]domain.HourlyLevel, error)
	DailyLevelsByStation(ctx context.Context, stationID int32) ([]domain.DailyLevel, error)

	// FindPeaks returns per-day and global peak records within the filter,
	// both ordered by station then date then hour.
	FindPeaks(ctx context.Context, f PeakFilter) (day, global []domain.PeakRecord, err error)
}
