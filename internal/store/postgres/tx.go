package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

// pgTx adapts one pgx transaction to store.Tx.
type pgTx struct {
	q   querier
	loc *time.Location
}

var _ store.Tx = (*pgTx)(nil)

const upsertStationSQL = `
	INSERT INTO stations (name, lat, lon)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO NOTHING`

func (t *pgTx) UpsertStations(ctx context.Context, stations []domain.Station) error {
	if len(stations) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range stations {
		batch.Queue(upsertStationSQL, s.Name, s.Lat, s.Lon)
	}
	return drainBatch(t.q.SendBatch(ctx, batch), len(stations))
}

func (t *pgTx) StationIDs(ctx context.Context, names []string) (map[string]int32, error) {
	ids := make(map[string]int32, len(names))
	if len(names) == 0 {
		return ids, nil
	}
	rows, err := t.q.Query(ctx, `SELECT id, name FROM stations WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int32
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}

const mergeRawReadingSQL = `
	INSERT INTO raw_readings (station_id, timestamp_utc, level_db, part_of_day, ingested_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (station_id, timestamp_utc) DO UPDATE
	SET level_db = EXCLUDED.level_db,
	    part_of_day = EXCLUDED.part_of_day,
	    ingested_at = EXCLUDED.ingested_at`

func (t *pgTx) MergeRawReadings(ctx context.Context, readings []domain.RawReading) error {
	if len(readings) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range readings {
		batch.Queue(mergeRawReadingSQL, r.StationID, r.TimestampUTC, r.LevelDB, string(r.PartOfDay), r.IngestedAt)
	}
	return drainBatch(t.q.SendBatch(ctx, batch), len(readings))
}

const mergeHourlyLevelSQL = `
	INSERT INTO hourly_levels (station_id, hour_start_local, sample_count, laeq_db)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (station_id, hour_start_local) DO UPDATE
	SET sample_count = EXCLUDED.sample_count,
	    laeq_db = EXCLUDED.laeq_db,
	    updated_at = now()`

func (t *pgTx) MergeHourlyLevels(ctx context.Context, levels []domain.HourlyLevel) error {
	if len(levels) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(mergeHourlyLevelSQL, l.StationID, l.HourStartLocal.UTC(), l.SampleCount, l.LAeqDB)
	}
	return drainBatch(t.q.SendBatch(ctx, batch), len(levels))
}

const mergeDailyLevelSQL = `
	INSERT INTO daily_levels (station_id, date_local, laeq_day_db, laeq_night_db)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (station_id, date_local) DO UPDATE
	SET laeq_day_db = EXCLUDED.laeq_day_db,
	    laeq_night_db = EXCLUDED.laeq_night_db,
	    updated_at = now()`

const insertDailyLevelSQL = `
	INSERT INTO daily_levels (station_id, date_local, laeq_day_db, laeq_night_db)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (station_id, date_local) DO NOTHING`

func (t *pgTx) MergeDailyLevels(ctx context.Context, levels []domain.DailyLevel) error {
	return t.writeDailyLevels(ctx, levels, mergeDailyLevelSQL)
}

func (t *pgTx) InsertMissingDailyLevels(ctx context.Context, levels []domain.DailyLevel) error {
	return t.writeDailyLevels(ctx, levels, insertDailyLevelSQL)
}

func (t *pgTx) writeDailyLevels(ctx context.Context, levels []domain.DailyLevel, sql string) error {
	if len(levels) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(sql, l.StationID, l.DateLocal, l.LAeqDayDB, l.LAeqNightDB)
	}
	return drainBatch(t.q.SendBatch(ctx, batch), len(levels))
}

const fetchRawReadingsSQL = `
	SELECT station_id, timestamp_utc, level_db, part_of_day, ingested_at
	FROM raw_readings
	WHERE ($1::timestamptz IS NULL OR timestamp_utc >= $1)
	  AND ($2::timestamptz IS NULL OR timestamp_utc < $2)
	ORDER BY station_id, timestamp_utc`

func (t *pgTx) FetchRawReadings(ctx context.Context, w store.Window) ([]domain.RawReading, error) {
	rows, err := t.q.Query(ctx, fetchRawReadingsSQL, w.From, w.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRawReadings(rows)
}

const fetchHourlyLevelsSQL = `
	SELECT station_id, hour_start_local, sample_count, laeq_db
	FROM hourly_levels
	WHERE ($1::timestamptz IS NULL OR hour_start_local >= $1)
	  AND ($2::timestamptz IS NULL OR hour_start_local < $2)
	ORDER BY station_id, hour_start_local`

func (t *pgTx) FetchHourlyLevels(ctx context.Context, w store.Window) ([]domain.HourlyLevel, error) {
	rows, err := t.q.Query(ctx, fetchHourlyLevelsSQL, w.From, w.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHourlyLevels(rows, t.loc)
}

func scanRawReadings(rows pgx.Rows) ([]domain.RawReading, error) {
	readings := make([]domain.RawReading, 0)
	for rows.Next() {
		var r domain.RawReading
		var part string
		if err := rows.Scan(&r.StationID, &r.TimestampUTC, &r.LevelDB, &part, &r.IngestedAt); err != nil {
			return nil, err
		}
		r.TimestampUTC = r.TimestampUTC.UTC()
		r.PartOfDay = domain.PartOfDay(part)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// scanHourlyLevels rehydrates bucket keys into the store's civil zone so
// callers see local hour starts.
func scanHourlyLevels(rows pgx.Rows, loc *time.Location) ([]domain.HourlyLevel, error) {
	levels := make([]domain.HourlyLevel, 0)
	for rows.Next() {
		var l domain.HourlyLevel
		if err := rows.Scan(&l.StationID, &l.HourStartLocal, &l.SampleCount, &l.LAeqDB); err != nil {
			return nil, err
		}
		l.HourStartLocal = l.HourStartLocal.In(loc)
		levels = append(levels, l)
	}
	return levels, rows.Err()
}
