package postgres

import (
	"context"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

const listStationsSQL = `
	SELECT id, name, lat, lon
	FROM stations
	ORDER BY id`

func (s *Store) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.pool.Query(ctx, listStationsSQL)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	stations := make([]domain.Station, 0)
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Lat, &st.Lon); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

const readingsByStationSQL = `
	SELECT station_id, timestamp_utc, level_db, part_of_day, ingested_at
	FROM raw_readings
	WHERE station_id = $1
	ORDER BY timestamp_utc`

func (s *Store) RawReadingsByStation(ctx context.Context, stationID int32) ([]domain.RawReading, error) {
	rows, err := s.pool.Query(ctx, readingsByStationSQL, stationID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanRawReadings(rows)
}

const hourlyByStationSQL = `
	SELECT station_id, hour_start_local, sample_count, laeq_db
	FROM hourly_levels
	WHERE station_id = $1
	ORDER BY hour_start_local`

func (s *Store) HourlyLevelsByStation(ctx context.Context, stationID int32) ([]domain.HourlyLevel, error) {
	rows, err := s.pool.Query(ctx, hourlyByStationSQL, stationID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanHourlyLevels(rows, s.loc)
}

const dailyByStationSQL = `
	SELECT station_id, date_local, laeq_day_db, laeq_night_db
	FROM daily_levels
	WHERE station_id = $1
	ORDER BY date_local`

func (s *Store) DailyLevelsByStation(ctx context.Context, stationID int32) ([]domain.DailyLevel, error) {
	rows, err := s.pool.Query(ctx, dailyByStationSQL, stationID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	levels := make([]domain.DailyLevel, 0)
	for rows.Next() {
		var l domain.DailyLevel
		if err := rows.Scan(&l.StationID, &l.DateLocal, &l.LAeqDayDB, &l.LAeqNightDB); err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

const peakLevelsSQL = `
	SELECT station_id, hour_start_local, sample_count, laeq_db
	FROM hourly_levels
	WHERE ($1::int IS NULL OR station_id = $1)
	  AND ($2::timestamptz IS NULL OR hour_start_local >= $2)
	  AND ($3::timestamptz IS NULL OR hour_start_local < $3)
	ORDER BY station_id, hour_start_local`

// FindPeaks loads the filtered hourly levels and applies the deterministic
// arg-max selection in the domain package, so the comparator lives in
// exactly one place.
func (s *Store) FindPeaks(ctx context.Context, f store.PeakFilter) ([]domain.PeakRecord, []domain.PeakRecord, error) {
	var from, to *time.Time
	if f.DateFrom != nil {
		t := localDateStart(*f.DateFrom, s.loc)
		from = &t
	}
	if f.DateTo != nil {
		t := localDateStart(*f.DateTo, s.loc)
		to = &t
	}

	rows, err := s.pool.Query(ctx, peakLevelsSQL, f.StationID, from, to)
	if err != nil {
		return nil, nil, classify(err)
	}
	defer rows.Close()

	levels, err := scanHourlyLevels(rows, s.loc)
	if err != nil {
		return nil, nil, err
	}
	return domain.FindDayPeaks(levels), domain.FindGlobalPeaks(levels), nil
}
