// Package aggregate recomputes derived acoustic levels from raw readings.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

// Aggregator folds raw readings into hourly and daily equivalent levels.
// The location is the fixed civil zone the buckets are defined in.
type Aggregator struct {
	loc *time.Location
}

func New(loc *time.Location) *Aggregator {
	return &Aggregator{loc: loc}
}

// RefreshHourly recomputes hourly levels for every (station, local hour
// bucket) with at least one raw reading in the window and merges them into
// the store. An unbounded window is a full refresh: expensive but always
// correct. Returns the merged levels.
func (a *Aggregator) RefreshHourly(ctx context.Context, tx store.Tx, w store.Window) ([]domain.HourlyLevel, error) {
	readings, err := tx.FetchRawReadings(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("refresh hourly: fetch readings: %w", err)
	}

	levels := a.hourlyFromReadings(readings)
	if err := tx.MergeHourlyLevels(ctx, levels); err != nil {
		return nil, fmt.Errorf("refresh hourly: merge: %w", err)
	}
	return levels, nil
}

func (a *Aggregator) hourlyFromReadings(readings []domain.RawReading) []domain.HourlyLevel {
	type bucket struct {
		station int32
		start   time.Time
	}
	samples := make(map[bucket][]float64)
	order := make([]bucket, 0)

	for _, r := range readings {
		local := r.TimestampUTC.In(a.loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, a.loc)
		b := bucket{r.StationID, start}
		if _, ok := samples[b]; !ok {
			order = append(order, b)
		}
		samples[b] = append(samples[b], r.LevelDB)
	}

	levels := make([]domain.HourlyLevel, 0, len(order))
	for _, b := range order {
		vals := samples[b]
		levels = append(levels, domain.HourlyLevel{
			StationID:      b.station,
			HourStartLocal: b.start,
			SampleCount:    len(vals),
			LAeqDB:         domain.Round2(domain.EnergyAverage(vals)),
		})
	}
	return levels
}

// DeriveDaily energy-averages hourly levels into day-window (hours 7-21)
// and night-window pairs per (station, local date). Dates missing samples
// in either window are skipped: a pair with an empty side would not be a
// usable daily level.
func (a *Aggregator) DeriveDaily(levels []domain.HourlyLevel) []domain.DailyLevel {
	type key struct {
		station int32
		date    time.Time
	}
	type windows struct {
		day   []float64
		night []float64
	}
	grouped := make(map[key]*windows)
	order := make([]key, 0)

	for _, l := range levels {
		local := l.HourStartLocal.In(a.loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
		k := key{l.StationID, date}
		w, ok := grouped[k]
		if !ok {
			w = &windows{}
			grouped[k] = w
			order = append(order, k)
		}
		// Bucket start hour H holds the reading labelled H+1.
		if domain.ClassifyHour(local.Hour()+1) == domain.PartDay {
			w.day = append(w.day, l.LAeqDB)
		} else {
			w.night = append(w.night, l.LAeqDB)
		}
	}

	daily := make([]domain.DailyLevel, 0, len(order))
	for _, k := range order {
		w := grouped[k]
		if len(w.day) == 0 || len(w.night) == 0 {
			continue
		}
		daily = append(daily, domain.DailyLevel{
			StationID:   k.station,
			DateLocal:   k.date,
			LAeqDayDB:   domain.Round2(domain.EnergyAverage(w.day)),
			LAeqNightDB: domain.Round2(domain.EnergyAverage(w.night)),
		})
	}
	return daily
}
