// Package memory is an in-process store.Store used by tests and dry runs.
// WithinTx operates on a deep copy of the state and swaps it in only on
// success, giving the same all-or-nothing semantics as the durable store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

type rawKey struct {
	station int32
	ts      time.Time
}

type bucketKey struct {
	station int32
	bucket  time.Time
}

type dateKey struct {
	station int32
	date    time.Time
}

type state struct {
	nextID   int32
	stations map[string]domain.Station
	raw      map[rawKey]domain.RawReading
	hourly   map[bucketKey]domain.HourlyLevel
	daily    map[dateKey]domain.DailyLevel
}

func newState() *state {
	return &state{
		nextID:   1,
		stations: make(map[string]domain.Station),
		raw:      make(map[rawKey]domain.RawReading),
		hourly:   make(map[bucketKey]domain.HourlyLevel),
		daily:    make(map[dateKey]domain.DailyLevel),
	}
}

func (st *state) clone() *state {
	c := newState()
	c.nextID = st.nextID
	for k, v := range st.stations {
		c.stations[k] = v
	}
	for k, v := range st.raw {
		c.raw[k] = v
	}
	for k, v := range st.hourly {
		c.hourly[k] = v
	}
	for k, v := range st.daily {
		c.daily[k] = v
	}
	return c
}

// Store holds everything in maps keyed by the natural keys.
type Store struct {
	mu   sync.Mutex
	data *state

	// FailNext, when set, makes the next transaction fail with this error
	// after applying nothing. Lets tests exercise rollback paths.
	FailNext error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func (s *Store) WithinTx(_ context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNext; err != nil {
		s.FailNext = nil
		return err
	}

	staged := s.data.clone()
	if err := fn(&tx{state: staged}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

type tx struct {
	state *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) UpsertStations(_ context.Context, stations []domain.Station) error {
	for _, st := range stations {
		if _, ok := t.state.stations[st.Name]; ok {
			continue
		}
		st.ID = t.state.nextID
		t.state.nextID++
		t.state.stations[st.Name] = st
	}
	return nil
}

func (t *tx) StationIDs(_ context.Context, names []string) (map[string]int32, error) {
	ids := make(map[string]int32, len(names))
	for _, n := range names {
		if st, ok := t.state.stations[n]; ok {
			ids[n] = st.ID
		}
	}
	return ids, nil
}

func (t *tx) MergeRawReadings(_ context.Context, readings []domain.RawReading) error {
	for _, r := range readings {
		if !t.stationExists(r.StationID) {
			return store.ErrConflict
		}
		t.state.raw[rawKey{r.StationID, r.TimestampUTC}] = r
	}
	return nil
}

func (t *tx) MergeHourlyLevels(_ context.Context, levels []domain.HourlyLevel) error {
	for _, l := range levels {
		t.state.hourly[bucketKey{l.StationID, l.HourStartLocal.UTC()}] = l
	}
	return nil
}

func (t *tx) MergeDailyLevels(_ context.Context, levels []domain.DailyLevel) error {
	for _, l := range levels {
		t.state.daily[dateKey{l.StationID, l.DateLocal}] = l
	}
	return nil
}

func (t *tx) InsertMissingDailyLevels(_ context.Context, levels []domain.DailyLevel) error {
	for _, l := range levels {
		k := dateKey{l.StationID, l.DateLocal}
		if _, ok := t.state.daily[k]; ok {
			continue
		}
		t.state.daily[k] = l
	}
	return nil
}

func (t *tx) FetchRawReadings(_ context.Context, w store.Window) ([]domain.RawReading, error) {
	out := make([]domain.RawReading, 0)
	for _, r := range t.state.raw {
		if w.Contains(r.TimestampUTC) {
			out = append(out, r)
		}
	}
	sortReadings(out)
	return out, nil
}

func (t *tx) FetchHourlyLevels(_ context.Context, w store.Window) ([]domain.HourlyLevel, error) {
	out := make([]domain.HourlyLevel, 0)
	for _, l := range t.state.hourly {
		if w.Contains(l.HourStartLocal.UTC()) {
			out = append(out, l)
		}
	}
	sortLevels(out)
	return out, nil
}

func (t *tx) stationExists(id int32) bool {
	for _, st := range t.state.stations {
		if st.ID == id {
			return true
		}
	}
	return false
}

// --- read-only queries ---

func (s *Store) ListStations(context.Context) ([]domain.Station, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Station, 0, len(s.data.stations))
	for _, st := range s.data.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) RawReadingsByStation(_ context.Context, stationID int32) ([]domain.RawReading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RawReading, 0)
	for _, r := range s.data.raw {
		if r.StationID == stationID {
			out = append(out, r)
		}
	}
	sortReadings(out)
	return out, nil
}

func (s *Store) HourlyLevelsByStation(_ context.Context, stationID int32) ([]domain.HourlyLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.HourlyLevel, 0)
	for _, l := range s.data.hourly {
		if l.StationID == stationID {
			out = append(out, l)
		}
	}
	sortLevels(out)
	return out, nil
}

func (s *Store) DailyLevelsByStation(_ context.Context, stationID int32) ([]domain.DailyLevel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.DailyLevel, 0)
	for _, l := range s.data.daily {
		if l.StationID == stationID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateLocal.Before(out[j].DateLocal) })
	return out, nil
}

func (s *Store) FindPeaks(_ context.Context, f store.PeakFilter) ([]domain.PeakRecord, []domain.PeakRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	levels := make([]domain.HourlyLevel, 0)
	for _, l := range s.data.hourly {
		if f.StationID != nil && l.StationID != *f.StationID {
			continue
		}
		date := time.Date(l.HourStartLocal.Year(), l.HourStartLocal.Month(), l.HourStartLocal.Day(), 0, 0, 0, 0, time.UTC)
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && !date.Before(*f.DateTo) {
			continue
		}
		levels = append(levels, l)
	}
	return domain.FindDayPeaks(levels), domain.FindGlobalPeaks(levels), nil
}

func sortReadings(readings []domain.RawReading) {
	sort.Slice(readings, func(i, j int) bool {
		if readings[i].StationID != readings[j].StationID {
			return readings[i].StationID < readings[j].StationID
		}
		return readings[i].TimestampUTC.Before(readings[j].TimestampUTC)
	})
}

func sortLevels(levels []domain.HourlyLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].StationID != levels[j].StationID {
			return levels[i].StationID < levels[j].StationID
		}
		return levels[i].HourStartLocal.Before(levels[j].HourStartLocal)
	})
}
