// Package pipeline orchestrates per-file ingestion: parse, normalize,
// merge, aggregate. Each file runs inside one store transaction; a failing
// file rolls back alone and the run continues, unless storage itself is
// gone.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/aggregate"
	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/observability"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

// State names one step of the per-file machine.
type State string

const (
	StateParsing     State = "PARSING"
	StateNormalizing State = "NORMALIZING"
	StateMerging     State = "MERGING"
	StateAggregating State = "AGGREGATING"
	StateDone        State = "DONE"
	StateSkipped     State = "SKIPPED"
	StateFailed      State = "FAILED"
)

// BookReader supplies the labelled sheets of one source file. This is the
// boundary to the excluded file-reading collaborator.
type BookReader interface {
	ReadBook(path string) ([]domain.Sheet, error)
}

// Pipeline wires the parser, the normalizer, the registry, and the store
// into the per-file ingest sequence.
type Pipeline struct {
	store   store.Store
	reader  BookReader
	agg     *aggregate.Aggregator
	logger  *slog.Logger
	metrics *observability.Metrics
	loc     *time.Location
	dryRun  bool
}

// New creates a Pipeline. The location is the fixed civil zone of the
// monitoring region.
func New(st store.Store, reader BookReader, agg *aggregate.Aggregator, logger *slog.Logger, metrics *observability.Metrics, loc *time.Location, dryRun bool) *Pipeline {
	return &Pipeline{
		store:   st,
		reader:  reader,
		agg:     agg,
		logger:  logger,
		metrics: metrics,
		loc:     loc,
		dryRun:  dryRun,
	}
}

// FileResult summarizes one file's ingestion.
type FileResult struct {
	File            string
	State           State
	HourlyParsed    int
	DayNightParsed  int
	ReadingsMerged  int
	HourlyRefreshed int
	DailyMerged     int
	Err             error
}

// RunSummary counts file outcomes across a run.
type RunSummary struct {
	Processed int
	Skipped   int
	Failed    int
}

// Run ingests the given files in order. A file failure is logged and
// counted; the run continues with the next file. Storage-connectivity
// failures abort the run.
func (p *Pipeline) Run(ctx context.Context, files []string) (RunSummary, error) {
	var sum RunSummary
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		res := p.processFile(ctx, f)
		switch res.State {
		case StateDone:
			sum.Processed++
			p.metrics.FilesProcessed.Inc()
			p.logger.Info("file ingested",
				"file", res.File,
				"hourly_parsed", res.HourlyParsed,
				"day_night_parsed", res.DayNightParsed,
				"readings_merged", res.ReadingsMerged,
				"hourly_refreshed", res.HourlyRefreshed,
				"daily_merged", res.DailyMerged,
			)
		case StateSkipped:
			sum.Skipped++
			p.metrics.FilesSkipped.Inc()
			p.logger.Info("file skipped, no records", "file", res.File)
		case StateFailed:
			sum.Failed++
			p.metrics.FilesFailed.Inc()
			p.logger.Error("file failed", "file", res.File, "error", res.Err)
			if errors.Is(res.Err, store.ErrUnavailable) {
				return sum, fmt.Errorf("file %s: %w", res.File, res.Err)
			}
		}
	}
	return sum, nil
}

// ProcessFile ingests a single file and reports its outcome. Exposed for
// callers that manage their own file loop.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) FileResult {
	return p.processFile(ctx, path)
}

func (p *Pipeline) processFile(ctx context.Context, path string) FileResult {
	res := FileResult{File: path, State: StateParsing}
	start := time.Now()

	sheets, err := p.reader.ReadBook(path)
	if err != nil {
		res.State = StateFailed
		res.Err = fmt.Errorf("read book: %w", err)
		return res
	}

	var hourly []domain.HourlyReading
	var dayNight []domain.DayNightReading
	for _, sh := range sheets {
		h, dn, stats := domain.ParseSheet(sh.Grid, sh.Label)
		p.metrics.SheetsParsed.Inc()
		p.metrics.RowsDropped.WithLabelValues("bad_date").Add(float64(stats.RowsBadDate))
		p.metrics.RowsDropped.WithLabelValues("bad_number").Add(float64(stats.CellsBadNumber))
		p.metrics.RowsDropped.WithLabelValues("bad_day_night").Add(float64(stats.DayNightBadRows))
		if !stats.HeaderFound {
			p.logger.Warn("sheet has no header marker, skipping", "file", path, "sheet", sh.Label)
			continue
		}
		p.logger.Debug("sheet parsed",
			"file", path,
			"sheet", sh.Label,
			"hourly", len(h),
			"day_night", len(dn),
			"rows_bad_date", stats.RowsBadDate,
			"cells_bad_number", stats.CellsBadNumber,
		)
		hourly = append(hourly, h...)
		dayNight = append(dayNight, dn...)
	}

	res.HourlyParsed = len(hourly)
	res.DayNightParsed = len(dayNight)
	if len(hourly) == 0 && len(dayNight) == 0 {
		res.State = StateSkipped
		return res
	}

	res.State = StateNormalizing
	names := domain.StationNames(hourly, dayNight)

	if p.dryRun {
		p.logger.Info("dry-run: skipping writes",
			"file", path,
			"stations", len(names),
			"hourly_parsed", res.HourlyParsed,
			"day_night_parsed", res.DayNightParsed,
		)
		res.State = StateDone
		return res
	}

	res.State = StateMerging
	err = p.store.WithinTx(ctx, func(tx store.Tx) error {
		return p.ingestTx(ctx, tx, &res, names, hourly, dayNight)
	})
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return res
	}

	p.metrics.ReadingsMerged.Add(float64(res.ReadingsMerged))
	p.metrics.HourlyRefreshed.Add(float64(res.HourlyRefreshed))
	p.metrics.DailyMerged.Add(float64(res.DailyMerged))
	p.metrics.FileDuration.Observe(time.Since(start).Seconds())
	res.State = StateDone
	return res
}

// ingestTx performs the write half of one file inside its transaction:
// registry upsert, raw merge, hourly refresh, daily merge.
func (p *Pipeline) ingestTx(ctx context.Context, tx store.Tx, res *FileResult, names []string, hourly []domain.HourlyReading, dayNight []domain.DayNightReading) error {
	stations := make([]domain.Station, 0, len(names))
	for _, n := range names {
		stations = append(stations, domain.PlaceholderStation(n))
	}
	if err := tx.UpsertStations(ctx, stations); err != nil {
		return fmt.Errorf("upsert stations: %w", err)
	}

	ids, err := tx.StationIDs(ctx, names)
	if err != nil {
		return fmt.Errorf("resolve station ids: %w", err)
	}

	readings, err := p.normalize(hourly, names, ids)
	if err != nil {
		return err
	}
	if err := tx.MergeRawReadings(ctx, readings); err != nil {
		return fmt.Errorf("merge raw readings: %w", err)
	}
	res.ReadingsMerged = len(readings)

	res.State = StateAggregating
	if len(readings) > 0 {
		levels, err := p.agg.RefreshHourly(ctx, tx, readingsWindow(readings))
		if err != nil {
			return err
		}
		res.HourlyRefreshed = len(levels)
	}

	supplied, err := p.suppliedDaily(dayNight, ids)
	if err != nil {
		return err
	}
	if err := tx.MergeDailyLevels(ctx, supplied); err != nil {
		return fmt.Errorf("merge daily levels: %w", err)
	}
	res.DailyMerged = len(supplied)

	if len(readings) > 0 {
		derived, err := p.deriveDaily(ctx, tx, readings)
		if err != nil {
			return err
		}
		if err := tx.InsertMissingDailyLevels(ctx, derived); err != nil {
			return fmt.Errorf("insert derived daily levels: %w", err)
		}
		res.DailyMerged += len(derived)
	}
	return nil
}

// normalize resolves station names and converts local readings to canonical
// UTC records.
func (p *Pipeline) normalize(hourly []domain.HourlyReading, names []string, ids map[string]int32) ([]domain.RawReading, error) {
	byStation := make(map[string][]domain.HourlyReading)
	for _, r := range hourly {
		name := domain.CleanStationName(r.Station)
		byStation[name] = append(byStation[name], r)
	}

	var readings []domain.RawReading
	for _, name := range names {
		rs := byStation[name]
		if len(rs) == 0 {
			continue
		}
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("station %q missing after upsert: %w", name, store.ErrConflict)
		}
		readings = append(readings, domain.NormalizeReadings(rs, id, p.loc)...)
	}
	return readings, nil
}

// suppliedDaily converts sheet day/night pairs into daily level rows.
func (p *Pipeline) suppliedDaily(dayNight []domain.DayNightReading, ids map[string]int32) ([]domain.DailyLevel, error) {
	levels := make([]domain.DailyLevel, 0, len(dayNight))
	for _, dn := range dayNight {
		name := domain.CleanStationName(dn.Station)
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("station %q missing after upsert: %w", name, store.ErrConflict)
		}
		levels = append(levels, domain.DailyLevel{
			StationID:   id,
			DateLocal:   dn.Date,
			LAeqDayDB:   dn.LAeqDay,
			LAeqNightDB: dn.LAeqNight,
		})
	}
	return levels, nil
}

// deriveDaily fills daily levels for the local dates this file's readings
// touch, from all hourly levels of those dates. Spreadsheet-supplied rows
// stay untouched: the caller inserts these only where the key is missing.
func (p *Pipeline) deriveDaily(ctx context.Context, tx store.Tx, readings []domain.RawReading) ([]domain.DailyLevel, error) {
	levels, err := tx.FetchHourlyLevels(ctx, p.localDateSpan(readings))
	if err != nil {
		return nil, fmt.Errorf("fetch hourly levels: %w", err)
	}
	return p.agg.DeriveDaily(levels), nil
}

// readingsWindow bounds the hourly refresh to the file's own readings.
func readingsWindow(readings []domain.RawReading) store.Window {
	minTS, maxTS := readings[0].TimestampUTC, readings[0].TimestampUTC
	for _, r := range readings[1:] {
		if r.TimestampUTC.Before(minTS) {
			minTS = r.TimestampUTC
		}
		if r.TimestampUTC.After(maxTS) {
			maxTS = r.TimestampUTC
		}
	}
	to := maxTS.Add(time.Hour)
	return store.Window{From: &minTS, To: &to}
}

// localDateSpan widens the readings window to whole local civil days, so
// daily derivation sees every hour of each touched date.
func (p *Pipeline) localDateSpan(readings []domain.RawReading) store.Window {
	first := readings[0].TimestampUTC.In(p.loc)
	minDay := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, p.loc)
	maxDay := minDay
	for _, r := range readings[1:] {
		local := r.TimestampUTC.In(p.loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.loc)
		if day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
	}
	from := minDay.UTC()
	to := maxDay.Add(24 * time.Hour).UTC()
	return store.Window{From: &from, To: &to}
}
