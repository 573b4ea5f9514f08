// Command genmock generates mock monitoring spreadsheets as CSV sheet
// exports for the ETL test suites. It round-trips each generated sheet
// through the actual domain parser so fixtures always match real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -stations 3 -days 7 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
)

var baseDate = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

var stationNames = []string{
	"도심측정소",
	"강변측정소",
	"공단측정소",
	"주거지역측정소",
	"공항인근측정소",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for generated CSV sheets")
	stations := flag.Int("stations", 3, "number of stations to generate")
	days := flag.Int("days", 7, "number of days per station")
	seed := flag.Int64("seed", 42, "random seed for reproducible fixtures")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *stations < 1 || *stations > len(stationNames) {
		return fmt.Errorf("-stations must be between 1 and %d", len(stationNames))
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	totalHourly := 0
	totalDayNight := 0
	for i := 0; i < *stations; i++ {
		name := stationNames[i]
		grid := generateSheet(rng, name, *days)

		// Validate through the real parser before writing anything.
		hourly, dayNight, stats := domain.ParseSheet(grid, name)
		if !stats.HeaderFound {
			return fmt.Errorf("station %s: generated sheet has no header row", name)
		}
		if len(hourly) == 0 {
			return fmt.Errorf("station %s: generated sheet parses to zero readings", name)
		}
		totalHourly += len(hourly)
		totalDayNight += len(dayNight)

		path := filepath.Join(*out, fmt.Sprintf("%s(시간별).csv", name))
		if err := writeCSV(path, grid); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("%s: %d hourly, %d day/night rows -> %s", name, len(hourly), len(dayNight), path)
	}

	log.Printf("total: %d hourly readings, %d day/night rows", totalHourly, totalDayNight)
	return nil
}

// generateSheet builds a grid shaped like the real exports: banner rows, a
// header row with the date marker and hour columns 1..24 plus day/night
// summary columns, then one data row per day. A few cells are left blank to
// exercise gap handling.
func generateSheet(rng *rand.Rand, station string, days int) [][]domain.Cell {
	grid := [][]domain.Cell{
		{domain.TextCell("소음 측정 자료")},
		{domain.TextCell(station), domain.BlankCell()},
		{},
	}

	header := []domain.Cell{domain.TextCell("측정일시")}
	for h := 1; h <= 24; h++ {
		header = append(header, domain.NumberCell(float64(h)))
	}
	header = append(header, domain.TextCell("낮"), domain.TextCell("밤"))
	grid = append(grid, header)

	base := 45.0 + rng.Float64()*15.0 // station-specific baseline in dB
	for d := 0; d < days; d++ {
		date := baseDate.AddDate(0, 0, d)
		row := []domain.Cell{domain.DateCell(date)}

		var dayLevels, nightLevels []float64
		for h := 1; h <= 24; h++ {
			if rng.Float64() < 0.03 {
				row = append(row, domain.BlankCell())
				continue
			}
			level := hourLevel(rng, base, h)
			row = append(row, domain.NumberCell(level))
			if domain.ClassifyHour(h) == domain.PartDay {
				dayLevels = append(dayLevels, level)
			} else {
				nightLevels = append(nightLevels, level)
			}
		}
		row = append(row,
			domain.NumberCell(domain.Round2(domain.EnergyAverage(dayLevels))),
			domain.NumberCell(domain.Round2(domain.EnergyAverage(nightLevels))),
		)
		grid = append(grid, row)
	}
	return grid
}

// hourLevel shapes a plausible diurnal noise curve: quiet nights, a morning
// ramp, a broad daytime plateau.
func hourLevel(rng *rand.Rand, base float64, hour int) float64 {
	diurnal := 8.0 * math.Sin(math.Pi*float64(hour-5)/18.0)
	if diurnal < 0 {
		diurnal = 0
	}
	noise := rng.NormFloat64() * 1.5
	return domain.Round2(base + diurnal + noise)
}

func writeCSV(path string, grid [][]domain.Cell) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range grid {
		rec := make([]string, 0, len(row))
		for _, c := range row {
			rec = append(rec, cellString(c))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func cellString(c domain.Cell) string {
	switch c.Kind {
	case domain.CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case domain.CellDate:
		return c.Date.Format("2006-01-02")
	case domain.CellText:
		return c.Text
	default:
		return ""
	}
}
