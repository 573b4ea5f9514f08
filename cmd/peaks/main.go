// Command peaks queries the ingested hourly levels and reports the loudest
// hour per station per day plus each station's all-time loudest hour.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/peaks \
//	  -station 3 -from 2024-03-01 -to 2024-03-08
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/noise-data-etl/internal/config"
	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
	"github.com/couchcryptid/noise-data-etl/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "peaks: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	station := flag.Int("station", 0, "restrict to one station id (0 = all)")
	from := flag.String("from", "", "start date, inclusive (YYYY-MM-DD)")
	to := flag.String("to", "", "end date, exclusive (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	loc := domain.FixedZone(cfg.LocalUTCOffset)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := postgres.Open(ctx, cfg.DatabaseURL, loc)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	filter, err := buildFilter(*station, *from, *to)
	if err != nil {
		return err
	}

	day, global, err := st.FindPeaks(ctx, filter)
	if err != nil {
		return fmt.Errorf("find peaks: %w", err)
	}

	stations, err := st.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("list stations: %w", err)
	}
	names := make(map[int32]string, len(stations))
	for _, s := range stations {
		names[s.ID] = s.Name
	}

	printPeaks("Daily peaks", day, names)
	fmt.Println()
	printPeaks("All-time peaks", global, names)
	return nil
}

func buildFilter(station int, from, to string) (store.PeakFilter, error) {
	var f store.PeakFilter
	if station > 0 {
		id := int32(station)
		f.StationID = &id
	}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return f, fmt.Errorf("invalid -from %q", from)
		}
		f.DateFrom = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return f, fmt.Errorf("invalid -to %q", to)
		}
		f.DateTo = &t
	}
	return f, nil
}

func printPeaks(title string, peaks []domain.PeakRecord, names map[int32]string) {
	fmt.Printf("=== %s (%d) ===\n", title, len(peaks))
	if len(peaks) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, p := range peaks {
		name := names[p.StationID]
		if name == "" {
			name = fmt.Sprintf("station %d", p.StationID)
		}
		fmt.Printf("  %-24s %s %02d:00  %6.2f dB\n",
			truncate(name, 24), p.DateLocal.Format("2006-01-02"), p.HourLocal, p.LAeqDB)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
