package domain

import (
	"math"
	"strings"
	"time"
)

// Sheet is one labelled 2-D cell grid handed over by the file-reading
// adapter. The label doubles as the station name in the source exports.
type Sheet struct {
	Label string
	Grid  [][]Cell
}

const (
	// headerMarker identifies the column-label row: the "measurement date"
	// header used by every export in the documented conventions.
	headerMarker = "측정일"

	// headerScanLimit bounds the search for the marker row.
	headerScanLimit = 30
)

// dateColumnMarkers select the date column among the header labels.
var dateColumnMarkers = []string{"측정", "시간"}

// Day/night summary column labels, as they appear across the mixed-language
// exports.
var (
	dayColumnLabels   = []string{"낮", "day", "Day", "DAY"}
	nightColumnLabels = []string{"밤", "night", "Night", "NIGHT"}
)

// ParseStats enumerates what a parse dropped and why, so nothing is lost
// silently.
type ParseStats struct {
	HeaderFound     bool
	RowsBadDate     int
	CellsBadNumber  int
	DayNightBadRows int
}

// ParseSheet converts a raw grid into hourly readings and day/night pairs
// for one station. A grid without the header marker, without usable columns,
// or without data rows yields empty results and no error: that is a
// recoverable "not this kind of sheet" signal.
func ParseSheet(grid [][]Cell, stationLabel string) ([]HourlyReading, []DayNightReading, ParseStats) {
	var stats ParseStats

	headerRow := findHeaderRow(grid)
	if headerRow < 0 {
		return nil, nil, stats
	}
	stats.HeaderFound = true

	labels := grid[headerRow]
	data := grid[headerRow+1:]

	dateCol := findDateColumn(labels)
	hourCols := findHourColumns(labels, dateCol)
	dayCol := findLabelColumn(labels, dayColumnLabels)
	nightCol := findLabelColumn(labels, nightColumnLabels)

	var hourly []HourlyReading
	var dayNight []DayNightReading

	for _, row := range data {
		if dateCol >= len(row) {
			continue
		}
		date, err := ParseDate(row[dateCol])
		if err != nil {
			// Footnotes and spacer rows land here.
			stats.RowsBadDate++
			continue
		}

		for _, hc := range hourCols {
			if hc.index >= len(row) {
				continue
			}
			cell := row[hc.index]
			if cell.Kind == CellBlank {
				continue
			}
			level, err := ParseNumber(cell)
			if err != nil {
				stats.CellsBadNumber++
				continue
			}
			hourly = append(hourly, HourlyReading{
				Station: stationLabel,
				Date:    date,
				Hour:    hc.hour,
				LevelDB: Round2(level),
			})
		}

		if dayCol >= 0 && nightCol >= 0 {
			rec, ok := parseDayNight(row, dayCol, nightCol, stationLabel, date)
			if !ok {
				stats.DayNightBadRows++
				continue
			}
			dayNight = append(dayNight, rec)
		}
	}

	return hourly, dayNight, stats
}

// findHeaderRow scans the first headerScanLimit rows for the marker token.
// Returns -1 when the grid is not a measurement sheet.
func findHeaderRow(grid [][]Cell) int {
	limit := len(grid)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		for _, c := range grid[i] {
			if c.Kind == CellText && strings.Contains(c.Text, headerMarker) {
				return i
			}
		}
	}
	return -1
}

// findDateColumn picks the column whose label carries a date marker, falling
// back to the first column.
func findDateColumn(labels []Cell) int {
	for i, c := range labels {
		if c.Kind != CellText {
			continue
		}
		for _, marker := range dateColumnMarkers {
			if strings.Contains(c.Text, marker) {
				return i
			}
		}
	}
	return 0
}

type hourColumn struct {
	index int
	hour  int
}

// findHourColumns collects every column whose label coerces to an integer
// hour in [1, 24]. Labels like "1", 1, "1.0" all qualify.
func findHourColumns(labels []Cell, dateCol int) []hourColumn {
	var cols []hourColumn
	for i, c := range labels {
		if i == dateCol {
			continue
		}
		v, err := ParseNumber(c)
		if err != nil {
			continue
		}
		h := int(math.Round(v))
		if h < 1 || h > 24 {
			continue
		}
		cols = append(cols, hourColumn{index: i, hour: h})
	}
	return cols
}

// findLabelColumn returns the index of the first column whose trimmed label
// matches one of the candidates exactly, or -1.
func findLabelColumn(labels []Cell, candidates []string) int {
	for i, c := range labels {
		if c.Kind != CellText {
			continue
		}
		label := strings.TrimSpace(c.Text)
		for _, cand := range candidates {
			if label == cand {
				return i
			}
		}
	}
	return -1
}

func parseDayNight(row []Cell, dayCol, nightCol int, station string, date time.Time) (DayNightReading, bool) {
	if dayCol >= len(row) || nightCol >= len(row) {
		return DayNightReading{}, false
	}
	day, errDay := ParseNumber(row[dayCol])
	night, errNight := ParseNumber(row[nightCol])
	if errDay != nil || errNight != nil {
		return DayNightReading{}, false
	}
	return DayNightReading{
		Station:   station,
		Date:      date,
		LAeqDay:   Round2(day),
		LAeqNight: Round2(night),
	}, true
}
