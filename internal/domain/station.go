package domain

import (
	"regexp"
	"sort"
	"strings"
)

// decorativeSuffixRe matches the "(hourly)" decoration some exports append
// to sheet names. Stripping it collapses the decorated and plain variants of
// a station name onto one registry row.
var decorativeSuffixRe = regexp.MustCompile(`\(시간별\)`)

// Placeholder geographic anchor for stations first seen during ingestion:
// Seoul city hall. Corrected out of band; first write wins.
const (
	PlaceholderLat = 37.5665
	PlaceholderLon = 126.9780
)

// CleanStationName normalizes a raw sheet label into the registry's natural
// key.
func CleanStationName(name string) string {
	return strings.TrimSpace(decorativeSuffixRe.ReplaceAllString(name, ""))
}

// StationNames returns the sorted distinct set of cleaned station names
// across both record kinds.
func StationNames(hourly []HourlyReading, dayNight []DayNightReading) []string {
	seen := make(map[string]struct{})
	for _, r := range hourly {
		seen[CleanStationName(r.Station)] = struct{}{}
	}
	for _, r := range dayNight {
		seen[CleanStationName(r.Station)] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PlaceholderStation builds a registry row for a newly seen name.
func PlaceholderStation(name string) Station {
	return Station{Name: name, Lat: PlaceholderLat, Lon: PlaceholderLon}
}
