package domain

import (
	"fmt"
	"time"
)

// DefaultUTCOffsetHours is the civil offset of the monitoring network's
// region (KST). The region observes no daylight saving time, so a fixed
// offset is the whole rule.
const DefaultUTCOffsetHours = 9

// FixedZone builds the local civil zone for a whole-hour UTC offset.
func FixedZone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// HourStartLocal maps a local calendar date and an hour label h in 1..24 to
// the start of the half-open interval [h-1, h) in the given zone. Hour 24 is
// the last hour of the local civil day.
func HourStartLocal(date time.Time, hour int, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour-1, 0, 0, 0, loc)
}

// HourStartUTC is HourStartLocal converted once to UTC, the canonical
// persisted instant.
func HourStartUTC(date time.Time, hour int, loc *time.Location) time.Time {
	return HourStartLocal(date, hour, loc).UTC()
}

// ClassifyHour assigns the day/night window for an hour label in 1..24.
// Hours 7 through 21 are day; everything else is night. This is a policy
// constant, not a sunrise rule.
func ClassifyHour(hour int) PartOfDay {
	if hour >= 7 && hour <= 21 {
		return PartDay
	}
	return PartNight
}

// NormalizeReadings converts parsed local readings into canonical raw
// readings for one resolved station. IngestedAt comes from the package
// clock so tests can freeze it.
func NormalizeReadings(readings []HourlyReading, stationID int32, loc *time.Location) []RawReading {
	now := clock.Now().UTC()
	out := make([]RawReading, 0, len(readings))
	for _, r := range readings {
		out = append(out, RawReading{
			StationID:    stationID,
			TimestampUTC: HourStartUTC(r.Date, r.Hour, loc),
			LevelDB:      r.LevelDB,
			PartOfDay:    ClassifyHour(r.Hour),
			IngestedAt:   now,
		})
	}
	return out
}
