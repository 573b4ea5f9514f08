package domain

import "time"

// PartOfDay classifies a local hour into the day or night measurement window.
type PartOfDay string

const (
	PartDay   PartOfDay = "day"
	PartNight PartOfDay = "night"
)

// Station is a monitoring station known to the registry. The name is the
// natural key; the location starts as a placeholder anchor and is corrected
// out of band.
type Station struct {
	ID   int32
	Name string
	Lat  float64
	Lon  float64
}

// HourlyReading is a single parsed cell from a sheet's hour matrix, still in
// local wall-clock terms. Hour is 1..24 and labels the interval
// [Hour-1, Hour) of the local civil day.
type HourlyReading struct {
	Station string
	Date    time.Time // local calendar date, midnight, zone-less
	Hour    int
	LevelDB float64
}

// DayNightReading is a parsed day/night LAeq pair supplied directly by a
// sheet's summary columns.
type DayNightReading struct {
	Station   string
	Date      time.Time
	LAeqDay   float64
	LAeqNight float64
}

// RawReading is the canonical persisted measurement, keyed by
// (StationID, TimestampUTC).
type RawReading struct {
	StationID    int32
	TimestampUTC time.Time
	LevelDB      float64
	PartOfDay    PartOfDay
	IngestedAt   time.Time
}

// HourlyLevel is the derived equivalent level for one local hour bucket,
// keyed by (StationID, HourStartLocal).
type HourlyLevel struct {
	StationID      int32
	HourStartLocal time.Time
	SampleCount    int
	LAeqDB         float64
}

// DailyLevel holds the day- and night-window equivalent levels for one local
// calendar date, keyed by (StationID, DateLocal).
type DailyLevel struct {
	StationID   int32
	DateLocal   time.Time
	LAeqDayDB   float64
	LAeqNightDB float64
}

// PeakKind discriminates per-day peaks from the single all-time peak.
type PeakKind string

const (
	DayPeak    PeakKind = "day_peak"
	GlobalPeak PeakKind = "global_peak"
)

// PeakRecord is the loudest hour of a day (or of the whole window) for one
// station. Computed on query, never persisted. HourLocal is the bucket start
// hour of day, 0..23.
type PeakRecord struct {
	StationID int32
	DateLocal time.Time
	HourLocal int
	LAeqDB    float64
	Kind      PeakKind
}
