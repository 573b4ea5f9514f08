package domain

import (
	"sort"
	"time"
)

// beats reports whether candidate a wins over incumbent b under the peak
// comparator: louder first, then the earlier bucket. HourStartLocal ordering
// covers both the date and the hour tie-breaks.
func beats(a, b HourlyLevel) bool {
	if a.LAeqDB != b.LAeqDB {
		return a.LAeqDB > b.LAeqDB
	}
	return a.HourStartLocal.Before(b.HourStartLocal)
}

// FindDayPeaks selects, for every (station, local date) group, the loudest
// hourly level, ties broken by earliest hour. Results are ordered by station
// then date.
func FindDayPeaks(levels []HourlyLevel) []PeakRecord {
	type key struct {
		station int32
		date    time.Time
	}
	best := make(map[key]HourlyLevel)
	for _, hl := range levels {
		k := key{hl.StationID, dateOf(hl.HourStartLocal)}
		cur, ok := best[k]
		if !ok || beats(hl, cur) {
			best[k] = hl
		}
	}

	peaks := make([]PeakRecord, 0, len(best))
	for k, hl := range best {
		peaks = append(peaks, peakRecord(hl, k.date, DayPeak))
	}
	sortPeaks(peaks)
	return peaks
}

// FindGlobalPeaks selects, per station, the single loudest hourly level
// across the whole input, ties broken by earliest date then earliest hour.
func FindGlobalPeaks(levels []HourlyLevel) []PeakRecord {
	best := make(map[int32]HourlyLevel)
	for _, hl := range levels {
		cur, ok := best[hl.StationID]
		if !ok || beats(hl, cur) {
			best[hl.StationID] = hl
		}
	}

	peaks := make([]PeakRecord, 0, len(best))
	for _, hl := range best {
		peaks = append(peaks, peakRecord(hl, dateOf(hl.HourStartLocal), GlobalPeak))
	}
	sortPeaks(peaks)
	return peaks
}

func peakRecord(hl HourlyLevel, date time.Time, kind PeakKind) PeakRecord {
	return PeakRecord{
		StationID: hl.StationID,
		DateLocal: date,
		HourLocal: hl.HourStartLocal.Hour(),
		LAeqDB:    hl.LAeqDB,
		Kind:      kind,
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortPeaks(peaks []PeakRecord) {
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].StationID != peaks[j].StationID {
			return peaks[i].StationID < peaks[j].StationID
		}
		if !peaks[i].DateLocal.Equal(peaks[j].DateLocal) {
			return peaks[i].DateLocal.Before(peaks[j].DateLocal)
		}
		return peaks[i].HourLocal < peaks[j].HourLocal
	})
}
