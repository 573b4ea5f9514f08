package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedZone(t *testing.T) {
	kst := FixedZone(9)
	assert.Equal(t, "UTC+9", kst.String())

	_, offset := time.Date(2024, 3, 1, 0, 0, 0, 0, kst).Zone()
	assert.Equal(t, 9*3600, offset)

	_, offset = time.Date(2024, 3, 1, 0, 0, 0, 0, FixedZone(-5)).Zone()
	assert.Equal(t, -5*3600, offset)
}

func TestHourStart(t *testing.T) {
	kst := FixedZone(9)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("hour 1 starts at local midnight", func(t *testing.T) {
		local := HourStartLocal(date, 1, kst)
		assert.Equal(t, 0, local.Hour())

		// Local midnight in KST is 15:00 UTC of the previous day.
		utc := HourStartUTC(date, 1, kst)
		assert.Equal(t, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), utc)
	})

	t.Run("hour 24 is the last hour of the same local day", func(t *testing.T) {
		local := HourStartLocal(date, 24, kst)
		assert.Equal(t, 23, local.Hour())
		assert.Equal(t, 1, local.Day())

		utc := HourStartUTC(date, 24, kst)
		assert.Equal(t, time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC), utc)
	})

	t.Run("consecutive hours are one hour apart", func(t *testing.T) {
		for h := 2; h <= 24; h++ {
			prev := HourStartUTC(date, h-1, kst)
			cur := HourStartUTC(date, h, kst)
			assert.Equal(t, time.Hour, cur.Sub(prev), "hour %d", h)
		}
	})
}

func TestClassifyHour(t *testing.T) {
	tests := []struct {
		hour     int
		expected PartOfDay
	}{
		{1, PartNight},
		{6, PartNight},
		{7, PartDay},
		{12, PartDay},
		{21, PartDay},
		{22, PartNight},
		{24, PartNight},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyHour(tt.hour), "hour %d", tt.hour)
	}
}

func TestNormalizeReadings(t *testing.T) {
	frozen := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	kst := FixedZone(9)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := []HourlyReading{
		{Station: "도심측정소", Date: date, Hour: 1, LevelDB: 48.2},
		{Station: "도심측정소", Date: date, Hour: 8, LevelDB: 61.7},
	}

	raw := NormalizeReadings(readings, 7, kst)
	require.Len(t, raw, 2)

	assert.Equal(t, int32(7), raw[0].StationID)
	assert.Equal(t, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC), raw[0].TimestampUTC)
	assert.Equal(t, PartNight, raw[0].PartOfDay)
	assert.Equal(t, frozen, raw[0].IngestedAt)

	assert.Equal(t, time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC), raw[1].TimestampUTC)
	assert.Equal(t, PartDay, raw[1].PartOfDay)
	assert.Equal(t, 61.7, raw[1].LevelDB)
}
