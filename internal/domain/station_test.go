package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanStationName(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"도심측정소(시간별)", "도심측정소"},
		{"도심측정소 (시간별)", "도심측정소"},
		{"  강변측정소  ", "강변측정소"},
		{"공단측정소", "공단측정소"},
		{"(시간별)", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CleanStationName(tt.in), "input %q", tt.in)
	}
}

func TestStationNames(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	hourly := []HourlyReading{
		{Station: "도심측정소(시간별)", Date: date, Hour: 1, LevelDB: 50},
		{Station: "도심측정소", Date: date, Hour: 2, LevelDB: 51},
		{Station: "강변측정소", Date: date, Hour: 1, LevelDB: 47},
	}
	dayNight := []DayNightReading{
		{Station: "공단측정소(시간별)", Date: date, LAeqDay: 60, LAeqNight: 52},
	}

	names := StationNames(hourly, dayNight)
	assert.Equal(t, []string{"강변측정소", "공단측정소", "도심측정소"}, names)
}

func TestPlaceholderStation(t *testing.T) {
	st := PlaceholderStation("도심측정소")
	assert.Equal(t, "도심측정소", st.Name)
	assert.Equal(t, PlaceholderLat, st.Lat)
	assert.Equal(t, PlaceholderLon, st.Lon)
	assert.Zero(t, st.ID)
}
