//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
	"github.com/couchcryptid/noise-data-etl/internal/store/postgres"
)

var kst = domain.FixedZone(9)

// startPostgres runs a disposable database and returns its connection URL.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("noise"),
		tcpostgres.WithUsername("noise"),
		tcpostgres.WithPassword("noise"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func openStore(ctx context.Context, t *testing.T) *postgres.Store {
	t.Helper()
	st, err := postgres.Open(ctx, startPostgres(ctx, t), kst)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	st := openStore(ctx, t)
	require.NoError(t, st.Ping(ctx))

	var id int32
	hour18 := time.Date(2024, 3, 1, 18, 0, 0, 0, kst)

	err := st.WithinTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.UpsertStations(ctx, []domain.Station{
			domain.PlaceholderStation("도심측정소"),
		}))
		ids, err := tx.StationIDs(ctx, []string{"도심측정소"})
		require.NoError(t, err)
		id = ids["도심측정소"]

		require.NoError(t, tx.MergeRawReadings(ctx, []domain.RawReading{
			{StationID: id, TimestampUTC: hour18.UTC(), LevelDB: 62.3, PartOfDay: domain.PartDay, IngestedAt: time.Now().UTC()},
		}))
		require.NoError(t, tx.MergeHourlyLevels(ctx, []domain.HourlyLevel{
			{StationID: id, HourStartLocal: hour18, SampleCount: 1, LAeqDB: 62.3},
		}))
		return tx.MergeDailyLevels(ctx, []domain.DailyLevel{
			{StationID: id, DateLocal: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), LAeqDayDB: 58.1, LAeqNightDB: 47.2},
		})
	})
	require.NoError(t, err)

	t.Run("stations", func(t *testing.T) {
		stations, err := st.ListStations(ctx)
		require.NoError(t, err)
		require.Len(t, stations, 1)
		assert.Equal(t, "도심측정소", stations[0].Name)
		assert.InDelta(t, domain.PlaceholderLat, stations[0].Lat, 1e-6)
	})

	t.Run("raw readings", func(t *testing.T) {
		raw, err := st.RawReadingsByStation(ctx, id)
		require.NoError(t, err)
		require.Len(t, raw, 1)
		assert.True(t, raw[0].TimestampUTC.Equal(hour18))
		assert.Equal(t, domain.PartDay, raw[0].PartOfDay)
	})

	t.Run("hourly levels rehydrate in the civil zone", func(t *testing.T) {
		hourly, err := st.HourlyLevelsByStation(ctx, id)
		require.NoError(t, err)
		require.Len(t, hourly, 1)
		assert.True(t, hourly[0].HourStartLocal.Equal(hour18))
		assert.Equal(t, 18, hourly[0].HourStartLocal.Hour())
	})

	t.Run("daily levels", func(t *testing.T) {
		daily, err := st.DailyLevelsByStation(ctx, id)
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, 58.1, daily[0].LAeqDayDB)
	})

	t.Run("peaks", func(t *testing.T) {
		day, global, err := st.FindPeaks(ctx, store.PeakFilter{})
		require.NoError(t, err)
		require.Len(t, day, 1)
		require.Len(t, global, 1)
		assert.Equal(t, 18, day[0].HourLocal)
		assert.Equal(t, 62.3, global[0].LAeqDB)
	})
}

func TestPostgresMergeSemantics(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	st := openStore(ctx, t)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var id int32
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.UpsertStations(ctx, []domain.Station{domain.PlaceholderStation("a")}))
		ids, err := tx.StationIDs(ctx, []string{"a"})
		require.NoError(t, err)
		id = ids["a"]
		return nil
	})
	require.NoError(t, err)

	t.Run("raw merge overwrites on the same key", func(t *testing.T) {
		ts := time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC)
		write := func(level float64) error {
			return st.WithinTx(ctx, func(tx store.Tx) error {
				return tx.MergeRawReadings(ctx, []domain.RawReading{
					{StationID: id, TimestampUTC: ts, LevelDB: level, PartOfDay: domain.PartNight, IngestedAt: time.Now().UTC()},
				})
			})
		}
		require.NoError(t, write(50))
		require.NoError(t, write(61.5))

		raw, err := st.RawReadingsByStation(ctx, id)
		require.NoError(t, err)
		require.Len(t, raw, 1)
		assert.Equal(t, 61.5, raw[0].LevelDB)
	})

	t.Run("supplied daily wins over derived", func(t *testing.T) {
		err := st.WithinTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.MergeDailyLevels(ctx, []domain.DailyLevel{
				{StationID: id, DateLocal: date, LAeqDayDB: 58.1, LAeqNightDB: 47.2},
			}))
			return tx.InsertMissingDailyLevels(ctx, []domain.DailyLevel{
				{StationID: id, DateLocal: date, LAeqDayDB: 55, LAeqNightDB: 44},
			})
		})
		require.NoError(t, err)

		daily, err := st.DailyLevelsByStation(ctx, id)
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, 58.1, daily[0].LAeqDayDB)
	})

	t.Run("unknown station maps to conflict", func(t *testing.T) {
		err := st.WithinTx(ctx, func(tx store.Tx) error {
			return tx.MergeRawReadings(ctx, []domain.RawReading{
				{StationID: 9999, TimestampUTC: time.Now().UTC(), LevelDB: 50, PartOfDay: domain.PartDay, IngestedAt: time.Now().UTC()},
			})
		})
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("rollback leaves no trace", func(t *testing.T) {
		before, err := st.ListStations(ctx)
		require.NoError(t, err)

		boom := assert.AnError
		err = st.WithinTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.UpsertStations(ctx, []domain.Station{domain.PlaceholderStation("ghost")}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		after, err := st.ListStations(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
