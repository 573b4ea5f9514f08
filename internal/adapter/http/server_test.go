package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/noise-data-etl/internal/adapter/http"
	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
	"github.com/couchcryptid/noise-data-etl/internal/store/memory"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

var kst = domain.FixedZone(9)

func newTestServer(t *testing.T, pingErr error) (*httpadapter.Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	srv := httpadapter.NewServer(":0", &mockPinger{err: pingErr}, st, slog.New(slog.DiscardHandler))
	return srv, st
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenStoreReachable(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenStoreDown(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("connection refused"))
	rec := get(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func seedLevels(t *testing.T, st *memory.Store) int32 {
	t.Helper()
	ctx := context.Background()
	var id int32
	err := st.WithinTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.UpsertStations(ctx, []domain.Station{domain.PlaceholderStation("도심측정소")}))
		ids, err := tx.StationIDs(ctx, []string{"도심측정소"})
		require.NoError(t, err)
		id = ids["도심측정소"]

		return tx.MergeHourlyLevels(ctx, []domain.HourlyLevel{
			{StationID: id, HourStartLocal: time.Date(2024, 3, 1, 10, 0, 0, 0, kst), LAeqDB: 60},
			{StationID: id, HourStartLocal: time.Date(2024, 3, 1, 18, 0, 0, 0, kst), LAeqDB: 66.5},
			{StationID: id, HourStartLocal: time.Date(2024, 3, 2, 9, 0, 0, 0, kst), LAeqDB: 58},
		})
	})
	require.NoError(t, err)
	return id
}

func TestStationsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)
	seedLevels(t, st)

	rec := get(srv, "/api/stations")
	assert.Equal(t, http.StatusOK, rec.Code)

	var stations []domain.Station
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stations))
	require.Len(t, stations, 1)
	assert.Equal(t, "도심측정소", stations[0].Name)
}

func TestPeaksEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)
	seedLevels(t, st)

	t.Run("all peaks", func(t *testing.T) {
		rec := get(srv, "/api/peaks")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body["day_peaks"], 2)
		require.Len(t, body["global_peaks"], 1)

		global := body["global_peaks"][0]
		assert.Equal(t, "2024-03-01", global["date"])
		assert.Equal(t, float64(18), global["hour"])
		assert.Equal(t, 66.5, global["laeq_db"])
		assert.Equal(t, "global_peak", global["kind"])
	})

	t.Run("date filter", func(t *testing.T) {
		rec := get(srv, "/api/peaks?from=2024-03-02")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body map[string][]map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body["day_peaks"], 1)
		assert.Equal(t, "2024-03-02", body["day_peaks"][0]["date"])
	})

	t.Run("bad station parameter", func(t *testing.T) {
		rec := get(srv, "/api/peaks?station=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date parameter", func(t *testing.T) {
		rec := get(srv, "/api/peaks?from=03-2024")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
