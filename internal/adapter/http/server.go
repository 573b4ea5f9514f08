// Package http exposes the service's operational endpoints and a small
// read API over the ingested series.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/noise-data-etl/internal/domain"
	"github.com/couchcryptid/noise-data-etl/internal/store"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and read-only query routes.
type Server struct {
	httpServer *http.Server
	reader     store.Reader
	logger     *slog.Logger
}

// NewServer builds the HTTP surface. A nil reader disables the query
// routes; they answer 503.
func NewServer(addr string, pinger Pinger, reader store.Reader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reader: reader,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(pinger))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/stations", s.handleStations)
	mux.HandleFunc("GET /api/peaks", s.handlePeaks)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pinger.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not attached"})
		return
	}
	stations, err := s.reader.ListStations(r.Context())
	if err != nil {
		s.logger.Error("list stations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// peakResponse flattens a peak record for JSON consumers. The date and hour
// are civil-local values.
type peakResponse struct {
	StationID int32   `json:"station_id"`
	Date      string  `json:"date"`
	Hour      int     `json:"hour"`
	LAeqDB    float64 `json:"laeq_db"`
	Kind      string  `json:"kind"`
}

func (s *Server) handlePeaks(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not attached"})
		return
	}

	filter, err := parsePeakFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	day, global, err := s.reader.FindPeaks(r.Context(), filter)
	if err != nil {
		s.logger.Error("find peaks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string][]peakResponse{
		"day_peaks":    toPeakResponses(day),
		"global_peaks": toPeakResponses(global),
	})
}

func parsePeakFilter(r *http.Request) (store.PeakFilter, error) {
	var filter store.PeakFilter
	q := r.URL.Query()

	if v := q.Get("station"); v != "" {
		id, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return filter, errBadParam("station", v)
		}
		id32 := int32(id)
		filter.StationID = &id32
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errBadParam("from", v)
		}
		filter.DateFrom = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return filter, errBadParam("to", v)
		}
		filter.DateTo = &t
	}
	return filter, nil
}

type paramError struct{ name, value string }

func (e paramError) Error() string { return "invalid " + e.name + " parameter: " + e.value }

func errBadParam(name, value string) error { return paramError{name: name, value: value} }

func toPeakResponses(peaks []domain.PeakRecord) []peakResponse {
	out := make([]peakResponse, 0, len(peaks))
	for _, p := range peaks {
		out = append(out, peakResponse{
			StationID: p.StationID,
			Date:      p.DateLocal.Format("2006-01-02"),
			Hour:      p.HourLocal,
			LAeqDB:    p.LAeqDB,
			Kind:      string(p.Kind),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
