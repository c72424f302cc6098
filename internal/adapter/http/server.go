package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/resonance-continuum/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxForecastHours    = 24 * 30
	maxPsiBodyBytes     = 1 << 10
)

// SnapshotService is the runner surface the API reads from and steers.
type SnapshotService interface {
	sharedobs.ReadinessChecker
	Latest() (domain.Snapshot, bool)
	Psi() float64
	SetPsi(ctx context.Context, psi float64) (domain.Snapshot, error)
}

// Archive lists stored snapshots, newest first.
type Archive interface {
	Recent(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// Server exposes the snapshot API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        SnapshotService
	archive    Archive
	logger     *slog.Logger
}

// NewServer creates an HTTP server. A nil archive disables /api/history.
func NewServer(addr string, svc SnapshotService, archive Archive, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// PUT /api/psi runs a full refresh before responding.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 45 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		archive: archive,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("PUT /api/psi", s.handleSetPsi)
	mux.HandleFunc("GET /api/history", s.handleHistory)

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

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.svc.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot has been produced yet")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

type forecastResponse struct {
	Psi      float64               `json:"psi_s"`
	Hours    int                   `json:"hours"`
	Forecast domain.ForecastSeries `json:"forecast"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	psi := s.svc.Psi()
	if raw := q.Get("psi"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid psi %q", raw))
			return
		}
		psi = v
	}
	if err := domain.ValidatePsi(psi); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hours, err := intParam(q.Get("hours"), domain.ForecastHorizon, 1, maxForecastHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "hours: "+err.Error())
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, forecastResponse{
		Psi:      psi,
		Hours:    hours,
		Forecast: domain.GenerateForecast(psi, hours),
	})
}

type psiRequest struct {
	Psi *float64 `json:"psi"`
}

func (s *Server) handleSetPsi(w http.ResponseWriter, r *http.Request) {
	var req psiRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPsiBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if req.Psi == nil {
		writeError(w, http.StatusBadRequest, "psi is required")
		return
	}
	if err := domain.ValidatePsi(*req.Psi); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.svc.SetPsi(r.Context(), *req.Psi)
	if err != nil {
		s.logger.Error("refresh after psi update failed", "psi", *req.Psi, "error", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "snapshot archive is disabled")
		return
	}

	limit, err := intParam(r.URL.Query().Get("limit"), defaultHistoryLimit, 1, maxHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit: "+err.Error())
		return
	}

	snaps, err := s.archive.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list archived snapshots failed", "limit", limit, "error", err)
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, snaps)
}

var errOutOfRange = errors.New("out of range")

func intParam(raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d not in [%d, %d]: %w", n, lo, hi, errOutOfRange)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
