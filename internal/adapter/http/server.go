// Package http exposes the service's REST API plus health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hydroforecast/prediction-service/internal/domain"
	"github.com/hydroforecast/prediction-service/internal/store"
)

// Store is the persistence surface the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	CreateTank(ctx context.Context, t domain.Tank) (domain.Tank, error)
	GetTank(ctx context.Context, id string) (domain.Tank, error)
	ListTanks(ctx context.Context) ([]domain.Tank, error)
	DeleteTank(ctx context.Context, id string) error
	CreateTankLog(ctx context.Context, l domain.TankLog) (domain.TankLog, error)
	ListTankLogs(ctx context.Context, tankID string, q store.LogQuery) ([]domain.TankLog, error)
}

// Predictor builds the aggregate prediction for one tank.
type Predictor interface {
	Predict(ctx context.Context, tankID string) (domain.PredictionResponse, error)
}

// Publisher emits a prediction event to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, pred domain.PredictionResponse) error
}

// Server routes the REST API. Pass a nil publisher to disable event
// publishing.
type Server struct {
	httpServer *http.Server
	store      Store
	predictor  Predictor
	publisher  Publisher
	logger     *slog.Logger
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(addr string, st Store, predictor Predictor, publisher Publisher, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:     st,
		predictor: predictor,
		publisher: publisher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/tanks", s.handleCreateTank)
	mux.HandleFunc("GET /api/tanks", s.handleListTanks)
	mux.HandleFunc("GET /api/tanks/{id}", s.handleGetTank)
	mux.HandleFunc("DELETE /api/tanks/{id}", s.handleDeleteTank)

	mux.HandleFunc("POST /api/tanklogs", s.handleCreateTankLog)
	mux.HandleFunc("GET /api/tanklogs/{tankID}", s.handleListTankLogs)

	mux.HandleFunc("POST /api/prediction", s.handlePredictionPost)
	mux.HandleFunc("GET /api/prediction/{tankID}", s.handlePredictionGet)

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
