// Package http exposes the monitor's operational surface: health, metrics,
// and a manual poll trigger.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hazard-monitor/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Triggerer runs one poll cycle on demand. It shares the scheduler's monitor,
// so a manual trigger never overlaps a scheduled tick.
type Triggerer interface {
	Tick(ctx context.Context) (pipeline.TickResult, error)
}

// Server exposes health, metrics, and manual-trigger HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /metrics, and /trigger
// routes.
func NewServer(addr string, trigger Triggerer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute, // a manual tick polls every feed
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.Handle("/healthz", methodHandler(http.MethodGet, http.HandlerFunc(s.handleHealth)))
	mux.Handle("/trigger", methodHandler(http.MethodPost, handleTrigger(trigger, logger)))
	mux.Handle("/metrics", methodHandler(http.MethodGet, promhttp.Handler()))

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
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleTrigger(trigger Triggerer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := trigger.Tick(r.Context())
		if err != nil {
			logger.Error("manual trigger failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}
		logger.Info("manual trigger complete",
			"new_quakes", res.NewQuakes,
			"new_warnings", res.NewWarnings,
			"new_forecasts", res.NewForecasts,
		)
		writeJSON(w, http.StatusOK, res)
	}
}

// methodHandler restricts h to the given method, mirroring the 405 behavior
// of Go 1.22+ ServeMux method patterns on older toolchains. A GET route also
// accepts HEAD, as the 1.22 mux does.
func methodHandler(method string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
