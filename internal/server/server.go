// Package server exposes the HTTP trigger that runs a check cycle.
// The endpoint accepts Pub/Sub style push envelopes so a Cloud
// Scheduler topic or any plain HTTP caller can drive the service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Issier/lad-watch/internal/metrics"
)

// RunFunc executes one full check cycle.
type RunFunc func(ctx context.Context) error

// Server is the HTTP trigger for check cycles.
type Server struct {
	httpServer *http.Server
	run        RunFunc
}

// pushEnvelope is the minimal Pub/Sub push request body.
type pushEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// New creates a Server listening on the given port.
func New(port int, run RunFunc) *Server {
	s := &Server{run: run}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleTrigger)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks serving HTTP until the server is shut down.
func (s *Server) ListenAndServe() error {
	slog.Info("LadWatch listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleTrigger validates the push envelope and runs a cycle. Item
// failures inside the cycle never fail the request; only a malformed
// envelope produces a client error.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		slog.Info("Trigger rejected: no Pub/Sub message received")
		http.Error(w, "Bad Request: no Pub/Sub message received", http.StatusBadRequest)
		return
	}

	var envelope pushEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Message) == 0 {
		slog.Info("Trigger rejected: invalid Pub/Sub message format")
		http.Error(w, "Bad Request: invalid Pub/Sub message format", http.StatusBadRequest)
		return
	}

	if err := s.run(r.Context()); err != nil {
		slog.Error("Cycle failed", "error", err)
		http.Error(w, "cycle failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
