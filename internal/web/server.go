// Package web serves the operational HTTP surface: liveness, a status
// snapshot of the forwarding counters, and Prometheus metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dealgram/internal/observe"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	stats   *observe.Stats
	log     logrus.FieldLogger
	started time.Time
}

// New builds the server on addr, reading counters from stats.
func New(addr string, stats *observe.Stats, logger logrus.FieldLogger) *Server {
	s := &Server{
		stats:   stats,
		log:     logger.WithField("component", "web"),
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/status", s.status)
	r.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs the HTTP server; it blocks until Shutdown or a listen error.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(healthzResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

type statusResponse struct {
	Status            string  `json:"status"`
	MessagesProcessed int64   `json:"messages_processed"`
	MessagesForwarded int64   `json:"messages_forwarded"`
	MessagesFailed    int64   `json:"messages_failed"`
	LinksUnresolved   int64   `json:"links_unresolved"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Status:            "running",
		MessagesProcessed: s.stats.Processed(),
		MessagesForwarded: s.stats.Forwarded(),
		MessagesFailed:    s.stats.Failed(),
		LinksUnresolved:   s.stats.Unresolved(),
		UptimeSeconds:     time.Since(s.started).Seconds(),
	})
}
