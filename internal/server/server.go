// Package server exposes the pipeline and session store over HTTP.
//
// Routes:
//
//	POST /api/sessions                    - generate a session from a topic
//	GET  /api/sessions/{id}               - session document
//	GET  /api/sessions/{id}/audio         - narration WAV
//	GET  /api/sessions/{id}/audio/status  - narration readiness
//	GET  /healthz, /readyz, /metrics
//
// Generation runs synchronously within the POST request, bounded by a
// weighted semaphore so a burst of topics cannot pile unbounded load onto
// the model providers.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/studyscroll/studyscroll/internal/health"
	"github.com/studyscroll/studyscroll/internal/observe"
	"github.com/studyscroll/studyscroll/internal/session"
)

const defaultMaxConcurrent = 4

// Runner executes the generation pipeline for one topic.
type Runner interface {
	Run(ctx context.Context, topic string) (sessionID string, err error)
}

// Config holds the server settings.
type Config struct {
	// ListenAddr is the TCP address to listen on (e.g., ":8000").
	ListenAddr string

	// MaxConcurrent bounds in-flight generation requests. Default 4.
	MaxConcurrent int64

	// CertFile and KeyFile enable TLS when both are set.
	CertFile string
	KeyFile  string
}

// Server is the HTTP front end.
type Server struct {
	cfg      Config
	pipeline Runner
	store    session.Store
	sem      *semaphore.Weighted
	httpSrv  *http.Server
}

// New assembles the server with all routes registered. checker supplies
// /healthz and /readyz; metrics instruments every request.
func New(cfg Config, pipe Runner, store session.Store, metrics *observe.Metrics, checker *health.Handler) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipe,
		store:    store,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGet)
	mux.HandleFunc("GET /api/sessions/{id}/audio", s.handleAudio)
	mux.HandleFunc("GET /api/sessions/{id}/audio/status", s.handleAudioStatus)
	checker.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully wired HTTP handler. Useful in tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
			err = s.httpSrv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("http server listening", "addr", s.cfg.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}
