// Package server implements the HTTP server that exposes PDF ingestion and
// question answering over a small REST API. The server is started by the
// `docq serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docq-ai/docq-go/internal/logging"
)

// New constructs a Server from the provided pipeline, engine, and config.
// ledger may be nil when the ingestion ledger is disabled.
func New(pipeline ingestor, eng answerer, ledger lister, cfg *Config) (*Server, error) {
	return newWithRegistry(pipeline, eng, ledger, cfg, prometheus.NewRegistry())
}

// newWithRegistry is the injectable constructor used by tests to supply a
// hermetic Prometheus registry.
func newWithRegistry(pipeline ingestor, eng answerer, ledger lister, cfg *Config, reg *prometheus.Registry) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("server: pipeline must not be nil")
	}
	if eng == nil {
		return nil, fmt.Errorf("server: engine must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = "data"
	}
	if cfg.ReadTimeout == 0 {
		// Uploads of large PDFs need a generous read window.
		cfg.ReadTimeout = 2 * time.Minute
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for streaming responses and for
		// OCR-heavy ingestion requests.
		cfg.WriteTimeout = 10 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	if cfg.APIKey == "" {
		log.Warn("server: DOCQ_API_KEY is not set — API authentication is disabled")
	}

	s := &Server{
		pipeline: pipeline,
		engine:   eng,
		ledger:   ledger,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(reg),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	// Protected API routes: auth, then per-IP rate limiting.
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/upload", protect(s.handleUpload))
	mux.Handle("POST /api/ask", protect(s.handleAsk))
	mux.Handle("GET /api/files", protect(s.handleFiles))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, s.httpMetrics(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", "addr", "http://"+s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler, for use in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
