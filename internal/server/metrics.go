// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// askRequestsTotal counts completed /api/ask requests, partitioned by
	// outcome: "ok", "rejected", or "error".
	askRequestsTotal *prometheus.CounterVec

	// askDurationSeconds records the wall-clock duration of each /api/ask
	// request from receipt to stream completion.
	askDurationSeconds prometheus.Histogram

	// askActiveStreams is the number of /api/ask answer streams currently open.
	askActiveStreams prometheus.Gauge

	// ingestDocumentsTotal counts completed /api/upload ingestions,
	// partitioned by outcome: "ok", "rejected", or "error".
	ingestDocumentsTotal *prometheus.CounterVec

	// ingestChunksTotal counts chunks written to the vector index via
	// /api/upload.
	ingestChunksTotal prometheus.Counter

	// ingestDurationSeconds records the wall-clock duration of each
	// /api/upload ingestion, OCR included.
	ingestDurationSeconds prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, path, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		askRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docq",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total number of /api/ask requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		askDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docq",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/ask requests from receipt to stream completion.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),

		askActiveStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "docq",
			Subsystem: "ask",
			Name:      "active_streams",
			Help:      "Number of /api/ask answer streams currently open.",
		}),

		ingestDocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docq",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total number of /api/upload ingestions completed, partitioned by outcome.",
		}, []string{"outcome"}),

		ingestChunksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "docq",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total number of chunks written to the vector index via /api/upload.",
		}),

		ingestDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docq",
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of /api/upload ingestions, OCR included.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docq",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, path, and status code.",
		}, []string{"method", "path", "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "docq",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
