package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/engine"
	"github.com/docq-ai/docq-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// StorageDir is the root folder where uploads are saved (default: "data").
	StorageDir string
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
}

// ingestor is the interface handleUpload calls to process an uploaded PDF.
// *ingestion.Pipeline satisfies it; tests inject a fake.
type ingestor interface {
	// Ingest processes the PDF at path and returns the chunk count written.
	Ingest(ctx context.Context, path string) (int, error)
}

// answerer is the interface handleAsk calls to stream an answer.
// *engine.Engine satisfies it; tests inject a fake.
type answerer interface {
	// AnswerStream returns the incremental answer stream for a question.
	AnswerStream(ctx context.Context, question string, opts engine.Options) (*schema.StreamReader[*schema.Message], error)
}

// lister is the interface handleFiles calls to enumerate ingested documents.
// *store.SQLiteLedger satisfies it; tests inject a fake. May be nil when the
// ledger is disabled, in which case /api/files reports an empty list.
type lister interface {
	// List returns all recorded documents, oldest first.
	List(ctx context.Context) ([]store.DocumentRecord, error)
}

// Server is the HTTP server exposing the ingestion pipeline and query engine.
type Server struct {
	// pipeline handles PDF ingestion for /api/upload.
	pipeline ingestor
	// engine streams answers for /api/ask.
	engine answerer
	// ledger lists ingested documents for /api/files; may be nil.
	ledger lister
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask. Pointer fields distinguish
// "absent" from an explicit zero so defaults only apply when a field is
// omitted.
type askRequest struct {
	// Question is the user's natural-language question.
	Question string `json:"question"`
	// TopK is the number of chunks to retrieve (default: 3).
	TopK *int `json:"top_k,omitempty"`
	// Temperature controls answer randomness (default: 0.2).
	Temperature *float32 `json:"temperature,omitempty"`
	// MaxTokens caps the answer length (default: 500).
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// uploadResponse is the JSON response for POST /api/upload.
type uploadResponse struct {
	// Status is "success" for a completed ingestion.
	Status string `json:"status"`
	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`
	// Filename is the uploaded file's name.
	Filename string `json:"filename"`
	// SavedPath is where the upload was stored on disk.
	SavedPath string `json:"saved_path"`
	// Chunks is the number of chunks written to the vector index.
	Chunks int `json:"chunks"`
}

// filesResponse is the JSON response for GET /api/files.
type filesResponse struct {
	// Count is the number of ingested documents.
	Count int `json:"count"`
	// Files lists the ingested document filenames, oldest first.
	Files []string `json:"files"`
}
