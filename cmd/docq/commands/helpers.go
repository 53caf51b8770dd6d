package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/docq-ai/docq-go/internal/embedder"
	"github.com/docq-ai/docq-go/internal/engine"
	"github.com/docq-ai/docq-go/internal/ingestion"
	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/ocr"
	"github.com/docq-ai/docq-go/internal/pdf"
	"github.com/docq-ai/docq-go/internal/provider"
	"github.com/docq-ai/docq-go/internal/rag"
	"github.com/docq-ai/docq-go/internal/store"
)

// getEnvOrDefault returns the environment variable value, or def if unset.
func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the environment variable parsed as an int, or def if
// unset or unparseable.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// storageDir returns the root folder for uploads and the page-text cache.
func storageDir() string {
	return getEnvOrDefault("DOCQ_STORAGE_DIR", "data")
}

// buildExtractor selects the page-text extractor: the Mistral OCR API when
// MISTRAL_API_KEY is set, otherwise the embedded-text-layer fallback, which
// handles digital PDFs but not scanned ones.
func buildExtractor(log *slog.Logger) (ocr.Extractor, error) {
	apiKey := os.Getenv("MISTRAL_API_KEY")
	if apiKey == "" {
		log.Warn("MISTRAL_API_KEY not set — falling back to embedded text extraction (scanned PDFs will yield no text)")
		return pdf.NewLocalExtractor(), nil
	}

	client, err := ocr.NewMistralClient(&ocr.MistralConfig{
		APIKey:  apiKey,
		Model:   os.Getenv("OCR_MODEL"),
		BaseURL: os.Getenv("OCR_ENDPOINT"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise OCR client: %w", err)
	}
	log.Info("ocr client ready", slog.String("model", getEnvOrDefault("OCR_MODEL", ocr.DefaultModel)))
	return client, nil
}

// buildQdrantStore connects to Qdrant using QDRANT_* environment variables
// and ensures the target collection exists. The vector size is derived from
// the configured embedding backend so the collection and embedder always
// agree on dimensionality.
func buildQdrantStore(ctx context.Context) (*rag.QdrantStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "docq-docs")
	vectorSize := uint64(embedder.DefaultDimensions(embedder.ResolveBackend())) //nolint:gosec // dimensions are bounded

	qs, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		VectorSize: vectorSize,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}
	return qs, nil
}

// buildLedger opens the SQLite document ledger. DOCQ_LEDGER_DB overrides the
// default path (~/.docq/ledger.db); "disabled" turns the ledger off. A
// ledger failure is non-fatal: ingestion and querying work without one, only
// document listing is lost.
func buildLedger(log *slog.Logger) *store.SQLiteLedger {
	dbPath := os.Getenv("DOCQ_LEDGER_DB")
	if dbPath == "disabled" {
		log.Info("ledger disabled via DOCQ_LEDGER_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("could not resolve default ledger path, disabling", logging.Err(err))
			return nil
		}
	}
	ledger, err := store.Open(dbPath)
	if err != nil {
		log.Warn("failed to open ledger, disabling", logging.Err(err))
		return nil
	}
	log.Info("ledger opened", slog.String("path", dbPath))
	return ledger
}

// buildPipeline wires the full ingestion pipeline: extractor, embedder,
// vector store, page cache, and ledger. The returned cleanup closes the
// Qdrant connection and the ledger.
func buildPipeline(ctx context.Context, log *slog.Logger) (*ingestion.Pipeline, *rag.QdrantStore, *store.SQLiteLedger, func(), error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, nil, nil, err
	}

	extractor, err := buildExtractor(log)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	qs, err := buildQdrantStore(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	ledger := buildLedger(log)
	cleanup := func() {
		qs.Close()
		if ledger != nil {
			_ = ledger.Close()
		}
	}

	cache := ingestion.NewPageCache(storageDir())

	var ledgerIface ingestion.Ledger
	if ledger != nil {
		ledgerIface = ledger
	}

	pipeline, err := ingestion.NewPipeline(extractor, emb, qs, cache, &ingestion.Config{
		WindowSize: getEnvInt("CHUNK_WINDOW_SIZE", 0),
		Overlap:    getEnvInt("CHUNK_OVERLAP", 0),
	}, ledgerIface)
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return pipeline, qs, ledger, cleanup, nil
}

// buildEngine wires the question-answering engine: embedder, retriever over
// the given vector store, and the configured chat model provider.
func buildEngine(ctx context.Context, qs *rag.QdrantStore) (*engine.Engine, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	retriever, err := rag.NewRetriever(emb, qs, engine.DefaultTopK)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}

	eng, err := engine.New(retriever, chatModel, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return eng, nil
}
