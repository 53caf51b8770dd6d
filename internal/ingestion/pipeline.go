// Package ingestion implements the document ingestion pipeline: extract page
// text from a PDF, window it into overlapping chunks, embed every chunk in
// one batched call, and upsert the results into the vector index. The
// pipeline is invoked by the `docq ingest` CLI command and the upload
// endpoint.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/docq-ai/docq-go/internal/chunker"
	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/ocr"
	"github.com/docq-ai/docq-go/internal/rag"
)

// Ledger records successfully ingested documents for later listing. The
// write is best-effort: a ledger failure never fails an ingestion whose
// index write already succeeded.
type Ledger interface {
	RecordDocument(ctx context.Context, name, path, checksum string, pages, chunks int) error
}

// Config holds the chunking configuration for the pipeline.
type Config struct {
	// WindowSize is the chunk window length in words. Defaults to 500.
	WindowSize int
	// Overlap is the number of words shared between consecutive chunks.
	// Defaults to 100.
	Overlap int
}

// Pipeline orchestrates the extract → chunk → embed → upsert flow for one
// document at a time. It is safe for concurrent use; concurrent ingestion of
// the same document races only on the page cache and on idempotent index
// upserts, where last-write-wins is acceptable.
type Pipeline struct {
	// extractor converts a PDF into per-page text.
	extractor ocr.Extractor

	// embedder converts chunk text into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// cache persists extracted page text keyed by source checksum.
	cache *PageCache

	// chunker windows page text into overlapping word chunks.
	chunker *chunker.Chunker

	// ledger optionally records ingested documents; may be nil.
	ledger Ledger

	// mu guards ingested.
	mu sync.Mutex
	// ingested is the advisory in-memory list of document names ingested by
	// this process. Listing endpoints prefer the ledger when available.
	ingested []string
}

// NewPipeline constructs a Pipeline from the provided dependencies.
// extractor, embedder, store, and cache are required; ledger may be nil.
func NewPipeline(extractor ocr.Extractor, embedder rag.Embedder, store rag.VectorStore, cache *PageCache, cfg *Config, ledger Ledger) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ingestion: extractor must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("ingestion: cache must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var ck *chunker.Chunker
	if cfg.WindowSize == 0 && cfg.Overlap == 0 {
		ck = chunker.Default()
	} else {
		var err error
		ck, err = chunker.New(cfg.WindowSize, cfg.Overlap)
		if err != nil {
			return nil, fmt.Errorf("ingestion: %w", err)
		}
	}

	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		cache:     cache,
		chunker:   ck,
		ledger:    ledger,
	}, nil
}

// Ingest processes the PDF at path end to end and returns the number of
// chunks written to the index. A document whose pages carry no extractable
// text yields 0 with no index write — distinguishable in logs, but not an
// error. Provider failures surface as rag.ErrExtraction, rag.ErrEmbedding,
// or rag.ErrIndexWrite.
func (p *Pipeline) Ingest(ctx context.Context, path string) (int, error) {
	log := logging.FromContext(ctx)
	docName := filepath.Base(path)

	checksum, err := Checksum(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", rag.ErrExtraction, err)
	}

	pages, cached := p.cache.Load(docName, checksum)
	if cached {
		log.Info("ingestion: using cached page text",
			slog.String("document", docName),
			slog.Int("pages", len(pages)),
		)
	} else {
		pages, err = p.extractor.Extract(ctx, path)
		if err != nil {
			if errors.Is(err, rag.ErrExtraction) {
				return 0, err
			}
			return 0, fmt.Errorf("%w: %v", rag.ErrExtraction, err)
		}
		if err := p.cache.Store(docName, checksum, pages); err != nil {
			// Cache persistence is an optimisation; extraction succeeded.
			log.Warn("ingestion: failed to persist page cache",
				slog.String("document", docName),
				logging.Err(err),
			)
		}
	}

	docs, texts := p.buildChunks(docName, path, pages)
	if len(docs) == 0 {
		log.Info("ingestion: no extractable text, nothing written",
			slog.String("document", docName),
			slog.Int("pages", len(pages)),
		)
		return 0, nil
	}

	// One embedding call for the whole document. The embedder returns
	// vectors in input order; the count is asserted again here because a
	// mismatch would silently cross-wire chunks and vectors at upsert.
	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(embeddings) != len(texts) {
		return 0, fmt.Errorf("%w: expected %d embeddings, got %d", rag.ErrEmbedding, len(texts), len(embeddings))
	}

	if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
		return 0, err
	}

	if p.ledger != nil {
		if err := p.ledger.RecordDocument(ctx, docName, path, checksum, len(pages), len(docs)); err != nil {
			log.Warn("ingestion: failed to record document in ledger",
				slog.String("document", docName),
				logging.Err(err),
			)
		}
	}

	p.mu.Lock()
	p.ingested = append(p.ingested, docName)
	p.mu.Unlock()

	log.Info("ingestion: document ingested",
		slog.String("document", docName),
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(docs)),
		slog.Bool("cache_hit", cached),
	)
	return len(docs), nil
}

// buildChunks windows every non-empty page into chunks and returns the
// documents with their parallel text slice. Chunk sequence numbers restart
// at 1 on each page; pages are processed in ascending order so the index
// payloads are deterministic.
func (p *Pipeline) buildChunks(docName, path string, pages ocr.PageText) ([]rag.Document, []string) {
	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	baseName := strings.TrimSuffix(docName, filepath.Ext(docName))

	var docs []rag.Document
	var texts []string
	for _, page := range nums {
		text := pages[page]
		if strings.TrimSpace(text) == "" {
			continue
		}
		for i, chunk := range p.chunker.Chunk(text) {
			seq := i + 1
			docs = append(docs, rag.Document{
				ID:      VectorID(docName, page, seq),
				Content: chunk,
				Source:  path,
				Metadata: map[string]string{
					rag.DocumentKey: baseName,
					rag.FilenameKey: docName,
					rag.PageKey:     strconv.Itoa(page),
				},
			})
			texts = append(texts, chunk)
		}
	}
	return docs, texts
}

// Ingested returns a copy of the advisory in-memory list of document names
// ingested by this process, in ingestion order.
func (p *Pipeline) Ingested() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ingested))
	copy(out, p.ingested)
	return out
}
