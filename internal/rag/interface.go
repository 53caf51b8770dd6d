// Package rag defines the interfaces for retrieval-augmented generation
// components: vector storage, document retrieval, and embedding.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// pipeline and query engine never depend on a specific backend.
package rag

import (
	"context"
)

// Metadata keys stored alongside every vector payload. The query engine
// reads ContentKey back at retrieval time to assemble the answer context.
const (
	// ContentKey holds the chunk's raw text in the index payload.
	ContentKey = "content"
	// SourceKey holds the source file path of the chunk's document.
	SourceKey = "source"
	// DocumentKey holds the document name (filename without extension).
	DocumentKey = "document_name"
	// FilenameKey holds the original uploaded filename, unsanitised.
	FilenameKey = "original_filename"
	// PageKey holds the 1-based page number the chunk came from.
	PageKey = "page"
	// ChunkKey holds the transport-safe chunk identifier. The index point ID
	// is derived from it deterministically, so re-ingestion overwrites.
	ChunkKey = "chunk_key"
)

// Document represents a unit of stored or retrieved knowledge: one chunk of
// a page's extracted text together with its provenance metadata.
type Document struct {
	// ID is the transport-safe unique identifier for this chunk,
	// restricted to the alphabet [A-Za-z0-9_.-].
	ID string

	// Content is the raw text content of the chunk.
	Content string

	// Source is the file path of the document the chunk came from.
	Source string

	// Metadata holds provenance key-value pairs (document name, page, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval (0.0–1.0).
	// Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed
	// embeddings. The embeddings slice must be parallel to docs —
	// embeddings[i] is the vector for docs[i]. Upserts are idempotent per
	// document ID: re-ingestion overwrites rather than duplicates.
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search performs a cosine similarity search and returns the top-k most
	// relevant documents with their payloads. Fewer than topK results are
	// returned without error when the index holds fewer vectors.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// Delete removes documents by their chunk IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines and must
// return embeddings in the same order as the input texts.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level interface used by the query engine to fetch
// relevant context for a question. It combines embedding and vector search.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the top-k most relevant documents for the given query.
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}
