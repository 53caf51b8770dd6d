package rag

import "errors"

// Sentinel error kinds for the ingestion and query paths. Each provider
// failure is wrapped with exactly one of these so callers can classify the
// failure with errors.Is without parsing message text. No step retries or
// suppresses these — the first failure propagates to the caller.
var (
	// ErrExtraction indicates the OCR call failed or produced no usable text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding indicates the embedding call failed or returned a result
	// count that does not match the input count.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexWrite indicates a vector index upsert failed.
	ErrIndexWrite = errors.New("vector index write failed")

	// ErrIndexQuery indicates a vector index similarity search failed.
	ErrIndexQuery = errors.New("vector index query failed")

	// ErrGeneration indicates the chat completion call failed.
	ErrGeneration = errors.New("answer generation failed")
)
