// Package ocr extracts per-page text from PDF documents.
// The production implementation talks to the Mistral OCR REST API via plain
// HTTP — no additional SDK dependencies are required. The Extractor interface
// lets the ingestion pipeline substitute a fake in tests.
package ocr

import "context"

// PageText maps 1-based page numbers to the extracted text of that page.
// Produced once per document; pages with no recognisable text are absent.
type PageText map[int]string

// Extractor is the interface for converting a PDF into per-page text.
// Implementations must be safe to call from multiple goroutines.
type Extractor interface {
	// Extract runs OCR over the whole PDF at path and returns the per-page
	// text, markdown preferred. A failure of the call is reported as a single
	// error — partial-page failures are not modeled.
	Extract(ctx context.Context, path string) (PageText, error)
}
