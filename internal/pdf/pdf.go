// Package pdf provides local PDF inspection and text extraction via MuPDF
// (go-fitz). It backs ingest pre-flight validation and serves as the offline
// extraction fallback for born-digital PDFs when no OCR service is configured.
package pdf

import (
	"context"
	"fmt"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/docq-ai/docq-go/internal/ocr"
	"github.com/docq-ai/docq-go/internal/rag"
)

// Validate opens the file at path and confirms it is a readable PDF.
// It returns the page count on success.
func Validate(path string) (int, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return 0, fmt.Errorf("pdf: %s is not a PDF file", path)
	}
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("pdf: failed to open %s: %w", path, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// LocalExtractor implements ocr.Extractor using the PDF's embedded text
// layer. It works only for born-digital PDFs; scanned documents yield empty
// pages and need a real OCR backend.
type LocalExtractor struct{}

// NewLocalExtractor constructs a LocalExtractor.
func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

// Extract returns the per-page embedded text keyed by 1-based page number.
// Pages with no text layer are omitted.
func (e *LocalExtractor) Extract(ctx context.Context, path string) (ocr.PageText, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf: failed to open %s: %v", rag.ErrExtraction, path, err)
	}
	defer doc.Close()

	pages := make(ocr.PageText, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: pdf: %v", rag.ErrExtraction, err)
		}
		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf: page %d: %v", rag.ErrExtraction, i+1, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages[i+1] = text
	}
	return pages, nil
}
