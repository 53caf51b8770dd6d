package ingestion

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docq-ai/docq-go/internal/ocr"
)

// sourceManifest is the file inside a document's cache directory that records
// the checksum of the PDF the cached pages were extracted from. A mismatch
// means the PDF changed and the cache is stale.
const sourceManifest = ".source"

// PageCache persists extracted page text under the storage directory so
// re-ingesting an unchanged document skips the OCR call entirely. Layout:
//
//	<root>/texts/<document>/page_001.md
//	<root>/texts/<document>/.source
//
// Page files are named by zero-padded 1-based page number. The cache is
// authoritative: a hit is only reported when the manifest checksum matches
// the current source PDF.
type PageCache struct {
	root string
}

// NewPageCache constructs a PageCache rooted at the given storage directory.
func NewPageCache(root string) *PageCache {
	return &PageCache{root: root}
}

// Checksum returns the SHA-256 hex digest of the file at path. It keys the
// cache manifest and the ingestion ledger.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ingestion: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("ingestion: hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Dir returns the cache directory for the named document.
func (c *PageCache) Dir(docName string) string {
	return filepath.Join(c.root, "texts", SanitiseDocumentName(docName))
}

// Load returns the cached page text for docName if the cache exists and was
// extracted from a PDF with the given checksum. The second return value
// reports whether the cache was usable.
func (c *PageCache) Load(docName, checksum string) (ocr.PageText, bool) {
	dir := c.Dir(docName)

	recorded, err := os.ReadFile(filepath.Join(dir, sourceManifest))
	if err != nil || string(recorded) != checksum {
		return nil, false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}

	pages := make(ocr.PageText)
	for _, e := range entries {
		// Page numbers are zero-padded to at least three digits but grow
		// wider for large documents, so the parse must not be width-limited.
		name := e.Name()
		if !strings.HasPrefix(name, "page_") || !strings.HasSuffix(name, ".md") {
			continue
		}
		page, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "page_"), ".md"))
		if err != nil || page < 1 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, false
		}
		pages[page] = string(data)
	}

	if len(pages) == 0 {
		return nil, false
	}
	return pages, true
}

// Store writes the extracted page text and the source checksum manifest.
// Any previously cached pages for the document are replaced.
func (c *PageCache) Store(docName, checksum string, pages ocr.PageText) error {
	dir := c.Dir(docName)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("ingestion: clear cache dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ingestion: create cache dir %s: %w", dir, err)
	}

	for page, text := range pages {
		name := fmt.Sprintf("page_%03d.md", page)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			return fmt.Errorf("ingestion: write %s: %w", name, err)
		}
	}

	// The manifest is written last so a partially written cache never
	// presents itself as valid.
	if err := os.WriteFile(filepath.Join(dir, sourceManifest), []byte(checksum), 0o644); err != nil {
		return fmt.Errorf("ingestion: write manifest: %w", err)
	}
	return nil
}
