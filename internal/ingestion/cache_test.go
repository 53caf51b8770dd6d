package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docq-ai/docq-go/internal/ocr"
)

func TestPageCache_RoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewPageCache(t.TempDir())
	pages := ocr.PageText{
		1: "# First page",
		2: "Second page text",
	}

	if err := cache.Store("report.pdf", "abc123", pages); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := cache.Load("report.pdf", "abc123")
	if !ok {
		t.Fatal("Load: expected cache hit")
	}
	if len(got) != 2 || got[1] != "# First page" || got[2] != "Second page text" {
		t.Errorf("unexpected cached pages: %v", got)
	}
}

func TestPageCache_RoundTripWidePageNumbers(t *testing.T) {
	t.Parallel()

	cache := NewPageCache(t.TempDir())
	pages := ocr.PageText{
		999:  "last three-digit page",
		1000: "first four-digit page",
		1234: "deep page",
	}

	if err := cache.Store("tome.pdf", "abc123", pages); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := cache.Load("tome.pdf", "abc123")
	if !ok {
		t.Fatal("Load: expected cache hit")
	}
	if len(got) != 3 {
		t.Fatalf("got %d pages, want 3: %v", len(got), got)
	}
	for page, text := range pages {
		if got[page] != text {
			t.Errorf("page %d = %q, want %q", page, got[page], text)
		}
	}
}

func TestPageCache_ChecksumMismatchIsMiss(t *testing.T) {
	t.Parallel()

	cache := NewPageCache(t.TempDir())
	if err := cache.Store("report.pdf", "abc123", ocr.PageText{1: "text"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	if _, ok := cache.Load("report.pdf", "different"); ok {
		t.Error("stale cache must not be reported as a hit")
	}
}

func TestPageCache_MissingDocIsMiss(t *testing.T) {
	t.Parallel()

	cache := NewPageCache(t.TempDir())
	if _, ok := cache.Load("never-stored.pdf", "abc123"); ok {
		t.Error("unknown document must be a cache miss")
	}
}

func TestPageCache_StoreReplacesStalePages(t *testing.T) {
	t.Parallel()

	cache := NewPageCache(t.TempDir())
	if err := cache.Store("report.pdf", "v1", ocr.PageText{1: "one", 2: "two", 3: "three"}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Re-ingestion of a shorter document must not leave the old page 3 behind.
	if err := cache.Store("report.pdf", "v2", ocr.PageText{1: "new one"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := cache.Load("report.pdf", "v2")
	if !ok {
		t.Fatal("expected cache hit after re-store")
	}
	if len(got) != 1 || got[1] != "new one" {
		t.Errorf("stale pages survived re-store: %v", got)
	}
}

func TestPageCache_FileLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cache := NewPageCache(root)
	if err := cache.Store("annual report.pdf", "sum", ocr.PageText{12: "p12"}); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Directory name is sanitised; page files are zero-padded.
	want := filepath.Join(root, "texts", "annual_report.pdf", "page_012.md")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected page file at %s: %v", want, err)
	}
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f.pdf")
	if err := os.WriteFile(path, []byte("same bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := Checksum(path)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	b, err := Checksum(path)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if a != b || a == "" {
		t.Errorf("checksum must be stable and non-empty: %q vs %q", a, b)
	}

	if err := os.WriteFile(path, []byte("changed bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Checksum(path)
	if err != nil {
		t.Fatalf("Checksum: %v", err)
	}
	if c == a {
		t.Error("checksum must change when content changes")
	}
}
