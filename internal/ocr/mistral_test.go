package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestPDF writes a minimal PDF-shaped file and returns its path.
func writeTestPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewMistralClient_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewMistralClient(&MistralConfig{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestExtract_PerPageMarkdown(t *testing.T) {
	t.Parallel()

	var gotReq ocrRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ocr" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"pages": []map[string]any{
				{"index": 0, "markdown": "# Page one"},
				{"index": 1, "markdown": "", "text": "plain page two"},
				{"index": 2, "markdown": "", "text": ""},
			},
		})
	}))
	defer srv.Close()

	c, err := NewMistralClient(&MistralConfig{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewMistralClient: %v", err)
	}

	pages, err := c.Extract(context.Background(), writeTestPDF(t))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if gotReq.Model != DefaultModel {
		t.Errorf("model: got %q, want %q", gotReq.Model, DefaultModel)
	}
	if !strings.HasPrefix(gotReq.Document.DocumentURL, "data:application/pdf;base64,") {
		t.Errorf("document URL is not a base64 data URL: %q", gotReq.Document.DocumentURL[:40])
	}

	if len(pages) != 2 {
		t.Fatalf("want 2 pages, got %d", len(pages))
	}
	if pages[1] != "# Page one" {
		t.Errorf("page 1: got %q", pages[1])
	}
	// Plain text fallback when markdown is absent.
	if pages[2] != "plain page two" {
		t.Errorf("page 2: got %q", pages[2])
	}
	// A page the OCR model found nothing on stays absent.
	if _, ok := pages[3]; ok {
		t.Error("blank page 3 should be absent from the result")
	}
}

func TestExtract_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid api key"})
	}))
	defer srv.Close()

	c, err := NewMistralClient(&MistralConfig{BaseURL: srv.URL, APIKey: "bad"})
	if err != nil {
		t.Fatalf("NewMistralClient: %v", err)
	}

	_, err = c.Extract(context.Background(), writeTestPDF(t))
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("error should carry the API message, got %v", err)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	t.Parallel()

	c, err := NewMistralClient(&MistralConfig{BaseURL: "http://unused", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewMistralClient: %v", err)
	}
	if _, err := c.Extract(context.Background(), "/nonexistent/doc.pdf"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
