package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docq-ai/docq-go/internal/rag"
)

func TestOpenAIEmbed_ParallelAndOrdered(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		// Return data out of order to exercise index-based reassembly.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.2, 0.2}},
				{"index": 0, "embedding": []float32{0.1, 0.1}},
			},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small"})

	got, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 embeddings, got %d", len(got))
	}
	if got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Errorf("embeddings not reordered by index: %v", got)
	}
}

func TestOpenAIEmbed_AzureMode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/deployments/embed-deploy/embeddings" {
			t.Errorf("unexpected path %s", got)
		}
		if got := r.URL.Query().Get("api-version"); got != "2025-04-01-preview" {
			t.Errorf("unexpected api-version %q", got)
		}
		if got := r.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("unexpected api-key header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{
		BaseURL:    srv.URL,
		APIKey:     "azure-key",
		Model:      "embed-deploy",
		Azure:      true,
		APIVersion: "2025-04-01-preview",
	})

	if _, err := e.Embed(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
}

func TestOpenAIEmbed_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	_, err := e.Embed(context.Background(), []string{"x"})
	if !errors.Is(err, rag.ErrEmbedding) {
		t.Fatalf("want rag.ErrEmbedding, got %v", err)
	}
}

func TestOpenAIEmbed_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1}}},
		})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})

	_, err := e.Embed(context.Background(), []string{"one", "two"})
	if !errors.Is(err, rag.ErrEmbedding) {
		t.Fatalf("want rag.ErrEmbedding for count mismatch, got %v", err)
	}
}

func TestOllamaEmbed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.5, 0.5}, {0.6, 0.6}},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})

	got, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 || got[1][0] != 0.6 {
		t.Errorf("unexpected embeddings: %v", got)
	}
}

func TestOllamaEmbed_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "missing"})

	_, err := e.Embed(context.Background(), []string{"x"})
	if !errors.Is(err, rag.ErrEmbedding) {
		t.Fatalf("want rag.ErrEmbedding, got %v", err)
	}
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		name              string
		embeddingProvider string
		modelProvider     string
		want              string
	}{
		{"explicit wins", "ollama", "openai", "ollama"},
		{"inherits ollama", "", "ollama", "ollama"},
		{"inherits azure", "", "azure", "azure"},
		{"gemini falls back to openai", "", "gemini", "openai"},
		{"default openai", "", "", "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("EMBEDDING_PROVIDER", tt.embeddingProvider)
			t.Setenv("MODEL_PROVIDER", tt.modelProvider)
			if got := ResolveBackend(); got != tt.want {
				t.Errorf("ResolveBackend() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewFromEnv_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("MODEL_API_KEY", "")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected error for missing OpenAI API key")
	}
}

func TestDefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("openai dimensions = %d, want 1536", got)
	}
	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama dimensions = %d, want 768", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "256")
	if got := DefaultDimensions("openai"); got != 256 {
		t.Errorf("dimensions override = %d, want 256", got)
	}
}
