package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleAsk(t *testing.T) {
	t.Parallel()

	t.Run("streams concatenated fragments as text", func(t *testing.T) {
		t.Parallel()

		eng := &fakeEngine{fragments: []string{"The ", "revenue ", "was ", "$4M."}}
		s := newTestServer(t, &fakePipeline{}, eng, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"What was the revenue?"}`))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("content-type = %q, want text/plain", ct)
		}
		if got := rec.Body.String(); got != "The revenue was $4M." {
			t.Errorf("body = %q, want %q", got, "The revenue was $4M.")
		}
		if eng.gotQuestion != "What was the revenue?" {
			t.Errorf("question = %q", eng.gotQuestion)
		}
	})

	t.Run("applies defaults when fields are omitted", func(t *testing.T) {
		t.Parallel()

		eng := &fakeEngine{fragments: []string{"ok"}}
		s := newTestServer(t, &fakePipeline{}, eng, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if eng.gotOpts.TopK != 3 {
			t.Errorf("topK = %d, want 3", eng.gotOpts.TopK)
		}
		if eng.gotOpts.MaxTokens != 500 {
			t.Errorf("maxTokens = %d, want 500", eng.gotOpts.MaxTokens)
		}
		if eng.gotOpts.Temperature != nil {
			t.Errorf("temperature = %v, want nil (engine default)", *eng.gotOpts.Temperature)
		}
	})

	t.Run("honors explicit overrides including zero temperature", func(t *testing.T) {
		t.Parallel()

		eng := &fakeEngine{fragments: []string{"ok"}}
		s := newTestServer(t, &fakePipeline{}, eng, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"q","top_k":5,"temperature":0,"max_tokens":42}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if eng.gotOpts.TopK != 5 {
			t.Errorf("topK = %d, want 5", eng.gotOpts.TopK)
		}
		if eng.gotOpts.MaxTokens != 42 {
			t.Errorf("maxTokens = %d, want 42", eng.gotOpts.MaxTokens)
		}
		if eng.gotOpts.Temperature == nil || *eng.gotOpts.Temperature != 0 {
			t.Errorf("temperature = %v, want explicit 0", eng.gotOpts.Temperature)
		}
	})

	t.Run("empty question is a 400", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"   "}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("engine failure before streaming is a 500", func(t *testing.T) {
		t.Parallel()

		eng := &fakeEngine{err: errors.New("index unreachable")}
		s := newTestServer(t, &fakePipeline{}, eng, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})

	t.Run("empty fragments are not written", func(t *testing.T) {
		t.Parallel()

		eng := &fakeEngine{fragments: []string{"", "Hello", "", " world"}}
		s := newTestServer(t, &fakePipeline{}, eng, nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/ask",
			strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if got := rec.Body.String(); got != "Hello world" {
			t.Errorf("body = %q, want %q", got, "Hello world")
		}
	})
}
