package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/engine"
	"github.com/docq-ai/docq-go/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// fakePipeline records Ingest calls and returns a canned result.
type fakePipeline struct {
	mu     sync.Mutex
	paths  []string
	chunks int
	err    error
}

func (f *fakePipeline) Ingest(_ context.Context, path string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

func (f *fakePipeline) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// fakeEngine records the question and options it was asked with and streams
// back a fixed list of fragments.
type fakeEngine struct {
	mu          sync.Mutex
	gotQuestion string
	gotOpts     engine.Options
	fragments   []string
	err         error
}

func (f *fakeEngine) AnswerStream(_ context.Context, question string, opts engine.Options) (*schema.StreamReader[*schema.Message], error) {
	f.mu.Lock()
	f.gotQuestion = question
	f.gotOpts = opts
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	msgs := make([]*schema.Message, 0, len(f.fragments))
	for _, fr := range f.fragments {
		msgs = append(msgs, &schema.Message{Role: schema.Assistant, Content: fr})
	}
	return schema.StreamReaderFromArray(msgs), nil
}

// fakeLedger returns a canned document list.
type fakeLedger struct {
	records []store.DocumentRecord
	err     error
}

func (f *fakeLedger) List(context.Context) ([]store.DocumentRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakePinger reports a fixed readiness outcome.
type fakePinger struct {
	name string
	err  error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }
func (p *fakePinger) Name() string               { return p.name }

// newTestServer builds a Server with a hermetic Prometheus registry, a quiet
// logger, a throwaway storage dir, and a rate limit high enough to never
// interfere with test traffic.
func newTestServer(t *testing.T, pipeline ingestor, eng answerer, ledger lister, cfg *Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = t.TempDir()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
		cfg.RateBurst = 1000
	}
	s, err := newWithRegistry(pipeline, eng, ledger, cfg, prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newWithRegistry: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s
}

func TestNewRejectsNilDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &fakeEngine{}, nil, nil); err == nil {
		t.Fatal("expected error for nil pipeline")
	}
	if _, err := New(&fakePipeline{}, nil, nil, nil); err == nil {
		t.Fatal("expected error for nil engine")
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestHandleReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		pingers    []Pinger
		wantStatus int
		wantReady  bool
	}{
		{
			name:       "no probes configured",
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "all dependencies healthy",
			pingers: []Pinger{
				&fakePinger{name: "qdrant"},
				&fakePinger{name: "ocr"},
			},
			wantStatus: http.StatusOK,
			wantReady:  true,
		},
		{
			name: "one dependency down",
			pingers: []Pinger{
				&fakePinger{name: "qdrant"},
				&fakePinger{name: "ocr", err: errors.New("connection refused")},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantReady:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, nil, &Config{Pingers: tt.pingers})

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body readyResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Ready != tt.wantReady {
				t.Errorf("ready = %v, want %v", body.Ready, tt.wantReady)
			}
			if len(body.Checks) != len(tt.pingers) {
				t.Errorf("checks = %d, want %d", len(body.Checks), len(tt.pingers))
			}
		})
	}
}

func TestHandleFiles(t *testing.T) {
	t.Parallel()

	t.Run("lists ledger records in order", func(t *testing.T) {
		t.Parallel()

		ledger := &fakeLedger{records: []store.DocumentRecord{
			{Name: "first.pdf"},
			{Name: "second.pdf"},
		}}
		s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, ledger, nil)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body filesResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Count != 2 {
			t.Errorf("count = %d, want 2", body.Count)
		}
		if len(body.Files) != 2 || body.Files[0] != "first.pdf" || body.Files[1] != "second.pdf" {
			t.Errorf("files = %v, want [first.pdf second.pdf]", body.Files)
		}
	})

	t.Run("nil ledger reports empty list", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, nil, nil)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body filesResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Count != 0 {
			t.Errorf("count = %d, want 0", body.Count)
		}
		if body.Files == nil {
			t.Error("files should encode as [] rather than null")
		}
	})

	t.Run("ledger error yields 500", func(t *testing.T) {
		t.Parallel()

		ledger := &fakeLedger{err: errors.New("db locked")}
		s := newTestServer(t, &fakePipeline{}, &fakeEngine{}, ledger, nil)

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}
