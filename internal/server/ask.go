package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/docq-ai/docq-go/internal/engine"
	"github.com/docq-ai/docq-go/internal/logging"
)

// handleAsk handles POST /api/ask. The answer is streamed back as
// text/plain, one model fragment at a time, flushed as it arrives.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.askRequestsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.metrics.askRequestsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "question must not be empty", http.StatusBadRequest)
		return
	}

	opts := engine.Options{
		TopK:        engine.DefaultTopK,
		Temperature: req.Temperature,
		MaxTokens:   engine.DefaultMaxTokens,
	}
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.metrics.askRequestsTotal.WithLabelValues("error").Inc()
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sr, err := s.engine.AnswerStream(r.Context(), req.Question, opts)
	if err != nil {
		s.metrics.askRequestsTotal.WithLabelValues("error").Inc()
		log.Error("ask: failed to start answer stream", logging.Err(err))
		http.Error(w, "failed to answer question", http.StatusInternalServerError)
		return
	}

	s.metrics.askActiveStreams.Inc()
	defer s.metrics.askActiveStreams.Dec()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	err = engine.ForEachFragment(sr, func(fragment string) error {
		if _, werr := w.Write([]byte(fragment)); werr != nil {
			return werr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are already out; all we can do is log and cut the stream.
		s.metrics.askRequestsTotal.WithLabelValues("error").Inc()
		log.Error("ask: stream aborted", logging.Err(err))
		return
	}

	s.metrics.askRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.askDurationSeconds.Observe(time.Since(start).Seconds())
}
