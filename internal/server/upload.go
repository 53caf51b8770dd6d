package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docq-ai/docq-go/internal/logging"
)

// maxUploadBytes caps the accepted PDF size at 100 MiB.
const maxUploadBytes = 100 << 20

// handleUpload handles POST /api/upload. It accepts a multipart form with a
// "file" field containing a PDF, saves it under <storage>/uploads/, and runs
// the full ingestion pipeline. A non-PDF filename is rejected with 400
// before any core logic runs.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "multipart form with a \"file\" field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		s.metrics.ingestDocumentsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, "only PDF files are allowed", http.StatusBadRequest)
		return
	}

	savedPath, err := s.saveUpload(file, filename)
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("error").Inc()
		log.Error("upload: failed to save file", logging.Err(err))
		http.Error(w, "failed to save uploaded file", http.StatusInternalServerError)
		return
	}

	chunks, err := s.pipeline.Ingest(r.Context(), savedPath)
	if err != nil {
		s.metrics.ingestDocumentsTotal.WithLabelValues("error").Inc()
		log.Error("upload: ingestion failed", logging.Err(err))
		http.Error(w, fmt.Sprintf("error processing PDF: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.ingestDocumentsTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestChunksTotal.Add(float64(chunks))
	s.metrics.ingestDurationSeconds.Observe(time.Since(start).Seconds())

	message := fmt.Sprintf("PDF %q processed successfully", filename)
	if chunks == 0 {
		// Still a success, but callers should know nothing was indexed.
		message = fmt.Sprintf("PDF %q contained no extractable text; nothing was indexed", filename)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(uploadResponse{
		Status:    "success",
		Message:   message,
		Filename:  filename,
		SavedPath: savedPath,
		Chunks:    chunks,
	})
}

// saveUpload writes the uploaded file under <storage>/uploads/ and returns
// the saved path. Re-uploading the same filename overwrites the previous
// copy, matching the overwrite semantics of re-ingestion at the index.
func (s *Server) saveUpload(file io.Reader, filename string) (string, error) {
	dir := filepath.Join(s.cfg.StorageDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
