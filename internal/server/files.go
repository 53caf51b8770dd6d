package server

import (
	"encoding/json"
	"net/http"

	"github.com/docq-ai/docq-go/internal/logging"
)

// handleFiles handles GET /api/files, listing every document recorded by
// the ledger. A server running without a ledger reports an empty list.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := filesResponse{Files: []string{}}
	if s.ledger != nil {
		records, err := s.ledger.List(r.Context())
		if err != nil {
			log.Error("files: ledger list failed", logging.Err(err))
			http.Error(w, "failed to list documents", http.StatusInternalServerError)
			return
		}
		for _, rec := range records {
			resp.Files = append(resp.Files, rec.Name)
		}
	}
	resp.Count = len(resp.Files)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
