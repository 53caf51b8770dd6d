package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/pdf"
)

// NewIngestCmd constructs the `docq ingest` command, which runs one or more
// PDFs through the OCR → chunk → embed → index pipeline.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file.pdf> [file.pdf ...]",
		Short: "Ingest PDF documents into the vector index",
		Long: `Extract text from PDF files, chunk it, embed it, and index it in Qdrant.

Page text is OCR'd via the Mistral OCR API when MISTRAL_API_KEY is set;
otherwise the PDF's embedded text layer is used (digital PDFs only).
Extracted pages are cached on disk keyed by file checksum, so re-ingesting
an unchanged document skips OCR entirely.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: docq-docs)
  MISTRAL_API_KEY      Mistral OCR API key (optional, enables OCR)
  EMBEDDING_*          Embedding backend overrides (see README)

Examples:
  docq ingest report.pdf
  docq ingest annual-2024.pdf annual-2025.pdf
  EMBEDDING_PROVIDER=ollama docq ingest scanned.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			pipeline, _, _, cleanup, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer cleanup()

			var failed int
			for _, path := range args {
				pages, err := pdf.Validate(path)
				if err != nil {
					log.Error("skipping unreadable file", slog.String("file", path), logging.Err(err))
					failed++
					continue
				}
				log.Info("ingesting", slog.String("file", path), slog.Int("pages", pages))

				chunks, err := pipeline.Ingest(ctx, path)
				if err != nil {
					log.Error("ingestion failed", slog.String("file", path), logging.Err(err))
					failed++
					continue
				}
				fmt.Printf("ingested %s (%d chunks)\n", path, chunks)
			}

			if failed > 0 {
				return fmt.Errorf("ingest: %d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}

	return cmd
}
