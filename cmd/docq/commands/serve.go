package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/server"
	"github.com/docq-ai/docq-go/internal/tracing"
)

// NewServeCmd constructs the `docq serve` command, which starts the HTTP
// server exposing the upload, ask, and files endpoints.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the docq HTTP server",
		Long: `Start the docq HTTP server on localhost.

The server exposes:
  POST /api/upload   multipart PDF upload and ingestion
  POST /api/ask      streamed question answering (text/plain)
  GET  /api/files    list of ingested documents
  GET  /api/health   liveness probe
  GET  /api/ready    readiness probe (checks Qdrant and OCR reachability)
  GET  /metrics      Prometheus metrics

Set DOCQ_API_KEY to require Bearer authentication on the /api routes.

Examples:
  docq serve
  docq serve --port 9090
  MODEL_PROVIDER=ollama docq serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in; flush buffered traces on exit.
			flush := tracing.Enable(log)
			defer flush()

			pipeline, qs, ledger, cleanup, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer cleanup()

			eng, err := buildEngine(ctx, qs)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{server.NewQdrantPinger(qs.Client())}
			if endpoint := os.Getenv("OCR_ENDPOINT"); endpoint != "" && os.Getenv("MISTRAL_API_KEY") != "" {
				pingers = append(pingers, server.NewEndpointPinger("ocr", endpoint))
			}

			srvCfg := &server.Config{
				Host:       host,
				Port:       port,
				StorageDir: storageDir(),
				Logger:     log,
				Pingers:    pingers,
				APIKey:     os.Getenv("DOCQ_API_KEY"),
			}

			// Pass an untyped nil when the ledger is disabled so the server
			// sees a truly nil lister rather than a typed-nil interface.
			var srv *server.Server
			if ledger != nil {
				srv, err = server.New(pipeline, eng, ledger, srvCfg)
			} else {
				srv, err = server.New(pipeline, eng, nil, srvCfg)
			}
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
