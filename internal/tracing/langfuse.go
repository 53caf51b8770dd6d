// Package tracing wires optional Langfuse observability into the eino
// callback chain. Tracing is opt-in: it activates only when the Langfuse
// key pair is present in the environment, so local development and tests run
// without any tracing side effects.
package tracing

import (
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// defaultHost is used when LANGFUSE_HOST is unset, matching a local
// docker-compose Langfuse deployment.
const defaultHost = "http://localhost:3000"

// Enable installs the Langfuse callback handler as a global eino handler when
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY are both set. It returns a
// flush function that must be called before process exit so buffered traces
// are delivered. When the keys are absent the returned flush is a no-op and
// tracing stays disabled.
func Enable(log *slog.Logger) func() {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		log.Debug("tracing disabled: LANGFUSE_PUBLIC_KEY or LANGFUSE_SECRET_KEY not set")
		return func() {}
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultHost
	}

	handler, flush := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      host,
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "docq",
	})
	callbacks.AppendGlobalHandlers(handler)
	log.Info("langfuse tracing enabled", slog.String("host", host))

	return flush
}
