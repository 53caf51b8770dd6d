package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docq-ai/docq-go/internal/engine"
	"github.com/docq-ai/docq-go/internal/logging"
)

// NewAskCmd constructs the `docq ask` command, which answers a single
// question against the indexed documents and streams the answer to stdout.
func NewAskCmd() *cobra.Command {
	var topK int
	var maxTokens int
	var temperature float32
	var noStream bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question about the ingested documents",
		Long: `Ask a natural language question against the indexed documents.

The most relevant chunks are retrieved from Qdrant and the chat model
answers briefly using only that context. The answer streams to stdout as
it is generated; use --no-stream to wait for the complete answer instead.

Examples:
  docq ask "what was the total revenue in 2024?"
  docq ask --top-k 5 "summarise the risk factors"
  MODEL_PROVIDER=ollama docq ask "who are the board members?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			qs, err := buildQdrantStore(ctx)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer qs.Close()

			eng, err := buildEngine(ctx, qs)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			opts := engine.Options{TopK: topK, MaxTokens: maxTokens}
			if cmd.Flags().Changed("temperature") {
				opts.Temperature = &temperature
			}

			question := args[0]

			if noStream {
				answer, err := eng.Answer(ctx, question, opts)
				if err != nil {
					return fmt.Errorf("ask: %w", err)
				}
				fmt.Println(answer)
				return nil
			}

			sr, err := eng.AnswerStream(ctx, question, opts)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			err = engine.ForEachFragment(sr, func(fragment string) error {
				_, werr := os.Stdout.WriteString(fragment)
				return werr
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", engine.DefaultTopK, "Number of chunks to retrieve")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", engine.DefaultMaxTokens, "Maximum answer length in tokens")
	cmd.Flags().Float32VarP(&temperature, "temperature", "t", 0, "Sampling temperature (default: model-specific)")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the full answer instead of streaming")

	return cmd
}
