// Package engine implements the retrieval-augmented query engine: embed the
// question, fetch the nearest chunks from the vector index, assemble them
// into a fixed-format prompt, and generate an answer in batch or streaming
// mode.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/budget"
	"github.com/docq-ai/docq-go/internal/logging"
	"github.com/docq-ai/docq-go/internal/rag"
)

// systemPrompt constrains the assistant to the retrieved context and keeps
// answers terse.
const systemPrompt = "You are a concise assistant. Use only the provided context to answer clearly and briefly. " +
	"Avoid fluff. Answer in 1–3 sentences with key facts."

// Generation parameter defaults, applied when Options fields are zero.
const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 3
	// DefaultMaxTokens caps the generated answer length.
	DefaultMaxTokens = 500
	// DefaultTemperature keeps answers close to the retrieved facts.
	DefaultTemperature = 0.2
)

// Options carries the per-question generation parameters.
type Options struct {
	// TopK is the number of nearest chunks to retrieve. Defaults to 3.
	TopK int
	// Temperature controls answer randomness. A nil pointer selects the
	// default (0.2); an explicit zero requests deterministic generation.
	Temperature *float32
	// MaxTokens caps the answer length. Defaults to 500.
	MaxTokens int
}

// Engine answers questions against the ingested corpus. It is safe for
// concurrent use; each call issues its own retrieval and generation requests.
type Engine struct {
	// retriever fetches the most relevant chunks for a question.
	retriever rag.Retriever
	// chat generates the answer text.
	chat model.ChatModel //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	// maxContextTokens bounds the estimated size of the assembled prompt.
	maxContextTokens int
}

// New constructs an Engine. retriever and chat are required.
func New(retriever rag.Retriever, chat model.ChatModel, maxContextTokens int) (*Engine, error) { //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream; migration tracked separately
	if retriever == nil {
		return nil, fmt.Errorf("engine: retriever must not be nil")
	}
	if chat == nil {
		return nil, fmt.Errorf("engine: chat model must not be nil")
	}
	if maxContextTokens <= 0 {
		maxContextTokens = budget.DefaultMaxContextTokens
	}
	return &Engine{
		retriever:        retriever,
		chat:             chat,
		maxContextTokens: maxContextTokens,
	}, nil
}

// Answer runs the full retrieval-augmented flow and returns the complete,
// trimmed answer text. Provider failures surface as rag.ErrEmbedding,
// rag.ErrIndexQuery, or rag.ErrGeneration.
func (e *Engine) Answer(ctx context.Context, question string, opts Options) (string, error) {
	msgs, callOpts, err := e.prepare(ctx, question, opts)
	if err != nil {
		return "", err
	}

	msg, err := e.chat.Generate(ctx, msgs, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rag.ErrGeneration, err)
	}
	return strings.TrimSpace(msg.Content), nil
}

// AnswerStream runs the same flow as Answer but returns the provider's
// incremental message stream. The caller must drain or Close the stream;
// abandoning it early releases the underlying connection via Close. Each
// call issues a fresh generation request — streams are not restartable.
func (e *Engine) AnswerStream(ctx context.Context, question string, opts Options) (*schema.StreamReader[*schema.Message], error) {
	msgs, callOpts, err := e.prepare(ctx, question, opts)
	if err != nil {
		return nil, err
	}

	sr, err := e.chat.Stream(ctx, msgs, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrGeneration, err)
	}
	return sr, nil
}

// prepare retrieves context for the question and assembles the prompt plus
// the per-call model options.
func (e *Engine) prepare(ctx context.Context, question string, opts Options) ([]*schema.Message, []model.Option, error) {
	if strings.TrimSpace(question) == "" {
		return nil, nil, fmt.Errorf("engine: question must not be empty")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	docs, err := e.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, nil, err
	}

	// Trim the weakest matches when the assembled prompt would overflow the
	// context budget. The scaffolding estimate is the full message pair with
	// an empty context slot.
	scaffolding := budget.EstimateMessages([]*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer briefly:", "", question)),
	})
	docs, droppedDocs := budget.TrimDocuments(docs, scaffolding, e.maxContextTokens)
	if droppedDocs > 0 {
		logging.FromContext(ctx).Warn("engine: dropped retrieved chunks to fit context budget",
			slog.Int("dropped", droppedDocs),
			slog.Int("kept", len(docs)),
		)
	}

	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer briefly:", buildContext(docs), question)),
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	callOpts := []model.Option{
		model.WithTemperature(temperature),
		model.WithMaxTokens(maxTokens),
	}
	return msgs, callOpts, nil
}

// buildContext concatenates the retrieved chunk contents in index order,
// separated by a blank line.
func buildContext(docs []rag.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ForEachFragment drains a message stream, invoking fn once per non-empty
// text fragment in arrival order. Fragments carrying no textual delta
// (role-only or empty deltas) are skipped. The stream is always closed
// before returning, including when fn returns an error and the rest of the
// stream is abandoned.
func ForEachFragment(sr *schema.StreamReader[*schema.Message], fn func(fragment string) error) error {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", rag.ErrGeneration, err)
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if err := fn(msg.Content); err != nil {
			return err
		}
	}
}
