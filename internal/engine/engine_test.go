package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/rag"
)

// fakeRetriever returns canned documents.
type fakeRetriever struct {
	docs    []rag.Document
	err     error
	gotTopK int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]rag.Document, error) {
	f.gotTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

// fakeChat returns a fixed answer, in one piece for Generate and split into
// fragments (with empty deltas interleaved) for Stream.
type fakeChat struct {
	answer   string
	err      error
	gotMsgs  []*schema.Message
	streamed bool
}

func (f *fakeChat) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.gotMsgs = msgs
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.answer, nil), nil
}

func (f *fakeChat) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.gotMsgs = msgs
	f.streamed = true
	if f.err != nil {
		return nil, f.err
	}
	// Split the answer into small deltas and sprinkle in empty ones, which
	// consumers must skip.
	var out []*schema.Message
	out = append(out, schema.AssistantMessage("", nil))
	for _, word := range strings.SplitAfter(f.answer, " ") {
		out = append(out, schema.AssistantMessage(word, nil))
		out = append(out, schema.AssistantMessage("", nil))
	}
	return schema.StreamReaderFromArray(out), nil
}

func (f *fakeChat) BindTools(tools []*schema.ToolInfo) error { return nil }

func newTestEngine(t *testing.T, r rag.Retriever, c model.ChatModel) *Engine { //nolint:staticcheck // SA1019: model.ChatModel deprecated upstream
	t.Helper()
	e, err := New(r, c, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestAnswer_PromptAssembly(t *testing.T) {
	t.Parallel()

	r := &fakeRetriever{docs: []rag.Document{
		{ID: "a", Content: "First chunk."},
		{ID: "b", Content: "Second chunk."},
	}}
	c := &fakeChat{answer: "  The answer.  "}
	e := newTestEngine(t, r, c)

	got, err := e.Answer(context.Background(), "What is it?", Options{})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "The answer." {
		t.Errorf("answer not trimmed: %q", got)
	}
	if r.gotTopK != DefaultTopK {
		t.Errorf("topK = %d, want %d", r.gotTopK, DefaultTopK)
	}

	if len(c.gotMsgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(c.gotMsgs))
	}
	if c.gotMsgs[0].Role != schema.System {
		t.Errorf("first message role = %s, want system", c.gotMsgs[0].Role)
	}
	user := c.gotMsgs[1].Content
	wantCtx := "Context:\nFirst chunk.\n\nSecond chunk.\n\nQuestion: What is it?\n\nAnswer briefly:"
	if user != wantCtx {
		t.Errorf("user message = %q, want %q", user, wantCtx)
	}
}

func TestAnswer_TrimsWeakestChunksToFitBudget(t *testing.T) {
	t.Parallel()

	strong := strings.Repeat("strong match. ", 29) // ~400 chars, ~100 tokens
	weak := strings.Repeat("weak match. ", 34)
	r := &fakeRetriever{docs: []rag.Document{
		{ID: "a", Content: strong},
		{ID: "b", Content: weak},
	}}
	c := &fakeChat{answer: "ok"}

	// Budget fits the scaffolding plus one chunk but not both.
	e, err := New(r, c, 200)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Answer(context.Background(), "q", Options{}); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	user := c.gotMsgs[1].Content
	if !strings.Contains(user, "strong match.") {
		t.Error("best-ranked chunk missing from prompt")
	}
	if strings.Contains(user, "weak match.") {
		t.Error("weakest chunk should have been trimmed from the prompt")
	}
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, &fakeRetriever{}, &fakeChat{})
	if _, err := e.Answer(context.Background(), "   ", Options{}); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestAnswer_RetrievalFailurePropagates(t *testing.T) {
	t.Parallel()

	r := &fakeRetriever{err: rag.ErrIndexQuery}
	e := newTestEngine(t, r, &fakeChat{})

	_, err := e.Answer(context.Background(), "q", Options{})
	if !errors.Is(err, rag.ErrIndexQuery) {
		t.Fatalf("want rag.ErrIndexQuery, got %v", err)
	}
}

func TestAnswer_GenerationFailure(t *testing.T) {
	t.Parallel()

	c := &fakeChat{err: errors.New("model overloaded")}
	e := newTestEngine(t, &fakeRetriever{}, c)

	_, err := e.Answer(context.Background(), "q", Options{})
	if !errors.Is(err, rag.ErrGeneration) {
		t.Fatalf("want rag.ErrGeneration, got %v", err)
	}
}

func TestAnswerStream_ConcatEqualsBatch(t *testing.T) {
	t.Parallel()

	r := &fakeRetriever{docs: []rag.Document{{ID: "a", Content: "ctx"}}}
	c := &fakeChat{answer: "Paris is the capital of France."}
	e := newTestEngine(t, r, c)

	zero := float32(0)
	opts := Options{Temperature: &zero}

	batch, err := e.Answer(context.Background(), "Capital of France?", opts)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	sr, err := e.AnswerStream(context.Background(), "Capital of France?", opts)
	if err != nil {
		t.Fatalf("AnswerStream: %v", err)
	}

	var b strings.Builder
	if err := ForEachFragment(sr, func(fragment string) error {
		if fragment == "" {
			t.Error("empty fragment must be skipped before fn is called")
		}
		b.WriteString(fragment)
		return nil
	}); err != nil {
		t.Fatalf("ForEachFragment: %v", err)
	}

	if strings.TrimSpace(b.String()) != batch {
		t.Errorf("stream concat = %q, batch = %q", b.String(), batch)
	}
	if !c.streamed {
		t.Error("AnswerStream must use the streaming provider call")
	}
}

func TestForEachFragment_EarlyStop(t *testing.T) {
	t.Parallel()

	sr := schema.StreamReaderFromArray([]*schema.Message{
		schema.AssistantMessage("one", nil),
		schema.AssistantMessage("two", nil),
		schema.AssistantMessage("three", nil),
	})

	stop := errors.New("stop")
	var got []string
	err := ForEachFragment(sr, func(fragment string) error {
		got = append(got, fragment)
		if len(got) == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("want stop error, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("fragments consumed = %d, want 2", len(got))
	}
}
