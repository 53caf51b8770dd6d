// Package budget provides token budget estimation and retrieved-context
// trimming for answer generation. Because multiple chat backends with
// different tokenizers are supported, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters (English prose).
// This deliberately under-estimates token counts to leave headroom for
// model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"

	"github.com/docq-ai/docq-go/internal/rag"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English; using 3 would be
	// more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving room
	// for the prompt scaffolding and the generated answer.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message has a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// TrimDocuments drops the lowest-ranked retrieved documents until the total
// estimated token count of fixedTokens plus the remaining document contents
// fits within maxTokens. docs must be in relevance order (best match first);
// documents are dropped from the tail so the best matches survive.
//
// Returns the trimmed slice and the number of documents dropped. If even a
// single document exceeds the budget, the first document is still kept —
// answering from a truncated context beats answering from none.
func TrimDocuments(docs []rag.Document, fixedTokens, maxTokens int) ([]rag.Document, int) {
	if len(docs) == 0 {
		return docs, 0
	}

	dropped := 0
	for len(docs) > 1 {
		total := fixedTokens
		for _, d := range docs {
			total += Estimate(d.Content)
		}
		if total <= maxTokens {
			break
		}
		// Drop the weakest match.
		docs = docs[:len(docs)-1]
		dropped++
	}
	return docs, dropped
}
