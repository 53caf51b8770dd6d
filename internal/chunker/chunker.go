// Package chunker splits extracted page text into overlapping word windows.
// Overlap is measured in whitespace-delimited words, not bytes, so chunk
// boundaries never cut a word in half and adjacent chunks share context for
// better retrieval quality.
package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultWindowSize is the number of words per chunk.
	DefaultWindowSize = 500
	// DefaultOverlap is the number of words shared between consecutive chunks.
	DefaultOverlap = 100
)

// Chunker produces overlapping word-window chunks with a fixed configuration.
// It is stateless and safe for concurrent use.
type Chunker struct {
	// windowSize is the maximum number of words per chunk.
	windowSize int
	// overlap is the number of words repeated from the previous chunk.
	overlap int
}

// New constructs a Chunker. windowSize must be positive; overlap must be
// non-negative and strictly smaller than windowSize, otherwise the window
// would never advance and chunking would loop forever.
func New(windowSize, overlap int) (*Chunker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("chunker: window size must be positive, got %d", windowSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must be non-negative, got %d", overlap)
	}
	if overlap >= windowSize {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than window size %d", overlap, windowSize)
	}
	return &Chunker{windowSize: windowSize, overlap: overlap}, nil
}

// Default returns a Chunker with the standard 500-word window and
// 100-word overlap.
func Default() *Chunker {
	c, err := New(DefaultWindowSize, DefaultOverlap)
	if err != nil {
		// Unreachable: the default constants satisfy New's invariants.
		panic(err)
	}
	return c
}

// Chunk splits text into overlapping word windows. The window advances by
// windowSize-overlap words per chunk; the final chunk may be shorter.
// Empty or whitespace-only text yields nil. The result is deterministic.
func (c *Chunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	stride := c.windowSize - c.overlap
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + c.windowSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// WindowSize returns the configured words-per-chunk limit.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured inter-chunk word overlap.
func (c *Chunker) Overlap() int { return c.overlap }
