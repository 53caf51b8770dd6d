package ingestion

import (
	"crypto/md5" //nolint:gosec // not used for security, only for a stable fallback name
	"fmt"
	"strings"
)

// idAlphabet is the set of characters the vector index accepts in chunk
// identifiers. Everything else in a filename is replaced with "_".
func safeIDChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.' || r == '-':
		return true
	}
	return false
}

// SanitiseDocumentName maps a filename onto the index ID alphabet
// [A-Za-z0-9_.-]. Characters outside the alphabet become "_". If the result
// carries no original characters at all (stripping "_" leaves nothing), the
// MD5 hex digest of the original filename is used instead so two such
// filenames still produce distinguishable, non-empty IDs.
func SanitiseDocumentName(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, r := range filename {
		if safeIDChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	safe := b.String()
	if strings.Trim(safe, "_") == "" {
		return fmt.Sprintf("%x", md5.Sum([]byte(filename))) //nolint:gosec // stable fallback name, not a credential
	}
	return safe
}

// VectorID derives the deterministic chunk identifier for the given source
// filename, 1-based page number, and 1-based chunk sequence within that page.
// Chunk sequences restart at 1 on every page, so the page number must be part
// of the ID to keep chunks from different pages distinct. Same inputs always
// yield the same ID, so re-ingestion overwrites rather than duplicates.
func VectorID(filename string, page, seq int) string {
	return fmt.Sprintf("%s_p%d_%d", SanitiseDocumentName(filename), page, seq)
}
