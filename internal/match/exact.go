// Package match implements the local, in-memory location strategies: literal
// substring search and edit-tolerant fuzzy search. Both are pure functions
// over immutable document text; every returned location slices its quoted
// text directly from the document, so offsets and text cannot disagree.
package match

import (
	"strings"

	"github.com/reviewkit/textanchor/pkg/models"
)

// Exact returns the first literal occurrence of searchText in doc as a
// full-confidence location, or nil. No normalization is applied.
func Exact(doc, searchText string) *models.TextLocation {
	if searchText == "" {
		return nil
	}
	i := strings.Index(doc, searchText)
	if i == -1 {
		return nil
	}
	return &models.TextLocation{
		StartOffset: i,
		EndOffset:   i + len(searchText),
		QuotedText:  doc[i : i+len(searchText)],
		Strategy:    models.StrategyExact,
		Confidence:  1.0,
	}
}
