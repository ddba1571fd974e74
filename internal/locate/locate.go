// Package locate resolves candidate findings to verified character-offset
// highlights in a document. Strategies are tried in a fixed order, local and
// free first, the external model last; the first success wins and a
// candidate that no strategy can place is dropped, never guessed.
package locate

import (
	"context"

	"github.com/reviewkit/textanchor/internal/lineindex"
	"github.com/reviewkit/textanchor/internal/match"
	"github.com/reviewkit/textanchor/pkg/models"
)

// Document bundles immutable document text with its line index. Build once,
// share across concurrent resolutions.
type Document struct {
	Text  string
	Lines *lineindex.Index
}

// NewDocument indexes text for resolution.
func NewDocument(text string) *Document {
	return &Document{Text: text, Lines: lineindex.New(text)}
}

// Strategy is one way of locating a candidate in a document. A nil return
// means not found, definitively: strategies are never retried.
type Strategy interface {
	Name() models.Strategy
	Locate(ctx context.Context, doc *Document, cand models.CandidateFinding) *models.TextLocation
}

type exactStrategy struct{}

func (exactStrategy) Name() models.Strategy { return models.StrategyExact }

func (exactStrategy) Locate(_ context.Context, doc *Document, cand models.CandidateFinding) *models.TextLocation {
	return match.Exact(doc.Text, cand.SearchText)
}

type fuzzyStrategy struct {
	opts match.FuzzyOptions
}

func (fuzzyStrategy) Name() models.Strategy { return models.StrategyFuzzy }

func (s fuzzyStrategy) Locate(_ context.Context, doc *Document, cand models.CandidateFinding) *models.TextLocation {
	return match.Fuzzy(doc.Text, cand.SearchText, s.opts)
}
