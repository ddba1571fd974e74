package locate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/reviewkit/textanchor/internal/ai"
	"github.com/reviewkit/textanchor/pkg/models"
)

const (
	// Boundary snippets shorter than this are too ambiguous to trust unless
	// the candidate text itself is that short.
	minSnippetLen = 3

	// Model-proposed locations are inherently less reliable than direct
	// search: scale the reported confidence and keep a floor so downstream
	// consumers can still rank them.
	modelConfidenceScale = 0.9
	modelConfidenceFloor = 0.7
)

// modelStrategy consults the external locator and converts its line-range
// proposal into verified offsets. Every field of the proposal is advisory:
// line numbers are bounds-checked, boundary snippets must actually occur on
// their designated lines, and repeated occurrences are disambiguated against
// the candidate's length. Any validation failure means not found.
type modelStrategy struct {
	client  ai.Client
	sem     *semaphore.Weighted
	timeout time.Duration
	explain bool
	logger  zerolog.Logger
}

func (modelStrategy) Name() models.Strategy { return models.StrategyLineModel }

func (s *modelStrategy) Locate(ctx context.Context, doc *Document, cand models.CandidateFinding) *models.TextLocation {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer s.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.LocateSpan(callCtx, ai.LocateRequest{
		SearchText:         cand.SearchText,
		Context:            cand.Context,
		NumberedDocument:   doc.Lines.Numbered(),
		IncludeExplanation: s.explain,
	})
	if err != nil {
		// Timeouts and transport errors are not retried; the candidate is
		// simply not locatable this pass.
		s.logger.Warn().Err(err).Str("search_text", cand.SearchText).Msg("model locate call failed")
		return nil
	}
	if !resp.Found {
		return nil
	}
	if s.explain && resp.Explanation != "" {
		s.logger.Debug().Str("search_text", cand.SearchText).Str("explanation", resp.Explanation).Msg("model explanation")
	}

	return convertProposal(doc, cand.SearchText, resp.Span)
}

// convertProposal validates a proposed span and fixes its absolute offsets.
func convertProposal(doc *Document, searchText string, span models.ModelProposedSpan) *models.TextLocation {
	lines := doc.Lines
	if span.StartLine < 1 || span.EndLine < span.StartLine || span.EndLine > lines.Count() {
		return nil
	}
	if !snippetTrusted(span.StartChars, searchText) || !snippetTrusted(span.EndChars, searchText) {
		return nil
	}

	starts := lines.Occurrences(span.StartLine, span.StartChars)
	if len(starts) == 0 {
		return nil
	}
	ends := lines.Occurrences(span.EndLine, span.EndChars)
	if len(ends) == 0 {
		return nil
	}

	// Prefer the start/end combination whose span length is closest to the
	// candidate's own length; ties fall back to the earliest occurrence.
	best := -1
	var bestStart, bestEnd int
	for _, s := range starts {
		for _, e := range ends {
			end := e + len(span.EndChars)
			if end <= s {
				continue
			}
			d := end - s - len(searchText)
			if d < 0 {
				d = -d
			}
			if best == -1 || d < best {
				best, bestStart, bestEnd = d, s, end
			}
		}
	}
	if best == -1 {
		return nil
	}

	conf := span.Confidence * modelConfidenceScale
	if conf < modelConfidenceFloor {
		conf = modelConfidenceFloor
	}
	return &models.TextLocation{
		StartOffset: bestStart,
		EndOffset:   bestEnd,
		QuotedText:  doc.Text[bestStart:bestEnd],
		Strategy:    models.StrategyLineModel,
		Confidence:  conf,
	}
}

// snippetTrusted rejects boundary snippets so short they would pin spans to
// bare punctuation, unless the candidate text is itself that short.
func snippetTrusted(snippet, searchText string) bool {
	if snippet == "" {
		return false
	}
	return len(snippet) >= minSnippetLen || len(searchText) < minSnippetLen
}
