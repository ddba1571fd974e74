package locate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/reviewkit/textanchor/internal/ai"
	"github.com/reviewkit/textanchor/internal/match"
	"github.com/reviewkit/textanchor/pkg/models"
)

// ErrNoDocument is returned when resolution is impossible in principle; all
// other failures are local to one candidate and surface through the summary.
var ErrNoDocument = errors.New("document text is empty")

// Config tunes one Locator. The zero value disables the model fallback and
// uses the defaults below for everything else.
type Config struct {
	NormalizeQuotes         bool
	AllowPartialMatch       bool
	UseModelFallback        bool
	IncludeModelExplanation bool

	// ModelTimeout bounds a single external locate call. ModelConcurrency
	// bounds how many such calls run at once across the batch; the local
	// strategies are unbounded.
	ModelTimeout     time.Duration
	ModelConcurrency int

	// Workers is the batch worker count.
	Workers int
}

const (
	defaultModelTimeout     = 30 * time.Second
	defaultModelConcurrency = 4
	defaultWorkers          = 8
)

func (c *Config) withDefaults() {
	if c.ModelTimeout <= 0 {
		c.ModelTimeout = defaultModelTimeout
	}
	if c.ModelConcurrency <= 0 {
		c.ModelConcurrency = defaultModelConcurrency
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
}

// Result aggregates one batch resolution pass. Located preserves the input
// order of the candidates that resolved. DroppedSearchTexts carries the
// original search text of every dropped candidate for diagnosis.
type Result struct {
	Located            []models.LocatedFinding
	Summary            models.BatchSummary
	DroppedSearchTexts []string
}

// Locator applies the resolution cascade across batches of candidates.
type Locator struct {
	strategies []Strategy
	logger     zerolog.Logger
	workers    int
}

// New builds a Locator. client may be nil, in which case the model fallback
// is disabled regardless of cfg.UseModelFallback. The logger is an injected
// capability; pass zerolog.Nop() to silence it.
func New(cfg Config, client ai.Client, logger zerolog.Logger) *Locator {
	cfg.withDefaults()

	strategies := []Strategy{
		exactStrategy{},
		fuzzyStrategy{opts: match.FuzzyOptions{
			NormalizeQuotes: cfg.NormalizeQuotes,
			AllowPartial:    cfg.AllowPartialMatch,
		}},
	}
	if cfg.UseModelFallback && client != nil {
		strategies = append(strategies, &modelStrategy{
			client:  client,
			sem:     semaphore.NewWeighted(int64(cfg.ModelConcurrency)),
			timeout: cfg.ModelTimeout,
			explain: cfg.IncludeModelExplanation,
			logger:  logger,
		})
	}

	return &Locator{
		strategies: strategies,
		logger:     logger,
		workers:    cfg.Workers,
	}
}

// Resolve runs the cascade for a single candidate against doc and returns
// the first strategy's verified location, or nil when every strategy
// exhausted. Later strategies are never attempted after a success.
func (l *Locator) Resolve(ctx context.Context, doc *Document, cand models.CandidateFinding) *models.TextLocation {
	for _, s := range l.strategies {
		loc := s.Locate(ctx, doc, cand)
		if loc == nil {
			continue
		}
		if !verified(doc.Text, loc) {
			// A strategy produced offsets that disagree with the document.
			// Dropping here is what keeps a bug from becoming a silently
			// wrong highlight.
			l.logger.Error().Str("strategy", string(s.Name())).Str("search_text", cand.SearchText).Msg("discarding unverifiable location")
			continue
		}
		return loc
	}
	return nil
}

type batchItem struct {
	index int
	cand  models.CandidateFinding
}

// LocateAll resolves every candidate against documentText. Candidate
// failures never abort the batch; they are dropped, counted and logged.
// Chunk-scoped candidates resolve inside their chunk's text and are
// translated back to document offsets before emission.
func (l *Locator) LocateAll(ctx context.Context, documentText string, cands []models.CandidateFinding) (Result, error) {
	if documentText == "" {
		return Result{}, ErrNoDocument
	}

	doc := NewDocument(documentText)
	located := make([]*models.LocatedFinding, len(cands))
	var malformed int

	workChan := make(chan batchItem, l.workers*2)
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				located[item.index] = l.resolveOne(ctx, doc, item.cand)
			}
		}()
	}

	for i, cand := range cands {
		if strings.TrimSpace(cand.SearchText) == "" {
			// Malformed input fails fast and is not a search failure.
			malformed++
			continue
		}
		select {
		case workChan <- batchItem{index: i, cand: cand}:
		case <-ctx.Done():
			close(workChan)
			wg.Wait()
			return Result{}, ctx.Err()
		}
	}
	close(workChan)
	wg.Wait()

	res := Result{Summary: models.BatchSummary{MalformedCount: malformed}}
	for i, lf := range located {
		if strings.TrimSpace(cands[i].SearchText) == "" {
			continue
		}
		if lf == nil {
			res.Summary.DroppedCount++
			res.DroppedSearchTexts = append(res.DroppedSearchTexts, cands[i].SearchText)
			l.logger.Debug().Str("search_text", cands[i].SearchText).Msg("candidate dropped")
			continue
		}
		res.Summary.LocatedCount++
		res.Located = append(res.Located, *lf)
	}

	l.logger.Info().
		Int("located", res.Summary.LocatedCount).
		Int("dropped", res.Summary.DroppedCount).
		Int("malformed", res.Summary.MalformedCount).
		Msg("batch resolution finished")
	return res, nil
}

// resolveOne handles one candidate end to end, including chunk translation.
func (l *Locator) resolveOne(ctx context.Context, doc *Document, cand models.CandidateFinding) *models.LocatedFinding {
	if cand.Chunk == nil {
		loc := l.Resolve(ctx, doc, cand)
		if loc == nil {
			return nil
		}
		return &models.LocatedFinding{CandidateFinding: cand, Location: *loc}
	}

	// Chunk-scoped: resolve in the chunk's own coordinate space, then
	// translate to document offsets and re-verify against the document.
	chunkDoc := NewDocument(cand.Chunk.Text)
	loc := l.Resolve(ctx, chunkDoc, cand)
	if loc == nil {
		return nil
	}
	abs, ok := Translate(cand.Chunk, *loc)
	if !ok {
		l.logger.Debug().Str("chunk", cand.Chunk.ID).Str("search_text", cand.SearchText).Msg("chunk position unknown, dropping")
		return nil
	}
	if !verified(doc.Text, &abs) {
		l.logger.Debug().Str("chunk", cand.Chunk.ID).Str("search_text", cand.SearchText).Msg("chunk text disagrees with document, dropping")
		return nil
	}
	return &models.LocatedFinding{CandidateFinding: cand, Location: abs}
}

// verified checks the one invariant everything downstream relies on.
func verified(doc string, loc *models.TextLocation) bool {
	if loc.StartOffset < 0 || loc.EndOffset > len(doc) || loc.EndOffset <= loc.StartOffset {
		return false
	}
	return doc[loc.StartOffset:loc.EndOffset] == loc.QuotedText
}
