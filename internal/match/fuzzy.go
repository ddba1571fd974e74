package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/reviewkit/textanchor/pkg/models"
)

// FuzzyOptions tunes the fuzzy matcher. The zero value gives the defaults;
// the edit-budget thresholds are exposed because they are calibration
// constants, not load-bearing truths.
type FuzzyOptions struct {
	// NormalizeQuotes maps typographic quote characters to their ASCII
	// equivalents in both document and query before matching.
	NormalizeQuotes bool

	// MaxTermGap is the longest run of filler bytes tolerated between two
	// consecutive matched terms. Default 16.
	MaxTermGap int

	// AllowPartial accepts a span covering a leading majority of terms when
	// trailing terms cannot be found.
	AllowPartial bool

	// ShortTermLen and below must match exactly (default 2). LongTermLen
	// and above tolerate two edits (default 7, covering an adjacent
	// transposition); terms in between tolerate one.
	ShortTermLen int
	LongTermLen  int
}

const (
	defaultMaxTermGap   = 16
	defaultShortTermLen = 2
	defaultLongTermLen  = 7

	// bitap word size in sergi/go-diff; longer patterns are located by
	// prefix and extended by their remainder.
	bitapMaxBytes = 32

	fuzzyBaseConfidence = 0.85
	fuzzyBonus          = 0.05
	fuzzyMaxConfidence  = 0.95
)

func (o *FuzzyOptions) withDefaults() {
	if o.MaxTermGap <= 0 {
		o.MaxTermGap = defaultMaxTermGap
	}
	if o.ShortTermLen <= 0 {
		o.ShortTermLen = defaultShortTermLen
	}
	if o.LongTermLen <= 0 {
		o.LongTermLen = defaultLongTermLen
	}
}

func (o FuzzyOptions) maxEdits(termLen int) int {
	switch {
	case termLen <= o.ShortTermLen:
		return 0
	case termLen >= o.LongTermLen:
		return 2
	default:
		return 1
	}
}

// Fuzzy locates searchText in doc tolerating, per whitespace-separated term,
// a bounded number of character edits, plus a bounded filler run between
// terms. Term order is never relaxed: each term must appear after the
// previous one, so transposed word order fails here and falls through to the
// next strategy. The returned span runs from the first matched term's start
// to the last matched term's end in the original document.
func Fuzzy(doc, searchText string, opts FuzzyOptions) *models.TextLocation {
	opts.withDefaults()
	if strings.TrimSpace(searchText) == "" || doc == "" {
		return nil
	}

	ds := normalize(doc, opts.NormalizeQuotes)
	qs := normalize(searchText, opts.NormalizeQuotes)
	terms := strings.Fields(qs.norm)
	if len(terms) == 0 {
		return nil
	}

	dmp := diffmatchpatch.New()

	var spanStart, spanEnd int // byte offsets in ds.norm
	cursor := 0
	matched := 0
	for i, term := range terms {
		from, window := 0, len(ds.norm)
		if i > 0 {
			from = cursor
			window = opts.MaxTermGap + len(term) + opts.maxEdits(len(term)) + 1
		}
		start, end, ok := findTerm(dmp, ds.norm, from, window, term, opts.maxEdits(len(term)))
		if ok && i > 0 && start-cursor > opts.MaxTermGap {
			ok = false
		}
		if !ok {
			if opts.AllowPartial && partialAcceptable(matched, len(terms)) {
				return ds.location(doc, spanStart, spanEnd, fuzzyBaseConfidence)
			}
			return nil
		}
		if i == 0 {
			spanStart = start
		}
		cursor = end
		spanEnd = end
		matched++
	}

	loc := ds.location(doc, spanStart, spanEnd, fuzzyBaseConfidence)
	if loc == nil {
		return nil
	}
	if len(loc.QuotedText) == len(searchText) {
		loc.Confidence += fuzzyBonus
	}
	if strings.EqualFold(loc.QuotedText, searchText) {
		loc.Confidence += fuzzyBonus
	}
	if loc.Confidence > fuzzyMaxConfidence {
		loc.Confidence = fuzzyMaxConfidence
	}
	return loc
}

// partialAcceptable requires a leading majority of terms, and never fewer
// than two.
func partialAcceptable(matched, total int) bool {
	if matched < 2 {
		return false
	}
	return matched >= (total+1)/2
}

// findTerm locates term in text[from:from+window] and returns absolute
// [start,end) byte offsets of the matched extent in text.
func findTerm(dmp *diffmatchpatch.DiffMatchPatch, text string, from, window int, term string, edits int) (int, int, bool) {
	if from >= len(text) {
		return 0, 0, false
	}
	if window > len(text)-from {
		window = len(text) - from
	}
	slice := text[from : from+window]

	pattern := term
	if len(pattern) > bitapMaxBytes {
		pattern = truncateRunes(pattern, bitapMaxBytes)
	}
	if len(pattern) > window {
		return 0, 0, false
	}

	// A large distance keeps bitap's proximity penalty from vetoing matches
	// far into the window; ordering is enforced by the window itself.
	dmp.MatchDistance = 1 << 20
	dmp.MatchThreshold = (float64(edits) + 0.499) / float64(len(pattern))
	idx := dmp.MatchMain(slice, pattern, 0)
	if idx == -1 {
		return 0, 0, false
	}

	start, end, ok := bestExtent(text, from+idx, term, edits)
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}

// bestExtent fixes the matched region around a bitap hit: the start may be
// off by one when the term begins with an edit, and the end depends on how
// many insertions or deletions the match absorbed. The extent with the
// lowest edit distance to the term wins, rejected when even the best exceeds
// the edit budget.
func bestExtent(text string, hint int, term string, edits int) (int, int, bool) {
	bestStart, bestEnd, bestDist := 0, 0, edits+1
	for _, start := range []int{hint, hint - 1, hint + 1} {
		if start < 0 || start >= len(text) {
			continue
		}
		for delta := -edits; delta <= edits; delta++ {
			end := start + len(term) + delta
			if end <= start || end > len(text) {
				continue
			}
			d := levenshtein(text[start:end], term)
			if d < bestDist {
				bestStart, bestEnd, bestDist = start, end, d
			}
		}
	}
	if bestDist > edits {
		return 0, 0, false
	}
	return bestStart, bestEnd, true
}

// levenshtein is a plain byte-level edit distance; inputs here are short
// terms, so the quadratic cost is irrelevant.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// truncateRunes cuts s to at most n bytes on a rune boundary.
func truncateRunes(s string, n int) string {
	for n > 0 && n < len(s) {
		if (s[n] & 0xC0) != 0x80 {
			return s[:n]
		}
		n--
	}
	return s[:n]
}

// shadow is a normalized rendering of a text plus offset tables mapping
// every rune boundary back to the original byte offsets. Normalization is
// rune-for-rune, so rune indices line up between the two renderings even
// when byte lengths differ.
type shadow struct {
	norm    string
	origOff []int // origOff[r] = byte offset of rune r in the original
	normOff []int // normOff[r] = byte offset of rune r in norm
}

func normalize(text string, quotes bool) shadow {
	var b strings.Builder
	b.Grow(len(text))
	s := shadow{}
	for off, r := range text {
		s.origOff = append(s.origOff, off)
		s.normOff = append(s.normOff, b.Len())
		r = unicode.ToLower(r)
		if quotes {
			r = asciiQuote(r)
		}
		b.WriteRune(r)
	}
	s.origOff = append(s.origOff, len(text))
	s.norm = b.String()
	s.normOff = append(s.normOff, len(s.norm))
	return s
}

func asciiQuote(r rune) rune {
	switch r {
	case '‘', '’', '‚', '‹', '›', '`':
		return '\''
	case '“', '”', '„', '«', '»':
		return '"'
	}
	return r
}

// location maps a [start,end) span in the normalized text back to original
// byte offsets and builds the verified location. Start snaps down and end
// snaps up to rune boundaries.
func (s shadow) location(doc string, start, end int, confidence float64) *models.TextLocation {
	if end <= start {
		return nil
	}
	origStart := s.origOff[s.runeFloor(start)]
	origEnd := s.origOff[s.runeCeil(end)]
	if origEnd <= origStart {
		return nil
	}
	return &models.TextLocation{
		StartOffset: origStart,
		EndOffset:   origEnd,
		QuotedText:  doc[origStart:origEnd],
		Strategy:    models.StrategyFuzzy,
		Confidence:  confidence,
	}
}

func (s shadow) runeFloor(normByte int) int {
	r := sort.SearchInts(s.normOff, normByte)
	if r < len(s.normOff) && s.normOff[r] == normByte {
		return r
	}
	return r - 1
}

func (s shadow) runeCeil(normByte int) int {
	return sort.SearchInts(s.normOff, normByte)
}
