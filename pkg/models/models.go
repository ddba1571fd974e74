package models

// Strategy identifies which location strategy produced a TextLocation.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategyFuzzy     Strategy = "fuzzy"
	StrategyLineModel Strategy = "line-model"
)

// TextLocation is a verified highlight span in a document. StartOffset and
// EndOffset are absolute byte offsets into the document text, end exclusive,
// and QuotedText is always exactly documentText[StartOffset:EndOffset].
type TextLocation struct {
	StartOffset int      `json:"start_offset"`
	EndOffset   int      `json:"end_offset"`
	QuotedText  string   `json:"quoted_text"`
	Strategy    Strategy `json:"strategy"`
	Confidence  float64  `json:"confidence"`
}

// ChunkRef ties a candidate to the document sub-span it was produced from.
// Text is the chunk's own content, which is the candidate's local coordinate
// space. A negative DocumentStartOffset means the chunk's position in the
// document is unknown and chunk-local offsets cannot be translated.
type ChunkRef struct {
	ID                  string `json:"id"`
	DocumentStartOffset int    `json:"document_start_offset"`
	Text                string `json:"text"`
}

// CandidateFinding is an unverified claim that described text exists
// somewhere in the document. SearchText may be paraphrased, truncated or
// reformatted relative to the source.
type CandidateFinding struct {
	SearchText string    `json:"search_text"`
	Context    string    `json:"context,omitempty"`
	Chunk      *ChunkRef `json:"chunk,omitempty"`
}

// LocatedFinding is a candidate promoted with a verified location.
type LocatedFinding struct {
	CandidateFinding
	Location TextLocation `json:"location"`
}

// ModelProposedSpan is an untrusted span proposal from the external locator:
// 1-based inclusive line numbers plus short boundary snippets pinning down
// where on those lines the span starts and ends. It must be validated and
// converted before it can become a TextLocation.
type ModelProposedSpan struct {
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	StartChars string  `json:"start_chars"`
	EndChars   string  `json:"end_chars"`
	Confidence float64 `json:"confidence"`
}

// BatchSummary reports the outcome of one batch resolution pass.
// MalformedCount covers candidates rejected before the cascade ran
// (empty search text); they are not search failures.
type BatchSummary struct {
	LocatedCount   int `json:"located_count"`
	DroppedCount   int `json:"dropped_count"`
	MalformedCount int `json:"malformed_count"`
}
