package ai

import (
	"encoding/json"
	"strings"

	"github.com/reviewkit/textanchor/pkg/models"
)

const systemPrompt = "You locate text in numbered documents. Given a description of text and a document whose lines are prefixed with \"N: \", reply with strict JSON only: {\"found\": bool, \"start_line\": int, \"end_line\": int, \"start_chars\": string, \"end_chars\": string, \"confidence\": number, \"explanation\": string}. start_line and end_line are 1-based inclusive line numbers. start_chars is the first ~6 characters of the span as they appear on start_line; end_chars is the last ~6 characters as they appear on end_line. Copy both snippets exactly from the document, not from the description. confidence is between 0 and 1. If the text is not in the document, reply {\"found\": false}. No markdown, no code fences."

// Keep request small; long documents get cut mid-line rather than risk an
// oversized prompt.
const maxPromptDocument = 400_000

func buildUserPrompt(req LocateRequest) string {
	var b strings.Builder
	b.WriteString("Text to locate: ")
	b.WriteString(req.SearchText)
	if req.Context != "" {
		b.WriteString("\nDisambiguating context: ")
		b.WriteString(req.Context)
	}
	if req.IncludeExplanation {
		b.WriteString("\nInclude a one-sentence explanation.")
	}
	doc := req.NumberedDocument
	if len(doc) > maxPromptDocument {
		doc = doc[:maxPromptDocument]
	}
	b.WriteString("\n---\n")
	b.WriteString(doc)
	return b.String()
}

type locateReply struct {
	Found       bool    `json:"found"`
	StartLine   int     `json:"start_line"`
	EndLine     int     `json:"end_line"`
	StartChars  string  `json:"start_chars"`
	EndChars    string  `json:"end_chars"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// parseLocateReply turns raw model output into a tagged response. Anything
// that does not decode as the expected JSON object is treated as not-found;
// a malformed reply is never partially trusted.
func parseLocateReply(raw string) LocateResponse {
	raw = strings.TrimSpace(raw)
	// Models occasionally wrap JSON in code fences despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var reply locateReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return LocateResponse{Found: false}
	}
	if !reply.Found {
		return LocateResponse{Found: false}
	}
	if reply.Confidence < 0 {
		reply.Confidence = 0
	}
	if reply.Confidence > 1 {
		reply.Confidence = 1
	}
	return LocateResponse{
		Found: true,
		Span: models.ModelProposedSpan{
			StartLine:  reply.StartLine,
			EndLine:    reply.EndLine,
			StartChars: reply.StartChars,
			EndChars:   reply.EndChars,
			Confidence: reply.Confidence,
		},
		Explanation: reply.Explanation,
	}
}
