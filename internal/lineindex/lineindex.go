// Package lineindex provides a numbered-line view over an immutable document
// and conversion between line coordinates and absolute byte offsets. An Index
// is built once per document and is safe for concurrent readers.
package lineindex

import (
	"sort"
	"strconv"
	"strings"
)

type span struct {
	start, end int // [start,end) excluding the trailing newline
}

// Index records the absolute byte span of every line in a document.
type Index struct {
	text  string
	lines []span
}

// New builds the index in a single pass over text. An empty document has one
// empty line, matching how editors number it.
func New(text string) *Index {
	idx := &Index{text: text}
	start := 0
	for {
		nl := strings.IndexByte(text[start:], '\n')
		if nl == -1 {
			idx.lines = append(idx.lines, span{start: start, end: len(text)})
			break
		}
		idx.lines = append(idx.lines, span{start: start, end: start + nl})
		start += nl + 1
	}
	return idx
}

// Count returns the number of lines.
func (ix *Index) Count() int { return len(ix.lines) }

// Text returns the full document the index was built over.
func (ix *Index) Text() string { return ix.text }

// Line returns the text of the 1-based line n, without its newline.
func (ix *Index) Line(n int) (string, bool) {
	if n < 1 || n > len(ix.lines) {
		return "", false
	}
	s := ix.lines[n-1]
	return ix.text[s.start:s.end], true
}

// Span returns the absolute [start,end) byte span of the 1-based line n,
// excluding the trailing newline.
func (ix *Index) Span(n int) (start, end int, ok bool) {
	if n < 1 || n > len(ix.lines) {
		return 0, 0, false
	}
	s := ix.lines[n-1]
	return s.start, s.end, true
}

// LineFor returns the 1-based line containing the byte offset, or 0 when the
// offset is outside the document. Offsets on a newline byte belong to the
// line the newline terminates.
func (ix *Index) LineFor(offset int) int {
	if offset < 0 || offset > len(ix.text) {
		return 0
	}
	n := sort.Search(len(ix.lines), func(i int) bool {
		return offset <= ix.lines[i].end
	})
	if n == len(ix.lines) {
		return len(ix.lines)
	}
	return n + 1
}

// Occurrences returns the absolute byte offset of every occurrence of
// snippet on the 1-based line n, in order. Overlapping occurrences count.
func (ix *Index) Occurrences(n int, snippet string) []int {
	line, ok := ix.Line(n)
	if !ok || snippet == "" {
		return nil
	}
	lineStart, _, _ := ix.Span(n)
	var offs []int
	from := 0
	for {
		i := strings.Index(line[from:], snippet)
		if i == -1 {
			return offs
		}
		offs = append(offs, lineStart+from+i)
		from += i + 1
		if from > len(line) {
			return offs
		}
	}
}

// Numbered renders the document with 1-based line number prefixes, the form
// handed to the external locator so its proposals can reference lines.
func (ix *Index) Numbered() string {
	var b strings.Builder
	b.Grow(len(ix.text) + len(ix.lines)*6)
	for i, s := range ix.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(ix.text[s.start:s.end])
	}
	return b.String()
}
