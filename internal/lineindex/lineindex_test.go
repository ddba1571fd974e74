package lineindex

import (
	"reflect"
	"testing"
)

const doc = "alpha beta\ngamma\n\ndelta epsilon"

func TestCountAndLine(t *testing.T) {
	ix := New(doc)
	if got := ix.Count(); got != 4 {
		t.Fatalf("Count() = %d, want 4", got)
	}

	tests := []struct {
		n    int
		want string
		ok   bool
	}{
		{1, "alpha beta", true},
		{2, "gamma", true},
		{3, "", true},
		{4, "delta epsilon", true},
		{0, "", false},
		{5, "", false},
	}
	for _, tt := range tests {
		got, ok := ix.Line(tt.n)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Line(%d) = (%q, %v), want (%q, %v)", tt.n, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSpanMatchesDocument(t *testing.T) {
	ix := New(doc)
	for n := 1; n <= ix.Count(); n++ {
		start, end, ok := ix.Span(n)
		if !ok {
			t.Fatalf("Span(%d) not ok", n)
		}
		line, _ := ix.Line(n)
		if doc[start:end] != line {
			t.Errorf("Span(%d): doc[%d:%d] = %q, want %q", n, start, end, doc[start:end], line)
		}
	}
}

func TestLineFor(t *testing.T) {
	ix := New(doc)
	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{9, 1},
		{10, 1},  // the newline terminating line 1
		{11, 2},  // 'g'
		{16, 2},  // newline after gamma
		{17, 3},  // the empty line
		{18, 4},  // 'd'
		{len(doc), 4},
		{-1, 0},
		{len(doc) + 1, 0},
	}
	for _, tt := range tests {
		if got := ix.LineFor(tt.offset); got != tt.want {
			t.Errorf("LineFor(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestOccurrences(t *testing.T) {
	ix := New("aa aa aa\nbb aa")
	got := ix.Occurrences(1, "aa")
	if want := []int{0, 3, 6}; !reflect.DeepEqual(got, want) {
		t.Errorf("Occurrences(1, aa) = %v, want %v", got, want)
	}
	got = ix.Occurrences(2, "aa")
	if want := []int{12}; !reflect.DeepEqual(got, want) {
		t.Errorf("Occurrences(2, aa) = %v, want %v", got, want)
	}
	if got := ix.Occurrences(3, "aa"); got != nil {
		t.Errorf("Occurrences on missing line = %v, want nil", got)
	}
	if got := ix.Occurrences(1, ""); got != nil {
		t.Errorf("Occurrences of empty snippet = %v, want nil", got)
	}
}

func TestOccurrencesOverlapping(t *testing.T) {
	ix := New("aaaa")
	got := ix.Occurrences(1, "aaa")
	if want := []int{0, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("overlapping Occurrences = %v, want %v", got, want)
	}
}

func TestNumbered(t *testing.T) {
	ix := New("one\ntwo")
	if got, want := ix.Numbered(), "1: one\n2: two"; got != want {
		t.Errorf("Numbered() = %q, want %q", got, want)
	}
}

func TestEmptyDocument(t *testing.T) {
	ix := New("")
	if ix.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", ix.Count())
	}
	if line, ok := ix.Line(1); !ok || line != "" {
		t.Errorf("Line(1) = (%q, %v), want (\"\", true)", line, ok)
	}
}
