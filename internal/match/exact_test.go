package match

import "testing"

func TestExact(t *testing.T) {
	doc := "The cat sat on the mat. The cat sat on the chair."

	tests := []struct {
		name       string
		searchText string
		wantStart  int
		wantEnd    int
		wantNil    bool
	}{
		{name: "unique phrase", searchText: "cat sat on the chair", wantStart: 28, wantEnd: 48},
		{name: "repeated phrase returns lowest offset", searchText: "The cat sat", wantStart: 0, wantEnd: 11},
		{name: "whole document", searchText: doc, wantStart: 0, wantEnd: len(doc)},
		{name: "absent", searchText: "the dog", wantNil: true},
		{name: "case sensitive", searchText: "the cat sat", wantNil: true},
		{name: "lowercase occurrence", searchText: "the mat", wantStart: 15, wantEnd: 22},
		{name: "empty search text", searchText: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Exact(doc, tt.searchText)
			if tt.wantNil {
				if loc != nil {
					t.Fatalf("Exact(%q) = %+v, want nil", tt.searchText, loc)
				}
				return
			}
			if loc == nil {
				t.Fatalf("Exact(%q) = nil", tt.searchText)
			}
			if loc.StartOffset != tt.wantStart || loc.EndOffset != tt.wantEnd {
				t.Errorf("span = [%d,%d), want [%d,%d)", loc.StartOffset, loc.EndOffset, tt.wantStart, tt.wantEnd)
			}
			if loc.Confidence != 1.0 {
				t.Errorf("confidence = %v, want 1.0", loc.Confidence)
			}
			if loc.Strategy != "exact" {
				t.Errorf("strategy = %q, want exact", loc.Strategy)
			}
			if doc[loc.StartOffset:loc.EndOffset] != loc.QuotedText {
				t.Errorf("quoted text %q does not match doc slice %q", loc.QuotedText, doc[loc.StartOffset:loc.EndOffset])
			}
		})
	}
}
