package ai

import (
	"context"
	"strings"
	"testing"
)

func TestProviderConstants(t *testing.T) {
	tests := []struct {
		provider Provider
		expected string
	}{
		{ProviderOpenAI, "openai"},
		{ProviderGemini, "gemini"},
		{ProviderStub, "stub"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			if string(tt.provider) != tt.expected {
				t.Errorf("Provider constant mismatch. Expected: %s, Got: %s", tt.expected, string(tt.provider))
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		config      *ClientConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "client config is required",
		},
		{
			name:   "openai provider",
			config: &ClientConfig{Provider: ProviderOpenAI, APIKey: "test-key"},
		},
		{
			name:   "stub provider",
			config: &ClientConfig{Provider: ProviderStub},
		},
		{
			name:        "unsupported provider",
			config:      &ClientConfig{Provider: Provider("mystery")},
			expectError: true,
			errorMsg:    "unsupported provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error = %q, want substring %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if client == nil {
				t.Fatal("NewClient() returned nil client")
			}
		})
	}
}

func TestStubClientDefaultsToNotFound(t *testing.T) {
	stub := NewStubClient()
	resp, err := stub.LocateSpan(context.Background(), LocateRequest{SearchText: "anything"})
	if err != nil {
		t.Fatalf("LocateSpan() error = %v", err)
	}
	if resp.Found {
		t.Errorf("default stub reply Found = true, want false")
	}
}

func TestStubClientProgrammedReply(t *testing.T) {
	stub := NewStubClient()
	stub.Reply = func(req LocateRequest) (LocateResponse, error) {
		if req.SearchText != "needle" {
			t.Errorf("SearchText = %q, want needle", req.SearchText)
		}
		resp := parseLocateReply(`{"found":true,"start_line":2,"end_line":3,"start_chars":"Machin","end_chars":"digms.","confidence":0.8}`)
		return resp, nil
	}

	resp, err := stub.LocateSpan(context.Background(), LocateRequest{SearchText: "needle"})
	if err != nil {
		t.Fatalf("LocateSpan() error = %v", err)
	}
	if !resp.Found || resp.Span.StartLine != 2 || resp.Span.EndChars != "digms." {
		t.Errorf("unexpected reply: %+v", resp)
	}
}

func TestParseLocateReply(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFound bool
	}{
		{
			name:      "well formed",
			raw:       `{"found":true,"start_line":1,"end_line":2,"start_chars":"The ca","end_chars":"chair.","confidence":0.9}`,
			wantFound: true,
		},
		{
			name:      "not found",
			raw:       `{"found":false}`,
			wantFound: false,
		},
		{
			name:      "code fenced",
			raw:       "```json\n{\"found\":true,\"start_line\":4,\"end_line\":4,\"start_chars\":\"abc\",\"end_chars\":\"def\",\"confidence\":0.5}\n```",
			wantFound: true,
		},
		{
			name:      "prose instead of json",
			raw:       "The text appears on line 4.",
			wantFound: false,
		},
		{
			name:      "empty reply",
			raw:       "",
			wantFound: false,
		},
		{
			name:      "truncated json",
			raw:       `{"found":true,"start_line":1,`,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := parseLocateReply(tt.raw)
			if resp.Found != tt.wantFound {
				t.Errorf("Found = %v, want %v", resp.Found, tt.wantFound)
			}
		})
	}
}

func TestParseLocateReplyClampsConfidence(t *testing.T) {
	resp := parseLocateReply(`{"found":true,"start_line":1,"end_line":1,"start_chars":"abc","end_chars":"def","confidence":3.0}`)
	if resp.Span.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", resp.Span.Confidence)
	}
	resp = parseLocateReply(`{"found":true,"start_line":1,"end_line":1,"start_chars":"abc","end_chars":"def","confidence":-0.2}`)
	if resp.Span.Confidence != 0.0 {
		t.Errorf("confidence = %v, want clamped to 0.0", resp.Span.Confidence)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	req := LocateRequest{
		SearchText:       "the cat",
		Context:          "second paragraph",
		NumberedDocument: "1: alpha\n2: beta",
	}
	prompt := buildUserPrompt(req)
	for _, want := range []string{"the cat", "second paragraph", "1: alpha", "2: beta"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// The document is truncated, never the instruction block.
	req.Context = ""
	req.NumberedDocument = strings.Repeat("x", maxPromptDocument+100)
	prompt = buildUserPrompt(req)
	if len(prompt) > maxPromptDocument+200 {
		t.Errorf("oversized prompt: %d bytes", len(prompt))
	}
}
