package ai

import (
	"context"
	"errors"

	"github.com/reviewkit/textanchor/pkg/models"
)

// Client is the external locator collaborator: given a description of text
// and the numbered-line rendering of a document, it proposes where that text
// lives. Every field of the reply is advisory; callers must validate the
// proposal against the document before trusting it.
type Client interface {
	LocateSpan(ctx context.Context, req LocateRequest) (LocateResponse, error)
}

// LocateRequest carries one candidate to the locator.
type LocateRequest struct {
	SearchText         string
	Context            string
	NumberedDocument   string
	IncludeExplanation bool
}

// LocateResponse is a tagged variant: Found=false means the locator could
// not place the text and Span carries nothing usable.
type LocateResponse struct {
	Found       bool
	Span        models.ModelProposedSpan
	Explanation string
}

// Provider is enumeration of supported locator providers
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderStub   Provider = "stub"
)

// ClientConfig holds configuration for locator clients
type ClientConfig struct {
	APIKey    string
	Model     string
	ProjectID string
	Location  string
	Provider  Provider
}

// NewClient creates a new locator client based on configuration
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	ctx := context.Background()
	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, config)
	case ProviderStub:
		return NewStubClient(), nil
	default:
		return nil, errors.New("unsupported provider: " + string(config.Provider))
	}
}

// StubClient is a stub implementation of the Client interface for testing
// and offline runs. By default it finds nothing.
type StubClient struct {
	Reply func(req LocateRequest) (LocateResponse, error)
}

// NewStubClient creates a new StubClient
func NewStubClient() *StubClient {
	return &StubClient{}
}

// LocateSpan returns the programmed reply, or not-found.
func (s *StubClient) LocateSpan(ctx context.Context, req LocateRequest) (LocateResponse, error) {
	if s.Reply != nil {
		return s.Reply(req)
	}
	return LocateResponse{Found: false}, nil
}
