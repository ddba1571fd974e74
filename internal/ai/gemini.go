package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type GeminiClient struct {
	config *ClientConfig
	client *genai.Client
}

// NewGeminiClient creates a new client for the Google Gemini API.
func NewGeminiClient(ctx context.Context, config *ClientConfig) (*GeminiClient, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	// Defaults for Gemini API
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.Location == "" && strings.TrimSpace(config.APIKey) == "" {
		config.Location = "us-central1"
	}

	cc := genai.ClientConfig{
		Backend: genai.BackendVertexAI,
	}

	if strings.TrimSpace(config.APIKey) != "" {
		cc.APIKey = config.APIKey
	}
	if strings.TrimSpace(config.ProjectID) != "" {
		cc.Project = config.ProjectID
	}
	if strings.TrimSpace(config.Location) != "" {
		cc.Location = config.Location
	}

	client, err := genai.NewClient(ctx, &cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		config: config,
		client: client,
	}, nil
}

// LocateSpan asks the model for a line-range proposal for the candidate text.
// The reply is parsed defensively; anything malformed comes back as
// not-found rather than an error, since a confused model is an expected
// outcome, not a fault.
func (c *GeminiClient) LocateSpan(ctx context.Context, req LocateRequest) (LocateResponse, error) {
	prompt := genai.Text(systemPrompt)
	temp := float32(0.0)
	maxTokens := int32(200)
	cfg := genai.GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   maxTokens,
		SystemInstruction: prompt[0],
		ResponseMIMEType:  "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, genai.Text(buildUserPrompt(req)), &cfg)
	if err != nil {
		return LocateResponse{}, fmt.Errorf("locate request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return LocateResponse{}, errors.New("no reply returned")
	}

	part := resp.Candidates[0].Content.Parts[0]
	return parseLocateReply(string(part.Text)), nil
}
