package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiClient implements Client using the Google Gen AI SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. model defaults to gemini-2.0-flash.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Complete implements Client.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	resp, err := c.client.Models.GenerateContent(ctx, model,
		genai.Text(req.Prompt),
		buildGeminiConfig(req),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &CompletionResponse{
		Content:  resp.Text(),
		Model:    model,
		Duration: time.Since(start),
	}
	if len(resp.Candidates) > 0 {
		out.FinishReason = string(resp.Candidates[0].FinishReason)
	}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = TokenUsage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func buildGeminiConfig(req CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Options.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Options.Temperature))
	}
	if req.Options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.Options.MaxTokens)
	}
	if req.Options.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
