package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// DefaultOllamaURL is the address of a local Ollama server.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaClient implements Client against Ollama's /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// OllamaOption configures OllamaClient.
type OllamaOption func(*OllamaClient)

// WithOllamaURL sets the server base URL.
func WithOllamaURL(u string) OllamaOption {
	return func(c *OllamaClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithOllamaModel sets the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(c *OllamaClient) { c.model = model }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewOllamaClient creates an Ollama client.
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL: DefaultOllamaURL,
		model:   "llama3",
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Format  string         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Complete implements Client.
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode ollama request: %w", err)
	}

	endpoint := c.baseURL + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &fgerrors.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
			Endpoint:   endpoint,
		}
	}

	var out ollamaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}

	finish := out.DoneReason
	if finish == "" && out.Done {
		finish = "stop"
	}

	return &CompletionResponse{
		Content: out.Response,
		Model:   out.Model,
		Usage: TokenUsage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
			TotalTokens:  out.PromptEvalCount + out.EvalCount,
		},
		FinishReason: finish,
		Duration:     time.Since(start),
	}, nil
}

func (c *OllamaClient) buildRequest(req CompletionRequest) ollamaRequest {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	out := ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
	}
	if req.Options.JSONMode {
		out.Format = "json"
	}

	opts := map[string]any{}
	if req.Options.Temperature != nil {
		opts["temperature"] = *req.Options.Temperature
	}
	if req.Options.MaxTokens > 0 {
		opts["num_predict"] = req.Options.MaxTokens
	}
	if len(opts) > 0 {
		out.Options = opts
	}
	return out
}
