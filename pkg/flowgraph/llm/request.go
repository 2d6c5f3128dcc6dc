package llm

import "time"

// CompletionRequest configures one generation call.
// Build it with NewRequest and treat it as immutable afterwards; retries
// reuse the same value.
type CompletionRequest struct {
	// Model overrides the client's default model when set.
	Model string `json:"model,omitempty"`

	// SystemPrompt carries the system instructions.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Prompt carries the user instructions.
	Prompt string `json:"prompt"`

	Options DecodingOptions `json:"options"`
}

// DecodingOptions are sampling parameters passed through to the backend.
type DecodingOptions struct {
	// Temperature is nil when the backend default should apply.
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`

	// JSONMode asks the backend to constrain output to JSON where supported.
	JSONMode bool `json:"json_mode,omitempty"`
}

// RequestOption configures a CompletionRequest.
type RequestOption func(*CompletionRequest)

// WithModel sets the model identifier.
func WithModel(model string) RequestOption {
	return func(r *CompletionRequest) { r.Model = model }
}

// WithSystem sets the system instructions.
func WithSystem(system string) RequestOption {
	return func(r *CompletionRequest) { r.SystemPrompt = system }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) RequestOption {
	return func(r *CompletionRequest) { r.Options.Temperature = &t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) RequestOption {
	return func(r *CompletionRequest) { r.Options.MaxTokens = n }
}

// WithJSONMode requests JSON-constrained output.
func WithJSONMode() RequestOption {
	return func(r *CompletionRequest) { r.Options.JSONMode = true }
}

// NewRequest builds a request for prompt.
func NewRequest(prompt string, opts ...RequestOption) CompletionRequest {
	req := CompletionRequest{Prompt: prompt}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// TemperatureOr returns the requested temperature or fallback when unset.
func (r CompletionRequest) TemperatureOr(fallback float64) float64 {
	if r.Options.Temperature == nil {
		return fallback
	}
	return *r.Options.Temperature
}

// CompletionResponse is the output of a completion call.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Usage        TokenUsage    `json:"usage"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Duration     time.Duration `json:"duration"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add adds other to u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
