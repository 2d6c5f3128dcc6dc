package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequest(t *testing.T) {
	req := NewRequest("user text",
		WithModel("llama3"),
		WithSystem("you write JSON"),
		WithTemperature(0.2),
		WithMaxTokens(512),
		WithJSONMode(),
	)

	assert.Equal(t, "user text", req.Prompt)
	assert.Equal(t, "llama3", req.Model)
	assert.Equal(t, "you write JSON", req.SystemPrompt)
	assert.InDelta(t, 0.2, req.TemperatureOr(1), 1e-9)
	assert.Equal(t, 512, req.Options.MaxTokens)
	assert.True(t, req.Options.JSONMode)
}

func TestTemperatureOr_Unset(t *testing.T) {
	assert.InDelta(t, 0.7, NewRequest("x").TemperatureOr(0.7), 1e-9)
}

func TestTokenUsage_Add(t *testing.T) {
	u := TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}
	u.Add(TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30})
	assert.Equal(t, TokenUsage{InputTokens: 11, OutputTokens: 22, TotalTokens: 33}, u)
}

func TestBuildGeminiConfig(t *testing.T) {
	cfg := buildGeminiConfig(NewRequest("p", WithSystem("sys"), WithTemperature(0.5), WithMaxTokens(100), WithJSONMode()))

	if assert.NotNil(t, cfg.SystemInstruction) {
		assert.Equal(t, "sys", cfg.SystemInstruction.Parts[0].Text)
	}
	if assert.NotNil(t, cfg.Temperature) {
		assert.InDelta(t, 0.5, *cfg.Temperature, 1e-6)
	}
	assert.Equal(t, int32(100), cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)

	bare := buildGeminiConfig(NewRequest("p"))
	assert.Nil(t, bare.SystemInstruction)
	assert.Nil(t, bare.Temperature)
	assert.Empty(t, bare.ResponseMIMEType)
}
