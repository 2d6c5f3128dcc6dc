package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

func TestOllamaClient_Complete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","response":"{\"a\":1}","done":true,"prompt_eval_count":5,"eval_count":7}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(WithOllamaURL(srv.URL+"/"), WithOllamaModel("llama3"))
	resp, err := client.Complete(context.Background(), NewRequest("explain",
		WithSystem("be terse"), WithTemperature(0.2), WithMaxTokens(64), WithJSONMode()))

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 12, resp.Usage.TotalTokens)

	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, "explain", got.Prompt)
	assert.Equal(t, "be terse", got.System)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.2, got.Options["temperature"], 1e-9)
	assert.InDelta(t, 64, got.Options["num_predict"], 1e-9)
}

func TestOllamaClient_RequestModelOverridesDefault(t *testing.T) {
	c := NewOllamaClient(WithOllamaModel("default"))
	assert.Equal(t, "override", c.buildRequest(NewRequest("x", WithModel("override"))).Model)
	assert.Equal(t, "default", c.buildRequest(NewRequest("x")).Model)
	assert.Nil(t, c.buildRequest(NewRequest("x")).Options)
}

func TestOllamaClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaClient(WithOllamaURL(srv.URL)).Complete(context.Background(), NewRequest("x"))

	var httpErr *fgerrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "model not found")
}

func TestOllamaClient_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer srv.Close()

	_, err := NewOllamaClient(WithOllamaURL(srv.URL)).Complete(context.Background(), NewRequest("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}
