package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_FixedResponse(t *testing.T) {
	mock := llm.NewMockClient(`{"ok":true}`)

	resp, err := mock.Complete(context.Background(), llm.NewRequest("hi"))

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockClient_SequentialResponsesCycle(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("first", "second")
	ctx := context.Background()

	var got []string
	for range 3 {
		resp, err := mock.Complete(ctx, llm.NewRequest("x"))
		require.NoError(t, err)
		got = append(got, resp.Content)
	}

	assert.Equal(t, []string{"first", "second", "first"}, got)
}

func TestMockClient_WithError(t *testing.T) {
	want := errors.New("backend down")
	mock := llm.NewMockClient("").WithError(want)

	_, err := mock.Complete(context.Background(), llm.NewRequest("x"))
	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, mock.CallCount())
}

func TestMockClient_CallTracking(t *testing.T) {
	mock := llm.NewMockClient("r")
	assert.Nil(t, mock.LastCall())

	_, _ = mock.Complete(context.Background(), llm.NewRequest("one"))
	_, _ = mock.Complete(context.Background(), llm.NewRequest("two", llm.WithSystem("sys")))

	require.Equal(t, 2, mock.CallCount())
	assert.Equal(t, "one", mock.Calls[0].Prompt)
	last := mock.LastCall()
	require.NotNil(t, last)
	assert.Equal(t, "sys", last.SystemPrompt)
}

func TestMockClient_Reset(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("a", "b")
	_, _ = mock.Complete(context.Background(), llm.NewRequest("x"))

	mock.Reset()

	assert.Equal(t, 0, mock.CallCount())
	resp, err := mock.Complete(context.Background(), llm.NewRequest("x"))
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Content)
}

func TestMockClient_CompleteFunc(t *testing.T) {
	mock := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "echo: " + req.Prompt}, nil
	})

	resp, err := mock.Complete(context.Background(), llm.NewRequest("test"))
	require.NoError(t, err)
	assert.Equal(t, "echo: test", resp.Content)
}

func TestMockClient_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.NewMockClient("x").Complete(ctx, llm.NewRequest("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
