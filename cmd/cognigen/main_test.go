package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/vectorindex"
)

// offlineConfig writes a config using the mock backend and no network
// sources, returning its path and the index path it names.
func offlineConfig(t *testing.T, mockResponse string) (cfgPath, indexPath string) {
	t.Helper()
	dir := t.TempDir()
	indexPath = filepath.Join(dir, "index.db")
	body, err := json.Marshal(map[string]any{
		"log":    map[string]any{"level": "error"},
		"llm":    map[string]any{"provider": "mock", "mock_response": mockResponse},
		"search": map[string]any{"disable_web": true},
		"cache":  map[string]any{"backend": "none"},
		"index":  map[string]any{"path": indexPath, "data_dir": filepath.Join(dir, "data")},
	})
	require.NoError(t, err)
	cfgPath = filepath.Join(dir, "cognigen.json")
	require.NoError(t, os.WriteFile(cfgPath, body, 0o600))
	return cfgPath, indexPath
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateQuiz_FromStdin(t *testing.T) {
	cfgPath, _ := offlineConfig(t, `{"quiz": [{"question": "What repeats?", "options": ["loops"], "answer": "A"}]}`)

	out, err := run(t, `{"submodule_id": "sm-1", "cells": [{"type": "markdown", "content": "Loops repeat."}]}`,
		"generate", "quiz", "--config", cfgPath)
	require.NoError(t, err)

	var resp domain.QuizResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "sm-1", resp.SubmoduleID)
	require.Len(t, resp.Quiz, 1)
	assert.Equal(t, "A. loops", resp.Quiz[0].Options[0])
}

func TestGenerateLearningPath_FromFile(t *testing.T) {
	cfgPath, _ := offlineConfig(t, `{"submodules": [{"title": "Intro", "summary": "Start here"}]}`)
	input := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(input, []byte(`{
		"user_id": "u1", "course_name": "Go", "experience_level": "beginner",
		"custom_topics": ["Goroutines", "Channels"], "goal": "Write servers",
		"preferred_learning_style": "practical", "time_availability": {"per_day_hours": 1}
	}`), 0o600))

	out, err := run(t, "", "generate", "learning-path", "-c", cfgPath, "--input", input)
	require.NoError(t, err)

	var path domain.LearningPath
	require.NoError(t, json.Unmarshal([]byte(out), &path))
	assert.Equal(t, "Go - Custom Learning Path", path.Title)
	require.Len(t, path.Topics, 2)
	assert.Equal(t, "Goroutines", path.Topics[0].Name)
	assert.Equal(t, "Intro", path.Topics[0].Submodules[0].Title)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	cfgPath, _ := offlineConfig(t, "{}")

	_, err := run(t, `{"submodule_id": ""}`, "generate", "quiz", "--config", cfgPath)
	assert.ErrorContains(t, err, "submodule_id")

	_, err = run(t, `not json`, "generate", "topic-content", "--config", cfgPath)
	assert.ErrorContains(t, err, "decode topic content request")

	_, err = run(t, "", "generate", "quiz", "--config", cfgPath, "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read input")
}

func TestIngest(t *testing.T) {
	cfgPath, indexPath := offlineConfig(t, "")
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "a.json"), []byte(`[
		{"title": "Go tour", "url": "https://go.dev/tour", "description": "Interactive intro"},
		{"title": "", "url": "https://example.com/untitled"}
	]`), 0o600))

	out, err := run(t, "", "ingest", "--config", cfgPath, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 resources into "+indexPath)

	ix, err := vectorindex.Load(t.Context(), indexPath, vectorindex.HashEmbedder{})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestIngest_NothingToIndex(t *testing.T) {
	cfgPath, indexPath := offlineConfig(t, "")

	_, err := run(t, "", "ingest", "--config", cfgPath, "--data-dir", t.TempDir())
	assert.ErrorIs(t, err, vectorindex.ErrNoDocuments)
	assert.NoFileExists(t, indexPath)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: openai\n"), 0o600))

	_, err := run(t, "", "generate", "quiz", "--config", path)
	assert.ErrorContains(t, err, "llm.provider")
}
