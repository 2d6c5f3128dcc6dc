package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/pipeline"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeRunner struct {
	path    domain.LearningPath
	content domain.TopicContentResponse
	quiz    domain.QuizResponse
	err     error

	mu    sync.Mutex
	runID string

	// block, when set, holds every call until closed; entered receives
	// one value per call.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRunner) enter(ctx context.Context) {
	if fc, ok := ctx.(flowgraph.Context); ok {
		f.mu.Lock()
		f.runID = fc.RunID()
		f.mu.Unlock()
	}
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeRunner) GenerateLearningPath(ctx context.Context, _ domain.StudentProfile) (domain.LearningPath, error) {
	f.enter(ctx)
	return f.path, f.err
}

func (f *fakeRunner) GenerateTopicContent(ctx context.Context, _ domain.TopicContentRequest) (domain.TopicContentResponse, error) {
	f.enter(ctx)
	return f.content, f.err
}

func (f *fakeRunner) GenerateQuiz(ctx context.Context, _ domain.QuizRequest) (domain.QuizResponse, error) {
	f.enter(ctx)
	return f.quiz, f.err
}

func newRouter(runner Runner, mutate ...func(*Options)) *gin.Engine {
	opts := Options{
		Logger: slog.New(slog.DiscardHandler),
		Now:    func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewRouter(runner, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(&fakeRunner{}), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok", "timestamp": "2026-03-01T12:00:00Z"}`, rec.Body.String())
}

func TestGenerateLearningPath_OK(t *testing.T) {
	runner := &fakeRunner{path: domain.LearningPath{ID: "p1", Title: "Python Learning Path"}}
	rec := do(t, newRouter(runner), http.MethodPost, "/api/generate-learning-path",
		`{"user_id": "u1", "course_name": "Python"}`, RequestIDHeader, "req-42")

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.LearningPath
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "req-42", rec.Header().Get(RunIDHeader))
	assert.Equal(t, "req-42", runner.runID)
}

func TestGenerateLearningPath_GeneratesRunID(t *testing.T) {
	runner := &fakeRunner{}
	rec := do(t, newRouter(runner), http.MethodPost, "/api/generate-learning-path", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RunIDHeader))
	assert.Equal(t, rec.Header().Get(RunIDHeader), runner.runID)
}

func TestBadBodies(t *testing.T) {
	router := newRouter(&fakeRunner{})
	for _, path := range []string{"/api/generate-learning-path", "/api/generate-topic-content", "/api/generate-mini-quiz"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, path, `{"not json`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.True(t, strings.HasPrefix(detail(t, rec), "Invalid request body: "))
		})
	}

	rec := do(t, router, http.MethodPost, "/api/generate-learning-path", `{"time_availability": {"per_day_hours": "two"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation",
			path:       "/api/generate-learning-path",
			err:        &flowgraph.NodeError{NodeID: "input", Op: "execute", Err: &fgerrors.ValidationError{Field: "goal", Message: "is required"}},
			wantStatus: http.StatusBadRequest,
			wantDetail: "validation error on goal: is required",
		},
		{
			name:       "no path",
			path:       "/api/generate-learning-path",
			err:        &flowgraph.NodeError{NodeID: "path_assembly", Op: "execute", Err: &fgerrors.ContractError{Pipeline: "learning_path", Message: "no topics could be generated"}},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Learning path generation failed: no topics could be generated",
		},
		{
			name:       "no content",
			path:       "/api/generate-topic-content",
			err:        &fgerrors.ContractError{Pipeline: "topic_content", Message: "no content generated"},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Topic content creation failed: no content generated",
		},
		{
			name:       "quiz",
			path:       "/api/generate-mini-quiz",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Quiz generation failed: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(&fakeRunner{err: tt.err}), http.MethodPost, tt.path, `{}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, detail(t, rec))
		})
	}
}

func TestRunLimiter_RejectsWhenFull(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	router := newRouter(runner, func(o *Options) { o.MaxConcurrentRuns = 1 })

	done := make(chan int)
	go func() {
		done <- do(t, router, http.MethodPost, "/api/generate-mini-quiz", `{}`).Code
	}()
	<-runner.entered

	rec := do(t, router, http.MethodPost, "/api/generate-topic-content", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Server is busy, retry later", detail(t, rec))

	health := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)

	close(runner.block)
	assert.Equal(t, http.StatusOK, <-done)

	runner.entered = nil
	runner.block = nil
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/generate-topic-content", `{}`).Code)
}

func TestRunLimiter_WaitsForSlot(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), entered: make(chan struct{}, 2)}
	router := newRouter(runner, func(o *Options) {
		o.MaxConcurrentRuns = 1
		o.QueueTimeout = 5 * time.Second
	})

	codes := make(chan int, 2)
	for range 2 {
		go func() {
			codes <- do(t, router, http.MethodPost, "/api/generate-mini-quiz", `{}`).Code
		}()
	}
	<-runner.entered
	close(runner.block)

	assert.Equal(t, http.StatusOK, <-codes)
	assert.Equal(t, http.StatusOK, <-codes)
}

func TestNoRoute(t *testing.T) {
	rec := do(t, newRouter(&fakeRunner{}), http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", detail(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(&fakeRunner{})
	rec := do(t, router, http.MethodOptions, "/api/generate-mini-quiz", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", "POST")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowList(t *testing.T) {
	router := newRouter(&fakeRunner{}, func(o *Options) { o.CORSOrigins = []string{"http://localhost:5173"} })

	rec := do(t, router, http.MethodGet, "/health", "", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, router, http.MethodGet, "/health", "", "Origin", "http://evil.example")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := newRouter(&fakeRunner{err: &fgerrors.ContractError{Message: "boom"}}, func(o *Options) { o.Logger = logger })

	do(t, router, http.MethodGet, "/health", "")
	do(t, router, http.MethodPost, "/api/generate-mini-quiz", `{bad`)
	do(t, router, http.MethodPost, "/api/generate-mini-quiz", `{}`)

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="HTTP request" method=GET path=/health status=200`)
	assert.Contains(t, out, `level=WARN msg="HTTP request" method=POST path=/api/generate-mini-quiz status=400`)
	assert.Contains(t, out, `level=ERROR msg="HTTP request" method=POST path=/api/generate-mini-quiz status=500`)
}

func TestEndToEnd_QuizThroughPipelines(t *testing.T) {
	client := llm.NewMockClient(`Here you go: {"quiz": [{"question": "What repeats?", "options": ["loops", "ifs"], "answer": "a", "difficulty": "EASY"}]}`)
	p, err := pipeline.New(pipeline.Deps{
		Client: client,
		Logger: slog.New(slog.DiscardHandler),
		Now:    func() time.Time { return fixedNow },
	}, pipeline.Settings{})
	require.NoError(t, err)

	rec := do(t, newRouter(p), http.MethodPost, "/api/generate-mini-quiz",
		`{"submodule_id": "sm-1", "submodule_title": "Loops", "cells": [{"type": "markdown", "content": "Loops repeat."}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"submodule_id": "sm-1",
		"generatedAt": "2026-03-01T12:00:00Z",
		"quiz": [{
			"question": "What repeats?",
			"options": ["A. loops", "B. ifs", "C. None of the above", "D. None of the above"],
			"answer": "A",
			"difficulty": "easy"
		}]
	}`, rec.Body.String())
	assert.Equal(t, 1, client.CallCount())
}

func TestEndToEnd_InvalidProfileIs400(t *testing.T) {
	p, err := pipeline.New(pipeline.Deps{Client: llm.NewMockClient("{}"), Logger: slog.New(slog.DiscardHandler)}, pipeline.Settings{})
	require.NoError(t, err)

	rec := do(t, newRouter(p), http.MethodPost, "/api/generate-learning-path", `{"user_id": "u1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, detail(t, rec), "course_name")
}
