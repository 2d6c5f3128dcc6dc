package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// Request correlation headers.
const (
	RequestIDHeader = "X-Request-ID"
	RunIDHeader     = "X-Run-ID"
)

type handlers struct {
	runner Runner
	logger *slog.Logger
	now    func() time.Time
}

// errorBody is the failure payload of every endpoint.
type errorBody struct {
	Detail string `json:"detail"`
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorBody{Detail: detail})
}

// GET /health
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

// runContext starts a pipeline run scope, reusing the caller's request id
// as the run id when one is sent.
func (h *handlers) runContext(c *gin.Context, endpoint string) flowgraph.Context {
	runID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
	if runID == "" {
		runID = uuid.NewString()
	}
	c.Header(RunIDHeader, runID)
	return flowgraph.NewContext(c.Request.Context(),
		flowgraph.WithContextRunID(runID),
		flowgraph.WithLogger(h.logger.With("endpoint", endpoint, "run_id", runID)))
}

// fail maps a pipeline error to a response. Invalid input is 400;
// anything else is a 500 naming the failed operation.
func (h *handlers) fail(c *gin.Context, prefix string, err error) {
	var ve *fgerrors.ValidationError
	if errors.As(err, &ve) {
		respondDetail(c, http.StatusBadRequest, ve.Error())
		return
	}
	h.logger.Error(prefix, "error", err)

	detail := err.Error()
	var ce *fgerrors.ContractError
	if errors.As(err, &ce) {
		detail = ce.Message
	}
	respondDetail(c, http.StatusInternalServerError, prefix+": "+detail)
}

func bindFailed(c *gin.Context, err error) {
	respondDetail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// POST /api/generate-learning-path
func (h *handlers) generateLearningPath(c *gin.Context) {
	var req domain.StudentProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	path, err := h.runner.GenerateLearningPath(h.runContext(c, "learning_path"), req)
	if err != nil {
		h.fail(c, "Learning path generation failed", err)
		return
	}
	c.JSON(http.StatusOK, path)
}

// POST /api/generate-topic-content
func (h *handlers) generateTopicContent(c *gin.Context) {
	var req domain.TopicContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	resp, err := h.runner.GenerateTopicContent(h.runContext(c, "topic_content"), req)
	if err != nil {
		h.fail(c, "Topic content creation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/generate-mini-quiz
func (h *handlers) generateMiniQuiz(c *gin.Context) {
	var req domain.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	resp, err := h.runner.GenerateQuiz(h.runContext(c, "quiz"), req)
	if err != nil {
		h.fail(c, "Quiz generation failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
