// Package api exposes the generation pipelines over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/randalmurphal/cognigen/internal/domain"
)

// Runner runs the generation pipelines.
type Runner interface {
	GenerateLearningPath(ctx context.Context, profile domain.StudentProfile) (domain.LearningPath, error)
	GenerateTopicContent(ctx context.Context, req domain.TopicContentRequest) (domain.TopicContentResponse, error)
	GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.QuizResponse, error)
}

// Options configure the router.
type Options struct {
	// MaxConcurrentRuns bounds pipeline runs in flight. Defaults to 4.
	MaxConcurrentRuns int64

	// QueueTimeout is how long a request waits for a run slot. Zero
	// rejects immediately when every slot is taken.
	QueueTimeout time.Duration

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string

	// ServiceName names the otelgin server spans. Empty disables tracing
	// middleware.
	ServiceName string

	Logger *slog.Logger
	Now    func() time.Time
}

// NewRouter builds the gin engine serving runner.
func NewRouter(runner Runner, opts Options) *gin.Engine {
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(RequestLogger(opts.Logger))
	router.Use(corsMiddleware(opts.CORSOrigins))

	h := &handlers{runner: runner, logger: opts.Logger, now: opts.Now}

	router.GET("/health", h.health)

	api := router.Group("/api")
	api.Use(RunLimiter(opts.MaxConcurrentRuns, opts.QueueTimeout))
	{
		api.POST("/generate-learning-path", h.generateLearningPath)
		api.POST("/generate-topic-content", h.generateTopicContent)
		api.POST("/generate-mini-quiz", h.generateMiniQuiz)
	}

	router.NoRoute(func(c *gin.Context) {
		respondDetail(c, http.StatusNotFound, "Not Found")
	})
	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{RunIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
