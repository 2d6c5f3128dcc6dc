package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"
)

// RequestLogger logs one record per request, at a level chosen by status.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if runID := c.Writer.Header().Get(RunIDHeader); runID != "" {
			fields = append(fields, "run_id", runID)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// RunLimiter admits at most n concurrent requests. A request that cannot
// take a slot within wait is rejected with 503.
func RunLimiter(n int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if !acquire(c.Request.Context(), sem, wait) {
			respondDetail(c, http.StatusServiceUnavailable, "Server is busy, retry later")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

func acquire(ctx context.Context, sem *semaphore.Weighted, wait time.Duration) bool {
	if wait <= 0 {
		return sem.TryAcquire(1)
	}
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return sem.Acquire(ctx, 1) == nil
}
