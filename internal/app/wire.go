package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/randalmurphal/cognigen/internal/config"
	"github.com/randalmurphal/cognigen/internal/content"
	"github.com/randalmurphal/cognigen/internal/resources"
	"github.com/randalmurphal/cognigen/internal/search"
	"github.com/randalmurphal/cognigen/internal/vectorindex"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
)

// newClient builds the generation backend named by cfg.Provider, bounded
// by the per-call timeout.
func newClient(ctx context.Context, cfg config.LLM, defaultModel string) (llm.Client, error) {
	var client llm.Client
	switch cfg.Provider {
	case config.ProviderOllama:
		client = llm.NewOllamaClient(
			llm.WithOllamaURL(cfg.OllamaURL),
			llm.WithOllamaModel(defaultModel))
	case config.ProviderGemini:
		gc, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		client = gc
	case config.ProviderMock:
		client = llm.NewMockClient(cfg.MockResponse)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return llm.WithCallTimeout(client, cfg.CallTimeout), nil
}

// NewEmbedder returns the embedder used both to build and to query the
// similarity index. Both sides must agree.
func NewEmbedder(ctx context.Context, cfg config.Config) (vectorindex.Embedder, error) {
	switch cfg.Index.Embedder {
	case config.EmbedderHash:
		return vectorindex.HashEmbedder{}, nil
	case config.EmbedderGemini:
		e, err := vectorindex.NewGenAIEmbedder(ctx, cfg.LLM.GeminiAPIKey, cfg.Index.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Index.Embedder)
	}
}

// loadIndex loads the similarity index once. A missing file is not an
// error; the service runs without local candidates.
func loadIndex(ctx context.Context, path string, embedder vectorindex.Embedder, logger *slog.Logger) (*vectorindex.Index, error) {
	ix, err := vectorindex.Load(ctx, path, embedder)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("similarity index not found; local candidates disabled", "path", path)
		return vectorindex.Empty(), nil
	case err != nil:
		return nil, fmt.Errorf("load similarity index %s: %w", path, err)
	}
	logger.Info("similarity index loaded", "path", path, "documents", ix.Len(), "embedder", embedder.Name())
	return ix, nil
}

// newCache returns nil for the none backend.
func (a *App) newCache(ctx context.Context, cfg config.Cache) (search.Cache, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return nil, nil
	case config.CacheMemory:
		return search.NewMemoryCache(), nil
	case config.CacheRedis:
		rdb, err := search.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		return search.NewRedisCache(rdb, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

func newResolver(ctx context.Context, cfg config.Config, cache search.Cache, logger *slog.Logger) (*resources.Resolver, error) {
	opts := []resources.Option{
		resources.WithMaxTotal(cfg.Resources.MaxTotal),
		resources.WithSourceTimeout(cfg.Resources.SourceTimeout),
		resources.WithLogger(logger),
		resources.WithMetrics(metricsRecorder(cfg.Telemetry)),
	}

	if !cfg.Search.DisableWeb {
		ddgOpts := []search.DuckDuckGoOption{search.WithRateLimit(cfg.Search.WebRatePerSec, cfg.Search.WebBurst)}
		if cfg.Search.WebEndpoint != "" {
			ddgOpts = append(ddgOpts, search.WithEndpoint(cfg.Search.WebEndpoint))
		}
		web := search.Cached(string(resources.SourceWeb), search.NewDuckDuckGo(ddgOpts...), cache, cfg.Cache.TTL, logger)
		opts = append(opts, resources.WithWebSearch(web))
	}

	yt, err := search.NewYouTube(ctx, cfg.Search.YouTubeAPIKey, search.WithYouTubeLogger(logger))
	if err != nil {
		return nil, err
	}
	if yt.Enabled() {
		video := search.Cached(string(resources.SourceVideo), yt, cache, cfg.Cache.TTL, logger)
		opts = append(opts, resources.WithVideoSearch(video))
	}

	return resources.NewResolver(opts...), nil
}

func newNormalizer(shape string) *content.Normalizer {
	return content.NewNormalizer(content.Shape(shape))
}

func metricsRecorder(cfg config.Telemetry) observability.MetricsRecorder {
	if cfg.Metrics {
		return observability.NewMetricsRecorder()
	}
	return observability.NoopMetrics{}
}

func runOptions(cfg config.Telemetry) []flowgraph.RunOption {
	return []flowgraph.RunOption{
		flowgraph.WithMetricsRecorder(metricsRecorder(cfg)),
		flowgraph.WithTracing(cfg.Exporter != config.ExporterNone),
	}
}
