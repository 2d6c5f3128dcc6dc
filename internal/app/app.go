// Package app wires configuration into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/cognigen/internal/api"
	"github.com/randalmurphal/cognigen/internal/config"
	"github.com/randalmurphal/cognigen/internal/pipeline"
	"github.com/randalmurphal/cognigen/internal/vectorindex"
)

// App holds the wired service.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Pipelines *pipeline.Pipelines
	Index     *vectorindex.Index

	closers []func() error
}

// New builds every collaborator named by cfg. Close releases what New
// opened, including on a partial failure.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	client, err := newClient(ctx, cfg.LLM, cfg.Pipeline.Models.Content)
	if err != nil {
		return nil, err
	}

	embedder, err := NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if a.Index, err = loadIndex(ctx, cfg.Index.Path, embedder, logger); err != nil {
		return nil, err
	}

	cache, err := a.newCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	resolver, err := newResolver(ctx, cfg, cache, logger)
	if err != nil {
		return nil, err
	}

	prompts, err := cfg.PromptLibrary()
	if err != nil {
		return nil, fmt.Errorf("prompt overrides: %w", err)
	}

	a.Pipelines, err = pipeline.New(pipeline.Deps{
		Client:     client,
		Prompts:    prompts,
		Normalizer: newNormalizer(cfg.Pipeline.ContentShape),
		Resolver:   resolver,
		Local:      a.Index,
		Metrics:    metricsRecorder(cfg.Telemetry),
		Logger:     logger,
		RunOptions: runOptions(cfg.Telemetry),
	}, cfg.PipelineSettings())
	if err != nil {
		return nil, err
	}

	logger.Info("service wired",
		"llm_provider", cfg.LLM.Provider,
		"content_shape", cfg.Pipeline.ContentShape,
		"index_documents", a.Index.Len(),
		"cache", cfg.Cache.Backend)
	return a, nil
}

// Router returns the HTTP handler serving the pipelines.
func (a *App) Router() *gin.Engine {
	opts := api.Options{
		MaxConcurrentRuns: a.Config.Server.MaxConcurrentRuns,
		QueueTimeout:      a.Config.Server.QueueTimeout,
		CORSOrigins:       a.Config.Server.CORSOrigins,
		Logger:            a.Logger,
	}
	if a.Config.Telemetry.Exporter != config.ExporterNone {
		opts.ServiceName = a.Config.Telemetry.ServiceName
	}
	return api.NewRouter(a.Pipelines, opts)
}

// Serve listens on the configured address until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.Server.Addr, err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves HTTP on ln until ctx is done, then shuts down
// gracefully within the configured timeout.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: a.Config.Server.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
