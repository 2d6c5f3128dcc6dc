package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/cognigen/internal/app"
	"github.com/randalmurphal/cognigen/internal/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serves the HTTP API until interrupted:

  GET  /health
  POST /api/generate-learning-path
  POST /api/generate-topic-content
  POST /api/generate-mini-quiz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, opts.logger, telemetry.WithVersion(version))
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(flushCtx); err != nil {
					opts.logger.Warn("telemetry shutdown failed", "error", err)
				}
			}()

			a, err := app.New(ctx, cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
