// Command cognigen serves and runs the learning-content generation
// pipelines.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/cognigen/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cognigen",
		Short: "Generate learning paths, lesson content and quizzes with an LLM",
		Long: `cognigen turns a student profile into a learning path, fills each
submodule with lesson content and linked resources, and writes mini
quizzes from lesson text.

Configuration is read from --config (YAML or JSON) and environment
variables such as COGNIGEN_LLM_PROVIDER, GEMINI_API_KEY, YOUTUBE_API_KEY
and REDIS_ADDR.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			opts.cfg, opts.logger = cfg, logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (.yaml, .yml or .json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newGenerateCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
