package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/cognigen/internal/app"
	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/pipeline"
)

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one pipeline on a JSON request and print the result",
	}
	cmd.AddCommand(
		generateSubcommand(opts, "learning-path", "Generate a learning path from a student profile",
			func(ctx context.Context, p *pipeline.Pipelines, raw []byte) (any, error) {
				var req domain.StudentProfile
				if err := json.Unmarshal(raw, &req); err != nil {
					return nil, fmt.Errorf("decode student profile: %w", err)
				}
				return p.GenerateLearningPath(ctx, req)
			}),
		generateSubcommand(opts, "topic-content", "Generate content for a topic's submodules",
			func(ctx context.Context, p *pipeline.Pipelines, raw []byte) (any, error) {
				var req domain.TopicContentRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					return nil, fmt.Errorf("decode topic content request: %w", err)
				}
				return p.GenerateTopicContent(ctx, req)
			}),
		generateSubcommand(opts, "quiz", "Generate a mini quiz from submodule cells",
			func(ctx context.Context, p *pipeline.Pipelines, raw []byte) (any, error) {
				var req domain.QuizRequest
				if err := json.Unmarshal(raw, &req); err != nil {
					return nil, fmt.Errorf("decode quiz request: %w", err)
				}
				return p.GenerateQuiz(ctx, req)
			}),
	)
	return cmd
}

type runFunc func(ctx context.Context, p *pipeline.Pipelines, raw []byte) (any, error)

func generateSubcommand(opts *rootOptions, use, short string, run runFunc) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := run(cmd.Context(), a.Pipelines, raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", `request JSON file ("-" reads stdin)`)
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return raw, nil
}
