package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/cognigen/internal/app"
	"github.com/randalmurphal/cognigen/internal/vectorindex"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var dataDir, out string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Build the local similarity index from resource files",
		Long: `Reads every *.json and *.docx file in the data folder. A JSON file
holds an array of {"title", "url", "description"} records. A DOCX file
holds one "Title - URL - Description" record per paragraph. Every
record is embedded and the index file is rewritten.

When no records are found the existing index is left untouched and the
command fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if dataDir == "" {
				dataDir = cfg.Index.DataDir
			}
			if out == "" {
				out = cfg.Index.Path
			}

			embedder, err := app.NewEmbedder(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			n, err := vectorindex.Build(cmd.Context(), dataDir, out, embedder, opts.logger)
			if errors.Is(err, vectorindex.ErrNoDocuments) {
				return fmt.Errorf("%w in %s", err, dataDir)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d resources into %s using %s\n", n, out, embedder.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "folder of resource JSON files (default index.data_dir)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "index file to write (default index.path)")
	return cmd
}
