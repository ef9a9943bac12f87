package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/askhub/hub/pkg/client"
)

var errNoFiles = errors.New("no files to ingest: pass paths or --glob")

type ingestOptions struct {
	globs      []string
	sourceType string
	noProgress bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest local text files",
		Long: `Reads each file and sends its text to POST /v1/ingest. The file path is used as the source name.
Files can be listed directly or matched with --glob (doublestar patterns such as "docs/**/*.md").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, root, opts, args)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.globs, "glob", "g", nil, "glob pattern of files to ingest (repeatable)")
	cmd.Flags().StringVar(&opts.sourceType, "source-type", "doc", "source type recorded for every chunk")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

// collectFiles returns the explicit paths plus every regular file matched by the patterns, deduplicated and sorted.
func collectFiles(paths, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	files := make([]string, 0, len(paths))

	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, p := range paths {
		add(p)
	}

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}

		for _, m := range matches {
			add(m)
		}
	}

	slices.Sort(files)

	return files, nil
}

func runIngest(cmd *cobra.Command, root *rootOptions, opts *ingestOptions, args []string) error {
	files, err := collectFiles(args, opts.globs)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errNoFiles
	}

	var bar *progressbar.ProgressBar
	if !opts.noProgress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("ingesting"),
			progressbar.OptionSetWidth(32),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	c := root.client()

	var (
		chunks  int
		skipped int
		failed  int
	)

	for _, path := range files {
		data, err := os.ReadFile(path)

		switch {
		case err != nil:
			failed++

			cmd.PrintErrf("%s: %v\n", path, err)
		case strings.TrimSpace(string(data)) == "":
			skipped++
		default:
			resp, err := c.Ingest(cmd.Context(), client.IngestRequest{
				Text:       string(data),
				SourceType: opts.sourceType,
				SourceName: path,
			})
			if err != nil {
				failed++

				cmd.PrintErrf("%s: %v\n", path, err)
			} else {
				chunks += resp.Chunks
			}
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d chunks from %d files (%d empty skipped, %d failed)\n",
		chunks, len(files)-skipped-failed, skipped, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	return nil
}
