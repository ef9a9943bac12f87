package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type askOptions struct {
	sources bool
	json    bool
}

func newAskCmd(root *rootOptions) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the ingested text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := root.client().Query(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}

			if opts.json {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal answer: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), string(data))

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)

			if opts.sources && len(resp.TopChunks) > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), "Sources:")

				for i, chunk := range resp.TopChunks {
					fmt.Fprintf(cmd.OutOrStdout(), "  [%d] %s (%s) score %.3f\n", i+1, chunk.SourceName, chunk.SourceType, chunk.Score)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.sources, "sources", true, "print the chunks the answer was built from")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the raw response as JSON")

	return cmd
}
