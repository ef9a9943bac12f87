package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askhub/hub/pkg/client"
)

const previewChars = 60

func newChunksCmd(root *rootOptions) *cobra.Command {
	opts := client.ListChunksOptions{}

	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "List stored chunks, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := root.client().ListChunks(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("list chunks failed: %w", err)
			}

			if len(resp.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chunks found.")

				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tTYPE\tDIMS\tTEXT")

			for _, c := range resp.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", c.ID, c.SourceName, c.SourceType, c.Dimensions, preview(c.Text))
			}

			if err := w.Flush(); err != nil {
				return fmt.Errorf("failed to write table: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d (offset %d)\n", len(resp.Data), resp.Total, resp.Offset)

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.SourceType, "source-type", "", "only list chunks of this source type")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "page size (server default 100, max 1000)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of chunks to skip")

	return cmd
}

// preview flattens whitespace and truncates text for one table cell.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= previewChars {
		return text
	}

	return string(runes[:previewChars-3]) + "..."
}
