package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:     "preview <url>",
	Short:   "Summarize the page the backend renders for a URL",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			page, err := backend.Render(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(page)
			return err
		}
		s, err := fetchPreview(backend)(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), s)
		}
		return s.Write(cmd.OutOrStdout())
	},
}

// fetchPreview renders url through b and summarizes the result.
func fetchPreview(b client.Backend) func(ctx context.Context, url string) (*preview.Summary, error) {
	return func(ctx context.Context, url string) (*preview.Summary, error) {
		page, err := b.Render(ctx, url)
		if err != nil {
			return nil, err
		}
		s, err := preview.SummarizeBytes(url, page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", url, err)
		}
		return s, nil
	}
}

func init() {
	previewCmd.Flags().Bool("raw", false, "print the rendered HTML unchanged")
}
