package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/ui"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the backend is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		msg, err := backend.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", cfg.URL, err)
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"url":        cfg.URL,
				"message":    msg,
				"latency_ms": elapsed.Milliseconds(),
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n%s\n", ui.RenderOK("ok"), cfg.URL, elapsed, msg)
		return nil
	},
}
