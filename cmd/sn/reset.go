package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/ui"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Delete every crawled page on the backend",
	GroupID: "crawl",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintf(cmd.OutOrStdout(), "Reset clears every crawled page on %s. Continue? [y/N] ", cfg.URL)
			answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}
		if err := backend.Reset(cmd.Context()); err != nil {
			return err
		}
		logger.Info("backend reset", "url", cfg.URL)
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderOK("Reset complete"))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}
