package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/navigator"
	"github.com/alfredjeanlab/sitenav/internal/tui"
)

var exploreCmd = &cobra.Command{
	Use:     "explore",
	Short:   "Browse the crawl graph interactively",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The explorer owns the terminal, so logs go to a file or nowhere.
		var logOut io.Writer = io.Discard
		if cfg.LogFile != "" {
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}
		log := newLogger(logOut, cfg.LogLevel)

		nav := navigator.New(backend,
			navigator.WithMaxDepth(cfg.MaxDepth),
			navigator.WithTreeThreshold(cfg.TreeThreshold),
			navigator.WithForestOptions(graph.ForestOptions{RootLimit: cfg.RootLimit}),
			navigator.WithRefreshDelays(cfg.RefreshDelays...),
			navigator.WithLogger(log),
		)
		defer nav.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				log.Warn("crawl events unavailable", "err", err)
			} else {
				defer sub.Close()
				go func() {
					if err := nav.Scans().Watch(ctx, sub); err != nil {
						log.Warn("watching crawl events", "err", err)
					}
				}()
			}
		}

		return tui.Run(ctx, nav, fetchPreview(backend))
	},
}
