package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/scan"
	"github.com/alfredjeanlab/sitenav/internal/ui"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("reported")

var scanCmd = &cobra.Command{
	Use:     "scan <url>",
	Short:   "Ask the backend to crawl a URL",
	GroupID: "crawl",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := args[0]
		depth := cfg.MaxDepth
		if cmd.Flags().Changed("depth") {
			depth, _ = cmd.Flags().GetInt("depth")
		}
		wait, _ := cmd.Flags().GetBool("wait")
		waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")

		ctx := cmd.Context()
		results := make(chan *model.FocusedView, 8)
		refresh := func(ctx context.Context, url string) {
			fv, err := backend.Focus(ctx, url)
			if err != nil {
				logger.Debug("scan not visible yet", "url", url, "err", err)
				fv = nil
			}
			select {
			case results <- fv:
			default:
			}
		}

		orch := scan.New(backend, refresh, scan.WithDelays(cfg.RefreshDelays...), scan.WithLogger(logger))
		defer orch.Close()

		resp, err := orch.TriggerScan(ctx, url, depth)
		out := cmd.OutOrStdout()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderError(scan.StatusText(nil, err)))
			logger.Debug("scan failed", "url", url, "err", err)
			return errReported
		}
		if jsonOutput && !wait {
			return printJSON(out, resp)
		}
		if !jsonOutput {
			fmt.Fprintln(out, ui.RenderOK(scan.StatusText(resp, nil)))
		}
		if !wait {
			return nil
		}

		// Crawl events, when configured, trigger refreshes as soon as the
		// backend reports progress; the scheduled refreshes still run.
		attempts := len(cfg.RefreshDelays)
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Warn("crawl events unavailable", "err", err)
			} else {
				defer sub.Close()
				watchCtx, stop := context.WithCancel(ctx)
				defer stop()
				go func() {
					if err := orch.Watch(watchCtx, sub); err != nil {
						logger.Warn("watching crawl events", "err", err)
					}
				}()
				attempts = -1
			}
		}

		fv, err := awaitCrawl(ctx, results, attempts, waitTimeout)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", url, err)
		}
		if jsonOutput {
			return printJSON(out, fv)
		}
		printFocused(out, fv)
		return nil
	},
}

// awaitCrawl waits for the first refresh that finds the crawled page. A
// non-negative attempts gives up after that many misses.
func awaitCrawl(ctx context.Context, results <-chan *model.FocusedView, attempts int, timeout time.Duration) (*model.FocusedView, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	misses := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("not crawled after %s", timeout)
		case fv := <-results:
			if fv != nil {
				return fv, nil
			}
			misses++
			if attempts >= 0 && misses >= attempts {
				return nil, fmt.Errorf("not crawled after %d refreshes", misses)
			}
		}
	}
}

func init() {
	scanCmd.Flags().Int("depth", 1, "maximum crawl depth (env SITENAV_MAX_DEPTH)")
	scanCmd.Flags().Bool("wait", false, "wait for the crawl and print the page's window")
	scanCmd.Flags().Duration("wait-timeout", 30*time.Second, "give up waiting after this long")
}
