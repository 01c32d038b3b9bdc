package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch <url>",
	Short:   "Print new children of a page as the crawl discovers them",
	GroupID: "crawl",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")

		w := &pageWatcher{
			backend: backend,
			url:     args[0],
			out:     cmd.OutOrStdout(),
			seen:    make(map[string]bool),
		}
		ctx := cmd.Context()

		if err := w.poll(ctx); err != nil {
			return err
		}
		if once {
			return nil
		}
		if cfg.NATSURL != "" {
			return w.watchNATS(ctx, cfg.NATSURL)
		}
		return w.watchPoll(ctx, interval)
	},
}

// pageWatcher re-reads one page's focused view and prints children it has
// not printed before.
type pageWatcher struct {
	backend client.Backend
	url     string
	out     io.Writer
	seen    map[string]bool
	found   bool
}

// poll queries the page once. A page that is not crawled yet is not an error.
func (w *pageWatcher) poll(ctx context.Context) error {
	fv, err := w.backend.Focus(ctx, w.url)
	if errors.Is(err, client.ErrNotFound) {
		if !w.found {
			logger.Debug("page not crawled yet", "url", w.url)
		}
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if !w.found {
		w.found = true
		if !jsonOutput {
			fmt.Fprintf(w.out, "%s %s\n", ui.RenderAccent(fv.Current.DisplayLabel()), ui.RenderMuted(fv.Current.ID))
		}
	}
	added := diffChildren(fv.Children, w.seen)
	for _, c := range added {
		if jsonOutput {
			if err := printJSON(w.out, c); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w.out, "%s %s  %s\n", time.Now().Format("15:04:05"), ui.RenderOK("+"), c.ID)
	}
	return nil
}

// watchNATS re-queries after crawl events, debounced, and immediately after
// a reconnect so missed events are caught up.
func (w *pageWatcher) watchNATS(ctx context.Context, natsURL string) error {
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to crawl events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := w.poll(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *pageWatcher) watchPoll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := w.poll(ctx); err != nil {
			return err
		}
	}
}

// diffChildren returns the children not yet in seen, in order, and marks
// them seen.
func diffChildren(children []model.NodeItem, seen map[string]bool) []model.NodeItem {
	var added []model.NodeItem
	for _, c := range children {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		added = append(added, c)
	}
	return added
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when no NATS server is configured")
	watchCmd.Flags().Bool("once", false, "print the current children and exit")
}
