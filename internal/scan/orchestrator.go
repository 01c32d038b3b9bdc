// Package scan submits crawl jobs and reconciles the client's views with a
// backend whose crawl finishes at an unknown time. After each accepted scan
// it schedules two delayed refreshes of the scanned url.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// DefaultDelays are the refresh delays used after each scan: a short one for
// fast crawls and a longer one for the rest.
var DefaultDelays = []time.Duration{2 * time.Second, 8 * time.Second}

// FailedToStart is the scan status when the backend rejects a scan without
// saying why.
const FailedToStart = "Failed to start scan"

// ErrInvalidRequest is returned for scans rejected before any request is made.
var ErrInvalidRequest = errors.New("invalid scan request")

// Orchestrator triggers scans and owns their follow-up refreshes.
type Orchestrator struct {
	backend client.Backend
	refresh RefreshFunc
	sched   *Scheduler
	delays  []time.Duration
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelays overrides DefaultDelays.
func WithDelays(delays ...time.Duration) Option {
	return func(o *Orchestrator) { o.delays = delays }
}

// WithLogger sets the logger for scan failures and fired refreshes.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator. refresh is invoked for each fired refresh.
func New(backend client.Backend, refresh RefreshFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		refresh: refresh,
		delays:  DefaultDelays,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sched = NewScheduler(o.logger)
	return o
}

// TriggerScan submits a crawl of url and returns as soon as the backend has
// accepted it. The refreshes it schedules are independent of any other scan.
func (o *Orchestrator) TriggerScan(ctx context.Context, url string, maxDepth int) (*model.ScanResponse, error) {
	req := &model.ScanRequest{URL: url, MaxDepth: maxDepth}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	resp, err := o.backend.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	tasks := make([]string, 0, len(o.delays))
	for _, d := range o.delays {
		tasks = append(tasks, o.sched.After(d, url, o.refresh))
	}
	o.logger.Info("scan started", "task_id", resp.TaskID, "url", url, "max_depth", maxDepth, "refreshes", tasks)
	return resp, nil
}

// Cancel drops every pending refresh and aborts in-flight ones.
func (o *Orchestrator) Cancel() int {
	return o.sched.Cancel()
}

// Pending returns outstanding refreshes keyed by task id.
func (o *Orchestrator) Pending() map[string]string {
	return o.sched.Pending()
}

// Close stops the scheduler and waits for running refreshes.
func (o *Orchestrator) Close() {
	o.sched.Stop()
}

// Watch refreshes immediately whenever the backend reports crawl progress for
// a url. The timed refreshes still fire. Watch blocks until ctx is done or the
// subscription closes.
func (o *Orchestrator) Watch(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe("sitenav.scan.>")
	if err != nil {
		return fmt.Errorf("watching scan events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if msg.Topic != events.TopicScanProgress && msg.Topic != events.TopicScanCompleted {
				continue
			}
			ev, err := events.DecodeScanEvent(msg.Data)
			if err != nil {
				o.logger.Warn("ignoring scan event", "topic", msg.Topic, "err", err)
				continue
			}
			o.logger.Debug("scan event", "topic", msg.Topic, "task_id", ev.TaskID, "url", ev.URL)
			o.refresh(ctx, ev.URL)
		}
	}
}

// StatusText renders the outcome of TriggerScan as the one-line status shown
// to the operator.
func StatusText(resp *model.ScanResponse, err error) string {
	var apiErr *client.APIError
	switch {
	case err == nil:
		return "Scan started: " + resp.TaskID
	case errors.As(err, &apiErr):
		if apiErr.Detail == "" {
			return "Error: " + FailedToStart
		}
		return "Error: " + apiErr.Detail
	case errors.Is(err, ErrInvalidRequest):
		return "Error: " + err.Error()
	default:
		return "Error connecting to server"
	}
}
