package scan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/idgen"
)

// RefreshFunc re-fetches whatever the owner shows for url. ctx is cancelled
// when the scheduler's session is cancelled, including mid-fetch.
type RefreshFunc func(ctx context.Context, url string)

// Scheduler runs delayed refreshes. All pending tasks belong to the current
// session; Cancel ends that session and starts a fresh one.
type Scheduler struct {
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[string]string // task id -> url
	fired   int

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler with an open session.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]string),
	}
}

// After schedules fn(url) to run once delay has elapsed and returns the task id.
func (s *Scheduler) After(delay time.Duration, url string, fn RefreshFunc) string {
	id := idgen.Refresh()

	s.mu.Lock()
	ctx := s.ctx
	s.pending[id] = url
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			s.logger.Debug("refresh cancelled", "task", id, "url", url)
			return
		case <-timer.C:
		}

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.fired++
		s.mu.Unlock()

		s.logger.Debug("refresh firing", "task", id, "url", url)
		fn(ctx, url)
	}()
	return id
}

// Cancel drops every pending task, aborts refreshes that are mid-fetch and
// opens a new session. It returns how many pending tasks were dropped.
func (s *Scheduler) Cancel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.pending = make(map[string]string)
	if n > 0 {
		s.logger.Info("refreshes cancelled", "count", n)
	}
	return n
}

// Pending returns the urls of tasks that have not fired yet, keyed by task id.
func (s *Scheduler) Pending() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.pending))
	for id, url := range s.pending {
		out[id] = url
	}
	return out
}

// Fired reports how many tasks have fired since the scheduler was created.
func (s *Scheduler) Fired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Stop cancels the session and waits for running refreshes to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.pending = make(map[string]string)
	s.mu.Unlock()
	s.wg.Wait()
}
