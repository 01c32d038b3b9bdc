// Package archive captures the backend's full listing and writes it to one or
// more destinations, once or on an interval.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/idgen"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// Capture fetches the current listing from backend as a new archive.
func Capture(ctx context.Context, backend client.Backend, source string) (*model.Archive, error) {
	snap, err := backend.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return &model.Archive{
		ID:      idgen.Snapshot(),
		Source:  source,
		TakenAt: time.Now().UTC(),
		Nodes:   snap.Nodes,
	}, nil
}

// WriteAll writes a to every destination concurrently. Every destination is
// attempted; the first error is returned.
func WriteAll(ctx context.Context, a *model.Archive, destinations []Destination) error {
	var g errgroup.Group
	for _, dest := range destinations {
		g.Go(func() error {
			if err := dest.Write(ctx, a); err != nil {
				return fmt.Errorf("%s: %w", dest.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Scheduler runs periodic archives to one or more destinations.
type Scheduler struct {
	backend      client.Backend
	source       string
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that archives the backend's listing to the
// given destinations at the specified interval.
func NewScheduler(backend client.Backend, source string, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		backend:      backend,
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// RunOnce captures and writes a single archive.
func (s *Scheduler) RunOnce(ctx context.Context) (*model.Archive, error) {
	a, err := Capture(ctx, s.backend, s.source)
	if err != nil {
		return nil, err
	}
	if err := WriteAll(ctx, a, s.destinations); err != nil {
		return a, err
	}
	s.logger.Info("archive completed", "id", a.ID, "nodes", len(a.Nodes), "destinations", len(s.destinations))
	return a, nil
}

// Start begins periodic archiving. It runs once immediately, then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current archive (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("archive failed", "err", err)
	}
}
