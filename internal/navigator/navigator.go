// Package navigator owns the client's navigation state: the landing screen,
// the focused explorer window and the whole-tree screen, and the transitions
// between them. Scans triggered while navigating are reconciled through
// refreshes that are discarded once the navigation that scheduled them has
// been superseded.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/idgen"
	"github.com/alfredjeanlab/sitenav/internal/scan"
	"github.com/alfredjeanlab/sitenav/internal/view"
)

// Navigator runs navigation operations against a backend. Operations block
// until their fetches finish; every method is safe for concurrent use.
type Navigator struct {
	backend  client.Backend
	windowed *view.WindowedView
	tree     *view.TreeView
	scans    *scan.Orchestrator

	maxDepth      int
	treeThreshold int
	forest        graph.ForestOptions
	delays        []time.Duration
	logger        *slog.Logger

	mu        sync.Mutex
	state     State
	seq       uint64 // bumped by every user operation
	inflight  int
	target    string // url whose refreshes are still wanted
	observers []func(State)
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithMaxDepth sets the crawl depth requested by scans.
func WithMaxDepth(d int) Option { return func(n *Navigator) { n.maxDepth = d } }

// WithTreeThreshold sets the largest graph shown as a whole tree.
func WithTreeThreshold(t int) Option { return func(n *Navigator) { n.treeThreshold = t } }

// WithForestOptions bounds the whole-tree screen.
func WithForestOptions(o graph.ForestOptions) Option { return func(n *Navigator) { n.forest = o } }

// WithRefreshDelays overrides the delays of post-scan refreshes.
func WithRefreshDelays(d ...time.Duration) Option {
	return func(n *Navigator) { n.delays = d }
}

// WithLogger sets the logger for failed backend calls and discarded results.
func WithLogger(l *slog.Logger) Option { return func(n *Navigator) { n.logger = l } }

// New creates a navigator in the landing mode with an empty state. Call
// Start to load the landing listing.
func New(backend client.Backend, opts ...Option) *Navigator {
	n := &Navigator{
		backend:       backend,
		maxDepth:      1,
		treeThreshold: view.DefaultTreeThreshold,
		forest:        graph.ForestOptions{RootLimit: graph.DefaultRootLimit},
		delays:        scan.DefaultDelays,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.windowed = view.NewWindowedView(backend)
	n.tree = view.NewTreeView(backend, n.forest)
	n.scans = scan.New(backend, n.Refresh, scan.WithDelays(n.delays...), scan.WithLogger(n.logger))
	n.state = State{Mode: ModeLanding, Session: idgen.Session()}
	return n
}

// Scans exposes the orchestrator, e.g. to watch backend scan events.
func (n *Navigator) Scans() *scan.Orchestrator { return n.scans }

// Close cancels pending refreshes and waits for running ones.
func (n *Navigator) Close() {
	n.scans.Close()
}

// Snapshot returns a copy of the current state.
func (n *Navigator) Snapshot() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Clone()
}

// OnChange registers fn to receive a copy of every new state.
func (n *Navigator) OnChange(fn func(State)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, fn)
}

// replace applies fn to a copy of the state and installs the result. Must be
// called with n.mu held; the returned function notifies observers and must be
// called after unlocking.
func (n *Navigator) replace(fn func(*State)) func() {
	next := n.state.Clone()
	fn(&next)
	n.state = next
	observers := slices.Clone(n.observers)
	return func() {
		for _, obs := range observers {
			obs(next.Clone())
		}
	}
}

func (n *Navigator) update(fn func(*State)) {
	n.mu.Lock()
	notify := n.replace(fn)
	n.mu.Unlock()
	notify()
}

// begin starts a user operation, superseding any still in flight.
func (n *Navigator) begin() uint64 {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.inflight++
	notify := n.replace(func(s *State) { s.Loading = true })
	n.mu.Unlock()
	notify()
	return seq
}

// end finishes a user operation. Loading stays set while others are running.
func (n *Navigator) end() {
	n.mu.Lock()
	n.inflight--
	notify := n.replace(func(s *State) { s.Loading = n.inflight > 0 })
	n.mu.Unlock()
	notify()
}

// commit installs fn's changes unless a later user operation has started.
func (n *Navigator) commit(seq uint64, fn func(*State)) bool {
	n.mu.Lock()
	if seq != n.seq {
		n.mu.Unlock()
		n.logger.Debug("discarding superseded result", "seq", seq)
		return false
	}
	notify := n.replace(fn)
	n.mu.Unlock()
	notify()
	return true
}

// retarget records url as the navigation target and cancels refreshes
// scheduled for a different one.
func (n *Navigator) retarget(url string) {
	n.mu.Lock()
	prev := n.target
	n.target = url
	n.mu.Unlock()
	if prev != url {
		n.scans.Cancel()
	}
}

// Start loads the landing listing.
func (n *Navigator) Start(ctx context.Context) error {
	seq := n.begin()
	defer n.end()
	return n.loadLanding(ctx, seq, "")
}

func (n *Navigator) loadLanding(ctx context.Context, seq uint64, status string) error {
	page, err := n.windowed.Show(ctx, "")
	if err != nil {
		n.logger.Error("fetching history", "err", err)
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return fmt.Errorf("fetching history: %w", err)
	}
	n.commit(seq, func(s *State) {
		s.Mode = ModeLanding
		s.clearWindow()
		s.History = page.Nodes
		s.Roots = page.Roots
		s.Status = status
	})
	return nil
}

// TypeURL sets the free-text input. It never changes the focused node.
func (n *Navigator) TypeURL(url string) {
	n.update(func(s *State) { s.URL = url })
}

// Submit focuses the typed url, optionally triggering a scan of it first.
// An unknown url leaves the mode unchanged.
func (n *Navigator) Submit(ctx context.Context, rescan bool) error {
	url := strings.TrimSpace(n.Snapshot().URL)
	if url == "" {
		return nil
	}
	return n.goTo(ctx, url, rescan)
}

// Select focuses a node picked from the landing listing.
func (n *Navigator) Select(ctx context.Context, id string) error {
	return n.goTo(ctx, id, false)
}

// Navigate moves the explorer to a parent or child, optionally rescanning it.
func (n *Navigator) Navigate(ctx context.Context, id string, rescan bool) error {
	return n.goTo(ctx, id, rescan)
}

func (n *Navigator) goTo(ctx context.Context, url string, rescan bool) error {
	if rescan {
		return n.scanAndFocus(ctx, url)
	}
	seq := n.begin()
	defer n.end()

	// Nothing about the current page changes until url has loaded.
	fv, err := n.windowed.Focus(ctx, url)
	switch {
	case errors.Is(err, client.ErrNotFound):
		n.commit(seq, func(s *State) { s.Status = "not found: " + url })
		return err
	case err != nil:
		n.logger.Error("fetching focused view", "url", url, "err", err)
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return err
	}
	if n.commit(seq, func(s *State) {
		s.URL = url
		s.setWindow(fv)
		s.Status = ""
	}) {
		n.retarget(url)
	}
	return nil
}

// scanAndFocus starts a crawl of url and focuses it. url becomes the target
// up front so the post-scan refreshes can focus it once the crawl reaches it.
func (n *Navigator) scanAndFocus(ctx context.Context, url string) error {
	n.retarget(url)
	seq := n.begin()
	defer n.end()

	n.commit(seq, func(s *State) { s.URL = url })

	resp, err := n.scans.TriggerScan(ctx, url, n.maxDepth)
	status := scan.StatusText(resp, err)
	if err != nil {
		n.logger.Error("triggering scan", "url", url, "err", err)
		n.commit(seq, func(s *State) { s.Status = status })
		return err
	}

	fv, err := n.windowed.Focus(ctx, url)
	switch {
	case errors.Is(err, client.ErrNotFound):
		n.commit(seq, func(s *State) { s.Status = status })
		return nil
	case err != nil:
		n.logger.Error("fetching focused view", "url", url, "err", err)
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return err
	}
	n.commit(seq, func(s *State) {
		s.setWindow(fv)
		s.Status = status
	})
	return nil
}

// ShowTree switches to the whole-tree screen when the graph is small enough.
// Larger graphs stay in the current mode with a status explaining why.
func (n *Navigator) ShowTree(ctx context.Context) error {
	seq := n.begin()
	defer n.end()

	snap, err := n.backend.ListNodes(ctx)
	if err != nil {
		n.logger.Error("fetching listing", "err", err)
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return err
	}
	v := view.Select(snap.Len(), n.treeThreshold, n.tree, n.windowed)
	if v.Name() != n.tree.Name() {
		n.commit(seq, func(s *State) {
			s.Status = fmt.Sprintf("%d nodes is too many for the tree view", snap.Len())
		})
		return nil
	}
	page, err := v.Show(ctx, "")
	if err != nil {
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return err
	}
	n.commit(seq, func(s *State) {
		s.Mode = ModeTree
		s.clearWindow()
		s.Forest = page.Forest
		s.Status = ""
	})
	return nil
}

// Back returns to the landing screen and reloads the listing.
func (n *Navigator) Back(ctx context.Context) error {
	n.retarget("")
	seq := n.begin()
	defer n.end()
	return n.loadLanding(ctx, seq, "")
}

// Reset clears the backend and every piece of navigation state, cancels all
// pending refreshes and starts a new session.
func (n *Navigator) Reset(ctx context.Context) error {
	seq := n.begin()
	defer n.end()

	if err := n.backend.Reset(ctx); err != nil {
		n.logger.Error("resetting backend", "err", err)
		n.commit(seq, func(s *State) { s.Status = client.StatusMessage(err) })
		return err
	}

	n.mu.Lock()
	n.target = ""
	n.mu.Unlock()
	n.scans.Cancel()

	session := idgen.Session()
	if !n.commit(seq, func(s *State) {
		loading := s.Loading
		*s = State{Mode: ModeLanding, Session: session, Loading: loading}
	}) {
		return nil
	}
	n.logger.Info("session reset", "session", session)
	return n.loadLanding(ctx, seq, "")
}

// Refresh re-fetches the screen for url. It is the callback of post-scan
// refreshes and is applied only while url is still the navigation target and
// no user operation has started since the fetch began.
func (n *Navigator) Refresh(ctx context.Context, url string) {
	n.mu.Lock()
	st := n.state.Clone()
	seq := n.seq
	target := n.target
	n.mu.Unlock()

	if url == "" || url != target {
		n.logger.Debug("discarding refresh for stale target", "url", url, "target", target)
		return
	}

	var apply func(*State)
	switch st.Mode {
	case ModeTree:
		page, err := n.tree.Show(ctx, "")
		if err != nil {
			n.logger.Warn("refreshing tree", "err", err)
			return
		}
		apply = func(s *State) { s.Forest = page.Forest }
	default:
		fv, err := n.windowed.Focus(ctx, url)
		switch {
		case err == nil:
			apply = func(s *State) {
				s.setWindow(fv)
				s.URL = url
			}
		case errors.Is(err, client.ErrNotFound) && st.Mode == ModeLanding:
			page, err := n.windowed.Show(ctx, "")
			if err != nil {
				n.logger.Warn("refreshing history", "err", err)
				return
			}
			apply = func(s *State) {
				s.History = page.Nodes
				s.Roots = page.Roots
			}
		default:
			n.logger.Warn("refreshing focused view", "url", url, "err", err)
			return
		}
	}

	n.mu.Lock()
	if ctx.Err() != nil || seq != n.seq || n.target != url || n.state.Session != st.Session {
		n.mu.Unlock()
		n.logger.Debug("discarding superseded refresh", "url", url)
		return
	}
	notify := n.replace(apply)
	n.mu.Unlock()
	notify()
	n.logger.Debug("refresh applied", "url", url, "mode", st.Mode)
}
