// Package sandbox is an in-memory crawl backend that serves the same HTTP
// boundary as the real service. Scans are accepted immediately and their
// nodes appear after a configurable delay, mimicking an asynchronous crawl.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/events"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// Crawler produces the nodes discovered by crawling url down to maxDepth.
type Crawler func(url string, maxDepth int) []model.NodeItem

// Server holds the node store and the pending crawl jobs.
type Server struct {
	mu      sync.RWMutex
	nodes   map[string]model.NodeItem
	order   []string
	scans   []model.ScanRequest
	taskSeq int
	lookups map[string]int

	crawl      Crawler
	crawlDelay time.Duration
	publisher  events.Publisher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithCrawler replaces the synthetic crawler.
func WithCrawler(c Crawler) Option { return func(s *Server) { s.crawl = c } }

// WithCrawlDelay sets how long a scan takes before its nodes are stored.
func WithCrawlDelay(d time.Duration) Option { return func(s *Server) { s.crawlDelay = d } }

// WithPublisher emits scan and reset events.
func WithPublisher(p events.Publisher) Option { return func(s *Server) { s.publisher = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// New creates an empty sandbox backend.
func New(opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		nodes:      make(map[string]model.NodeItem),
		lookups:    make(map[string]int),
		crawl:      SyntheticCrawl,
		crawlDelay: 5 * time.Second,
		publisher:  &events.NoopPublisher{},
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops pending crawls and waits for them to exit.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Seed stores nodes directly, replacing any with the same id.
func (s *Server) Seed(nodes []model.NodeItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(nodes)
}

func (s *Server) storeLocked(nodes []model.NodeItem) {
	for _, n := range nodes {
		if _, ok := s.nodes[n.ID]; !ok {
			s.order = append(s.order, n.ID)
		}
		s.nodes[n.ID] = n.Clone()
	}
}

// Nodes returns every stored node in insertion order.
func (s *Server) Nodes() []model.NodeItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.NodeItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

// Scans returns the scan requests accepted so far.
func (s *Server) Scans() []model.ScanRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ScanRequest(nil), s.scans...)
}

// Lookups reports how many focused-view requests were served for url.
func (s *Server) Lookups(url string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookups[url]
}

// Reset drops all nodes. Crawls still in flight will store their results
// when they finish, as the real backend does.
func (s *Server) Reset() {
	s.mu.Lock()
	s.nodes = make(map[string]model.NodeItem)
	s.order = nil
	s.mu.Unlock()
	s.publish(events.TopicReset, events.ResetEvent{})
}

// enqueue records a scan and starts its crawl. Returns the task id.
func (s *Server) enqueue(req model.ScanRequest) string {
	s.mu.Lock()
	s.taskSeq++
	taskID := fmt.Sprintf("t%d", s.taskSeq)
	s.scans = append(s.scans, req)
	s.mu.Unlock()

	s.publish(events.TopicScanAccepted, events.ScanEvent{TaskID: taskID, URL: req.URL})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.crawlDelay > 0 {
			timer := time.NewTimer(s.crawlDelay)
			defer timer.Stop()
			select {
			case <-s.ctx.Done():
				return
			case <-timer.C:
			}
		}
		found := s.crawl(req.URL, req.MaxDepth)
		s.mu.Lock()
		s.storeLocked(found)
		s.mu.Unlock()
		s.logger.Info("crawl finished", "task_id", taskID, "url", req.URL, "nodes", len(found))
		s.publish(events.TopicScanCompleted, events.ScanEvent{TaskID: taskID, URL: req.URL, Nodes: len(found)})
	}()
	return taskID
}

func (s *Server) publish(topic string, event any) {
	if err := s.publisher.Publish(s.ctx, topic, event); err != nil {
		s.logger.Warn("publishing event", "topic", topic, "err", err)
	}
}

// focus builds the focused view of url from the stored nodes.
func (s *Server) focus(url string) (*model.FocusedView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[url]++
	cur, ok := s.nodes[url]
	if !ok {
		return nil, false
	}
	view := &model.FocusedView{
		Current:  cur.Clone(),
		Parents:  []model.NodeItem{},
		Children: []model.NodeItem{},
	}
	for _, cid := range cur.Children {
		if child, ok := s.nodes[cid]; ok {
			view.Children = append(view.Children, child.Clone())
		}
	}
	for _, id := range s.order {
		n := s.nodes[id]
		for _, cid := range n.Children {
			if cid == url {
				view.Parents = append(view.Parents, n.Clone())
				break
			}
		}
	}
	return view, true
}
