// Package client provides a transport-agnostic interface for the crawl
// backend and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// ErrNotFound is returned when the backend has no node for a focused-view url.
var ErrNotFound = errors.New("not found")

// Backend is the interface that the navigator, the scan orchestrator and all
// CLI commands use to communicate with the crawl backend.
type Backend interface {
	// Scan enqueues a crawl job and returns as soon as the backend accepts it.
	Scan(ctx context.Context, req *model.ScanRequest) (*model.ScanResponse, error)

	// Tree fetches GET /api/v1/tree. An empty url returns the flat listing;
	// otherwise the focused view of url. The raw union is returned so callers
	// can route on its shape.
	Tree(ctx context.Context, url string) (*model.TreeResponse, error)

	// ListNodes returns the full node listing.
	ListNodes(ctx context.Context) (*model.Snapshot, error)

	// Focus returns the focused view of url, or ErrNotFound.
	Focus(ctx context.Context, url string) (*model.FocusedView, error)

	// Reset clears all data stored by the backend.
	Reset(ctx context.Context) error

	// Render returns the raw HTML the backend serves for url.
	Render(ctx context.Context, url string) ([]byte, error)

	// Health returns the backend's root greeting.
	Health(ctx context.Context) (string, error)

	Close() error
}
