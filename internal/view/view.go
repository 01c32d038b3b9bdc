// Package view provides the two display strategies for a crawl graph: the
// whole-tree view, which materializes a cycle-safe forest from the full
// listing, and the windowed view, which asks the backend for one node's
// parents and children at a time.
package view

import (
	"context"

	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// DefaultTreeThreshold is the largest graph Select still renders as a
// whole tree.
const DefaultTreeThreshold = 500

// PageKind tells the caller which shape a Page carries.
type PageKind int

const (
	// PageLanding carries the flat history listing and its root set.
	PageLanding PageKind = iota

	// PageFocused carries a parents/current/children window.
	PageFocused

	// PageTree carries an expanded forest.
	PageTree
)

func (k PageKind) String() string {
	switch k {
	case PageLanding:
		return "landing"
	case PageFocused:
		return "focused"
	case PageTree:
		return "tree"
	}
	return "unknown"
}

// Page is the result of showing a view.
type Page struct {
	Kind PageKind

	// Nodes is the flat listing (PageLanding).
	Nodes []model.NodeItem
	// Roots is the root set of Nodes (PageLanding).
	Roots []model.NodeItem

	// Focus is the window around one node (PageFocused).
	Focus *model.FocusedView

	// Forest is the expanded tree (PageTree).
	Forest *graph.Forest
}

// View is a display strategy. An empty focus asks for the landing or
// top-level view; otherwise the view is centered on that url.
type View interface {
	Name() string
	Show(ctx context.Context, focus string) (*Page, error)
}

// Select picks the whole-tree strategy for graphs of at most threshold
// nodes and the windowed strategy above it. A threshold of zero or less
// always selects the windowed strategy.
func Select(nodeCount, threshold int, tree *TreeView, windowed *WindowedView) View {
	if threshold > 0 && nodeCount <= threshold {
		return tree
	}
	return windowed
}

func landingPage(nodes []model.NodeItem) *Page {
	idx := graph.NewIndex(nodes)
	return &Page{
		Kind:  PageLanding,
		Nodes: nodes,
		Roots: idx.Roots(),
	}
}
