package view

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/graph"
)

// TreeView materializes the whole listing as a cycle-safe forest.
type TreeView struct {
	backend client.Backend
	opts    graph.ForestOptions
}

// NewTreeView creates a whole-tree view over backend.
func NewTreeView(backend client.Backend, opts graph.ForestOptions) *TreeView {
	return &TreeView{backend: backend, opts: opts}
}

func (v *TreeView) Name() string { return "tree" }

// Show expands the root set, or the single node focus when non-empty.
func (v *TreeView) Show(ctx context.Context, focus string) (*Page, error) {
	snap, err := v.backend.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	idx := graph.NewIndex(snap.Nodes)

	if focus == "" {
		return &Page{Kind: PageTree, Nodes: snap.Nodes, Forest: graph.BuildForest(idx, v.opts)}, nil
	}
	forest, ok := graph.FocusForest(idx, focus, v.opts.TreeOptions)
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrNotFound, focus)
	}
	return &Page{Kind: PageTree, Nodes: snap.Nodes, Forest: forest}, nil
}
