package view

import (
	"context"
	"fmt"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// WindowedView shows one node's direct parents and children as returned by
// the backend's focused query. It never walks the graph itself, so its cost
// does not depend on how large the crawl has grown.
type WindowedView struct {
	backend client.Backend
}

// NewWindowedView creates a windowed view over backend.
func NewWindowedView(backend client.Backend) *WindowedView {
	return &WindowedView{backend: backend}
}

func (v *WindowedView) Name() string { return "windowed" }

// Show returns the landing listing for an empty focus and a focused window
// otherwise. The backend answers both through the same endpoint, so the
// response shape decides the page kind.
func (v *WindowedView) Show(ctx context.Context, focus string) (*Page, error) {
	resp, err := v.backend.Tree(ctx, focus)
	if err != nil {
		return nil, err
	}
	if resp.IsFocused() {
		return &Page{Kind: PageFocused, Focus: resp.Focused()}, nil
	}
	if focus != "" {
		return nil, fmt.Errorf("%w: %s", client.ErrNotFound, focus)
	}
	nodes := resp.Nodes
	if nodes == nil {
		nodes = []model.NodeItem{}
	}
	return landingPage(nodes), nil
}

// Focus returns the window around id.
func (v *WindowedView) Focus(ctx context.Context, id string) (*model.FocusedView, error) {
	page, err := v.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	if page.Kind != PageFocused {
		return nil, fmt.Errorf("%w: %s", client.ErrNotFound, id)
	}
	return page.Focus, nil
}
