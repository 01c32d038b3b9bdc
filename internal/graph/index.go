// Package graph turns a flat crawl listing into the structures the views
// display: an id index, the root set, and cycle-safe trees.
//
// Every function here is pure. Inputs are never modified and outputs share
// no memory with them except the immutable NodeItem values themselves.
package graph

import "github.com/alfredjeanlab/sitenav/internal/model"

// Index maps node ids to nodes for one snapshot.
type Index struct {
	byID  map[string]model.NodeItem
	order []string // first-seen order of distinct ids
	roots []string
}

// NewIndex builds the id map and the root set in two passes: one over the
// nodes and one over every children list. Duplicate ids keep the last node
// seen.
func NewIndex(nodes []model.NodeItem) *Index {
	idx := &Index{
		byID:  make(map[string]model.NodeItem, len(nodes)),
		order: make([]string, 0, len(nodes)),
	}
	for _, n := range nodes {
		if _, seen := idx.byID[n.ID]; !seen {
			idx.order = append(idx.order, n.ID)
		}
		idx.byID[n.ID] = n
	}

	referenced := make(map[string]bool, len(idx.byID))
	for _, id := range idx.order {
		for _, child := range idx.byID[id].Children {
			referenced[child] = true
		}
	}

	for _, id := range idx.order {
		if !referenced[id] {
			idx.roots = append(idx.roots, id)
		}
	}
	// Every node is somebody's child (e.g. a root-free cycle): treat them
	// all as roots so the landing view is never empty when data exists.
	if len(idx.roots) == 0 && len(idx.order) > 0 {
		idx.roots = append([]string(nil), idx.order...)
	}
	return idx
}

// Len returns the number of distinct ids.
func (idx *Index) Len() int { return len(idx.order) }

// Lookup returns the node for id.
func (idx *Index) Lookup(id string) (model.NodeItem, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// Has reports whether id is present in the snapshot.
func (idx *Index) Has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Nodes returns the distinct nodes in first-seen order.
func (idx *Index) Nodes() []model.NodeItem {
	out := make([]model.NodeItem, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}

// RootIDs returns the ids of the root set in snapshot order.
func (idx *Index) RootIDs() []string {
	return append([]string(nil), idx.roots...)
}

// Roots returns the root nodes in snapshot order.
func (idx *Index) Roots() []model.NodeItem {
	out := make([]model.NodeItem, 0, len(idx.roots))
	for _, id := range idx.roots {
		out = append(out, idx.byID[id])
	}
	return out
}

// Parents returns the nodes that list id among their children, in snapshot
// order. It is the client-side counterpart of the focused view's parent list
// and is used when a whole snapshot is already in hand.
func (idx *Index) Parents(id string) []model.NodeItem {
	var out []model.NodeItem
	for _, pid := range idx.order {
		p := idx.byID[pid]
		for _, c := range p.Children {
			if c == id {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Roots is a convenience wrapper returning the root set of nodes.
func Roots(nodes []model.NodeItem) []model.NodeItem {
	return NewIndex(nodes).Roots()
}
