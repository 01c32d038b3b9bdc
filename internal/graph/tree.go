package graph

import "github.com/alfredjeanlab/sitenav/internal/model"

// TreeNode is one expanded position in a display tree. The same NodeItem can
// appear at several positions when more than one path reaches it.
type TreeNode struct {
	Node     model.NodeItem
	Depth    int
	Children []*TreeNode

	// Cyclic marks a node whose id already appears among its ancestors on
	// this branch. Its children are never expanded.
	Cyclic bool

	// Truncated marks a node that has children but sits at MaxDepth.
	Truncated bool

	// Dangling counts child ids that are not in the snapshot and were skipped.
	Dangling int
}

// TreeOptions bounds tree expansion.
type TreeOptions struct {
	// MaxDepth stops expansion below this depth (root is depth 0).
	// Zero means unbounded; every branch still ends because a branch cannot
	// revisit a node without being cut.
	MaxDepth int
}

// BuildTree expands root through idx. Ancestor tracking is per branch: a
// node reached twice through different non-cyclic paths expands fully on
// both.
func BuildTree(root model.NodeItem, idx *Index, opts TreeOptions) *TreeNode {
	return buildNode(root, 0, nil, idx, opts)
}

func buildNode(n model.NodeItem, depth int, path *ancestry, idx *Index, opts TreeOptions) *TreeNode {
	if path.contains(n.ID) {
		return &TreeNode{Node: n, Depth: depth, Cyclic: true}
	}

	tn := &TreeNode{Node: n, Depth: depth}
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		tn.Truncated = len(n.Children) > 0
		return tn
	}

	branch := path.with(n.ID)
	for _, childID := range n.Children {
		child, ok := idx.Lookup(childID)
		if !ok {
			tn.Dangling++
			continue
		}
		tn.Children = append(tn.Children, buildNode(child, depth+1, branch, idx, opts))
	}
	return tn
}

// Size returns the number of positions in the tree, including t.
func (t *TreeNode) Size() int {
	if t == nil {
		return 0
	}
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}

// Walk visits every position depth-first, pre-order. Returning false from fn
// skips that position's subtree.
func (t *TreeNode) Walk(fn func(*TreeNode) bool) {
	if t == nil || !fn(t) {
		return
	}
	for _, c := range t.Children {
		c.Walk(fn)
	}
}
