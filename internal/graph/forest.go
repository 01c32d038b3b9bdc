package graph

import "github.com/alfredjeanlab/sitenav/internal/model"

// DefaultRootLimit is how many roots BuildForest expands when no limit is
// configured.
const DefaultRootLimit = 10

// ForestOptions controls which roots are expanded.
type ForestOptions struct {
	TreeOptions

	// RootLimit is how many roots are expanded eagerly. The rest are only
	// counted. Zero or negative means no limit.
	RootLimit int
}

// Forest is the full-tree view of a snapshot.
type Forest struct {
	Trees []*TreeNode

	// Hidden is the number of roots beyond RootLimit that were not expanded.
	Hidden int

	// Total is the number of distinct nodes in the snapshot.
	Total int
}

// BuildForest expands the root set of idx, bounded by opts.RootLimit.
func BuildForest(idx *Index, opts ForestOptions) *Forest {
	roots := idx.Roots()
	f := &Forest{Total: idx.Len()}
	if opts.RootLimit > 0 && len(roots) > opts.RootLimit {
		f.Hidden = len(roots) - opts.RootLimit
		roots = roots[:opts.RootLimit]
	}
	for _, r := range roots {
		f.Trees = append(f.Trees, BuildTree(r, idx, opts.TreeOptions))
	}
	return f
}

// FocusForest builds a single-tree forest rooted at id. It reports false when
// id is not in the snapshot.
func FocusForest(idx *Index, id string, opts TreeOptions) (*Forest, bool) {
	n, ok := idx.Lookup(id)
	if !ok {
		return nil, false
	}
	return &Forest{
		Trees: []*TreeNode{BuildTree(n, idx, opts)},
		Total: idx.Len(),
	}, true
}

// FromNodes indexes nodes and builds their forest in one call.
func FromNodes(nodes []model.NodeItem, opts ForestOptions) *Forest {
	return BuildForest(NewIndex(nodes), opts)
}
