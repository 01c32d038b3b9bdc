package model

// NodeItem is one crawled page. ID is the canonical URL and doubles as the
// navigation target. Children may reference ids that are not present in the
// same snapshot and may form cycles.
type NodeItem struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Children []string `json:"children"`
}

// DisplayLabel returns the label, falling back to the id when empty.
func (n NodeItem) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Clone returns a copy of n that shares no memory with it.
func (n NodeItem) Clone() NodeItem {
	out := n
	if n.Children != nil {
		out.Children = append([]string(nil), n.Children...)
	}
	return out
}

// CloneNodes copies a node slice element-wise. A nil input stays nil.
func CloneNodes(nodes []NodeItem) []NodeItem {
	if nodes == nil {
		return nil
	}
	out := make([]NodeItem, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Snapshot is the full node listing returned by one fetch. It is treated as
// immutable: callers replace it on re-fetch instead of editing it.
type Snapshot struct {
	Nodes []NodeItem `json:"nodes"`
}

// Len returns the number of nodes in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}
