package graph

// ancestry is an immutable set of ids visited on one branch of a tree
// expansion, stored as a linked list from the current node back to the root.
// with returns a new cell and leaves the receiver untouched, so sibling
// branches that share a prefix never see each other's marks.
type ancestry struct {
	id     string
	parent *ancestry
}

func (a *ancestry) with(id string) *ancestry {
	return &ancestry{id: id, parent: a}
}

func (a *ancestry) contains(id string) bool {
	for cur := a; cur != nil; cur = cur.parent {
		if cur.id == id {
			return true
		}
	}
	return false
}
