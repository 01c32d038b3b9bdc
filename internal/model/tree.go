package model

// FocusedView is a two-level window around one node: its direct parents and
// its direct children.
type FocusedView struct {
	Current  NodeItem   `json:"current"`
	Parents  []NodeItem `json:"parents"`
	Children []NodeItem `json:"children"`
}

// Clone returns a deep copy of the view.
func (v *FocusedView) Clone() *FocusedView {
	if v == nil {
		return nil
	}
	return &FocusedView{
		Current:  v.Current.Clone(),
		Parents:  CloneNodes(v.Parents),
		Children: CloneNodes(v.Children),
	}
}

// TreeResponse is the decoded body of GET /api/v1/tree. Exactly one shape is
// populated: Nodes for the flat listing, Current/Parents/Children for a
// focused view, or Error when the backend could not resolve the url.
type TreeResponse struct {
	Nodes    []NodeItem `json:"nodes,omitempty"`
	Current  *NodeItem  `json:"current,omitempty"`
	Parents  []NodeItem `json:"parents,omitempty"`
	Children []NodeItem `json:"children,omitempty"`
	Error    any        `json:"error,omitempty"`
}

// IsFocused reports whether the response carries a focused view.
func (r *TreeResponse) IsFocused() bool {
	return r != nil && r.Current != nil
}

// HasError reports whether the backend answered with an error object.
func (r *TreeResponse) HasError() bool {
	return r != nil && r.Error != nil
}

// Focused converts a focused response into a FocusedView. It returns nil for
// listing or error responses.
func (r *TreeResponse) Focused() *FocusedView {
	if !r.IsFocused() {
		return nil
	}
	return &FocusedView{
		Current:  *r.Current,
		Parents:  r.Parents,
		Children: r.Children,
	}
}
