package navigator

import (
	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// Mode is the navigator's current screen.
type Mode string

const (
	ModeLanding  Mode = "landing"
	ModeExplorer Mode = "explorer"
	ModeTree     Mode = "tree"
)

// State is one complete navigation state. The navigator only ever replaces
// it as a whole; readers get copies.
type State struct {
	Mode Mode

	// Current is the focused node in explorer mode, nil otherwise.
	Current  *model.NodeItem
	Parents  []model.NodeItem
	Children []model.NodeItem

	// History is the flat listing shown on the landing screen and Roots its
	// root set.
	History []model.NodeItem
	Roots   []model.NodeItem

	// Forest is the expanded tree in tree mode. It is shared between copies
	// and must not be modified.
	Forest *graph.Forest

	// URL is the free-text input. Typing changes only this field.
	URL string

	Status  string
	Loading bool

	// Session identifies the navigation session; Reset starts a new one.
	Session string
}

// Clone returns a copy of s that shares no slices with it.
func (s State) Clone() State {
	out := s
	if s.Current != nil {
		cur := s.Current.Clone()
		out.Current = &cur
	}
	out.Parents = model.CloneNodes(s.Parents)
	out.Children = model.CloneNodes(s.Children)
	out.History = model.CloneNodes(s.History)
	out.Roots = model.CloneNodes(s.Roots)
	return out
}

// Focus returns the focused node id, or "" outside explorer mode.
func (s State) Focus() string {
	if s.Current == nil {
		return ""
	}
	return s.Current.ID
}

func (s *State) setWindow(fv *model.FocusedView) {
	cur := fv.Current.Clone()
	s.Mode = ModeExplorer
	s.Current = &cur
	s.Parents = model.CloneNodes(fv.Parents)
	s.Children = model.CloneNodes(fv.Children)
	s.Forest = nil
}

func (s *State) clearWindow() {
	s.Current = nil
	s.Parents = nil
	s.Children = nil
	s.Forest = nil
}
