package graph

import (
	"fmt"
	"io"
)

// CyclicMarker annotates a node that closes a cycle on its branch.
const CyclicMarker = "(cyclic)"

// RenderOptions controls ASCII output.
type RenderOptions struct {
	// Decorate, when set, styles annotation text such as CyclicMarker.
	Decorate func(string) string
}

func (o RenderOptions) decorate(s string) string {
	if o.Decorate == nil {
		return s
	}
	return o.Decorate(s)
}

// RenderForest writes every tree of f followed by the hidden-root count.
func RenderForest(w io.Writer, f *Forest, opts RenderOptions) error {
	if f == nil || len(f.Trees) == 0 {
		_, err := fmt.Fprintln(w, "No nodes.")
		return err
	}
	for _, t := range f.Trees {
		if err := RenderTree(w, t, opts); err != nil {
			return err
		}
	}
	if f.Hidden > 0 {
		if _, err := fmt.Fprintln(w, opts.decorate(fmt.Sprintf("… %d more roots", f.Hidden))); err != nil {
			return err
		}
	}
	return nil
}

// RenderTree writes t as an ASCII tree with ├── / └── connectors.
func RenderTree(w io.Writer, t *TreeNode, opts RenderOptions) error {
	if t == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, nodeLine(t, opts)); err != nil {
		return err
	}
	return renderChildren(w, t.Children, "", opts)
}

func renderChildren(w io.Writer, children []*TreeNode, prefix string, opts RenderOptions) error {
	for i, c := range children {
		isLast := i == len(children)-1

		connector := "├── "
		childPrefix := prefix + "│   "
		if isLast {
			connector = "└── "
			childPrefix = prefix + "    "
		}

		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, connector, nodeLine(c, opts)); err != nil {
			return err
		}
		if err := renderChildren(w, c.Children, childPrefix, opts); err != nil {
			return err
		}
	}
	return nil
}

func nodeLine(t *TreeNode, opts RenderOptions) string {
	line := t.Node.DisplayLabel()
	if t.Node.Label != "" && t.Node.Label != t.Node.ID {
		line += " <" + t.Node.ID + ">"
	}
	switch {
	case t.Cyclic:
		line += " " + opts.decorate(CyclicMarker)
	case t.Truncated:
		line += " " + opts.decorate("…")
	}
	return line
}
