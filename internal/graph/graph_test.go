package graph

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

func node(id string, children ...string) model.NodeItem {
	return model.NodeItem{ID: id, Label: strings.ToUpper(id), Children: children}
}

func ids(nodes []model.NodeItem) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestNewIndex_Roots(t *testing.T) {
	for _, tc := range []struct {
		name  string
		nodes []model.NodeItem
		want  []string
	}{
		{"empty", nil, []string{}},
		{"single", []model.NodeItem{node("a")}, []string{"a"}},
		{"chain", []model.NodeItem{node("a", "b"), node("b", "c"), node("c")}, []string{"a"}},
		{"two roots", []model.NodeItem{node("a", "c"), node("b", "c"), node("c")}, []string{"a", "b"}},
		{"pure cycle falls back to all", []model.NodeItem{node("a", "b"), node("b", "a")}, []string{"a", "b"}},
		{"self loop", []model.NodeItem{node("a", "a")}, []string{"a"}},
		{"cycle below a root", []model.NodeItem{node("r", "a"), node("a", "b"), node("b", "a")}, []string{"r"}},
		{"dangling child ignored", []model.NodeItem{node("a", "ghost"), node("b")}, []string{"a", "b"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(NewIndex(tc.nodes).Roots())
			if fmt.Sprint(got) != fmt.Sprint(tc.want) {
				t.Errorf("roots = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewIndex_DuplicateLastWriteWins(t *testing.T) {
	idx := NewIndex([]model.NodeItem{
		{ID: "a", Label: "first", Children: []string{"b"}},
		node("b"),
		{ID: "a", Label: "second"},
	})
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}
	a, _ := idx.Lookup("a")
	if a.Label != "second" {
		t.Errorf("Label = %q, want last write", a.Label)
	}
	// The surviving "a" has no children, so "b" is unreferenced and a root.
	if got := fmt.Sprint(idx.RootIDs()); got != "[a b]" {
		t.Errorf("roots = %s", got)
	}
}

func TestIndex_Parents(t *testing.T) {
	idx := NewIndex([]model.NodeItem{node("a", "c"), node("b", "c", "c"), node("c")})
	if got := fmt.Sprint(ids(idx.Parents("c"))); got != "[a b]" {
		t.Errorf("Parents(c) = %s", got)
	}
	if len(idx.Parents("a")) != 0 {
		t.Error("root has parents")
	}
}

// randomGraph returns n nodes with random edges, some dangling.
func randomGraph(r *rand.Rand, n int) []model.NodeItem {
	nodes := make([]model.NodeItem, n)
	for i := range nodes {
		nodes[i].ID = fmt.Sprintf("n%d", i)
		for j := 0; j < r.Intn(4); j++ {
			if r.Intn(10) == 0 {
				nodes[i].Children = append(nodes[i].Children, fmt.Sprintf("ghost%d", r.Intn(5)))
				continue
			}
			nodes[i].Children = append(nodes[i].Children, fmt.Sprintf("n%d", r.Intn(n)))
		}
	}
	return nodes
}

func TestRoots_Property(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		nodes := randomGraph(r, 1+r.Intn(12))
		referenced := map[string]bool{}
		for _, n := range nodes {
			for _, c := range n.Children {
				referenced[c] = true
			}
		}
		coversAll := true
		for _, n := range nodes {
			if !referenced[n.ID] {
				coversAll = false
			}
		}

		roots := Roots(nodes)
		if coversAll {
			if len(roots) != len(nodes) {
				t.Fatalf("trial %d: all referenced, got %d roots want %d", trial, len(roots), len(nodes))
			}
			continue
		}
		for _, root := range roots {
			if referenced[root.ID] {
				t.Fatalf("trial %d: root %s is referenced as a child", trial, root.ID)
			}
		}
	}
}

func TestBuildTree_TwoNodeCycle(t *testing.T) {
	idx := NewIndex([]model.NodeItem{
		{ID: "a", Label: "A", Children: []string{"b"}},
		{ID: "b", Label: "B", Children: []string{"a"}},
	})
	if got := fmt.Sprint(idx.RootIDs()); got != "[a b]" {
		t.Fatalf("roots = %s, want [a b]", got)
	}

	a, _ := idx.Lookup("a")
	tree := BuildTree(a, idx, TreeOptions{})
	if tree.Cyclic || len(tree.Children) != 1 {
		t.Fatalf("root: cyclic=%v children=%d", tree.Cyclic, len(tree.Children))
	}
	b := tree.Children[0]
	if b.Node.ID != "b" || b.Cyclic || len(b.Children) != 1 {
		t.Fatalf("b: id=%s cyclic=%v children=%d", b.Node.ID, b.Cyclic, len(b.Children))
	}
	leaf := b.Children[0]
	if leaf.Node.ID != "a" || !leaf.Cyclic || len(leaf.Children) != 0 {
		t.Fatalf("leaf: id=%s cyclic=%v children=%d", leaf.Node.ID, leaf.Cyclic, len(leaf.Children))
	}

	var buf bytes.Buffer
	if err := RenderTree(&buf, tree, RenderOptions{}); err != nil {
		t.Fatal(err)
	}
	want := "A <a>\n└── B <b>\n    └── A <a> (cyclic)\n"
	if buf.String() != want {
		t.Errorf("render =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestBuildTree_SiblingBranchesIsolated(t *testing.T) {
	// r has two children x and y. x reaches s and s cycles back to x. y also
	// reaches s through a non-cyclic path: s must expand fully under y.
	idx := NewIndex([]model.NodeItem{
		node("r", "x", "y"),
		node("x", "s"),
		node("y", "s"),
		node("s", "x", "t"),
		node("t"),
	})
	r, _ := idx.Lookup("r")
	tree := BuildTree(r, idx, TreeOptions{})

	x, y := tree.Children[0], tree.Children[1]
	sUnderX := x.Children[0]
	if sUnderX.Cyclic {
		t.Fatal("s under x marked cyclic")
	}
	if !sUnderX.Children[0].Cyclic || sUnderX.Children[0].Node.ID != "x" {
		t.Error("x below s under x should be the cyclic leaf")
	}

	sUnderY := y.Children[0]
	if sUnderY.Cyclic {
		t.Fatal("s under y wrongly inherited a cousin's visited mark")
	}
	xUnderS := sUnderY.Children[0]
	if xUnderS.Cyclic {
		t.Fatal("x under y/s is not on its own ancestry and must expand")
	}
	if len(xUnderS.Children) != 1 || !xUnderS.Children[0].Cyclic {
		t.Error("x under y/s should expand to s and stop there")
	}
}

func TestBuildTree_DanglingSkipped(t *testing.T) {
	idx := NewIndex([]model.NodeItem{node("a", "ghost", "b", "ghost2"), node("b")})
	a, _ := idx.Lookup("a")
	tree := BuildTree(a, idx, TreeOptions{})
	if len(tree.Children) != 1 || tree.Children[0].Node.ID != "b" {
		t.Fatalf("children = %d, want only b", len(tree.Children))
	}
	if tree.Dangling != 2 {
		t.Errorf("Dangling = %d, want 2", tree.Dangling)
	}
}

func TestBuildTree_Termination(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 100; trial++ {
		nodes := randomGraph(r, 1+r.Intn(8))
		idx := NewIndex(nodes)
		for _, root := range idx.Nodes() {
			tree := BuildTree(root, idx, TreeOptions{})
			checkBranches(t, tree, nil, idx.Len())
		}
	}
}

// checkBranches asserts that every root-to-leaf path visits each id at most
// once before a cyclic leaf, and that no path is longer than distinct+1.
func checkBranches(t *testing.T, n *TreeNode, path []string, distinct int) {
	t.Helper()
	for _, id := range path {
		if id == n.Node.ID && !n.Cyclic {
			t.Fatalf("id %s revisited without being cut (path %v)", id, path)
		}
	}
	if len(path)+1 > distinct+1 {
		t.Fatalf("path length %d exceeds distinct nodes %d", len(path)+1, distinct)
	}
	if n.Cyclic && len(n.Children) > 0 {
		t.Fatalf("cyclic node %s expanded", n.Node.ID)
	}
	next := append(append([]string(nil), path...), n.Node.ID)
	for _, c := range n.Children {
		checkBranches(t, c, next, distinct)
	}
}

func TestBuildTree_MaxDepth(t *testing.T) {
	idx := NewIndex([]model.NodeItem{node("a", "b"), node("b", "c"), node("c")})
	a, _ := idx.Lookup("a")
	tree := BuildTree(a, idx, TreeOptions{MaxDepth: 1})
	if tree.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", tree.Size())
	}
	if !tree.Children[0].Truncated {
		t.Error("b should be marked truncated")
	}
}

func TestBuildForest_RootLimit(t *testing.T) {
	var nodes []model.NodeItem
	for i := 0; i < 25; i++ {
		nodes = append(nodes, node(fmt.Sprintf("r%02d", i)))
	}
	for _, tc := range []struct {
		limit      int
		wantTrees  int
		wantHidden int
	}{
		{0, 25, 0},
		{10, 10, 15},
		{50, 25, 0},
		{25, 25, 0},
	} {
		f := FromNodes(nodes, ForestOptions{RootLimit: tc.limit})
		if len(f.Trees) != tc.wantTrees || f.Hidden != tc.wantHidden {
			t.Errorf("limit %d: trees=%d hidden=%d, want %d/%d", tc.limit, len(f.Trees), f.Hidden, tc.wantTrees, tc.wantHidden)
		}
		if f.Total != 25 {
			t.Errorf("Total = %d", f.Total)
		}
	}
}

func TestFocusForest(t *testing.T) {
	idx := NewIndex([]model.NodeItem{node("a", "b"), node("b")})
	f, ok := FocusForest(idx, "b", TreeOptions{})
	if !ok || len(f.Trees) != 1 || f.Trees[0].Node.ID != "b" {
		t.Fatalf("FocusForest(b) = %v, %v", f, ok)
	}
	if _, ok := FocusForest(idx, "zzz", TreeOptions{}); ok {
		t.Error("unknown id reported as found")
	}
}

func TestRenderForest(t *testing.T) {
	f := FromNodes([]model.NodeItem{
		{ID: "a", Label: "A", Children: []string{"b", "c"}},
		{ID: "b", Children: []string{"d"}},
		{ID: "c", Label: "C"},
		{ID: "d", Label: "D"},
		{ID: "e", Label: "E"},
	}, ForestOptions{RootLimit: 1})

	var buf bytes.Buffer
	if err := RenderForest(&buf, f, RenderOptions{}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"A <a>",
		"├── b",
		"│   └── D <d>",
		"└── C <c>",
		"… 1 more roots",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("render =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestRenderForest_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderForest(&buf, FromNodes(nil, ForestOptions{}), RenderOptions{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "No nodes.\n" {
		t.Errorf("render = %q", buf.String())
	}
}
