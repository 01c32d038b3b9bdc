package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/sitenav/internal/client"
	"github.com/alfredjeanlab/sitenav/internal/graph"
	"github.com/alfredjeanlab/sitenav/internal/ui"
)

var rootsCmd = &cobra.Command{
	Use:     "roots",
	Short:   "List the pages no other page links to",
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := backend.ListNodes(cmd.Context())
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		nodes := snap.Nodes
		if !all {
			nodes = graph.Roots(snap.Nodes)
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, nodes)
		}
		if len(nodes) == 0 {
			fmt.Fprintln(out, "No pages crawled yet.")
			return nil
		}
		if err := printNodeTable(out, nodes, ui.Width(100)/2); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d of %d pages\n", len(nodes), len(snap.Nodes))
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:     "tree [url]",
	Short:   "Print the crawl graph as a tree, from the roots or from one page",
	GroupID: "views",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := cfg.RootLimit
		if cmd.Flags().Changed("limit") {
			limit, _ = cmd.Flags().GetInt("limit")
		}
		depth, _ := cmd.Flags().GetInt("depth")

		snap, err := backend.ListNodes(cmd.Context())
		if err != nil {
			return err
		}
		idx := graph.NewIndex(snap.Nodes)
		opts := graph.ForestOptions{TreeOptions: graph.TreeOptions{MaxDepth: depth}, RootLimit: limit}

		var forest *graph.Forest
		if len(args) == 1 {
			f, ok := graph.FocusForest(idx, args[0], opts.TreeOptions)
			if !ok {
				return fmt.Errorf("not found: %s", args[0])
			}
			forest = f
		} else {
			forest = graph.BuildForest(idx, opts)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, forestJSON(forest))
		}
		return graph.RenderForest(out, forest, graph.RenderOptions{Decorate: ui.RenderWarn})
	},
}

var focusCmd = &cobra.Command{
	Use:     "focus <url>",
	Short:   "Show a page with its direct parents and children",
	GroupID: "views",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fv, err := backend.Focus(cmd.Context(), args[0])
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("not found: %s", args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), fv)
		}
		printFocused(cmd.OutOrStdout(), fv)
		return nil
	},
}

type treeJSON struct {
	ID        string      `json:"id"`
	Label     string      `json:"label"`
	Cyclic    bool        `json:"cyclic,omitempty"`
	Truncated bool        `json:"truncated,omitempty"`
	Dangling  int         `json:"dangling,omitempty"`
	Children  []*treeJSON `json:"children,omitempty"`
}

func forestJSON(f *graph.Forest) map[string]any {
	trees := make([]*treeJSON, 0, len(f.Trees))
	for _, t := range f.Trees {
		trees = append(trees, toTreeJSON(t))
	}
	return map[string]any{"trees": trees, "hidden": f.Hidden, "total": f.Total}
}

func toTreeJSON(t *graph.TreeNode) *treeJSON {
	out := &treeJSON{
		ID:        t.Node.ID,
		Label:     t.Node.Label,
		Cyclic:    t.Cyclic,
		Truncated: t.Truncated,
		Dangling:  t.Dangling,
	}
	for _, c := range t.Children {
		out.Children = append(out.Children, toTreeJSON(c))
	}
	return out
}

func init() {
	rootsCmd.Flags().Bool("all", false, "list every page, not just the roots")
	treeCmd.Flags().Int("limit", 10, "expand at most this many roots; 0 for all (env SITENAV_ROOT_LIMIT)")
	treeCmd.Flags().Int("depth", 0, "stop expanding below this depth; 0 for unbounded")
}
