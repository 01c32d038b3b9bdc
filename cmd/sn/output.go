package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printNodeTable lists nodes with their child counts.
func printNodeTable(w io.Writer, nodes []model.NodeItem, width int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tCHILDREN\tLABEL")
	for _, n := range nodes {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", n.ID, len(n.Children), ui.Truncate(n.Label, width))
	}
	return tw.Flush()
}

// printFocused prints a parents/current/children window.
func printFocused(w io.Writer, fv *model.FocusedView) {
	fmt.Fprintf(w, "%s %s\n", ui.RenderAccent(fv.Current.DisplayLabel()), ui.RenderMuted(fv.Current.ID))
	printSection(w, "Parents", fv.Parents)
	printSection(w, "Children", fv.Children)
}

func printSection(w io.Writer, title string, nodes []model.NodeItem) {
	fmt.Fprintf(w, "\n%s (%d):\n", title, len(nodes))
	if len(nodes) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("  none"))
		return
	}
	for _, n := range nodes {
		if n.Label != "" && n.Label != n.ID {
			fmt.Fprintf(w, "  %s  %s\n", n.Label, ui.RenderMuted(n.ID))
		} else {
			fmt.Fprintf(w, "  %s\n", n.ID)
		}
	}
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}
