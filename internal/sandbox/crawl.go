package sandbox

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// pagesPerLevel is the fan-out of the synthetic crawler.
const pagesPerLevel = 3

// SyntheticCrawl invents a small site below url: pagesPerLevel children per
// page down to maxDepth levels (at least one), with every leaf linking back to
// url so the result always contains cycles.
func SyntheticCrawl(url string, maxDepth int) []model.NodeItem {
	if maxDepth < 1 {
		maxDepth = 1
	}
	var out []model.NodeItem
	var walk func(id, label string, depth int)
	walk = func(id, label string, depth int) {
		node := model.NodeItem{ID: id, Label: label}
		idx := len(out)
		out = append(out, node)
		if depth == maxDepth {
			out[idx].Children = []string{url}
			return
		}
		for i := 1; i <= pagesPerLevel; i++ {
			childID := fmt.Sprintf("%s/p%d", strings.TrimRight(id, "/"), i)
			out[idx].Children = append(out[idx].Children, childID)
			walk(childID, fmt.Sprintf("%s %d", pageTitle(depth+1), i), depth+1)
		}
	}
	walk(url, "Home", 0)
	return out
}

func pageTitle(depth int) string {
	if depth == 1 {
		return "Section"
	}
	return "Page"
}
