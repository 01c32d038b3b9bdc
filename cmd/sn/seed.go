package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alfredjeanlab/sitenav/internal/archive"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

// loadSeed reads a node listing for the sandbox. It accepts a JSON array of
// nodes, a {"nodes": [...]} listing as served by the tree route, or a JSONL
// archive written by sn export.
func loadSeed(path string) ([]model.NodeItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var nodes []model.NodeItem
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return nodes, nil
	}

	var snap model.Snapshot
	if err := json.Unmarshal(trimmed, &snap); err == nil && snap.Nodes != nil {
		return snap.Nodes, nil
	}

	a, err := archive.ImportJSONL(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return a.Nodes, nil
}
