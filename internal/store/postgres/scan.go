package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanArchiveInfo scans a row with columns in the order of archiveColumns.
func scanArchiveInfo(row scannable) (model.ArchiveInfo, error) {
	var info model.ArchiveInfo
	err := row.Scan(&info.ID, &info.Source, &info.TakenAt, &info.NodeCount)
	return info, err
}

// scanNode scans a (node_id, label, children) row.
func scanNode(row scannable) (model.NodeItem, error) {
	var (
		n        model.NodeItem
		children []byte
	)
	if err := row.Scan(&n.ID, &n.Label, &children); err != nil {
		return model.NodeItem{}, err
	}
	if len(children) > 0 {
		if err := json.Unmarshal(children, &n.Children); err != nil {
			return model.NodeItem{}, fmt.Errorf("decode children of %s: %w", n.ID, err)
		}
	}
	return n, nil
}

// childrenJSON encodes a child list as JSONB, storing nil as an empty array.
func childrenJSON(children []string) ([]byte, error) {
	if children == nil {
		children = []string{}
	}
	data, err := json.Marshal(children)
	if err != nil {
		return nil, fmt.Errorf("encode children: %w", err)
	}
	return data, nil
}
