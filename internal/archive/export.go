package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version   string    `json:"version"`
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	NodeCount int       `json:"node_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// maxLine bounds one JSONL line when importing.
const maxLine = 4 << 20

// ExportJSONL writes a as JSONL: a header line, then one line per node in
// listing order.
func ExportJSONL(a *model.Archive, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   "1",
		Type:      "header",
		ID:        a.ID,
		Source:    a.Source,
		Timestamp: a.TakenAt.UTC(),
		NodeCount: len(a.Nodes),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	// Nodes are encoded on their own so labels keep their HTML characters;
	// json.Marshal would escape them before enc ever sees the bytes.
	var node bytes.Buffer
	nodeEnc := json.NewEncoder(&node)
	nodeEnc.SetEscapeHTML(false)
	for _, n := range a.Nodes {
		node.Reset()
		if err := nodeEnc.Encode(n); err != nil {
			return fmt.Errorf("marshal node %s: %w", n.ID, err)
		}
		data := bytes.TrimRight(node.Bytes(), "\n")
		if err := enc.Encode(record{Type: "node", Data: data}); err != nil {
			return fmt.Errorf("encode node %s: %w", n.ID, err)
		}
	}
	return nil
}

// ImportJSONL reads an archive written by ExportJSONL. Unknown record types
// are skipped.
func ImportJSONL(r io.Reader) (*model.Archive, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		a    *model.Archive
		want int
		line int
	)
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		if a == nil {
			var h header
			if err := json.Unmarshal(raw, &h); err != nil || h.Type != "header" {
				return nil, fmt.Errorf("line %d: expected header record", line)
			}
			if h.Version != "1" {
				return nil, fmt.Errorf("unsupported archive version %q", h.Version)
			}
			a = &model.Archive{ID: h.ID, Source: h.Source, TakenAt: h.Timestamp, Nodes: []model.NodeItem{}}
			want = h.NodeCount
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Type != "node" {
			continue
		}
		var n model.NodeItem
		if err := json.Unmarshal(rec.Data, &n); err != nil {
			return nil, fmt.Errorf("line %d: decode node: %w", line, err)
		}
		a.Nodes = append(a.Nodes, n)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("empty archive")
	}
	if len(a.Nodes) != want {
		return nil, fmt.Errorf("archive %s: header promises %d nodes, found %d", a.ID, want, len(a.Nodes))
	}
	return a, nil
}
