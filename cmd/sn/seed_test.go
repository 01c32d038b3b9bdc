package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alfredjeanlab/sitenav/internal/archive"
	"github.com/alfredjeanlab/sitenav/internal/model"
)

func TestLoadSeed(t *testing.T) {
	var jsonl bytes.Buffer
	err := archive.ExportJSONL(&model.Archive{
		ID:      "sn-test",
		Source:  "http://localhost:8000",
		TakenAt: time.Now(),
		Nodes:   []model.NodeItem{{ID: "https://a.test"}, {ID: "https://b.test"}},
	}, &jsonl)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		name    string
		content string
		want    int
		wantErr bool
	}{
		{"array", `[{"id":"https://a.test","label":"A","children":[]}]`, 1, false},
		{"listing", `{"nodes":[{"id":"https://a.test"},{"id":"https://b.test"}]}`, 2, false},
		{"archive", jsonl.String(), 2, false},
		{"empty", "  \n", 0, false},
		{"broken array", `[{"id":`, 0, true},
		{"garbage", "hello", 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed")
			if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
				t.Fatal(err)
			}
			nodes, err := loadSeed(path)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if len(nodes) != tc.want {
				t.Errorf("nodes = %d, want %d", len(nodes), tc.want)
			}
		})
	}

	if _, err := loadSeed(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing file should fail")
	}
}
