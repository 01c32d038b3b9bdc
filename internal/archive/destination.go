package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/store"
)

// Destination is the interface for an archive target (file, S3, database).
type Destination interface {
	Name() string
	Write(ctx context.Context, a *model.Archive) error
}

// FileDestination writes JSONL to a path, or to Out when the path is "-".
type FileDestination struct {
	Path string
	Out  io.Writer
}

func (d *FileDestination) Name() string { return "file:" + d.Path }

// Write replaces the file atomically so readers never see a partial archive.
func (d *FileDestination) Write(_ context.Context, a *model.Archive) error {
	if d.Path == "-" {
		out := d.Out
		if out == nil {
			out = os.Stdout
		}
		return ExportJSONL(a, out)
	}
	var buf bytes.Buffer
	if err := ExportJSONL(a, &buf); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(d.Path), ".sitenav-archive-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), d.Path); err != nil {
		return fmt.Errorf("rename archive into place: %w", err)
	}
	return nil
}

// StoreDestination saves archives to a store.Store. When Keep is positive
// only the newest Keep archives survive each write.
type StoreDestination struct {
	Store store.Store
	Keep  int
}

func (d *StoreDestination) Name() string { return "store" }

func (d *StoreDestination) Write(ctx context.Context, a *model.Archive) error {
	if err := d.Store.SaveArchive(ctx, a); err != nil {
		return fmt.Errorf("save archive %s: %w", a.ID, err)
	}
	if d.Keep > 0 {
		if _, err := d.Store.PruneArchives(ctx, d.Keep); err != nil {
			return err
		}
	}
	return nil
}
