// Package store defines persistence for archived listings.
package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/sitenav/internal/model"
)

// ErrNotFound is returned when an archive id is unknown.
var ErrNotFound = errors.New("archive not found")

// Store defines the persistence interface for archives.
type Store interface {
	SaveArchive(ctx context.Context, a *model.Archive) error
	GetArchive(ctx context.Context, id string) (*model.Archive, error)
	// ListArchives returns the newest archives first. limit <= 0 means all.
	ListArchives(ctx context.Context, limit int) ([]model.ArchiveInfo, error)
	DeleteArchive(ctx context.Context, id string) error
	// PruneArchives deletes all but the newest keep archives and reports
	// how many were removed.
	PruneArchives(ctx context.Context, keep int) (int, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
