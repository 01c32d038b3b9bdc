package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/sitenav/internal/model"
	"github.com/alfredjeanlab/sitenav/internal/store"
)

// archiveColumns is the column list used for SELECT statements on the archives table.
const archiveColumns = `id, source, taken_at, node_count`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// archiveQueries runs the archive statements against a database or an
// open transaction.
type archiveQueries struct {
	db executor
}

func (q archiveQueries) SaveArchive(ctx context.Context, a *model.Archive) error {
	return querySaveArchive(ctx, q.db, a)
}

func (q archiveQueries) GetArchive(ctx context.Context, id string) (*model.Archive, error) {
	return queryGetArchive(ctx, q.db, id)
}

func (q archiveQueries) ListArchives(ctx context.Context, limit int) ([]model.ArchiveInfo, error) {
	return queryListArchives(ctx, q.db, limit)
}

func (q archiveQueries) DeleteArchive(ctx context.Context, id string) error {
	return queryDeleteArchive(ctx, q.db, id)
}

func (q archiveQueries) PruneArchives(ctx context.Context, keep int) (int, error) {
	return queryPruneArchives(ctx, q.db, keep)
}

func querySaveArchive(ctx context.Context, db executor, a *model.Archive) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO archives (id, source, taken_at, node_count)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Source, a.TakenAt, len(a.Nodes),
	)
	if err != nil {
		return fmt.Errorf("insert archive %s: %w", a.ID, err)
	}
	for i, n := range a.Nodes {
		children, err := childrenJSON(n.Children)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO archive_nodes (archive_id, position, node_id, label, children)
			VALUES ($1, $2, $3, $4, $5)`,
			a.ID, i, n.ID, n.Label, children,
		); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

func queryGetArchive(ctx context.Context, db executor, id string) (*model.Archive, error) {
	row := db.QueryRowContext(ctx, `SELECT `+archiveColumns+` FROM archives WHERE id = $1`, id)
	info, err := scanArchiveInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT node_id, label, children FROM archive_nodes
		WHERE archive_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	a := &model.Archive{ID: info.ID, Source: info.Source, TakenAt: info.TakenAt, Nodes: []model.NodeItem{}}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		a.Nodes = append(a.Nodes, n)
	}
	return a, rows.Err()
}

func queryListArchives(ctx context.Context, db executor, limit int) ([]model.ArchiveInfo, error) {
	query := `SELECT ` + archiveColumns + ` FROM archives ORDER BY taken_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ArchiveInfo
	for rows.Next() {
		info, err := scanArchiveInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func queryDeleteArchive(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM archives WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// queryPruneArchives deletes all but the newest keep archives. Nodes go
// with them through the ON DELETE CASCADE foreign key.
func queryPruneArchives(ctx context.Context, db executor, keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("prune archives: keep must not be negative, got %d", keep)
	}
	res, err := db.ExecContext(ctx, `
		DELETE FROM archives WHERE id NOT IN (
			SELECT id FROM archives ORDER BY taken_at DESC, id DESC LIMIT $1
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune archives: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
