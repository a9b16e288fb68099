// Package ledger keeps a local index of pushed snapshots.
//
// The content-addressed store has no way to enumerate snapshot roots, so
// each successful push is recorded here. The ledger is advisory metadata:
// losing it loses the listing, never the snapshots themselves.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/util"
)

var (
	databaseFilePath = filepath.Join(util.ConfigDir, "cdnfs.sqlite")
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type Ledger struct {
	db *sql.DB
}

// Entry is one recorded push.
type Entry struct {
	SnapshotID    string
	LocalDir      string
	Files         int64
	BytesUploaded int64
	CreatedAt     time.Time
}

func New(ctx context.Context) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(databaseFilePath), 0755); err != nil {
		return nil, fmt.Errorf("could not create database directory: %w", err)
	}
	sqlDb, err := sql.Open("sqlite", databaseFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	l := &Ledger{sqlDb}
	err = l.runMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}
	return l, nil
}

func (l *Ledger) runMigrations(ctx context.Context) error {
	err := goose.SetDialect("sqlite")
	if err != nil {
		return fmt.Errorf("could not set dialect 'sqlite': %w", err)
	}
	goose.SetLogger(logging.CdnfsLoggerGoose{})
	goose.SetBaseFS(embedMigrations)

	if err = goose.UpContext(ctx, l.db, "migrations"); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// Record stores one push. The same snapshot id may appear multiple times;
// re-pushing unchanged content is a legitimate event worth the history row.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO snapshots (snapshot_id, local_dir, files, bytes_uploaded, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SnapshotID, e.LocalDir, e.Files, e.BytesUploaded, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("could not record snapshot '%s': %w", e.SnapshotID, err)
	}
	return nil
}

// Snapshots returns recorded pushes, newest first.
func (l *Ledger) Snapshots(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT snapshot_id, local_dir, files, bytes_uploaded, created_at
		 FROM snapshots ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query snapshots: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err = rows.Scan(&e.SnapshotID, &e.LocalDir, &e.Files, &e.BytesUploaded, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
