package service

import (
	"context"
	"fmt"

	"github.com/torfstack/cdnfs/internal/ledger"
	"github.com/torfstack/cdnfs/internal/manifest"
)

// List prints every file reachable from the snapshot identifier as
// "hash size path". A non-empty relPath restricts the listing to that
// file or subfolder, fetching only the manifests along the way.
func (s *Service) List(ctx context.Context, id, relPath string) error {
	if relPath == "" {
		return s.resolver.Walk(ctx, id, printEntry)
	}

	entry, err := s.resolver.Stat(ctx, id, relPath)
	if err != nil {
		return err
	}
	if !entry.Dir {
		return printEntry(relPath, entry)
	}
	return s.resolver.Walk(ctx, entry.Hash, func(path string, e manifest.Entry) error {
		return printEntry(relPath+"/"+path, e)
	})
}

func printEntry(path string, e manifest.Entry) error {
	if !e.Dir {
		fmt.Printf("%s %10d  %s\n", e.Hash, e.Size, path)
	}
	return nil
}

// Get materializes the snapshot into downloadPath.
func (s *Service) Get(ctx context.Context, id, downloadPath string) error {
	return s.resolver.Download(ctx, id, expandHome(downloadPath))
}

// Snapshots prints the pushes recorded in the local ledger, newest first.
func (s *Service) Snapshots(ctx context.Context) error {
	l, err := ledger.New(ctx)
	if err != nil {
		return fmt.Errorf("could not open snapshot ledger: %w", err)
	}
	defer l.Close()

	entries, err := l.Snapshots(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf(
			"%s  %s  %d files  %s\n",
			e.SnapshotID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Files, e.LocalDir,
		)
	}
	return nil
}
