package service

import (
	"context"
	"fmt"

	"github.com/torfstack/cdnfs/internal/ledger"
	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/snapshot"
)

// Push builds a snapshot of the configured local directory, uploads every
// blob the store is missing, records the result in the ledger, and returns
// the snapshot identifier.
func (s *Service) Push(ctx context.Context) (string, error) {
	localDir, err := s.localDir()
	if err != nil {
		return "", err
	}

	builder := snapshot.NewBuilder(s.store, s.cfg)
	id, stats, err := builder.Build(ctx, localDir)
	if err != nil {
		return "", fmt.Errorf("could not build snapshot of '%s': %w", localDir, err)
	}
	logging.Infof(
		"Snapshot complete: %d files, %d new blobs, %d new manifests, %d bytes uploaded",
		stats.Files, stats.BlobsUploaded, stats.ManifestsUploaded, stats.BytesUploaded,
	)

	if err = s.record(ctx, id, localDir, stats); err != nil {
		// The snapshot itself is safely stored; a ledger failure only
		// loses the local listing entry.
		logging.Warnf("Could not record snapshot in ledger: %s", err)
	}

	fmt.Printf("Snapshot identifier is %s\n", id)
	return id, nil
}

func (s *Service) record(ctx context.Context, id, localDir string, stats snapshot.Stats) error {
	l, err := ledger.New(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := l.Close(); errClose != nil {
			logging.Debugf("Could not close ledger: %s", errClose)
		}
	}()
	return l.Record(ctx, ledger.Entry{
		SnapshotID:    id,
		LocalDir:      localDir,
		Files:         int64(stats.Files),
		BytesUploaded: stats.BytesUploaded,
	})
}
