package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	databaseFilePath = filepath.Join(t.TempDir(), "cdnfs.sqlite")
	l, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, l.Close())
	})
	return l
}

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	l := tempLedger(t)

	entries, err := l.Snapshots(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.NoError(t, l.Record(ctx, Entry{
		SnapshotID:    "aabbccddee0011223344",
		LocalDir:      "/srv/assets",
		Files:         12,
		BytesUploaded: 4096,
	}))
	require.NoError(t, l.Record(ctx, Entry{
		SnapshotID: "ffeeddccbbaa99887766",
		LocalDir:   "/srv/assets",
		Files:      13,
	}))

	entries, err = l.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	require.Equal(t, "ffeeddccbbaa99887766", entries[0].SnapshotID)
	require.Equal(t, "aabbccddee0011223344", entries[1].SnapshotID)
	require.Equal(t, int64(12), entries[1].Files)
	require.Equal(t, int64(4096), entries[1].BytesUploaded)
	require.False(t, entries[0].CreatedAt.IsZero())
}

func TestRepeatedSnapshotIdsAreKept(t *testing.T) {
	ctx := context.Background()
	l := tempLedger(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Record(ctx, Entry{SnapshotID: "aabbccddee0011223344", LocalDir: "/srv/assets"}))
	}

	entries, err := l.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}
