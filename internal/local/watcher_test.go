package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunStopsOnCancelWithoutConsumer(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()

	// Produce an event nobody consumes, so Run is parked on the send.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "asset.bin"), []byte("x"), 0644))
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err = <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestRunDeliversEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Run(ctx)
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "asset.bin"), []byte("x"), 0644))

	select {
	case event := <-w.Events:
		require.Equal(t, filepath.Join(dir, "asset.bin"), event.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}
