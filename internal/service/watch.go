package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/torfstack/cdnfs/internal/local"
	"github.com/torfstack/cdnfs/internal/logging"
)

// Watch pushes an initial snapshot, then keeps watching the local directory
// and pushes a fresh snapshot after each quiet period. Content addressing
// makes redundant triggers harmless: an unchanged tree re-pushes as the
// same identifier with zero uploads.
func (s *Service) Watch(ctx context.Context) error {
	localDir, err := s.localDir()
	if err != nil {
		return err
	}

	if _, err = s.Push(ctx); err != nil {
		return fmt.Errorf("initial push failed: %w", err)
	}

	w, err := local.NewWatcher(localDir)
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer w.Close()

	go s.consumeWatcherEvents(ctx, w.Events)
	err = w.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("error while running watcher: %w", err)
	}
	return nil
}

func (s *Service) consumeWatcherEvents(ctx context.Context, events <-chan local.WatchEvent) {
	timer := time.NewTimer(s.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if s.cfg.Excluded(filepath.Base(event.Path)) {
				continue
			}
			logging.Debugf("Change detected: %s (%s)", event.Path, event.Op)
			timer.Reset(s.cfg.Debounce)

		case <-timer.C:
			if _, err := s.Push(ctx); err != nil {
				logging.Error("Push after change failed", err)
			}
		}
	}
}
