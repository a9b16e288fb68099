package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/torfstack/cdnfs/internal/config"
	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/snapshot"
	"github.com/torfstack/cdnfs/internal/store"
	"github.com/torfstack/cdnfs/internal/util"
)

// Service wires the configured blob store to the snapshot engine and
// implements the CLI operations.
type Service struct {
	cfg      config.Config
	store    store.Store
	resolver *snapshot.Resolver
}

func NewService(ctx context.Context, cfg config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		s   store.Store
		err error
	)
	switch {
	case cfg.GCSBucket != "":
		logging.Debugf("Using GCS bucket '%s'", cfg.GCSBucket)
		s, err = store.NewGCS(ctx, cfg.GCSBucket, cfg.GCSBucketUniform)
	default:
		logging.Debugf("Using local store directory '%s'", cfg.StoreDir)
		s, err = store.NewDir(expandHome(cfg.StoreDir))
	}
	if err != nil {
		return nil, fmt.Errorf("could not set up blob store: %w", err)
	}

	s = store.WithRetry(s)
	return &Service{
		cfg:      cfg,
		store:    s,
		resolver: snapshot.NewResolver(s),
	}, nil
}

func (s *Service) localDir() (string, error) {
	if s.cfg.LocalDir == "" {
		return "", fmt.Errorf("%w: configure local_dir before pushing", config.ErrInvalid)
	}
	return expandHome(s.cfg.LocalDir), nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return filepath.Join(util.HomeDir(), strings.TrimPrefix(path, "~"))
	}
	return path
}
