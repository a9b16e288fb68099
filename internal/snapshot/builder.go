package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/torfstack/cdnfs/internal/config"
	"github.com/torfstack/cdnfs/internal/hash"
	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/manifest"
	"github.com/torfstack/cdnfs/internal/store"
)

const defaultUploadWorkers = 4

// Builder creates a snapshot of a local directory tree in a blob store.
//
// The walk is post-order: a folder's manifest embeds the hashes of its
// children, so every child must be hashed and uploaded before the folder's
// own manifest can exist. Siblings and independent subtrees run
// concurrently; the number of in-flight file reads/uploads is bounded.
type Builder struct {
	store   store.Store
	cfg     config.Config
	workers int64

	sem  *semaphore.Weighted
	mu   sync.Mutex
	seen map[string]struct{}

	stats Stats
}

// Stats summarizes what one build actually transferred. A re-push of
// unchanged content reports zero uploads.
type Stats struct {
	Files             int
	BlobsUploaded     int
	ManifestsUploaded int
	BytesUploaded     int64
}

func NewBuilder(s store.Store, cfg config.Config) *Builder {
	return &Builder{
		store:   s,
		cfg:     cfg,
		workers: defaultUploadWorkers,
	}
}

// Build walks localRoot, uploads every blob not yet in the store, and
// returns the snapshot identifier: the hash of the root folder's manifest.
func (b *Builder) Build(ctx context.Context, localRoot string) (string, Stats, error) {
	info, err := os.Stat(localRoot)
	switch {
	case err != nil:
		return "", Stats{}, &LocalReadError{Path: localRoot, Err: err}
	case !info.IsDir():
		return "", Stats{}, &LocalReadError{Path: localRoot, Err: fmt.Errorf("not a directory")}
	}

	b.sem = semaphore.NewWeighted(b.workers)
	b.seen = make(map[string]struct{})
	b.stats = Stats{}

	id, err := b.buildFolder(ctx, localRoot, "")
	if err != nil {
		return "", Stats{}, err
	}
	return id, b.stats, nil
}

// buildFolder uploads every blob under dir and returns the hash of the
// folder's manifest. rel is dir's path relative to the build root, empty
// for the root itself.
func (b *Builder) buildFolder(ctx context.Context, dir, rel string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", &LocalReadError{Path: dir, Err: err}
	}

	man := manifest.Manifest{}
	var manMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, entry := range entries {
		name := entry.Name()
		itemPath := filepath.Join(dir, name)
		itemRel := name
		if rel != "" {
			itemRel = rel + "/" + name
		}

		switch {
		case entry.IsDir():
			g.Go(func() error {
				folderHash, errGo := b.buildFolder(gctx, itemPath, itemRel)
				if errGo != nil {
					return errGo
				}
				manMu.Lock()
				man[name] = manifest.Folder(folderHash)
				manMu.Unlock()
				return nil
			})

		case entry.Type().IsRegular():
			if b.cfg.Excluded(name) {
				logging.Debugf("Excluding %s", itemRel)
				continue
			}
			g.Go(func() error {
				fileEntry, errGo := b.buildFile(gctx, itemPath, itemRel)
				if errGo != nil || fileEntry == nil {
					return errGo
				}
				manMu.Lock()
				man[name] = *fileEntry
				manMu.Unlock()
				return nil
			})

		default:
			logging.Warnf("%s is not a regular file and is being ignored", itemRel)
		}
	}

	if err = g.Wait(); err != nil {
		return "", err
	}

	return b.uploadManifest(ctx, man, rel)
}

// buildFile hashes and uploads one file. Zero-byte files return a nil entry:
// the wire format reserves size 0 for subfolders, so empty files cannot be
// represented and are skipped like the exclusion list skips them.
func (b *Builder) buildFile(ctx context.Context, path, rel string) (*manifest.Entry, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LocalReadError{Path: path, Err: err}
	}
	if len(data) == 0 {
		logging.Warnf("%s is empty and is being ignored", rel)
		return nil, nil
	}

	fileHash := hash.Sum(data, b.cfg.HashBits)
	opts := store.PutOptions{
		ContentType:  b.cfg.ContentTypeFor(path),
		CacheControl: b.cfg.CacheControl,
		PublicRead:   b.cfg.PublicACL,
	}
	upload := data
	if b.cfg.Compressed(path) {
		if upload, err = gzipBytes(data); err != nil {
			return nil, fmt.Errorf("could not compress '%s': %w", rel, err)
		}
		opts.ContentEncoding = "gzip"
	}

	uploaded, err := b.uploadOnce(ctx, fileHash, upload, opts)
	if err != nil {
		return nil, err
	}
	if uploaded {
		logging.Infof("Uploading file     %s (%d bytes) as %s", rel, len(data), fileHash)
		b.mu.Lock()
		b.stats.BlobsUploaded++
		b.stats.BytesUploaded += int64(len(upload))
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.stats.Files++
	b.mu.Unlock()

	entry := manifest.File(fileHash, int64(len(data)))
	return &entry, nil
}

func (b *Builder) uploadManifest(ctx context.Context, man manifest.Manifest, rel string) (string, error) {
	// The manifest's blob name is the hash of the uncompressed JSON, like a
	// gzip_types file is named by its uncompressed content. The stored
	// bytes are the compressed frame.
	js, err := man.EncodeJSON()
	if err != nil {
		return "", fmt.Errorf("could not encode manifest for '%s': %w", rel, err)
	}
	manHash := hash.Sum(js, b.cfg.HashBits)
	encoded, err := gzipBytes(js)
	if err != nil {
		return "", fmt.Errorf("could not compress manifest for '%s': %w", rel, err)
	}

	uploaded, err := b.uploadOnce(ctx, manHash, encoded, store.PutOptions{
		ContentType:     manifest.ContentType,
		ContentEncoding: manifest.ContentEncoding,
		CacheControl:    b.cfg.CacheControl,
		PublicRead:      b.cfg.PublicACL,
	})
	if err != nil {
		return "", err
	}
	if uploaded {
		name := rel
		if name == "" {
			name = "[root]"
		}
		logging.Infof("Uploading manifest %s (%d bytes) as %s", name, len(js), manHash)
		b.mu.Lock()
		b.stats.ManifestsUploaded++
		b.stats.BytesUploaded += int64(len(encoded))
		b.mu.Unlock()
	}
	return manHash, nil
}

// uploadOnce stores data under key unless the key was already claimed this
// build or already exists in the store. The in-build seen set guarantees
// identical content appearing at multiple paths is uploaded at most once
// even when siblings race; the store existence check extends the guarantee
// across builds.
func (b *Builder) uploadOnce(ctx context.Context, key string, data []byte, opts store.PutOptions) (bool, error) {
	b.mu.Lock()
	if _, ok := b.seen[key]; ok {
		b.mu.Unlock()
		return false, nil
	}
	b.seen[key] = struct{}{}
	b.mu.Unlock()

	exists, err := b.store.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		logging.Debugf("Blob %s already stored, skipping upload", key)
		return false, nil
	}
	if err = b.store.Put(ctx, key, data, opts); err != nil {
		return false, err
	}
	return true, nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err = gz.Write(data); err != nil {
		return nil, err
	}
	if err = gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
