package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/torfstack/cdnfs/internal/logging"
	"github.com/torfstack/cdnfs/internal/manifest"
	"github.com/torfstack/cdnfs/internal/store"
)

const defaultDownloadWorkers = 4

// Resolver reads a snapshot back out of a blob store by walking its
// manifest tree top-down from the snapshot identifier.
type Resolver struct {
	store   store.Store
	workers int
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s, workers: defaultDownloadWorkers}
}

// WalkFunc is called once per snapshot entry. Folder entries are visited
// before their children. Returning fs.SkipDir on a folder entry skips its
// subtree; returning fs.SkipAll stops the walk without error.
type WalkFunc func(path string, entry manifest.Entry) error

// Walk visits every entry reachable from the snapshot identifier. Only the
// manifests along the visited paths are fetched, so callers that stop early
// never pay for the rest of the tree.
func (r *Resolver) Walk(ctx context.Context, id string, fn WalkFunc) error {
	err := r.walkFolder(ctx, id, "", fn)
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (r *Resolver) walkFolder(ctx context.Context, id, parent string, fn WalkFunc) error {
	man, err := r.resolveManifest(ctx, id, parent)
	if err != nil {
		return err
	}
	for _, name := range man.Names() {
		entry := man[name]
		itemPath := name
		if parent != "" {
			itemPath = parent + "/" + name
		}
		err = fn(itemPath, entry)
		switch {
		case errors.Is(err, fs.SkipDir):
			if entry.Dir {
				continue
			}
			// On a file entry, skip the remainder of the containing folder.
			return nil
		case err != nil:
			return err
		}
		if entry.Dir {
			if err = r.walkFolder(ctx, entry.Hash, itemPath, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolveManifest fetches and decodes the manifest stored under id.
func (r *Resolver) ResolveManifest(ctx context.Context, id string) (manifest.Manifest, error) {
	return r.resolveManifest(ctx, id, "")
}

func (r *Resolver) resolveManifest(ctx context.Context, id, path string) (manifest.Manifest, error) {
	obj, err := r.fetch(ctx, id, path)
	if err != nil {
		return nil, err
	}
	man, err := manifest.Decode(obj.Data)
	if err != nil {
		if path == "" {
			return nil, fmt.Errorf("manifest '%s': %w", id, err)
		}
		return nil, fmt.Errorf("manifest '%s' for '%s': %w", id, path, err)
	}
	return man, nil
}

// Stat resolves a single slash-separated relative path to its entry,
// fetching only the manifests along that path.
func (r *Resolver) Stat(ctx context.Context, id, relPath string) (manifest.Entry, error) {
	segments := strings.Split(strings.Trim(relPath, "/"), "/")
	current := manifest.Folder(id)
	walked := ""
	for _, segment := range segments {
		if !current.Dir {
			return manifest.Entry{}, fmt.Errorf("'%s' is a file, not a folder", walked)
		}
		man, err := r.resolveManifest(ctx, current.Hash, walked)
		if err != nil {
			return manifest.Entry{}, err
		}
		entry, ok := man[segment]
		if !ok {
			return manifest.Entry{}, fmt.Errorf("no entry '%s' in folder '%s'", segment, walked)
		}
		current = entry
		if walked == "" {
			walked = segment
		} else {
			walked = walked + "/" + segment
		}
	}
	return current, nil
}

// FetchFile returns the content of a file entry, undoing any gzip applied
// at upload time.
func (r *Resolver) FetchFile(ctx context.Context, entry manifest.Entry, path string) ([]byte, error) {
	obj, err := r.fetch(ctx, entry.Hash, path)
	if err != nil {
		return nil, err
	}
	data := obj.Data
	if obj.ContentEncoding == "gzip" {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("could not decompress blob '%s' for '%s': %w", entry.Hash, path, err)
		}
		if data, err = io.ReadAll(gz); err != nil {
			return nil, fmt.Errorf("could not decompress blob '%s' for '%s': %w", entry.Hash, path, err)
		}
	}
	return data, nil
}

// Download materializes the snapshot into destDir. Files within a folder
// download concurrently; a folder's children start only after its manifest
// has been fetched and decoded.
func (r *Resolver) Download(ctx context.Context, id, destDir string) error {
	return r.downloadFolder(ctx, id, "", destDir)
}

func (r *Resolver) downloadFolder(ctx context.Context, id, rel, destDir string) error {
	man, err := r.resolveManifest(ctx, id, rel)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Join(destDir, filepath.FromSlash(rel)), 0755); err != nil {
		return fmt.Errorf("could not create directory for '%s': %w", rel, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	var folderErr error
	for name, entry := range man {
		entry := entry
		itemRel := name
		if rel != "" {
			itemRel = rel + "/" + name
		}
		if entry.Dir {
			if folderErr = r.downloadFolder(gctx, entry.Hash, itemRel, destDir); folderErr != nil {
				break
			}
			continue
		}
		g.Go(func() error {
			logging.Infof("Downloading %s", itemRel)
			data, errGo := r.FetchFile(gctx, entry, itemRel)
			if errGo != nil {
				return errGo
			}
			return writeLocal(filepath.Join(destDir, filepath.FromSlash(itemRel)), data)
		})
	}
	// Join the in-flight sibling downloads before returning so no
	// goroutine keeps writing into destDir after Download has failed.
	waitErr := g.Wait()
	if folderErr != nil {
		return folderErr
	}
	return waitErr
}

// fetch retrieves one blob, mapping a missing key to a dangling-reference
// error carrying the snapshot-relative path for diagnosis.
func (r *Resolver) fetch(ctx context.Context, key, path string) (store.Object, error) {
	obj, err := r.store.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return store.Object{}, &DanglingReferenceError{Path: path, Hash: key}
	case err != nil:
		return store.Object{}, err
	}
	return obj, nil
}

func writeLocal(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open file for writing '%s': %w", path, err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write file '%s': %w", path, err)
	}
	return f.Close()
}
