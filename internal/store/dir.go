package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/torfstack/cdnfs/internal/util"
)

const metaSuffix = ".meta"

// Dir is a Store backed by a local directory. Each object is a file named
// by its key next to a small JSON sidecar holding the upload headers, so a
// directory store round-trips the same metadata a bucket would.
type Dir struct {
	root string
}

var _ Store = (*Dir)(nil)

type dirMeta struct {
	ContentType     string `json:"contentType,omitempty"`
	ContentEncoding string `json:"contentEncoding,omitempty"`
	CacheControl    string `json:"cacheControl,omitempty"`
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, &Error{Op: "create store directory", Err: err}
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(d.root, key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, &Error{Op: "stat", Key: key, Err: err}
}

func (d *Dir) Put(_ context.Context, key string, data []byte, opts PutOptions) error {
	meta, err := json.Marshal(dirMeta{
		ContentType:     opts.ContentType,
		ContentEncoding: opts.ContentEncoding,
		CacheControl:    opts.CacheControl,
	})
	if err != nil {
		return &Error{Op: "encode metadata for", Key: key, Err: err}
	}
	if err = util.WriteFile(filepath.Join(d.root, key+metaSuffix), meta); err != nil {
		return &Error{Op: "write metadata for", Key: key, Err: err}
	}
	if err = util.WriteFile(filepath.Join(d.root, key), data); err != nil {
		return &Error{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (d *Dir) Get(_ context.Context, key string) (Object, error) {
	data, err := os.ReadFile(filepath.Join(d.root, key))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Object{}, fmt.Errorf("object '%s': %w", key, ErrNotFound)
	case err != nil:
		return Object{}, &Error{Op: "read", Key: key, Err: err}
	}

	obj := Object{Data: data}
	metaBytes, err := os.ReadFile(filepath.Join(d.root, key+metaSuffix))
	if err == nil {
		var meta dirMeta
		if err = json.Unmarshal(metaBytes, &meta); err != nil {
			return Object{}, &Error{Op: "decode metadata for", Key: key, Err: err}
		}
		obj.ContentType = meta.ContentType
		obj.ContentEncoding = meta.ContentEncoding
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Object{}, &Error{Op: "read metadata for", Key: key, Err: err}
	}
	return obj, nil
}

func (d *Dir) List(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, metaSuffix) {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
