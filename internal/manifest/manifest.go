// Package manifest implements the folder-descriptor format.
//
// A manifest describes one folder: a JSON object mapping each child name to
// a two-element array ["<hash>", <size>]. A size of 0 marks the child as a
// subfolder whose hash names another manifest blob; any other size is the
// byte length of a file blob. Manifests are stored gzip-compressed.
package manifest

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// ContentType is recorded on every stored manifest blob.
	ContentType = "application/json; charset=utf-8"

	// ContentEncoding is recorded on every stored manifest blob.
	ContentEncoding = "gzip"
)

// ErrCorrupt is returned when bytes fail to decode as a manifest. It marks
// store or build corruption and is never worth retrying.
var ErrCorrupt = errors.New("manifest: corrupt manifest")

// Entry is one child of a folder. The wire format discriminates files from
// subfolders by size alone; Entry keeps the distinction explicit so callers
// never compare sizes to tell the two apart.
type Entry struct {
	Hash string
	Size int64
	Dir  bool
}

// File returns an entry for a file blob. Size must be positive: zero-byte
// files cannot be represented on the wire (their size would read as a
// subfolder marker) and are skipped during builds.
func File(hash string, size int64) Entry {
	return Entry{Hash: hash, Size: size}
}

// Folder returns an entry for a subfolder manifest.
func Folder(hash string) Entry {
	return Entry{Hash: hash, Dir: true}
}

// Manifest maps child names to entries for one folder.
type Manifest map[string]Entry

// Names returns the child names in encoding order: subfolders first, then
// files by ascending size, ties broken by name. This matches the order the
// entries appear in the encoded JSON, so two identical folders always
// encode to identical bytes and therefore identical hashes.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := m[a].wireSize() - m[b].wireSize(); c != 0 {
			if c < 0 {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return names
}

func (e Entry) wireSize() int64 {
	if e.Dir {
		return 0
	}
	return e.Size
}

func (e Entry) validate(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty entry name", ErrCorrupt)
	}
	if e.Hash == "" {
		return fmt.Errorf("%w: entry '%s' has an empty hash", ErrCorrupt, name)
	}
	if !e.Dir && e.Size <= 0 {
		return fmt.Errorf("%w: file entry '%s' has size %d", ErrCorrupt, name, e.Size)
	}
	return nil
}
