package snapshot

import "fmt"

// LocalReadError reports a local file or folder that could not be read
// during a build. It aborts the build for that subtree and is not retried.
type LocalReadError struct {
	Path string
	Err  error
}

func (e *LocalReadError) Error() string {
	return fmt.Sprintf("snapshot: could not read local path '%s': %s", e.Path, e.Err)
}

func (e *LocalReadError) Unwrap() error {
	return e.Err
}

// DanglingReferenceError reports a manifest entry whose referenced hash has
// no blob in the store. It indicates store inconsistency (deleted content
// or a wrong hash), so it is surfaced with the offending path and never
// retried.
type DanglingReferenceError struct {
	Path string
	Hash string
}

func (e *DanglingReferenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("snapshot: dangling reference: no blob for hash '%s'", e.Hash)
	}
	return fmt.Sprintf("snapshot: dangling reference at '%s': no blob for hash '%s'", e.Path, e.Hash)
}
