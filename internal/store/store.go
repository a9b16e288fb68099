// Package store defines the blob store boundary and its implementations.
//
// A Store is a flat key-value object store. cdnfs keys every object by its
// content hash, so objects are immutable: a key either holds exactly the
// bytes it always held, or nothing.
package store

import "context"

// Object is a stored blob together with the headers recorded at upload.
type Object struct {
	Data            []byte
	ContentType     string
	ContentEncoding string
}

// PutOptions carries the headers and ACL applied to an uploaded object.
type PutOptions struct {
	ContentType     string
	ContentEncoding string
	CacheControl    string
	PublicRead      bool
}

// Store is the minimal object-store surface cdnfs needs. Implementations
// must be safe for concurrent use.
type Store interface {
	// Exists reports whether key holds an object.
	Exists(ctx context.Context, key string) (bool, error)

	// Put stores data under key. Overwriting an existing key is allowed;
	// since keys are content hashes the replacement bytes are identical.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error

	// Get returns the object stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (Object, error)

	// List returns all keys starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
