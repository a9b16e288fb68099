// Package hash derives blob names from content.
//
// A blob name is the lowercase-hex SHA-256 digest of the content, truncated
// to a configured number of bits. The truncation length is part of a
// deployment's identity: blobs named under one length cannot be deduplicated
// against blobs named under another.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DefaultBits is the default truncation length for blob names.
const DefaultBits = 80

// maxBits is the full SHA-256 digest length.
const maxBits = 256

// ValidBits reports whether bits is usable as a truncation length: positive,
// a multiple of 4 (so names are whole hex characters), at most 256.
func ValidBits(bits int) error {
	switch {
	case bits <= 0:
		return fmt.Errorf("hash bits must be positive, got %d", bits)
	case bits%4 != 0:
		return fmt.Errorf("hash bits must be a multiple of 4, got %d", bits)
	case bits > maxBits:
		return fmt.Errorf("hash bits must be at most %d, got %d", maxBits, bits)
	}
	return nil
}

// Sum returns the blob name for data: hex(SHA-256(data)) truncated to
// bits/4 characters. Callers must validate bits with ValidBits first;
// Sum panics on lengths it cannot encode.
func Sum(data []byte, bits int) string {
	if err := ValidBits(bits); err != nil {
		panic(err)
	}
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])[:bits/4]
}
