// Package hash provides content hashing for change detection.
//
// Netfold hashes each fragment's serialized form at load and after every
// successful write. A dirty fragment whose current serialization hashes
// identically to the persisted one is skipped during flush, so only files
// that actually changed are rewritten.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher provides an abstraction for content hashing.
type Hasher interface {
	// Sum computes the hash of the given bytes.
	Sum(data []byte) string
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Sum computes the SHA-256 hash of data as a hex string.
func (h *SHA256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
