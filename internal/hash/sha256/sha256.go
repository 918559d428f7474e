// Package sha256 digests raw vote documents so downstream consumers can tell
// whether a republished document changed.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements pipeline.Hasher.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the lowercase hex digest of data.
func (*Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
