package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Seed derives a stable 64-bit seed from s.
// Fallback generators use it to pick deterministic content for a query.
func Seed(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
