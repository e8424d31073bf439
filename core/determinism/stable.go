// Package determinism provides helpers for reproducible output:
// content hashes for rate tables and sorted iteration over maps.
package determinism

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// ContentHash is a SHA-256 hash for content integrity
type ContentHash [32]byte

// ComputeHash computes a content hash from bytes
func ComputeHash(data []byte) ContentHash {
	return sha256.Sum256(data)
}

// Hex returns the hash as a hex string
func (h ContentHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters
func (h ContentHash) Short() string {
	return h.Hex()[:12]
}

// String implements Stringer
func (h ContentHash) String() string {
	return h.Short() + "..."
}

// IsZero reports whether the hash was never computed
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// StableKey builds a deterministic cache key from parts.
// Parts are trimmed and lower-cased, then joined with "|".
func StableKey(parts ...string) string {
	norm := make([]string, len(parts))
	for i, p := range parts {
		norm[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(norm, "|")
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
