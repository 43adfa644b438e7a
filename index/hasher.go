// Package index implements hash-diff incremental embedding of document trees.
package index

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// ContentHash computes the SHA-256 digest of the raw document bytes.
// Hashing raw bytes rather than a parsed representation means any byte-level
// change invalidates the cache.
func ContentHash(content []byte) string {
	digest := sha256.Sum256(content)
	return hex.EncodeToString(digest[:])
}

// EmbeddingHash computes the SHA-256 digest of a canonical serialization of
// an embedding vector. It detects drift when the embedding provider is
// swapped or upgraded even if the document content is unchanged.
func EmbeddingHash(vector []float32) string {
	h := sha256.New()
	buf := make([]byte, 4)
	for _, v := range vector {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash returns the first 8 hex characters of a digest, used in vector ids
func ShortHash(digest string) string {
	if len(digest) < 8 {
		return digest
	}
	return digest[:8]
}
