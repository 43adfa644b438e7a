package model

import "time"

// HashRecord is the cached embedding state of one indexed file.
// Records are keyed by the normalized file path and survive across runs;
// VectorID stays stable as long as the content hash is unchanged.
type HashRecord struct {
	DocumentID     string    `json:"document_id"`
	FilePath       string    `json:"file_path"`
	ContentHash    string    `json:"content_hash"`
	EmbeddingHash  string    `json:"embedding_hash"`
	LastEmbeddedAt time.Time `json:"last_embedded_at"`
	VectorID       string    `json:"vector_id"`
}
