package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// VectorsDBHandlerFunctions defines the interface for vector index operations.
type VectorsDBHandlerFunctions interface {
	Upsert(id string, documentID string, embedding []float32, payload model.Metadata) error
	Search(embedding []float32, limit int) ([]model.SearchHit, error)
	Delete(id string) error
	DeleteByDocument(documentID string) error
}

// VectorsDBHandler handles vector index database operations
type VectorsDBHandler struct {
	db *helper.Database
}

// NewVectorsDBHandler creates a new vectors database handler.
// It initializes the database connection and loads vector-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVectorsDBHandler(db *helper.Database, embeddingDim int, force bool) (*VectorsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	vectorsDbHandler := &VectorsDBHandler{
		db: db,
	}

	err := loadSql.LoadVectorsSql(vectorsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load vectors sql", err)
	}

	err = vectorsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VectorsDBHandler")

	return vectorsDbHandler, nil
}

// CreateTable creates the 'vectors' table in the database.
// If the table already exists, it does not create it again.
// It also creates the HNSW index on the embedding column.
func (h *VectorsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_vectors($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing vectors table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table vectors")

	return nil
}

// Upsert inserts or replaces the embedding and payload stored under id
func (h *VectorsDBHandler) Upsert(id string, documentID string, embedding []float32, payload model.Metadata) error {
	embeddingVector := pgvector.NewVector(embedding)

	_, err := h.db.Instance.Exec(
		`SELECT upsert_vector($1, $2, $3, $4)`,
		id,
		documentID,
		embeddingVector,
		payload,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// Search returns the limit nearest neighbors of the query embedding by cosine similarity
func (h *VectorsDBHandler) Search(embedding []float32, limit int) ([]model.SearchHit, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_vectors_by_similarity($1, $2)`,
		embeddingVector,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []model.SearchHit
	for rows.Next() {
		hit := model.SearchHit{}
		err := rows.Scan(
			&hit.VectorID,
			&hit.DocumentID,
			&hit.Payload,
			&hit.RawScore,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if t, ok := hit.Payload["document_type"].(string); ok {
			hit.DocumentType = t
		}
		if title, ok := hit.Payload["title"].(string); ok {
			hit.Title = title
		}
		if path, ok := hit.Payload["file_path"].(string); ok {
			hit.FilePath = path
		}

		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}

// Delete removes a vector by id
func (h *VectorsDBHandler) Delete(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_vector($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteByDocument removes all vectors belonging to a document.
// Used by orphan cleanup when a source file disappears.
func (h *VectorsDBHandler) DeleteByDocument(documentID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_vectors_by_document($1)`,
		documentID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
