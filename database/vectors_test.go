package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmbeddingDim = 4

// testEmbedding creates a deterministic embedding with the given leading value
func testEmbedding(lead float32) []float32 {
	embedding := make([]float32, testEmbeddingDim)
	embedding[0] = lead
	for i := 1; i < testEmbeddingDim; i++ {
		embedding[i] = 0.1
	}
	return embedding
}

func TestVectorsNewVectorsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewVectorsDBHandler", func(t *testing.T) {
		vectorsDbHandler, err := NewVectorsDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")
		require.NotNil(t, vectorsDbHandler, "Expected NewVectorsDBHandler to return a non-nil instance")
		require.NotNil(t, vectorsDbHandler.db, "Expected NewVectorsDBHandler to have a non-nil database instance")
		require.NotNil(t, vectorsDbHandler.db.Instance, "Expected NewVectorsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewVectorsDBHandler with nil database", func(t *testing.T) {
		_, err := NewVectorsDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating VectorsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestVectorsUpsert(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")

	t.Run("Upsert vector", func(t *testing.T) {
		err := vectorsDbHandler.Upsert("doc-a-11111111", "doc-a", testEmbedding(1.0), model.Metadata{
			"document_id":   "doc-a",
			"document_type": "design",
			"title":         "Design A",
		})
		assert.NoError(t, err, "Expected Upsert to not return an error")

		// Cleanup
		vectorsDbHandler.Delete("doc-a-11111111")
	})

	t.Run("Upsert same id replaces embedding and payload", func(t *testing.T) {
		err := vectorsDbHandler.Upsert("doc-b-22222222", "doc-b", testEmbedding(0.5), model.Metadata{"title": "First"})
		require.NoError(t, err)

		err = vectorsDbHandler.Upsert("doc-b-22222222", "doc-b", testEmbedding(0.9), model.Metadata{"title": "Second"})
		assert.NoError(t, err, "Expected Upsert to not return an error for existing id")

		hits, err := vectorsDbHandler.Search(testEmbedding(0.9), 1)
		require.NoError(t, err)
		require.NotEmpty(t, hits, "Expected search to find the upserted vector")
		assert.Equal(t, "Second", hits[0].Title, "Expected payload of the second upsert")

		// Cleanup
		vectorsDbHandler.Delete("doc-b-22222222")
	})
}

func TestVectorsSearch(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")

	// Insert a small corpus with distinct embeddings
	ids := []string{}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("doc-%d-00000000", i)
		ids = append(ids, id)
		err := vectorsDbHandler.Upsert(id, fmt.Sprintf("doc-%d", i), testEmbedding(float32(i)/5.0), model.Metadata{
			"document_id":   fmt.Sprintf("doc-%d", i),
			"document_type": "note",
			"title":         fmt.Sprintf("Note %d", i),
		})
		require.NoError(t, err)
	}

	t.Run("Search returns nearest neighbors first", func(t *testing.T) {
		hits, err := vectorsDbHandler.Search(testEmbedding(0.8), 3)
		assert.NoError(t, err, "Expected Search to not return an error")
		require.Len(t, hits, 3, "Expected limit to bound the result count")

		assert.Equal(t, "doc-4-00000000", hits[0].VectorID, "Expected the closest embedding first")
		assert.GreaterOrEqual(t, hits[0].RawScore, hits[1].RawScore, "Expected scores in descending order")
		assert.GreaterOrEqual(t, hits[1].RawScore, hits[2].RawScore, "Expected scores in descending order")
	})

	t.Run("Search fills payload fields", func(t *testing.T) {
		hits, err := vectorsDbHandler.Search(testEmbedding(0.8), 1)
		require.NoError(t, err)
		require.NotEmpty(t, hits)

		assert.Equal(t, "doc-4", hits[0].DocumentID)
		assert.Equal(t, "note", hits[0].DocumentType)
		assert.Equal(t, "Note 4", hits[0].Title)
	})

	// Cleanup
	for _, id := range ids {
		vectorsDbHandler.Delete(id)
	}
}

func TestVectorsDelete(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")

	t.Run("Delete removes a single vector", func(t *testing.T) {
		err := vectorsDbHandler.Upsert("doc-c-33333333", "doc-c", testEmbedding(0.3), model.Metadata{"title": "C"})
		require.NoError(t, err)

		err = vectorsDbHandler.Delete("doc-c-33333333")
		assert.NoError(t, err, "Expected Delete to not return an error")

		hits, err := vectorsDbHandler.Search(testEmbedding(0.3), 10)
		require.NoError(t, err)
		for _, hit := range hits {
			assert.NotEqual(t, "doc-c-33333333", hit.VectorID, "Expected deleted vector to be gone")
		}
	})

	t.Run("DeleteByDocument removes all vectors of a document", func(t *testing.T) {
		err := vectorsDbHandler.Upsert("doc-d-44444444", "doc-d", testEmbedding(0.4), model.Metadata{"title": "D1"})
		require.NoError(t, err)
		err = vectorsDbHandler.Upsert("doc-d-55555555", "doc-d", testEmbedding(0.45), model.Metadata{"title": "D2"})
		require.NoError(t, err)

		err = vectorsDbHandler.DeleteByDocument("doc-d")
		assert.NoError(t, err, "Expected DeleteByDocument to not return an error")

		hits, err := vectorsDbHandler.Search(testEmbedding(0.4), 10)
		require.NoError(t, err)
		for _, hit := range hits {
			assert.NotEqual(t, "doc-d", hit.DocumentID, "Expected all vectors of the document to be gone")
		}
	})
}

func TestVectorsChangeIndexType(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")

	t.Run("Switch to ivfflat and back to hnsw", func(t *testing.T) {
		err := vectorsDbHandler.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err, "Expected switch to ivfflat to not return an error")

		err = vectorsDbHandler.ChangeIndexType(context.Background(), "hnsw", nil)
		assert.NoError(t, err, "Expected switch back to hnsw to not return an error")
	})

	t.Run("Unknown index type returns an error", func(t *testing.T) {
		err := vectorsDbHandler.ChangeIndexType(context.Background(), "btree", nil)
		assert.Error(t, err, "Expected error for unsupported index type")
	})
}
