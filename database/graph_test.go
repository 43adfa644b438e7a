package database

import (
	"testing"

	"github.com/siherrmann/retriever/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initGraphNodes inserts a small chain a -> b -> c -> d plus a side node e
// hanging off b, all connected with typed relationships
func initGraphNodes(t *testing.T, graphDbHandler *GraphDBHandler) {
	nodes := []*model.Node{
		{ID: "a", Title: "Node A", Type: "design", Properties: model.Metadata{}},
		{ID: "b", Title: "Node B", Type: "decision", Properties: model.Metadata{}},
		{ID: "c", Title: "Node C", Type: "note", Properties: model.Metadata{}},
		{ID: "d", Title: "Node D", Type: "note", Properties: model.Metadata{}},
		{ID: "e", Title: "Node E", Type: "test", Properties: model.Metadata{}},
	}
	for _, node := range nodes {
		err := graphDbHandler.UpsertNode(node)
		require.NoError(t, err, "Expected UpsertNode to not return an error")
	}

	relationships := []*model.Relationship{
		{Source: "a", Target: "b", Type: model.RelationshipReferences, Properties: model.Metadata{}},
		{Source: "b", Target: "c", Type: model.RelationshipDependsOn, Properties: model.Metadata{}},
		{Source: "c", Target: "d", Type: model.RelationshipRelatesTo, Properties: model.Metadata{}},
		{Source: "e", Target: "b", Type: model.RelationshipImplements, Properties: model.Metadata{}},
	}
	for _, rel := range relationships {
		err := graphDbHandler.InsertRelationship(rel)
		require.NoError(t, err, "Expected InsertRelationship to not return an error")
	}

	t.Cleanup(func() {
		for _, node := range nodes {
			graphDbHandler.DeleteNode(node.ID)
		}
	})
}

func TestGraphNewGraphDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewGraphDBHandler", func(t *testing.T) {
		graphDbHandler, err := NewGraphDBHandler(database, true)
		assert.NoError(t, err, "Expected NewGraphDBHandler to not return an error")
		require.NotNil(t, graphDbHandler, "Expected NewGraphDBHandler to return a non-nil instance")
		require.NotNil(t, graphDbHandler.db, "Expected NewGraphDBHandler to have a non-nil database instance")
		assert.True(t, graphDbHandler.SupportsNeighborhoodExpansion(), "Expected expansion capability on a fully loaded backend")
	})

	t.Run("Invalid call NewGraphDBHandler with nil database", func(t *testing.T) {
		_, err := NewGraphDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating GraphDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestGraphNodes(t *testing.T) {
	database := initDB(t)

	graphDbHandler, err := NewGraphDBHandler(database, true)
	require.NoError(t, err, "Expected NewGraphDBHandler to not return an error")

	t.Run("Upsert and select node", func(t *testing.T) {
		node := &model.Node{
			ID:         "doc-upsert",
			Title:      "Upserted document",
			Type:       "design",
			Properties: model.Metadata{"file_path": "docs/upsert.md"},
		}

		err := graphDbHandler.UpsertNode(node)
		assert.NoError(t, err, "Expected UpsertNode to not return an error")

		selected, err := graphDbHandler.SelectNode("doc-upsert")
		assert.NoError(t, err, "Expected SelectNode to not return an error")
		require.NotNil(t, selected, "Expected SelectNode to find the node")
		assert.Equal(t, "Upserted document", selected.Title)
		assert.Equal(t, "design", selected.Type)
		assert.Equal(t, "docs/upsert.md", selected.Properties["file_path"])

		// Cleanup
		graphDbHandler.DeleteNode("doc-upsert")
	})

	t.Run("Upsert existing node updates title and properties", func(t *testing.T) {
		node := &model.Node{ID: "doc-twice", Title: "First", Type: "note", Properties: model.Metadata{}}
		require.NoError(t, graphDbHandler.UpsertNode(node))

		node.Title = "Second"
		require.NoError(t, graphDbHandler.UpsertNode(node))

		selected, err := graphDbHandler.SelectNode("doc-twice")
		require.NoError(t, err)
		require.NotNil(t, selected)
		assert.Equal(t, "Second", selected.Title, "Expected the second upsert to win")

		// Cleanup
		graphDbHandler.DeleteNode("doc-twice")
	})

	t.Run("Select missing node returns nil without error", func(t *testing.T) {
		selected, err := graphDbHandler.SelectNode("does-not-exist")
		assert.NoError(t, err, "Expected SelectNode to not return an error for a missing node")
		assert.Nil(t, selected, "Expected nil for a missing node")
	})
}

func TestGraphRelationships(t *testing.T) {
	database := initDB(t)

	graphDbHandler, err := NewGraphDBHandler(database, true)
	require.NoError(t, err, "Expected NewGraphDBHandler to not return an error")

	initGraphNodes(t, graphDbHandler)

	t.Run("Select relationships of node in both directions", func(t *testing.T) {
		neighborhood, err := graphDbHandler.SelectRelationshipsOfNode("b", nil)
		assert.NoError(t, err, "Expected SelectRelationshipsOfNode to not return an error")
		require.NotNil(t, neighborhood)

		// b has a->b, b->c and e->b
		assert.Len(t, neighborhood.Relationships, 3, "Expected all relationships touching the node")
		assert.Contains(t, neighborhood.Nodes, "a")
		assert.Contains(t, neighborhood.Nodes, "c")
		assert.Contains(t, neighborhood.Nodes, "e")
	})

	t.Run("Select relationships filtered by type", func(t *testing.T) {
		neighborhood, err := graphDbHandler.SelectRelationshipsOfNode("b", []model.RelationshipType{model.RelationshipDependsOn})
		assert.NoError(t, err)
		require.NotNil(t, neighborhood)

		require.Len(t, neighborhood.Relationships, 1, "Expected only the depends_on relationship")
		assert.Equal(t, model.RelationshipDependsOn, neighborhood.Relationships[0].Type)
	})

	t.Run("Insert relationship with invalid type is rejected", func(t *testing.T) {
		rel := &model.Relationship{Source: "a", Target: "b", Type: "blocks", Properties: model.Metadata{}}
		err := graphDbHandler.InsertRelationship(rel)
		assert.Error(t, err, "Expected error for a relationship type outside the enum")
		assert.Contains(t, err.Error(), "unknown relationship type")
	})

	t.Run("Duplicate relationship upserts instead of failing", func(t *testing.T) {
		rel := &model.Relationship{Source: "a", Target: "b", Type: model.RelationshipReferences, Properties: model.Metadata{"weight": 2}}
		err := graphDbHandler.InsertRelationship(rel)
		assert.NoError(t, err, "Expected duplicate relationship insert to update properties")
	})
}

func TestGraphExpandNeighborhood(t *testing.T) {
	database := initDB(t)

	graphDbHandler, err := NewGraphDBHandler(database, true)
	require.NoError(t, err, "Expected NewGraphDBHandler to not return an error")

	initGraphNodes(t, graphDbHandler)

	t.Run("Expansion within one hop", func(t *testing.T) {
		neighborhood, err := graphDbHandler.ExpandNeighborhood("a", 1, nil, 50)
		assert.NoError(t, err, "Expected ExpandNeighborhood to not return an error")
		require.NotNil(t, neighborhood)

		assert.Len(t, neighborhood.Relationships, 1, "Expected only the direct relationship of a")
		assert.Contains(t, neighborhood.Nodes, "b")
		assert.NotContains(t, neighborhood.Nodes, "c", "Expected nodes beyond one hop to be excluded")
	})

	t.Run("Expansion within two hops", func(t *testing.T) {
		neighborhood, err := graphDbHandler.ExpandNeighborhood("a", 2, nil, 50)
		assert.NoError(t, err)
		require.NotNil(t, neighborhood)

		assert.Contains(t, neighborhood.Nodes, "c")
		assert.Contains(t, neighborhood.Nodes, "e")
		assert.NotContains(t, neighborhood.Nodes, "d", "Expected nodes beyond two hops to be excluded")
	})

	t.Run("Expansion respects the record cap", func(t *testing.T) {
		neighborhood, err := graphDbHandler.ExpandNeighborhood("a", 3, nil, 2)
		assert.NoError(t, err)
		require.NotNil(t, neighborhood)

		assert.LessOrEqual(t, len(neighborhood.Relationships), 2, "Expected the cap to bound the relationship count")
	})

	t.Run("Expansion of an isolated node is empty", func(t *testing.T) {
		isolated := &model.Node{ID: "isolated", Title: "Isolated", Type: "note", Properties: model.Metadata{}}
		require.NoError(t, graphDbHandler.UpsertNode(isolated))
		defer graphDbHandler.DeleteNode("isolated")

		neighborhood, err := graphDbHandler.ExpandNeighborhood("isolated", 2, nil, 50)
		assert.NoError(t, err)
		require.NotNil(t, neighborhood)
		assert.Empty(t, neighborhood.Relationships)
	})
}

func TestGraphShortestPath(t *testing.T) {
	database := initDB(t)

	graphDbHandler, err := NewGraphDBHandler(database, true)
	require.NoError(t, err, "Expected NewGraphDBHandler to not return an error")

	initGraphNodes(t, graphDbHandler)

	t.Run("Path between connected nodes", func(t *testing.T) {
		path, err := graphDbHandler.ShortestPath("a", "d", 5)
		assert.NoError(t, err, "Expected ShortestPath to not return an error")
		require.NotNil(t, path, "Expected a path between connected nodes")

		assert.Equal(t, 3, path.Distance, "Expected the three hop chain a-b-c-d")
		assert.Equal(t, []string{"a", "b", "c", "d"}, path.Nodes)
	})

	t.Run("Path bound excludes distant nodes", func(t *testing.T) {
		path, err := graphDbHandler.ShortestPath("a", "d", 2)
		assert.NoError(t, err)
		assert.Nil(t, path, "Expected no path within two hops")
	})

	t.Run("Disconnected nodes return nil without error", func(t *testing.T) {
		isolated := &model.Node{ID: "offside", Title: "Offside", Type: "note", Properties: model.Metadata{}}
		require.NoError(t, graphDbHandler.UpsertNode(isolated))
		defer graphDbHandler.DeleteNode("offside")

		path, err := graphDbHandler.ShortestPath("a", "offside", 5)
		assert.NoError(t, err, "Expected disconnected nodes to not be an error")
		assert.Nil(t, path)
	})
}

func TestGraphDeleteNode(t *testing.T) {
	database := initDB(t)

	graphDbHandler, err := NewGraphDBHandler(database, true)
	require.NoError(t, err, "Expected NewGraphDBHandler to not return an error")

	t.Run("Delete removes node and its relationships", func(t *testing.T) {
		source := &model.Node{ID: "del-source", Title: "Source", Type: "note", Properties: model.Metadata{}}
		target := &model.Node{ID: "del-target", Title: "Target", Type: "note", Properties: model.Metadata{}}
		require.NoError(t, graphDbHandler.UpsertNode(source))
		require.NoError(t, graphDbHandler.UpsertNode(target))
		defer graphDbHandler.DeleteNode("del-target")

		rel := &model.Relationship{Source: "del-source", Target: "del-target", Type: model.RelationshipReferences, Properties: model.Metadata{}}
		require.NoError(t, graphDbHandler.InsertRelationship(rel))

		err := graphDbHandler.DeleteNode("del-source")
		assert.NoError(t, err, "Expected DeleteNode to not return an error")

		selected, err := graphDbHandler.SelectNode("del-source")
		require.NoError(t, err)
		assert.Nil(t, selected, "Expected the node to be gone")

		neighborhood, err := graphDbHandler.SelectRelationshipsOfNode("del-target", nil)
		require.NoError(t, err)
		assert.Empty(t, neighborhood.Relationships, "Expected relationships to cascade on node deletion")
	})
}
