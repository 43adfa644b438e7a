package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// GraphDBHandlerFunctions defines the interface for graph store operations.
type GraphDBHandlerFunctions interface {
	UpsertNode(node *model.Node) error
	SelectNode(id string) (*model.Node, error)
	DeleteNode(id string) error
	InsertRelationship(rel *model.Relationship) error
	SelectRelationshipsOfNode(id string, relTypes []model.RelationshipType) (*model.GraphNeighborhood, error)
	ExpandNeighborhood(seedID string, maxHops int, relTypes []model.RelationshipType, cap int) (*model.GraphNeighborhood, error)
	ShortestPath(fromID string, toID string, maxHops int) (*model.Path, error)
	SupportsNeighborhoodExpansion() bool
}

// GraphDBHandler handles graph store database operations
type GraphDBHandler struct {
	db *helper.Database

	// Whether the optimized recursive expansion function is available.
	// Probed once at startup; the retriever falls back to hop-by-hop
	// traversal when false.
	supportsExpansion bool
}

// NewGraphDBHandler creates a new graph database handler.
// It initializes the database connection and loads graph-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewGraphDBHandler(db *helper.Database, force bool) (*GraphDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	graphDbHandler := &GraphDBHandler{
		db: db,
	}

	err := loadSql.LoadGraphSql(graphDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	err = graphDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	err = graphDbHandler.db.Instance.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = 'select_neighborhood');`,
	).Scan(&graphDbHandler.supportsExpansion)
	if err != nil {
		return nil, helper.NewError("probe expansion capability", err)
	}

	db.Logger.Info("Initialized GraphDBHandler")

	return graphDbHandler, nil
}

// CreateTable creates the 'nodes' and 'relationships' tables in the database.
// If the tables already exist, it does not create them again.
// It also creates the relationship_type enum and all necessary indexes.
func (h *GraphDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_graph();`)
	if err != nil {
		log.Panicf("error initializing graph tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables nodes and relationships")

	return nil
}

// SupportsNeighborhoodExpansion reports whether the optimized bounded-path
// primitive is available on this backend
func (h *GraphDBHandler) SupportsNeighborhoodExpansion() bool {
	return h.supportsExpansion
}

// UpsertNode inserts or updates a document node
func (h *GraphDBHandler) UpsertNode(node *model.Node) error {
	row := h.db.Instance.QueryRow(
		`SELECT id, title, node_type, properties FROM upsert_node($1, $2, $3, $4)`,
		node.ID,
		node.Title,
		node.Type,
		node.Properties,
	)

	err := row.Scan(
		&node.ID,
		&node.Title,
		&node.Type,
		&node.Properties,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectNode retrieves a node by id, returning nil if it does not exist
func (h *GraphDBHandler) SelectNode(id string) (*model.Node, error) {
	row := h.db.Instance.QueryRow(
		`SELECT id, title, node_type, properties FROM select_node($1)`,
		id,
	)

	node := &model.Node{}
	err := row.Scan(
		&node.ID,
		&node.Title,
		&node.Type,
		&node.Properties,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// DeleteNode deletes a node and its relationships
func (h *GraphDBHandler) DeleteNode(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_node($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// InsertRelationship inserts a typed relationship between two existing nodes.
// The relationship type is validated against the closed enum before any query
// is constructed.
func (h *GraphDBHandler) InsertRelationship(rel *model.Relationship) error {
	if !rel.Type.Valid() {
		return helper.NewError("validate relationship type", fmt.Errorf("unknown relationship type %q", rel.Type))
	}

	_, err := h.db.Instance.Exec(
		`SELECT insert_relationship($1, $2, $3, $4)`,
		rel.Source,
		rel.Target,
		string(rel.Type),
		rel.Properties,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// SelectRelationshipsOfNode retrieves the direct relationships of a node in
// either direction. This is the fallback primitive the retriever uses for
// hop-by-hop expansion when the optimized recursive function is unavailable.
func (h *GraphDBHandler) SelectRelationshipsOfNode(id string, relTypes []model.RelationshipType) (*model.GraphNeighborhood, error) {
	typeParams, err := relTypeParams(relTypes)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relationships_of_node($1, $2)`,
		id,
		typeParams,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanNeighborhood(rows, false)
}

// ExpandNeighborhood retrieves the bounded-hop neighborhood of a seed node in
// a single recursive query, capped at cap relationship records
func (h *GraphDBHandler) ExpandNeighborhood(seedID string, maxHops int, relTypes []model.RelationshipType, cap int) (*model.GraphNeighborhood, error) {
	typeParams, err := relTypeParams(relTypes)
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_neighborhood($1, $2, $3, $4)`,
		seedID,
		maxHops,
		typeParams,
		cap,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanNeighborhood(rows, true)
}

// ShortestPath computes a bounded shortest path between two nodes.
// Returns nil if the nodes are not connected within maxHops; this is not an error.
func (h *GraphDBHandler) ShortestPath(fromID string, toID string, maxHops int) (*model.Path, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM shortest_path($1, $2, $3)`,
		fromID,
		toID,
		maxHops,
	)

	path := &model.Path{}
	err := row.Scan(
		pq.Array(&path.Nodes),
		&path.Distance,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return path, nil
}

// relTypeParams validates the closed enum and converts it to a query parameter
func relTypeParams(relTypes []model.RelationshipType) (interface{}, error) {
	if len(relTypes) == 0 {
		relTypes = model.AllRelationshipTypes
	}
	if err := model.ValidateRelationshipTypes(relTypes); err != nil {
		return nil, helper.NewError("validate relationship types", err)
	}

	names := make([]string, len(relTypes))
	for i, t := range relTypes {
		names[i] = string(t)
	}
	return pq.Array(names), nil
}

// scanNeighborhood reads relationship rows with their endpoint nodes into a neighborhood
func scanNeighborhood(rows *sql.Rows, withDepth bool) (*model.GraphNeighborhood, error) {
	neighborhood := model.NewGraphNeighborhood()

	for rows.Next() {
		var (
			rel                      model.Relationship
			sourceTitle, sourceType  string
			targetTitle, targetType  string
			sourceProps, targetProps model.Metadata
			relType                  string
			depth                    int
		)

		dest := []interface{}{
			&rel.Source, &sourceTitle, &sourceType, &sourceProps,
			&rel.Target, &targetTitle, &targetType, &targetProps,
			&relType, &rel.Properties,
		}
		if withDepth {
			dest = append(dest, &depth)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, helper.NewError("scan", err)
		}

		rel.Type = model.RelationshipType(relType)

		neighborhood.Relationships = append(neighborhood.Relationships, rel)
		addNeighborhoodNode(neighborhood, rel.Source, sourceTitle, sourceType, sourceProps)
		addNeighborhoodNode(neighborhood, rel.Target, targetTitle, targetType, targetProps)
	}

	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return neighborhood, nil
}

// addNeighborhoodNode records a node's properties under its id, keeping title
// and type available to reasoning extraction
func addNeighborhoodNode(neighborhood *model.GraphNeighborhood, id string, title string, nodeType string, props model.Metadata) {
	if _, exists := neighborhood.Nodes[id]; exists {
		return
	}
	if props == nil {
		props = model.Metadata{}
	}
	props["title"] = title
	props["type"] = nodeType
	neighborhood.Nodes[id] = props
}
