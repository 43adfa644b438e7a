package model

import (
	"fmt"
	"time"
)

// RelationshipType represents the type of relationship between documents.
// The set is closed: graph queries are only ever built from these values,
// never from caller-supplied strings.
type RelationshipType string

const (
	RelationshipReferences RelationshipType = "references"
	RelationshipDependsOn  RelationshipType = "depends_on"
	RelationshipImplements RelationshipType = "implements"
	RelationshipSupersedes RelationshipType = "supersedes"
	RelationshipPartOf     RelationshipType = "part_of"
	RelationshipRelatesTo  RelationshipType = "relates_to"
)

// AllRelationshipTypes lists every allowed relationship type
var AllRelationshipTypes = []RelationshipType{
	RelationshipReferences,
	RelationshipDependsOn,
	RelationshipImplements,
	RelationshipSupersedes,
	RelationshipPartOf,
	RelationshipRelatesTo,
}

// DependencyRelationshipTypes are the types followed when computing which
// documents depend on another one
var DependencyRelationshipTypes = []RelationshipType{
	RelationshipDependsOn,
	RelationshipImplements,
	RelationshipPartOf,
}

// Valid reports whether t is one of the allowed relationship types
func (t RelationshipType) Valid() bool {
	for _, allowed := range AllRelationshipTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// ValidateRelationshipTypes checks every type against the closed set
func ValidateRelationshipTypes(types []RelationshipType) error {
	for _, t := range types {
		if !t.Valid() {
			return fmt.Errorf("unknown relationship type %q", t)
		}
	}
	return nil
}

// Node represents a document node in the graph
type Node struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Type       string   `json:"type"`
	Properties Metadata `json:"properties,omitempty"`
}

// Relationship represents a typed connection between two document nodes
type Relationship struct {
	Source     string           `json:"source"`
	Target     string           `json:"target"`
	Type       RelationshipType `json:"type"`
	Properties Metadata         `json:"properties,omitempty"`
	CreatedAt  time.Time        `json:"created_at,omitempty"`
}

// Path represents a shortest path between two nodes
type Path struct {
	Nodes    []string `json:"nodes"`
	Distance int      `json:"distance"`
}
