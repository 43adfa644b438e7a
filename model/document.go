package model

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentType represents the type of a corpus document
type DocumentType string

const (
	DocumentTypeDesign       DocumentType = "design"
	DocumentTypeDecision     DocumentType = "decision"
	DocumentTypeArchitecture DocumentType = "architecture"
	DocumentTypeSprint       DocumentType = "sprint"
	DocumentTypeTest         DocumentType = "test"
	DocumentTypeNote         DocumentType = "note"
)

// DocumentRelation is a relationship declared in a document's front matter
type DocumentRelation struct {
	Target string           `yaml:"target"`
	Type   RelationshipType `yaml:"type"`
}

// BaseDocument carries the fields shared by all document types
type BaseDocument struct {
	ID          string             `yaml:"id"`
	Type        DocumentType       `yaml:"type"`
	Title       string             `yaml:"title"`
	Description string             `yaml:"description,omitempty"`
	Date        string             `yaml:"date,omitempty"` // ISO date, empty means current
	Tags        []string           `yaml:"tags,omitempty"`
	Relations   []DocumentRelation `yaml:"relations,omitempty"`
	Content     string             `yaml:"-"` // markdown body, not part of front matter
	Source      string             `yaml:"-"` // file path the document was read from
}

// Document is the common interface of all typed corpus documents
type Document interface {
	Base() *BaseDocument
	EmbeddingText() string
}

// embeddingText builds the embedding input in title/description/content priority
func (d *BaseDocument) embeddingText(extra ...string) string {
	parts := make([]string, 0, 3+len(extra))
	if d.Title != "" {
		parts = append(parts, d.Title)
	}
	if d.Description != "" {
		parts = append(parts, d.Description)
	}
	for _, e := range extra {
		if e != "" {
			parts = append(parts, e)
		}
	}
	if d.Content != "" {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// ParsedDate returns the document date, or the zero time if missing or unparseable
func (d *BaseDocument) ParsedDate() time.Time {
	if d.Date == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, d.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DesignDoc describes a proposed design
type DesignDoc struct {
	BaseDocument `yaml:",inline"`
	Problem      string `yaml:"problem,omitempty"`
	Proposal     string `yaml:"proposal,omitempty"`
}

func (d *DesignDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *DesignDoc) EmbeddingText() string {
	return d.embeddingText(d.Problem, d.Proposal)
}

// DecisionDoc records an accepted or rejected decision
type DecisionDoc struct {
	BaseDocument `yaml:",inline"`
	Status       string   `yaml:"status,omitempty"`
	Rationale    string   `yaml:"rationale,omitempty"`
	Alternatives []string `yaml:"alternatives,omitempty"`
}

func (d *DecisionDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *DecisionDoc) EmbeddingText() string {
	return d.embeddingText(d.Rationale)
}

// ArchitectureDoc describes a system or component architecture
type ArchitectureDoc struct {
	BaseDocument `yaml:",inline"`
	Components   []string `yaml:"components,omitempty"`
}

func (d *ArchitectureDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *ArchitectureDoc) EmbeddingText() string {
	return d.embeddingText(strings.Join(d.Components, ", "))
}

// SprintDoc tracks the goals of a development sprint
type SprintDoc struct {
	BaseDocument `yaml:",inline"`
	Sprint       int      `yaml:"sprint,omitempty"`
	Goals        []string `yaml:"goals,omitempty"`
}

func (d *SprintDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *SprintDoc) EmbeddingText() string {
	return d.embeddingText(strings.Join(d.Goals, "\n"))
}

// TestDoc describes a test plan or test report
type TestDoc struct {
	BaseDocument `yaml:",inline"`
	Scope        string `yaml:"scope,omitempty"`
}

func (d *TestDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *TestDoc) EmbeddingText() string {
	return d.embeddingText(d.Scope)
}

// NoteDoc is a free-form note
type NoteDoc struct {
	BaseDocument `yaml:",inline"`
}

func (d *NoteDoc) Base() *BaseDocument { return &d.BaseDocument }
func (d *NoteDoc) EmbeddingText() string {
	return d.embeddingText()
}

var frontMatterDelimiter = []byte("---")

// ParseDocument parses a markdown document with YAML front matter into its typed variant.
// The front matter must at least declare id, type and title.
func ParseDocument(source string, raw []byte) (Document, error) {
	head, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	var base BaseDocument
	if err := yaml.Unmarshal(head, &base); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}
	if base.ID == "" {
		return nil, fmt.Errorf("document is missing an id")
	}
	if base.Title == "" {
		return nil, fmt.Errorf("document %v is missing a title", base.ID)
	}
	for _, rel := range base.Relations {
		if rel.Target == "" {
			return nil, fmt.Errorf("document %v has a relation without a target", base.ID)
		}
		if !rel.Type.Valid() {
			return nil, fmt.Errorf("document %v has an unknown relation type %q", base.ID, rel.Type)
		}
	}

	var doc Document
	switch base.Type {
	case DocumentTypeDesign:
		doc = &DesignDoc{}
	case DocumentTypeDecision:
		doc = &DecisionDoc{}
	case DocumentTypeArchitecture:
		doc = &ArchitectureDoc{}
	case DocumentTypeSprint:
		doc = &SprintDoc{}
	case DocumentTypeTest:
		doc = &TestDoc{}
	case DocumentTypeNote, "":
		doc = &NoteDoc{}
	default:
		return nil, fmt.Errorf("document %v has an unknown type %q", base.ID, base.Type)
	}

	if err := yaml.Unmarshal(head, doc); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	b := doc.Base()
	if b.Type == "" {
		b.Type = DocumentTypeNote
	}
	b.Content = strings.TrimSpace(string(body))
	b.Source = source

	return doc, nil
}

// ParseDocumentFile reads and parses a document file
func ParseDocumentFile(filePath string) (Document, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseDocument(filePath, raw)
}

// IsDocumentFile reports whether the file is an indexable document
func IsDocumentFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	return ext == ".md" || ext == ".markdown"
}

// splitFrontMatter separates the YAML front matter block from the markdown body
func splitFrontMatter(raw []byte) (head []byte, body []byte, err error) {
	trimmed := bytes.TrimLeft(raw, "\uFEFF\n\r ")
	if !bytes.HasPrefix(trimmed, frontMatterDelimiter) {
		return nil, nil, fmt.Errorf("document has no front matter block")
	}

	rest := trimmed[len(frontMatterDelimiter):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated front matter block")
	}

	head = rest[:end]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}

	return head, body, nil
}
