package model

// SearchHit is the atomic unit returned by a single vector query
type SearchHit struct {
	VectorID     string   `json:"vector_id"`
	DocumentID   string   `json:"document_id"`
	DocumentType string   `json:"document_type"`
	FilePath     string   `json:"file_path"`
	Title        string   `json:"title"`
	RawScore     float64  `json:"raw_score"`
	Payload      Metadata `json:"payload,omitempty"`
}

// GraphNeighborhood is the merged graph context around a set of seed documents
type GraphNeighborhood struct {
	Nodes         map[string]Metadata `json:"nodes"`
	Relationships []Relationship      `json:"relationships"`
	Paths         []Path              `json:"paths"`
}

// NewGraphNeighborhood creates an empty neighborhood
func NewGraphNeighborhood() *GraphNeighborhood {
	return &GraphNeighborhood{
		Nodes:         map[string]Metadata{},
		Relationships: []Relationship{},
		Paths:         []Path{},
	}
}

// RelatedNode is a non-seed graph node surfaced as a query expansion candidate
type RelatedNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// HybridResult is the full result of one hybrid search
type HybridResult struct {
	Query         string             `json:"query"`
	VectorHits    []SearchHit        `json:"vector_hits"`
	GraphContext  *GraphNeighborhood `json:"graph_context"`
	CombinedScore float64            `json:"combined_score"`
	ReasoningPath []string           `json:"reasoning_path"`
	RelatedNodes  []RelatedNode      `json:"related_nodes"`
}

// RankedResult is one aggregated, decayed and boosted search result.
// FinalScore is always sum(RawScores) * DecayFactor * BoostFactor.
type RankedResult struct {
	VectorID     string    `json:"vector_id"`
	DocumentID   string    `json:"document_id"`
	DocumentType string    `json:"document_type"`
	FilePath     string    `json:"file_path"`
	Title        string    `json:"title"`
	RawScores    []float64 `json:"raw_scores"`
	DecayFactor  float64   `json:"decay_factor"`
	BoostFactor  float64   `json:"boost_factor"`
	FinalScore   float64   `json:"final_score"`
	Payload      Metadata  `json:"payload,omitempty"`
}

// ImpactAnalysis describes how central a document is in the graph
type ImpactAnalysis struct {
	DocumentID        string   `json:"document_id"`
	DirectConnections int      `json:"direct_connections"`
	TotalReachable    int      `json:"total_reachable"`
	DependencyChain   []string `json:"dependency_chain"`
	CentralScore      float64  `json:"central_score"`
}
