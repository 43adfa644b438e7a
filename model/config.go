package model

// SearchConfig represents configuration for a hybrid retrieval query
type SearchConfig struct {
	// Vector search parameters
	TopK int `json:"top_k"`

	// Graph expansion parameters
	MaxHops           int                `json:"max_hops,omitempty"`
	RelationshipTypes []RelationshipType `json:"relationship_types,omitempty"` // Filter by relationship types
	NeighborhoodCap   int                `json:"neighborhood_cap"`             // Max records per seed expansion
	PathMaxHops       int                `json:"path_max_hops"`                // Bound for pairwise shortest paths
	RelatedNodesCap   int                `json:"related_nodes_cap"`            // Max surfaced expansion candidates

	// Scoring parameters
	VectorWeight   float64 `json:"vector_weight"`    // Weight for the raw similarity score
	GraphBonusStep float64 `json:"graph_bonus_step"` // Bonus per relationship touching a document
	GraphBonusCap  float64 `json:"graph_bonus_cap"`  // Upper bound for the accumulated graph bonus
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TopK:              5,
		MaxHops:           2,
		RelationshipTypes: AllRelationshipTypes,
		NeighborhoodCap:   50,
		PathMaxHops:       5,
		RelatedNodesCap:   5,
		VectorWeight:      0.7,
		GraphBonusStep:    0.1,
		GraphBonusCap:     0.3,
	}
}

// RankingConfig represents configuration for score aggregation
type RankingConfig struct {
	DecayHalfLifeDays float64                  `json:"decay_half_life_days"` // Age at which a document's score halves
	DecayFloor        float64                  `json:"decay_floor"`          // Lower bound, keeps old documents retrievable
	TypeBoosts        map[DocumentType]float64 `json:"type_boosts"`          // Static per-type score multipliers
}

// DefaultRankingConfig returns the default decay curve and boost table
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{
		DecayHalfLifeDays: 180,
		DecayFloor:        0.2,
		TypeBoosts: map[DocumentType]float64{
			DocumentTypeArchitecture: 1.25,
			DocumentTypeDesign:       1.2,
			DocumentTypeDecision:     1.15,
			DocumentTypeSprint:       1.0,
			DocumentTypeNote:         1.0,
			DocumentTypeTest:         0.9,
		},
	}
}
