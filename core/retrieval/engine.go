// Package retrieval implements hybrid vector+graph search over the document corpus.
package retrieval

import (
	"context"
	"sort"

	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// VectorSearcher is the subset of the vector index the engine reads from
type VectorSearcher interface {
	Search(embedding []float32, limit int) ([]model.SearchHit, error)
}

// GraphReader is the subset of the graph store the engine reads from.
// SupportsNeighborhoodExpansion declares whether the optimized bounded-path
// primitive is available; the engine falls back to hop-by-hop traversal
// via SelectRelationshipsOfNode when it is not.
type GraphReader interface {
	SelectRelationshipsOfNode(id string, relTypes []model.RelationshipType) (*model.GraphNeighborhood, error)
	ExpandNeighborhood(seedID string, maxHops int, relTypes []model.RelationshipType, cap int) (*model.GraphNeighborhood, error)
	ShortestPath(fromID string, toID string, maxHops int) (*model.Path, error)
	SupportsNeighborhoodExpansion() bool
}

// Engine provides hybrid retrieval combining vector similarity with graph context
type Engine struct {
	vectors VectorSearcher
	graph   GraphReader
}

// NewEngine creates a new retrieval engine
func NewEngine(vectors VectorSearcher, graph GraphReader) *Engine {
	return &Engine{
		vectors: vectors,
		graph:   graph,
	}
}

// Search performs a hybrid search: vector phase, bounded graph expansion
// around the hits, pairwise seed connectivity, reasoning extraction and
// combined scoring. An empty vector phase yields an empty result with a
// combined score of 0, not an error.
func (e *Engine) Search(ctx context.Context, query string, queryVector []float32, config *model.SearchConfig) (*model.HybridResult, error) {
	if config == nil {
		defaults := model.DefaultSearchConfig()
		config = &defaults
	}

	result := &model.HybridResult{
		Query:         query,
		VectorHits:    []model.SearchHit{},
		GraphContext:  model.NewGraphNeighborhood(),
		ReasoningPath: []string{},
		RelatedNodes:  []model.RelatedNode{},
	}

	// Vector phase
	hits, err := e.vectors.Search(queryVector, config.TopK)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}
	result.VectorHits = hits

	// Seed extraction
	seeds := seedDocuments(hits)
	if len(seeds) == 0 {
		return result, nil
	}

	// Graph expansion around each seed
	for _, seed := range seeds {
		neighborhood, err := e.expand(seed, config)
		if err != nil {
			return nil, helper.NewError("graph expansion", err)
		}
		mergeNeighborhood(result.GraphContext, neighborhood)
	}

	// Pairwise seed connectivity
	for i := 0; i < len(seeds); i++ {
		for j := i + 1; j < len(seeds); j++ {
			path, err := e.graph.ShortestPath(seeds[i], seeds[j], config.PathMaxHops)
			if err != nil {
				return nil, helper.NewError("shortest path", err)
			}
			if path != nil {
				result.GraphContext.Paths = append(result.GraphContext.Paths, *path)
			}
		}
	}

	result.ReasoningPath = buildReasoningPath(result.GraphContext)
	result.CombinedScore = combineScores(hits, seeds, result.GraphContext, config)
	result.RelatedNodes = relatedNodes(result.GraphContext, seeds, config.RelatedNodesCap)

	return result, nil
}

// expand retrieves the bounded-hop neighborhood of one seed, preferring the
// backend's optimized primitive and falling back to hop-by-hop traversal
func (e *Engine) expand(seed string, config *model.SearchConfig) (*model.GraphNeighborhood, error) {
	if e.graph.SupportsNeighborhoodExpansion() {
		return e.graph.ExpandNeighborhood(seed, config.MaxHops, config.RelationshipTypes, config.NeighborhoodCap)
	}
	return e.expandStepwise(seed, config.MaxHops, config.RelationshipTypes, config.NeighborhoodCap)
}

// expandStepwise produces the same node/relationship set as the optimized
// primitive by querying direct relationships one hop at a time
func (e *Engine) expandStepwise(seed string, maxHops int, relTypes []model.RelationshipType, cap int) (*model.GraphNeighborhood, error) {
	neighborhood := model.NewGraphNeighborhood()
	seen := map[[3]string]bool{}
	visited := map[string]bool{seed: true}
	frontier := []string{seed}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string

		for _, nodeID := range frontier {
			direct, err := e.graph.SelectRelationshipsOfNode(nodeID, relTypes)
			if err != nil {
				return nil, err
			}

			for _, rel := range direct.Relationships {
				key := [3]string{rel.Source, rel.Target, string(rel.Type)}
				if !seen[key] {
					if len(neighborhood.Relationships) >= cap {
						return neighborhood, nil
					}
					seen[key] = true
					neighborhood.Relationships = append(neighborhood.Relationships, rel)
				}

				for _, endpoint := range []string{rel.Source, rel.Target} {
					if props, ok := direct.Nodes[endpoint]; ok {
						if _, exists := neighborhood.Nodes[endpoint]; !exists {
							neighborhood.Nodes[endpoint] = props
						}
					}
					if !visited[endpoint] {
						visited[endpoint] = true
						next = append(next, endpoint)
					}
				}
			}
		}

		frontier = next
	}

	return neighborhood, nil
}

// AnalyzeDocumentImpact measures how central a document is in the graph:
// its direct connections, everything reachable within three hops, the chain
// of documents depending on it, and the resulting centrality score.
func (e *Engine) AnalyzeDocumentImpact(ctx context.Context, documentID string) (*model.ImpactAnalysis, error) {
	return e.analyzeImpact(documentID, impactMaxHops, dependencyChainCap)
}

// seedDocuments collects the distinct non-empty document ids from the vector hits
func seedDocuments(hits []model.SearchHit) []string {
	var seeds []string
	seen := map[string]bool{}
	for _, hit := range hits {
		if hit.DocumentID == "" || seen[hit.DocumentID] {
			continue
		}
		seen[hit.DocumentID] = true
		seeds = append(seeds, hit.DocumentID)
	}
	return seeds
}

// mergeNeighborhood merges src into dst, deduplicating nodes by id and
// relationships by (source, target, type)
func mergeNeighborhood(dst *model.GraphNeighborhood, src *model.GraphNeighborhood) {
	for id, props := range src.Nodes {
		if _, exists := dst.Nodes[id]; !exists {
			dst.Nodes[id] = props
		}
	}

	seen := map[[3]string]bool{}
	for _, rel := range dst.Relationships {
		seen[[3]string{rel.Source, rel.Target, string(rel.Type)}] = true
	}
	for _, rel := range src.Relationships {
		key := [3]string{rel.Source, rel.Target, string(rel.Type)}
		if !seen[key] {
			seen[key] = true
			dst.Relationships = append(dst.Relationships, rel)
		}
	}
}

// combineScores computes the mean combined score across seed documents.
// Each document scores raw*VectorWeight plus a graph bonus of GraphBonusStep
// per relationship touching it, capped at GraphBonusCap.
func combineScores(hits []model.SearchHit, seeds []string, neighborhood *model.GraphNeighborhood, config *model.SearchConfig) float64 {
	if len(seeds) == 0 {
		return 0
	}

	bestScore := map[string]float64{}
	for _, hit := range hits {
		if hit.DocumentID == "" {
			continue
		}
		if score, ok := bestScore[hit.DocumentID]; !ok || hit.RawScore > score {
			bestScore[hit.DocumentID] = hit.RawScore
		}
	}

	touching := map[string]int{}
	for _, rel := range neighborhood.Relationships {
		touching[rel.Source]++
		touching[rel.Target]++
	}

	var sum float64
	var scored int
	for _, seed := range seeds {
		raw, ok := bestScore[seed]
		if !ok {
			continue
		}

		graphBonus := float64(touching[seed]) * config.GraphBonusStep
		if graphBonus > config.GraphBonusCap {
			graphBonus = config.GraphBonusCap
		}

		sum += raw*config.VectorWeight + graphBonus
		scored++
	}

	if scored == 0 {
		return 0
	}
	return sum / float64(scored)
}

// relatedNodes surfaces graph nodes outside the seed set as query expansion
// candidates, capped at limit
func relatedNodes(neighborhood *model.GraphNeighborhood, seeds []string, limit int) []model.RelatedNode {
	seedSet := map[string]bool{}
	for _, seed := range seeds {
		seedSet[seed] = true
	}

	ids := make([]string, 0, len(neighborhood.Nodes))
	for id := range neighborhood.Nodes {
		if !seedSet[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	related := []model.RelatedNode{}
	for _, id := range ids {
		if len(related) >= limit {
			break
		}

		node := model.RelatedNode{ID: id}
		props := neighborhood.Nodes[id]
		if title, ok := props["title"].(string); ok {
			node.Title = title
		}
		if nodeType, ok := props["type"].(string); ok {
			node.Type = nodeType
		}
		related = append(related, node)
	}

	return related
}
