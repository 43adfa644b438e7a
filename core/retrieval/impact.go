package retrieval

import (
	"github.com/siherrmann/retriever/model"
)

const (
	// impactMaxHops bounds both reachability and dependency chain traversal
	impactMaxHops = 3
	// dependencyChainCap bounds the length of the reported dependency chain
	dependencyChainCap = 10
)

// analyzeImpact computes connectivity metrics for one document node
func (e *Engine) analyzeImpact(documentID string, maxHops int, chainCap int) (*model.ImpactAnalysis, error) {
	direct, err := e.graph.SelectRelationshipsOfNode(documentID, nil)
	if err != nil {
		return nil, err
	}

	reachable, err := e.expandStepwise(documentID, maxHops, nil, reachabilityCap)
	if err != nil {
		return nil, err
	}

	totalReachable := 0
	for id := range reachable.Nodes {
		if id != documentID {
			totalReachable++
		}
	}

	chain, err := e.dependencyChain(documentID, maxHops, chainCap)
	if err != nil {
		return nil, err
	}

	analysis := &model.ImpactAnalysis{
		DocumentID:        documentID,
		DirectConnections: len(direct.Relationships),
		TotalReachable:    totalReachable,
		DependencyChain:   chain,
	}
	if totalReachable > 0 {
		analysis.CentralScore = float64(analysis.DirectConnections) / float64(totalReachable)
	}

	return analysis, nil
}

// reachabilityCap bounds the traversal used for the total_reachable count
const reachabilityCap = 500

// dependencyChain collects documents that depend on the given one, following
// dependency typed relationships against their direction (dependents point at
// their dependency). Traversal is bounded by maxHops and the result by chainCap.
func (e *Engine) dependencyChain(documentID string, maxHops int, chainCap int) ([]string, error) {
	chain := []string{}
	visited := map[string]bool{documentID: true}
	frontier := []string{documentID}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string

		for _, nodeID := range frontier {
			direct, err := e.graph.SelectRelationshipsOfNode(nodeID, model.DependencyRelationshipTypes)
			if err != nil {
				return nil, err
			}

			for _, rel := range direct.Relationships {
				if rel.Target != nodeID || visited[rel.Source] {
					continue
				}
				visited[rel.Source] = true

				if len(chain) >= chainCap {
					return chain, nil
				}
				chain = append(chain, rel.Source)
				next = append(next, rel.Source)
			}
		}

		frontier = next
	}

	return chain, nil
}
