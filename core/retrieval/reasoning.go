package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/siherrmann/retriever/model"
)

// buildReasoningPath derives human readable explanations from the graph
// context: related documents grouped by type, relationship counts grouped by
// type and the average connection distance. Empty aspects are omitted, so an
// empty neighborhood yields an empty path.
func buildReasoningPath(neighborhood *model.GraphNeighborhood) []string {
	reasoning := []string{}

	if len(neighborhood.Nodes) > 0 {
		byType := map[string]int{}
		for _, props := range neighborhood.Nodes {
			nodeType, _ := props["type"].(string)
			if nodeType == "" {
				nodeType = "unknown"
			}
			byType[nodeType]++
		}
		reasoning = append(reasoning, fmt.Sprintf("Found %d related documents: %s", len(neighborhood.Nodes), formatCounts(byType)))
	}

	if len(neighborhood.Relationships) > 0 {
		byType := map[string]int{}
		for _, rel := range neighborhood.Relationships {
			byType[string(rel.Type)]++
		}
		reasoning = append(reasoning, fmt.Sprintf("Connected via %d relationships: %s", len(neighborhood.Relationships), formatCounts(byType)))
	}

	if len(neighborhood.Paths) > 0 {
		var total int
		for _, path := range neighborhood.Paths {
			total += path.Distance
		}
		average := float64(total) / float64(len(neighborhood.Paths))
		reasoning = append(reasoning, fmt.Sprintf("Average connection distance: %.1f hops", average))
	}

	return reasoning
}

// formatCounts renders a count map as "a (2), b (1)" in stable key order
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s (%d)", key, counts[key]))
	}
	return strings.Join(parts, ", ")
}
