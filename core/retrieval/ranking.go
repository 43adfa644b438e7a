package retrieval

import (
	"math"
	"sort"
	"time"

	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// Aggregator scores and merges vector search results, applying temporal decay
// and static per-type boosts on top of the raw similarity scores
type Aggregator struct {
	vectors VectorSearcher
	config  model.RankingConfig
	now     func() time.Time
}

// NewAggregator creates a new ranking aggregator.
// Passing a nil config uses the default decay curve and boost table.
func NewAggregator(vectors VectorSearcher, config *model.RankingConfig) *Aggregator {
	if config == nil {
		defaults := model.DefaultRankingConfig()
		config = &defaults
	}
	return &Aggregator{
		vectors: vectors,
		config:  *config,
		now:     time.Now,
	}
}

// TemporalDecay returns the age based score multiplier for a document date.
// The curve is exponential with the configured half life, bounded below by
// the configured floor so old documents stay retrievable. A zero date is
// treated as current and returns 1.0.
func (a *Aggregator) TemporalDecay(date time.Time) float64 {
	if date.IsZero() {
		return 1.0
	}

	ageDays := a.now().Sub(date).Hours() / 24
	if ageDays <= 0 {
		return 1.0
	}

	decay := math.Pow(0.5, ageDays/a.config.DecayHalfLifeDays)
	if decay < a.config.DecayFloor {
		return a.config.DecayFloor
	}
	return decay
}

// TypeBoost returns the static score multiplier for a document type.
// Unrecognized types get 1.0.
func (a *Aggregator) TypeBoost(documentType string) float64 {
	if boost, ok := a.config.TypeBoosts[model.DocumentType(documentType)]; ok {
		return boost
	}
	return 1.0
}

// SearchSingle runs one vector query and ranks the hits with
// final_score = raw_score * decay * boost, computed from each hit's payload
func (a *Aggregator) SearchSingle(queryVector []float32, limit int) ([]model.RankedResult, error) {
	hits, err := a.vectors.Search(queryVector, limit)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}

	results := make([]model.RankedResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, a.rank(hit))
	}

	sortRanked(results)
	return results, nil
}

// AggregateMulti runs one query per vector and merges the results keyed by
// vector id. A result returned by multiple queries accumulates every raw
// score, and its final score is recomputed from the sum after the merge, so
// query order never affects the outcome.
func (a *Aggregator) AggregateMulti(queryVectors [][]float32, limit int) ([]model.RankedResult, error) {
	merged := map[string]*model.RankedResult{}

	for _, queryVector := range queryVectors {
		hits, err := a.vectors.Search(queryVector, limit)
		if err != nil {
			return nil, helper.NewError("vector search", err)
		}

		for _, hit := range hits {
			if existing, ok := merged[hit.VectorID]; ok {
				existing.RawScores = append(existing.RawScores, hit.RawScore)
				continue
			}
			ranked := a.rank(hit)
			merged[hit.VectorID] = &ranked
		}
	}

	results := make([]model.RankedResult, 0, len(merged))
	for _, ranked := range merged {
		ranked.FinalScore = sum(ranked.RawScores) * ranked.DecayFactor * ranked.BoostFactor
		results = append(results, *ranked)
	}

	sortRanked(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// rank converts one raw hit into a ranked result with decay and boost applied
func (a *Aggregator) rank(hit model.SearchHit) model.RankedResult {
	decay := a.TemporalDecay(payloadDate(hit.Payload))
	boost := a.TypeBoost(hit.DocumentType)

	return model.RankedResult{
		VectorID:     hit.VectorID,
		DocumentID:   hit.DocumentID,
		DocumentType: hit.DocumentType,
		FilePath:     hit.FilePath,
		Title:        hit.Title,
		RawScores:    []float64{hit.RawScore},
		DecayFactor:  decay,
		BoostFactor:  boost,
		FinalScore:   hit.RawScore * decay * boost,
		Payload:      hit.Payload,
	}
}

// payloadDate extracts the document date from a hit payload.
// Missing or unparseable dates return the zero time, which decays to 1.0.
func payloadDate(payload model.Metadata) time.Time {
	raw, ok := payload["date"].(string)
	if !ok || raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if date, err := time.Parse(layout, raw); err == nil {
			return date
		}
	}
	return time.Time{}
}

// sortRanked orders results by final score descending, breaking ties by
// vector id for deterministic output
func sortRanked(results []model.RankedResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].VectorID < results[j].VectorID
	})
}

// sum adds up a raw score list
func sum(scores []float64) float64 {
	var total float64
	for _, score := range scores {
		total += score
	}
	return total
}
