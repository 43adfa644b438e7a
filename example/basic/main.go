package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/siherrmann/retriever"
	"github.com/siherrmann/retriever/helper"
)

const designDoc = `---
id: design-retrieval
type: design
title: Hybrid Retrieval Design
description: Combining vector similarity with graph traversal.
date: 2025-06-01
relations:
  - target: adr-pgvector
    type: references
---

Retrieval combines two signals. Vector similarity finds semantically close
documents, and the relationship graph adds structural context around them.

Each query first hits the vector index, then expands the graph neighborhood
of the top hits within a bounded number of hops.`

const decisionDoc = `---
id: adr-pgvector
type: decision
title: Use pgvector for the vector index
date: 2025-05-12
---

We store embeddings in Postgres with the pgvector extension instead of
running a separate vector database. One store to operate, one backup story,
and cosine similarity search is fast enough at our corpus size.`

const noteDoc = `---
id: note-embedding-models
title: Embedding model notes
relations:
  - target: design-retrieval
    type: relates_to
---

all-MiniLM-L6-v2 gives 384 dimensional embeddings and runs locally.
Larger models improve recall slightly but cost noticeably more per document.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "retriever_test",
		Username: "postgres",
		Password: "postgres",
		Schema:   "public",
	}

	// Write some sample documents to a temporary corpus directory
	corpus, err := os.MkdirTemp("", "retriever-example")
	if err != nil {
		log.Fatalf("Failed to create corpus directory: %v", err)
	}
	defer os.RemoveAll(corpus)

	docs := map[string]string{
		"design-retrieval.md":      designDoc,
		"adr-pgvector.md":          decisionDoc,
		"note-embedding-models.md": noteDoc,
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(corpus, name), []byte(content), 0644); err != nil {
			log.Fatalf("Failed to write document: %v", err)
		}
	}

	// Create the retriever with the default local embedding model
	r, err := retriever.NewDefaultRetriever(dbConfig, filepath.Join(corpus, ".hashes.json"))
	if err != nil {
		log.Fatalf("Failed to create retriever: %v", err)
	}
	defer r.Close()

	ctx := context.Background()

	// Index the corpus
	stats, err := r.IndexDirectory(ctx, corpus, false)
	if err != nil {
		log.Fatalf("Failed to index corpus: %v", err)
	}
	fmt.Printf("Indexed corpus: %d embedded, %d skipped, %d failed\n", stats.Embedded, stats.Skipped, stats.Failed)

	// A second run skips everything, nothing changed
	stats, err = r.IndexDirectory(ctx, corpus, false)
	if err != nil {
		log.Fatalf("Failed to re-index corpus: %v", err)
	}
	fmt.Printf("Re-indexed corpus: %d embedded, %d skipped\n", stats.Embedded, stats.Skipped)

	// Hybrid search: vector hits plus graph context
	result, err := r.Search(ctx, "how does semantic search work with a relationship graph", nil)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("\nHybrid search for %q (combined score %.2f):\n", result.Query, result.CombinedScore)
	for _, hit := range result.VectorHits {
		fmt.Printf("  %.3f  %s (%s)\n", hit.RawScore, hit.Title, hit.DocumentType)
	}
	for _, line := range result.ReasoningPath {
		fmt.Printf("  - %s\n", line)
	}

	// Ranked search: temporal decay and type boosts applied
	ranked, err := r.RankedSearch(ctx, "vector database decision", 3)
	if err != nil {
		log.Fatalf("Ranked search failed: %v", err)
	}

	fmt.Println("\nRanked search:")
	for _, res := range ranked {
		fmt.Printf("  %.3f  %s (decay %.2f, boost %.2f)\n", res.FinalScore, res.Title, res.DecayFactor, res.BoostFactor)
	}

	// Impact analysis for the design document
	impact, err := r.AnalyzeImpact(ctx, "design-retrieval")
	if err != nil {
		log.Fatalf("Impact analysis failed: %v", err)
	}
	fmt.Printf("\nImpact of design-retrieval: %d direct connections, %d reachable, central score %.2f\n",
		impact.DirectConnections, impact.TotalReachable, impact.CentralScore)
}
