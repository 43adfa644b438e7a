package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/retriever/core/retrieval"
	"github.com/siherrmann/retriever/database"
	"github.com/siherrmann/retriever/embedding"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/index"
	"github.com/siherrmann/retriever/model"
	loadSql "github.com/siherrmann/retriever/sql"
)

// Retriever provides a unified interface to indexing, hybrid retrieval and ranking
type Retriever struct {
	DB       *helper.Database
	Vectors  *database.VectorsDBHandler
	Graph    *database.GraphDBHandler
	Indexer  *index.Indexer
	Engine   *retrieval.Engine
	Ranking  *retrieval.Aggregator
	Provider embedding.Provider
	// Logging
	log *slog.Logger
}

// NewRetriever creates a new Retriever instance with all handlers initialized.
// The embedding provider determines the vector dimension of the index, and
// cachePath is the location of the persistent hash cache file.
func NewRetriever(config *helper.DatabaseConfiguration, provider embedding.Provider, cachePath string) (*Retriever, error) {
	if provider == nil {
		return nil, helper.NewError("create retriever", fmt.Errorf("embedding provider is nil"))
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("retriever", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	vectors, err := database.NewVectorsDBHandler(db, provider.Dimension(), false)
	if err != nil {
		return nil, helper.NewError("create vectors handler", err)
	}

	graph, err := database.NewGraphDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create graph handler", err)
	}

	cache, err := index.NewFileCacheStore(cachePath, logger)
	if err != nil {
		return nil, helper.NewError("create hash cache", err)
	}

	indexer, err := index.NewIndexer(provider, vectors, graph, cache, index.WithLogger(logger))
	if err != nil {
		return nil, helper.NewError("create indexer", err)
	}

	engine := retrieval.NewEngine(vectors, graph)
	ranking := retrieval.NewAggregator(vectors, nil)

	return &Retriever{
		DB:       db,
		Vectors:  vectors,
		Graph:    graph,
		Indexer:  indexer,
		Engine:   engine,
		Ranking:  ranking,
		Provider: provider,
		log:      logger,
	}, nil
}

// NewDefaultRetriever creates a Retriever with the default local embedding
// model (all-MiniLM-L6-v2, 384 dimensions)
func NewDefaultRetriever(config *helper.DatabaseConfiguration, cachePath string) (*Retriever, error) {
	provider, err := embedding.NewDefaultHugotProvider()
	if err != nil {
		return nil, helper.NewError("create default embedding provider", err)
	}
	return NewRetriever(config, provider, cachePath)
}

// Close closes the embedding provider and the database connection
func (r *Retriever) Close() error {
	if r.Provider != nil {
		if err := r.Provider.Close(); err != nil {
			return err
		}
	}
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// IndexDirectory embeds every document under root, skipping files whose
// content is unchanged since the last run. Individual document failures are
// collected into the returned stats.
func (r *Retriever) IndexDirectory(ctx context.Context, root string, force bool) (*index.Stats, error) {
	return r.Indexer.EmbedDirectory(ctx, root, force)
}

// IndexDocument embeds a single document file and returns its vector id
func (r *Retriever) IndexDocument(ctx context.Context, filePath string, force bool) (string, error) {
	return r.Indexer.EmbedDocument(ctx, filePath, force)
}

// RemoveDocument deletes a document's vector, graph node and hash record
func (r *Retriever) RemoveDocument(filePath string) error {
	return r.Indexer.RemoveDocument(filePath)
}

// Search performs hybrid retrieval: the query is embedded, matched against
// the vector index and enriched with graph context around the hits
func (r *Retriever) Search(ctx context.Context, query string, config *model.SearchConfig) (*model.HybridResult, error) {
	queryVector, err := r.Provider.Embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	return r.Engine.Search(ctx, query, queryVector, config)
}

// RankedSearch performs a single vector query with temporal decay and
// document type boosts applied to the scores
func (r *Retriever) RankedSearch(ctx context.Context, query string, limit int) ([]model.RankedResult, error) {
	queryVector, err := r.Provider.Embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	return r.Ranking.SearchSingle(queryVector, limit)
}

// MultiQuerySearch runs one vector query per input query and merges the
// ranked results, accumulating scores for documents hit by multiple queries
func (r *Retriever) MultiQuerySearch(ctx context.Context, queries []string, limit int) ([]model.RankedResult, error) {
	queryVectors := make([][]float32, 0, len(queries))
	for _, query := range queries {
		queryVector, err := r.Provider.Embed(ctx, query)
		if err != nil {
			return nil, helper.NewError("embed query", err)
		}
		queryVectors = append(queryVectors, queryVector)
	}

	return r.Ranking.AggregateMulti(queryVectors, limit)
}

// AnalyzeImpact measures how central a document is in the relationship graph
func (r *Retriever) AnalyzeImpact(ctx context.Context, documentID string) (*model.ImpactAnalysis, error) {
	return r.Engine.AnalyzeDocumentImpact(ctx, documentID)
}
