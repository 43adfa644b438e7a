package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/siherrmann/retriever/embedding"
	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// VectorStore is the subset of the vector index the indexer writes to
type VectorStore interface {
	Upsert(id string, documentID string, embedding []float32, payload model.Metadata) error
	Delete(id string) error
	DeleteByDocument(documentID string) error
}

// GraphStore is the subset of the graph store the indexer writes to
type GraphStore interface {
	UpsertNode(node *model.Node) error
	SelectNode(id string) (*model.Node, error)
	InsertRelationship(rel *model.Relationship) error
	DeleteNode(id string) error
}

// Stats summarizes one directory embedding run.
// Individual document failures are collected, never fatal.
type Stats struct {
	RunID    string
	Embedded int
	Skipped  int
	Failed   int
	Total    int
	Errors   []string
	Duration time.Duration
}

// Indexer embeds documents incrementally, skipping files whose content hash
// is unchanged since the last successful embed
type Indexer struct {
	provider embedding.Provider
	vectors  VectorStore
	graph    GraphStore
	cache    CacheStore
	retry    RetryConfig
	workers  int
	ignore   []string
	logger   *slog.Logger
}

// Option configures an Indexer
type Option func(*Indexer)

// WithWorkers sets the worker pool size for directory embedding.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithWorkers(workers int) Option {
	return func(ix *Indexer) {
		if workers < 1 {
			workers = 1
		}
		ix.workers = workers
	}
}

// WithRetryConfig overrides the backoff configuration for transient provider errors
func WithRetryConfig(config RetryConfig) Option {
	return func(ix *Indexer) {
		ix.retry = config
	}
}

// WithIgnorePaths sets directory names skipped during directory walks
func WithIgnorePaths(names ...string) Option {
	return func(ix *Indexer) {
		ix.ignore = append(ix.ignore, names...)
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) {
		if logger != nil {
			ix.logger = logger
		}
	}
}

// NewIndexer creates a new incremental indexer.
// The graph store may be nil, in which case no nodes or relationships are written.
func NewIndexer(provider embedding.Provider, vectors VectorStore, graph GraphStore, cache CacheStore, opts ...Option) (*Indexer, error) {
	if provider == nil {
		return nil, helper.NewError("create indexer", fmt.Errorf("embedding provider is nil"))
	}
	if vectors == nil {
		return nil, helper.NewError("create indexer", fmt.Errorf("vector store is nil"))
	}
	if cache == nil {
		return nil, helper.NewError("create indexer", fmt.Errorf("cache store is nil"))
	}

	ix := &Indexer{
		provider: provider,
		vectors:  vectors,
		graph:    graph,
		cache:    cache,
		retry:    DefaultRetryConfig(),
		workers:  runtime.NumCPU(),
		ignore:   []string{"node_modules", "vendor", "models"},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix, nil
}

// NeedsEmbedding reports whether the file must be (re-)embedded.
// It returns (true, "") for unknown or changed files and (false, vectorID)
// for files whose content hash matches the cached record.
// This is a pure decision function, it never mutates the cache.
func (ix *Indexer) NeedsEmbedding(filePath string) (bool, string) {
	record, ok := ix.cache.Get(filePath)
	if !ok {
		return true, ""
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return true, ""
	}

	if ContentHash(content) == record.ContentHash {
		return false, record.VectorID
	}

	return true, ""
}

// EmbedDocument embeds a single document file and persists it to the vector
// index, the graph store and the hash cache. If force is false and the
// content hash is unchanged, the cached vector id is returned without
// calling the embedding provider.
func (ix *Indexer) EmbedDocument(ctx context.Context, filePath string, force bool) (string, error) {
	if !force {
		if needs, vectorID := ix.NeedsEmbedding(filePath); !needs {
			ix.logger.Debug("Skipping unchanged document", slog.String("file", filePath))
			return vectorID, nil
		}
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", helper.NewError("read document", err)
	}

	doc, err := model.ParseDocument(filePath, content)
	if err != nil {
		return "", helper.NewError("parse document", err)
	}
	base := doc.Base()

	vector, err := retryWithBackoff(ctx, ix.retry, embedding.IsTransient, func() ([]float32, error) {
		return ix.provider.Embed(ctx, doc.EmbeddingText())
	})
	if err != nil {
		return "", helper.NewError("generate embedding", err)
	}

	contentHash := ContentHash(content)
	vectorID := fmt.Sprintf("%s-%s", base.ID, ShortHash(contentHash))

	payload := model.Metadata{
		"document_id":   base.ID,
		"document_type": string(base.Type),
		"title":         base.Title,
		"file_path":     NormalizePath(filePath),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	if base.Date != "" {
		payload["date"] = base.Date
	}

	// A changed file gets a new hash-suffixed id, so the previous vector
	// has to be dropped explicitly or it would stay searchable.
	if previous, ok := ix.cache.Get(filePath); ok && previous.VectorID != "" && previous.VectorID != vectorID {
		if err := ix.vectors.Delete(previous.VectorID); err != nil {
			return "", helper.NewError("delete stale vector", err)
		}
	}

	if err := ix.vectors.Upsert(vectorID, base.ID, vector, payload); err != nil {
		return "", helper.NewError("upsert vector", err)
	}

	if ix.graph != nil {
		if err := ix.syncGraph(doc); err != nil {
			return "", helper.NewError("sync graph", err)
		}
	}

	record := model.HashRecord{
		DocumentID:     base.ID,
		FilePath:       NormalizePath(filePath),
		ContentHash:    contentHash,
		EmbeddingHash:  EmbeddingHash(vector),
		LastEmbeddedAt: time.Now().UTC(),
		VectorID:       vectorID,
	}
	if err := ix.cache.Put(filePath, record); err != nil {
		return "", helper.NewError("update hash cache", err)
	}

	ix.logger.Info("Embedded document",
		slog.String("document_id", base.ID),
		slog.String("vector_id", vectorID),
		slog.String("file", filePath))

	return vectorID, nil
}

// syncGraph upserts the document's node and its declared relationships.
// Relation targets that are not yet indexed get a stub node so the
// relationship can be recorded before the target document is embedded.
func (ix *Indexer) syncGraph(doc model.Document) error {
	base := doc.Base()

	node := &model.Node{
		ID:    base.ID,
		Title: base.Title,
		Type:  string(base.Type),
		Properties: model.Metadata{
			"file_path": NormalizePath(base.Source),
			"date":      base.Date,
		},
	}
	if err := ix.graph.UpsertNode(node); err != nil {
		return err
	}

	for _, rel := range base.Relations {
		target, err := ix.graph.SelectNode(rel.Target)
		if err != nil {
			return err
		}
		if target == nil {
			stub := &model.Node{ID: rel.Target, Properties: model.Metadata{}}
			if err := ix.graph.UpsertNode(stub); err != nil {
				return err
			}
		}

		relationship := &model.Relationship{
			Source:     base.ID,
			Target:     rel.Target,
			Type:       rel.Type,
			Properties: model.Metadata{},
		}
		if err := ix.graph.InsertRelationship(relationship); err != nil {
			return err
		}
	}

	return nil
}

// EmbedDirectory walks the tree under root and embeds every document file,
// fanning the work out across a bounded worker pool. Failures on individual
// files are collected into the returned stats, not fatal. Cancelling the
// context stops the run early; everything processed so far stays persisted.
func (ix *Indexer) EmbedDirectory(ctx context.Context, root string, force bool) (*Stats, error) {
	startTime := time.Now()

	files, err := ix.discoverFiles(root)
	if err != nil {
		return nil, helper.NewError("discover documents", err)
	}

	stats := &Stats{RunID: uuid.New().String(), Total: len(files), Errors: []string{}}

	ix.logger.Info("Starting directory embedding",
		slog.String("run_id", stats.RunID),
		slog.String("root", root),
		slog.Int("total", stats.Total))

	pool, err := ants.NewPool(ix.workers)
	if err != nil {
		return nil, helper.NewError("create worker pool", err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		embedded int32
		skipped  int32
		failed   int32
	)

	for _, filePath := range files {
		if ctx.Err() != nil {
			break
		}

		filePath := filePath
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			if !force {
				if needs, _ := ix.NeedsEmbedding(filePath); !needs {
					atomic.AddInt32(&skipped, 1)
					return
				}
			}

			if _, err := ix.EmbedDocument(ctx, filePath, force); err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", filePath, err))
				mu.Unlock()
				return
			}

			atomic.AddInt32(&embedded, 1)
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			atomic.AddInt32(&failed, 1)
		}
	}

	wg.Wait()

	stats.Embedded = int(embedded)
	stats.Skipped = int(skipped)
	stats.Failed = int(failed)
	stats.Duration = time.Since(startTime)

	ix.logger.Info("Directory embedding finished",
		slog.String("run_id", stats.RunID),
		slog.Int("embedded", stats.Embedded),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
		slog.Int("total", stats.Total))

	return stats, ctx.Err()
}

// RemoveDocument deletes a document's vector, graph node and hash record.
// Used for orphan cleanup when a source file disappears.
func (ix *Indexer) RemoveDocument(filePath string) error {
	record, ok := ix.cache.Get(filePath)
	if !ok {
		return nil
	}

	if err := ix.vectors.DeleteByDocument(record.DocumentID); err != nil {
		return helper.NewError("delete vectors", err)
	}
	if ix.graph != nil {
		if err := ix.graph.DeleteNode(record.DocumentID); err != nil {
			return helper.NewError("delete node", err)
		}
	}
	if err := ix.cache.Delete(filePath); err != nil {
		return helper.NewError("delete hash record", err)
	}

	return nil
}

// discoverFiles finds all document files under root, skipping hidden and ignored directories
func (ix *Indexer) discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			for _, ignored := range ix.ignore {
				if name == ignored {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if model.IsDocumentFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
