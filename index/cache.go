package index

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/siherrmann/retriever/helper"
	"github.com/siherrmann/retriever/model"
)

// CacheStore is a durable map from normalized file path to hash record.
// Implementations must be safe for concurrent use.
type CacheStore interface {
	Get(filePath string) (model.HashRecord, bool)
	Put(filePath string, record model.HashRecord) error
	Delete(filePath string) error
	Records() map[string]model.HashRecord
	Len() int
}

// NormalizePath returns the canonical cache key for a file path
func NormalizePath(filePath string) string {
	return filepath.ToSlash(filepath.Clean(filePath))
}

// MemoryCacheStore keeps hash records in memory only, for tests and dry runs
type MemoryCacheStore struct {
	mu      sync.RWMutex
	records map[string]model.HashRecord
}

// NewMemoryCacheStore creates an empty in-memory cache
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{records: map[string]model.HashRecord{}}
}

func (s *MemoryCacheStore) Get(filePath string) (model.HashRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[NormalizePath(filePath)]
	return record, ok
}

func (s *MemoryCacheStore) Put(filePath string, record model.HashRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[NormalizePath(filePath)] = record
	return nil
}

func (s *MemoryCacheStore) Delete(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, NormalizePath(filePath))
	return nil
}

func (s *MemoryCacheStore) Records() map[string]model.HashRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]model.HashRecord, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	return snapshot
}

func (s *MemoryCacheStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FileCacheStore persists hash records as a flat JSON map in a single file.
// Every Put/Delete rewrites the file atomically (write to temp, then rename),
// so readers never observe a half-written cache. A corrupt or unreadable
// cache file degrades to an empty cache, which forces a full re-embed
// instead of failing startup.
type FileCacheStore struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	records map[string]model.HashRecord
}

// NewFileCacheStore loads (or initializes) the cache file at path
func NewFileCacheStore(path string, logger *slog.Logger) (*FileCacheStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store := &FileCacheStore{
		path:    path,
		logger:  logger,
		records: map[string]model.HashRecord{},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		logger.Warn("Hash cache unreadable, starting with empty cache", slog.String("path", path), slog.Any("error", err))
		return store, nil
	}

	if err := json.Unmarshal(raw, &store.records); err != nil {
		logger.Warn("Hash cache corrupt, starting with empty cache", slog.String("path", path), slog.Any("error", err))
		store.records = map[string]model.HashRecord{}
	}

	return store, nil
}

func (s *FileCacheStore) Get(filePath string) (model.HashRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[NormalizePath(filePath)]
	return record, ok
}

func (s *FileCacheStore) Put(filePath string, record model.HashRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[NormalizePath(filePath)] = record
	return s.save()
}

func (s *FileCacheStore) Delete(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, NormalizePath(filePath))
	return s.save()
}

func (s *FileCacheStore) Records() map[string]model.HashRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]model.HashRecord, len(s.records))
	for k, v := range s.records {
		snapshot[k] = v
	}
	return snapshot
}

func (s *FileCacheStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// save writes the full record map atomically. Callers must hold s.mu.
func (s *FileCacheStore) save() error {
	raw, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return helper.NewError("marshal hash cache", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return helper.NewError("create cache directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return helper.NewError("create temp cache file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return helper.NewError("write temp cache file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return helper.NewError("close temp cache file", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return helper.NewError("rename cache file", err)
	}

	return nil
}
