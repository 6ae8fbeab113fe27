// Package doccache holds parsed document content for snippet rendering.
// The in-memory cache is authoritative for a running searcher; the redis
// variant lets several searcher replicas share one warmed copy.
package doccache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/paylist-tw/docsearch/internal/document"
	pkgredis "github.com/paylist-tw/docsearch/pkg/redis"
)

// Memory is a concurrency-safe in-process content cache.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*document.Document
}

// NewMemory creates an empty cache.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*document.Document)}
}

// Get returns the cached document, if any.
func (m *Memory) Get(docID string) (*document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[docID]
	return doc, ok
}

// Put stores one document.
func (m *Memory) Put(doc *document.Document) {
	if doc == nil || doc.DocID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.DocID] = doc
}

// Replace swaps the whole cache contents, used when a fresh extraction
// batch arrives.
func (m *Memory) Replace(docs []document.Document) {
	next := make(map[string]*document.Document, len(docs))
	for i := range docs {
		if docs[i].DocID != "" {
			next[docs[i].DocID] = &docs[i]
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = next
}

// Len reports the number of cached documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Redis mirrors document content in redis so replicas can warm up without
// re-reading the extraction output.
type Redis struct {
	client *pkgredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

const redisKeyPrefix = "docsearch:doc:"

// NewRedis creates a redis-backed content cache.
func NewRedis(client *pkgredis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "doc-cache"),
	}
}

// Get fetches and decodes a document. Lookup failures are reported as
// misses; snippet rendering degrades instead of erroring.
func (r *Redis) Get(docID string) (*document.Document, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, err := r.client.Get(ctx, redisKeyPrefix+docID)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			r.logger.Error("content cache get failed", "doc_id", docID, "error", err)
		}
		return nil, false
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		r.logger.Error("content cache decode failed", "doc_id", docID, "error", err)
		return nil, false
	}
	return &doc, true
}

// Put stores one document.
func (r *Redis) Put(ctx context.Context, doc *document.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+doc.DocID, data, r.ttl)
}
