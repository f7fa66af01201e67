package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nexuscrm/backoffice/pkg/models"
)

// MemoryDocumentStore is an in-process ports.DocumentStore. Documents are
// stored JSON-encoded so callers see the same value types a SQL store
// returns.
type MemoryDocumentStore struct {
	docs map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryDocumentStore creates an empty store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string][]byte)}
}

// GetDocument returns the document at path, or nil when absent
func (s *MemoryDocumentStore) GetDocument(_ context.Context, path string) (models.Document, error) {
	s.mu.RLock()
	raw, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeDocument(path, string(raw))
}

// SetDocument writes data at path
func (s *MemoryDocumentStore) SetDocument(_ context.Context, path string, data models.Document, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if merge {
		if raw, ok := s.docs[path]; ok {
			existing, err := decodeDocument(path, string(raw))
			if err != nil {
				return err
			}
			data = mergeDocuments(existing, data)
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	s.docs[path] = payload
	return nil
}

// QueryCollection returns the documents directly under collection that
// satisfy every constraint, ordered by path
func (s *MemoryDocumentStore) QueryCollection(_ context.Context, collection string, constraints ...models.QueryConstraint) ([]models.Document, error) {
	s.mu.RLock()
	paths := make([]string, 0)
	for path := range s.docs {
		if CollectionOf(path) == collection {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	raws := make([][]byte, len(paths))
	for i, path := range paths {
		raws[i] = s.docs[path]
	}
	s.mu.RUnlock()

	docs := make([]models.Document, 0, len(paths))
	for i, raw := range raws {
		doc, err := decodeDocument(paths[i], string(raw))
		if err != nil {
			return nil, err
		}
		if matchesAll(doc, constraints) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// DeleteDocument removes the document at path
func (s *MemoryDocumentStore) DeleteDocument(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}
