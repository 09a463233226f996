package memory

import (
	"context"
	"sort"
	"sync"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// BindingStore is an in-memory implementation of storage.BindingStore.
type BindingStore struct {
	mu        sync.RWMutex
	byBuilder map[string]domain.BuilderTokenBinding
}

// NewBindingStore creates a new in-memory binding store.
func NewBindingStore() *BindingStore {
	return &BindingStore{
		byBuilder: make(map[string]domain.BuilderTokenBinding),
	}
}

// Compile-time interface check.
var _ storage.BindingStore = (*BindingStore)(nil)

// GetAll retrieves every binding, ordered by builder id.
func (s *BindingStore) GetAll(_ context.Context) ([]domain.BuilderTokenBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bindings := make([]domain.BuilderTokenBinding, 0, len(s.byBuilder))
	for _, b := range s.byBuilder {
		bindings = append(bindings, b)
	}
	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].BuilderID < bindings[j].BuilderID
	})
	return bindings, nil
}

// Insert adds a new binding. Returns ErrDuplicateKey if the builder
// already has one.
func (s *BindingStore) Insert(_ context.Context, b *domain.BuilderTokenBinding) error {
	if b == nil || b.BuilderID == "" || b.TokenID == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byBuilder[b.BuilderID]; exists {
		return storage.ErrDuplicateKey
	}
	s.byBuilder[b.BuilderID] = *b
	return nil
}
