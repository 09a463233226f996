package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// SettlementStore is an in-memory implementation of
// storage.SettlementStore.
type SettlementStore struct {
	mu       sync.RWMutex
	byWeek   map[string]*domain.SettlementBatch
	claims   map[string][]*domain.ProvableClaim // keyed by batch id
	events   map[string][]domain.SettlementEvent
	receipts map[string][]domain.TokenReceipt
}

// NewSettlementStore creates a new in-memory settlement store.
func NewSettlementStore() *SettlementStore {
	return &SettlementStore{
		byWeek:   make(map[string]*domain.SettlementBatch),
		claims:   make(map[string][]*domain.ProvableClaim),
		events:   make(map[string][]domain.SettlementEvent),
		receipts: make(map[string][]domain.TokenReceipt),
	}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// GetBatchByWeek retrieves the batch settled for a week.
func (s *SettlementStore) GetBatchByWeek(_ context.Context, week string) (*domain.SettlementBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, ok := s.byWeek[week]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *batch
	return &copy, nil
}

// CreateBatch atomically persists a batch with claims, events and
// receipts. Returns ErrDuplicateKey if the week is already settled.
func (s *SettlementStore) CreateBatch(
	_ context.Context,
	batch *domain.SettlementBatch,
	claims []*domain.ProvableClaim,
	events []domain.SettlementEvent,
	receipts []domain.TokenReceipt,
) error {
	if batch == nil || batch.ID == "" || batch.Week == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byWeek[batch.Week]; exists {
		return storage.ErrDuplicateKey
	}

	batchCopy := *batch
	s.byWeek[batch.Week] = &batchCopy

	stored := make([]*domain.ProvableClaim, len(claims))
	for i, c := range claims {
		claimCopy := *c
		stored[i] = &claimCopy
	}
	s.claims[batch.ID] = stored
	s.events[batch.ID] = append([]domain.SettlementEvent(nil), events...)
	s.receipts[batch.ID] = append([]domain.TokenReceipt(nil), receipts...)
	return nil
}

// GetClaimsByBatch retrieves a batch's claims ordered by wallet.
func (s *SettlementStore) GetClaimsByBatch(_ context.Context, batchID string) ([]*domain.ProvableClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.claims[batchID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	claims := make([]*domain.ProvableClaim, len(stored))
	for i, c := range stored {
		copy := *c
		claims[i] = &copy
	}
	sort.Slice(claims, func(i, j int) bool {
		return bytes.Compare(claims[i].WalletAddress.Bytes(), claims[j].WalletAddress.Bytes()) < 0
	})
	return claims, nil
}

// EventsByBatch returns a batch's settlement events (test helper).
func (s *SettlementStore) EventsByBatch(batchID string) []domain.SettlementEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SettlementEvent(nil), s.events[batchID]...)
}

// ReceiptsByBatch returns a batch's receipts (test helper).
func (s *SettlementStore) ReceiptsByBatch(batchID string) []domain.TokenReceipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TokenReceipt(nil), s.receipts[batchID]...)
}
