// Package memory provides in-memory store implementations used as
// deterministic fakes in tests and in the fixture-driven cmd runs.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	byWallet map[common.Address]*domain.Account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		byWallet: make(map[common.Address]*domain.Account),
	}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// FindByWallet retrieves the account owning a wallet address.
func (s *AccountStore) FindByWallet(_ context.Context, wallet common.Address) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byWallet[wallet]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

// Insert adds a new account. Returns ErrDuplicateKey if the wallet is
// already owned.
func (s *AccountStore) Insert(_ context.Context, a *domain.Account) error {
	if a == nil || a.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byWallet[a.Wallet]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *a
	s.byWallet[a.Wallet] = &copy
	return nil
}

// Len returns the number of stored accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byWallet)
}
