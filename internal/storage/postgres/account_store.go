package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// FindByWallet retrieves the account owning a wallet address.
func (s *AccountStore) FindByWallet(ctx context.Context, wallet common.Address) (*domain.Account, error) {
	query := `
		SELECT id, wallet, handle, placeholder
		FROM accounts
		WHERE wallet = $1
	`

	var a domain.Account
	var walletHex string
	err := s.pool.QueryRow(ctx, query, addrHex(wallet)).Scan(
		&a.ID,
		&walletHex,
		&a.Handle,
		&a.Placeholder,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("find account by wallet: %w", err)
	}
	a.Wallet = common.HexToAddress(walletHex)

	return &a, nil
}

// Insert adds a new account. Returns ErrDuplicateKey if the wallet is
// already owned.
func (s *AccountStore) Insert(ctx context.Context, a *domain.Account) error {
	if a.ID == "" || a.Handle == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO accounts (id, wallet, handle, placeholder)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		addrHex(a.Wallet),
		a.Handle,
		a.Placeholder,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}
