package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// BindingStore implements storage.BindingStore using PostgreSQL.
type BindingStore struct {
	pool *Pool
}

// NewBindingStore creates a new BindingStore.
func NewBindingStore(pool *Pool) *BindingStore {
	return &BindingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BindingStore = (*BindingStore)(nil)

// GetAll retrieves every builder/token binding, ordered by builder id.
func (s *BindingStore) GetAll(ctx context.Context) ([]domain.BuilderTokenBinding, error) {
	query := `
		SELECT builder_id, token_id, builder_wallet
		FROM builder_token_bindings
		ORDER BY builder_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get builder token bindings: %w", err)
	}
	defer rows.Close()

	return scanBindings(rows)
}

// Insert adds a new binding. Returns ErrDuplicateKey if the builder or
// the token is already bound.
func (s *BindingStore) Insert(ctx context.Context, b *domain.BuilderTokenBinding) error {
	if b.BuilderID == "" || b.TokenID == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO builder_token_bindings (builder_id, token_id, builder_wallet)
		VALUES ($1, $2, $3)
	`

	_, err := s.pool.Exec(ctx, query,
		b.BuilderID,
		b.TokenID.String(),
		addrHex(b.BuilderWallet),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert builder token binding: %w", err)
	}
	return nil
}

// scanBindings scans multiple rows into a slice of bindings.
func scanBindings(rows pgx.Rows) ([]domain.BuilderTokenBinding, error) {
	var bindings []domain.BuilderTokenBinding

	for rows.Next() {
		var b domain.BuilderTokenBinding
		var tokenID, wallet string

		if err := rows.Scan(&b.BuilderID, &tokenID, &wallet); err != nil {
			return nil, fmt.Errorf("scan binding row: %w", err)
		}

		id, err := parseBigInt(tokenID)
		if err != nil {
			return nil, fmt.Errorf("binding token id: %w", err)
		}
		b.TokenID = id
		b.BuilderWallet = common.HexToAddress(wallet)

		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate binding rows: %w", err)
	}

	return bindings, nil
}
