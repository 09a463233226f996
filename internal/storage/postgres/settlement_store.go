package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// SettlementStore implements storage.SettlementStore using PostgreSQL.
type SettlementStore struct {
	pool *Pool
}

// NewSettlementStore creates a new SettlementStore.
func NewSettlementStore(pool *Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettlementStore = (*SettlementStore)(nil)

// GetBatchByWeek retrieves the batch settled for a week.
func (s *SettlementStore) GetBatchByWeek(ctx context.Context, week string) (*domain.SettlementBatch, error) {
	query := `
		SELECT id, week, season, merkle_root, total_claimable, created_at
		FROM settlement_batches
		WHERE week = $1
	`

	var b domain.SettlementBatch
	var root, total string
	err := s.pool.QueryRow(ctx, query, week).Scan(
		&b.ID,
		&b.Week,
		&b.Season,
		&root,
		&total,
		&b.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get batch by week: %w", err)
	}

	b.MerkleRoot = common.HexToHash(root)
	b.TotalClaimable, err = parseBigInt(total)
	if err != nil {
		return nil, fmt.Errorf("batch total claimable: %w", err)
	}

	return &b, nil
}

// CreateBatch atomically persists a batch with all its claims, events
// and receipts. The unique constraint on week makes double settlement
// fail as ErrDuplicateKey with nothing written.
func (s *SettlementStore) CreateBatch(
	ctx context.Context,
	batch *domain.SettlementBatch,
	claims []*domain.ProvableClaim,
	events []domain.SettlementEvent,
	receipts []domain.TokenReceipt,
) error {
	if batch == nil || batch.ID == "" || batch.Week == "" || batch.TotalClaimable == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO settlement_batches (id, week, season, merkle_root, total_claimable, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		batch.ID,
		batch.Week,
		batch.Season,
		batch.MerkleRoot.Hex(),
		batch.TotalClaimable.String(),
		batch.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert settlement batch: %w", err)
	}

	for _, e := range events {
		_, err = tx.Exec(ctx, `
			INSERT INTO settlement_events (id, batch_id, builder_id, week, season, type)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			e.ID, e.BatchID, e.BuilderID, e.Week, e.Season, e.Type.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert settlement event: %w", err)
		}
	}

	for _, r := range receipts {
		_, err = tx.Exec(ctx, `
			INSERT INTO token_receipts (id, event_id, wallet_address, value)
			VALUES ($1, $2, $3, $4)
		`,
			r.ID, r.EventID, addrHex(r.WalletAddress), r.Value.String(),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert token receipt: %w", err)
		}
	}

	for _, c := range claims {
		proof := make([]string, len(c.Proof))
		for i, h := range c.Proof {
			proof[i] = h.Hex()
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO provable_claims (batch_id, wallet_address, account_id, amount, proof)
			VALUES ($1, $2, $3, $4, $5)
		`,
			batch.ID, addrHex(c.WalletAddress), c.AccountID, c.Amount.String(), proof,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert provable claim: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetClaimsByBatch retrieves all claims of a batch with their proofs,
// ordered by wallet address.
func (s *SettlementStore) GetClaimsByBatch(ctx context.Context, batchID string) ([]*domain.ProvableClaim, error) {
	query := `
		SELECT wallet_address, account_id, amount, proof
		FROM provable_claims
		WHERE batch_id = $1
		ORDER BY wallet_address ASC
	`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get claims by batch: %w", err)
	}
	defer rows.Close()

	var claims []*domain.ProvableClaim
	for rows.Next() {
		var c domain.ProvableClaim
		var wallet, amount string
		var proof []string

		if err := rows.Scan(&wallet, &c.AccountID, &amount, &proof); err != nil {
			return nil, fmt.Errorf("scan claim row: %w", err)
		}

		c.WalletAddress = common.HexToAddress(wallet)
		c.Amount, err = parseBigInt(amount)
		if err != nil {
			return nil, fmt.Errorf("claim amount: %w", err)
		}
		c.Proof = make([]common.Hash, len(proof))
		for i, h := range proof {
			c.Proof[i] = common.HexToHash(h)
		}

		claims = append(claims, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claim rows: %w", err)
	}

	return claims, nil
}
