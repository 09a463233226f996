package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
)

// AccountStore provides access to the account directory.
type AccountStore interface {
	// FindByWallet retrieves the account owning a wallet address.
	// Returns ErrNotFound if no account holds the wallet.
	FindByWallet(ctx context.Context, wallet common.Address) (*domain.Account, error)

	// Insert adds a new account. Returns ErrDuplicateKey if the wallet
	// is already owned.
	Insert(ctx context.Context, a *domain.Account) error
}

// BindingStore provides access to builder/token bindings for a
// settlement contract.
type BindingStore interface {
	// GetAll retrieves every builder/token binding.
	GetAll(ctx context.Context) ([]domain.BuilderTokenBinding, error)

	// Insert adds a new binding. Returns ErrDuplicateKey if the
	// builder already has one.
	Insert(ctx context.Context, b *domain.BuilderTokenBinding) error
}

// SettlementStore persists settlement batches. CreateBatch is the only
// write of the whole pipeline and must be atomic: the batch, its
// claims, its events and its receipts all land in one transaction, and
// a unique constraint on week rejects double settlement.
type SettlementStore interface {
	// GetBatchByWeek retrieves the batch settled for a week.
	// Returns ErrNotFound if the week has not been settled.
	GetBatchByWeek(ctx context.Context, week string) (*domain.SettlementBatch, error)

	// CreateBatch atomically persists a batch with all its claims,
	// events and receipts. Returns ErrDuplicateKey if a batch already
	// exists for the week; nothing is written in that case.
	CreateBatch(
		ctx context.Context,
		batch *domain.SettlementBatch,
		claims []*domain.ProvableClaim,
		events []domain.SettlementEvent,
		receipts []domain.TokenReceipt,
	) error

	// GetClaimsByBatch retrieves all claims of a batch with their
	// proofs, ordered by wallet address.
	GetClaimsByBatch(ctx context.Context, batchID string) ([]*domain.ProvableClaim, error)
}

// ReceiptArchive is an append-only analytics sink for audit receipts.
// Archiving is best-effort: the settlement of record lives in the
// SettlementStore.
type ReceiptArchive interface {
	// ArchiveReceipts appends a batch's receipts to the archive.
	ArchiveReceipts(ctx context.Context, batch *domain.SettlementBatch, receipts []domain.TokenReceipt) error
}
