package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

func testBatch(week string) *domain.SettlementBatch {
	return &domain.SettlementBatch{
		ID:             "batch-" + week,
		Week:           week,
		Season:         1,
		MerkleRoot:     common.HexToHash("0xabc0"),
		TotalClaimable: big.NewInt(1000),
		CreatedAt:      time.Unix(1_700_000_000, 0).UTC(),
	}
}

func TestSettlementStore_CreateAndGetByWeek(t *testing.T) {
	ctx := context.Background()
	store := NewSettlementStore()

	batch := testBatch("2025-W31")
	claims := []*domain.ProvableClaim{
		{
			WalletAddress: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
			AccountID:     "acc-2",
			Amount:        big.NewInt(400),
		},
		{
			WalletAddress: common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			AccountID:     "acc-1",
			Amount:        big.NewInt(600),
			Proof:         []common.Hash{common.HexToHash("0x01")},
		},
	}
	events := []domain.SettlementEvent{{ID: "ev-1", BuilderID: "b-1", Week: batch.Week, Season: 1, Type: domain.EventTypeWeeklyReward, BatchID: batch.ID}}
	receipts := []domain.TokenReceipt{{ID: "r-1", EventID: "ev-1", WalletAddress: claims[0].WalletAddress, Value: big.NewInt(400)}}

	require.NoError(t, store.CreateBatch(ctx, batch, claims, events, receipts))

	got, err := store.GetBatchByWeek(ctx, "2025-W31")
	require.NoError(t, err)
	assert.Equal(t, batch.ID, got.ID)
	assert.Equal(t, batch.MerkleRoot, got.MerkleRoot)

	// Claims come back ordered by wallet address.
	gotClaims, err := store.GetClaimsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, gotClaims, 2)
	assert.Equal(t, "acc-1", gotClaims[0].AccountID)
	assert.Equal(t, "acc-2", gotClaims[1].AccountID)
	assert.Len(t, gotClaims[0].Proof, 1)

	assert.Len(t, store.EventsByBatch(batch.ID), 1)
	assert.Len(t, store.ReceiptsByBatch(batch.ID), 1)
}

func TestSettlementStore_DuplicateWeekRejected(t *testing.T) {
	ctx := context.Background()
	store := NewSettlementStore()

	require.NoError(t, store.CreateBatch(ctx, testBatch("2025-W31"), nil, nil, nil))

	second := testBatch("2025-W31")
	second.ID = "batch-other"
	err := store.CreateBatch(ctx, second, nil, nil, nil)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The original batch is untouched.
	got, err := store.GetBatchByWeek(ctx, "2025-W31")
	require.NoError(t, err)
	assert.Equal(t, "batch-2025-W31", got.ID)
}

func TestSettlementStore_GetUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewSettlementStore()

	_, err := store.GetBatchByWeek(ctx, "2025-W31")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetClaimsByBatch(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBindingStore_InsertAndGetAll(t *testing.T) {
	ctx := context.Background()
	store := NewBindingStore()

	require.NoError(t, store.Insert(ctx, &domain.BuilderTokenBinding{
		BuilderID:     "builder-2",
		TokenID:       big.NewInt(2),
		BuilderWallet: common.HexToAddress("0x02"),
	}))
	require.NoError(t, store.Insert(ctx, &domain.BuilderTokenBinding{
		BuilderID:     "builder-1",
		TokenID:       big.NewInt(1),
		BuilderWallet: common.HexToAddress("0x01"),
	}))

	err := store.Insert(ctx, &domain.BuilderTokenBinding{BuilderID: "builder-1", TokenID: big.NewInt(9)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	bindings, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, bindings, 2)
	assert.Equal(t, "builder-1", bindings[0].BuilderID)
	assert.Equal(t, "builder-2", bindings[1].BuilderID)
}
