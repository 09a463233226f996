package memory

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

func TestAccountStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	account := &domain.Account{ID: "acc-1", Wallet: wallet, Handle: "alice"}

	require.NoError(t, store.Insert(ctx, account))

	found, err := store.FindByWallet(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", found.ID)
	assert.Equal(t, "alice", found.Handle)
	assert.False(t, found.Placeholder)
}

func TestAccountStore_FindUnknownWallet(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()

	_, err := store.FindByWallet(ctx, common.HexToAddress("0x2222222222222222222222222222222222222222"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAccountStore_InsertDuplicateWallet(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()

	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")
	require.NoError(t, store.Insert(ctx, &domain.Account{ID: "acc-1", Wallet: wallet}))

	err := store.Insert(ctx, &domain.Account{ID: "acc-2", Wallet: wallet})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, 1, store.Len())
}

func TestAccountStore_InsertInvalid(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.Account{}), storage.ErrInvalidInput)
}
