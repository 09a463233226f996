package aggregation

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
	"scout-settlement/internal/storage/memory"
)

var (
	builderW = common.HexToAddress("0x1000000000000000000000000000000000000001")
	scoutX   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	scoutY   = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

func payout(builderID string, builder domain.PayoutLine, holders ...domain.PayoutLine) *domain.BuilderPayout {
	p := &domain.BuilderPayout{
		BuilderID: builderID,
		Builder:   builder,
		Holders:   holders,
		Event:     domain.SettlementEvent{ID: "ev-" + builderID},
	}
	if builder.Amount.Sign() > 0 {
		p.Receipts = append(p.Receipts, domain.TokenReceipt{ID: "r-b-" + builderID, EventID: p.Event.ID, WalletAddress: builder.Wallet, Value: builder.Amount})
	}
	for i, h := range holders {
		p.Receipts = append(p.Receipts, domain.TokenReceipt{ID: "r-" + builderID + string(rune('a'+i)), EventID: p.Event.ID, WalletAddress: h.Wallet, Value: h.Amount})
	}
	return p
}

func line(wallet common.Address, amount int64) domain.PayoutLine {
	return domain.PayoutLine{Wallet: wallet, Amount: big.NewInt(amount)}
}

func TestAggregate_FoldsDuplicateWallets(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()

	// scoutX holds tokens of both builders; its claims must fold.
	payouts := []*domain.BuilderPayout{
		payout("b1", line(builderW, 199), line(scoutX, 98), line(scoutY, 49)),
		payout("b2", line(scoutY, 10), line(scoutX, 25)),
	}

	claims, err := NewAggregator(accounts).Aggregate(ctx, payouts)
	require.NoError(t, err)

	require.Len(t, claims, 3)

	byWallet := make(map[common.Address]*domain.ProvableClaim)
	for _, c := range claims {
		byWallet[c.WalletAddress] = c
	}
	assert.Equal(t, int64(199), byWallet[builderW].Amount.Int64())
	assert.Equal(t, int64(123), byWallet[scoutX].Amount.Int64())
	assert.Equal(t, int64(59), byWallet[scoutY].Amount.Int64())
}

func TestAggregate_ConservationAgainstReceipts(t *testing.T) {
	ctx := context.Background()

	payouts := []*domain.BuilderPayout{
		payout("b1", line(builderW, 199), line(scoutX, 98), line(scoutY, 49)),
		payout("b2", line(scoutY, 10), line(scoutX, 25)),
	}

	claims, err := NewAggregator(memory.NewAccountStore()).Aggregate(ctx, payouts)
	require.NoError(t, err)

	claimTotal := new(big.Int)
	seen := make(map[common.Address]bool)
	for _, c := range claims {
		require.False(t, seen[c.WalletAddress], "duplicate recipient %s", c.WalletAddress)
		seen[c.WalletAddress] = true
		claimTotal.Add(claimTotal, c.Amount)
	}

	receiptTotal := new(big.Int)
	for _, p := range payouts {
		for _, r := range p.Receipts {
			receiptTotal.Add(receiptTotal, r.Value)
		}
	}
	assert.Equal(t, 0, claimTotal.Cmp(receiptTotal))
}

func TestAggregate_OutputOrderedByWallet(t *testing.T) {
	ctx := context.Background()

	payouts := []*domain.BuilderPayout{
		payout("b1", line(scoutY, 5), line(builderW, 7), line(scoutX, 3)),
	}

	claims, err := NewAggregator(memory.NewAccountStore()).Aggregate(ctx, payouts)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, builderW, claims[0].WalletAddress)
	assert.Equal(t, scoutX, claims[1].WalletAddress)
	assert.Equal(t, scoutY, claims[2].WalletAddress)
}

func TestAggregate_ReusesExistingAccount(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	require.NoError(t, accounts.Insert(ctx, &domain.Account{ID: "acc-known", Wallet: scoutX, Handle: "alice"}))

	claims, err := NewAggregator(accounts).Aggregate(ctx, []*domain.BuilderPayout{
		payout("b1", line(builderW, 10), line(scoutX, 5)),
	})
	require.NoError(t, err)

	byWallet := make(map[common.Address]*domain.ProvableClaim)
	for _, c := range claims {
		byWallet[c.WalletAddress] = c
	}
	assert.Equal(t, "acc-known", byWallet[scoutX].AccountID)
	// builderW had no account: exactly one placeholder was provisioned.
	assert.Equal(t, 2, accounts.Len())
}

func TestAggregate_ProvisionsPlaceholderDeterministically(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()

	_, err := NewAggregator(accounts).Aggregate(ctx, []*domain.BuilderPayout{
		payout("b1", line(builderW, 10)),
	})
	require.NoError(t, err)

	provisioned, err := accounts.FindByWallet(ctx, builderW)
	require.NoError(t, err)
	assert.True(t, provisioned.Placeholder)
	assert.Equal(t, PlaceholderHandle(builderW), provisioned.Handle)

	// The handle is a pure function of the wallet.
	assert.Equal(t, PlaceholderHandle(builderW), PlaceholderHandle(builderW))
	assert.NotEqual(t, PlaceholderHandle(builderW), PlaceholderHandle(scoutX))
}

func TestAggregate_SkipsZeroLines(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()

	claims, err := NewAggregator(accounts).Aggregate(ctx, []*domain.BuilderPayout{
		payout("b1", line(builderW, 0), line(scoutX, 5)),
	})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, scoutX, claims[0].WalletAddress)
	// No account provisioned for the zero line.
	assert.Equal(t, 1, accounts.Len())
}

// failingAccountStore simulates a directory that cannot provision.
type failingAccountStore struct{}

func (failingAccountStore) FindByWallet(context.Context, common.Address) (*domain.Account, error) {
	return nil, storage.ErrNotFound
}

func (failingAccountStore) Insert(context.Context, *domain.Account) error {
	return assert.AnError
}

func TestAggregate_UnresolvableWalletFatal(t *testing.T) {
	ctx := context.Background()

	_, err := NewAggregator(failingAccountStore{}).Aggregate(ctx, []*domain.BuilderPayout{
		payout("b1", line(builderW, 10)),
	})
	assert.ErrorIs(t, err, ErrUnresolvableWallet)
}
