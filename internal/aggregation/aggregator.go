// Package aggregation folds all builder and holder payouts of one
// settlement run into a single claim per unique wallet. It runs after
// allocation completes and is deliberately single-threaded: this is
// the only place the pipeline accumulates across builders.
package aggregation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// ErrUnresolvableWallet is returned when a payout wallet can be
// neither found in nor provisioned into the account directory. A
// payout nobody owns is a fatal integrity failure, not a skip.
var ErrUnresolvableWallet = errors.New("payout wallet cannot be resolved to an account")

// Aggregator resolves payout wallets against the account directory
// and folds payouts into claims.
type Aggregator struct {
	accounts storage.AccountStore
}

// NewAggregator creates an Aggregator over the given directory.
func NewAggregator(accounts storage.AccountStore) *Aggregator {
	return &Aggregator{accounts: accounts}
}

// Aggregate resolves every payout wallet to an owning account,
// provisioning deterministic placeholder accounts for unknown
// wallets, then folds all payout lines into one ProvableClaim per
// wallet. The result is ordered by wallet address; the sum of claim
// amounts equals the sum of all receipt values.
func (a *Aggregator) Aggregate(ctx context.Context, payouts []*domain.BuilderPayout) ([]*domain.ProvableClaim, error) {
	totals := make(map[common.Address]*big.Int)
	accounts := make(map[common.Address]string)

	add := func(ctx context.Context, wallet common.Address, amount *big.Int) error {
		if amount.Sign() == 0 {
			return nil
		}
		if _, ok := accounts[wallet]; !ok {
			account, err := a.resolve(ctx, wallet)
			if err != nil {
				return err
			}
			accounts[wallet] = account.ID
			totals[wallet] = new(big.Int)
		}
		totals[wallet].Add(totals[wallet], amount)
		return nil
	}

	for _, p := range payouts {
		if err := add(ctx, p.Builder.Wallet, p.Builder.Amount); err != nil {
			return nil, err
		}
		for _, h := range p.Holders {
			if err := add(ctx, h.Wallet, h.Amount); err != nil {
				return nil, err
			}
		}
	}

	claims := make([]*domain.ProvableClaim, 0, len(totals))
	for wallet, amount := range totals {
		claims = append(claims, &domain.ProvableClaim{
			WalletAddress: wallet,
			AccountID:     accounts[wallet],
			Amount:        amount,
		})
	}
	sort.Slice(claims, func(i, j int) bool {
		return bytes.Compare(claims[i].WalletAddress.Bytes(), claims[j].WalletAddress.Bytes()) < 0
	})
	return claims, nil
}

// resolve finds the account owning a wallet, provisioning a
// placeholder when none exists.
func (a *Aggregator) resolve(ctx context.Context, wallet common.Address) (*domain.Account, error) {
	account, err := a.accounts.FindByWallet(ctx, wallet)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnresolvableWallet, wallet, err)
	}

	placeholder := NewPlaceholderAccount(wallet)
	if err := a.accounts.Insert(ctx, placeholder); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Provisioned concurrently; the existing account wins.
			return a.accounts.FindByWallet(ctx, wallet)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnresolvableWallet, wallet, err)
	}
	return placeholder, nil
}
