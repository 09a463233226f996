// Package allocation computes each ranked builder's weekly token
// share and splits it between the builder and the holders of the
// builder's ownership token.
//
// Rounding policy: every proportional cut is floored to integer token
// units and the whole remainder is assigned to the builder wallet, so
// the builder cut plus all holder cuts always equals the builder's
// gross share exactly.
package allocation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"scout-settlement/internal/domain"
)

// DefaultWorkers bounds concurrent per-builder allocation.
const DefaultWorkers = 8

// ErrMissingBinding is returned when a ranked builder has no
// builder/token binding. A builder without a binding has no payable
// wallet, which is an input-integrity failure, not a skip.
var ErrMissingBinding = errors.New("ranked builder has no token binding")

// Input carries everything one allocation run needs. All fields are
// read-only during the run; builders touch disjoint snapshot slices,
// so they are computed concurrently.
type Input struct {
	Week       string
	Season     int
	Allocation *domain.WeeklyAllocation
	Snapshot   *domain.OwnershipSnapshot
	Bindings   []domain.BuilderTokenBinding

	// Curve overrides the gross-share curve. Defaults to
	// ScoreShareCurve over Allocation.
	Curve Curve

	// Workers bounds allocation concurrency. Defaults to DefaultWorkers.
	Workers int
}

// Allocate computes payouts for every ranked builder with at least one
// recorded owner of its token. Builders with zero sales are skipped:
// they receive nothing and pay nothing. Output is ordered by rank.
func Allocate(ctx context.Context, in Input) ([]*domain.BuilderPayout, error) {
	bindings := make(map[string]domain.BuilderTokenBinding, len(in.Bindings))
	for _, b := range in.Bindings {
		bindings[b.BuilderID] = b
	}

	curve := in.Curve
	if curve == nil {
		curve = ScoreShareCurve(in.Allocation)
	}
	workers := in.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]*domain.BuilderPayout, len(in.Allocation.RankedBuilders))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, builder := range in.Allocation.RankedBuilders {
		g.Go(func() error {
			binding, ok := bindings[builder.BuilderID]
			if !ok {
				return fmt.Errorf("%w: builder %s rank %d", ErrMissingBinding, builder.BuilderID, builder.Rank)
			}

			owners := in.Snapshot.Owners(binding.TokenID)
			if len(owners) == 0 {
				// No sales, nothing to distribute.
				return nil
			}

			payout, err := allocateBuilder(builder, binding, owners, curve, in.Week, in.Season)
			if err != nil {
				return err
			}
			results[i] = payout
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payouts := make([]*domain.BuilderPayout, 0, len(results))
	for _, p := range results {
		if p != nil {
			payouts = append(payouts, p)
		}
	}
	return payouts, nil
}

// allocateBuilder splits one builder's gross share across its token
// holders in proportion to their balance share of the outstanding
// supply at cutoff.
func allocateBuilder(
	builder domain.RankedBuilder,
	binding domain.BuilderTokenBinding,
	owners map[common.Address]*big.Int,
	curve Curve,
	weekID string,
	season int,
) (*domain.BuilderPayout, error) {
	gross := curve(builder)
	if gross.Sign() < 0 {
		return nil, fmt.Errorf("curve returned negative gross %s for builder %s", gross, builder.BuilderID)
	}
	if gross.Sign() == 0 {
		return nil, nil
	}

	// Supply is the sum of snapshot balances, never an external
	// total-supply field: the split only references wallets actually
	// holding the token at cutoff.
	supply := new(big.Int)
	wallets := make([]common.Address, 0, len(owners))
	for wallet, bal := range owners {
		supply.Add(supply, bal)
		wallets = append(wallets, wallet)
	}
	sort.Slice(wallets, func(i, j int) bool {
		return bytes.Compare(wallets[i].Bytes(), wallets[j].Bytes()) < 0
	})

	distributed := new(big.Int)
	builderCut := new(big.Int)
	var holders []domain.PayoutLine

	for _, wallet := range wallets {
		cut := new(big.Int).Mul(gross, owners[wallet])
		cut.Quo(cut, supply)
		distributed.Add(distributed, cut)

		if wallet == binding.BuilderWallet {
			// The builder's own holding folds into the builder line.
			builderCut.Add(builderCut, cut)
			continue
		}
		if cut.Sign() > 0 {
			holders = append(holders, domain.PayoutLine{Wallet: wallet, Amount: cut})
		}
	}

	// Flooring remainder goes to the builder.
	builderCut.Add(builderCut, new(big.Int).Sub(gross, distributed))

	event := domain.SettlementEvent{
		ID:        uuid.NewString(),
		BuilderID: builder.BuilderID,
		Week:      weekID,
		Season:    season,
		Type:      domain.EventTypeWeeklyReward,
	}

	payout := &domain.BuilderPayout{
		BuilderID: builder.BuilderID,
		Rank:      builder.Rank,
		Gross:     gross,
		Builder:   domain.PayoutLine{Wallet: binding.BuilderWallet, Amount: builderCut},
		Holders:   holders,
		Event:     event,
	}

	if builderCut.Sign() > 0 {
		payout.Receipts = append(payout.Receipts, domain.TokenReceipt{
			ID:            uuid.NewString(),
			EventID:       event.ID,
			WalletAddress: binding.BuilderWallet,
			Value:         builderCut,
		})
	}
	for _, h := range holders {
		payout.Receipts = append(payout.Receipts, domain.TokenReceipt{
			ID:            uuid.NewString(),
			EventID:       event.ID,
			WalletAddress: h.Wallet,
			Value:         h.Amount,
		})
	}

	return payout, nil
}
