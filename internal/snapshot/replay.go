// Package snapshot reconstructs ownership-token balances as of a
// cutoff block by replaying the transfer log in emission order.
package snapshot

import (
	"errors"
	"fmt"

	"scout-settlement/internal/domain"
)

// ErrNegativeBalance is returned when replay would drive a balance
// below zero. This indicates out-of-order input or a missing mint
// event; replay fails loudly instead of clamping.
var ErrNegativeBalance = errors.New("replay produced negative balance")

// Replay folds ordered transfer events into an ownership snapshot.
// Events must be in emission order (ValidateTransferOrdering); replay
// rejects unordered input rather than sorting silently, so ordering
// bugs upstream surface here.
//
// Per event: a transfer from the zero address is a pure mint (credit
// only), a transfer to the zero address is a pure burn (debit only),
// anything else debits the sender and credits the receiver. Balances
// that reach exactly zero are removed from the snapshot.
func Replay(events []*domain.TransferEvent) (*domain.OwnershipSnapshot, error) {
	if err := ValidateTransferOrdering(events); err != nil {
		return nil, err
	}

	snap := domain.NewOwnershipSnapshot()
	for _, e := range events {
		if e.Amount.Sign() < 0 {
			return nil, fmt.Errorf("transfer %s[%d]: negative amount %s", e.TxHash, e.LogIndex, e.Amount)
		}

		if !e.IsMint() {
			if ok := snap.Debit(e.TokenID, e.From, e.Amount); !ok {
				return nil, fmt.Errorf("%w: token %s wallet %s at block %d log %d",
					ErrNegativeBalance, e.TokenID, e.From, e.BlockNumber, e.LogIndex)
			}
		}
		if !e.IsBurn() {
			snap.Credit(e.TokenID, e.To, e.Amount)
		}
	}

	return snap, nil
}
