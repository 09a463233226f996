// Package registry provides the on-chain claims registry boundary:
// anchoring a settlement's Merkle root and topping up the claims pool.
package registry

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RootParams parameterizes one weekly root registration.
type RootParams struct {
	Week       string
	Root       common.Hash
	ValidUntil time.Time // claim-window expiry, season end + grace
	URI        string    // off-chain pointer to the claim manifest
}

// ClaimsRegistry anchors settlement roots on chain. Both calls are
// side effects on an external system; SetWeeklyMerkleRoot failures
// abort a settlement run, FundClaimsPool failures do not.
type ClaimsRegistry interface {
	// SetWeeklyMerkleRoot registers a week's root with its validity
	// window. Returns the transaction hash.
	SetWeeklyMerkleRoot(ctx context.Context, p RootParams) (common.Hash, error)

	// FundClaimsPool triggers replenishment of the contract's payable
	// balance from the funding stream. Returns the transaction hash.
	FundClaimsPool(ctx context.Context) (common.Hash, error)
}
