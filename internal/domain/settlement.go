package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SettlementEventType classifies the settlement event that produced a
// group of receipts.
type SettlementEventType string

const (
	// EventTypeWeeklyReward is the regular weekly builder payout.
	EventTypeWeeklyReward SettlementEventType = "WEEKLY_REWARD"
)

// String returns the string representation of the event type.
func (t SettlementEventType) String() string {
	return string(t)
}

// PayoutLine is one wallet's cut of a builder's gross share.
type PayoutLine struct {
	Wallet common.Address
	Amount *big.Int
}

// BuilderPayout is the allocator output for one ranked builder: the
// builder's own cut, every holder's cut, and the audit trail rows
// tying each cut to the settlement event that produced it.
type BuilderPayout struct {
	BuilderID string
	Rank      int
	Gross     *big.Int
	Builder   PayoutLine
	Holders   []PayoutLine
	Event     SettlementEvent
	Receipts  []TokenReceipt
}

// SettlementEvent groups one builder's receipts for one settlement
// run. Corresponds to the settlement_events table.
type SettlementEvent struct {
	ID        string // uuid
	BuilderID string
	Week      string
	Season    int
	Type      SettlementEventType
	BatchID   string
}

// TokenReceipt is one audit-trail line item: a slice of a claim tied
// to the settlement event that produced it. Many receipts may point at
// the same wallet; their per-wallet sum must equal that wallet's
// ProvableClaim amount.
type TokenReceipt struct {
	ID            string // uuid
	EventID       string
	WalletAddress common.Address
	Value         *big.Int
}

// ProvableClaim is one wallet's aggregated, Merkle-committed claim.
// Wallet addresses are unique across a batch and amounts are positive.
type ProvableClaim struct {
	WalletAddress common.Address
	AccountID     string
	Amount        *big.Int
	Proof         []common.Hash // sibling path, leaf to root
}

// SettlementBatch is the persisted, immutable result of one
// settlement run. Created exactly once per week.
type SettlementBatch struct {
	ID             string // uuid
	Week           string
	Season         int
	MerkleRoot     common.Hash
	TotalClaimable *big.Int
	CreatedAt      time.Time
}
