package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the mint/burn sentinel used by ERC-1155 transfers.
var ZeroAddress = common.Address{}

// TransferEvent represents one normalized ownership-token transfer.
// Batch transfers are flattened into one TransferEvent per token id,
// so replay only ever sees this shape.
type TransferEvent struct {
	From        common.Address // zero address for mints
	To          common.Address // zero address for burns
	TokenID     *big.Int       // ownership-token id
	Amount      *big.Int       // transferred units, non-negative
	BlockNumber uint64
	LogIndex    uint // log position within the block
	TxHash      common.Hash
}

// IsMint reports whether the event credits tokens out of thin air.
func (e *TransferEvent) IsMint() bool {
	return e.From == ZeroAddress
}

// IsBurn reports whether the event destroys tokens.
func (e *TransferEvent) IsBurn() bool {
	return e.To == ZeroAddress
}
