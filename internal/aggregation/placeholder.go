package aggregation

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"

	"scout-settlement/internal/domain"
)

// placeholderHandlePrefix marks directory entries provisioned for
// wallets with no known owner.
const placeholderHandlePrefix = "scout-"

// PlaceholderHandle derives the deterministic display handle for a
// provisioned wallet: "scout-" plus the first 8 characters of the
// base58-encoded keccak256 of the address.
func PlaceholderHandle(wallet common.Address) string {
	digest := crypto.Keccak256(wallet.Bytes())
	return placeholderHandlePrefix + base58.Encode(digest)[:8]
}

// NewPlaceholderAccount builds a fresh placeholder account for a
// wallet nobody has claimed yet.
func NewPlaceholderAccount(wallet common.Address) *domain.Account {
	return &domain.Account{
		ID:          uuid.NewString(),
		Wallet:      wallet,
		Handle:      PlaceholderHandle(wallet),
		Placeholder: true,
	}
}
