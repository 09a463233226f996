package domain

import "github.com/ethereum/go-ethereum/common"

// Account is an entry of the account directory. Wallets with no known
// owner at aggregation time get a deterministic placeholder account so
// that every claim resolves to exactly one account.
type Account struct {
	ID          string // uuid
	Wallet      common.Address
	Handle      string // display handle, derived for placeholders
	Placeholder bool
}
