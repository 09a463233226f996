package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OwnershipSnapshot maps ownership-token id -> wallet -> balance as of
// a cutoff block. Balances are always positive: a wallet whose balance
// reaches zero is removed from the map. The snapshot is built once per
// settlement run and never mutated afterwards.
type OwnershipSnapshot struct {
	balances map[string]map[common.Address]*big.Int
}

// NewOwnershipSnapshot creates an empty snapshot.
func NewOwnershipSnapshot() *OwnershipSnapshot {
	return &OwnershipSnapshot{
		balances: make(map[string]map[common.Address]*big.Int),
	}
}

// tokenKey normalizes a token id for map keying.
func tokenKey(tokenID *big.Int) string {
	return tokenID.String()
}

// Credit adds amount to the wallet's balance for tokenID.
func (s *OwnershipSnapshot) Credit(tokenID *big.Int, wallet common.Address, amount *big.Int) {
	key := tokenKey(tokenID)
	owners, ok := s.balances[key]
	if !ok {
		owners = make(map[common.Address]*big.Int)
		s.balances[key] = owners
	}
	bal, ok := owners[wallet]
	if !ok {
		bal = new(big.Int)
		owners[wallet] = bal
	}
	bal.Add(bal, amount)
	if bal.Sign() == 0 {
		delete(owners, wallet)
	}
}

// Debit subtracts amount from the wallet's balance for tokenID.
// Returns false if the debit would leave a negative balance; the
// snapshot is left unchanged in that case.
func (s *OwnershipSnapshot) Debit(tokenID *big.Int, wallet common.Address, amount *big.Int) bool {
	key := tokenKey(tokenID)
	owners, ok := s.balances[key]
	if !ok {
		return amount.Sign() == 0
	}
	bal, ok := owners[wallet]
	if !ok {
		return amount.Sign() == 0
	}
	if bal.Cmp(amount) < 0 {
		return false
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		delete(owners, wallet)
	}
	return true
}

// Owners returns the wallet -> balance map for a token id, or nil if
// nobody holds the token. Callers must not mutate the result.
func (s *OwnershipSnapshot) Owners(tokenID *big.Int) map[common.Address]*big.Int {
	return s.balances[tokenKey(tokenID)]
}

// Balance returns the wallet's balance for tokenID (zero if unheld).
func (s *OwnershipSnapshot) Balance(tokenID *big.Int, wallet common.Address) *big.Int {
	if owners := s.balances[tokenKey(tokenID)]; owners != nil {
		if bal, ok := owners[wallet]; ok {
			return new(big.Int).Set(bal)
		}
	}
	return new(big.Int)
}

// TotalSupply returns the sum of all balances for a token id. This is
// the supply the allocator splits against: it only ever reflects
// wallets actually holding the asset at cutoff.
func (s *OwnershipSnapshot) TotalSupply(tokenID *big.Int) *big.Int {
	total := new(big.Int)
	for _, bal := range s.balances[tokenKey(tokenID)] {
		total.Add(total, bal)
	}
	return total
}

// TokenCount returns the number of distinct token ids with holders.
func (s *OwnershipSnapshot) TokenCount() int {
	return len(s.balances)
}
