// Package stub provides an in-memory registry.ClaimsRegistry for
// testing.
package stub

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"scout-settlement/internal/registry"
)

// ClaimsRegistry implements registry.ClaimsRegistry, recording calls.
type ClaimsRegistry struct {
	mu sync.Mutex

	Roots     []registry.RootParams
	FundCalls int

	// FailSetRoot forces SetWeeklyMerkleRoot to fail.
	FailSetRoot error
	// FailFund forces FundClaimsPool to fail.
	FailFund error
}

// NewClaimsRegistry creates an empty stub registry.
func NewClaimsRegistry() *ClaimsRegistry {
	return &ClaimsRegistry{}
}

// SetWeeklyMerkleRoot records the registration.
func (r *ClaimsRegistry) SetWeeklyMerkleRoot(_ context.Context, p registry.RootParams) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailSetRoot != nil {
		return common.Hash{}, r.FailSetRoot
	}
	r.Roots = append(r.Roots, p)
	return crypto.Keccak256Hash([]byte("set-root"), []byte(p.Week)), nil
}

// FundClaimsPool records the funding call.
func (r *ClaimsRegistry) FundClaimsPool(context.Context) (common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailFund != nil {
		return common.Hash{}, r.FailFund
	}
	r.FundCalls++
	return crypto.Keccak256Hash([]byte("fund")), nil
}
