// Package merkle commits an aggregated claim set to a single root
// hash and derives per-wallet inclusion proofs.
//
// Leaves are keccak256(wallet ‖ uint256 amount), ordered by wallet
// address so identical claim sets always produce identical roots.
// Sibling pairs are sorted before hashing and an odd trailing node is
// promoted unchanged, matching the hashing scheme of on-chain
// MerkleProof verifiers, so a proof is just the ordered sibling path.
package merkle

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"scout-settlement/internal/domain"
)

// Tree construction errors.
var (
	// ErrNoClaims is returned when building a tree over an empty set.
	ErrNoClaims = errors.New("no claims to commit")

	// ErrDuplicateWallet is returned when two claims share a wallet.
	ErrDuplicateWallet = errors.New("duplicate wallet in claim set")

	// ErrNonPositiveAmount is returned for zero or negative claims.
	ErrNonPositiveAmount = errors.New("claim amount must be positive")
)

// Tree is an immutable Merkle tree over a claim set.
type Tree struct {
	levels [][]common.Hash // levels[0] = leaves, last level = root
	index  map[common.Address]int
}

// leafHash computes the canonical leaf encoding of one claim:
// keccak256(20-byte wallet ‖ 32-byte big-endian amount).
func leafHash(c *domain.ProvableClaim) common.Hash {
	amount := common.LeftPadBytes(c.Amount.Bytes(), 32)
	return crypto.Keccak256Hash(c.WalletAddress.Bytes(), amount)
}

// hashPair hashes two nodes with the lesser one first.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

// BuildTree constructs the tree for a claim set. The input order is
// irrelevant: claims are sorted by wallet address before hashing.
func BuildTree(claims []*domain.ProvableClaim) (*Tree, error) {
	if len(claims) == 0 {
		return nil, ErrNoClaims
	}

	ordered := make([]*domain.ProvableClaim, len(claims))
	copy(ordered, claims)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].WalletAddress.Bytes(), ordered[j].WalletAddress.Bytes()) < 0
	})

	index := make(map[common.Address]int, len(ordered))
	leaves := make([]common.Hash, len(ordered))
	for i, c := range ordered {
		if c.Amount == nil || c.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: wallet %s", ErrNonPositiveAmount, c.WalletAddress)
		}
		if _, seen := index[c.WalletAddress]; seen {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWallet, c.WalletAddress)
		}
		index[c.WalletAddress] = i
		leaves[i] = leafHash(c)
	}

	levels := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// Odd trailing node moves up unchanged.
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels, index: index}, nil
}

// Root returns the tree's root hash.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// ProofFor returns the ordered sibling path for a wallet's leaf.
// Returns false if the wallet has no leaf in the tree.
func (t *Tree) ProofFor(wallet common.Address) ([]common.Hash, bool) {
	idx, ok := t.index[wallet]
	if !ok {
		return nil, false
	}

	var proof []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}
	return proof, true
}

// Verify checks a single claim against a root using only the claim
// and its proof.
func Verify(root common.Hash, claim *domain.ProvableClaim, proof []common.Hash) bool {
	if claim.Amount == nil || claim.Amount.Sign() <= 0 {
		return false
	}
	h := leafHash(claim)
	for _, sibling := range proof {
		h = hashPair(h, sibling)
	}
	return h == root
}
