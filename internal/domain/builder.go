package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RankedBuilder is one entry of the weekly ranked-builder feed.
// Rank is 1-based and unique within a week.
type RankedBuilder struct {
	BuilderID     string
	Rank          int
	ActivityScore int64 // gem count for the week, computed upstream
}

// WeeklyAllocation is the ranked-builder feed payload for one week:
// the total reward pool, the normalization factor applied to every
// builder's gross share, and the ranked builders themselves.
type WeeklyAllocation struct {
	Week                string
	TotalPool           *big.Int
	NormalizationFactor *big.Rat // exact rational, never a float
	RankedBuilders      []RankedBuilder
}

// BuilderTokenBinding maps a builder to the ownership-token id that
// represents claims on that builder's output, and to the wallet that
// receives the builder's own cut. Exactly one binding exists per
// builder per settlement contract.
type BuilderTokenBinding struct {
	BuilderID     string
	TokenID       *big.Int
	BuilderWallet common.Address
}
