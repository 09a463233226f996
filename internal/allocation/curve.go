package allocation

import (
	"math/big"

	"scout-settlement/internal/domain"
)

// Curve maps one ranked builder to its gross token share of the
// weekly pool. The curve is injected so payout tiering stays external
// to the allocator; ScoreShareCurve is the default.
type Curve func(builder domain.RankedBuilder) *big.Int

// ScoreShareCurve returns the activity-score-proportional curve:
//
//	gross(b) = floor(pool * score(b) / totalScore * normalizationFactor)
//
// computed entirely in integer/rational arithmetic. A nil or zero
// normalization factor is treated as 1.
func ScoreShareCurve(alloc *domain.WeeklyAllocation) Curve {
	totalScore := int64(0)
	for _, b := range alloc.RankedBuilders {
		totalScore += b.ActivityScore
	}

	norm := alloc.NormalizationFactor
	if norm == nil || norm.Sign() == 0 {
		norm = big.NewRat(1, 1)
	}

	return func(builder domain.RankedBuilder) *big.Int {
		if totalScore == 0 || builder.ActivityScore <= 0 {
			return new(big.Int)
		}

		// pool * score * norm / totalScore, floored.
		gross := new(big.Rat).SetInt(alloc.TotalPool)
		gross.Mul(gross, new(big.Rat).SetInt64(builder.ActivityScore))
		gross.Mul(gross, norm)
		gross.Quo(gross, new(big.Rat).SetInt64(totalScore))
		return new(big.Int).Quo(gross.Num(), gross.Denom())
	}
}
