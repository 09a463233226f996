// Package rankfeed provides the ranked-builder feed boundary. Ranks
// and activity scores are computed upstream; settlement only consumes
// the weekly payload.
package rankfeed

import (
	"context"

	"scout-settlement/internal/domain"
)

// Feed supplies one week's ranked builders and pool parameters.
type Feed interface {
	// WeeklyRankedBuilders returns the allocation payload for a week.
	WeeklyRankedBuilders(ctx context.Context, week string) (*domain.WeeklyAllocation, error)
}
