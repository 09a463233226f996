// Package stub provides an in-memory rankfeed.Feed for testing.
package stub

import (
	"context"
	"errors"

	"scout-settlement/internal/domain"
)

// ErrWeekNotFound is returned when no payload is registered.
var ErrWeekNotFound = errors.New("week not found")

// Feed implements rankfeed.Feed over fixed payloads.
type Feed struct {
	Allocations map[string]*domain.WeeklyAllocation
}

// NewFeed creates an empty stub feed.
func NewFeed() *Feed {
	return &Feed{Allocations: make(map[string]*domain.WeeklyAllocation)}
}

// WeeklyRankedBuilders returns the registered payload for a week.
func (f *Feed) WeeklyRankedBuilders(_ context.Context, week string) (*domain.WeeklyAllocation, error) {
	alloc, ok := f.Allocations[week]
	if !ok {
		return nil, ErrWeekNotFound
	}
	return alloc, nil
}
