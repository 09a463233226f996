// Package cutoff resolves a calendar week to its settlement cutoff
// block: the last chain block whose timestamp precedes the end of the
// week.
package cutoff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scout-settlement/internal/evm"
	"scout-settlement/internal/week"
)

// ErrNoBlockBeforeCutoff is returned when even the genesis block was
// produced after the cutoff instant.
var ErrNoBlockBeforeCutoff = errors.New("no block before cutoff")

// Resolver finds cutoff blocks via binary search over header
// timestamps.
type Resolver struct {
	reader evm.LogReader
}

// NewResolver creates a Resolver over the given chain reader.
func NewResolver(reader evm.LogReader) *Resolver {
	return &Resolver{reader: reader}
}

// BlockForWeekEnd returns the greatest block number whose timestamp is
// <= the final second of the week. If the chain has not yet produced a
// block past the cutoff, the latest available block is returned
// (best-effort, not an error). The result is deterministic for a fixed
// chain state.
func (r *Resolver) BlockForWeekEnd(ctx context.Context, w week.Week) (uint64, error) {
	return r.BlockBefore(ctx, w.End())
}

// BlockBefore returns the greatest block number with timestamp <= t.
func (r *Resolver) BlockBefore(ctx context.Context, t time.Time) (uint64, error) {
	cutoff := uint64(t.Unix())

	latest, err := r.reader.LatestBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block number: %w", err)
	}

	latestTS, err := r.reader.HeaderTimestamp(ctx, latest)
	if err != nil {
		return 0, fmt.Errorf("header timestamp %d: %w", latest, err)
	}
	if latestTS <= cutoff {
		// Chain has not reached the cutoff yet.
		return latest, nil
	}

	// Invariant: ts(lo) <= cutoff < ts(hi).
	lo, hi := uint64(0), latest
	loTS, err := r.reader.HeaderTimestamp(ctx, lo)
	if err != nil {
		return 0, fmt.Errorf("header timestamp %d: %w", lo, err)
	}
	if loTS > cutoff {
		return 0, fmt.Errorf("%w: genesis at %d, cutoff %d", ErrNoBlockBeforeCutoff, loTS, cutoff)
	}

	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		ts, err := r.reader.HeaderTimestamp(ctx, mid)
		if err != nil {
			return 0, fmt.Errorf("header timestamp %d: %w", mid, err)
		}
		if ts <= cutoff {
			lo = mid
		} else {
			hi = mid
		}
	}

	return lo, nil
}
