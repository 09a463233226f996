package cutoff

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout-settlement/internal/evm/stub"
	"scout-settlement/internal/week"
)

func TestBlockBefore_Boundary(t *testing.T) {
	ctx := context.Background()

	reader := stub.NewLogReader()
	// Blocks 0..999, one every 12s starting at t=1_000_000.
	reader.AddBlocks(0, 1000, 1_000_000, 12)

	// Cutoff exactly on block 500's timestamp.
	cutoffTime := time.Unix(1_000_000+500*12, 0)
	block, err := NewResolver(reader).BlockBefore(ctx, cutoffTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), block)

	// The resolved block is <= cutoff and the next block is > cutoff.
	ts, err := reader.HeaderTimestamp(ctx, block)
	require.NoError(t, err)
	assert.LessOrEqual(t, ts, uint64(cutoffTime.Unix()))

	nextTS, err := reader.HeaderTimestamp(ctx, block+1)
	require.NoError(t, err)
	assert.Greater(t, nextTS, uint64(cutoffTime.Unix()))
}

func TestBlockBefore_BetweenBlocks(t *testing.T) {
	ctx := context.Background()

	reader := stub.NewLogReader()
	reader.AddBlocks(0, 1000, 1_000_000, 12)

	// Cutoff lands mid-interval: still resolves to the earlier block.
	cutoffTime := time.Unix(1_000_000+500*12+5, 0)
	block, err := NewResolver(reader).BlockBefore(ctx, cutoffTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), block)
}

func TestBlockBefore_ChainBehindCutoff(t *testing.T) {
	ctx := context.Background()

	reader := stub.NewLogReader()
	reader.AddBlocks(0, 10, 1_000_000, 12)

	// Cutoff far in the future: best-effort latest block.
	block, err := NewResolver(reader).BlockBefore(ctx, time.Unix(9_999_999, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), block)
}

func TestBlockBefore_ChainStartedAfterCutoff(t *testing.T) {
	ctx := context.Background()

	reader := stub.NewLogReader()
	reader.AddBlocks(0, 10, 1_000_000, 12)

	_, err := NewResolver(reader).BlockBefore(ctx, time.Unix(999_999, 0))
	assert.ErrorIs(t, err, ErrNoBlockBeforeCutoff)
}

func TestBlockForWeekEnd(t *testing.T) {
	ctx := context.Background()

	w, err := week.Parse("2025-W31")
	require.NoError(t, err)
	weekEnd := uint64(w.End().Unix())

	reader := stub.NewLogReader()
	// Chain straddles the week boundary.
	reader.AddBlocks(0, 200, weekEnd-100*12, 12)

	block, err := NewResolver(reader).BlockForWeekEnd(ctx, w)
	require.NoError(t, err)

	ts, err := reader.HeaderTimestamp(ctx, block)
	require.NoError(t, err)
	assert.LessOrEqual(t, ts, weekEnd)

	nextTS, err := reader.HeaderTimestamp(ctx, block+1)
	require.NoError(t, err)
	assert.Greater(t, nextTS, weekEnd)
}

func TestBlockBefore_Deterministic(t *testing.T) {
	ctx := context.Background()

	reader := stub.NewLogReader()
	reader.AddBlocks(0, 5000, 1_000_000, 2)
	cutoffTime := time.Unix(1_004_321, 0)

	resolver := NewResolver(reader)
	first, err := resolver.BlockBefore(ctx, cutoffTime)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := resolver.BlockBefore(ctx, cutoffTime)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
