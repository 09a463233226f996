// Package stub provides an in-memory evm.LogReader for testing.
package stub

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
)

// ErrBlockNotFound is returned when a block number is unknown.
var ErrBlockNotFound = errors.New("block not found")

// LogReader implements evm.LogReader over fixed in-memory data.
// Blocks maps block number to unix timestamp; Events holds all
// transfer events keyed by contract address.
type LogReader struct {
	Blocks map[uint64]uint64
	Events map[common.Address][]*domain.TransferEvent

	// FailTransferEvents forces TransferEvents to fail, for testing
	// fatal I/O propagation.
	FailTransferEvents error
}

// NewLogReader creates an empty stub reader.
func NewLogReader() *LogReader {
	return &LogReader{
		Blocks: make(map[uint64]uint64),
		Events: make(map[common.Address][]*domain.TransferEvent),
	}
}

// AddBlocks registers consecutive blocks starting at first, one every
// interval seconds beginning at startTime.
func (r *LogReader) AddBlocks(first, count, startTime, interval uint64) {
	for i := uint64(0); i < count; i++ {
		r.Blocks[first+i] = startTime + i*interval
	}
}

// TransferEvents returns the stored events for the contract within
// the block range.
func (r *LogReader) TransferEvents(_ context.Context, contract common.Address, fromBlock, toBlock uint64) ([]*domain.TransferEvent, error) {
	if r.FailTransferEvents != nil {
		return nil, r.FailTransferEvents
	}
	var events []*domain.TransferEvent
	for _, e := range r.Events[contract] {
		if e.BlockNumber >= fromBlock && e.BlockNumber <= toBlock {
			events = append(events, e)
		}
	}
	return events, nil
}

// HeaderTimestamp returns the stored timestamp for a block number.
func (r *LogReader) HeaderTimestamp(_ context.Context, number uint64) (uint64, error) {
	ts, ok := r.Blocks[number]
	if !ok {
		return 0, ErrBlockNotFound
	}
	return ts, nil
}

// LatestBlockNumber returns the highest stored block number.
func (r *LogReader) LatestBlockNumber(_ context.Context) (uint64, error) {
	var latest uint64
	found := false
	for n := range r.Blocks {
		if !found || n > latest {
			latest = n
			found = true
		}
	}
	if !found {
		return 0, ErrBlockNotFound
	}
	return latest, nil
}
