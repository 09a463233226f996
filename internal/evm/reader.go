// Package evm provides the chain boundary for settlement: fetching
// and decoding ERC-1155 ownership-token transfers and resolving block
// timestamps. The pipeline depends only on the LogReader interface so
// tests can substitute the deterministic stub.
package evm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
)

// LogReader reads transfer logs and block metadata from a chain.
type LogReader interface {
	// TransferEvents returns all single- and batch-transfer events
	// emitted by the contract in [fromBlock, toBlock], normalized to
	// one TransferEvent per token id. Order is not guaranteed; callers
	// sort before replay.
	TransferEvents(ctx context.Context, contract common.Address, fromBlock, toBlock uint64) ([]*domain.TransferEvent, error)

	// HeaderTimestamp returns the unix timestamp of a block header.
	HeaderTimestamp(ctx context.Context, number uint64) (uint64, error)

	// LatestBlockNumber returns the chain head block number.
	LatestBlockNumber(ctx context.Context) (uint64, error)
}
