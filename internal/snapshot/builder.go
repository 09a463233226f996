package snapshot

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/evm"
)

// Build fetches all transfers of the ownership-token contract in
// [fromBlock, toBlock], sorts them into emission order and replays
// them into a snapshot. fromBlock is the contract-deployment floor,
// toBlock the week's cutoff block.
func Build(ctx context.Context, reader evm.LogReader, contract common.Address, fromBlock, toBlock uint64) (*domain.OwnershipSnapshot, error) {
	events, err := reader.TransferEvents(ctx, contract, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("fetch transfer events: %w", err)
	}

	SortTransfers(events)

	snap, err := Replay(events)
	if err != nil {
		return nil, fmt.Errorf("replay %d transfers: %w", len(events), err)
	}
	return snap, nil
}
