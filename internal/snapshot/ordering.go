package snapshot

import (
	"errors"
	"sort"

	"scout-settlement/internal/domain"
)

// ErrInvalidOrdering is returned when transfer events are not in
// emission order.
var ErrInvalidOrdering = errors.New("transfer events are not in emission order")

// SortTransfers orders events by (block number ASC, log index ASC).
// This is the chain's emission order; replaying in any other order can
// produce negative or incorrect balances.
func SortTransfers(events []*domain.TransferEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareTransfers(events[i], events[j]) < 0
	})
}

// ValidateTransferOrdering checks that events are in emission order.
// Returns ErrInvalidOrdering if not. Equal positions are allowed:
// a batch transfer flattens into several rows sharing one log index.
func ValidateTransferOrdering(events []*domain.TransferEvent) error {
	for i := 1; i < len(events); i++ {
		if compareTransfers(events[i-1], events[i]) > 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareTransfers returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block number ASC, log index ASC)
func compareTransfers(a, b *domain.TransferEvent) int {
	if a.BlockNumber != b.BlockNumber {
		if a.BlockNumber < b.BlockNumber {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}
