package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"scout-settlement/internal/domain"
)

// ERC-1155 event signatures.
var (
	// TransferSingleTopic is keccak256("TransferSingle(address,address,address,uint256,uint256)").
	TransferSingleTopic = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))

	// TransferBatchTopic is keccak256("TransferBatch(address,address,address,uint256[],uint256[])").
	TransferBatchTopic = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
)

// Non-indexed data layouts for the two transfer events.
var (
	uint256Type, _      = abi.NewType("uint256", "", nil)
	uint256ArrayType, _ = abi.NewType("uint256[]", "", nil)

	transferSingleArgs = abi.Arguments{
		{Name: "id", Type: uint256Type},
		{Name: "value", Type: uint256Type},
	}
	transferBatchArgs = abi.Arguments{
		{Name: "ids", Type: uint256ArrayType},
		{Name: "values", Type: uint256ArrayType},
	}
)

// DecodeTransferLog decodes one ERC-1155 transfer log into normalized
// per-token transfer events. A TransferSingle yields one event; a
// TransferBatch yields one event per id. Logs with any other topic are
// rejected.
func DecodeTransferLog(lg *types.Log) ([]*domain.TransferEvent, error) {
	if len(lg.Topics) != 4 {
		return nil, fmt.Errorf("transfer log %s[%d]: expected 4 topics, got %d",
			lg.TxHash, lg.Index, len(lg.Topics))
	}

	// topics: [signature, operator, from, to]
	from := common.BytesToAddress(lg.Topics[2].Bytes())
	to := common.BytesToAddress(lg.Topics[3].Bytes())

	switch lg.Topics[0] {
	case TransferSingleTopic:
		vals, err := transferSingleArgs.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("decode TransferSingle %s[%d]: %w", lg.TxHash, lg.Index, err)
		}
		return []*domain.TransferEvent{{
			From:        from,
			To:          to,
			TokenID:     vals[0].(*big.Int),
			Amount:      vals[1].(*big.Int),
			BlockNumber: lg.BlockNumber,
			LogIndex:    lg.Index,
			TxHash:      lg.TxHash,
		}}, nil

	case TransferBatchTopic:
		vals, err := transferBatchArgs.Unpack(lg.Data)
		if err != nil {
			return nil, fmt.Errorf("decode TransferBatch %s[%d]: %w", lg.TxHash, lg.Index, err)
		}
		ids := vals[0].([]*big.Int)
		amounts := vals[1].([]*big.Int)
		if len(ids) != len(amounts) {
			return nil, fmt.Errorf("decode TransferBatch %s[%d]: %d ids vs %d values",
				lg.TxHash, lg.Index, len(ids), len(amounts))
		}
		events := make([]*domain.TransferEvent, 0, len(ids))
		for i := range ids {
			events = append(events, &domain.TransferEvent{
				From:        from,
				To:          to,
				TokenID:     ids[i],
				Amount:      amounts[i],
				BlockNumber: lg.BlockNumber,
				LogIndex:    lg.Index,
				TxHash:      lg.TxHash,
			})
		}
		return events, nil

	default:
		return nil, fmt.Errorf("transfer log %s[%d]: unknown topic %s", lg.TxHash, lg.Index, lg.Topics[0])
	}
}
