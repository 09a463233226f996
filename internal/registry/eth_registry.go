package registry

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// registryABI is the minimal surface of the claims registry contract.
const registryABI = `[
	{"type":"function","name":"setWeeklyMerkleRoot","inputs":[
		{"name":"week","type":"string"},
		{"name":"root","type":"bytes32"},
		{"name":"validUntil","type":"uint256"},
		{"name":"uri","type":"string"}
	],"outputs":[]},
	{"type":"function","name":"fundClaimsPool","inputs":[],"outputs":[]}
]`

// EthRegistry implements ClaimsRegistry against a deployed registry
// contract, signing transactions with a local key.
type EthRegistry struct {
	eth      *ethclient.Client
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	abi      abi.ABI
}

// NewEthRegistry creates a registry client. keyHex is the signer's
// private key in hex (no 0x prefix).
func NewEthRegistry(ctx context.Context, eth *ethclient.Client, contract common.Address, keyHex string) (*EthRegistry, error) {
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("parse registry signer key: %w", err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}

	return &EthRegistry{
		eth:      eth,
		contract: contract,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		abi:      parsed,
	}, nil
}

// Compile-time interface check.
var _ ClaimsRegistry = (*EthRegistry)(nil)

// SetWeeklyMerkleRoot registers a week's root on chain.
func (r *EthRegistry) SetWeeklyMerkleRoot(ctx context.Context, p RootParams) (common.Hash, error) {
	calldata, err := r.abi.Pack("setWeeklyMerkleRoot",
		p.Week,
		[32]byte(p.Root),
		big.NewInt(p.ValidUntil.Unix()),
		p.URI,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack setWeeklyMerkleRoot: %w", err)
	}
	return r.send(ctx, calldata)
}

// FundClaimsPool triggers replenishment of the claims pool.
func (r *EthRegistry) FundClaimsPool(ctx context.Context) (common.Hash, error) {
	calldata, err := r.abi.Pack("fundClaimsPool")
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack fundClaimsPool: %w", err)
	}
	return r.send(ctx, calldata)
}

// send signs and submits a contract call transaction.
func (r *EthRegistry) send(ctx context.Context, calldata []byte) (common.Hash, error) {
	nonce, err := r.eth.PendingNonceAt(ctx, r.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := r.eth.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := r.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: r.from,
		To:   &r.contract,
		Data: calldata,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &r.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     calldata,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(r.chainID), r.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}

	if err := r.eth.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash(), nil
}
