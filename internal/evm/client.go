package evm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"scout-settlement/internal/domain"
)

// Default configuration values.
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultChunkSize    = 10_000 // blocks per eth_getLogs call
	DefaultFetchWorkers = 4
)

// Client implements LogReader over an Ethereum JSON-RPC endpoint.
// Transient failures are retried with exponential backoff; exhausted
// retries propagate as errors so the settlement run aborts instead of
// silently substituting data.
type Client struct {
	eth          *ethclient.Client
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	chunkSize    uint64
	fetchWorkers int
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithMaxRetries sets maximum retry attempts per RPC call.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets the maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithChunkSize sets the block-range width per eth_getLogs call.
func WithChunkSize(n uint64) ClientOption {
	return func(c *Client) {
		c.chunkSize = n
	}
}

// WithFetchWorkers sets the number of concurrent log-fetch workers.
func WithFetchWorkers(n int) ClientOption {
	return func(c *Client) {
		c.fetchWorkers = n
	}
}

// Dial connects to an Ethereum JSON-RPC endpoint.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum endpoint: %w", err)
	}
	return NewClient(eth, opts...), nil
}

// NewClient wraps an existing ethclient connection.
func NewClient(eth *ethclient.Client, opts ...ClientOption) *Client {
	c := &Client{
		eth:          eth,
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		chunkSize:    DefaultChunkSize,
		fetchWorkers: DefaultFetchWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ LogReader = (*Client)(nil)

// Close closes the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// Eth exposes the underlying ethclient connection for callers that
// need to send transactions over the same endpoint.
func (c *Client) Eth() *ethclient.Client {
	return c.eth
}

// withRetry runs fn with exponential backoff on failure.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// LatestBlockNumber returns the chain head block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.withRetry(ctx, func() error {
		n, err := c.eth.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("eth_blockNumber: %w", err)
		}
		number = n
		return nil
	})
	return number, err
}

// HeaderTimestamp returns the unix timestamp of a block header.
func (c *Client) HeaderTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var ts uint64
	err := c.withRetry(ctx, func() error {
		header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		if err != nil {
			return fmt.Errorf("header by number %d: %w", number, err)
		}
		ts = header.Time
		return nil
	})
	return ts, err
}

// TransferEvents fetches and decodes all ERC-1155 transfer logs in
// [fromBlock, toBlock], chunked to respect provider range limits and
// fetched with bounded concurrency.
func (c *Client) TransferEvents(ctx context.Context, contract common.Address, fromBlock, toBlock uint64) ([]*domain.TransferEvent, error) {
	if fromBlock > toBlock {
		return nil, nil
	}

	type chunk struct {
		from, to uint64
	}
	var chunks []chunk
	for from := fromBlock; from <= toBlock; from += c.chunkSize {
		to := from + c.chunkSize - 1
		if to > toBlock {
			to = toBlock
		}
		chunks = append(chunks, chunk{from: from, to: to})
	}

	results := make([][]*domain.TransferEvent, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchWorkers)

	for i, ch := range chunks {
		g.Go(func() error {
			events, err := c.fetchChunk(gctx, contract, ch.from, ch.to)
			if err != nil {
				return err
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []*domain.TransferEvent
	for _, r := range results {
		events = append(events, r...)
	}
	return events, nil
}

// fetchChunk fetches one block range of transfer logs.
func (c *Client) fetchChunk(ctx context.Context, contract common.Address, fromBlock, toBlock uint64) ([]*domain.TransferEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{contract},
		Topics:    [][]common.Hash{{TransferSingleTopic, TransferBatchTopic}},
	}

	var events []*domain.TransferEvent
	err := c.withRetry(ctx, func() error {
		logs, err := c.eth.FilterLogs(ctx, query)
		if err != nil {
			return fmt.Errorf("filter logs [%d, %d]: %w", fromBlock, toBlock, err)
		}
		events = events[:0]
		for i := range logs {
			decoded, err := DecodeTransferLog(&logs[i])
			if err != nil {
				return err
			}
			events = append(events, decoded...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
