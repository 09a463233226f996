package rankfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"scout-settlement/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Feed over an HTTP JSON endpoint:
// GET {base}/weeks/{week}/ranked-builders.
type HTTPClient struct {
	base        string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a feed client for a base URL.
func NewHTTPClient(base string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		base:        base,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Feed = (*HTTPClient)(nil)

// Wire types. Token amounts travel as decimal strings; the
// normalization factor as a big.Rat-parseable string ("1/10", "0.1").
type allocationResponse struct {
	Week                string                  `json:"week"`
	TotalPool           string                  `json:"totalPool"`
	NormalizationFactor string                  `json:"normalizationFactor"`
	RankedBuilders      []rankedBuilderResponse `json:"rankedBuilders"`
}

type rankedBuilderResponse struct {
	BuilderID     string `json:"builderId"`
	Rank          int    `json:"rank"`
	ActivityScore int64  `json:"activityScore"`
}

// WeeklyRankedBuilders fetches and decodes the weekly payload with
// retries and exponential backoff on transient failures.
func (c *HTTPClient) WeeklyRankedBuilders(ctx context.Context, week string) (*domain.WeeklyAllocation, error) {
	endpoint := fmt.Sprintf("%s/weeks/%s/ranked-builders", c.base, url.PathEscape(week))

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			// Client errors are not retried.
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var decoded allocationResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("unmarshal ranked builders: %w", err)
		}
		return decodeAllocation(&decoded)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// decodeAllocation validates and converts the wire payload.
func decodeAllocation(resp *allocationResponse) (*domain.WeeklyAllocation, error) {
	pool, ok := new(big.Int).SetString(resp.TotalPool, 10)
	if !ok {
		return nil, fmt.Errorf("invalid total pool %q", resp.TotalPool)
	}

	norm := big.NewRat(1, 1)
	if resp.NormalizationFactor != "" {
		norm, ok = new(big.Rat).SetString(resp.NormalizationFactor)
		if !ok {
			return nil, fmt.Errorf("invalid normalization factor %q", resp.NormalizationFactor)
		}
	}

	alloc := &domain.WeeklyAllocation{
		Week:                resp.Week,
		TotalPool:           pool,
		NormalizationFactor: norm,
	}
	for _, b := range resp.RankedBuilders {
		alloc.RankedBuilders = append(alloc.RankedBuilders, domain.RankedBuilder{
			BuilderID:     b.BuilderID,
			Rank:          b.Rank,
			ActivityScore: b.ActivityScore,
		})
	}
	return alloc, nil
}
