// Package settlement orchestrates one weekly settlement run:
// cutoff resolution → ownership snapshot → allocation → aggregation →
// Merkle commitment → persistence. Every stage before persistence is
// a pure function of its inputs; the persist phase holds the only
// side effects and the only idempotency guard.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"scout-settlement/internal/aggregation"
	"scout-settlement/internal/allocation"
	"scout-settlement/internal/cutoff"
	"scout-settlement/internal/domain"
	"scout-settlement/internal/evm"
	"scout-settlement/internal/merkle"
	"scout-settlement/internal/observability"
	"scout-settlement/internal/rankfeed"
	"scout-settlement/internal/registry"
	"scout-settlement/internal/snapshot"
	"scout-settlement/internal/storage"
	"scout-settlement/internal/week"
)

// Options for creating a Runner.
type Options struct {
	// External boundaries
	Reader   evm.LogReader
	Feed     rankfeed.Feed
	Registry registry.ClaimsRegistry

	// Stores
	Accounts    storage.AccountStore
	Bindings    storage.BindingStore
	Settlements storage.SettlementStore
	Archive     storage.ReceiptArchive // optional analytics sink

	// Chain parameters
	Contract    common.Address
	DeployBlock uint64 // contract-deployment floor for log fetching

	// Season parameters
	GenesisWeek week.Week

	// ManifestURI is the off-chain claim manifest location registered
	// alongside the root; "%s" is replaced with the week identifier.
	ManifestURI string

	// Curve overrides the allocation curve (defaults to the
	// score-proportional curve).
	Curve allocation.Curve

	// Workers bounds per-builder allocation concurrency.
	Workers int

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Runner executes settlement runs.
type Runner struct {
	opts    Options
	cutoff  *cutoff.Resolver
	agg     *aggregation.Aggregator
	log     *slog.Logger
	metrics *observability.Metrics
}

// New creates a Runner.
func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		opts:    opts,
		cutoff:  cutoff.NewResolver(opts.Reader),
		agg:     aggregation.NewAggregator(opts.Accounts),
		log:     logger,
		metrics: opts.Metrics,
	}
}

// RunResult summarizes one completed settlement run.
type RunResult struct {
	BatchID        string
	Week           string
	Season         int
	CutoffBlock    uint64
	Root           common.Hash
	Builders       int
	Claims         int
	Receipts       int
	TotalClaimable *big.Int
}

// Run settles one week. The run either completes fully or fails with
// nothing persisted; re-invoking after a failure is safe, and
// re-invoking after success fails fast with ErrAlreadySettled.
func (r *Runner) Run(ctx context.Context, w week.Week) (*RunResult, error) {
	started := time.Now()
	result, err := r.run(ctx, w)
	if r.metrics != nil {
		r.metrics.SettlementDuration.Observe(time.Since(started).Seconds())
		switch {
		case err == nil:
			r.metrics.SettlementRunsTotal.WithLabelValues("settled").Inc()
		case errors.Is(err, ErrAlreadySettled):
			r.metrics.SettlementRunsTotal.WithLabelValues("already_settled").Inc()
		default:
			r.metrics.SettlementRunsTotal.WithLabelValues("failed").Inc()
		}
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, w week.Week) (*RunResult, error) {
	weekID := w.String()
	season := week.SeasonOf(r.opts.GenesisWeek, w)
	log := r.log.With("week", weekID, "season", season)

	// Phase 0: idempotency precheck. The unique constraint on week in
	// the settlement store closes the race this check leaves open.
	if existing, err := r.opts.Settlements.GetBatchByWeek(ctx, weekID); err == nil {
		return nil, fmt.Errorf("%w: batch %s created %s", ErrAlreadySettled, existing.ID, existing.CreatedAt)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("precheck batch for %s: %w", weekID, err)
	}

	// Phase 1: resolve the cutoff block.
	done := r.timePhase("cutoff")
	cutoffBlock, err := r.cutoff.BlockForWeekEnd(ctx, w)
	done()
	if err != nil {
		return nil, fmt.Errorf("resolve cutoff block: %w", err)
	}
	log.Info("resolved cutoff block", "block", cutoffBlock)

	// Phase 2: reconstruct ownership as of the cutoff.
	done = r.timePhase("snapshot")
	snap, err := snapshot.Build(ctx, r.opts.Reader, r.opts.Contract, r.opts.DeployBlock, cutoffBlock)
	done()
	if err != nil {
		return nil, fmt.Errorf("build ownership snapshot: %w", err)
	}
	log.Info("reconstructed ownership", "tokens", snap.TokenCount())

	// Phase 3: fetch the ranked-builder feed and bindings.
	alloc, err := r.opts.Feed.WeeklyRankedBuilders(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("fetch ranked builders: %w", err)
	}
	bindings, err := r.opts.Bindings.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch builder token bindings: %w", err)
	}
	log.Info("fetched ranked builders", "builders", len(alloc.RankedBuilders), "pool", alloc.TotalPool)

	// Phase 4: per-builder allocation.
	done = r.timePhase("allocation")
	payouts, err := allocation.Allocate(ctx, allocation.Input{
		Week:       weekID,
		Season:     season,
		Allocation: alloc,
		Snapshot:   snap,
		Bindings:   bindings,
		Curve:      r.opts.Curve,
		Workers:    r.opts.Workers,
	})
	done()
	if err != nil {
		return nil, fmt.Errorf("allocate rewards: %w", err)
	}
	log.Info("allocated rewards", "paid_builders", len(payouts))

	// Phase 5: fold payouts into one claim per wallet.
	claims, err := r.agg.Aggregate(ctx, payouts)
	if err != nil {
		return nil, fmt.Errorf("aggregate claims: %w", err)
	}
	if len(claims) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingToSettle, weekID)
	}

	// Phase 6: Merkle commitment.
	tree, err := merkle.BuildTree(claims)
	if err != nil {
		return nil, fmt.Errorf("build merkle tree: %w", err)
	}
	for _, c := range claims {
		proof, ok := tree.ProofFor(c.WalletAddress)
		if !ok {
			return nil, fmt.Errorf("no merkle proof for wallet %s", c.WalletAddress)
		}
		c.Proof = proof
	}
	log.Info("committed claims", "claims", len(claims), "root", tree.Root())

	// Phase 7: persist.
	done = r.timePhase("persist")
	defer done()
	return r.persist(ctx, log, w, season, cutoffBlock, tree.Root(), payouts, claims)
}

// timePhase records a phase duration when metrics are enabled.
func (r *Runner) timePhase(phase string) func() {
	if r.metrics == nil {
		return func() {}
	}
	started := time.Now()
	return func() {
		r.metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
	}
}

// persist anchors the root on chain, then writes the batch with all
// events and receipts in a single transaction. All fatal errors occur
// before the transactional write, so a half-committed batch is never
// observable.
func (r *Runner) persist(
	ctx context.Context,
	log *slog.Logger,
	w week.Week,
	season int,
	cutoffBlock uint64,
	root common.Hash,
	payouts []*domain.BuilderPayout,
	claims []*domain.ProvableClaim,
) (*RunResult, error) {
	weekID := w.String()

	batch := &domain.SettlementBatch{
		ID:             uuid.NewString(),
		Week:           weekID,
		Season:         season,
		MerkleRoot:     root,
		TotalClaimable: new(big.Int),
		CreatedAt:      time.Now().UTC(),
	}

	events := make([]domain.SettlementEvent, 0, len(payouts))
	var receipts []domain.TokenReceipt
	receiptTotal := new(big.Int)
	for _, p := range payouts {
		event := p.Event
		event.BatchID = batch.ID
		events = append(events, event)
		for _, rc := range p.Receipts {
			receipts = append(receipts, rc)
			receiptTotal.Add(receiptTotal, rc.Value)
		}
	}
	for _, c := range claims {
		batch.TotalClaimable.Add(batch.TotalClaimable, c.Amount)
	}

	// Conservation is independently checkable; verify it before
	// anything irreversible happens.
	if batch.TotalClaimable.Cmp(receiptTotal) != 0 {
		return nil, fmt.Errorf("%w: claims %s receipts %s", ErrConservationViolated, batch.TotalClaimable, receiptTotal)
	}

	// Anchor the root before any database write.
	manifestURI := ""
	if r.opts.ManifestURI != "" {
		manifestURI = fmt.Sprintf(r.opts.ManifestURI, weekID)
	}
	rootParams := registry.RootParams{
		Week:       weekID,
		Root:       root,
		ValidUntil: week.ClaimValidUntil(r.opts.GenesisWeek, w),
		URI:        manifestURI,
	}
	txHash, err := r.opts.Registry.SetWeeklyMerkleRoot(ctx, rootParams)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RegistryErrors.Inc()
		}
		return nil, fmt.Errorf("register merkle root: %w", err)
	}
	log.Info("registered merkle root", "tx", txHash, "valid_until", rootParams.ValidUntil)

	// Funding failures never block record-keeping; funding is
	// retryable on its own.
	if fundTx, err := r.opts.Registry.FundClaimsPool(ctx); err != nil {
		if r.metrics != nil {
			r.metrics.FundingErrors.Inc()
		}
		log.Warn("claims pool funding failed, continuing", "error", err)
	} else {
		log.Info("claims pool funding triggered", "tx", fundTx)
	}

	if err := r.opts.Settlements.CreateBatch(ctx, batch, claims, events, receipts); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: lost creation race for %s", ErrAlreadySettled, weekID)
		}
		return nil, fmt.Errorf("persist settlement batch: %w", err)
	}

	if r.opts.Archive != nil {
		if err := r.opts.Archive.ArchiveReceipts(ctx, batch, receipts); err != nil {
			log.Warn("receipt archive write failed, continuing", "error", err)
		}
	}

	if r.metrics != nil {
		r.metrics.BuildersSettled.Add(float64(len(payouts)))
		r.metrics.ClaimsCommitted.Add(float64(len(claims)))
		r.metrics.ReceiptsWritten.Add(float64(len(receipts)))
	}

	log.Info("settlement persisted",
		"batch", batch.ID,
		"builders", len(payouts),
		"claims", len(claims),
		"receipts", len(receipts),
		"total", batch.TotalClaimable,
	)

	return &RunResult{
		BatchID:        batch.ID,
		Week:           weekID,
		Season:         season,
		CutoffBlock:    cutoffBlock,
		Root:           root,
		Builders:       len(payouts),
		Claims:         len(claims),
		Receipts:       len(receipts),
		TotalClaimable: batch.TotalClaimable,
	}, nil
}
