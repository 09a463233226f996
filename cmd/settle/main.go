// Command settle runs one weekly settlement: it resolves the cutoff
// block, reconstructs token ownership, allocates the weekly pool,
// commits the claims to a Merkle root on chain and persists the batch.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"scout-settlement/internal/evm"
	"scout-settlement/internal/observability"
	"scout-settlement/internal/rankfeed"
	"scout-settlement/internal/registry"
	"scout-settlement/internal/settlement"
	"scout-settlement/internal/storage"
	"scout-settlement/internal/storage/clickhouse"
	"scout-settlement/internal/storage/memory"
	"scout-settlement/internal/storage/migrations"
	pgstore "scout-settlement/internal/storage/postgres"
	"scout-settlement/internal/week"
)

func main() {
	// .env is optional; real deployments pass flags or environment.
	_ = godotenv.Load()

	weekFlag := pflag.String("week", "", "ISO week to settle, e.g. 2025-W31 (default: previous week)")
	rpcEndpoint := pflag.String("rpc-endpoint", envOr("RPC_ENDPOINT", ""), "EVM JSON-RPC endpoint")
	contractHex := pflag.String("contract", envOr("TOKEN_CONTRACT", ""), "Ownership token contract address")
	deployBlock := pflag.Uint64("deploy-block", 0, "Block the token contract was deployed at")
	genesisWeek := pflag.String("genesis-week", envOr("GENESIS_WEEK", ""), "Genesis ISO week anchoring season numbering")
	feedURL := pflag.String("feed-url", envOr("RANK_FEED_URL", ""), "Ranked-builder feed base URL")
	registryHex := pflag.String("registry", envOr("CLAIMS_REGISTRY", ""), "Claims registry contract address")
	registryKey := pflag.String("registry-key", envOr("REGISTRY_KEY", ""), "Hex private key signing registry transactions")
	postgresDSN := pflag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL connection string")
	clickhouseDSN := pflag.String("clickhouse-dsn", envOr("CLICKHOUSE_DSN", ""), "ClickHouse connection string (empty to skip archiving)")
	manifestURI := pflag.String("manifest-uri", envOr("MANIFEST_URI", ""), "Claim manifest URI template, %s replaced with the week")
	useMemory := pflag.Bool("use-memory", false, "Use in-memory stores and skip on-chain anchoring (dry run)")
	workers := pflag.Int("workers", 0, "Per-builder allocation concurrency (0 for default)")
	metricsAddr := pflag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	logger := newLogger(*logLevel)

	w, err := resolveWeek(*weekFlag)
	if err != nil {
		logger.Error("invalid week", "error", err)
		os.Exit(1)
	}
	genesis, err := week.Parse(*genesisWeek)
	if err != nil {
		logger.Error("invalid genesis week", "error", err)
		os.Exit(1)
	}
	if *rpcEndpoint == "" || *contractHex == "" || *feedURL == "" {
		logger.Error("--rpc-endpoint, --contract and --feed-url are required")
		os.Exit(1)
	}
	if !*useMemory && (*postgresDSN == "" || *registryHex == "" || *registryKey == "") {
		logger.Error("--postgres-dsn, --registry and --registry-key are required unless --use-memory is set")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, cancelling run", "signal", sig)
		cancel()
	}()

	metrics := observability.NewMetrics("scout_settlement")
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	reader, err := evm.Dial(ctx, *rpcEndpoint)
	if err != nil {
		logger.Error("connect rpc endpoint", "error", err)
		os.Exit(1)
	}
	defer reader.Close()

	feed := rankfeed.NewHTTPClient(*feedURL)

	var (
		accounts    storage.AccountStore
		bindings    storage.BindingStore
		settlements storage.SettlementStore
		archive     storage.ReceiptArchive
		claimsReg   registry.ClaimsRegistry
	)

	if *useMemory {
		logger.Warn("dry run: in-memory stores, nothing anchored or persisted")
		accounts = memory.NewAccountStore()
		bindings = memory.NewBindingStore()
		settlements = memory.NewSettlementStore()
		claimsReg = noopRegistry{log: logger}
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Error("apply postgres migrations", "error", err)
			os.Exit(1)
		}
		accounts = pgstore.NewAccountStore(pool)
		bindings = pgstore.NewBindingStore(pool)
		settlements = pgstore.NewSettlementStore(pool)

		if *clickhouseDSN != "" {
			conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Error("connect clickhouse", "error", err)
				os.Exit(1)
			}
			defer conn.Close()
			archive = clickhouse.NewReceiptArchiveStore(conn)
		}

		claimsReg, err = registry.NewEthRegistry(ctx, reader.Eth(), common.HexToAddress(*registryHex), *registryKey)
		if err != nil {
			logger.Error("create claims registry", "error", err)
			os.Exit(1)
		}
	}

	runner := settlement.New(settlement.Options{
		Reader:      reader,
		Feed:        feed,
		Registry:    claimsReg,
		Accounts:    accounts,
		Bindings:    bindings,
		Settlements: settlements,
		Archive:     archive,
		Contract:    common.HexToAddress(*contractHex),
		DeployBlock: *deployBlock,
		GenesisWeek: genesis,
		ManifestURI: *manifestURI,
		Workers:     *workers,
		Logger:      logger,
		Metrics:     metrics,
	})

	result, err := runner.Run(ctx, w)
	if err != nil {
		if errors.Is(err, settlement.ErrAlreadySettled) {
			logger.Info("week already settled", "week", w, "error", err)
			os.Exit(0)
		}
		logger.Error("settlement run failed", "week", w, "error", err)
		os.Exit(1)
	}

	fmt.Printf("settled %s (season %d)\n", result.Week, result.Season)
	fmt.Printf("  batch:       %s\n", result.BatchID)
	fmt.Printf("  cutoff:      block %d\n", result.CutoffBlock)
	fmt.Printf("  merkle root: %s\n", result.Root)
	fmt.Printf("  builders:    %d\n", result.Builders)
	fmt.Printf("  claims:      %d (%s total)\n", result.Claims, result.TotalClaimable)
	fmt.Printf("  receipts:    %d\n", result.Receipts)
}

// resolveWeek parses the week flag, defaulting to the most recently
// completed ISO week.
func resolveWeek(s string) (week.Week, error) {
	if s == "" {
		now := week.FromTime(time.Now().UTC())
		return week.FromTime(now.Start().AddDate(0, 0, -7)), nil
	}
	return week.Parse(s)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
	}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// noopRegistry stands in for the on-chain registry during dry runs.
type noopRegistry struct {
	log *slog.Logger
}

func (n noopRegistry) SetWeeklyMerkleRoot(_ context.Context, p registry.RootParams) (common.Hash, error) {
	n.log.Info("dry run: would register merkle root", "week", p.Week, "root", p.Root, "valid_until", p.ValidUntil)
	return common.Hash{}, nil
}

func (n noopRegistry) FundClaimsPool(context.Context) (common.Hash, error) {
	n.log.Info("dry run: would fund claims pool")
	return common.Hash{}, nil
}
