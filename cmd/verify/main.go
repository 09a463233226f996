// Command verify re-checks a persisted settlement batch offline: every
// stored claim must prove against the stored Merkle root, and the claim
// amounts must sum to the batch total.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"scout-settlement/internal/merkle"
	pgstore "scout-settlement/internal/storage/postgres"
	"scout-settlement/internal/week"
)

func main() {
	_ = godotenv.Load()

	weekFlag := pflag.String("week", "", "ISO week to verify, e.g. 2025-W31 (required)")
	postgresDSN := pflag.String("postgres-dsn", envOr("POSTGRES_DSN", ""), "PostgreSQL connection string")
	pflag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.TimeOnly}))

	if *weekFlag == "" || *postgresDSN == "" {
		logger.Error("--week and --postgres-dsn are required")
		os.Exit(1)
	}
	w, err := week.Parse(*weekFlag)
	if err != nil {
		logger.Error("invalid week", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := pgstore.NewSettlementStore(pool)

	batch, err := store.GetBatchByWeek(ctx, w.String())
	if err != nil {
		logger.Error("load batch", "week", w, "error", err)
		os.Exit(1)
	}

	claims, err := store.GetClaimsByBatch(ctx, batch.ID)
	if err != nil {
		logger.Error("load claims", "batch", batch.ID, "error", err)
		os.Exit(1)
	}

	total := new(big.Int)
	invalid := 0
	for _, c := range claims {
		total.Add(total, c.Amount)
		if !merkle.Verify(batch.MerkleRoot, c, c.Proof) {
			invalid++
			logger.Error("claim fails proof verification", "wallet", c.WalletAddress, "amount", c.Amount)
		}
	}

	conserved := total.Cmp(batch.TotalClaimable) == 0
	if !conserved {
		logger.Error("claim total does not match batch", "claims", total, "batch", batch.TotalClaimable)
	}

	fmt.Printf("batch %s (%s, season %d)\n", batch.ID, batch.Week, batch.Season)
	fmt.Printf("  merkle root: %s\n", batch.MerkleRoot)
	fmt.Printf("  claims:      %d (%s total)\n", len(claims), total)

	if invalid > 0 || !conserved {
		fmt.Printf("  result:      FAILED (%d invalid proofs, conserved=%t)\n", invalid, conserved)
		os.Exit(1)
	}
	fmt.Printf("  result:      OK\n")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
