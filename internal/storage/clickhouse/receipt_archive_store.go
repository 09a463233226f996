package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"scout-settlement/internal/domain"
	"scout-settlement/internal/storage"
)

// ReceiptArchiveStore implements storage.ReceiptArchive using
// ClickHouse. The archive is append-only; MergeTree does not enforce
// uniqueness and re-archiving a batch simply duplicates rows, which
// audit queries deduplicate by receipt id.
type ReceiptArchiveStore struct {
	conn *Conn
}

// NewReceiptArchiveStore creates a new ReceiptArchiveStore.
func NewReceiptArchiveStore(conn *Conn) *ReceiptArchiveStore {
	return &ReceiptArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ReceiptArchive = (*ReceiptArchiveStore)(nil)

// ArchiveReceipts appends a batch's receipts to the archive.
func (s *ReceiptArchiveStore) ArchiveReceipts(ctx context.Context, batch *domain.SettlementBatch, receipts []domain.TokenReceipt) error {
	if len(receipts) == 0 {
		return nil
	}

	dbBatch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_receipts_archive (
			receipt_id, event_id, batch_id, week, season, wallet_address, value
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range receipts {
		err = dbBatch.Append(
			r.ID,
			r.EventID,
			batch.ID,
			batch.Week,
			int32(batch.Season),
			strings.ToLower(r.WalletAddress.Hex()),
			r.Value.String(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := dbBatch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CountByWeek returns the number of archived receipts for a week.
func (s *ReceiptArchiveStore) CountByWeek(ctx context.Context, week string) (uint64, error) {
	query := `
		SELECT count(DISTINCT receipt_id) FROM token_receipts_archive
		WHERE week = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, week).Scan(&count); err != nil {
		return 0, fmt.Errorf("count archived receipts: %w", err)
	}
	return count, nil
}
