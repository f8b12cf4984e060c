package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// Repository reads the POS tables. Timestamps are naive wall-clock values
// labelled UTC on the way in and out.
type Repository interface {
	// FetchReceipts returns receipts issued in [from, to).
	FetchReceipts(ctx context.Context, from, to time.Time) ([]domain.Receipt, error)
	FetchReceiptLines(ctx context.Context, receiptIDs []int64) ([]domain.ReceiptLine, error)
	FetchItems(ctx context.Context) ([]domain.Item, error)
	FetchSubgroups(ctx context.Context) ([]domain.Subgroup, error)
	// LatestReceiptTime reports false when there are no receipts at all.
	LatestReceiptTime(ctx context.Context) (time.Time, bool, error)
}

// LoadSnapshot materializes receipts in [from, to) with their lines, plus the
// full item and subgroup catalog. The catalog loads run concurrently with the
// receipt query.
func LoadSnapshot(ctx context.Context, repo Repository, from, to time.Time) (domain.Snapshot, error) {
	var snapshot domain.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		receipts, err := repo.FetchReceipts(gctx, from, to)
		if err != nil {
			return fmt.Errorf("fetch receipts: %w", err)
		}
		ids := make([]int64, 0, len(receipts))
		for _, r := range receipts {
			ids = append(ids, r.ID)
		}
		lines, err := repo.FetchReceiptLines(gctx, ids)
		if err != nil {
			return fmt.Errorf("fetch receipt lines: %w", err)
		}
		snapshot.Receipts = receipts
		snapshot.Lines = lines
		return nil
	})
	g.Go(func() error {
		items, err := repo.FetchItems(gctx)
		if err != nil {
			return fmt.Errorf("fetch items: %w", err)
		}
		snapshot.Items = items
		return nil
	})
	g.Go(func() error {
		subgroups, err := repo.FetchSubgroups(gctx)
		if err != nil {
			return fmt.Errorf("fetch subgroups: %w", err)
		}
		snapshot.Subgroups = subgroups
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}
