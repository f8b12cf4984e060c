package memory

import (
	"context"
	"slices"
	"time"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// Store serves a fixed snapshot. It is read-only after construction and safe
// for concurrent use.
type Store struct {
	receipts  []domain.Receipt
	lines     map[int64][]domain.ReceiptLine
	items     []domain.Item
	subgroups []domain.Subgroup
}

func New(snapshot domain.Snapshot) *Store {
	receipts := slices.Clone(snapshot.Receipts)
	slices.SortStableFunc(receipts, func(a, b domain.Receipt) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmpInt64(a.ID, b.ID)
	})

	lines := make(map[int64][]domain.ReceiptLine, len(receipts))
	for _, line := range snapshot.Lines {
		lines[line.ReceiptID] = append(lines[line.ReceiptID], line)
	}

	return &Store{
		receipts:  receipts,
		lines:     lines,
		items:     slices.Clone(snapshot.Items),
		subgroups: slices.Clone(snapshot.Subgroups),
	}
}

// NewSeeded returns a store filled with demo data ending on the current
// business day.
func NewSeeded() *Store {
	return New(DemoSnapshot(time.Now(), DemoDays))
}

func (s *Store) FetchReceipts(_ context.Context, from, to time.Time) ([]domain.Receipt, error) {
	start, _ := slices.BinarySearchFunc(s.receipts, from, func(r domain.Receipt, t time.Time) int {
		return r.Timestamp.Compare(t)
	})
	end, _ := slices.BinarySearchFunc(s.receipts, to, func(r domain.Receipt, t time.Time) int {
		return r.Timestamp.Compare(t)
	})
	if end < start {
		end = start
	}
	out := make([]domain.Receipt, end-start)
	copy(out, s.receipts[start:end])
	return out, nil
}

func (s *Store) FetchReceiptLines(_ context.Context, receiptIDs []int64) ([]domain.ReceiptLine, error) {
	out := make([]domain.ReceiptLine, 0, len(receiptIDs)*2)
	seen := make(map[int64]struct{}, len(receiptIDs))
	for _, id := range receiptIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s.lines[id]...)
	}
	return out, nil
}

func (s *Store) FetchItems(_ context.Context) ([]domain.Item, error) {
	return slices.Clone(s.items), nil
}

func (s *Store) FetchSubgroups(_ context.Context) ([]domain.Subgroup, error) {
	return slices.Clone(s.subgroups), nil
}

func (s *Store) LatestReceiptTime(_ context.Context) (time.Time, bool, error) {
	if len(s.receipts) == 0 {
		return time.Time{}, false, nil
	}
	return s.receipts[len(s.receipts)-1].Timestamp, true, nil
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
