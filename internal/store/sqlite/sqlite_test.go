package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func fixture() domain.Snapshot {
	return domain.Snapshot{
		Subgroups: []domain.Subgroup{{ID: 1, Name: "Beverages"}, {ID: 2, Name: "Bakery"}},
		Items: []domain.Item{
			{Code: "A", Title: "Cola", Subgroup: domain.NumericSubgroup(1)},
			{Code: "B", Title: "Bread", Subgroup: domain.TextSubgroup("bakery")},
			{Code: "C", Title: "", Subgroup: domain.EmptySubgroup()},
		},
		Receipts: []domain.Receipt{
			{ID: 1, Timestamp: at(11, 7, 0), Amount: decimal.RequireFromString("12.50")},
			{ID: 2, Timestamp: at(11, 23, 30), Amount: decimal.RequireFromString("3")},
			{ID: 3, Timestamp: at(12, 6, 59), Amount: decimal.RequireFromString("4.25")},
			{ID: 4, Timestamp: at(12, 7, 0), Amount: decimal.RequireFromString("1")},
		},
		Lines: []domain.ReceiptLine{
			{ReceiptID: 1, ItemCode: "A", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("1.25")},
			{ReceiptID: 1, ItemCode: "B", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("10")},
			{ReceiptID: 2, ItemCode: "A", Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.RequireFromString("1.25")},
			{ReceiptID: 3, ItemCode: "C", Quantity: decimal.RequireFromString("0.5"), UnitPrice: decimal.RequireFromString("8.5")},
			{ReceiptID: 4, ItemCode: "A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)},
		},
	}
}

func TestImportAndFetchRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.Import(ctx, fixture()); err != nil {
		t.Fatalf("import: %v", err)
	}

	receipts, err := s.FetchReceipts(ctx, at(11, 7, 0), at(12, 7, 0))
	if err != nil {
		t.Fatalf("fetch receipts: %v", err)
	}
	if len(receipts) != 3 || receipts[0].ID != 1 || receipts[2].ID != 3 {
		t.Fatalf("expected receipts 1..3 in [11th 07:00, 12th 07:00), got %+v", receipts)
	}
	if !receipts[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected amount %s", receipts[0].Amount)
	}
	if got := receipts[1].Timestamp; !got.Equal(at(11, 23, 30)) || got.Location() != time.UTC {
		t.Fatalf("unexpected timestamp %v", got)
	}

	lines, err := s.FetchReceiptLines(ctx, []int64{1, 3})
	if err != nil {
		t.Fatalf("fetch lines: %v", err)
	}
	if len(lines) != 3 || lines[0].ItemCode != "A" || lines[1].ItemCode != "B" || lines[2].ReceiptID != 3 {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if !lines[2].Quantity.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected fractional quantity, got %s", lines[2].Quantity)
	}

	items, err := s.FetchItems(ctx)
	if err != nil {
		t.Fatalf("fetch items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Subgroup != domain.NumericSubgroup(1) || items[1].Subgroup != domain.TextSubgroup("bakery") || !items[2].Subgroup.IsEmpty() {
		t.Fatalf("unexpected subgroup refs: %+v", items)
	}

	subgroups, _ := s.FetchSubgroups(ctx)
	if len(subgroups) != 2 || subgroups[1].Name != "Bakery" {
		t.Fatalf("unexpected subgroups: %+v", subgroups)
	}
}

func TestLatestReceiptTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, ok, err := s.LatestReceiptTime(ctx); ok || err != nil {
		t.Fatalf("expected no receipts, got %v %v", ok, err)
	}
	if err := s.Import(ctx, fixture()); err != nil {
		t.Fatalf("import: %v", err)
	}
	latest, ok, err := s.LatestReceiptTime(ctx)
	if err != nil || !ok || !latest.Equal(at(12, 7, 0)) {
		t.Fatalf("unexpected latest: %v %v %v", latest, ok, err)
	}
}

func TestFetchReceiptLinesEmptyIDs(t *testing.T) {
	s := newTestStore(t)
	lines, err := s.FetchReceiptLines(context.Background(), nil)
	if err != nil || lines == nil || len(lines) != 0 {
		t.Fatalf("expected empty non-nil lines, got %#v %v", lines, err)
	}
}

func TestImportRollsBackOnDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	snapshot := fixture()
	snapshot.Receipts = append(snapshot.Receipts, snapshot.Receipts[0])
	if err := s.Import(ctx, snapshot); err == nil {
		t.Fatalf("expected duplicate receipt id to fail")
	}
	if items, _ := s.FetchItems(ctx); len(items) != 0 {
		t.Fatalf("expected rollback, found %d items", len(items))
	}
}

func TestLoadSnapshotMatchesMemoryStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	demo := memory.DemoSnapshot(at(11, 21, 0), 14)
	if err := s.Import(ctx, demo); err != nil {
		t.Fatalf("import demo: %v", err)
	}
	mem := memory.New(demo)

	from, to := at(5, 7, 0), at(9, 7, 0)
	fromSQL, err := store.LoadSnapshot(ctx, s, from, to)
	if err != nil {
		t.Fatalf("load from sqlite: %v", err)
	}
	fromMem, _ := store.LoadSnapshot(ctx, mem, from, to)

	if len(fromSQL.Receipts) == 0 || len(fromSQL.Receipts) != len(fromMem.Receipts) || len(fromSQL.Lines) != len(fromMem.Lines) {
		t.Fatalf("sqlite and memory disagree: %d/%d receipts, %d/%d lines",
			len(fromSQL.Receipts), len(fromMem.Receipts), len(fromSQL.Lines), len(fromMem.Lines))
	}
	for i := range fromSQL.Receipts {
		a, b := fromSQL.Receipts[i], fromMem.Receipts[i]
		if a.ID != b.ID || !a.Timestamp.Equal(b.Timestamp) || !a.Amount.Equal(b.Amount) {
			t.Fatalf("receipt %d differs: %+v vs %+v", i, a, b)
		}
	}
}
