package analytics

import (
	"errors"
	"testing"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// reference business date for dormancy fixtures: 2024-06-30.
func daysBefore(n int) bizday.Date {
	return bizday.NewDate(2024, 6, 30).AddDays(-n)
}

func saleAt(b *snapshotBuilder, daysAgo int, lines ...line) {
	d := daysBefore(daysAgo)
	b.receipt(at(d.Year, d.Month, d.Day, 12, 0), "1", lines...)
}

func deadItemsFixture() *snapshotBuilder {
	b := newSnapshot().
		subgroup(3, "Snacks").
		item("X", "Crisps", domain.NumericSubgroup(3)).
		item("Y", "Cola", domain.EmptySubgroup())
	for _, ago := range []int{40, 45, 50, 60, 70} {
		saleAt(b, ago, line{code: "X", qty: "2"})
	}
	saleAt(b, 0, line{code: "Y", qty: "1"})
	return b
}

func defaultDeadQuery() DeadItemsQuery {
	return DeadItemsQuery{LookbackDays: 90, DeadDays: 30, MinQty: dec("1"), MinReceipts: 1, Page: 1, PageSize: 50}
}

func TestDeadItemsFlagsItemsSilentInDeadWindow(t *testing.T) {
	b := deadItemsFixture()
	saleAt(b, 5, line{code: "X", qty: "-1"})

	page, err := NewEngine(nil).DeadItems(b.build(), intelligence, defaultDeadQuery())
	if err != nil {
		t.Fatalf("dead items failed: %v", err)
	}
	if page.ReferenceDate != daysBefore(0) || page.Total != 1 || len(page.Rows) != 1 {
		t.Fatalf("unexpected page: %+v", page)
	}
	row := page.Rows[0]
	if row.ItemCode != "X" || row.DaysSinceLastSale != 40 || row.LastSoldDate != daysBefore(40) {
		t.Fatalf("unexpected dead row: %+v", row)
	}
	if !row.QtyActive.Equal(dec("10")) || row.ReceiptsActive != 5 || row.Subgroup != "Snacks" {
		t.Fatalf("unexpected active totals: %+v", row)
	}
}

func TestDeadItemsExcludesAnySaleInDeadWindow(t *testing.T) {
	b := deadItemsFixture()
	saleAt(b, 10, line{code: "X", qty: "1"})

	page, err := NewEngine(nil).DeadItems(b.build(), intelligence, defaultDeadQuery())
	if err != nil {
		t.Fatalf("dead items failed: %v", err)
	}
	if page.Total != 0 || page.Rows == nil || len(page.Rows) != 0 {
		t.Fatalf("expected X excluded, got %+v", page)
	}
}

func TestDeadItemsThresholdsAndFilters(t *testing.T) {
	b := deadItemsFixture()
	b.item("W", "Wine", domain.TextSubgroup("Drinks"))
	saleAt(b, 35, line{code: "W", qty: "1"})
	snapshot := b.build()
	engine := NewEngine(nil)

	q := defaultDeadQuery()
	page, _ := engine.DeadItems(snapshot, intelligence, q)
	if page.Total != 2 || page.Rows[0].ItemCode != "X" || page.Rows[1].ItemCode != "W" {
		t.Fatalf("expected X then W by days since sale, got %+v", page.Rows)
	}

	q.MinReceipts = 2
	if page, _ := engine.DeadItems(snapshot, intelligence, q); page.Total != 1 {
		t.Fatalf("expected min receipts to drop W, got %+v", page.Rows)
	}

	q = defaultDeadQuery()
	q.Q = "crisp"
	if page, _ := engine.DeadItems(snapshot, intelligence, q); page.Total != 1 || page.Rows[0].ItemCode != "X" {
		t.Fatalf("expected search to keep X, got %+v", page.Rows)
	}

	q = defaultDeadQuery()
	q.Subgroup = "drinks"
	if page, _ := engine.DeadItems(snapshot, intelligence, q); page.Total != 1 || page.Rows[0].ItemCode != "W" {
		t.Fatalf("expected subgroup filter to keep W, got %+v", page.Rows)
	}

	q = defaultDeadQuery()
	q.Page, q.PageSize = 2, 1
	page, _ = engine.DeadItems(snapshot, intelligence, q)
	if page.PageSize != 5 || page.Total != 2 || len(page.Rows) != 0 {
		t.Fatalf("expected page size clamped to 5 and an empty second page, got %+v", page)
	}

	q = defaultDeadQuery()
	q.DeadDays = 90
	if _, err := engine.DeadItems(snapshot, intelligence, q); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected invalid config when dead window covers lookback, got %v", err)
	}
}

func reorderFixture() domain.Snapshot {
	b := newSnapshot().
		item("F", "Fast mover", domain.EmptySubgroup()).
		item("S", "Stockout", domain.EmptySubgroup()).
		item("L", "Laggard", domain.EmptySubgroup())
	for ago := 0; ago < 7; ago++ {
		saleAt(b, ago, line{code: "F", qty: "10"})
	}
	for ago := 9; ago <= 20; ago++ {
		saleAt(b, ago, line{code: "S", qty: "1"})
	}
	saleAt(b, 20, line{code: "L", qty: "1"}, line{code: "Z", qty: "4"})
	return b.build()
}

func TestReorderRadarScoresAndFlags(t *testing.T) {
	page := NewEngine(nil).ReorderRadar(reorderFixture(), intelligence, ReorderQuery{LookbackDays: 30, OnlyAction: true, Desc: true, Limit: 25})
	if page.RecordsTotal != 3 || page.RecordsFiltered != 2 || len(page.Rows) != 2 {
		t.Fatalf("unexpected counts: total=%d filtered=%d rows=%d", page.RecordsTotal, page.RecordsFiltered, len(page.Rows))
	}

	fast, stockout := page.Rows[0], page.Rows[1]
	if fast.ItemCode != "F" || fast.Score != 29.33 || len(fast.Flags) != 1 || fast.Flags[0] != FlagFast {
		t.Fatalf("unexpected fast row: %+v", fast)
	}
	if fast.DaysSinceLastSale == nil || *fast.DaysSinceLastSale != 0 || fast.AvgDaily30d != 2.333 {
		t.Fatalf("unexpected fast recency: %+v", fast)
	}
	if stockout.ItemCode != "S" || stockout.Score != 12 || !hasFlag(stockout.Flags, FlagStockout) {
		t.Fatalf("unexpected stockout row: %+v", stockout)
	}
	if stockout.DaysSold90d != 12 || *stockout.DaysSinceLastSale != 9 {
		t.Fatalf("unexpected stockout history: %+v", stockout)
	}
}

func TestReorderRadarSortingAndPaging(t *testing.T) {
	engine := NewEngine(nil)
	snapshot := reorderFixture()

	page := engine.ReorderRadar(snapshot, intelligence, ReorderQuery{LookbackDays: 30, SortBy: "itm_code", Offset: 1, Limit: 1})
	if page.RecordsFiltered != 3 || len(page.Rows) != 1 || page.Rows[0].ItemCode != "L" {
		t.Fatalf("unexpected second row by code: %+v", page.Rows)
	}
	if !hasFlag(page.Rows[0].Flags, FlagSlow) {
		t.Fatalf("expected laggard flagged slow: %+v", page.Rows[0])
	}

	page = engine.ReorderRadar(snapshot, intelligence, ReorderQuery{LookbackDays: 7, SortBy: "drop table", Limit: 10})
	if page.RecordsTotal != 1 || page.Rows[0].ItemCode != "F" {
		t.Fatalf("expected 7 day lookback to keep only F, got %+v", page.Rows)
	}

	q := NormalizeReorderQuery(ReorderQuery{LookbackDays: 45, SortBy: "drop table", Offset: -3})
	if q.LookbackDays != 30 || q.SortBy != "score" || q.Offset != 0 || q.Limit != 1 {
		t.Fatalf("unexpected normalized query: %+v", q)
	}
}
