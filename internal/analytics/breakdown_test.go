package analytics

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

func breakdownFixture() domain.Snapshot {
	b := newSnapshot().
		subgroup(1, "Drinks").
		subgroup(2, "Bakery").
		item("A", "Cola", domain.NumericSubgroup(1)).
		item("B", "Bread", domain.NumericSubgroup(2))
	b.receipt(at(2024, 1, 14, 10, 0), "50000", line{code: "A", qty: "1"})
	b.receipt(at(2024, 1, 15, 9, 0), "120000", line{code: "A", qty: "2"}, line{code: "B", qty: "0.5"})
	b.receipt(at(2024, 1, 16, 2, 0), "30000000", line{code: "B", qty: "25"})
	return b.build()
}

func TestDailyKPIsUseLatestBusinessDate(t *testing.T) {
	kpis := DailyKPIs(breakdownFixture(), intelligence, PositiveQuantityOnly)
	if kpis.BusinessDate != bizday.NewDate(2024, 1, 15) || kpis.TotalReceipts != 2 || kpis.UniqueItems != 2 {
		t.Fatalf("unexpected kpis: %+v", kpis)
	}
	if !kpis.AvgReceiptValue.Equal(dec("15060000")) || kpis.ItemsPerReceipt != 13.75 {
		t.Fatalf("unexpected averages: %+v", kpis)
	}

	empty := DailyKPIs(domain.Snapshot{}, intelligence, PositiveQuantityOnly)
	if empty.TotalReceipts != 0 || !empty.AvgReceiptValue.IsZero() {
		t.Fatalf("unexpected empty kpis: %+v", empty)
	}
}

func TestReceiptsByDayAndLatestHours(t *testing.T) {
	snapshot := breakdownFixture()
	days := ReceiptsByDay(snapshot.Receipts, intelligence, 7)
	if len(days) != 2 || days[0].Date != bizday.NewDate(2024, 1, 15) || days[0].Receipts != 2 {
		t.Fatalf("unexpected receipts by day: %+v", days)
	}

	hours := HourlyLatestDay(snapshot.Receipts, intelligence)
	if len(hours) != 24 || hours[2].Receipts != 1 || hours[19].Receipts != 1 {
		t.Fatalf("unexpected latest day hours: %+v", hours)
	}
	if empty := HourlyLatestDay(nil, intelligence); len(empty) != 24 {
		t.Fatalf("expected 24 zero rows, got %d", len(empty))
	}
}

func TestHistogramsReturnEveryBin(t *testing.T) {
	snapshot := breakdownFixture()

	items := ItemsPerReceiptHistogram(snapshot, intelligence, 30, PositiveQuantityOnly)
	if len(items) != 9 || items[0].Count != 1 || items[2].Count != 1 || items[8].Count != 1 || items[8].Bin != "20+" {
		t.Fatalf("unexpected items histogram: %+v", items)
	}

	amounts := ReceiptAmountHistogram(snapshot.Receipts, intelligence, 30)
	if len(amounts) != 8 || amounts[0].Count != 1 || amounts[1].Count != 1 || amounts[7].Count != 1 {
		t.Fatalf("unexpected amount histogram: %+v", amounts)
	}

	empty := ReceiptAmountHistogram(nil, intelligence, 30)
	if len(empty) != 8 || empty[3].Count != 0 {
		t.Fatalf("expected zero-filled bins, got %+v", empty)
	}
}

func TestSubgroupVelocityComparesWeeks(t *testing.T) {
	b := newSnapshot().
		subgroup(1, "Drinks").
		item("A", "Cola", domain.NumericSubgroup(1))
	b.receipt(at(2024, 2, 1, 12, 0), "10", line{code: "A", qty: "1", price: "10"})
	b.receipt(at(2024, 2, 9, 12, 0), "30", line{code: "A", qty: "3", price: "10"})

	rows, err := NewEngine(nil).SubgroupVelocity(b.build(), intelligence, 28, 5, PositiveQuantityOnly)
	if err != nil {
		t.Fatalf("velocity failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "Drinks" || rows[0].DeltaPct == nil || *rows[0].DeltaPct != 2 {
		t.Fatalf("unexpected velocity rows: %+v", rows)
	}
}

func TestUnknownItemsFallBackToCodeAndWarnOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(zap.New(core))

	b := newSnapshot()
	b.receipt(at(2024, 1, 14, 10, 0), "1", line{code: "GHOST", qty: "1"}, line{code: "GHOST", qty: "2"})
	items := engine.TopItems(b.build(), intelligence, 7, 10, PositiveQuantityOnly)

	if len(items) != 1 || items[0].Item != "GHOST" || !items[0].Qty.Equal(dec("3")) {
		t.Fatalf("unexpected fallback rows: %+v", items)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning per missing code, got %d", logs.Len())
	}
}

func TestItemDetailProfilesPositiveSales(t *testing.T) {
	b := newSnapshot().
		subgroup(1, "Drinks").
		item("A", " Cola ", domain.NumericSubgroup(1))
	b.receipt(at(2024, 1, 10, 10, 0), "4", line{code: "A", qty: "2", price: "2"})
	b.receipt(at(2024, 1, 12, 10, 0), "6", line{code: "A", qty: "2", price: "3"})
	b.receipt(at(2024, 1, 12, 11, 0), "-3", line{code: "A", qty: "-1", price: "3"})
	b.receipt(at(2024, 1, 13, 10, 0), "1", line{code: "B", qty: "1"})

	detail := NewEngine(nil).ItemDetail(b.build(), intelligence, "A", 30)
	if !detail.Found || detail.Title != "Cola" || detail.Subgroup != "Drinks" {
		t.Fatalf("unexpected header: %+v", detail)
	}
	s := detail.Summary
	if s.Receipts != 3 || !s.Units.Equal(dec("4")) || !s.Amount.Equal(dec("10")) {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.MinPrice == nil || !s.MinPrice.Equal(dec("2")) || !s.MaxPrice.Equal(dec("3")) || !s.AvgPrice.Equal(dec("2.5")) {
		t.Fatalf("unexpected prices: %+v", s)
	}
	if len(detail.Daily) != 2 || detail.Daily[0].Date != bizday.NewDate(2024, 1, 10) {
		t.Fatalf("unexpected daily series: %+v", detail.Daily)
	}
	if len(detail.RecentReceipts) != 3 || detail.RecentReceipts[0].Timestamp != "2024-01-12 11:00" {
		t.Fatalf("unexpected recent receipts: %+v", detail.RecentReceipts)
	}
	if detail.LastPurchased == nil || *detail.LastPurchased != "2024-01-12 11:00" {
		t.Fatalf("unexpected last purchased: %v", detail.LastPurchased)
	}

	missing := NewEngine(nil).ItemDetail(b.build(), intelligence, "NOPE", 30)
	if missing.Found || missing.Subgroup != domain.UnknownSubgroup || missing.Daily == nil || missing.RecentReceipts == nil {
		t.Fatalf("unexpected missing item detail: %+v", missing)
	}
}
