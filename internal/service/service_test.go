package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/analytics"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/cache"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/narrative"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/memory"
)

var errBoom = errors.New("boom")

type recordingRepo struct {
	store.Repository
	fetches  int
	from, to time.Time
}

func (r *recordingRepo) FetchReceipts(ctx context.Context, from, to time.Time) ([]domain.Receipt, error) {
	r.fetches++
	r.from, r.to = from, to
	return r.Repository.FetchReceipts(ctx, from, to)
}

type failingRepo struct{}

func (failingRepo) FetchReceipts(context.Context, time.Time, time.Time) ([]domain.Receipt, error) {
	return nil, errBoom
}

func (failingRepo) FetchReceiptLines(context.Context, []int64) ([]domain.ReceiptLine, error) {
	return nil, errBoom
}

func (failingRepo) FetchItems(context.Context) ([]domain.Item, error) {
	return nil, errBoom
}

func (failingRepo) FetchSubgroups(context.Context) ([]domain.Subgroup, error) {
	return nil, errBoom
}

func (failingRepo) LatestReceiptTime(context.Context) (time.Time, bool, error) {
	return time.Time{}, false, errBoom
}

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func line(receipt int64, code, qty, price string) domain.ReceiptLine {
	return domain.ReceiptLine{
		ReceiptID: receipt,
		ItemCode:  code,
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: decimal.RequireFromString(price),
	}
}

// fixture has its newest receipt at 02:00 on the 12th, which is business
// date the 11th under both the 07:00 and 08:00 calendars.
func fixture() domain.Snapshot {
	return domain.Snapshot{
		Subgroups: []domain.Subgroup{{ID: 1, Name: "Drinks"}},
		Items: []domain.Item{
			{Code: "A", Title: "Cola", Subgroup: domain.NumericSubgroup(1)},
			{Code: "B", Title: "Bread", Subgroup: domain.TextSubgroup("Bakery")},
		},
		Receipts: []domain.Receipt{
			{ID: 1, Timestamp: at(10, 10), Amount: decimal.RequireFromString("4")},
			{ID: 2, Timestamp: at(11, 9), Amount: decimal.RequireFromString("10")},
			{ID: 3, Timestamp: at(11, 20), Amount: decimal.RequireFromString("6")},
			{ID: 4, Timestamp: at(12, 2), Amount: decimal.RequireFromString("2")},
		},
		Lines: []domain.ReceiptLine{
			line(1, "A", "2", "2"),
			line(2, "A", "3", "2"),
			line(2, "B", "2", "2"),
			line(3, "B", "3", "2"),
			line(4, "A", "1", "2"),
		},
	}
}

func newTestService(repo store.Repository) *Service {
	return New(repo, bizday.MustNew(7), bizday.MustNew(8), nil, nil)
}

func TestKPIsUseLatestBusinessDay(t *testing.T) {
	repo := &recordingRepo{Repository: memory.New(fixture())}
	svc := newTestService(repo)

	kpis, err := svc.KPIs(context.Background(), analytics.PositiveQuantityOnly)
	if err != nil {
		t.Fatalf("kpis failed: %v", err)
	}
	if kpis.BusinessDate != bizday.NewDate(2024, 3, 11) || kpis.TotalReceipts != 3 {
		t.Fatalf("unexpected kpis: %+v", kpis)
	}
	if !kpis.AvgReceiptValue.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected avg receipt value 6, got %s", kpis.AvgReceiptValue)
	}
	if !repo.from.Equal(at(11, 7)) || !repo.to.Equal(at(12, 7)) {
		t.Fatalf("expected a one-day load, got [%v, %v)", repo.from, repo.to)
	}
}

func TestTopItemsLoadsTrailingWindow(t *testing.T) {
	repo := &recordingRepo{Repository: memory.New(fixture())}
	svc := newTestService(repo)

	rows, err := svc.TopItems(context.Background(), 45, 10, analytics.PositiveQuantityOnly)
	if err != nil {
		t.Fatalf("top items failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ItemCode != "A" || !rows[0].Qty.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected top items: %+v", rows)
	}
	// days are clamped to 30 before the load
	if !repo.from.Equal(time.Date(2024, 2, 11, 7, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start %v", repo.from)
	}
}

func TestSalesDefaultsToLatestSalesDay(t *testing.T) {
	svc := newTestService(memory.New(fixture()))

	summary, err := svc.SalesSummary(context.Background(), bizday.Date{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Date != bizday.NewDate(2024, 3, 11) || summary.Receipts != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if !summary.TotalSales.Equal(decimal.NewFromInt(18)) || summary.GrowthVsYesterday != 350 {
		t.Fatalf("unexpected totals: %+v", summary)
	}

	receipts, err := svc.Receipts(context.Background(), bizday.NewDate(2024, 3, 10))
	if err != nil {
		t.Fatalf("receipts failed: %v", err)
	}
	if len(receipts) != 1 || receipts[0].ID != 1 {
		t.Fatalf("unexpected receipts: %+v", receipts)
	}
}

func TestSalesOnEmptyStoreUsesToday(t *testing.T) {
	svc := newTestService(memory.New(domain.Snapshot{}))
	svc.now = func() time.Time { return at(15, 7) }

	summary, err := svc.SalesSummary(context.Background(), bizday.Date{})
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Date != bizday.NewDate(2024, 3, 14) || summary.Receipts != 0 || summary.PeakHour != nil {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}

	hours, _ := svc.SalesByHour(context.Background(), bizday.Date{})
	if len(hours) != bizday.HoursPerDay {
		t.Fatalf("expected zero-filled hours, got %d", len(hours))
	}
}

func TestInvalidParametersNeverTouchTheStore(t *testing.T) {
	svc := newTestService(failingRepo{})
	ctx := context.Background()

	if _, err := svc.DeadItems(ctx, analytics.DeadItemsQuery{LookbackDays: 30, DeadDays: 30}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for dead items, got %v", err)
	}
	if _, err := svc.ItemTrends(ctx, analytics.ItemTrendsQuery{}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for item trends, got %v", err)
	}
	if _, err := svc.ItemDetail(ctx, "  ", 30); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for item detail, got %v", err)
	}
	if _, err := svc.TopItemsInSubgroup(ctx, "", 7, 10, analytics.PositiveQuantityOnly); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for subgroup items, got %v", err)
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc := newTestService(failingRepo{})
	if _, err := svc.KPIs(context.Background(), analytics.IncludeAllLines); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if err := svc.Health(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected health to report the store error, got %v", err)
	}
}

func TestItemDetail(t *testing.T) {
	svc := newTestService(memory.New(fixture()))

	detail, err := svc.ItemDetail(context.Background(), "B", 7)
	if err != nil {
		t.Fatalf("item detail failed: %v", err)
	}
	if !detail.Found || detail.Title != "Bread" || detail.Summary.Receipts != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if _, err := svc.ItemDetail(context.Background(), "NOPE", 7); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAggregateGroupsByDimension(t *testing.T) {
	svc := newTestService(memory.New(fixture()))

	rows, err := svc.Aggregate(context.Background(), bizday.NewDate(2024, 3, 10), bizday.NewDate(2024, 3, 11), analytics.DimDate, analytics.PositiveQuantityOnly)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(rows) != 2 || rows[1].Count != 3 || !rows[1].Amount.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("unexpected aggregate rows: %+v", rows)
	}
}

func TestSummarizeUsesNarrativeCache(t *testing.T) {
	narrator := narrative.NewService(narrative.StaticSummarizer{}, cache.NewMemoryTextCache(), time.Minute, nil)
	svc := New(memory.New(fixture()), bizday.MustNew(7), bizday.MustNew(8), narrator, nil)

	text, err := svc.Summarize(context.Background(), "kpis", map[string]int{"total_receipts": 3})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if text != "kpis: total_receipts 3." {
		t.Fatalf("unexpected summary %q", text)
	}
}

func TestSubgroupLabels(t *testing.T) {
	svc := newTestService(memory.New(fixture()))
	labels, err := svc.SubgroupLabels(context.Background())
	if err != nil {
		t.Fatalf("subgroup labels failed: %v", err)
	}
	if len(labels) != 2 || labels[0] != "Bakery" || labels[1] != "Drinks" {
		t.Fatalf("unexpected labels %v", labels)
	}
}
