package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/analytics"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/narrative"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store"
)

const (
	// profileSlackDays widens profile loads so gaps in trading still leave
	// enough distinct business dates to average over.
	profileSlackDays = 60
	itemHistoryDays  = 365
	reorderDays      = 90
)

// Service answers report requests. Every call resolves its reference date
// from the newest receipt, loads only the business dates it needs and hands
// the snapshot to the analytics engine.
type Service struct {
	repo         store.Repository
	engine       *analytics.Engine
	intelligence bizday.Calendar
	sales        bizday.Calendar
	narrator     *narrative.Service
	logger       *zap.Logger
	now          func() time.Time
}

func New(repo store.Repository, intelligence, sales bizday.Calendar, narrator *narrative.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if narrator == nil {
		narrator = narrative.NewService(nil, nil, 0, logger)
	}
	return &Service{
		repo:         repo,
		engine:       analytics.NewEngine(logger),
		intelligence: intelligence,
		sales:        sales,
		narrator:     narrator,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *Service) Health(ctx context.Context) error {
	_, _, err := s.repo.LatestReceiptTime(ctx)
	return err
}

// referenceDate is the business date of the newest receipt under cal.
func (s *Service) referenceDate(ctx context.Context, cal bizday.Calendar) (bizday.Date, bool, error) {
	latest, ok, err := s.repo.LatestReceiptTime(ctx)
	if err != nil {
		return bizday.Date{}, false, fmt.Errorf("latest receipt: %w", err)
	}
	if !ok {
		return bizday.Date{}, false, nil
	}
	return cal.Date(latest), true, nil
}

// loadTrailing loads the days business dates ending at the reference date.
func (s *Service) loadTrailing(ctx context.Context, cal bizday.Calendar, days int) (domain.Snapshot, error) {
	ref, ok, err := s.referenceDate(ctx, cal)
	if err != nil || !ok {
		return domain.Snapshot{}, err
	}
	return s.loadRange(ctx, cal, ref.AddDays(-(days - 1)), ref)
}

func (s *Service) loadRange(ctx context.Context, cal bizday.Calendar, from, to bizday.Date) (domain.Snapshot, error) {
	start, end := cal.Bounds(from, to)
	snapshot, err := store.LoadSnapshot(ctx, s.repo, start, end)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	s.logger.Debug("snapshot loaded",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("receipts", len(snapshot.Receipts)),
		zap.Int("lines", len(snapshot.Lines)),
	)
	return snapshot, nil
}

// Intelligence reports.

func (s *Service) KPIs(ctx context.Context, filter analytics.LineFilter) (analytics.KPIs, error) {
	snapshot, err := s.loadTrailing(ctx, s.intelligence, 1)
	if err != nil {
		return analytics.KPIs{}, err
	}
	return analytics.DailyKPIs(snapshot, s.intelligence, filter), nil
}

func (s *Service) ReceiptsByDay(ctx context.Context, days int) ([]analytics.DaySummary, error) {
	days = analytics.Clamp(days, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return analytics.ReceiptsByDay(snapshot.Receipts, s.intelligence, days), nil
}

func (s *Service) HourlyLatestDay(ctx context.Context) ([]analytics.HourCount, error) {
	snapshot, err := s.loadTrailing(ctx, s.intelligence, 1)
	if err != nil {
		return nil, err
	}
	return analytics.HourlyLatestDay(snapshot.Receipts, s.intelligence), nil
}

func (s *Service) HourlyForDate(ctx context.Context, date bizday.Date) ([]analytics.HourCount, error) {
	if date.IsZero() {
		return s.HourlyLatestDay(ctx)
	}
	snapshot, err := s.loadRange(ctx, s.intelligence, date, date)
	if err != nil {
		return nil, err
	}
	return analytics.HourlyForDate(snapshot.Receipts, s.intelligence, date), nil
}

func (s *Service) HourlyProfile(ctx context.Context, lookbackDays int) ([]analytics.HourlyProfileRow, error) {
	lookbackDays = analytics.Clamp(lookbackDays, 1, 90)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, lookbackDays+profileSlackDays)
	if err != nil {
		return nil, err
	}
	return analytics.HourlyProfile(snapshot, s.intelligence, lookbackDays), nil
}

func (s *Service) DayOfWeekProfile(ctx context.Context, lookbackDays int) ([]analytics.DayOfWeekRow, error) {
	lookbackDays = analytics.Clamp(lookbackDays, 7, 140)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, lookbackDays)
	if err != nil {
		return nil, err
	}
	return analytics.DayOfWeekProfile(snapshot.Receipts, s.intelligence, lookbackDays), nil
}

func (s *Service) TopWindows(ctx context.Context, q analytics.TopWindowsQuery) (analytics.WindowReport, error) {
	q.LookbackDays = analytics.Clamp(q.LookbackDays, 1, 90)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, q.LookbackDays+profileSlackDays)
	if err != nil {
		return analytics.WindowReport{}, err
	}
	return s.engine.TopWindows(snapshot, s.intelligence, q)
}

func (s *Service) TopItems(ctx context.Context, days, limit int, filter analytics.LineFilter) ([]analytics.ItemSales, error) {
	days = analytics.Clamp(days, 1, 30)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return s.engine.TopItems(snapshot, s.intelligence, days, limit, filter), nil
}

func (s *Service) TopItemsInSubgroup(ctx context.Context, subgroup string, days, limit int, filter analytics.LineFilter) ([]analytics.ItemSales, error) {
	subgroup = strings.TrimSpace(subgroup)
	if subgroup == "" {
		return nil, fmt.Errorf("%w: subgroup is required", domain.ErrInvalidConfig)
	}
	days = analytics.Clamp(days, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return s.engine.TopItemsInSubgroup(snapshot, s.intelligence, subgroup, days, limit, filter), nil
}

func (s *Service) SubgroupContribution(ctx context.Context, days, limit int, filter analytics.LineFilter) ([]analytics.SubgroupSales, error) {
	days = analytics.Clamp(days, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return s.engine.SubgroupContribution(snapshot, s.intelligence, days, limit, filter), nil
}

func (s *Service) SubgroupVelocity(ctx context.Context, days, top int, filter analytics.LineFilter) ([]analytics.DeltaRow, error) {
	days = analytics.Clamp(days, 14, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return s.engine.SubgroupVelocity(snapshot, s.intelligence, days, top, filter)
}

func (s *Service) ItemsPerReceiptHistogram(ctx context.Context, days int, filter analytics.LineFilter) ([]analytics.HistogramBin, error) {
	days = analytics.Clamp(days, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return analytics.ItemsPerReceiptHistogram(snapshot, s.intelligence, days, filter), nil
}

func (s *Service) ReceiptAmountHistogram(ctx context.Context, days int) ([]analytics.HistogramBin, error) {
	days = analytics.Clamp(days, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, days)
	if err != nil {
		return nil, err
	}
	return analytics.ReceiptAmountHistogram(snapshot.Receipts, s.intelligence, days), nil
}

func (s *Service) AffinityPairs(ctx context.Context, windowDays, topN int, filter analytics.LineFilter) ([]analytics.AffinityPair, error) {
	windowDays = analytics.Clamp(windowDays, 1, 60)
	snapshot, err := s.loadTrailing(ctx, s.intelligence, windowDays)
	if err != nil {
		return nil, err
	}
	return s.engine.AffinityPairs(snapshot, s.intelligence, windowDays, topN, filter), nil
}

func (s *Service) ItemTrends(ctx context.Context, q analytics.ItemTrendsQuery) (analytics.ItemTrendsReport, error) {
	if err := analytics.ValidateTrendRange(q.StartDate, q.EndDate); err != nil {
		return analytics.ItemTrendsReport{}, err
	}
	snapshot, err := s.loadRange(ctx, s.intelligence, q.StartDate, q.EndDate)
	if err != nil {
		return analytics.ItemTrendsReport{}, err
	}
	return s.engine.ItemTrends(snapshot, s.intelligence, q)
}

// Aggregate groups line sums over an explicit business date range.
func (s *Service) Aggregate(ctx context.Context, from, to bizday.Date, dims analytics.Dimension, filter analytics.LineFilter) ([]analytics.AggregateBucket, error) {
	if err := analytics.ValidateTrendRange(from, to); err != nil {
		return nil, err
	}
	snapshot, err := s.loadRange(ctx, s.intelligence, from, to)
	if err != nil {
		return nil, err
	}
	return s.engine.Group(snapshot, s.intelligence, dims, filter), nil
}

func (s *Service) DeadItems(ctx context.Context, q analytics.DeadItemsQuery) (analytics.DeadItemsPage, error) {
	lookback := analytics.Clamp(q.LookbackDays, 1, 365)
	if analytics.Clamp(q.DeadDays, 1, 365) >= lookback {
		// rejected before touching the database
		return s.engine.DeadItems(domain.Snapshot{}, s.intelligence, q)
	}
	snapshot, err := s.loadTrailing(ctx, s.intelligence, lookback)
	if err != nil {
		return analytics.DeadItemsPage{}, err
	}
	return s.engine.DeadItems(snapshot, s.intelligence, q)
}

func (s *Service) ReorderRadar(ctx context.Context, q analytics.ReorderQuery) (analytics.ReorderPage, error) {
	snapshot, err := s.loadTrailing(ctx, s.intelligence, reorderDays)
	if err != nil {
		return analytics.ReorderPage{}, err
	}
	return s.engine.ReorderRadar(snapshot, s.intelligence, q), nil
}

// ItemDetail always loads a year of history so last_purchased can look past
// the requested window.
func (s *Service) ItemDetail(ctx context.Context, code string, days int) (analytics.ItemDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return analytics.ItemDetail{}, fmt.Errorf("%w: item code is required", domain.ErrInvalidConfig)
	}
	snapshot, err := s.loadTrailing(ctx, s.intelligence, itemHistoryDays)
	if err != nil {
		return analytics.ItemDetail{}, err
	}
	detail := s.engine.ItemDetail(snapshot, s.intelligence, code, days)
	if !detail.Found && detail.LastPurchased == nil {
		return detail, fmt.Errorf("%w: item %s", domain.ErrNotFound, code)
	}
	return detail, nil
}

// SubgroupLabels lists the subgroup labels items resolve to, for filter
// pickers. It reads only the catalog.
func (s *Service) SubgroupLabels(ctx context.Context) ([]string, error) {
	items, err := s.repo.FetchItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	subgroups, err := s.repo.FetchSubgroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch subgroups: %w", err)
	}
	return s.engine.SubgroupLabels(items, subgroups), nil
}

// Sales reports. A zero date means the business day of the newest receipt,
// or today's business day when there are no receipts at all.

func (s *Service) salesDate(ctx context.Context, date bizday.Date) (bizday.Date, error) {
	if !date.IsZero() {
		return date, nil
	}
	ref, ok, err := s.referenceDate(ctx, s.sales)
	if err != nil {
		return bizday.Date{}, err
	}
	if !ok {
		return s.sales.Date(s.now()), nil
	}
	return ref, nil
}

// loadSalesHistory loads the date and the comparison weeks before it.
func (s *Service) loadSalesHistory(ctx context.Context, date bizday.Date) (bizday.Date, domain.Snapshot, error) {
	date, err := s.salesDate(ctx, date)
	if err != nil {
		return bizday.Date{}, domain.Snapshot{}, err
	}
	snapshot, err := s.loadRange(ctx, s.sales, date.AddDays(-analytics.SalesHistoryDays), date)
	return date, snapshot, err
}

func (s *Service) loadSalesDay(ctx context.Context, date bizday.Date) (bizday.Date, domain.Snapshot, error) {
	date, err := s.salesDate(ctx, date)
	if err != nil {
		return bizday.Date{}, domain.Snapshot{}, err
	}
	snapshot, err := s.loadRange(ctx, s.sales, date, date)
	return date, snapshot, err
}

func (s *Service) SalesSummary(ctx context.Context, date bizday.Date) (analytics.SalesSummary, error) {
	date, snapshot, err := s.loadSalesHistory(ctx, date)
	if err != nil {
		return analytics.SalesSummary{}, err
	}
	return analytics.SalesSummary(snapshot.Receipts, s.sales, date), nil
}

func (s *Service) SalesByHour(ctx context.Context, date bizday.Date) ([]analytics.HourSales, error) {
	date, snapshot, err := s.loadSalesDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return analytics.SalesByHour(snapshot.Receipts, s.sales, date), nil
}

func (s *Service) SalesByHourCumulative(ctx context.Context, date bizday.Date) ([]analytics.HourSales, error) {
	date, snapshot, err := s.loadSalesDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return analytics.SalesByHourCumulative(snapshot.Receipts, s.sales, date), nil
}

func (s *Service) SalesByHourLastWeeks(ctx context.Context, date bizday.Date) ([]analytics.DatedSeries, error) {
	date, snapshot, err := s.loadSalesHistory(ctx, date)
	if err != nil {
		return nil, err
	}
	return analytics.SalesByHourLastWeeks(snapshot.Receipts, s.sales, date), nil
}

func (s *Service) SalesByCategory(ctx context.Context, date bizday.Date, filter analytics.LineFilter) ([]analytics.SubgroupSales, error) {
	date, snapshot, err := s.loadSalesDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.engine.SalesByCategory(snapshot, s.sales, date, filter), nil
}

func (s *Service) TopProducts(ctx context.Context, date bizday.Date, limit int, filter analytics.LineFilter) ([]analytics.ItemSales, error) {
	date, snapshot, err := s.loadSalesDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.engine.TopProducts(snapshot, s.sales, date, limit, filter), nil
}

func (s *Service) Receipts(ctx context.Context, date bizday.Date) ([]analytics.ReceiptRow, error) {
	date, snapshot, err := s.loadSalesDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return analytics.ReceiptsForDate(snapshot, s.sales, date), nil
}

func (s *Service) Summarize(ctx context.Context, widget string, data any) (string, error) {
	return s.narrator.Summarize(ctx, widget, data)
}
