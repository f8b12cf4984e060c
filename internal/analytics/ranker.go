package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

type BucketSize string

const (
	BucketDaily   BucketSize = "daily"
	BucketWeekly  BucketSize = "weekly"
	BucketMonthly BucketSize = "monthly"
)

func ParseBucketSize(raw string) (BucketSize, error) {
	switch b := BucketSize(strings.ToLower(strings.TrimSpace(raw))); b {
	case BucketDaily, BucketWeekly, BucketMonthly:
		return b, nil
	default:
		return "", fmt.Errorf("%w: bucket must be one of daily, weekly, monthly", domain.ErrInvalidConfig)
	}
}

// Start maps a business date to the first date of its bucket. Weeks start on Monday.
func (b BucketSize) Start(d bizday.Date) bizday.Date {
	switch b {
	case BucketWeekly:
		return d.StartOfWeek()
	case BucketMonthly:
		return d.StartOfMonth()
	default:
		return d
	}
}

func (b BucketSize) Next(start bizday.Date) bizday.Date {
	switch b {
	case BucketWeekly:
		return start.AddDays(7)
	case BucketMonthly:
		return bizday.NewDate(start.Year, start.Month+1, 1)
	default:
		return start.AddDays(1)
	}
}

// Starts enumerates every bucket start overlapping [from, to], ascending.
func (b BucketSize) Starts(from, to bizday.Date) []bizday.Date {
	out := make([]bizday.Date, 0)
	for cur := b.Start(from); !cur.After(to); cur = b.Next(cur) {
		out = append(out, cur)
	}
	return out
}

type RankMetric string

const (
	RankTotal      RankMetric = "total"
	RankLastBucket RankMetric = "last_bucket"
)

func ParseRankMetric(raw string) (RankMetric, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return RankTotal, nil
	}
	switch m := RankMetric(trimmed); m {
	case RankTotal, RankLastBucket:
		return m, nil
	default:
		return "", fmt.Errorf("%w: rank_by must be one of total, last_bucket", domain.ErrInvalidConfig)
	}
}

// ItemSeries is one item's metric per bucket start.
type ItemSeries struct {
	ItemCode string
	Label    string
	Buckets  map[bizday.Date]decimal.Decimal
}

// Rank orders items by metric. last_bucket only looks at the latest bucket
// present in the given series, so callers filter before ranking. Items whose
// value is not positive are dropped; ties break on trimmed label, then code.
// topN <= 0 keeps every ranked item.
func Rank(series []ItemSeries, metric RankMetric, topN int) ([]RankedItem, error) {
	if metric != RankTotal && metric != RankLastBucket {
		return nil, fmt.Errorf("%w: unknown rank metric %q", domain.ErrInvalidConfig, metric)
	}

	var last bizday.Date
	hasLast := false
	if metric == RankLastBucket {
		for _, s := range series {
			for start := range s.Buckets {
				if !hasLast || start.After(last) {
					last = start
					hasLast = true
				}
			}
		}
	}

	ranked := make([]RankedItem, 0, len(series))
	for _, s := range series {
		var value decimal.Decimal
		switch metric {
		case RankTotal:
			for _, v := range s.Buckets {
				value = value.Add(v)
			}
		case RankLastBucket:
			if hasLast {
				value = s.Buckets[last]
			}
		}
		if !value.IsPositive() {
			continue
		}
		ranked = append(ranked, RankedItem{ItemCode: s.ItemCode, Item: strings.TrimSpace(s.Label), Value: value})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Value.Cmp(ranked[j].Value); c != 0 {
			return c > 0
		}
		if ranked[i].Item != ranked[j].Item {
			return ranked[i].Item < ranked[j].Item
		}
		return ranked[i].ItemCode < ranked[j].ItemCode
	})

	if topN > 0 {
		return truncate(ranked, topN), nil
	}
	return ranked, nil
}

const (
	maxTrendRangeDays = 730
	maxTrendItemCodes = 300
)

type ItemTrendsQuery struct {
	StartDate bizday.Date
	EndDate   bizday.Date
	Bucket    BucketSize
	TopN      int
	RankBy    RankMetric
	Subgroup  string
	ItemCodes []string
	Format    string
	Filter    LineFilter
}

// ValidateTrendRange checks an item trend date range before any rows are
// loaded for it.
func ValidateTrendRange(start, end bizday.Date) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", domain.ErrInvalidConfig)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start_date must be <= end_date", domain.ErrInvalidConfig)
	}
	if end.DaysSince(start) > maxTrendRangeDays {
		return fmt.Errorf("%w: date range too large, max %d days", domain.ErrInvalidConfig, maxTrendRangeDays)
	}
	return nil
}

// ItemTrends buckets item quantities over an explicit date range and keeps
// the top ranked items.
func (e *Engine) ItemTrends(snapshot domain.Snapshot, cal bizday.Calendar, q ItemTrendsQuery) (ItemTrendsReport, error) {
	if err := ValidateTrendRange(q.StartDate, q.EndDate); err != nil {
		return ItemTrendsReport{}, err
	}
	bucket, err := ParseBucketSize(string(q.Bucket))
	if err != nil {
		return ItemTrendsReport{}, err
	}
	rankBy, err := ParseRankMetric(string(q.RankBy))
	if err != nil {
		return ItemTrendsReport{}, err
	}
	format := strings.ToLower(strings.TrimSpace(q.Format))
	if format == "" {
		format = "long"
	}
	if format != "long" && format != "wide" {
		return ItemTrendsReport{}, fmt.Errorf("%w: format must be one of long, wide", domain.ErrInvalidConfig)
	}
	topN := Clamp(q.TopN, 1, 200)

	var codeFilter map[string]struct{}
	if len(q.ItemCodes) > 0 {
		codeFilter = make(map[string]struct{})
		for _, code := range truncate(q.ItemCodes, maxTrendItemCodes) {
			if trimmed := strings.TrimSpace(code); trimmed != "" {
				codeFilter[trimmed] = struct{}{}
			}
		}
	}
	subgroup := strings.TrimSpace(q.Subgroup)

	catalog := e.catalog(snapshot)
	qty := make(map[string]map[bizday.Date]decimal.Decimal)
	amount := make(map[string]map[bizday.Date]decimal.Decimal)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, q.Filter) {
		if !line.Date.Within(q.StartDate, q.EndDate) {
			continue
		}
		if codeFilter != nil {
			if _, ok := codeFilter[line.ItemCode]; !ok {
				continue
			}
		}
		if subgroup != "" && !MatchesSubgroup(catalog.Subgroup(line.ItemCode), subgroup) {
			continue
		}
		start := bucket.Start(line.Date)
		if qty[line.ItemCode] == nil {
			qty[line.ItemCode] = make(map[bizday.Date]decimal.Decimal)
			amount[line.ItemCode] = make(map[bizday.Date]decimal.Decimal)
		}
		qty[line.ItemCode][start] = qty[line.ItemCode][start].Add(line.Quantity)
		amount[line.ItemCode][start] = amount[line.ItemCode][start].Add(line.Amount())
	}

	series := make([]ItemSeries, 0, len(qty))
	for code, buckets := range qty {
		series = append(series, ItemSeries{ItemCode: code, Label: catalog.Label(code), Buckets: buckets})
	}
	ranked, err := Rank(series, rankBy, topN)
	if err != nil {
		return ItemTrendsReport{}, err
	}

	report := ItemTrendsReport{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Bucket:    bucket,
		RankBy:    rankBy,
		Format:    format,
		Buckets:   bucket.Starts(q.StartDate, q.EndDate),
		Items:     ranked,
		Rows:      []TrendPoint{},
		Wide:      []WideRow{},
	}

	if format == "wide" {
		report.Wide = make([]WideRow, 0, len(report.Buckets))
		for _, start := range report.Buckets {
			row := WideRow{BucketStart: start, Values: make(map[string]decimal.Decimal, len(ranked))}
			for _, item := range ranked {
				row.Values[item.ItemCode] = qty[item.ItemCode][start]
			}
			report.Wide = append(report.Wide, row)
		}
		return report, nil
	}

	for _, start := range report.Buckets {
		for _, item := range ranked {
			v, ok := qty[item.ItemCode][start]
			if !ok {
				continue
			}
			report.Rows = append(report.Rows, TrendPoint{
				BucketStart: start,
				ItemCode:    item.ItemCode,
				Item:        item.Item,
				Qty:         v,
				Amount:      amount[item.ItemCode][start],
			})
		}
	}
	return report, nil
}
