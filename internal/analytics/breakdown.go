package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// DailyKPIs summarizes the latest business date in the snapshot.
func DailyKPIs(snapshot domain.Snapshot, cal bizday.Calendar, filter LineFilter) KPIs {
	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return KPIs{AvgReceiptValue: decimal.Zero}
	}

	receipts := windowReceipts(snapshot.Receipts, cal, ref, ref)
	var amount decimal.Decimal
	for _, r := range receipts {
		amount = amount.Add(r.Amount)
	}

	var units decimal.Decimal
	unique := make(map[string]struct{})
	for _, line := range placeLines(snapshot.Lines, receipts, cal, filter) {
		units = units.Add(line.Quantity)
		unique[line.ItemCode] = struct{}{}
	}

	out := KPIs{
		BusinessDate:    ref,
		TotalReceipts:   len(receipts),
		AvgReceiptValue: decimal.Zero,
		UniqueItems:     len(unique),
	}
	if len(receipts) > 0 {
		count := decimal.NewFromInt(int64(len(receipts)))
		out.AvgReceiptValue = amount.Div(count).Round(2)
		out.ItemsPerReceipt = round2(ratio(units, count))
	}
	return out
}

// ReceiptsByDay lists receipt count and receipt amount per business date over
// the last days dates, newest first. Dates without receipts are omitted.
func ReceiptsByDay(receipts []domain.Receipt, cal bizday.Calendar, days int) []DaySummary {
	days = Clamp(days, 1, 60)
	ref, ok := LatestDate(receipts, cal)
	if !ok {
		return []DaySummary{}
	}
	from, to := trailingWindow(ref, days)
	byDay := AggregateByDay(windowReceipts(receipts, cal, from, to), cal)

	out := make([]DaySummary, 0, len(byDay))
	for _, date := range bizday.EnumerateDates(to, days) {
		b, ok := byDay[date]
		if !ok {
			continue
		}
		out = append(out, DaySummary{Date: date, Receipts: b.Count, Amount: b.Amount})
	}
	return out
}

// HourlyForDate returns 24 zero-filled receipt counts and receipt amounts for one business date.
func HourlyForDate(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) []HourCount {
	hours := AggregateByDayAndHour(windowReceipts(receipts, cal, date, date), cal)[date]
	out := make([]HourCount, 0, bizday.HoursPerDay)
	for h := 0; h < bizday.HoursPerDay; h++ {
		b := hours[h]
		out = append(out, HourCount{BusinessHour: h, ClockHour: cal.ClockHour(h), Receipts: b.Count, Amount: b.Amount})
	}
	return out
}

// HourlyLatestDay is HourlyForDate for the latest business date in the snapshot.
func HourlyLatestDay(receipts []domain.Receipt, cal bizday.Calendar) []HourCount {
	ref, ok := LatestDate(receipts, cal)
	if !ok {
		return HourlyForDate(nil, cal, bizday.Date{})
	}
	return HourlyForDate(receipts, cal, ref)
}

// itemTotals sums quantity and amount per item code over the trailing window.
func itemTotals(snapshot domain.Snapshot, cal bizday.Calendar, days int, filter LineFilter, keep func(code string) bool) map[string]Bucket {
	out := make(map[string]Bucket)
	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return out
	}
	from, to := trailingWindow(ref, days)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, filter) {
		if !line.Date.Within(from, to) {
			continue
		}
		if keep != nil && !keep(line.ItemCode) {
			continue
		}
		out[line.ItemCode] = out[line.ItemCode].Add(Bucket{Quantity: line.Quantity, Amount: line.Amount()})
	}
	return out
}

func sortedItemSales(totals map[string]Bucket, catalog *Catalog, limit int) []ItemSales {
	rows := make([]ItemSales, 0, len(totals))
	for code, b := range totals {
		rows = append(rows, ItemSales{ItemCode: code, Item: catalog.Label(code), Qty: b.Quantity, Amount: b.Amount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Qty.Cmp(rows[j].Qty); c != 0 {
			return c > 0
		}
		if rows[i].Item != rows[j].Item {
			return rows[i].Item < rows[j].Item
		}
		return rows[i].ItemCode < rows[j].ItemCode
	})
	return truncate(rows, limit)
}

// TopItems ranks items by quantity over the last days business dates.
func (e *Engine) TopItems(snapshot domain.Snapshot, cal bizday.Calendar, days, limit int, filter LineFilter) []ItemSales {
	days = Clamp(days, 1, 30)
	limit = Clamp(limit, 1, 50)
	return sortedItemSales(itemTotals(snapshot, cal, days, filter, nil), e.catalog(snapshot), limit)
}

// TopItemsInSubgroup is TopItems restricted to one resolved subgroup label.
func (e *Engine) TopItemsInSubgroup(snapshot domain.Snapshot, cal bizday.Calendar, subgroup string, days, limit int, filter LineFilter) []ItemSales {
	days = Clamp(days, 1, 60)
	limit = Clamp(limit, 1, 50)
	catalog := e.catalog(snapshot)
	subgroup = strings.TrimSpace(subgroup)
	keep := func(code string) bool {
		return MatchesSubgroup(catalog.Subgroup(code), subgroup)
	}
	return sortedItemSales(itemTotals(snapshot, cal, days, filter, keep), catalog, limit)
}

// SubgroupContribution ranks resolved subgroups by line amount.
func (e *Engine) SubgroupContribution(snapshot domain.Snapshot, cal bizday.Calendar, days, limit int, filter LineFilter) []SubgroupSales {
	days = Clamp(days, 1, 60)
	limit = Clamp(limit, 1, 50)
	catalog := e.catalog(snapshot)

	bySubgroup := make(map[string]Bucket)
	for code, b := range itemTotals(snapshot, cal, days, filter, nil) {
		label := catalog.Subgroup(code)
		bySubgroup[label] = bySubgroup[label].Add(b)
	}
	return sortedSubgroupSales(bySubgroup, limit)
}

func sortedSubgroupSales(bySubgroup map[string]Bucket, limit int) []SubgroupSales {
	rows := make([]SubgroupSales, 0, len(bySubgroup))
	for label, b := range bySubgroup {
		rows = append(rows, SubgroupSales{Subgroup: label, Qty: b.Quantity, Amount: b.Amount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Subgroup < rows[j].Subgroup
	})
	return truncate(rows, limit)
}

// SubgroupVelocity compares subgroup line amount over the last 7 business
// dates with the 7 before.
func (e *Engine) SubgroupVelocity(snapshot domain.Snapshot, cal bizday.Calendar, days, top int, filter LineFilter) ([]DeltaRow, error) {
	days = Clamp(days, 14, 60)
	top = Clamp(top, 1, 20)
	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return []DeltaRow{}, nil
	}
	from, to := trailingWindow(ref, days)
	catalog := e.catalog(snapshot)

	series := make(map[string]map[bizday.Date]decimal.Decimal)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, filter) {
		if !line.Date.Within(from, to) {
			continue
		}
		label := catalog.Subgroup(line.ItemCode)
		if series[label] == nil {
			series[label] = make(map[bizday.Date]decimal.Decimal)
		}
		series[label][line.Date] = series[label][line.Date].Add(line.Amount())
	}

	rows, err := PeriodOverPeriodDelta(series, 7)
	if err != nil {
		return nil, err
	}
	return truncate(rows, top), nil
}

var itemsPerReceiptBins = []struct {
	label string
	upTo  int64
}{
	{"1", 1}, {"2", 2}, {"3", 3}, {"4", 4}, {"5", 5},
	{"6-10", 10}, {"11-15", 15}, {"16-20", 20},
}

// ItemsPerReceiptHistogram bins receipts by total line quantity, rounded up
// for weighed goods. Every bin is returned, empty ones with a zero count.
func ItemsPerReceiptHistogram(snapshot domain.Snapshot, cal bizday.Calendar, days int, filter LineFilter) []HistogramBin {
	days = Clamp(days, 1, 60)
	bins := make([]HistogramBin, 0, len(itemsPerReceiptBins)+1)
	for _, b := range itemsPerReceiptBins {
		bins = append(bins, HistogramBin{Bin: b.label})
	}
	bins = append(bins, HistogramBin{Bin: "20+"})

	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return bins
	}
	from, to := trailingWindow(ref, days)

	perReceipt := make(map[int64]decimal.Decimal)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, filter) {
		if line.Date.Within(from, to) {
			perReceipt[line.ReceiptID] = perReceipt[line.ReceiptID].Add(line.Quantity)
		}
	}
	for _, qty := range perReceipt {
		count := qty.Ceil().IntPart()
		idx := len(bins) - 1
		for i, b := range itemsPerReceiptBins {
			if count <= b.upTo {
				idx = i
				break
			}
		}
		bins[idx].Count++
	}
	return bins
}

var receiptAmountBins = []struct {
	label string
	below decimal.Decimal
}{
	{"0-100k", decimal.NewFromInt(100_000)},
	{"100-250k", decimal.NewFromInt(250_000)},
	{"250-500k", decimal.NewFromInt(500_000)},
	{"500k-1M", decimal.NewFromInt(1_000_000)},
	{"1-2M", decimal.NewFromInt(2_000_000)},
	{"2-5M", decimal.NewFromInt(5_000_000)},
	{"5-10M", decimal.NewFromInt(10_000_000)},
}

// ReceiptAmountHistogram bins receipt-level amounts.
func ReceiptAmountHistogram(receipts []domain.Receipt, cal bizday.Calendar, days int) []HistogramBin {
	days = Clamp(days, 1, 60)
	bins := make([]HistogramBin, 0, len(receiptAmountBins)+1)
	for _, b := range receiptAmountBins {
		bins = append(bins, HistogramBin{Bin: b.label})
	}
	bins = append(bins, HistogramBin{Bin: "10M+"})

	ref, ok := LatestDate(receipts, cal)
	if !ok {
		return bins
	}
	from, to := trailingWindow(ref, days)
	for _, r := range windowReceipts(receipts, cal, from, to) {
		idx := len(bins) - 1
		for i, b := range receiptAmountBins {
			if r.Amount.LessThan(b.below) {
				idx = i
				break
			}
		}
		bins[idx].Count++
	}
	return bins
}
