package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const (
	salesCategoryLimit = 20
	comparisonWeeks    = 4
)

// SalesHistoryDays is how far back a sales report reads to compare a date
// with the same weekday over the previous weeks.
const SalesHistoryDays = comparisonWeeks * 7

func dayTotal(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) (decimal.Decimal, int) {
	var total decimal.Decimal
	count := 0
	for _, r := range receipts {
		if cal.Date(r.Timestamp) == date {
			total = total.Add(r.Amount)
			count++
		}
	}
	return total, count
}

// growthPct is (cur-base)/base in percent, 0 when base is 0.
func growthPct(cur, base decimal.Decimal) float64 {
	if base.IsZero() {
		return 0
	}
	return round2(ratio(cur.Sub(base), base) * 100)
}

// SalesSummary reports receipt totals for one business date with growth
// against the previous date and against the mean of the same weekday over the
// previous four weeks.
func SalesSummary(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) SalesSummary {
	total, count := dayTotal(receipts, cal, date)
	yesterday, _ := dayTotal(receipts, cal, date.AddDays(-1))

	var weeks decimal.Decimal
	for i := 1; i <= comparisonWeeks; i++ {
		t, _ := dayTotal(receipts, cal, date.AddDays(-7*i))
		weeks = weeks.Add(t)
	}
	avg4w := weeks.Div(decimal.NewFromInt(comparisonWeeks))

	out := SalesSummary{
		Date:              date,
		TotalSales:        total,
		Receipts:          count,
		AvgTicket:         decimal.Zero,
		GrowthVsYesterday: growthPct(total, yesterday),
		GrowthVs4Week:     growthPct(total, avg4w),
	}
	if count > 0 {
		out.AvgTicket = total.Div(decimal.NewFromInt(int64(count))).Round(2)
	}

	if peak, ok := peakHour(receipts, cal, date); ok {
		label := fmt.Sprintf("%02d:00", cal.ClockHour(peak))
		out.PeakHour = &label
	}
	return out
}

// peakHour is the business hour with the largest receipt amount among hours
// that have receipts. Ties go to the earlier business hour.
func peakHour(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) (int, bool) {
	hours := AggregateByDayAndHour(windowReceipts(receipts, cal, date, date), cal)[date]
	peak, found := 0, false
	for h := 0; h < bizday.HoursPerDay; h++ {
		b, ok := hours[h]
		if !ok {
			continue
		}
		if !found || b.Amount.GreaterThan(hours[peak].Amount) {
			peak, found = h, true
		}
	}
	return peak, found
}

// SalesByHour returns receipt amounts for the 24 business hours of date.
func SalesByHour(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) []HourSales {
	var sums [bizday.HoursPerDay]decimal.Decimal
	for _, r := range receipts {
		d, h := cal.Locate(r.Timestamp)
		if d == date {
			sums[h] = sums[h].Add(r.Amount)
		}
	}
	out := make([]HourSales, 0, bizday.HoursPerDay)
	for h := 0; h < bizday.HoursPerDay; h++ {
		out = append(out, HourSales{BusinessHour: h, ClockHour: cal.ClockHour(h), Sales: sums[h]})
	}
	return out
}

// SalesByHourCumulative is SalesByHour as a running total.
func SalesByHourCumulative(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) []HourSales {
	out := SalesByHour(receipts, cal, date)
	var running decimal.Decimal
	for i := range out {
		running = running.Add(out[i].Sales)
		out[i].Sales = running
	}
	return out
}

// SalesByHourLastWeeks returns the hourly series of the same weekday for each
// of the four previous weeks, most recent first.
func SalesByHourLastWeeks(receipts []domain.Receipt, cal bizday.Calendar, date bizday.Date) []DatedSeries {
	out := make([]DatedSeries, 0, comparisonWeeks)
	for i := 1; i <= comparisonWeeks; i++ {
		d := date.AddDays(-7 * i)
		out = append(out, DatedSeries{Date: d, Series: SalesByHour(receipts, cal, d)})
	}
	return out
}

// dayLines places the lines of receipts on date.
func dayLines(snapshot domain.Snapshot, cal bizday.Calendar, date bizday.Date, filter LineFilter) []placedLine {
	return placeLines(snapshot.Lines, windowReceipts(snapshot.Receipts, cal, date, date), cal, filter)
}

// SalesByCategory ranks resolved subgroups by line amount on one date.
func (e *Engine) SalesByCategory(snapshot domain.Snapshot, cal bizday.Calendar, date bizday.Date, filter LineFilter) []SubgroupSales {
	catalog := e.catalog(snapshot)
	bySubgroup := make(map[string]Bucket)
	for _, line := range dayLines(snapshot, cal, date, filter) {
		label := catalog.Subgroup(line.ItemCode)
		bySubgroup[label] = bySubgroup[label].Add(Bucket{Quantity: line.Quantity, Amount: line.Amount()})
	}
	return sortedSubgroupSales(bySubgroup, salesCategoryLimit)
}

// TopProducts ranks items by line amount on one date.
func (e *Engine) TopProducts(snapshot domain.Snapshot, cal bizday.Calendar, date bizday.Date, limit int, filter LineFilter) []ItemSales {
	limit = Clamp(limit, 1, 100)
	catalog := e.catalog(snapshot)
	totals := make(map[string]Bucket)
	for _, line := range dayLines(snapshot, cal, date, filter) {
		totals[line.ItemCode] = totals[line.ItemCode].Add(Bucket{Quantity: line.Quantity, Amount: line.Amount()})
	}

	rows := make([]ItemSales, 0, len(totals))
	for code, b := range totals {
		rows = append(rows, ItemSales{ItemCode: code, Item: catalog.Label(code), Qty: b.Quantity, Amount: b.Amount})
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		if rows[i].Item != rows[j].Item {
			return rows[i].Item < rows[j].Item
		}
		return rows[i].ItemCode < rows[j].ItemCode
	})
	return truncate(rows, limit)
}

// ReceiptsForDate lists the receipts of one business date, newest first, with
// their line count. Receipts without lines are omitted.
func ReceiptsForDate(snapshot domain.Snapshot, cal bizday.Calendar, date bizday.Date) []ReceiptRow {
	receipts := windowReceipts(snapshot.Receipts, cal, date, date)
	lineCount := make(map[int64]int, len(receipts))
	for _, line := range placeLines(snapshot.Lines, receipts, cal, IncludeAllLines) {
		lineCount[line.ReceiptID]++
	}

	sort.SliceStable(receipts, func(i, j int) bool {
		if !receipts[i].Timestamp.Equal(receipts[j].Timestamp) {
			return receipts[i].Timestamp.After(receipts[j].Timestamp)
		}
		return receipts[i].ID > receipts[j].ID
	})

	out := make([]ReceiptRow, 0, len(receipts))
	for _, r := range receipts {
		n := lineCount[r.ID]
		if n == 0 {
			continue
		}
		out = append(out, ReceiptRow{
			ID:         r.ID,
			Datetime:   r.Timestamp.Format("2006-01-02 15:04"),
			ItemsCount: n,
			Total:      r.Amount,
		})
	}
	return out
}
