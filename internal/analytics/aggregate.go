package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// Bucket is a commutative monoid: the zero value is the identity and Add is
// associative, so partial buckets over any partition of rows can be merged.
type Bucket struct {
	Count    int
	Quantity decimal.Decimal
	Amount   decimal.Decimal
}

func (b Bucket) Add(other Bucket) Bucket {
	return Bucket{
		Count:    b.Count + other.Count,
		Quantity: b.Quantity.Add(other.Quantity),
		Amount:   b.Amount.Add(other.Amount),
	}
}

func (b Bucket) Equal(other Bucket) bool {
	return b.Count == other.Count && b.Quantity.Equal(other.Quantity) && b.Amount.Equal(other.Amount)
}

// Dimension selects the grouping keys for GroupLines.
type Dimension uint8

const (
	DimDate Dimension = 1 << iota
	DimHour
	DimItem
	DimSubgroup
)

func (d Dimension) Has(flag Dimension) bool {
	return d&flag != 0
}

var dimensionNames = map[string]Dimension{
	"date":     DimDate,
	"hour":     DimHour,
	"item":     DimItem,
	"subgroup": DimSubgroup,
}

// ParseDimensions reads a comma separated list such as "date,item". An empty
// list groups everything into one bucket.
func ParseDimensions(raw string) (Dimension, error) {
	var dims Dimension
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		dim, ok := dimensionNames[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown dimension %q", domain.ErrInvalidConfig, name)
		}
		dims |= dim
	}
	return dims, nil
}

// AggregateByDay counts receipts and sums the receipt-level amount per business date.
func AggregateByDay(receipts []domain.Receipt, cal bizday.Calendar) map[bizday.Date]Bucket {
	out := make(map[bizday.Date]Bucket)
	for _, r := range receipts {
		date := cal.Date(r.Timestamp)
		out[date] = out[date].Add(Bucket{Count: 1, Amount: r.Amount})
	}
	return out
}

func AggregateByDayAndHour(receipts []domain.Receipt, cal bizday.Calendar) map[bizday.Date]map[int]Bucket {
	out := make(map[bizday.Date]map[int]Bucket)
	for _, r := range receipts {
		date, hour := cal.Locate(r.Timestamp)
		hours, ok := out[date]
		if !ok {
			hours = make(map[int]Bucket, bizday.HoursPerDay)
			out[date] = hours
		}
		hours[hour] = hours[hour].Add(Bucket{Count: 1, Amount: r.Amount})
	}
	return out
}

// placedLine is a receipt line joined to its receipt's business date and hour.
type placedLine struct {
	domain.ReceiptLine
	Date bizday.Date
	Hour int
}

// placeLines joins lines to receipts and applies the filter. Lines whose
// receipt is not in the batch are dropped.
func placeLines(lines []domain.ReceiptLine, receipts []domain.Receipt, cal bizday.Calendar, filter LineFilter) []placedLine {
	type slot struct {
		date bizday.Date
		hour int
	}
	index := make(map[int64]slot, len(receipts))
	for _, r := range receipts {
		date, hour := cal.Locate(r.Timestamp)
		index[r.ID] = slot{date: date, hour: hour}
	}

	out := make([]placedLine, 0, len(lines))
	for _, line := range lines {
		at, ok := index[line.ReceiptID]
		if !ok || !filter.Keep(line.Quantity) {
			continue
		}
		out = append(out, placedLine{ReceiptLine: line, Date: at.date, Hour: at.hour})
	}
	return out
}

// AggregateLinesByDayAndItem sums line quantity and quantity*unit price per
// business date and item code. Count is the number of distinct receipts.
func AggregateLinesByDayAndItem(lines []domain.ReceiptLine, receipts []domain.Receipt, cal bizday.Calendar, filter LineFilter) map[bizday.Date]map[string]Bucket {
	type key struct {
		date bizday.Date
		code string
	}
	seen := make(map[key]map[int64]struct{})
	out := make(map[bizday.Date]map[string]Bucket)
	for _, line := range placeLines(lines, receipts, cal, filter) {
		items, ok := out[line.Date]
		if !ok {
			items = make(map[string]Bucket)
			out[line.Date] = items
		}
		k := key{date: line.Date, code: line.ItemCode}
		if seen[k] == nil {
			seen[k] = make(map[int64]struct{})
		}
		count := 0
		if _, dup := seen[k][line.ReceiptID]; !dup {
			seen[k][line.ReceiptID] = struct{}{}
			count = 1
		}
		items[line.ItemCode] = items[line.ItemCode].Add(Bucket{Count: count, Quantity: line.Quantity, Amount: line.Amount()})
	}
	return out
}

type groupKey struct {
	date     bizday.Date
	hour     int
	item     string
	subgroup string
}

// GroupLines groups line-level sums by any subset of date, hour, item and
// subgroup. Count is distinct receipts per group. Output is sorted by key.
func GroupLines(snapshot domain.Snapshot, cal bizday.Calendar, catalog *Catalog, dims Dimension, filter LineFilter) []AggregateBucket {
	buckets := make(map[groupKey]Bucket)
	receiptsSeen := make(map[groupKey]map[int64]struct{})

	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, filter) {
		var k groupKey
		if dims.Has(DimDate) {
			k.date = line.Date
		}
		if dims.Has(DimHour) {
			k.hour = line.Hour
		}
		if dims.Has(DimItem) {
			k.item = line.ItemCode
		}
		if dims.Has(DimSubgroup) {
			k.subgroup = catalog.Subgroup(line.ItemCode)
		}

		if receiptsSeen[k] == nil {
			receiptsSeen[k] = make(map[int64]struct{})
		}
		count := 0
		if _, dup := receiptsSeen[k][line.ReceiptID]; !dup {
			receiptsSeen[k][line.ReceiptID] = struct{}{}
			count = 1
		}
		buckets[k] = buckets[k].Add(Bucket{Count: count, Quantity: line.Quantity, Amount: line.Amount()})
	}

	keys := make([]groupKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.date != b.date {
			return a.date.Before(b.date)
		}
		if a.hour != b.hour {
			return a.hour < b.hour
		}
		if a.subgroup != b.subgroup {
			return a.subgroup < b.subgroup
		}
		return a.item < b.item
	})

	out := make([]AggregateBucket, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		row := AggregateBucket{Count: b.Count, Quantity: b.Quantity, Amount: b.Amount}
		if dims.Has(DimDate) {
			date := k.date
			row.BusinessDate = &date
		}
		if dims.Has(DimHour) {
			hour := k.hour
			row.BusinessHour = &hour
		}
		if dims.Has(DimItem) {
			row.ItemCode = k.item
		}
		if dims.Has(DimSubgroup) {
			row.Subgroup = k.subgroup
		}
		out = append(out, row)
	}
	return out
}

// Group is GroupLines with the engine's catalog.
func (e *Engine) Group(snapshot domain.Snapshot, cal bizday.Calendar, dims Dimension, filter LineFilter) []AggregateBucket {
	return GroupLines(snapshot, cal, e.catalog(snapshot), dims, filter)
}

// LatestDate returns the most recent business date among receipts.
func LatestDate(receipts []domain.Receipt, cal bizday.Calendar) (bizday.Date, bool) {
	var latest bizday.Date
	found := false
	for _, r := range receipts {
		date := cal.Date(r.Timestamp)
		if !found || date.After(latest) {
			latest = date
			found = true
		}
	}
	return latest, found
}

// windowReceipts keeps receipts whose business date lies in [from, to].
func windowReceipts(receipts []domain.Receipt, cal bizday.Calendar, from, to bizday.Date) []domain.Receipt {
	out := make([]domain.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if cal.Date(r.Timestamp).Within(from, to) {
			out = append(out, r)
		}
	}
	return out
}

// trailingWindow returns [ref-days+1, ref].
func trailingWindow(ref bizday.Date, days int) (bizday.Date, bizday.Date) {
	return ref.AddDays(-(days - 1)), ref
}
