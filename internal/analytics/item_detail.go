package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const recentReceiptLimit = 5

// ItemDetail profiles one item over the last days business dates: summary
// figures from positive-quantity lines, a daily series and the most recent
// receipts containing it. An item missing from the catalog is still profiled
// from its lines, with Found false.
func (e *Engine) ItemDetail(snapshot domain.Snapshot, cal bizday.Calendar, code string, days int) ItemDetail {
	days = Clamp(days, 1, 365)
	code = strings.TrimSpace(code)
	catalog := e.catalog(snapshot)

	out := ItemDetail{
		ItemCode:       code,
		Subgroup:       domain.UnknownSubgroup,
		Days:           days,
		Summary:        ItemDetailSummary{Units: decimal.Zero, Amount: decimal.Zero},
		Daily:          []ItemDay{},
		RecentReceipts: []ItemReceipt{},
	}
	if item, ok := catalog.Item(code); ok {
		out.Found = true
		out.Title = strings.TrimSpace(item.Title)
		out.Subgroup = catalog.Subgroup(code)
	}

	receiptTime := make(map[int64]time.Time, len(snapshot.Receipts))
	for _, r := range snapshot.Receipts {
		receiptTime[r.ID] = r.Timestamp
	}

	lines := make([]placedLine, 0)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, IncludeAllLines) {
		if line.ItemCode == code {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return out
	}

	var last time.Time
	for _, line := range lines {
		if ts := receiptTime[line.ReceiptID]; ts.After(last) {
			last = ts
		}
	}
	formatted := last.Format("2006-01-02 15:04")
	out.LastPurchased = &formatted

	ref, _ := LatestDate(snapshot.Receipts, cal)
	from, to := trailingWindow(ref, days)

	receipts := make(map[int64]struct{})
	daily := make(map[bizday.Date]Bucket)
	var priceSum decimal.Decimal
	var priceMin, priceMax decimal.Decimal
	priced := 0
	for _, line := range lines {
		if !line.Date.Within(from, to) {
			continue
		}
		receipts[line.ReceiptID] = struct{}{}
		if !line.Quantity.IsPositive() {
			continue
		}
		amount := line.Amount()
		out.Summary.Units = out.Summary.Units.Add(line.Quantity)
		out.Summary.Amount = out.Summary.Amount.Add(amount)
		daily[line.Date] = daily[line.Date].Add(Bucket{Quantity: line.Quantity, Amount: amount})
		if line.UnitPrice.IsPositive() {
			if priced == 0 || line.UnitPrice.LessThan(priceMin) {
				priceMin = line.UnitPrice
			}
			if priced == 0 || line.UnitPrice.GreaterThan(priceMax) {
				priceMax = line.UnitPrice
			}
			priceSum = priceSum.Add(line.UnitPrice)
			priced++
		}
	}
	out.Summary.Receipts = len(receipts)
	if priced > 0 {
		avg := priceSum.Div(decimal.NewFromInt(int64(priced))).Round(2)
		out.Summary.MinPrice = &priceMin
		out.Summary.AvgPrice = &avg
		out.Summary.MaxPrice = &priceMax
	}

	dates := make([]bizday.Date, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		out.Daily = append(out.Daily, ItemDay{Date: d, Qty: daily[d].Quantity, Amount: daily[d].Amount})
	}

	out.RecentReceipts = recentItemReceipts(lines, receiptTime)
	return out
}

func recentItemReceipts(lines []placedLine, receiptTime map[int64]time.Time) []ItemReceipt {
	type acc struct {
		qty, amount, priceSum decimal.Decimal
		priced                int
	}
	byReceipt := make(map[int64]*acc)
	for _, line := range lines {
		a, ok := byReceipt[line.ReceiptID]
		if !ok {
			a = &acc{}
			byReceipt[line.ReceiptID] = a
		}
		if !line.Quantity.IsPositive() {
			continue
		}
		a.qty = a.qty.Add(line.Quantity)
		a.amount = a.amount.Add(line.Amount())
		if line.UnitPrice.IsPositive() {
			a.priceSum = a.priceSum.Add(line.UnitPrice)
			a.priced++
		}
	}

	ids := make([]int64, 0, len(byReceipt))
	for id := range byReceipt {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := receiptTime[ids[i]], receiptTime[ids[j]]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ids[i] > ids[j]
	})

	out := make([]ItemReceipt, 0, recentReceiptLimit)
	for _, id := range truncate(ids, recentReceiptLimit) {
		a := byReceipt[id]
		row := ItemReceipt{
			ReceiptID: id,
			Timestamp: receiptTime[id].Format("2006-01-02 15:04"),
			Qty:       a.qty,
			UnitPrice: decimal.Zero,
			Amount:    a.amount,
		}
		if a.priced > 0 {
			row.UnitPrice = a.priceSum.Div(decimal.NewFromInt(int64(a.priced))).Round(2)
		}
		out = append(out, row)
	}
	return out
}
