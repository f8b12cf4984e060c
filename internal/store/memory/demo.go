package memory

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const (
	DemoDays = 120

	demoSeed     = 20240311
	demoDayStart = 7
	// dormantAfter is how many days before the last demo day the dormant item
	// stops selling.
	dormantAfter = 50
)

type demoItem struct {
	code   string
	title  string
	ref    domain.SubgroupRef
	price  string
	weight int
}

// The subgroup column is deliberately mixed: numeric ids, names that only
// match after case folding, free text with no subgroup row, and blanks.
var demoItems = []demoItem{
	{"BEV-COLA", "Cola 330ml", domain.NumericSubgroup(1), "1.50", 30},
	{"BEV-WATER", "Mineral Water 600ml", domain.NumericSubgroup(1), "0.75", 26},
	{"BEV-COFFEE", "Coffee Sachet", domain.TextSubgroup("beverages"), "0.40", 18},
	{"BEV-TEA", "Black Tea Bags", domain.TextSubgroup("BEVERAGES"), "2.10", 8},
	{"BAK-BREAD", "White Bread", domain.NumericSubgroup(2), "2.20", 22},
	{"BAK-CROIS", "Butter Croissant", domain.TextSubgroup("bakery"), "1.10", 14},
	{"SNK-CHIPS", "Cassava Chips", domain.NumericSubgroup(3), "1.80", 16},
	{"SNK-CHOCO", "Chocolate Bar", domain.NumericSubgroup(3), "1.25", 15},
	{"DRY-MILK", "UHT Milk 1L", domain.NumericSubgroup(4), "1.90", 17},
	{"DRY-EGGS", "Eggs x10", domain.TextSubgroup("Dairy"), "3.40", 12},
	{"HH-SOAP", "Bath Soap", domain.NumericSubgroup(5), "0.95", 6},
	{"HH-SHAMPOO", "Shampoo Sachet", domain.TextSubgroup("household"), "0.35", 5},
	{"TOB-LIGHTER", "Lighter", domain.TextSubgroup("Tobacco & Co"), "0.60", 4},
	{"MISC-BAG", "Carrier Bag", domain.EmptySubgroup(), "0.10", 9},
	{"SPC-ZAATAR", "Zaatar Mix 250g", domain.NumericSubgroup(6), "4.50", 3},
	{"SPC-SUMAC", "  ", domain.NumericSubgroup(6), "3.80", 0},
}

var demoSubgroups = []domain.Subgroup{
	{ID: 1, Name: "Beverages"},
	{ID: 2, Name: "Bakery"},
	{ID: 3, Name: "Snacks"},
	{ID: 4, Name: "Dairy"},
	{ID: 5, Name: "Household"},
	{ID: 6, Name: "Spices"},
}

// demoHourWeights are receipt weights per clock hour. The shop opens at 07:00
// and trades past midnight.
var demoHourWeights = [24]int{
	0: 3, 1: 2, 2: 1,
	7: 4, 8: 6, 9: 6, 10: 5, 11: 6, 12: 8, 13: 7, 14: 5, 15: 5,
	16: 6, 17: 8, 18: 10, 19: 12, 20: 12, 21: 9, 22: 7, 23: 5,
}

// DemoSnapshot generates a deterministic snapshot covering the days business
// days that end on the business date of last. Timestamps are naive wall-clock
// values labelled UTC.
func DemoSnapshot(last time.Time, days int) domain.Snapshot {
	rng := rand.New(rand.NewPCG(demoSeed, demoSeed))

	shifted := last.Add(-demoDayStart * time.Hour)
	lastDay := time.Date(shifted.Year(), shifted.Month(), shifted.Day(), 0, 0, 0, 0, time.UTC)

	items := make([]domain.Item, 0, len(demoItems))
	for _, it := range demoItems {
		items = append(items, domain.Item{Code: it.code, Title: it.title, Subgroup: it.ref})
	}

	snapshot := domain.Snapshot{
		Items:     items,
		Subgroups: append([]domain.Subgroup(nil), demoSubgroups...),
	}

	var nextID int64 = 1
	for back := days - 1; back >= 0; back-- {
		day := lastDay.AddDate(0, 0, -back)
		count := receiptsForDay(rng, day)
		for i := 0; i < count; i++ {
			ts := day.Add(time.Duration(pickHour(rng)) * time.Hour).
				Add(time.Duration(rng.IntN(3600)) * time.Second)
			if ts.Hour() < demoDayStart {
				ts = ts.AddDate(0, 0, 1)
			}

			lines, amount := demoBasket(rng, nextID, back)
			snapshot.Receipts = append(snapshot.Receipts, domain.Receipt{ID: nextID, Timestamp: ts, Amount: amount})
			snapshot.Lines = append(snapshot.Lines, lines...)
			nextID++
		}
	}
	return snapshot
}

func receiptsForDay(rng *rand.Rand, day time.Time) int {
	base := 28
	switch day.Weekday() {
	case time.Friday:
		base = 38
	case time.Saturday:
		base = 44
	case time.Sunday:
		base = 22
	}
	return base + rng.IntN(10)
}

func pickHour(rng *rand.Rand) int {
	total := 0
	for _, w := range demoHourWeights {
		total += w
	}
	n := rng.IntN(total)
	for h, w := range demoHourWeights {
		if n < w {
			return h
		}
		n -= w
	}
	return 12
}

func pickItem(rng *rand.Rand, daysBack int) demoItem {
	total := 0
	for _, it := range demoItems {
		if it.code == "SPC-ZAATAR" && daysBack < dormantAfter {
			continue
		}
		total += it.weight
	}
	n := rng.IntN(total)
	for _, it := range demoItems {
		if it.code == "SPC-ZAATAR" && daysBack < dormantAfter {
			continue
		}
		if n < it.weight {
			return it
		}
		n -= it.weight
	}
	return demoItems[0]
}

// demoBasket builds one receipt's lines. A few baskets carry a refund line or
// an item code missing from the catalog, and the receipt amount sometimes
// includes a rounding discount so it differs from the line total.
func demoBasket(rng *rand.Rand, receiptID int64, daysBack int) ([]domain.ReceiptLine, decimal.Decimal) {
	size := 1 + rng.IntN(4)
	lines := make([]domain.ReceiptLine, 0, size+1)
	used := make(map[string]bool, size)
	total := decimal.Zero

	for len(lines) < size {
		it := pickItem(rng, daysBack)
		if used[it.code] {
			size--
			continue
		}
		used[it.code] = true
		qty := decimal.NewFromInt(int64(1 + rng.IntN(3)))
		price := decimal.RequireFromString(it.price)
		line := domain.ReceiptLine{ReceiptID: receiptID, ItemCode: it.code, Quantity: qty, UnitPrice: price}
		lines = append(lines, line)
		total = total.Add(line.Amount())
	}

	switch roll := rng.IntN(100); {
	case roll < 2 && len(lines) > 0:
		refund := lines[0]
		refund.Quantity = decimal.NewFromInt(-1)
		lines = append(lines, refund)
		total = total.Add(refund.Amount())
	case roll < 3:
		legacy := domain.ReceiptLine{
			ReceiptID: receiptID,
			ItemCode:  "LEGACY-990",
			Quantity:  decimal.NewFromInt(1),
			UnitPrice: decimal.RequireFromString("2.00"),
		}
		lines = append(lines, legacy)
		total = total.Add(legacy.Amount())
	}

	if rng.IntN(10) == 0 {
		total = total.Mul(decimal.RequireFromString("0.95")).Round(2)
	}
	return lines, total
}
