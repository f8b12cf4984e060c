package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

type DeadItemsQuery struct {
	LookbackDays int
	DeadDays     int
	MinQty       decimal.Decimal
	MinReceipts  int
	Q            string
	Subgroup     string
	Page         int
	PageSize     int
}

// itemActivity is one item's positive-quantity sales history.
type itemActivity struct {
	lastSold     bizday.Date
	qty          decimal.Decimal
	receipts     map[int64]struct{}
	soldInWindow bool
}

// DeadItems lists items that sold during the active window but not at all
// during the trailing dead window. Both windows end at the latest business
// date in the snapshot. A sale is any line with a positive quantity.
func (e *Engine) DeadItems(snapshot domain.Snapshot, cal bizday.Calendar, q DeadItemsQuery) (DeadItemsPage, error) {
	lookback := Clamp(q.LookbackDays, 1, 365)
	dead := Clamp(q.DeadDays, 1, 365)
	if dead >= lookback {
		return DeadItemsPage{}, fmt.Errorf("%w: dead_days must be shorter than lookback_days", domain.ErrInvalidConfig)
	}
	minReceipts := q.MinReceipts
	if minReceipts < 1 {
		minReceipts = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := Clamp(q.PageSize, 5, 200)

	out := DeadItemsPage{Page: page, PageSize: pageSize, Rows: []DeadItem{}}
	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return out, nil
	}
	out.ReferenceDate = ref
	activeFrom, _ := trailingWindow(ref, lookback)
	deadFrom, _ := trailingWindow(ref, dead)

	activity := make(map[string]*itemActivity)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, PositiveQuantityOnly) {
		if !line.Date.Within(activeFrom, ref) {
			continue
		}
		a, ok := activity[line.ItemCode]
		if !ok {
			a = &itemActivity{receipts: make(map[int64]struct{})}
			activity[line.ItemCode] = a
		}
		a.qty = a.qty.Add(line.Quantity)
		a.receipts[line.ReceiptID] = struct{}{}
		if line.Date.After(a.lastSold) {
			a.lastSold = line.Date
		}
		if line.Date.Within(deadFrom, ref) {
			a.soldInWindow = true
		}
	}

	catalog := e.catalog(snapshot)
	search := strings.ToLower(strings.TrimSpace(q.Q))
	subgroup := strings.TrimSpace(q.Subgroup)

	rows := make([]DeadItem, 0)
	for code, a := range activity {
		if a.soldInWindow || a.qty.LessThan(q.MinQty) || len(a.receipts) < minReceipts {
			continue
		}
		label := catalog.Label(code)
		group := catalog.Subgroup(code)
		if search != "" && !matchesSearch(code, label, search) {
			continue
		}
		if subgroup != "" && !MatchesSubgroup(group, subgroup) {
			continue
		}
		rows = append(rows, DeadItem{
			ItemCode:          code,
			Item:              label,
			Subgroup:          group,
			LastSoldDate:      a.lastSold,
			DaysSinceLastSale: ref.DaysSince(a.lastSold),
			QtyActive:         a.qty,
			ReceiptsActive:    len(a.receipts),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DaysSinceLastSale != rows[j].DaysSinceLastSale {
			return rows[i].DaysSinceLastSale > rows[j].DaysSinceLastSale
		}
		return rows[i].ItemCode < rows[j].ItemCode
	})

	out.Total = len(rows)
	out.Rows = paginate(rows, (page-1)*pageSize, pageSize)
	return out, nil
}

func matchesSearch(code, label, lowered string) bool {
	return strings.Contains(strings.ToLower(code), lowered) || strings.Contains(strings.ToLower(label), lowered)
}

func paginate[T any](rows []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return rows[:0:0]
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

const (
	FlagFast     = "FAST"
	FlagStockout = "STOCKOUT?"
	FlagSlow     = "SLOW"
)

// ReorderSortColumns lists the columns a reorder listing may be sorted by.
var ReorderSortColumns = []string{
	"itm_code", "itm_name", "score", "qty_7d", "qty_30d", "avg_daily_30d",
	"trend_ratio", "days_since_last_sale", "last_sold_bizdate", "flags",
}

var reorderLookbacks = map[int]bool{7: true, 14: true, 30: true, 90: true}

type ReorderQuery struct {
	LookbackDays int
	Q            string
	Subgroup     string
	OnlyAction   bool
	SortBy       string
	Desc         bool
	Offset       int
	Limit        int
}

// NormalizeReorderQuery applies defaults and whitelists. Unknown lookbacks
// fall back to 30 days and unknown sort columns to score.
func NormalizeReorderQuery(q ReorderQuery) ReorderQuery {
	if !reorderLookbacks[q.LookbackDays] {
		q.LookbackDays = 30
	}
	sortBy := strings.ToLower(strings.TrimSpace(q.SortBy))
	q.SortBy = "score"
	for _, col := range ReorderSortColumns {
		if col == sortBy {
			q.SortBy = col
			break
		}
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Limit = Clamp(q.Limit, 1, 5000)
	q.Q = strings.TrimSpace(q.Q)
	q.Subgroup = strings.TrimSpace(q.Subgroup)
	return q
}

type reorderStats struct {
	qty7, qty30, qty90 decimal.Decimal
	soldDays           map[bizday.Date]struct{}
	lastSold           bizday.Date
	inLookback         bool
}

// ReorderRadar scores catalog items for restocking from their 7, 30 and 90
// day sales relative to the latest business date in the snapshot. Only items
// known to the catalog with a line inside the lookback window are listed.
func (e *Engine) ReorderRadar(snapshot domain.Snapshot, cal bizday.Calendar, q ReorderQuery) ReorderPage {
	q = NormalizeReorderQuery(q)
	out := ReorderPage{Rows: []ReorderRow{}}
	ref, ok := LatestDate(snapshot.Receipts, cal)
	if !ok {
		return out
	}
	out.ReferenceDate = ref

	from7, _ := trailingWindow(ref, 7)
	from30, _ := trailingWindow(ref, 30)
	from90, _ := trailingWindow(ref, 90)
	fromLookback, _ := trailingWindow(ref, q.LookbackDays)

	stats := make(map[string]*reorderStats)
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, IncludeAllLines) {
		if !line.Date.Within(from90, ref) {
			continue
		}
		s, ok := stats[line.ItemCode]
		if !ok {
			s = &reorderStats{soldDays: make(map[bizday.Date]struct{})}
			stats[line.ItemCode] = s
		}
		s.qty90 = s.qty90.Add(line.Quantity)
		if line.Date.Within(from30, ref) {
			s.qty30 = s.qty30.Add(line.Quantity)
		}
		if line.Date.Within(from7, ref) {
			s.qty7 = s.qty7.Add(line.Quantity)
		}
		if line.Date.Within(fromLookback, ref) {
			s.inLookback = true
		}
		if line.Quantity.IsPositive() {
			s.soldDays[line.Date] = struct{}{}
			if line.Date.After(s.lastSold) {
				s.lastSold = line.Date
			}
		}
	}

	catalog := e.catalog(snapshot)
	search := strings.ToLower(q.Q)

	rows := make([]ReorderRow, 0, len(stats))
	for code, s := range stats {
		if !s.inLookback {
			continue
		}
		item, known := catalog.Item(code)
		if !known {
			continue
		}
		out.RecordsTotal++

		label := item.Label()
		group := catalog.Subgroup(code)
		if search != "" && !matchesSearch(code, label, search) {
			continue
		}
		if q.Subgroup != "" && !MatchesSubgroup(group, q.Subgroup) && item.Subgroup.Text != q.Subgroup {
			continue
		}

		row := scoreReorder(code, label, group, s, ref)
		if q.OnlyAction && row.Score < 5 && !hasFlag(row.Flags, FlagStockout) {
			continue
		}
		rows = append(rows, row)
	}

	sortReorderRows(rows, q.SortBy, q.Desc)
	out.RecordsFiltered = len(rows)
	out.Rows = paginate(rows, q.Offset, q.Limit)
	return out
}

func scoreReorder(code, label, group string, s *reorderStats, ref bizday.Date) ReorderRow {
	q7, q30, q90 := floatOf(s.qty7), floatOf(s.qty30), floatOf(s.qty90)
	avg30 := q30 / 30
	trend := (q7/7 + 0.001) / (q90/90 + 0.001)
	daysSold := len(s.soldDays)

	row := ReorderRow{
		ItemCode:     code,
		Item:         label,
		Subgroup:     group,
		Qty7d:        s.qty7,
		Qty30d:       s.qty30,
		Qty90d:       s.qty90,
		AvgDaily30d:  round3(avg30),
		TrendRatio:   round3(trend),
		DaysSold90d:  daysSold,
		LastSoldDate: s.lastSold,
		Flags:        []string{},
	}

	score := avg30 * 10
	switch {
	case trend >= 1.4:
		score += 6
		row.Flags = append(row.Flags, FlagFast)
	case trend >= 1.1:
		score += 3
	}
	if !s.lastSold.IsZero() {
		days := ref.DaysSince(s.lastSold)
		row.DaysSinceLastSale = &days
		if days >= 5 && daysSold >= 10 {
			score += 8
			row.Flags = append(row.Flags, FlagStockout)
		}
	}
	if q30 <= 2 && daysSold <= 3 {
		row.Flags = append(row.Flags, FlagSlow)
	}
	row.Score = round2(score)
	return row
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// sortReorderRows orders by the chosen column, then score desc, then code.
// Items never sold sort as the longest time since a sale.
func sortReorderRows(rows []ReorderRow, column string, desc bool) {
	cmp := func(a, b ReorderRow) int {
		switch column {
		case "itm_code":
			return strings.Compare(a.ItemCode, b.ItemCode)
		case "itm_name":
			return strings.Compare(a.Item, b.Item)
		case "qty_7d":
			return a.Qty7d.Cmp(b.Qty7d)
		case "qty_30d":
			return a.Qty30d.Cmp(b.Qty30d)
		case "avg_daily_30d":
			return compareFloat(a.AvgDaily30d, b.AvgDaily30d)
		case "trend_ratio":
			return compareFloat(a.TrendRatio, b.TrendRatio)
		case "days_since_last_sale":
			return compareInt(daysOrMax(a.DaysSinceLastSale), daysOrMax(b.DaysSinceLastSale))
		case "last_sold_bizdate":
			return compareInt(a.LastSoldDate.DaysSince(b.LastSoldDate), 0)
		case "flags":
			return strings.Compare(strings.Join(a.Flags, " "), strings.Join(b.Flags, " "))
		default:
			return compareFloat(a.Score, b.Score)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := cmp(rows[i], rows[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if c := compareFloat(rows[i].Score, rows[j].Score); c != 0 {
			return c > 0
		}
		return rows[i].ItemCode < rows[j].ItemCode
	})
}

func daysOrMax(days *int) int {
	if days == nil {
		return int(^uint(0) >> 1)
	}
	return *days
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b-scoreEpsilon:
		return -1
	case a > b+scoreEpsilon:
		return 1
	}
	return 0
}
