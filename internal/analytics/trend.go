package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const scoreEpsilon = 1e-9

// HourlyProfile averages receipts and line amount per business hour over the
// last lookbackDays business dates that actually have receipts. It always
// returns 24 rows.
func HourlyProfile(snapshot domain.Snapshot, cal bizday.Calendar, lookbackDays int) []HourlyProfileRow {
	lookbackDays = Clamp(lookbackDays, 1, 90)

	distinct := make(map[bizday.Date]struct{})
	for _, r := range snapshot.Receipts {
		distinct[cal.Date(r.Timestamp)] = struct{}{}
	}
	dates := make([]bizday.Date, 0, len(distinct))
	for d := range distinct {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	if len(dates) > lookbackDays {
		dates = dates[:lookbackDays]
	}
	kept := make(map[bizday.Date]struct{}, len(dates))
	for _, d := range dates {
		kept[d] = struct{}{}
	}

	var counts [bizday.HoursPerDay]int
	var amounts [bizday.HoursPerDay]decimal.Decimal
	for _, r := range snapshot.Receipts {
		date, hour := cal.Locate(r.Timestamp)
		if _, ok := kept[date]; ok {
			counts[hour]++
		}
	}
	for _, line := range placeLines(snapshot.Lines, snapshot.Receipts, cal, IncludeAllLines) {
		if _, ok := kept[line.Date]; ok {
			amounts[line.Hour] = amounts[line.Hour].Add(line.Amount())
		}
	}

	days := len(dates)
	rows := make([]HourlyProfileRow, 0, bizday.HoursPerDay)
	for h := 0; h < bizday.HoursPerDay; h++ {
		row := HourlyProfileRow{
			BusinessHour:  h,
			ClockHour:     cal.ClockHour(h),
			TotalReceipts: counts[h],
			DaysObserved:  days,
		}
		if days > 0 {
			row.AvgReceipts = float64(counts[h]) / float64(days)
			row.AvgAmount = floatOf(amounts[h]) / float64(days)
		}
		rows = append(rows, row)
	}
	return rows
}

// DayOfWeekProfile averages daily receipt counts per weekday (0=Monday) over
// the lookbackDays calendar window ending at the latest business date.
func DayOfWeekProfile(receipts []domain.Receipt, cal bizday.Calendar, lookbackDays int) []DayOfWeekRow {
	lookbackDays = Clamp(lookbackDays, 7, 140)

	rows := make([]DayOfWeekRow, 7)
	for i := range rows {
		rows[i] = DayOfWeekRow{DowIndex: i, DowLabel: bizday.WeekdayLabel(i)}
	}

	ref, ok := LatestDate(receipts, cal)
	if !ok {
		return rows
	}
	from, to := trailingWindow(ref, lookbackDays)

	daily := make(map[bizday.Date]int)
	for _, r := range receipts {
		date := cal.Date(r.Timestamp)
		if date.Within(from, to) {
			daily[date]++
		}
	}

	var totals [7]int
	for date, count := range daily {
		idx := date.WeekdayIndex()
		totals[idx] += count
		rows[idx].DaysObserved++
	}
	for i := range rows {
		if rows[i].DaysObserved > 0 {
			rows[i].AvgReceipts = float64(totals[i]) / float64(rows[i].DaysObserved)
		}
	}
	return rows
}

// PeriodOverPeriodDelta compares, per key, the last windowDays ending at the
// latest date in series with the windowDays before that. DeltaPct is nil when
// the previous total is not positive.
func PeriodOverPeriodDelta(series map[string]map[bizday.Date]decimal.Decimal, windowDays int) ([]DeltaRow, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: delta window must be at least one day", domain.ErrInvalidConfig)
	}

	var ref bizday.Date
	found := false
	for _, byDate := range series {
		for date := range byDate {
			if !found || date.After(ref) {
				ref = date
				found = true
			}
		}
	}
	if !found {
		return []DeltaRow{}, nil
	}

	curFrom := ref.AddDays(-(windowDays - 1))
	prevFrom := curFrom.AddDays(-windowDays)
	prevTo := curFrom.AddDays(-1)

	rows := make([]DeltaRow, 0, len(series))
	for key, byDate := range series {
		var cur, prev decimal.Decimal
		inWindow := false
		for date, value := range byDate {
			switch {
			case date.Within(curFrom, ref):
				cur = cur.Add(value)
				inWindow = true
			case date.Within(prevFrom, prevTo):
				prev = prev.Add(value)
				inWindow = true
			}
		}
		if !inWindow {
			continue
		}
		row := DeltaRow{Key: key, CurrentTotal: cur, PreviousTotal: prev}
		if prev.IsPositive() {
			delta := ratio(cur, prev) - 1
			row.DeltaPct = &delta
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		di, dj := absDelta(rows[i].DeltaPct), absDelta(rows[j].DeltaPct)
		if math.Abs(di-dj) > scoreEpsilon {
			return di > dj
		}
		return rows[i].Key < rows[j].Key
	})
	return rows, nil
}

func absDelta(delta *float64) float64 {
	if delta == nil {
		return 0
	}
	return math.Abs(*delta)
}

// HourMask marks which business hours may take part in a rolling window.
type HourMask [bizday.HoursPerDay]bool

// DefaultOperationalClockHours is the trading day used when none is configured:
// 08:00 through 03:59.
var DefaultOperationalClockHours = []int{8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 0, 1, 2, 3}

// OperationalMask converts clock hours into a business-hour mask.
func OperationalMask(cal bizday.Calendar, clockHours ...int) HourMask {
	var mask HourMask
	for _, clock := range clockHours {
		mask[cal.BusinessHour(clock)] = true
	}
	return mask
}

func AllHours() HourMask {
	var mask HourMask
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// BestAndWorstWindows slides a window of windowHours consecutive business
// hours over the profile. A window is a candidate only when every hour it
// covers is in the mask.
func BestAndWorstWindows(profile []HourlyProfileRow, windowHours int, mask HourMask, topN, bottomN int) (WindowReport, error) {
	if windowHours < 1 || windowHours > bizday.HoursPerDay {
		return WindowReport{}, fmt.Errorf("%w: window must cover 1..24 hours", domain.ErrInvalidConfig)
	}

	var avgReceipts, avgAmount [bizday.HoursPerDay]float64
	var clock [bizday.HoursPerDay]int
	for h := range clock {
		clock[h] = h
	}
	for _, row := range profile {
		if row.BusinessHour < 0 || row.BusinessHour >= bizday.HoursPerDay {
			continue
		}
		avgReceipts[row.BusinessHour] = row.AvgReceipts
		avgAmount[row.BusinessHour] = row.AvgAmount
		clock[row.BusinessHour] = row.ClockHour
	}

	candidates := make([]Window, 0, bizday.HoursPerDay)
	for start := 0; start < bizday.HoursPerDay; start++ {
		full := true
		w := Window{StartBusinessHour: start, StartClock: clock[start]}
		for k := 0; k < windowHours; k++ {
			h := (start + k) % bizday.HoursPerDay
			if !mask[h] {
				full = false
				break
			}
			w.AvgReceipts += avgReceipts[h]
			w.AvgAmount += avgAmount[h]
		}
		if !full {
			continue
		}
		w.EndClock = clock[(start+windowHours-1)%bizday.HoursPerDay]
		candidates = append(candidates, w)
	}

	top := make([]Window, len(candidates))
	copy(top, candidates)
	sort.SliceStable(top, func(i, j int) bool {
		if math.Abs(top[i].AvgReceipts-top[j].AvgReceipts) > scoreEpsilon {
			return top[i].AvgReceipts > top[j].AvgReceipts
		}
		return top[i].StartBusinessHour < top[j].StartBusinessHour
	})
	quiet := make([]Window, len(candidates))
	copy(quiet, candidates)
	sort.SliceStable(quiet, func(i, j int) bool {
		if math.Abs(quiet[i].AvgReceipts-quiet[j].AvgReceipts) > scoreEpsilon {
			return quiet[i].AvgReceipts < quiet[j].AvgReceipts
		}
		return quiet[i].StartBusinessHour < quiet[j].StartBusinessHour
	})

	return WindowReport{
		Top:   truncate(top, topN),
		Quiet: truncate(quiet, bottomN),
	}, nil
}

func truncate[T any](rows []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// TopWindowsQuery mirrors the dashboard's rolling-window widget.
type TopWindowsQuery struct {
	WindowHours  int
	LookbackDays int
	Top          int
	Quiet        int
	ClockHours   []int
}

// TopWindows builds the hourly profile and ranks rolling windows restricted
// to the operational clock hours.
func (e *Engine) TopWindows(snapshot domain.Snapshot, cal bizday.Calendar, q TopWindowsQuery) (WindowReport, error) {
	windowHours := Clamp(q.WindowHours, 1, 8)
	top := Clamp(q.Top, 1, 10)
	quiet := Clamp(q.Quiet, 1, 10)
	clockHours := q.ClockHours
	if len(clockHours) == 0 {
		clockHours = DefaultOperationalClockHours
	}
	profile := HourlyProfile(snapshot, cal, q.LookbackDays)
	return BestAndWorstWindows(profile, windowHours, OperationalMask(cal, clockHours...), top, quiet)
}
