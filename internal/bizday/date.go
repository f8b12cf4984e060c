package bizday

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// mondayAnchor is a known Monday used for locale-independent weekday math.
var mondayAnchor = Date{Year: 2000, Month: time.January, Day: 3}

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Date is a calendar date without time or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the wall-clock date of t, ignoring its location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", raw)
	}
	return DateOf(parsed), nil
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(dateLayout)
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// DaysSince returns d - other in whole days.
func (d Date) DaysSince(other Date) int {
	return int((d.Time().Unix() - other.Time().Unix()) / 86400)
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// Within reports whether from <= d <= to.
func (d Date) Within(from, to Date) bool {
	return !d.Before(from) && !d.After(to)
}

// WeekdayIndex is 0 for Monday through 6 for Sunday.
func (d Date) WeekdayIndex() int {
	return ((d.DaysSince(mondayAnchor) % 7) + 7) % 7
}

func (d Date) WeekdayLabel() string {
	return weekdayLabels[d.WeekdayIndex()]
}

func WeekdayLabel(index int) string {
	return weekdayLabels[((index%7)+7)%7]
}

func (d Date) StartOfWeek() Date {
	return d.AddDays(-d.WeekdayIndex())
}

func (d Date) StartOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// EnumerateDates returns the count dates ending at end, newest first.
func EnumerateDates(end Date, count int) []Date {
	if count <= 0 {
		return []Date{}
	}
	dates := make([]Date, 0, count)
	for i := 0; i < count; i++ {
		dates = append(dates, end.AddDays(-i))
	}
	return dates
}
