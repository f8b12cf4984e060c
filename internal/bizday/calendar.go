// Package bizday maps naive POS timestamps onto a business-day axis whose
// days start at a configurable clock hour instead of midnight.
package bizday

import (
	"fmt"
	"time"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const HoursPerDay = 24

// Calendar shifts timestamps back by StartHour hours. A receipt at 03:30 with a
// 07:00 start belongs to the previous business date, business hour 20.
type Calendar struct {
	startHour int
}

func New(startHour int) (Calendar, error) {
	if startHour < 0 || startHour >= HoursPerDay {
		return Calendar{}, fmt.Errorf("%w: business day start hour %d outside 0..23", domain.ErrInvalidConfig, startHour)
	}
	return Calendar{startHour: startHour}, nil
}

// MustNew is New for hour constants known to be valid.
func MustNew(startHour int) Calendar {
	cal, err := New(startHour)
	if err != nil {
		panic(err)
	}
	return cal
}

func (c Calendar) StartHour() int {
	return c.startHour
}

// shift moves ts back by the start hour on the naive wall clock. The location
// of ts is ignored so DST transitions never bend the offset.
func (c Calendar) shift(ts time.Time) time.Time {
	naive := time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), ts.Minute(), ts.Second(), ts.Nanosecond(), time.UTC)
	return naive.Add(-time.Duration(c.startHour) * time.Hour)
}

func (c Calendar) Date(ts time.Time) Date {
	return DateOf(c.shift(ts))
}

// Hour returns the business hour of ts; 0 is the clock start hour.
func (c Calendar) Hour(ts time.Time) int {
	return c.shift(ts).Hour()
}

// Locate returns the business date and hour in one shift.
func (c Calendar) Locate(ts time.Time) (Date, int) {
	shifted := c.shift(ts)
	return DateOf(shifted), shifted.Hour()
}

func (c Calendar) ClockHour(businessHour int) int {
	return mod24(businessHour + c.startHour)
}

func (c Calendar) BusinessHour(clockHour int) int {
	return mod24(clockHour - c.startHour)
}

// Bounds returns the naive timestamp range [from@start, (to+1)@start) covering
// the business dates from..to inclusive.
func (c Calendar) Bounds(from, to Date) (time.Time, time.Time) {
	offset := time.Duration(c.startHour) * time.Hour
	return from.Time().Add(offset), to.AddDays(1).Time().Add(offset)
}

func mod24(h int) int {
	return ((h % HoursPerDay) + HoursPerDay) % HoursPerDay
}
