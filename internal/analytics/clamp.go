package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Clamp bounds v to [lo, hi]. Every report entry point clamps its numeric
// parameters before touching data.
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	f, _ := num.Div(den).Float64()
	return f
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
