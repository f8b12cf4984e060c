package analytics

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// LineFilter decides whether refund or void lines (quantity <= 0) take part in
// a line-level report. Callers pick one explicitly per report.
type LineFilter uint8

const (
	IncludeAllLines LineFilter = iota
	PositiveQuantityOnly
)

func ParseLineFilter(raw string) (LineFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "all":
		return IncludeAllLines, nil
	case "positive", "":
		return PositiveQuantityOnly, nil
	default:
		return 0, fmt.Errorf("%w: line filter must be all or positive", domain.ErrInvalidConfig)
	}
}

func (f LineFilter) Keep(qty decimal.Decimal) bool {
	if f == PositiveQuantityOnly {
		return qty.IsPositive()
	}
	return true
}

func (f LineFilter) String() string {
	if f == PositiveQuantityOnly {
		return "positive"
	}
	return "all"
}
