package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNotFound      = errors.New("not found")
)

// UnknownSubgroup is the label used when an item's subgroup cannot be resolved.
const UnknownSubgroup = "Unknown"

type Receipt struct {
	ID        int64           `json:"id" db:"id"`
	Timestamp time.Time       `json:"timestamp" db:"issued_at"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
}

type ReceiptLine struct {
	ReceiptID int64           `json:"receipt_id" db:"receipt_id"`
	ItemCode  string          `json:"item_code" db:"item_code"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Amount is the line-level amount. It can disagree with the receipt amount.
func (l ReceiptLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

type Item struct {
	Code     string      `json:"code" db:"code"`
	Title    string      `json:"title" db:"title"`
	Subgroup SubgroupRef `json:"subgroup" db:"subgroup"`
}

// Label returns the display label: the trimmed title, or the code when the title is blank.
func (i Item) Label() string {
	if title := strings.TrimSpace(i.Title); title != "" {
		return title
	}
	return i.Code
}

type Subgroup struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Snapshot is one fully materialized batch of rows. Reports never mutate it.
type Snapshot struct {
	Receipts  []Receipt
	Lines     []ReceiptLine
	Items     []Item
	Subgroups []Subgroup
}

func (s Snapshot) Empty() bool {
	return len(s.Receipts) == 0
}
