package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

var intelligence = bizday.MustNew(7)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// snapshotBuilder assembles receipts and lines with sequential receipt ids.
type snapshotBuilder struct {
	snapshot domain.Snapshot
	nextID   int64
}

func newSnapshot() *snapshotBuilder {
	return &snapshotBuilder{nextID: 1}
}

type line struct {
	code  string
	qty   string
	price string
}

func (b *snapshotBuilder) receipt(ts time.Time, amount string, lines ...line) int64 {
	id := b.nextID
	b.nextID++
	b.snapshot.Receipts = append(b.snapshot.Receipts, domain.Receipt{ID: id, Timestamp: ts, Amount: dec(amount)})
	for _, l := range lines {
		price := l.price
		if price == "" {
			price = "1"
		}
		b.snapshot.Lines = append(b.snapshot.Lines, domain.ReceiptLine{
			ReceiptID: id,
			ItemCode:  l.code,
			Quantity:  dec(l.qty),
			UnitPrice: dec(price),
		})
	}
	return id
}

func (b *snapshotBuilder) item(code, title string, subgroup domain.SubgroupRef) *snapshotBuilder {
	b.snapshot.Items = append(b.snapshot.Items, domain.Item{Code: code, Title: title, Subgroup: subgroup})
	return b
}

func (b *snapshotBuilder) subgroup(id int, name string) *snapshotBuilder {
	b.snapshot.Subgroups = append(b.snapshot.Subgroups, domain.Subgroup{ID: id, Name: name})
	return b
}

func (b *snapshotBuilder) build() domain.Snapshot {
	return b.snapshot
}
