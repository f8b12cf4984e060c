package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/store"
)

func TestLoadSnapshotFromPostgres(t *testing.T) {
	databaseURL := os.Getenv("CCF_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set CCF_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// ids far above anything a demo import produces
	receiptID := time.Now().UnixNano() / 1000
	code := "IT-" + strconv.FormatInt(receiptID, 10)
	issued := time.Date(1999, 12, 31, 23, 45, 0, 0, time.UTC)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM receipt_lines WHERE receipt_id = $1`, receiptID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1`, receiptID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM items WHERE code = $1`, code)
	})

	if err := s.Import(ctx, domain.Snapshot{
		Items:    []domain.Item{{Code: code, Title: "Integration item", Subgroup: domain.TextSubgroup("Integration")}},
		Receipts: []domain.Receipt{{ID: receiptID, Timestamp: issued, Amount: decimal.RequireFromString("7.50")}},
		Lines: []domain.ReceiptLine{
			{ReceiptID: receiptID, ItemCode: code, Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("2.50")},
		},
	}); err != nil {
		t.Fatalf("import: %v", err)
	}

	snapshot, err := store.LoadSnapshot(ctx, s, issued.Add(-time.Hour), issued.Add(time.Hour))
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}

	var found bool
	for _, r := range snapshot.Receipts {
		if r.ID == receiptID {
			found = true
			if !r.Timestamp.Equal(issued) || !r.Amount.Equal(decimal.RequireFromString("7.5")) {
				t.Fatalf("unexpected receipt round trip: %+v", r)
			}
		}
	}
	if !found {
		t.Fatalf("expected receipt %d in snapshot", receiptID)
	}

	var lineFound bool
	for _, l := range snapshot.Lines {
		if l.ReceiptID == receiptID && l.ItemCode == code && l.Quantity.Equal(decimal.NewFromInt(3)) {
			lineFound = true
		}
	}
	if !lineFound {
		t.Fatalf("expected line for receipt %d", receiptID)
	}
}
