package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

// schema is portable between Postgres and SQLite. Timestamps are stored
// without a zone; subgroup is free text because legacy rows mix ids and names.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS subgroups (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		code TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		subgroup TEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS receipts (
		id BIGINT PRIMARY KEY,
		issued_at TIMESTAMP NOT NULL,
		amount NUMERIC(14,3) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS receipt_lines (
		receipt_id BIGINT NOT NULL,
		line_no INTEGER NOT NULL,
		item_code TEXT NOT NULL,
		quantity NUMERIC(14,3) NOT NULL,
		unit_price NUMERIC(14,3) NOT NULL,
		PRIMARY KEY (receipt_id, line_no)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_receipts_issued_at ON receipts (issued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_receipt_lines_item ON receipt_lines (item_code)`,
}

// Migrate creates the receipts schema if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

type lineRow struct {
	domain.ReceiptLine
	LineNo int `db:"line_no"`
}

// Import inserts a snapshot in one transaction. Rows must not already exist.
func (s *Store) Import(ctx context.Context, snapshot domain.Snapshot) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertAll(ctx, tx, `INSERT INTO subgroups (id, name) VALUES (:id, :name)`, snapshot.Subgroups); err != nil {
		return fmt.Errorf("import subgroups: %w", err)
	}
	if err = insertAll(ctx, tx, `INSERT INTO items (code, title, subgroup) VALUES (:code, :title, :subgroup)`, snapshot.Items); err != nil {
		return fmt.Errorf("import items: %w", err)
	}

	receipts := make([]domain.Receipt, len(snapshot.Receipts))
	for i, r := range snapshot.Receipts {
		r.Timestamp = naiveUTC(r.Timestamp)
		receipts[i] = r
	}
	if err = insertAll(ctx, tx, `INSERT INTO receipts (id, issued_at, amount) VALUES (:id, :issued_at, :amount)`, receipts); err != nil {
		return fmt.Errorf("import receipts: %w", err)
	}

	lines := make([]lineRow, len(snapshot.Lines))
	next := make(map[int64]int, len(snapshot.Receipts))
	for i, l := range snapshot.Lines {
		next[l.ReceiptID]++
		lines[i] = lineRow{ReceiptLine: l, LineNo: next[l.ReceiptID]}
	}
	if err = insertAll(ctx, tx, `
		INSERT INTO receipt_lines (receipt_id, line_no, item_code, quantity, unit_price)
		VALUES (:receipt_id, :line_no, :item_code, :quantity, :unit_price)
	`, lines); err != nil {
		return fmt.Errorf("import receipt lines: %w", err)
	}

	return tx.Commit()
}

func insertAll[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
