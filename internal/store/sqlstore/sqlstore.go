// Package sqlstore implements store.Repository over any sqlx database whose
// driver binds the receipts schema; the postgres and sqlite packages wrap it.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
)

const lineBatchSize = 500

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) FetchReceipts(ctx context.Context, from, to time.Time) ([]domain.Receipt, error) {
	receipts := make([]domain.Receipt, 0, 256)
	query := s.db.Rebind(`
		SELECT id, issued_at, amount
		FROM receipts
		WHERE issued_at >= ? AND issued_at < ?
		ORDER BY issued_at, id
	`)
	if err := s.db.SelectContext(ctx, &receipts, query, naiveUTC(from), naiveUTC(to)); err != nil {
		return nil, err
	}
	for i := range receipts {
		receipts[i].Timestamp = naiveUTC(receipts[i].Timestamp)
	}
	return receipts, nil
}

// FetchReceiptLines loads lines in batches so the IN list stays under the
// driver's bind parameter limit.
func (s *Store) FetchReceiptLines(ctx context.Context, receiptIDs []int64) ([]domain.ReceiptLine, error) {
	lines := make([]domain.ReceiptLine, 0, len(receiptIDs)*2)
	for i := 0; i < len(receiptIDs); i += lineBatchSize {
		end := i + lineBatchSize
		if end > len(receiptIDs) {
			end = len(receiptIDs)
		}
		batch := receiptIDs[i:end]

		var rows []domain.ReceiptLine
		query, args, err := sqlx.In(`
			SELECT receipt_id, item_code, quantity, unit_price
			FROM receipt_lines
			WHERE receipt_id IN (?)
			ORDER BY receipt_id, line_no
		`, batch)
		if err != nil {
			return nil, fmt.Errorf("build receipt line query: %w", err)
		}
		query = s.db.Rebind(query)
		if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, err
		}
		lines = append(lines, rows...)
	}
	return lines, nil
}

func (s *Store) FetchItems(ctx context.Context) ([]domain.Item, error) {
	items := make([]domain.Item, 0, 128)
	if err := s.db.SelectContext(ctx, &items, `SELECT code, title, subgroup FROM items ORDER BY code`); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) FetchSubgroups(ctx context.Context) ([]domain.Subgroup, error) {
	subgroups := make([]domain.Subgroup, 0, 32)
	if err := s.db.SelectContext(ctx, &subgroups, `SELECT id, name FROM subgroups ORDER BY id`); err != nil {
		return nil, err
	}
	return subgroups, nil
}

// LatestReceiptTime orders instead of using MAX so sqlite keeps the column's
// declared type and the driver still returns a time.Time.
func (s *Store) LatestReceiptTime(ctx context.Context) (time.Time, bool, error) {
	var latest time.Time
	err := s.db.GetContext(ctx, &latest, `SELECT issued_at FROM receipts ORDER BY issued_at DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return naiveUTC(latest), true, nil
}

// naiveUTC keeps the wall clock of t and labels it UTC.
func naiveUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
