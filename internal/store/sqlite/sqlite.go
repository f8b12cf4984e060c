package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/sqlstore"
)

const memoryPath = ":memory:"

// Store is a local SQLite copy of the POS tables.
type Store struct {
	*sqlstore.Store
	db *sqlx.DB
}

// New opens path, or a private in-memory database for ":memory:", and applies
// the schema.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != memoryPath {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == memoryPath {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{Store: sqlstore.New(db), db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
