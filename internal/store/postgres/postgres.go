package postgres

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/store/sqlstore"
)

type Store struct {
	*sqlstore.Store
	db *sqlx.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{Store: sqlstore.New(db), db: db}, nil
}

// Migrate creates the receipts tables when they are missing. Production
// databases usually already carry them.
func (s *Store) Migrate(ctx context.Context) error {
	return sqlstore.Migrate(ctx, s.db)
}

func (s *Store) Close() error {
	return s.db.Close()
}
