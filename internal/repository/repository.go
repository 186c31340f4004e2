package repository

import (
	"context"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

func Connect(conn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", conn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Ledger is the durable store of users, wallets and deposits. Every stage
// transition is a conditional update guarded by the status columns: a
// zero-row result means the row already transitioned, which callers treat
// as a no-op rather than an error.
type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) Ledger {
	return Ledger{db: db}
}
