// Package rstore demonstrates the stateful-retry adapter (§4.9 in the
// design) against a real transactional store: a SQLite-backed ledger
// where an operation may be retried across separate top-level calls
// (e.g. after a crash mid-transfer) while still resuming the same
// RetryContext and deciding, per failure, whether the in-flight
// transaction should roll back.
package rstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relaypoint/retry"
)

// Ledger wraps a sqlite-backed balance table with a stateful retry
// operation: TransferOp. Two TransferOp calls sharing the same Key
// resume the same attempt sequence, and RollbackClassifier decides
// whether a given failure is handed straight back to the caller or
// retried within the same call. Either way, the failed attempt's
// transaction is rolled back by WithTransaction.
type Ledger struct {
	DB                *sqlx.DB
	TransferOp        *retry.StatefulRetryOperation
	RollbackClassifier retry.Classifier
}

// Open creates (or reuses) a SQLite database at path and ensures the
// balances table exists.
func Open(path string, tmpl *retry.Template) (*Ledger, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("rstore: connect: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS balances (
		account TEXT PRIMARY KEY,
		amount_cents INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("rstore: create table: %w", err)
	}

	rollback := retry.NewBinaryClassifier(true) // by default, everything rolls back
	return &Ledger{
		DB:                 db,
		TransferOp:         retry.NewStatefulRetryOperation(tmpl),
		RollbackClassifier: rollback,
	}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.DB.Close() }

// Deposit adds amountCents to account's balance, creating the account at
// zero balance first if necessary.
func (l *Ledger) Deposit(ctx context.Context, tx *sqlx.Tx, account string, amountCents int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (account, amount_cents) VALUES (?, ?)
		ON CONFLICT(account) DO UPDATE SET amount_cents = amount_cents + excluded.amount_cents
	`, account, amountCents)
	return err
}

// Withdraw subtracts amountCents from account's balance. It returns
// retry.Stop wrapping ErrInsufficientFunds when the account cannot
// cover the withdrawal, since retrying will not change that outcome.
func (l *Ledger) Withdraw(ctx context.Context, tx *sqlx.Tx, account string, amountCents int64) error {
	var balance int64
	if err := tx.GetContext(ctx, &balance, `SELECT amount_cents FROM balances WHERE account = ?`, account); err != nil {
		if err == sql.ErrNoRows {
			return retry.Stop(fmt.Errorf("%w: account %q has no balance", ErrInsufficientFunds, account))
		}
		return err
	}
	if balance < amountCents {
		return retry.Stop(fmt.Errorf("%w: account %q", ErrInsufficientFunds, account))
	}
	_, err := tx.ExecContext(ctx, `UPDATE balances SET amount_cents = amount_cents - ? WHERE account = ?`, amountCents, account)
	return err
}

// ErrInsufficientFunds is returned (wrapped in retry.Stop) by Withdraw.
var ErrInsufficientFunds = fmt.Errorf("rstore: insufficient funds")

// Transfer moves amountCents from `from` to `to`, retried as a single
// stateful operation keyed by transferID so a repeated call for the same
// transfer resumes rather than double-applies.
func (l *Ledger) Transfer(ctx context.Context, transferID string, from, to string, amountCents int64) error {
	op := func(ctx context.Context, rc *retry.RetryContext) error {
		return WithTransaction(ctx, l.DB, func(tx *sqlx.Tx) error {
			if err := l.Withdraw(ctx, tx, from, amountCents); err != nil {
				return err
			}
			return l.Deposit(ctx, tx, to, amountCents)
		})
	}
	return l.TransferOp.Execute(ctx, op, nil, l.RollbackClassifier, false, transferID)
}

// TxOption configures a transaction's *sql.TxOptions.
type TxOption func(*sql.TxOptions)

// WithTransaction runs fn inside a transaction on db, committing on
// success and rolling back on error or panic.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error, opts ...TxOption) error {
	txOpts := &sql.TxOptions{}
	for _, opt := range opts {
		opt(txOpts)
	}

	tx, err := db.BeginTxx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("rstore: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return err
}
