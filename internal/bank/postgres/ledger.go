// Package postgres provides a PostgreSQL-backed implementation of
// [bank.Ledger]. All tables share a single [pgxpool.Pool]; [Migrate]
// installs the schema on startup.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaani-labs/vaani/internal/bank"
)

// Compile-time assertion that Ledger satisfies bank.Ledger.
var _ bank.Ledger = (*Ledger)(nil)

const ddlBank = `
CREATE TABLE IF NOT EXISTS accounts (
    customer_id    TEXT    PRIMARY KEY,
    account_number TEXT    NOT NULL UNIQUE,
    balance        NUMERIC NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS loans (
    id          BIGSERIAL PRIMARY KEY,
    customer_id TEXT      NOT NULL,
    loan_type   TEXT      NOT NULL,
    status      TEXT      NOT NULL,
    amount      NUMERIC   NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_loans_customer_id ON loans (customer_id);

CREATE TABLE IF NOT EXISTS credit_cards (
    customer_id     TEXT    PRIMARY KEY,
    card_name       TEXT    NOT NULL,
    limit_available NUMERIC NOT NULL,
    limit_used      NUMERIC NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id          BIGSERIAL   PRIMARY KEY,
    customer_id TEXT        NOT NULL,
    amount      NUMERIC     NOT NULL,
    recipient   TEXT        NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_customer_created
    ON transactions (customer_id, created_at);
`

// Ledger is the PostgreSQL-backed banking ledger.
// All methods are safe for concurrent use.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger connects to the database at dsn and ensures the schema exists.
func NewLedger(ctx context.Context, dsn string) (*Ledger, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("bank postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bank postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlBank); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bank postgres: migrate: %w", err)
	}
	return &Ledger{pool: pool}, nil
}

// Account implements [bank.Ledger.Account].
func (l *Ledger) Account(ctx context.Context, customerID string) (bank.Account, error) {
	const q = `SELECT customer_id, account_number, balance FROM accounts WHERE customer_id = $1`

	var a bank.Account
	err := l.pool.QueryRow(ctx, q, customerID).Scan(&a.CustomerID, &a.Number, &a.Balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return bank.Account{}, bank.ErrAccountNotFound
	}
	if err != nil {
		return bank.Account{}, fmt.Errorf("bank postgres: account %q: %w", customerID, err)
	}
	return a, nil
}

// Loans implements [bank.Ledger.Loans].
func (l *Ledger) Loans(ctx context.Context, customerID string) ([]bank.Loan, error) {
	const q = `
		SELECT customer_id, loan_type, status, amount
		FROM   loans
		WHERE  customer_id = $1
		ORDER  BY id`

	rows, err := l.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("bank postgres: loans %q: %w", customerID, err)
	}
	loans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (bank.Loan, error) {
		var loan bank.Loan
		err := row.Scan(&loan.CustomerID, &loan.Type, &loan.Status, &loan.Amount)
		return loan, err
	})
	if err != nil {
		return nil, fmt.Errorf("bank postgres: loans %q: %w", customerID, err)
	}
	if len(loans) == 0 {
		return nil, bank.ErrNoLoans
	}
	return loans, nil
}

// CreditCard implements [bank.Ledger.CreditCard].
func (l *Ledger) CreditCard(ctx context.Context, customerID string) (bank.CreditCard, error) {
	const q = `
		SELECT customer_id, card_name, limit_available, limit_used
		FROM   credit_cards
		WHERE  customer_id = $1`

	var c bank.CreditCard
	err := l.pool.QueryRow(ctx, q, customerID).Scan(&c.CustomerID, &c.Name, &c.LimitAvailable, &c.LimitUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return bank.CreditCard{}, bank.ErrNoCreditCard
	}
	if err != nil {
		return bank.CreditCard{}, fmt.Errorf("bank postgres: credit card %q: %w", customerID, err)
	}
	return c, nil
}

// Transactions implements [bank.Ledger.Transactions].
func (l *Ledger) Transactions(ctx context.Context, customerID string, limit int) ([]bank.Transaction, error) {
	const q = `
		SELECT customer_id, amount, recipient, created_at
		FROM   transactions
		WHERE  customer_id = $1
		ORDER  BY created_at DESC
		LIMIT  $2`

	rows, err := l.pool.Query(ctx, q, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("bank postgres: transactions %q: %w", customerID, err)
	}
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (bank.Transaction, error) {
		var tx bank.Transaction
		err := row.Scan(&tx.CustomerID, &tx.Amount, &tx.Recipient, &tx.At)
		return tx, err
	})
	if err != nil {
		return nil, fmt.Errorf("bank postgres: transactions %q: %w", customerID, err)
	}
	return txs, nil
}

// Transfer implements [bank.Ledger.Transfer]. The debit and the transaction
// record commit atomically.
func (l *Ledger) Transfer(ctx context.Context, customerID string, amount float64, recipient string) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("bank postgres: transfer: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE customer_id = $1 FOR UPDATE`, customerID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return bank.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("bank postgres: transfer: lock account: %w", err)
	}
	if balance < amount {
		return bank.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance - $2 WHERE customer_id = $1`,
		customerID, amount,
	); err != nil {
		return fmt.Errorf("bank postgres: transfer: debit: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO transactions (customer_id, amount, recipient) VALUES ($1, $2, $3)`,
		customerID, amount, recipient,
	); err != nil {
		return fmt.Errorf("bank postgres: transfer: record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("bank postgres: transfer: commit: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}
