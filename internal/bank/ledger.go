// Package bank models the external banking ledger the dialog core
// dispatches completed action requests to: accounts, loans, credit cards,
// and the routing from a fully-slotted intent to a response.
package bank

import (
	"context"
	"errors"
	"time"
)

// ErrAccountNotFound is returned when a customer has no account on record.
var ErrAccountNotFound = errors.New("bank: account not found")

// ErrNoLoans is returned when a customer has no loans on record.
var ErrNoLoans = errors.New("bank: no loans on record")

// ErrNoCreditCard is returned when a customer has no credit card on record.
var ErrNoCreditCard = errors.New("bank: no credit card on record")

// ErrInsufficientFunds is returned by Transfer when the source account
// balance does not cover the amount.
var ErrInsufficientFunds = errors.New("bank: insufficient funds")

// Account is a customer's current account.
type Account struct {
	CustomerID string
	Number     string
	Balance    float64
}

// Loan is one loan held by a customer.
type Loan struct {
	CustomerID string
	Type       string // e.g., "Home Loan", "Personal Loan"
	Status     string // e.g., "Approved", "Pending"
	Amount     float64
}

// CreditCard is a customer's credit card with its limit usage.
type CreditCard struct {
	CustomerID     string
	Name           string // e.g., "Platinum Rewards"
	LimitAvailable float64
	LimitUsed      float64
}

// Transaction is one ledger movement on a customer's account.
type Transaction struct {
	CustomerID string
	Amount     float64
	Recipient  string
	At         time.Time
}

// Ledger is the persistence boundary for customer banking records.
//
// All implementations must be safe for concurrent use. The dialog core only
// reads through this interface except for Transfer, which is the single
// mutating operation a completed action request can trigger.
type Ledger interface {
	// Account returns the customer's account.
	// Returns [ErrAccountNotFound] when none exists.
	Account(ctx context.Context, customerID string) (Account, error)

	// Loans returns the customer's loans, oldest first.
	// Returns [ErrNoLoans] when none exist.
	Loans(ctx context.Context, customerID string) ([]Loan, error)

	// CreditCard returns the customer's credit card.
	// Returns [ErrNoCreditCard] when none exists.
	CreditCard(ctx context.Context, customerID string) (CreditCard, error)

	// Transactions returns the customer's most recent transactions, newest
	// first, up to limit.
	Transactions(ctx context.Context, customerID string, limit int) ([]Transaction, error)

	// Transfer debits amount from the customer's account and records a
	// transaction to recipient. Returns [ErrAccountNotFound] or
	// [ErrInsufficientFunds].
	Transfer(ctx context.Context, customerID string, amount float64, recipient string) error
}
