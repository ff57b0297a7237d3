package bank

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Compile-time assertion that MemLedger satisfies the Ledger interface.
var _ Ledger = (*MemLedger)(nil)

// MemLedger is a thread-safe, in-memory implementation of [Ledger].
// Suitable for tests and demos.
type MemLedger struct {
	mu           sync.RWMutex
	accounts     map[string]Account
	loans        map[string][]Loan
	cards        map[string]CreditCard
	transactions map[string][]Transaction
	now          func() time.Time
}

// NewMemLedger returns an initialised, empty [MemLedger].
func NewMemLedger() *MemLedger {
	return &MemLedger{
		accounts:     make(map[string]Account),
		loans:        make(map[string][]Loan),
		cards:        make(map[string]CreditCard),
		transactions: make(map[string][]Transaction),
		now:          time.Now,
	}
}

// SeedDemoData loads the example customer used by demos and tests: one
// account, one approved home loan, and one credit card.
func (l *MemLedger) SeedDemoData(customerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[customerID] = Account{
		CustomerID: customerID,
		Number:     "1234567890",
		Balance:    50000,
	}
	l.loans[customerID] = []Loan{{
		CustomerID: customerID,
		Type:       "Home Loan",
		Status:     "Approved",
		Amount:     2500000,
	}}
	l.cards[customerID] = CreditCard{
		CustomerID:     customerID,
		Name:           "Platinum Rewards",
		LimitAvailable: 80000,
		LimitUsed:      20000,
	}
}

// SetAccount stores or replaces the customer's account.
func (l *MemLedger) SetAccount(a Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[a.CustomerID] = a
}

// AddLoan appends a loan for its customer.
func (l *MemLedger) AddLoan(loan Loan) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loans[loan.CustomerID] = append(l.loans[loan.CustomerID], loan)
}

// SetCreditCard stores or replaces the customer's credit card.
func (l *MemLedger) SetCreditCard(c CreditCard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cards[c.CustomerID] = c
}

// Account implements [Ledger.Account].
func (l *MemLedger) Account(ctx context.Context, customerID string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[customerID]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// Loans implements [Ledger.Loans].
func (l *MemLedger) Loans(ctx context.Context, customerID string) ([]Loan, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	loans, ok := l.loans[customerID]
	if !ok || len(loans) == 0 {
		return nil, ErrNoLoans
	}
	return slices.Clone(loans), nil
}

// CreditCard implements [Ledger.CreditCard].
func (l *MemLedger) CreditCard(ctx context.Context, customerID string) (CreditCard, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.cards[customerID]
	if !ok {
		return CreditCard{}, ErrNoCreditCard
	}
	return c, nil
}

// Transactions implements [Ledger.Transactions].
func (l *MemLedger) Transactions(ctx context.Context, customerID string, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	txs := l.transactions[customerID]
	if limit <= 0 || limit > len(txs) {
		limit = len(txs)
	}
	// Stored oldest-first; returned newest-first.
	out := make([]Transaction, 0, limit)
	for i := len(txs) - 1; i >= len(txs)-limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}

// Transfer implements [Ledger.Transfer].
func (l *MemLedger) Transfer(ctx context.Context, customerID string, amount float64, recipient string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[customerID]
	if !ok {
		return ErrAccountNotFound
	}
	if a.Balance < amount {
		return ErrInsufficientFunds
	}
	a.Balance -= amount
	l.accounts[customerID] = a
	l.transactions[customerID] = append(l.transactions[customerID], Transaction{
		CustomerID: customerID,
		Amount:     amount,
		Recipient:  recipient,
		At:         l.now(),
	})
	return nil
}
