package bank

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vaani-labs/vaani/internal/dialog"
	"github.com/vaani-labs/vaani/pkg/nlu"
)

// defaultTransactionLimit caps how many recent transactions a
// check_transactions request reads back.
const defaultTransactionLimit = 5

// Dispatcher executes a completed [dialog.ActionRequest] against the ledger
// and renders the customer-facing response. It is the only place a dialog
// outcome touches banking records.
//
// Safe for concurrent use when the ledger is.
type Dispatcher struct {
	ledger Ledger
}

// NewDispatcher creates a Dispatcher reading from ledger.
func NewDispatcher(ledger Ledger) *Dispatcher {
	return &Dispatcher{ledger: ledger}
}

// Dispatch routes req for customerID and returns the response text.
//
// Missing records (no account, no loans, no card) are customer-facing
// responses, not errors — only ledger failures and malformed slot values
// surface as errors. Unmodelled intents fall through to a generic
// acknowledgement naming the detected intent.
func (d *Dispatcher) Dispatch(ctx context.Context, customerID string, req dialog.ActionRequest) (string, error) {
	switch req.Intent {
	case nlu.IntentCheckBalance:
		return d.checkBalance(ctx, customerID)
	case nlu.IntentCheckTransactions:
		return d.checkTransactions(ctx, customerID)
	case nlu.IntentTransfer:
		return d.transfer(ctx, customerID, req.Slots)
	case nlu.IntentLoanInquiry:
		return d.loanInquiry(ctx, customerID, req.SubIntent, req.Slots)
	case nlu.IntentCreditLimit:
		return d.creditLimit(ctx, customerID, req.SubIntent)
	}
	return fmt.Sprintf("I detected the intent %q. I am still learning how to handle that request.", string(req.Intent)), nil
}

func (d *Dispatcher) checkBalance(ctx context.Context, customerID string) (string, error) {
	acc, err := d.ledger.Account(ctx, customerID)
	if errors.Is(err, ErrAccountNotFound) {
		return "No account found for this customer.", nil
	}
	if err != nil {
		return "", fmt.Errorf("bank: check balance: %w", err)
	}
	return fmt.Sprintf("Your current account balance is ₹%s.", formatAmount(acc.Balance)), nil
}

func (d *Dispatcher) checkTransactions(ctx context.Context, customerID string) (string, error) {
	txs, err := d.ledger.Transactions(ctx, customerID, defaultTransactionLimit)
	if err != nil {
		return "", fmt.Errorf("bank: check transactions: %w", err)
	}
	if len(txs) == 0 {
		return "You have no recent transactions.", nil
	}

	var b strings.Builder
	b.WriteString("Your recent transactions:")
	for _, tx := range txs {
		fmt.Fprintf(&b, " ₹%s to %s;", formatAmount(tx.Amount), tx.Recipient)
	}
	return strings.TrimSuffix(b.String(), ";") + ".", nil
}

func (d *Dispatcher) transfer(ctx context.Context, customerID string, slots nlu.SlotMap) (string, error) {
	amount, err := parseAmount(slots["amount"])
	if err != nil {
		return "", fmt.Errorf("bank: transfer: %w", err)
	}
	recipient := slots["recipient"]

	err = d.ledger.Transfer(ctx, customerID, amount, recipient)
	if errors.Is(err, ErrInsufficientFunds) {
		return fmt.Sprintf("Your balance does not cover a transfer of ₹%s.", formatAmount(amount)), nil
	}
	if errors.Is(err, ErrAccountNotFound) {
		return "No account found for this customer.", nil
	}
	if err != nil {
		return "", fmt.Errorf("bank: transfer: %w", err)
	}
	return fmt.Sprintf("Transferred ₹%s to %s.", formatAmount(amount), recipient), nil
}

func (d *Dispatcher) loanInquiry(ctx context.Context, customerID string, sub nlu.SubIntent, slots nlu.SlotMap) (string, error) {
	switch sub {
	case nlu.SubIntentLoanStatus:
		loans, err := d.ledger.Loans(ctx, customerID)
		if errors.Is(err, ErrNoLoans) {
			return "You have no active loans in the system.", nil
		}
		if err != nil {
			return "", fmt.Errorf("bank: loan status: %w", err)
		}
		loan := loans[0]
		return fmt.Sprintf("The status of your %s for ₹%s is currently %s.",
			loan.Type, formatAmount(loan.Amount), loan.Status), nil

	case nlu.SubIntentLoanEligibility:
		return "Based on our records, you are pre-approved for a Personal Loan up to ₹10 Lakhs at 10% interest.", nil

	case nlu.SubIntentLoanInterestRate:
		loanType := slots["loan_type"]
		if loanType == "" {
			loanType = "Personal Loan"
		}
		return fmt.Sprintf("The current interest rate for a %s is 9.5%% per annum.", loanType), nil
	}
	return "I can help with loan status, eligibility, or interest rates. Which would you like?", nil
}

func (d *Dispatcher) creditLimit(ctx context.Context, customerID string, sub nlu.SubIntent) (string, error) {
	card, err := d.ledger.CreditCard(ctx, customerID)
	if errors.Is(err, ErrNoCreditCard) {
		return "No credit card found for this customer.", nil
	}
	if err != nil {
		return "", fmt.Errorf("bank: credit limit: %w", err)
	}

	switch sub {
	case nlu.SubIntentCreditLimitAvailable:
		return fmt.Sprintf("Your available limit on the %s is ₹%s.", card.Name, formatAmount(card.LimitAvailable)), nil
	case nlu.SubIntentCreditLimitUsed:
		return fmt.Sprintf("You have utilised ₹%s of your credit limit.", formatAmount(card.LimitUsed)), nil
	}
	return fmt.Sprintf("Your %s has ₹%s available and ₹%s used.",
		card.Name, formatAmount(card.LimitAvailable), formatAmount(card.LimitUsed)), nil
}

// parseAmount converts a decoded amount slot into a number. Currency
// symbols, commas, and surrounding words like "rupees" are tolerated since
// the span decoder hands over raw utterance text.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.':
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("amount %q contains no number", raw)
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, err)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount %q is not positive", raw)
	}
	return amount, nil
}

// formatAmount renders an amount with thousands separators and two decimal
// places, e.g. 50000 -> "50,000.00".
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var neg bool
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
