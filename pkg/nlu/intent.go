// Package nlu holds the language-understanding value types shared across the
// pipeline — intents, sub-intents, tokens, BIO tags — and the span decoder
// that turns a tagged token sequence into a slot map.
//
// The statistical models that produce intent labels and tag sequences live
// behind the provider interfaces in pkg/provider; this package only defines
// their output vocabulary and the deterministic decoding rules.
package nlu

// Intent is the classified purpose of an utterance.
//
// The set of known intents is closed: anything the classifier emits outside
// this set still round-trips as an Intent value (the label is preserved), but
// [Intent.IsKnown] reports false and the dialog layer treats it as having no
// required slots.
type Intent string

const (
	IntentTransfer          Intent = "transfer"
	IntentCheckBalance      Intent = "check_balance"
	IntentCheckTransactions Intent = "check_transactions"
	IntentLoanInquiry       Intent = "loan_inquiry"
	IntentCreditLimit       Intent = "credit_limit"
	IntentGeneralQuery      Intent = "general_query"
)

// IsKnown reports whether i is one of the intents this system models.
func (i Intent) IsKnown() bool {
	switch i {
	case IntentTransfer, IntentCheckBalance, IntentCheckTransactions,
		IntentLoanInquiry, IntentCreditLimit, IntentGeneralQuery:
		return true
	}
	return false
}

// SubIntent refines an intent where a secondary resolver applies
// (loan inquiries and credit limit questions).
type SubIntent string

const (
	// SubIntentNone marks intents that have no sub-intent refinement.
	SubIntentNone SubIntent = ""

	SubIntentLoanStatus       SubIntent = "loan_status"
	SubIntentLoanEligibility  SubIntent = "loan_eligibility"
	SubIntentLoanInterestRate SubIntent = "loan_interest_rate"
	SubIntentGeneralLoanQuery SubIntent = "general_loan_query"

	SubIntentCreditLimitAvailable SubIntent = "credit_limit_available"
	SubIntentCreditLimitUsed      SubIntent = "credit_limit_used"
	SubIntentGeneralCreditQuery   SubIntent = "general_credit_query"
)

// IsKnown reports whether s is a sub-intent this system models.
// SubIntentNone is known: most intents legitimately carry no sub-intent.
func (s SubIntent) IsKnown() bool {
	switch s {
	case SubIntentNone,
		SubIntentLoanStatus, SubIntentLoanEligibility,
		SubIntentLoanInterestRate, SubIntentGeneralLoanQuery,
		SubIntentCreditLimitAvailable, SubIntentCreditLimitUsed,
		SubIntentGeneralCreditQuery:
		return true
	}
	return false
}
