package nlu

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// fuzzyThreshold is the minimum Jaro-Winkler score for a transcript word to
// count as a hit on a sub-intent keyword. Tuned to tolerate common STT
// misrecognitions ("eligable", "intrest") without matching unrelated words.
const fuzzyThreshold = 0.88

// SubIntentResolver refines loan and credit-limit intents into sub-intents
// by keyword inspection of the utterance text.
//
// Keyword matching is two-stage per word: exact substring containment first
// (which also catches stems like "eligib" inside "eligibility"), then a
// Jaro-Winkler fuzzy pass for misrecognised words. Resolution order matters
// and mirrors the trained routing: the first rule that fires wins.
//
// The resolver is stateless and safe for concurrent use.
type SubIntentResolver struct{}

// NewSubIntentResolver returns a ready-to-use [SubIntentResolver].
func NewSubIntentResolver() *SubIntentResolver {
	return &SubIntentResolver{}
}

// Resolve returns the sub-intent for the given intent and utterance text.
// Intents without sub-intent routing resolve to [SubIntentNone].
func (r *SubIntentResolver) Resolve(intent Intent, text string) SubIntent {
	switch intent {
	case IntentLoanInquiry:
		return r.resolveLoan(text)
	case IntentCreditLimit:
		return r.resolveCredit(text)
	}
	return SubIntentNone
}

func (r *SubIntentResolver) resolveLoan(text string) SubIntent {
	lower := strings.ToLower(text)
	switch {
	case hasKeyword(lower, "status"):
		return SubIntentLoanStatus
	case hasKeyword(lower, "eligib", "eligible", "eligibility", "qualify"):
		return SubIntentLoanEligibility
	case hasKeyword(lower, "interest", "rate"):
		return SubIntentLoanInterestRate
	}
	return SubIntentGeneralLoanQuery
}

func (r *SubIntentResolver) resolveCredit(text string) SubIntent {
	lower := strings.ToLower(text)
	switch {
	case hasKeyword(lower, "available", "balance", "remaining"):
		return SubIntentCreditLimitAvailable
	case hasKeyword(lower, "used", "due", "utilised", "utilized"):
		return SubIntentCreditLimitUsed
	}
	return SubIntentGeneralCreditQuery
}

// hasKeyword reports whether any keyword occurs in text, either as a
// substring or as a fuzzy Jaro-Winkler match against one of text's words.
func hasKeyword(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, word := range strings.Fields(text) {
		for _, kw := range keywords {
			// Short keywords ("rate", "due") are stems; fuzzy matching
			// them invites false positives, so they stay substring-only.
			if len(kw) < 6 {
				continue
			}
			if matchr.JaroWinkler(word, kw, false) >= fuzzyThreshold {
				return true
			}
		}
	}
	return false
}
