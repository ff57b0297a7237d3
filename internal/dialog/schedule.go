// Package dialog implements the multi-turn dialog state machine: it
// accumulates decoded slots across turns, checks them against an intent's
// required-slot schedule, and either asks for the next missing slot or
// authorises dispatch of a fully-slotted action request.
package dialog

import (
	"slices"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

// Schedule declares which slots each intent requires before dispatch.
//
// Order matters: missing slots are elicited in the declared order, one per
// turn. For intents routed through a sub-intent, the sub-intent's list is
// authoritative once the sub-intent is resolved.
//
// Schedules are read-only after construction and safe for concurrent use.
type Schedule struct {
	intents    map[nlu.Intent][]string
	subIntents map[nlu.SubIntent][]string
}

// NewSchedule builds a Schedule from per-intent and per-sub-intent required
// slot lists. Either map may be nil. The lists are copied.
func NewSchedule(intents map[nlu.Intent][]string, subIntents map[nlu.SubIntent][]string) *Schedule {
	s := &Schedule{
		intents:    make(map[nlu.Intent][]string, len(intents)),
		subIntents: make(map[nlu.SubIntent][]string, len(subIntents)),
	}
	for k, v := range intents {
		s.intents[k] = slices.Clone(v)
	}
	for k, v := range subIntents {
		s.subIntents[k] = slices.Clone(v)
	}
	return s
}

// DefaultSchedule returns the built-in required-slot schedule for the
// banking intents this system models.
func DefaultSchedule() *Schedule {
	return NewSchedule(
		map[nlu.Intent][]string{
			nlu.IntentTransfer:          {"amount", "recipient"},
			nlu.IntentCheckBalance:      {},
			nlu.IntentCheckTransactions: {},
			nlu.IntentLoanInquiry:       {},
			nlu.IntentCreditLimit:       {},
			nlu.IntentGeneralQuery:      {},
		},
		map[nlu.SubIntent][]string{
			nlu.SubIntentLoanStatus:       {"user_id"},
			nlu.SubIntentLoanEligibility:  {"loan_type", "income", "credit_score"},
			nlu.SubIntentLoanInterestRate: {"loan_type"},
		},
	)
}

// WithOverrides returns a copy of s with the given entries replacing the
// matching ones. Intents or sub-intents absent from the override maps keep
// their existing lists. Either map may be nil.
func (s *Schedule) WithOverrides(intents map[nlu.Intent][]string, subIntents map[nlu.SubIntent][]string) *Schedule {
	merged := NewSchedule(s.intents, s.subIntents)
	for k, v := range intents {
		merged.intents[k] = slices.Clone(v)
	}
	for k, v := range subIntents {
		merged.subIntents[k] = slices.Clone(v)
	}
	return merged
}

// Required returns the ordered required-slot list for the given intent and
// sub-intent, and whether the pair is modelled by this schedule at all.
//
// When a sub-intent is set and has its own entry, that entry wins. A pair
// absent from the schedule returns (nil, false); the state machine treats it
// as an empty required list, so unmodelled intents complete immediately with
// whatever was decoded. The returned slice must not be modified.
func (s *Schedule) Required(intent nlu.Intent, subIntent nlu.SubIntent) ([]string, bool) {
	if subIntent != nlu.SubIntentNone {
		if req, ok := s.subIntents[subIntent]; ok {
			return req, true
		}
	}
	if req, ok := s.intents[intent]; ok {
		return req, true
	}
	return nil, false
}
