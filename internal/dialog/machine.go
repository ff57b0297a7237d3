package dialog

import (
	"time"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

// ConflictPolicy decides what happens when a later turn re-states an
// already-filled slot with a different value.
type ConflictPolicy string

const (
	// ConflictOverwrite lets the newest value replace the old one
	// (last write wins). This is the default.
	ConflictOverwrite ConflictPolicy = "overwrite"

	// ConflictReject keeps the first value and reports the attempted
	// change in the outcome's Conflicts list.
	ConflictReject ConflictPolicy = "reject"
)

// IsValid reports whether p is a recognised conflict policy.
func (p ConflictPolicy) IsValid() bool {
	return p == ConflictOverwrite || p == ConflictReject
}

// TurnState is the accumulated state of one conversation working toward a
// dispatchable action. Value type: Advance returns a new state rather than
// mutating its input.
type TurnState struct {
	// Intent is the current intent for this conversation.
	Intent nlu.Intent

	// SubIntent is the current sub-intent refinement, or SubIntentNone.
	SubIntent nlu.SubIntent

	// Slots holds every slot decoded so far. Values persist across turns
	// until dispatch or abandonment; a turn that doesn't re-mention a slot
	// never erases it.
	Slots nlu.SlotMap

	// UpdatedAt is when the state last advanced. Used by callers for
	// abandonment policies.
	UpdatedAt time.Time
}

// OutcomeKind distinguishes the two results of advancing a turn.
type OutcomeKind string

const (
	// OutcomeEliciting means one or more required slots are still missing
	// and the caller should prompt for Outcome.NextMissing.
	OutcomeEliciting OutcomeKind = "eliciting"

	// OutcomeComplete means all required slots are present and
	// Outcome.Request is ready for dispatch.
	OutcomeComplete OutcomeKind = "complete"
)

// SlotConflict records a rejected attempt to change an already-filled slot
// under [ConflictReject].
type SlotConflict struct {
	Slot     string
	Kept     string
	Rejected string
}

// ActionRequest is the fully-slotted command handed to the dispatcher once a
// conversation completes. Immutable once constructed.
//
// Slots contains the full accumulated map, including decoded slots outside
// the required set — completeness is judged solely by the required list, but
// extra slots travel with the request rather than being silently dropped.
type ActionRequest struct {
	Intent    nlu.Intent
	SubIntent nlu.SubIntent
	Slots     nlu.SlotMap
}

// Outcome is the result of one [Advance] call.
type Outcome struct {
	Kind OutcomeKind

	// NextMissing names the single slot to prompt for when Kind is
	// OutcomeEliciting — the first missing slot in schedule order, so each
	// turn stays focused on one question.
	NextMissing string

	// Missing lists all missing slots in schedule order.
	Missing []string

	// Request is the dispatchable action when Kind is OutcomeComplete.
	Request ActionRequest

	// Conflicts lists slot changes rejected under [ConflictReject].
	Conflicts []SlotConflict
}

// Machine advances dialog turn states against a required-slot schedule.
// It is stateless — per-conversation bookkeeping lives in [Manager] — and
// safe for concurrent use.
type Machine struct {
	schedule *Schedule
	policy   ConflictPolicy
	now      func() time.Time
}

// NewMachine creates a Machine using schedule and the given conflict policy.
// An empty policy defaults to [ConflictOverwrite].
func NewMachine(schedule *Schedule, policy ConflictPolicy) *Machine {
	if policy == "" {
		policy = ConflictOverwrite
	}
	return &Machine{schedule: schedule, policy: policy, now: time.Now}
}

// Advance folds one turn's decoded slots into the conversation state and
// judges completeness.
//
// prev is nil on the first utterance of a conversation. A sub-intent change
// re-evaluates completeness against the new schedule entry but keeps all
// already-collected slots, since values like an amount may be reusable.
// Intents absent from the schedule are treated as requiring no slots and
// complete immediately.
func (m *Machine) Advance(prev *TurnState, intent nlu.Intent, subIntent nlu.SubIntent, decoded nlu.SlotMap) (TurnState, Outcome) {
	state := TurnState{
		Intent:    intent,
		SubIntent: subIntent,
		Slots:     make(nlu.SlotMap),
		UpdatedAt: m.now(),
	}

	var conflicts []SlotConflict
	if prev != nil {
		for k, v := range prev.Slots {
			state.Slots[k] = v
		}
	}
	for k, v := range decoded {
		old, filled := state.Slots[k]
		if filled && old != v && m.policy == ConflictReject {
			conflicts = append(conflicts, SlotConflict{Slot: k, Kept: old, Rejected: v})
			continue
		}
		state.Slots[k] = v
	}

	required, _ := m.schedule.Required(intent, subIntent)
	var missing []string
	for _, slot := range required {
		if _, ok := state.Slots[slot]; !ok {
			missing = append(missing, slot)
		}
	}

	if len(missing) > 0 {
		return state, Outcome{
			Kind:        OutcomeEliciting,
			NextMissing: missing[0],
			Missing:     missing,
			Conflicts:   conflicts,
		}
	}

	return state, Outcome{
		Kind: OutcomeComplete,
		Request: ActionRequest{
			Intent:    intent,
			SubIntent: subIntent,
			Slots:     state.Slots.Clone(),
		},
		Conflicts: conflicts,
	}
}
