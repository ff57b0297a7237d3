package dialog

import (
	"sync"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

// Manager tracks one [TurnState] per conversation and serialises turns
// within a conversation while letting distinct conversations proceed in
// parallel.
//
// A conversation's state is created on its first turn, replaced on every
// subsequent turn, and discarded when the turn completes (the action request
// has been handed off) or the caller abandons it. There is nothing to roll
// back on abandonment — no side effects happen before dispatch.
type Manager struct {
	machine *Machine

	mu    sync.Mutex
	convs map[string]*conversation
}

// conversation pairs a turn state with the lock that serialises its turns.
type conversation struct {
	mu    sync.Mutex
	state *TurnState
}

// NewManager creates a Manager advancing states with machine.
func NewManager(machine *Machine) *Manager {
	return &Manager{
		machine: machine,
		convs:   make(map[string]*conversation),
	}
}

// Advance processes one turn for conversationID. Turns for the same
// conversation are strictly ordered; concurrent calls for different
// conversations do not contend.
//
// On a complete outcome the conversation's state is discarded — the next
// utterance starts a fresh conversation under the same ID.
func (m *Manager) Advance(conversationID string, intent nlu.Intent, subIntent nlu.SubIntent, decoded nlu.SlotMap) Outcome {
	conv := m.conversation(conversationID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	state, outcome := m.machine.Advance(conv.state, intent, subIntent, decoded)
	if outcome.Kind == OutcomeComplete {
		conv.state = nil
		m.drop(conversationID, conv)
	} else {
		conv.state = &state
	}
	return outcome
}

// Abandon discards any accumulated state for conversationID. Safe to call
// for unknown conversations.
func (m *Manager) Abandon(conversationID string) {
	m.mu.Lock()
	conv, ok := m.convs[conversationID]
	if ok {
		delete(m.convs, conversationID)
	}
	m.mu.Unlock()

	if ok {
		conv.mu.Lock()
		conv.state = nil
		conv.mu.Unlock()
	}
}

// Active returns the number of conversations currently holding state.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.convs)
}

// conversation returns the tracked conversation for id, creating it when
// absent.
func (m *Manager) conversation(id string) *conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[id]
	if !ok {
		conv = &conversation{}
		m.convs[id] = conv
	}
	return conv
}

// drop removes the conversation entry for id if it still maps to conv.
func (m *Manager) drop(id string, conv *conversation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.convs[id]; ok && cur == conv {
		delete(m.convs, id)
	}
}
