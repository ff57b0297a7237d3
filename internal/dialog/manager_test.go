package dialog_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/vaani-labs/vaani/internal/dialog"
	"github.com/vaani-labs/vaani/pkg/nlu"
)

func newManager() *dialog.Manager {
	return dialog.NewManager(dialog.NewMachine(dialog.DefaultSchedule(), dialog.ConflictOverwrite))
}

func TestManagerAdvance(t *testing.T) {
	t.Parallel()

	t.Run("accumulates across turns for one conversation", func(t *testing.T) {
		t.Parallel()
		mgr := newManager()

		outcome := mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"amount": "500"})
		if outcome.Kind != dialog.OutcomeEliciting || outcome.NextMissing != "recipient" {
			t.Fatalf("turn 1: outcome = %+v", outcome)
		}

		outcome = mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"recipient": "Raj"})
		if outcome.Kind != dialog.OutcomeComplete {
			t.Fatalf("turn 2: outcome = %+v, want complete", outcome)
		}
		if outcome.Request.Slots["amount"] != "500" {
			t.Fatalf("turn 2: amount not retained: %v", outcome.Request.Slots)
		}
	})

	t.Run("completion discards state", func(t *testing.T) {
		t.Parallel()
		mgr := newManager()

		mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"amount": "500", "recipient": "Raj"})
		if n := mgr.Active(); n != 0 {
			t.Fatalf("Active = %d after completion, want 0", n)
		}

		// A fresh turn under the same ID starts from scratch.
		outcome := mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"recipient": "Priya"})
		if outcome.Kind != dialog.OutcomeEliciting || outcome.NextMissing != "amount" {
			t.Fatalf("post-completion turn: outcome = %+v, want fresh eliciting", outcome)
		}
	})

	t.Run("abandon discards state without side effects", func(t *testing.T) {
		t.Parallel()
		mgr := newManager()

		mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone, nlu.SlotMap{"amount": "500"})
		mgr.Abandon("conv-1")
		if n := mgr.Active(); n != 0 {
			t.Fatalf("Active = %d after abandon, want 0", n)
		}

		outcome := mgr.Advance("conv-1", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"recipient": "Raj"})
		if outcome.Kind != dialog.OutcomeEliciting || outcome.NextMissing != "amount" {
			t.Fatalf("post-abandon turn: outcome = %+v, want fresh eliciting", outcome)
		}

		mgr.Abandon("never-seen") // must not panic
	})

	t.Run("conversations are independent", func(t *testing.T) {
		t.Parallel()
		mgr := newManager()

		mgr.Advance("conv-a", nlu.IntentTransfer, nlu.SubIntentNone, nlu.SlotMap{"amount": "100"})
		outcome := mgr.Advance("conv-b", nlu.IntentTransfer, nlu.SubIntentNone,
			nlu.SlotMap{"recipient": "Raj"})

		if outcome.Kind != dialog.OutcomeEliciting || outcome.NextMissing != "amount" {
			t.Fatalf("conv-b: outcome = %+v, want its own empty amount", outcome)
		}
	})
}

func TestManagerConcurrentConversations(t *testing.T) {
	t.Parallel()

	mgr := newManager()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", i)

			outcome := mgr.Advance(id, nlu.IntentTransfer, nlu.SubIntentNone,
				nlu.SlotMap{"amount": fmt.Sprintf("%d", i)})
			if outcome.Kind != dialog.OutcomeEliciting {
				t.Errorf("%s turn 1: outcome = %+v", id, outcome)
				return
			}

			outcome = mgr.Advance(id, nlu.IntentTransfer, nlu.SubIntentNone,
				nlu.SlotMap{"recipient": "Raj"})
			if outcome.Kind != dialog.OutcomeComplete {
				t.Errorf("%s turn 2: outcome = %+v", id, outcome)
				return
			}
			if got := outcome.Request.Slots["amount"]; got != fmt.Sprintf("%d", i) {
				t.Errorf("%s: amount = %q, cross-conversation leak", id, got)
			}
		}(i)
	}
	wg.Wait()

	if n := mgr.Active(); n != 0 {
		t.Fatalf("Active = %d after all conversations completed, want 0", n)
	}
}
