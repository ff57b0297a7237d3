package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vaani-labs/vaani/internal/app"
	"github.com/vaani-labs/vaani/internal/bank"
	"github.com/vaani-labs/vaani/internal/config"
	"github.com/vaani-labs/vaani/internal/dialog"
	"github.com/vaani-labs/vaani/internal/observe"
	"github.com/vaani-labs/vaani/pkg/nlu"
	intentmock "github.com/vaani-labs/vaani/pkg/provider/intent/mock"
	sttmock "github.com/vaani-labs/vaani/pkg/provider/stt/mock"
	translatemock "github.com/vaani-labs/vaani/pkg/provider/translate/mock"
	encmock "github.com/vaani-labs/vaani/pkg/provider/voiceenc/mock"
	"github.com/vaani-labs/vaani/pkg/voiceid"
)

const testCustomer = "cust-1"

func testConfig() *config.Config {
	return &config.Config{
		Voice: config.VoiceConfig{
			EmbeddingDimensions: 3,
			EnrollmentSamples:   2,
			VerifyThreshold:     0.75,
		},
		Bank: config.BankConfig{DemoCustomerID: testCustomer},
	}
}

// fixture wires an App against mock providers and an in-memory seeded ledger.
type fixture struct {
	app     *app.App
	enc     *encmock.Provider
	stt     *sttmock.Provider
	nluMock *intentmock.Provider
	trans   *translatemock.Provider
	ledger  *bank.MemLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		enc: &encmock.Provider{
			EncodeResult:    []float32{1, 0, 0},
			DimensionsValue: 3,
			ModelIDValue:    "test-encoder",
		},
		stt:     &sttmock.Provider{ModelIDValue: "test-stt"},
		nluMock: &intentmock.Provider{},
		trans:   &translatemock.Provider{},
		ledger:  bank.NewMemLedger(),
	}
	f.ledger.SeedDemoData(testCustomer)

	a, err := app.New(context.Background(), testConfig(), &app.Providers{
		VoiceEncoder: f.enc,
		STT:          f.stt,
		NLU:          f.nluMock,
		Translate:    f.trans,
	},
		app.WithTemplateStore(voiceid.NewMemStore()),
		app.WithLedger(f.ledger),
		app.WithMetrics(&observe.Metrics{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	f.app = a
	return f
}

// enroll registers the mock encoder's voice under identity.
func (f *fixture) enroll(t *testing.T, identity string) {
	t.Helper()
	_, err := f.app.Enroll(context.Background(), identity, [][]byte{[]byte("s1"), []byte("s2")})
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
}

func TestNew_RequiresProviders(t *testing.T) {
	t.Parallel()
	_, err := app.New(context.Background(), testConfig(), &app.Providers{},
		app.WithMetrics(&observe.Metrics{}))
	if err == nil {
		t.Fatal("New: expected error for missing providers")
	}
}

func TestNew_RejectsDimensionMismatch(t *testing.T) {
	t.Parallel()
	enc := &encmock.Provider{DimensionsValue: 128}
	_, err := app.New(context.Background(), testConfig(), &app.Providers{
		VoiceEncoder: enc,
		STT:          &sttmock.Provider{},
		NLU:          &intentmock.Provider{},
	},
		app.WithTemplateStore(voiceid.NewMemStore()),
		app.WithLedger(bank.NewMemLedger()),
		app.WithMetrics(&observe.Metrics{}),
	)
	if err == nil || !strings.Contains(err.Error(), "128") {
		t.Fatalf("New: expected dimension mismatch error, got %v", err)
	}
}

func TestEnrollAndVerify(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	decision, err := f.app.Verify(context.Background(), "alice", []byte("probe"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !decision.Verified {
		t.Fatalf("Verify: decision = %+v, want verified", decision)
	}
	if decision.Score < 0.999 {
		t.Errorf("Verify: score = %v, want ~1 for identical voice", decision.Score)
	}
}

func TestVerify_NotEnrolled(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	decision, err := f.app.Verify(context.Background(), "stranger", []byte("probe"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if decision.Verified || decision.Reason != voiceid.ReasonNotEnrolled {
		t.Fatalf("Verify: decision = %+v, want not_enrolled rejection", decision)
	}
}

func TestChat_SingleTurnTransfer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "send 500 to John"
	f.nluMock.ClassifyResult = nlu.IntentTransfer
	f.nluMock.TagResult = []string{"O", "B-amount", "O", "B-recipient"}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("utterance"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.ConversationID == "" {
		t.Error("Chat: expected a generated conversation ID")
	}
	if !res.Decision.Verified {
		t.Fatalf("Chat: decision = %+v, want verified", res.Decision)
	}
	if res.Outcome.Kind != dialog.OutcomeComplete {
		t.Fatalf("Chat: outcome = %+v, want complete", res.Outcome)
	}
	if !strings.Contains(res.Response, "John") {
		t.Errorf("Chat: response = %q, want transfer confirmation naming the recipient", res.Response)
	}

	acc, err := f.ledger.Account(context.Background(), testCustomer)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if acc.Balance != 49500 {
		t.Errorf("Account balance = %v, want 49500 after transfer", acc.Balance)
	}
}

func TestChat_ElicitsMissingSlotAcrossTurns(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	// Turn 1: amount only.
	f.stt.TranscribeResult = "transfer 500 rupees"
	f.nluMock.ClassifyResult = nlu.IntentTransfer
	f.nluMock.TagResult = []string{"O", "B-amount", "O"}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("turn-1"),
	})
	if err != nil {
		t.Fatalf("Chat turn 1: %v", err)
	}
	if res.Outcome.Kind != dialog.OutcomeEliciting || res.Outcome.NextMissing != "recipient" {
		t.Fatalf("Chat turn 1: outcome = %+v, want eliciting recipient", res.Outcome)
	}
	if !strings.Contains(res.Response, "recipient") {
		t.Errorf("Chat turn 1: response = %q, want a prompt for the recipient", res.Response)
	}

	// Turn 2: recipient arrives; amount must persist from turn 1.
	f.stt.TranscribeResult = "to John"
	f.nluMock.TagResult = []string{"O", "B-recipient"}

	res2, err := f.app.Chat(context.Background(), app.ChatRequest{
		ConversationID: res.ConversationID,
		Identity:       "alice",
		Audio:          []byte("turn-2"),
	})
	if err != nil {
		t.Fatalf("Chat turn 2: %v", err)
	}
	if res2.Outcome.Kind != dialog.OutcomeComplete {
		t.Fatalf("Chat turn 2: outcome = %+v, want complete", res2.Outcome)
	}
	if got := res2.Outcome.Request.Slots["amount"]; got != "500" {
		t.Errorf("Chat turn 2: amount slot = %q, want value retained from turn 1", got)
	}
}

func TestChat_GateRejectionStopsPipeline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	// A different voice for the probe.
	f.enc.EncodeResult = []float32{0, 1, 0}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("imposter"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Decision.Verified {
		t.Fatal("Chat: imposter probe passed the gate")
	}
	if !strings.Contains(strings.ToLower(res.Response), "verification failed") {
		t.Errorf("Chat: response = %q, want a denial", res.Response)
	}
	if len(f.stt.TranscribeCalls) != 0 {
		t.Error("Chat: audio was transcribed despite a failed verification")
	}
}

func TestChat_TranslationRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "shesh rashi"
	f.nluMock.ClassifyResult = nlu.IntentCheckBalance
	// Tags align with the translated english utterance, not the transcript.
	f.nluMock.TagResult = []string{"O", "O", "O"}
	f.trans.TranslateFunc = func(_ context.Context, text, src, dst string) (string, error) {
		if src == "hi" && dst == "en" {
			return "check my balance", nil
		}
		return "[hi] " + text, nil
	}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("utterance"),
		Language: "hi-IN",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got := f.nluMock.ClassifyCalls[0]; got != "check my balance" {
		t.Errorf("Chat: classified text = %q, want the inbound translation", got)
	}
	if !strings.HasPrefix(res.Response, "[hi] ") {
		t.Errorf("Chat: response = %q, want the outbound translation", res.Response)
	}
}

func TestChat_TranslationFailureDegrades(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "check my balance"
	f.nluMock.ClassifyResult = nlu.IntentCheckBalance
	f.nluMock.TagResult = []string{"O", "O", "O"}
	f.trans.TranslateErr = errors.New("backend down")

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("utterance"),
		Language: "hi",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Outcome.Kind != dialog.OutcomeComplete {
		t.Fatalf("Chat: outcome = %+v, want complete despite translation failure", res.Outcome)
	}
	if !strings.Contains(res.Response, "balance") {
		t.Errorf("Chat: response = %q, want the untranslated english answer", res.Response)
	}
}

func TestChat_EmptyTranscript(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "   "

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("silence"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(f.nluMock.ClassifyCalls) != 0 {
		t.Error("Chat: blank transcript reached the intent classifier")
	}
	if res.Response == "" {
		t.Error("Chat: expected a repeat prompt for a blank transcript")
	}
}

func TestChat_UnknownIntentCompletesImmediately(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "sing me a song"
	f.nluMock.ClassifyResult = nlu.Intent("play_music")
	f.nluMock.TagResult = []string{"O", "O", "O", "O"}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("utterance"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.Outcome.Kind != dialog.OutcomeComplete {
		t.Fatalf("Chat: outcome = %+v, want immediate completion for unmodelled intent", res.Outcome)
	}
	if !strings.Contains(res.Response, "play_music") {
		t.Errorf("Chat: response = %q, want the generic acknowledgement naming the intent", res.Response)
	}
}

func TestChat_SubIntentResolution(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "what is the interest rate for a home loan"
	f.nluMock.ClassifyResult = nlu.IntentLoanInquiry
	f.nluMock.TagFunc = func(_ context.Context, tokens []nlu.Token) ([]string, error) {
		tags := make([]string, len(tokens))
		for i, tok := range tokens {
			tags[i] = "O"
			if tok.Text == "home" {
				tags[i] = "B-loan_type"
			}
			if tok.Text == "loan" {
				tags[i] = "I-loan_type"
			}
		}
		return tags, nil
	}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("utterance"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.SubIntent != nlu.SubIntentLoanInterestRate {
		t.Fatalf("Chat: sub-intent = %q, want loan interest rate", res.SubIntent)
	}
	if res.Outcome.Kind != dialog.OutcomeComplete {
		t.Fatalf("Chat: outcome = %+v, want complete (loan_type filled)", res.Outcome)
	}
}

func TestAbandonDropsState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.enroll(t, "alice")

	f.stt.TranscribeResult = "transfer 500 rupees"
	f.nluMock.ClassifyResult = nlu.IntentTransfer
	f.nluMock.TagResult = []string{"O", "B-amount", "O"}

	res, err := f.app.Chat(context.Background(), app.ChatRequest{
		Identity: "alice",
		Audio:    []byte("turn-1"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	f.app.Abandon(res.ConversationID)

	// A fresh turn under the same ID must not see the old amount.
	f.stt.TranscribeResult = "to John"
	f.nluMock.TagResult = []string{"O", "B-recipient"}

	res2, err := f.app.Chat(context.Background(), app.ChatRequest{
		ConversationID: res.ConversationID,
		Identity:       "alice",
		Audio:          []byte("turn-2"),
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res2.Outcome.Kind != dialog.OutcomeEliciting || res2.Outcome.NextMissing != "amount" {
		t.Fatalf("Chat after abandon: outcome = %+v, want eliciting amount", res2.Outcome)
	}
}
