// Package app wires all subsystems into the voice banking pipeline.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, the Enroll/Verify/Chat methods execute the pipeline stages,
// and Shutdown tears everything down in order.
//
// For testing, inject fakes via functional options (WithTemplateStore,
// WithLedger, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vaani-labs/vaani/internal/bank"
	bankpg "github.com/vaani-labs/vaani/internal/bank/postgres"
	"github.com/vaani-labs/vaani/internal/config"
	"github.com/vaani-labs/vaani/internal/dialog"
	"github.com/vaani-labs/vaani/internal/observe"
	"github.com/vaani-labs/vaani/pkg/nlu"
	"github.com/vaani-labs/vaani/pkg/provider/intent"
	"github.com/vaani-labs/vaani/pkg/provider/stt"
	"github.com/vaani-labs/vaani/pkg/provider/translate"
	"github.com/vaani-labs/vaani/pkg/provider/voiceenc"
	"github.com/vaani-labs/vaani/pkg/voiceid"
	voicepg "github.com/vaani-labs/vaani/pkg/voiceid/postgres"
)

// english is the pivot language of the NLU models. Utterances in any other
// language are translated in before scoring and the response translated back.
const english = "en"

// Providers holds one interface value per provider slot. VoiceEncoder, STT,
// and NLU are required; Translate is optional (nil disables the translation
// round trip). Populated by main.go via the config registry.
type Providers struct {
	VoiceEncoder voiceenc.Provider
	STT          stt.Provider
	NLU          intent.Provider
	Translate    translate.Provider
}

// App owns all subsystem lifetimes and orchestrates the gated voice banking
// pipeline: verify, transcribe, translate, score, advance, dispatch.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	store      voiceid.TemplateStore
	ledger     bank.Ledger
	enroller   *voiceid.Enroller
	gate       *voiceid.Gate
	resolver   *nlu.SubIntentResolver
	dialogs    *dialog.Manager
	dispatcher *bank.Dispatcher
	metrics    *observe.Metrics

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithTemplateStore injects a template store instead of creating one from
// config.
func WithTemplateStore(s voiceid.TemplateStore) Option {
	return func(a *App) { a.store = s }
}

// WithLedger injects a ledger instead of creating one from config.
func WithLedger(l bank.Ledger) Option {
	return func(a *App) { a.ledger = l }
}

// WithMetrics injects a metrics instance instead of the process default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil || providers.VoiceEncoder == nil {
		return nil, fmt.Errorf("app: a voice encoder provider is required")
	}
	if providers.STT == nil {
		return nil, fmt.Errorf("app: an stt provider is required")
	}
	if providers.NLU == nil {
		return nil, fmt.Errorf("app: an nlu provider is required")
	}

	a := &App{
		cfg:       cfg,
		providers: providers,
		resolver:  nlu.NewSubIntentResolver(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initTemplateStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init template store: %w", err)
	}
	if err := a.initLedger(ctx); err != nil {
		return nil, fmt.Errorf("app: init ledger: %w", err)
	}

	dims := cfg.Voice.EmbeddingDimensions
	if enc := providers.VoiceEncoder.Dimensions(); enc != dims {
		return nil, fmt.Errorf("app: voice encoder produces %d-dimensional embeddings, config expects %d", enc, dims)
	}

	enroller, err := voiceid.NewEnroller(a.store, dims, cfg.Voice.EnrollmentSamples)
	if err != nil {
		return nil, fmt.Errorf("app: init enroller: %w", err)
	}
	a.enroller = enroller

	gate, err := voiceid.NewGate(a.store, dims)
	if err != nil {
		return nil, fmt.Errorf("app: init gate: %w", err)
	}
	a.gate = gate

	schedule := buildSchedule(cfg.Dialog)
	machine := dialog.NewMachine(schedule, cfg.Dialog.ConflictPolicy)
	a.dialogs = dialog.NewManager(machine)
	a.dispatcher = bank.NewDispatcher(a.ledger)

	return a, nil
}

// initTemplateStore sets up the PostgreSQL template store, or the in-memory
// store when no DSN is configured or a store was injected.
func (a *App) initTemplateStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if a.cfg.Voice.TemplateDSN == "" {
		a.store = voiceid.NewMemStore()
		return nil
	}
	store, err := voicepg.NewStore(ctx, a.cfg.Voice.TemplateDSN, a.cfg.Voice.EmbeddingDimensions)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	return nil
}

// initLedger sets up the PostgreSQL ledger, or the seeded in-memory demo
// ledger when no DSN is configured or a ledger was injected.
func (a *App) initLedger(ctx context.Context) error {
	if a.ledger != nil {
		return nil
	}
	if a.cfg.Bank.PostgresDSN == "" {
		ml := bank.NewMemLedger()
		ml.SeedDemoData(a.cfg.Bank.DemoCustomerID)
		a.ledger = ml
		slog.Info("using in-memory demo ledger", "customer", a.cfg.Bank.DemoCustomerID)
		return nil
	}
	ledger, err := bankpg.NewLedger(ctx, a.cfg.Bank.PostgresDSN)
	if err != nil {
		return err
	}
	a.ledger = ledger
	a.closers = append(a.closers, func() error {
		ledger.Close()
		return nil
	})
	return nil
}

// buildSchedule layers config overrides over the built-in required-slot
// schedule.
func buildSchedule(dc config.DialogConfig) *dialog.Schedule {
	if len(dc.RequiredSlots) == 0 && len(dc.SubIntentSlots) == 0 {
		return dialog.DefaultSchedule()
	}
	intents := make(map[nlu.Intent][]string, len(dc.RequiredSlots))
	for k, v := range dc.RequiredSlots {
		intents[nlu.Intent(k)] = v
	}
	subIntents := make(map[nlu.SubIntent][]string, len(dc.SubIntentSlots))
	for k, v := range dc.SubIntentSlots {
		subIntents[nlu.SubIntent(k)] = v
	}
	return dialog.DefaultSchedule().WithOverrides(intents, subIntents)
}

// EnrollResult reports a completed enrollment.
type EnrollResult struct {
	Identity    string
	SampleCount int
	ModelID     string
}

// Enroll encodes each audio sample and registers the resulting voice
// template. The number of samples must match the configured enrollment
// sample count exactly.
func (a *App) Enroll(ctx context.Context, identity string, samples [][]byte) (EnrollResult, error) {
	embeddings := make([][]float32, 0, len(samples))
	for i, audio := range samples {
		emb, err := a.providers.VoiceEncoder.Encode(ctx, audio)
		a.metrics.RecordProviderCall(ctx, "voice_encoder", err)
		if err != nil {
			return EnrollResult{}, fmt.Errorf("app: encode enrollment sample %d: %w", i, err)
		}
		embeddings = append(embeddings, emb)
	}

	tpl, err := a.enroller.Enroll(ctx, identity, embeddings)
	if err != nil {
		return EnrollResult{}, fmt.Errorf("app: enroll %q: %w", identity, err)
	}

	if a.metrics.Enrollments != nil {
		a.metrics.Enrollments.Add(ctx, 1)
	}
	slog.Info("voice template enrolled",
		"identity", identity,
		"samples", tpl.SampleCount,
		"model", a.providers.VoiceEncoder.ModelID())

	return EnrollResult{
		Identity:    identity,
		SampleCount: tpl.SampleCount,
		ModelID:     a.providers.VoiceEncoder.ModelID(),
	}, nil
}

// Verify encodes the probe audio and runs it through the verification gate.
func (a *App) Verify(ctx context.Context, identity string, audio []byte) (voiceid.Decision, error) {
	start := time.Now()

	probe, err := a.providers.VoiceEncoder.Encode(ctx, audio)
	a.metrics.RecordProviderCall(ctx, "voice_encoder", err)
	if err != nil {
		return voiceid.Decision{}, fmt.Errorf("app: encode probe: %w", err)
	}

	decision, err := a.gate.Verify(ctx, identity, probe, a.cfg.Voice.VerifyThreshold)
	if err != nil {
		return voiceid.Decision{}, fmt.Errorf("app: verify %q: %w", identity, err)
	}
	a.recordDecision(ctx, decision, time.Since(start))
	return decision, nil
}

// recordDecision emits verification metrics for one gate decision.
func (a *App) recordDecision(ctx context.Context, d voiceid.Decision, elapsed time.Duration) {
	reason := attribute.String("reason", string(d.Reason))
	if a.metrics.VerifyDuration != nil {
		a.metrics.VerifyDuration.Record(ctx, elapsed.Seconds())
	}
	if a.metrics.VerificationScores != nil && d.Reason != voiceid.ReasonNotEnrolled && d.Reason != voiceid.ReasonDegenerateInput {
		a.metrics.VerificationScores.Record(ctx, d.Score, metric.WithAttributes(reason))
	}
	if a.metrics.Verifications != nil {
		a.metrics.Verifications.Add(ctx, 1,
			metric.WithAttributes(reason, attribute.Bool("verified", d.Verified)))
	}
}

// ChatRequest is one utterance submitted to the gated pipeline.
type ChatRequest struct {
	// ConversationID groups turns of one conversation. Empty starts a new
	// conversation with a generated ID.
	ConversationID string

	// Identity names the enrolled speaker the utterance claims to be.
	Identity string

	// Audio is the complete utterance waveform.
	Audio []byte

	// Language is the utterance language code (e.g., "en-US", "hi").
	// Empty means English.
	Language string
}

// ChatResult is the outcome of one pipeline turn.
type ChatResult struct {
	ConversationID string
	Decision       voiceid.Decision
	Transcript     string
	Intent         nlu.Intent
	SubIntent      nlu.SubIntent
	Outcome        dialog.Outcome

	// Response is the customer-facing text: a denial when the gate rejects,
	// a prompt for the next missing slot when eliciting, or the dispatched
	// action's answer when complete. Already translated back to the request
	// language.
	Response string
}

// Chat runs one full turn of the gated pipeline: verify the speaker,
// transcribe, translate in, score intent and slots, advance the dialog, and
// dispatch when complete.
//
// A failed verification stops the turn before any audio is transcribed; the
// result carries the denial and the gate's decision.
func (a *App) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	res := ChatResult{ConversationID: req.ConversationID}
	if res.ConversationID == "" {
		res.ConversationID = uuid.NewString()
	}
	log := observe.Logger(ctx).With("conversation", res.ConversationID)

	// 1. Gate. Nothing is transcribed for an unverified speaker.
	decision, err := a.Verify(ctx, req.Identity, req.Audio)
	if err != nil {
		return ChatResult{}, err
	}
	res.Decision = decision
	if !decision.Verified {
		log.Warn("verification failed",
			"identity", req.Identity,
			"reason", decision.Reason,
			"score", decision.Score)
		res.Response = a.translateOut(ctx, log,
			"Voice verification failed. Please try again or re-enroll your voice.", req.Language)
		return res, nil
	}

	// 2. Transcribe.
	sttStart := time.Now()
	transcript, err := a.providers.STT.Transcribe(ctx, req.Audio)
	a.metrics.RecordProviderCall(ctx, "stt", err)
	if err != nil {
		return ChatResult{}, fmt.Errorf("app: transcribe: %w", err)
	}
	if a.metrics.STTDuration != nil {
		a.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	}
	res.Transcript = transcript
	if strings.TrimSpace(transcript) == "" {
		res.Response = a.translateOut(ctx, log, "I could not hear anything. Please repeat that.", req.Language)
		return res, nil
	}

	// 3. Translate in.
	utterance := a.translateIn(ctx, log, transcript, req.Language)

	// 4. Score: intent, sub-intent, slot tags.
	nluStart := time.Now()
	detected, err := a.providers.NLU.ClassifyIntent(ctx, utterance)
	a.metrics.RecordProviderCall(ctx, "nlu", err)
	if err != nil {
		return ChatResult{}, fmt.Errorf("app: classify intent: %w", err)
	}
	res.Intent = detected
	res.SubIntent = a.resolver.Resolve(detected, utterance)

	tokens := nlu.Tokenize(utterance)
	rawTags, err := a.providers.NLU.TagSequence(ctx, tokens)
	a.metrics.RecordProviderCall(ctx, "nlu", err)
	if err != nil {
		return ChatResult{}, fmt.Errorf("app: tag sequence: %w", err)
	}
	decoded, err := nlu.DecodeRawSlots(tokens, rawTags)
	if err != nil {
		if a.metrics.DecodeErrors != nil {
			a.metrics.DecodeErrors.Add(ctx, 1)
		}
		return ChatResult{}, fmt.Errorf("app: decode slots: %w", err)
	}
	if a.metrics.NLUDuration != nil {
		a.metrics.NLUDuration.Record(ctx, time.Since(nluStart).Seconds())
	}

	// 5. Advance the dialog.
	before := a.dialogs.Active()
	outcome := a.dialogs.Advance(res.ConversationID, detected, res.SubIntent, decoded)
	res.Outcome = outcome
	if a.metrics.DialogTurns != nil {
		a.metrics.DialogTurns.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", string(outcome.Kind))))
	}
	if a.metrics.ActiveConversations != nil {
		if delta := int64(a.dialogs.Active() - before); delta != 0 {
			a.metrics.ActiveConversations.Add(ctx, delta)
		}
	}

	log.Info("dialog advanced",
		"intent", detected,
		"sub_intent", res.SubIntent,
		"outcome", outcome.Kind,
		"missing", outcome.Missing)

	// 6. Eliciting: prompt for the next missing slot.
	if outcome.Kind == dialog.OutcomeEliciting {
		prompt := elicitPrompt(outcome.NextMissing)
		res.Response = a.translateOut(ctx, log, prompt, req.Language)
		return res, nil
	}

	// 7. Complete: dispatch against the ledger.
	dispatchStart := time.Now()
	answer, err := a.dispatcher.Dispatch(ctx, a.cfg.Bank.DemoCustomerID, outcome.Request)
	if err != nil {
		return ChatResult{}, fmt.Errorf("app: dispatch: %w", err)
	}
	if a.metrics.DispatchDuration != nil {
		a.metrics.DispatchDuration.Record(ctx, time.Since(dispatchStart).Seconds())
	}

	res.Response = a.translateOut(ctx, log, answer, req.Language)
	return res, nil
}

// Abandon discards any accumulated dialog state for conversationID.
func (a *App) Abandon(conversationID string) {
	before := a.dialogs.Active()
	a.dialogs.Abandon(conversationID)
	if a.metrics.ActiveConversations != nil {
		if delta := int64(a.dialogs.Active() - before); delta != 0 {
			a.metrics.ActiveConversations.Add(context.Background(), delta)
		}
	}
}

// translateIn converts an utterance to English when the request language is
// not English. A failed translation degrades to the untranslated text.
func (a *App) translateIn(ctx context.Context, log *slog.Logger, text, language string) string {
	lang := normalizeLanguage(language)
	if lang == english || a.providers.Translate == nil {
		return text
	}
	out, err := a.providers.Translate.Translate(ctx, text, lang, english)
	a.metrics.RecordProviderCall(ctx, "translate", err)
	if err != nil {
		log.Warn("inbound translation failed, using untranslated text", "lang", lang, "err", err)
		return text
	}
	return out
}

// translateOut converts a response back to the request language. A failed
// translation degrades to the English text.
func (a *App) translateOut(ctx context.Context, log *slog.Logger, text, language string) string {
	lang := normalizeLanguage(language)
	if lang == english || a.providers.Translate == nil {
		return text
	}
	out, err := a.providers.Translate.Translate(ctx, text, english, lang)
	a.metrics.RecordProviderCall(ctx, "translate", err)
	if err != nil {
		log.Warn("outbound translation failed, using english text", "lang", lang, "err", err)
		return text
	}
	return out
}

// normalizeLanguage reduces a BCP-47-ish code to its primary subtag
// ("en-US" becomes "en"). Empty means English.
func normalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return english
	}
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// elicitPrompt renders the question asking for one missing slot.
func elicitPrompt(slot string) string {
	return fmt.Sprintf("Could you tell me the %s?", strings.ReplaceAll(slot, "_", " "))
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
