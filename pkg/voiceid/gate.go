package voiceid

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaani-labs/vaani/pkg/vector"
)

// DecisionReason explains a verification decision. Rejections here are
// routine business outcomes, not system faults — only shape errors
// (dimension mismatch, store failures) surface as Go errors.
type DecisionReason string

const (
	// ReasonVerified means the probe matched the enrolled template.
	ReasonVerified DecisionReason = "verified"

	// ReasonBelowThreshold means a similarity was computed but fell short
	// of the caller's threshold.
	ReasonBelowThreshold DecisionReason = "below_threshold"

	// ReasonNotEnrolled means no template exists for the identity. No
	// similarity is computed; the score is 0 by convention, not as a
	// measurement.
	ReasonNotEnrolled DecisionReason = "not_enrolled"

	// ReasonDegenerateInput means the probe had (near-)zero norm —
	// silent or broken audio — and could not be normalised.
	ReasonDegenerateInput DecisionReason = "degenerate_input"
)

// Decision is the outcome of one verification call. Ephemeral; never
// persisted.
type Decision struct {
	// Identity is the identity the probe was checked against.
	Identity string

	// Score is the cosine similarity in [-1, 1] between the normalised
	// probe and the template. Zero when no similarity was computed
	// (not enrolled / degenerate input).
	Score float64

	// Verified reports whether Score met the threshold.
	Verified bool

	// Reason explains the decision.
	Reason DecisionReason
}

// Gate decides whether a probe embedding belongs to an enrolled identity.
//
// The gate performs no I/O beyond the template lookup; given a template and
// a probe it is a pure numeric decision, which keeps it unit-testable with
// synthetic vectors. The acceptance threshold is supplied per call so
// deployments can tune their false-accept/false-reject trade-off without
// touching the gate. Safe for concurrent use when the store is.
type Gate struct {
	store      TemplateStore
	dimensions int
}

// NewGate creates a Gate reading templates from store. dimensions is the
// embedding dimension fixed by the external encoder.
func NewGate(store TemplateStore, dimensions int) (*Gate, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("voiceid: dimensions must be positive, got %d", dimensions)
	}
	return &Gate{store: store, dimensions: dimensions}, nil
}

// Verify compares probe against the template enrolled for identity.
//
// Probes are normalised before comparison, so scaling a probe by any
// positive factor does not change the score. An unenrolled identity and a
// zero-norm probe both yield a rejected decision (with [ReasonNotEnrolled]
// and [ReasonDegenerateInput] respectively) rather than an error.
//
// Returns a [*vector.DimensionError] when the probe's length is not the
// configured dimension; that is a caller bug, not a rejection.
func (g *Gate) Verify(ctx context.Context, identity string, probe []float32, threshold float64) (Decision, error) {
	if len(probe) != g.dimensions {
		return Decision{}, &vector.DimensionError{Want: g.dimensions, Got: len(probe)}
	}

	// An absent template wins over any probe defect: no similarity is ever
	// computed for an unenrolled identity.
	tpl, err := g.store.Load(ctx, identity)
	if errors.Is(err, ErrNotEnrolled) {
		return Decision{Identity: identity, Reason: ReasonNotEnrolled}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("voiceid: verify %q: load template: %w", identity, err)
	}

	// Reject degenerate probes before normalisation: normalising a zero
	// vector is undefined.
	normProbe, err := vector.Normalize(probe)
	if errors.Is(err, vector.ErrZeroNorm) {
		return Decision{Identity: identity, Reason: ReasonDegenerateInput}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("voiceid: verify %q: %w", identity, err)
	}

	// Template vectors are stored unit-norm, so the dot product is exactly
	// the cosine similarity.
	score, err := vector.Dot(tpl.Vector, normProbe)
	if err != nil {
		return Decision{}, fmt.Errorf("voiceid: verify %q: %w", identity, err)
	}

	d := Decision{Identity: identity, Score: score}
	if score >= threshold {
		d.Verified = true
		d.Reason = ReasonVerified
	} else {
		d.Reason = ReasonBelowThreshold
	}
	return d, nil
}
