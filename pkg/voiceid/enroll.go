package voiceid

import (
	"context"
	"fmt"
	"time"

	"github.com/vaani-labs/vaani/pkg/vector"
)

// InsufficientSamplesError reports an enrollment attempt with the wrong
// number of raw sample embeddings.
type InsufficientSamplesError struct {
	// Want is the configured sample count.
	Want int

	// Got is the number of samples supplied.
	Got int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("voiceid: enrollment requires exactly %d samples, got %d", e.Want, e.Got)
}

// Enroller fuses a fixed number of raw utterance embeddings into a single
// voice [Template] and writes it to a [TemplateStore].
//
// The fusion is a component-wise mean followed by L2 normalisation.
// Normalising after averaging (rather than per sample) matches how the
// verification gate later scores a single normalised probe against the
// template. Safe for concurrent use when the store is.
type Enroller struct {
	store       TemplateStore
	dimensions  int
	sampleCount int
	now         func() time.Time
}

// NewEnroller creates an Enroller writing to store.
//
// dimensions is the embedding dimension fixed by the external encoder.
// sampleCount is the exact number of raw samples an enrollment consumes;
// it must be at least 1.
func NewEnroller(store TemplateStore, dimensions, sampleCount int) (*Enroller, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("voiceid: dimensions must be positive, got %d", dimensions)
	}
	if sampleCount < 1 {
		return nil, fmt.Errorf("voiceid: sample count must be at least 1, got %d", sampleCount)
	}
	return &Enroller{
		store:       store,
		dimensions:  dimensions,
		sampleCount: sampleCount,
		now:         time.Now,
	}, nil
}

// SampleCount returns the number of raw samples one enrollment consumes.
func (e *Enroller) SampleCount() int { return e.sampleCount }

// Dimensions returns the embedding dimension this enroller expects.
func (e *Enroller) Dimensions() int { return e.dimensions }

// Enroll fuses samples into a template for identity and saves it,
// overwriting any previous enrollment for the same identity.
//
// Returns [*InsufficientSamplesError] when len(samples) differs from the
// configured sample count, [*vector.DimensionError] when any sample has the
// wrong dimension, and [vector.ErrZeroNorm] when the averaged vector has no
// direction (all samples degenerate). The store is not touched on error.
func (e *Enroller) Enroll(ctx context.Context, identity string, samples [][]float32) (Template, error) {
	if len(samples) != e.sampleCount {
		return Template{}, &InsufficientSamplesError{Want: e.sampleCount, Got: len(samples)}
	}

	mean, err := vector.Mean(e.dimensions, samples...)
	if err != nil {
		return Template{}, fmt.Errorf("voiceid: enroll %q: %w", identity, err)
	}

	normalised, err := vector.Normalize(mean)
	if err != nil {
		return Template{}, fmt.Errorf("voiceid: enroll %q: %w", identity, err)
	}

	tpl := Template{
		Identity:    identity,
		Vector:      normalised,
		SampleCount: len(samples),
		EnrolledAt:  e.now(),
	}
	if err := e.store.Save(ctx, tpl); err != nil {
		return Template{}, fmt.Errorf("voiceid: enroll %q: save template: %w", identity, err)
	}
	return tpl, nil
}
