// Package voiceid implements the speaker-verification core: per-identity
// voice templates, enrollment that fuses several utterance embeddings into
// one template, and the verification gate that compares a probe embedding
// against the stored template.
//
// The neural encoder that turns audio into embeddings is an external
// collaborator (see pkg/provider/voiceenc); this package only deals in
// fixed-dimension float32 vectors.
package voiceid

import (
	"context"
	"errors"
	"time"
)

// ErrNotEnrolled is returned by [TemplateStore.Load] when no template exists
// for the requested identity. The verification gate maps it to a rejected
// decision with [ReasonNotEnrolled] rather than an error.
var ErrNotEnrolled = errors.New("voiceid: identity not enrolled")

// Template is the enrolled voice reference for one identity.
//
// Vector is always unit L2 norm — [Enroller.Enroll] normalises after
// averaging, and stores must persist the vector with enough precision that a
// cosine similarity computed against the reloaded vector agrees with the
// original within float tolerance.
type Template struct {
	// Identity is the key the template is stored under.
	Identity string

	// Vector is the normalised reference embedding.
	Vector []float32

	// SampleCount is the number of raw samples fused into this template.
	SampleCount int

	// EnrolledAt is when the template was (re-)created.
	EnrolledAt time.Time
}

// TemplateStore persists one [Template] per identity.
//
// Save is a full replacement: re-enrollment discards the previous template
// wholesale rather than blending into it. Implementations must serialise
// writes per identity so a concurrent Load never observes a partially
// written template, and must be safe for concurrent use.
type TemplateStore interface {
	// Save writes or overwrites the template for tpl.Identity.
	Save(ctx context.Context, tpl Template) error

	// Load returns the template for identity.
	// Returns [ErrNotEnrolled] when no template exists.
	Load(ctx context.Context, identity string) (Template, error)

	// Delete removes the template for identity.
	// Returns [ErrNotEnrolled] when no template exists.
	Delete(ctx context.Context, identity string) error
}
