// Package mock provides a test double for the voiceenc.Provider interface.
//
// Use Provider to return pre-canned embeddings without a live encoder and to
// verify which audio payloads were submitted.
//
// Example:
//
//	p := &mock.Provider{
//	    EncodeResult:    []float32{0.1, 0.2, 0.3},
//	    DimensionsValue: 3,
//	    ModelIDValue:    "test-encoder",
//	}
//	vec, _ := p.Encode(ctx, wav)
package mock

import (
	"context"
	"sync"

	"github.com/vaani-labs/vaani/pkg/provider/voiceenc"
)

// Compile-time assertion that Provider implements voiceenc.Provider.
var _ voiceenc.Provider = (*Provider)(nil)

// EncodeCall records a single invocation of Encode.
type EncodeCall struct {
	// Ctx is the context passed to Encode.
	Ctx context.Context
	// Audio is the payload passed to Encode (not copied).
	Audio []byte
}

// Provider is a mock implementation of voiceenc.Provider.
type Provider struct {
	mu sync.Mutex

	// EncodeFunc, when non-nil, computes the result of each Encode call and
	// takes precedence over EncodeResult/EncodeErr.
	EncodeFunc func(ctx context.Context, audio []byte) ([]float32, error)

	// EncodeResult is returned by Encode when EncodeFunc is nil.
	EncodeResult []float32

	// EncodeErr, if non-nil, is returned as the error from Encode.
	EncodeErr error

	// DimensionsValue is returned by Dimensions.
	DimensionsValue int

	// ModelIDValue is returned by ModelID.
	ModelIDValue string

	// EncodeCalls records every call to Encode in order.
	EncodeCalls []EncodeCall
}

// Encode records the call and returns the configured result.
func (p *Provider) Encode(ctx context.Context, audio []byte) ([]float32, error) {
	p.mu.Lock()
	p.EncodeCalls = append(p.EncodeCalls, EncodeCall{Ctx: ctx, Audio: audio})
	fn := p.EncodeFunc
	res, err := p.EncodeResult, p.EncodeErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio)
	}
	return res, err
}

// Dimensions returns DimensionsValue.
func (p *Provider) Dimensions() int { return p.DimensionsValue }

// ModelID returns ModelIDValue.
func (p *Provider) ModelID() string { return p.ModelIDValue }
