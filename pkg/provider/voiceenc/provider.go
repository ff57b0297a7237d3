// Package voiceenc defines the Provider interface for voice-embedding
// encoders.
//
// A voice encoder wraps a speaker-embedding model (e.g., Resemblyzer's
// d-vector encoder) that maps a cleaned waveform to a fixed-length float32
// vector summarising the speaker's voice characteristics. These vectors feed
// enrollment and verification in pkg/voiceid.
//
// Implementations must be safe for concurrent use.
package voiceenc

import "context"

// Provider is the abstraction over any voice-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (returned by Dimensions). Templates enrolled with one
// provider must never be verified against probes from a provider with a
// different model, since the embedding spaces are not comparable.
type Provider interface {
	// Encode computes the speaker embedding for a single utterance. audio is
	// a complete waveform in the encoding the implementation documents
	// (typically 16 kHz mono 16-bit PCM WAV). Returns a float32 slice of
	// length Dimensions() or an error if the request fails or ctx is
	// cancelled.
	Encode(ctx context.Context, audio []byte) ([]float32, error)

	// Dimensions returns the fixed length of every embedding produced by
	// this provider. Constant for the lifetime of the instance.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, useful for
	// logging and for ensuring templates and probes share a model.
	ModelID() string
}
