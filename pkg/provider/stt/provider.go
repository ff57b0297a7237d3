// Package stt defines the Provider interface for batch speech-to-text
// backends.
//
// Transcription here is a black-box contract: a complete utterance waveform
// goes in, text comes out. There is no streaming surface — utterances are
// short banking commands and the pipeline only acts on finals.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Provider is the abstraction over any batch transcription backend.
type Provider interface {
	// Transcribe converts a complete utterance waveform (typically 16 kHz
	// mono 16-bit PCM WAV) into text. Returns the transcript, which may be
	// empty for silent audio, or an error if the request fails or ctx is
	// cancelled.
	Transcribe(ctx context.Context, audio []byte) (string, error)

	// ModelID returns the provider-specific model identifier for logging.
	ModelID() string
}
