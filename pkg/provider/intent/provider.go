// Package intent defines the provider interfaces for the offline-trained
// utterance scorers: the intent classifier and the per-token sequence
// tagger.
//
// Both models are trained elsewhere (TF-IDF + linear classifier for intents,
// a CRF for slot tags) and consumed here purely through their inference
// contract. The decoding of tag sequences into slot maps is deterministic Go
// code in pkg/nlu; only the scoring crosses this boundary.
//
// Implementations must be safe for concurrent use.
package intent

import (
	"context"

	"github.com/vaani-labs/vaani/pkg/nlu"
)

// Classifier maps an utterance to an intent label.
type Classifier interface {
	// ClassifyIntent returns the most likely intent for text. Labels outside
	// the modelled set are passed through verbatim as unknown intents
	// (nlu.Intent.IsKnown reports false); the dialog layer handles them
	// with an empty required-slot schedule.
	ClassifyIntent(ctx context.Context, text string) (nlu.Intent, error)
}

// Tagger maps a token sequence to a parallel BIO label sequence.
type Tagger interface {
	// TagSequence returns one raw BIO label per token, aligned by index.
	// POS tags on the tokens, when present, are forwarded to the model as
	// features. The returned slice always has len(tokens) elements on
	// success.
	TagSequence(ctx context.Context, tokens []nlu.Token) ([]string, error)
}

// Provider bundles both scorers when a single backend serves them.
type Provider interface {
	Classifier
	Tagger
}
