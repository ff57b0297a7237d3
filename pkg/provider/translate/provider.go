// Package translate defines the Provider interface for machine translation
// backends.
//
// Translation is used to bridge non-English utterances into the English-only
// NLU models and to localise responses back. It is a best-effort ambient
// service: the pipeline degrades to the untranslated text when a translation
// call fails.
//
// Implementations must be safe for concurrent use.
package translate

import "context"

// Provider is the abstraction over any translation backend.
type Provider interface {
	// Translate converts text from the src language to the dst language.
	// Language codes are BCP-47-ish short codes as the backend expects
	// (e.g., "hi", "en"). Returns the translated text or an error.
	Translate(ctx context.Context, text, src, dst string) (string, error)
}
