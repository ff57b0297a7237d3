// Package mock provides test doubles for the intent.Classifier and
// intent.Tagger interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/vaani-labs/vaani/pkg/nlu"
	"github.com/vaani-labs/vaani/pkg/provider/intent"
)

// Compile-time assertion that Provider implements both scorer interfaces.
var _ intent.Provider = (*Provider)(nil)

// Provider is a mock implementation of intent.Classifier and intent.Tagger.
type Provider struct {
	mu sync.Mutex

	// ClassifyResult is returned by ClassifyIntent.
	ClassifyResult nlu.Intent

	// ClassifyErr, if non-nil, is returned as the error from ClassifyIntent.
	ClassifyErr error

	// TagResult is returned by TagSequence when TagFunc is nil.
	TagResult []string

	// TagErr, if non-nil, is returned as the error from TagSequence.
	TagErr error

	// TagFunc, when non-nil, computes the result of each TagSequence call
	// and takes precedence over TagResult/TagErr.
	TagFunc func(ctx context.Context, tokens []nlu.Token) ([]string, error)

	// ClassifyCalls records the text of every ClassifyIntent call in order.
	ClassifyCalls []string

	// TagCalls records the tokens of every TagSequence call in order.
	TagCalls [][]nlu.Token
}

// ClassifyIntent records the call and returns the configured result.
func (p *Provider) ClassifyIntent(ctx context.Context, text string) (nlu.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ClassifyCalls = append(p.ClassifyCalls, text)
	return p.ClassifyResult, p.ClassifyErr
}

// TagSequence records the call and returns the configured result.
func (p *Provider) TagSequence(ctx context.Context, tokens []nlu.Token) ([]string, error) {
	p.mu.Lock()
	p.TagCalls = append(p.TagCalls, tokens)
	fn := p.TagFunc
	res, err := p.TagResult, p.TagErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, tokens)
	}
	return res, err
}
