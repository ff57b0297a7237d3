// Package mock provides a test double for the translate.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/vaani-labs/vaani/pkg/provider/translate"
)

// Compile-time assertion that Provider implements translate.Provider.
var _ translate.Provider = (*Provider)(nil)

// TranslateCall records a single invocation of Translate.
type TranslateCall struct {
	Text string
	Src  string
	Dst  string
}

// Provider is a mock implementation of translate.Provider.
type Provider struct {
	mu sync.Mutex

	// TranslateFunc, when non-nil, computes the result of each call and
	// takes precedence over TranslateResult/TranslateErr.
	TranslateFunc func(ctx context.Context, text, src, dst string) (string, error)

	// TranslateResult is returned by Translate when TranslateFunc is nil.
	// When empty, the input text is echoed back.
	TranslateResult string

	// TranslateErr, if non-nil, is returned as the error from Translate.
	TranslateErr error

	// TranslateCalls records every call to Translate in order.
	TranslateCalls []TranslateCall
}

// Translate records the call and returns the configured result.
func (p *Provider) Translate(ctx context.Context, text, src, dst string) (string, error) {
	p.mu.Lock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Text: text, Src: src, Dst: dst})
	fn := p.TranslateFunc
	res, err := p.TranslateResult, p.TranslateErr
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, src, dst)
	}
	if err != nil {
		return "", err
	}
	if res == "" {
		return text, nil
	}
	return res, nil
}
