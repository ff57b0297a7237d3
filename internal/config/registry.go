package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vaani-labs/vaani/pkg/provider/intent"
	"github.com/vaani-labs/vaani/pkg/provider/stt"
	"github.com/vaani-labs/vaani/pkg/provider/translate"
	"github.com/vaani-labs/vaani/pkg/provider/voiceenc"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	voiceenc  map[string]func(ProviderEntry) (voiceenc.Provider, error)
	stt       map[string]func(ProviderEntry) (stt.Provider, error)
	nlu       map[string]func(ProviderEntry) (intent.Provider, error)
	translate map[string]func(ProviderEntry) (translate.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		voiceenc:  make(map[string]func(ProviderEntry) (voiceenc.Provider, error)),
		stt:       make(map[string]func(ProviderEntry) (stt.Provider, error)),
		nlu:       make(map[string]func(ProviderEntry) (intent.Provider, error)),
		translate: make(map[string]func(ProviderEntry) (translate.Provider, error)),
	}
}

// RegisterVoiceEncoder registers a voice encoder factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterVoiceEncoder(name string, factory func(ProviderEntry) (voiceenc.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voiceenc[name] = factory
}

// RegisterSTT registers an STT provider factory under name.
func (r *Registry) RegisterSTT(name string, factory func(ProviderEntry) (stt.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = factory
}

// RegisterNLU registers an intent/tagger provider factory under name.
func (r *Registry) RegisterNLU(name string, factory func(ProviderEntry) (intent.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nlu[name] = factory
}

// RegisterTranslate registers a translation provider factory under name.
func (r *Registry) RegisterTranslate(name string, factory func(ProviderEntry) (translate.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translate[name] = factory
}

// CreateVoiceEncoder instantiates the voice encoder named in entry.
// Returns [ErrProviderNotRegistered] when no factory matches.
func (r *Registry) CreateVoiceEncoder(entry ProviderEntry) (voiceenc.Provider, error) {
	r.mu.RLock()
	factory, ok := r.voiceenc[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("voice encoder %q: %w", entry.Name, ErrProviderNotRegistered)
	}
	return factory(entry)
}

// CreateSTT instantiates the STT provider named in entry.
func (r *Registry) CreateSTT(entry ProviderEntry) (stt.Provider, error) {
	r.mu.RLock()
	factory, ok := r.stt[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("stt %q: %w", entry.Name, ErrProviderNotRegistered)
	}
	return factory(entry)
}

// CreateNLU instantiates the intent/tagger provider named in entry.
func (r *Registry) CreateNLU(entry ProviderEntry) (intent.Provider, error) {
	r.mu.RLock()
	factory, ok := r.nlu[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("nlu %q: %w", entry.Name, ErrProviderNotRegistered)
	}
	return factory(entry)
}

// CreateTranslate instantiates the translation provider named in entry.
func (r *Registry) CreateTranslate(entry ProviderEntry) (translate.Provider, error) {
	r.mu.RLock()
	factory, ok := r.translate[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("translate %q: %w", entry.Name, ErrProviderNotRegistered)
	}
	return factory(entry)
}
