package voiceid

import (
	"context"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the TemplateStore interface.
var _ TemplateStore = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [TemplateStore].
// Suitable for tests and single-process deployments without persistence.
//
// Templates are stored and returned by value with the vector copied on both
// paths, so callers can never mutate a stored template and a reader never
// observes a half-written one.
type MemStore struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		templates: make(map[string]Template),
	}
}

// Save implements [TemplateStore.Save].
func (s *MemStore) Save(ctx context.Context, tpl Template) error {
	tpl.Vector = slices.Clone(tpl.Vector)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.templates == nil {
		s.templates = make(map[string]Template)
	}
	s.templates[tpl.Identity] = tpl
	return nil
}

// Load implements [TemplateStore.Load].
func (s *MemStore) Load(ctx context.Context, identity string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[identity]
	if !ok {
		return Template{}, ErrNotEnrolled
	}
	tpl.Vector = slices.Clone(tpl.Vector)
	return tpl, nil
}

// Delete implements [TemplateStore.Delete].
func (s *MemStore) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[identity]; !ok {
		return ErrNotEnrolled
	}
	delete(s.templates, identity)
	return nil
}
