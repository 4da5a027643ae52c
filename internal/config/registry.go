package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blockparty-gg/npcrelay/pkg/provider/llm"
	"github.com/blockparty-gg/npcrelay/pkg/provider/notify"
	"github.com/blockparty-gg/npcrelay/pkg/provider/tts"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	completion map[string]func(ProviderEntry) (llm.Provider, error)
	speech     map[string]func(ProviderEntry) (tts.Provider, error)
	notify     map[string]func(ProviderEntry) (notify.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		completion: make(map[string]func(ProviderEntry) (llm.Provider, error)),
		speech:     make(map[string]func(ProviderEntry) (tts.Provider, error)),
		notify:     make(map[string]func(ProviderEntry) (notify.Provider, error)),
	}
}

// RegisterCompletion registers a completion provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterCompletion(name string, factory func(ProviderEntry) (llm.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completion[name] = factory
}

// RegisterSpeech registers a speech provider factory under name.
func (r *Registry) RegisterSpeech(name string, factory func(ProviderEntry) (tts.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = factory
}

// RegisterNotify registers a notification provider factory under name.
func (r *Registry) RegisterNotify(name string, factory func(ProviderEntry) (notify.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify[name] = factory
}

// CreateCompletion instantiates a completion provider using the factory
// registered under entry.Name. Returns [ErrProviderNotRegistered] if no
// factory has been registered for that name.
func (r *Registry) CreateCompletion(entry ProviderEntry) (llm.Provider, error) {
	r.mu.RLock()
	factory, ok := r.completion[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: completion/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSpeech instantiates a speech provider using the factory registered
// under entry.Name.
func (r *Registry) CreateSpeech(entry ProviderEntry) (tts.Provider, error) {
	r.mu.RLock()
	factory, ok := r.speech[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateNotify instantiates a notification provider using the factory
// registered under entry.Name.
func (r *Registry) CreateNotify(entry ProviderEntry) (notify.Provider, error) {
	r.mu.RLock()
	factory, ok := r.notify[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: notify/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
