// Package service provides the capability-keyed provider registry that
// command dependencies are resolved from.
//
// Providers register at module init time under a capability type
// (usually an interface) and a module-facing name used for manifest
// parity checks. Commands opt into resolution by implementing
// Consumer; the pump's dispatch path calls ResolveServices before a
// command is enqueued, and any error there aborts the dispatch.
package service

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Registry holds capability providers. It is an explicitly constructed
// object owned by the app's registry; registration and resolution are
// guarded by an RWMutex so the console's goroutines may dispatch while
// modules finish registering.
type Registry struct {
	mu        sync.RWMutex
	providers map[reflect.Type]provider
}

type provider struct {
	name  string
	value any
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[reflect.Type]provider)}
}

// Consumer is the explicit dependency-resolution step for commands.
// ResolveServices is called by the pump before an injected enqueue;
// returning an error means the command never executes, not even
// partially resolved.
type Consumer interface {
	ResolveServices(r *Registry) error
}

// Provide registers impl as the provider for capability T under the
// given module-facing name. Registration is init-time programmer
// work, so a duplicate capability or name panics, as does an empty
// name.
func Provide[T any](r *Registry, name string, impl T) {
	if name == "" {
		panic("service: provider name must not be empty")
	}
	capability := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.providers[capability]; ok {
		panic(fmt.Sprintf("service: capability %s already provided by %q", capability, existing.name))
	}
	for _, existing := range r.providers {
		if existing.name == name {
			panic(fmt.Sprintf("service: provider name %q already in use", name))
		}
	}
	r.providers[capability] = provider{name: name, value: impl}
}

// Resolve returns the provider registered for capability T. A missing
// provider is a hard error naming the capability.
func Resolve[T any](r *Registry) (T, error) {
	capability := reflect.TypeOf((*T)(nil)).Elem()

	r.mu.RLock()
	entry, ok := r.providers[capability]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("no provider registered for capability %s", capability)
	}
	return entry.value.(T), nil
}

// Names returns the sorted module-facing names of all providers, for
// manifest parity validation.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for _, entry := range r.providers {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// Reset removes every provider. Intended for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[reflect.Type]provider)
}
