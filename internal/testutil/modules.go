package testutil

import (
	"github.com/vk/framewire/internal/registry"
)

// SimpleModule adapts a single command factory, plus an optional setup
// hook for service providers and bindings, into a registry.Module.
type SimpleModule struct {
	CommandName string
	Command     *registry.RegisteredCommand
	SetupFunc   func(r *registry.Registry)
}

// Register registers the wrapped factory and runs the setup hook.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.CommandName != "" {
		r.RegisterCommand(m.CommandName, m.Command)
	}
	if m.SetupFunc != nil {
		m.SetupFunc(r)
	}
}

// NoopModule registers nothing. It exists for tests that need a module
// value but no behavior.
type NoopModule struct{}

// Register is a no-op.
func (m *NoopModule) Register(r *registry.Registry) {}
