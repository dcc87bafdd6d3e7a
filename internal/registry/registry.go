package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/manifest"
	"github.com/vk/framewire/internal/service"
)

// Module is the interface that all core modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredCommand holds the compiled Go parts of a catalog command.
type RegisteredCommand struct {
	// NewInput returns a pointer to the zero input struct whose cty
	// tags define the factory's argument contract.
	NewInput func() any

	// Build constructs the typed command from a filled input struct.
	Build func(input any) (command.Command, error)
}

// Registry holds the bindings, providers, factories, and manifest
// definitions for a single application instance.
type Registry struct {
	// Bindings is the command-variant callback table the pump fires.
	Bindings *command.Binder

	// Services is the capability provider registry the pump resolves
	// command dependencies from.
	Services *service.Registry

	mu          sync.Mutex
	commands    map[string]*RegisteredCommand
	commandDefs map[string]*manifest.Command
	serviceDefs map[string]*manifest.Service
	defSources  map[string]string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Bindings:    command.NewBinder(),
		Services:    service.NewRegistry(),
		commands:    make(map[string]*RegisteredCommand),
		commandDefs: make(map[string]*manifest.Command),
		serviceDefs: make(map[string]*manifest.Service),
		defSources:  make(map[string]string),
	}
}

// RegisterCommand registers a Go factory for a catalog command.
func (r *Registry) RegisterCommand(name string, rc *RegisteredCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		panic(fmt.Sprintf("command factory with name '%s' already registered", name))
	}
	slog.Debug("Registering command factory.", "name", name)
	r.commands[name] = rc
}

// PopulateFromManifests copies the declarative definitions from the
// loaded manifests into the registry. A command or service declared by
// more than one manifest is a hard error.
func (r *Registry) PopulateFromManifests(ctx context.Context, modules []*manifest.Module) error {
	logger := ctxlog.FromContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []string
	for _, mod := range modules {
		for name, def := range mod.Commands {
			if _, exists := r.commandDefs[name]; exists {
				errs = append(errs, fmt.Sprintf("command '%s': declared in both %s and %s", name, r.defSources[name], mod.SourcePath))
				continue
			}
			r.commandDefs[name] = def
			r.defSources[name] = mod.SourcePath
		}
		for name, def := range mod.Services {
			if _, exists := r.serviceDefs[name]; exists {
				errs = append(errs, fmt.Sprintf("service '%s': declared in both %s and %s", name, r.defSources["service:"+name], mod.SourcePath))
				continue
			}
			r.serviceDefs[name] = def
			r.defSources["service:"+name] = mod.SourcePath
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("manifest definitions conflict:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry definitions populated from manifests.",
		"commands", len(r.commandDefs), "services", len(r.serviceDefs))
	return nil
}

// CommandNames returns the sorted names of all declared catalog
// commands.
func (r *Registry) CommandNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.commandDefs))
	for name := range r.commandDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the manifest declaration of a catalog command.
func (r *Registry) Definition(name string) (*manifest.Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.commandDefs[name]
	return def, ok
}
