package display

import (
	"context"
	"sync"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/options"
	"github.com/vk/framewire/internal/registry"
	"github.com/vk/framewire/internal/service"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Port is the capability commands resolve to drive the display.
type Port interface {
	ApplyMode(ctx context.Context, fullScreen bool, width, height int) error
}

// Adapter is the default in-process Port implementation. It records the
// mode it was last asked to apply so tests and the healthcheck can read
// it back; a real engine integration would swap in its own Port.
type Adapter struct {
	mu         sync.Mutex
	fullScreen bool
	width      int
	height     int
}

// NewAdapter returns an Adapter holding the stock windowed mode.
func NewAdapter() *Adapter {
	return &Adapter{width: 1280, height: 720}
}

// ApplyMode switches the display to the requested mode.
func (a *Adapter) ApplyMode(ctx context.Context, fullScreen bool, width, height int) error {
	a.mu.Lock()
	a.fullScreen = fullScreen
	a.width = width
	a.height = height
	a.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Display mode applied.",
		"fullScreen", fullScreen, "width", width, "height", height)
	return nil
}

// Mode reports the mode most recently applied.
func (a *Adapter) Mode() (fullScreen bool, width, height int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fullScreen, a.width, a.height
}

// SetModeInput defines the catalog arguments for display.set_mode.
type SetModeInput struct {
	FullScreen bool `cty:"full_screen"`
	Width      int  `cty:"width"`
	Height     int  `cty:"height"`
}

// SetModeCommand switches the display mode when it executes.
type SetModeCommand struct {
	FullScreen bool
	Width      int
	Height     int

	port Port
}

// ResolveServices captures the display port before the command is enqueued.
func (c *SetModeCommand) ResolveServices(reg *service.Registry) error {
	port, err := service.Resolve[Port](reg)
	if err != nil {
		return err
	}
	c.port = port
	return nil
}

// Run applies the mode, then releases the command's callbacks.
func (c *SetModeCommand) Run(ctx context.Context, fire func()) {
	if err := c.port.ApplyMode(ctx, c.FullScreen, c.Width, c.Height); err != nil {
		ctxlog.FromContext(ctx).Error("Applying display mode failed", "error", err)
		return
	}
	fire()
}

// Register wires the adapter, the settings callback, and the catalog factory.
func (m *Module) Register(r *registry.Registry) {
	adapter := NewAdapter()
	service.Provide[Port](r.Services, "display", adapter)

	command.Bind(r.Bindings, func(ctx context.Context, cmd options.ApplyCommand) {
		o := cmd.Options
		if err := adapter.ApplyMode(ctx, o.FullScreen, o.Width, o.Height); err != nil {
			ctxlog.FromContext(ctx).Error("Applying display settings failed", "error", err)
		}
	})

	r.RegisterCommand("display.set_mode", &registry.RegisteredCommand{
		NewInput: func() any { return new(SetModeInput) },
		Build: func(input any) (command.Command, error) {
			in := input.(*SetModeInput)
			return &SetModeCommand{
				FullScreen: in.FullScreen,
				Width:      in.Width,
				Height:     in.Height,
			}, nil
		},
	})
}
