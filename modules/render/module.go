package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/options"
	"github.com/vk/framewire/internal/registry"
	"github.com/vk/framewire/internal/service"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Effect dimension names accepted by render.set_quality and SetQuality.
const (
	SettingAntialias  = "antialias"
	SettingSSAO       = "ssao"
	SettingMotionBlur = "motion_blur"
	SettingShadow     = "shadow"
	SettingVignette   = "vignette"
)

// Port is the capability commands resolve to drive the render pipeline.
type Port interface {
	SetQuality(ctx context.Context, setting string, level options.Quality) error
}

// Adapter is the default in-process Port implementation. It keeps the
// level of every effect dimension so tests can read them back.
type Adapter struct {
	mu     sync.Mutex
	levels map[string]options.Quality
}

// NewAdapter returns an Adapter with every dimension at Medium.
func NewAdapter() *Adapter {
	return &Adapter{levels: map[string]options.Quality{
		SettingAntialias:  options.QualityMedium,
		SettingSSAO:       options.QualityMedium,
		SettingMotionBlur: options.QualityMedium,
		SettingShadow:     options.QualityMedium,
		SettingVignette:   options.QualityMedium,
	}}
}

// SetQuality changes one effect dimension. Unknown dimension names are
// rejected so typos surface instead of silently creating new knobs.
func (a *Adapter) SetQuality(ctx context.Context, setting string, level options.Quality) error {
	a.mu.Lock()
	if _, ok := a.levels[setting]; !ok {
		a.mu.Unlock()
		return fmt.Errorf("unknown render setting %q", setting)
	}
	a.levels[setting] = level.Clamp()
	a.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Render quality adjusted.", "setting", setting, "level", level.Clamp().String())
	return nil
}

// Level reports the current level of one dimension.
func (a *Adapter) Level(setting string) (options.Quality, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	level, ok := a.levels[setting]
	return level, ok
}

// SetQualityInput defines the catalog arguments for render.set_quality.
type SetQualityInput struct {
	Setting string `cty:"setting"`
	Level   int    `cty:"level"`
}

// SetQualityCommand changes one effect dimension when it executes.
type SetQualityCommand struct {
	Setting string
	Level   options.Quality

	port Port
}

// ResolveServices captures the render port before the command is enqueued.
func (c *SetQualityCommand) ResolveServices(reg *service.Registry) error {
	port, err := service.Resolve[Port](reg)
	if err != nil {
		return err
	}
	c.port = port
	return nil
}

// Run adjusts the dimension, then releases the command's callbacks.
func (c *SetQualityCommand) Run(ctx context.Context, fire func()) {
	if err := c.port.SetQuality(ctx, c.Setting, c.Level); err != nil {
		ctxlog.FromContext(ctx).Error("Adjusting render quality failed", "error", err)
		return
	}
	fire()
}

// Register wires the adapter, the settings callback, and the catalog factory.
func (m *Module) Register(r *registry.Registry) {
	adapter := NewAdapter()
	service.Provide[Port](r.Services, "render", adapter)

	command.Bind(r.Bindings, func(ctx context.Context, cmd options.ApplyCommand) {
		o := cmd.Options
		logger := ctxlog.FromContext(ctx)
		for setting, level := range map[string]options.Quality{
			SettingAntialias:  o.Antialias,
			SettingSSAO:       o.SSAO,
			SettingMotionBlur: o.MotionBlur,
			SettingShadow:     o.Shadow,
			SettingVignette:   o.Vignette,
		} {
			if err := adapter.SetQuality(ctx, setting, level); err != nil {
				logger.Error("Applying render settings failed", "setting", setting, "error", err)
			}
		}
	})

	r.RegisterCommand("render.set_quality", &registry.RegisteredCommand{
		NewInput: func() any { return new(SetQualityInput) },
		Build: func(input any) (command.Command, error) {
			in := input.(*SetQualityInput)
			return &SetQualityCommand{
				Setting: in.Setting,
				Level:   options.Quality(in.Level).Clamp(),
			}, nil
		},
	})
}
