package audio

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

// Port is the capability commands resolve to drive the mixer.
type Port interface {
	SetMusic(ctx context.Context, playing bool, volume float64) error
	SetEffects(ctx context.Context, playing bool, volume float64) error
}

// Adapter is the default in-process Port implementation. It keeps the
// last gains handed to it so tests can read them back.
type Adapter struct {
	mu          sync.Mutex
	music       bool
	musicVolume float64
	sfx         bool
	sfxVolume   float64
}

// NewAdapter returns an Adapter with both channels open at full gain.
func NewAdapter() *Adapter {
	return &Adapter{music: true, musicVolume: 1, sfx: true, sfxVolume: 1}
}

// SetMusic adjusts the music channel.
func (a *Adapter) SetMusic(ctx context.Context, playing bool, volume float64) error {
	a.mu.Lock()
	a.music = playing
	a.musicVolume = volume
	a.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Music channel adjusted.", "playing", playing, "volume", volume)
	return nil
}

// SetEffects adjusts the sound-effects channel.
func (a *Adapter) SetEffects(ctx context.Context, playing bool, volume float64) error {
	a.mu.Lock()
	a.sfx = playing
	a.sfxVolume = volume
	a.mu.Unlock()

	ctxlog.FromContext(ctx).Info("Effects channel adjusted.", "playing", playing, "volume", volume)
	return nil
}

// Music reports the music channel state.
func (a *Adapter) Music() (playing bool, volume float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.music, a.musicVolume
}

// Effects reports the effects channel state.
func (a *Adapter) Effects() (playing bool, volume float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sfx, a.sfxVolume
}

// SetVolumeInput defines the catalog arguments for audio.set_volume.
type SetVolumeInput struct {
	PlayMusic   bool    `cty:"play_music"`
	MusicVolume float64 `cty:"music_volume"`
	PlaySfx     bool    `cty:"play_sfx"`
	SfxVolume   float64 `cty:"sfx_volume"`
}

// SetVolumeCommand adjusts both mixer channels when it executes.
type SetVolumeCommand struct {
	PlayMusic   bool
	MusicVolume float64
	PlaySfx     bool
	SfxVolume   float64

	port Port
}

// ResolveServices captures the mixer port before the command is enqueued.
func (c *SetVolumeCommand) ResolveServices(reg *service.Registry) error {
	port, err := service.Resolve[Port](reg)
	if err != nil {
		return err
	}
	c.port = port
	return nil
}

// Run adjusts the channels, then releases the command's callbacks.
func (c *SetVolumeCommand) Run(ctx context.Context, fire func()) {
	logger := ctxlog.FromContext(ctx)
	if err := c.port.SetMusic(ctx, c.PlayMusic, c.MusicVolume); err != nil {
		logger.Error("Adjusting music channel failed", "error", err)
		return
	}
	if err := c.port.SetEffects(ctx, c.PlaySfx, c.SfxVolume); err != nil {
		logger.Error("Adjusting effects channel failed", "error", err)
		return
	}
	fire()
}

// Register wires the adapter, the settings callback, and the catalog factory.
func (m *Module) Register(r *registry.Registry) {
	adapter := NewAdapter()
	service.Provide[Port](r.Services, "audio", adapter)

	command.Bind(r.Bindings, func(ctx context.Context, cmd options.ApplyCommand) {
		o := cmd.Options
		logger := ctxlog.FromContext(ctx)
		if err := adapter.SetMusic(ctx, o.PlayMusic, o.MusicVolume); err != nil {
			logger.Error("Applying music settings failed", "error", err)
		}
		if err := adapter.SetEffects(ctx, o.PlaySfx, o.SfxVolume); err != nil {
			logger.Error("Applying effects settings failed", "error", err)
		}
	})

	r.RegisterCommand("audio.set_volume", &registry.RegisteredCommand{
		NewInput: func() any { return new(SetVolumeInput) },
		Build: func(input any) (command.Command, error) {
			in := input.(*SetVolumeInput)
			return &SetVolumeCommand{
				PlayMusic:   in.PlayMusic,
				MusicVolume: in.MusicVolume,
				PlaySfx:     in.PlaySfx,
				SfxVolume:   in.SfxVolume,
			}, nil
		},
	})
}
