// Package options holds the engine's user-facing settings record and
// the manager that loads and persists it.
//
// The persisted document is JSON kept in an INI-named file, one field
// per setting, enums encoded as their underlying integers. A load that
// fails for any reason (file absent, unreadable, unparsable, disk
// access disabled) falls back to the fixed default configuration and
// is never an error. Saving happens when an ApplyCommand executes,
// and becomes a no-op when disk access is disabled.
package options

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/ctxlog"
)

// DefaultPath is the conventional location of the settings document,
// relative to the engine's working directory.
const DefaultPath = "options.ini"

// Options is the flat engine settings record. The JSON tags are the
// on-disk contract; missing fields load as their zero values.
type Options struct {
	FullScreen  bool    `json:"FullScreen"`
	Width       int     `json:"Width"`
	Height      int     `json:"Height"`
	PlayMusic   bool    `json:"PlayMusic"`
	MusicVolume float64 `json:"MusicVolume"`
	PlaySfx     bool    `json:"PlaySfx"`
	SfxVolume   float64 `json:"SfxVolume"`
	Antialias   Quality `json:"Antialias"`
	SSAO        Quality `json:"SSAO"`
	MotionBlur  Quality `json:"MotionBlur"`
	Shadow      Quality `json:"Shadow"`
	Vignette    Quality `json:"Vignette"`
}

// Default returns the fixed fallback configuration: windowed 1280x720,
// music and effects enabled at full volume, every quality dimension at
// Medium.
func Default() Options {
	return Options{
		FullScreen:  false,
		Width:       1280,
		Height:      720,
		PlayMusic:   true,
		MusicVolume: 1.0,
		PlaySfx:     true,
		SfxVolume:   1.0,
		Antialias:   QualityMedium,
		SSAO:        QualityMedium,
		MotionBlur:  QualityMedium,
		Shadow:      QualityMedium,
		Vignette:    QualityMedium,
	}
}

// normalized returns a copy with every quality dimension pulled back
// into range.
func (o Options) normalized() Options {
	o.Antialias = o.Antialias.Clamp()
	o.SSAO = o.SSAO.Clamp()
	o.MotionBlur = o.MotionBlur.Clamp()
	o.Shadow = o.Shadow.Clamp()
	o.Vignette = o.Vignette.Clamp()
	return o
}

// Manager owns the live settings record for the process lifetime.
type Manager struct {
	mu          sync.RWMutex
	path        string
	diskEnabled bool
	current     Options
}

// NewManager constructs the manager, attempts to load the persisted
// document, and binds the persistence callback for ApplyCommand. It
// never writes during construction.
func NewManager(ctx context.Context, path string, diskEnabled bool, bindings *command.Binder) *Manager {
	m := &Manager{
		path:        path,
		diskEnabled: diskEnabled,
		current:     Default(),
	}
	m.load(ctx)

	command.Bind(bindings, func(cbCtx context.Context, cmd ApplyCommand) {
		m.Set(cmd.Options)
		if err := m.Save(cbCtx); err != nil {
			ctxlog.FromContext(cbCtx).Error("🔥 Failed to persist options.", "path", m.path, "error", err)
		}
	})
	return m
}

// load replaces the defaults with the persisted record when one can be
// read. Any failure keeps the defaults and is logged, never surfaced.
func (m *Manager) load(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	if !m.diskEnabled {
		logger.Debug("Disk access disabled; using default options.")
		return
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		logger.Warn("Options file not loaded; using defaults.", "path", m.path, "error", err)
		return
	}

	var loaded Options
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn("Options file unparsable; using defaults.", "path", m.path, "error", err)
		return
	}

	m.mu.Lock()
	m.current = loaded.normalized()
	m.mu.Unlock()
	logger.Debug("Options loaded.", "path", m.path)
}

// Current returns a copy of the live record.
func (m *Manager) Current() Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set replaces the live record, normalizing quality dimensions.
func (m *Manager) Set(o Options) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = o.normalized()
}

// Save writes the full record to the settings file. It is a silent
// no-op when disk access is disabled.
func (m *Manager) Save(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if !m.diskEnabled {
		logger.Debug("Disk access disabled; skipping options save.")
		return nil
	}

	m.mu.RLock()
	snapshot := m.current
	m.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing options file: %w", err)
	}

	logger.Info("✅ Options saved.", "path", m.path)
	return nil
}

// Path returns the settings file location.
func (m *Manager) Path() string { return m.path }
