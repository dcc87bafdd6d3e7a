package integration_tests

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/framewire/internal/app"
	"github.com/vk/framewire/internal/options"
	"github.com/vk/framewire/internal/testutil"
)

// TestSettings_ApplyCommand_PropagatesAndPersists pushes one apply through
// the pump and checks that every subsystem saw it and the document hit disk.
func TestSettings_ApplyCommand_PropagatesAndPersists(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	result := testutil.RunIntegrationTestWithConfig(t, nil, func(_ string, cfg *app.Config) {
		cfg.ModulesPath = testutil.RepoModulesPath(t)
	})
	require.NoError(t, result.Err)

	desired := options.Default()
	desired.FullScreen = true
	desired.Width = 2560
	desired.Height = 1440
	desired.PlayMusic = false
	desired.MusicVolume = 0.25
	desired.Antialias = options.QualityUltra
	desired.Vignette = options.QualityDisabled

	// --- Act ---
	result.App.Pump().Push(result.Ctx, options.ApplyCommand{Options: desired})
	result.Tick(1)

	// --- Assert ---
	testutil.AssertCommandExecuted(t, result, "options.ApplyCommand")
	assert.Equal(t, desired, result.App.Options().Current())

	logs := result.LogOutput()
	assert.Contains(t, logs, "Display mode applied.")
	assert.Contains(t, logs, "width=2560")
	assert.Contains(t, logs, "Music channel adjusted.")
	assert.Contains(t, logs, "playing=false")
	assert.Contains(t, logs, "Render quality adjusted.")
	assert.Contains(t, logs, "Options saved.")

	// The document on disk is the full record with enums as integers.
	data, err := os.ReadFile(result.App.Options().Path())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, true, doc["FullScreen"])
	assert.Equal(t, float64(2560), doc["Width"])
	assert.Equal(t, float64(0), doc["Antialias"])
	assert.Equal(t, float64(4), doc["Vignette"])
}

// Disk access disabled: applies still propagate, storage is never touched.
func TestSettings_DiskDisabled_NeverWrites(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	result := testutil.RunIntegrationTestWithConfig(t, nil, func(_ string, cfg *app.Config) {
		cfg.ModulesPath = testutil.RepoModulesPath(t)
		cfg.DiskDisabled = true
	})
	require.NoError(t, result.Err)

	desired := options.Default()
	desired.Width = 800
	desired.Height = 600

	// --- Act ---
	result.App.Pump().Push(result.Ctx, options.ApplyCommand{Options: desired})
	result.Tick(1)

	// --- Assert ---
	assert.Equal(t, desired, result.App.Options().Current())
	assert.Contains(t, result.LogOutput(), "width=800")

	_, err := os.Stat(result.App.Options().Path())
	assert.True(t, os.IsNotExist(err), "no options file may be written with disk access disabled")
}

// A persisted document from a previous session is loaded at startup.
func TestSettings_PersistedDocument_LoadsAtStartup(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	stored := `{
  "FullScreen": true,
  "Width": 3840,
  "Height": 2160,
  "PlayMusic": true,
  "MusicVolume": 0.5,
  "PlaySfx": false,
  "SfxVolume": 0.75,
  "Antialias": 1,
  "SSAO": 9,
  "MotionBlur": 3,
  "Shadow": 0,
  "Vignette": -2
}`
	files := map[string]string{
		"options.ini": stored,
	}

	result := testutil.RunIntegrationTestWithConfig(t, files, func(_ string, cfg *app.Config) {
		cfg.ModulesPath = testutil.RepoModulesPath(t)
	})
	require.NoError(t, result.Err)

	// --- Assert ---
	current := result.App.Options().Current()
	assert.True(t, current.FullScreen)
	assert.Equal(t, 3840, current.Width)
	assert.Equal(t, options.QualityHigh, current.Antialias)
	assert.Equal(t, options.QualityLow, current.MotionBlur)

	// Out-of-range stored levels come back as Medium.
	assert.Equal(t, options.QualityMedium, current.SSAO)
	assert.Equal(t, options.QualityMedium, current.Vignette)
}
