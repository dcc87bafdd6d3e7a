package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseString(t *testing.T, src string) (*Module, hcl.Diagnostics) {
	t.Helper()
	file, diags := hclparse.NewParser().ParseHCL([]byte(src), "test-manifest.hcl")
	require.False(t, diags.HasErrors(), "fixture must be syntactically valid: %s", diags)
	return ParseFile(context.Background(), file, "test-manifest.hcl")
}

func TestParseFile_FullManifest(t *testing.T) {
	src := `
module {
  name        = "audio"
  description = "Mixer adapter."
}

command "audio.set_volume" {
  description = "Adjusts music and effects volume."

  arg "music" {
    type    = bool
    default = true
  }

  arg "music_volume" {
    type        = number
    description = "Linear gain, 0.0 to 1.0."
  }
}

service "audio" {
  description = "Mixer control surface."
}
`
	mod, diags := parseString(t, src)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	assert.Equal(t, "audio", mod.Name)
	assert.Equal(t, "Mixer adapter.", mod.Description)
	assert.Equal(t, "test-manifest.hcl", mod.SourcePath)

	require.Contains(t, mod.Commands, "audio.set_volume")
	cmd := mod.Commands["audio.set_volume"]
	assert.Equal(t, "Adjusts music and effects volume.", cmd.Description)

	require.Contains(t, cmd.Args, "music")
	music := cmd.Args["music"]
	assert.True(t, music.Type.Equals(cty.Bool))
	require.NotNil(t, music.Default)
	assert.Equal(t, cty.True, *music.Default)

	require.Contains(t, cmd.Args, "music_volume")
	volume := cmd.Args["music_volume"]
	assert.True(t, volume.Type.Equals(cty.Number))
	assert.Nil(t, volume.Default, "no default makes the arg required")
	assert.Equal(t, "Linear gain, 0.0 to 1.0.", volume.Description)

	require.Contains(t, mod.Services, "audio")
	assert.Equal(t, "Mixer control surface.", mod.Services["audio"].Description)
}

func TestParseFile_CollectionArgTypes(t *testing.T) {
	src := `
module {
  name = "render"
}

command "render.warm_caches" {
  arg "shader_names" {
    type = list(string)
  }
  arg "budgets" {
    type = map(number)
  }
}
`
	mod, diags := parseString(t, src)
	require.False(t, diags.HasErrors(), "unexpected diagnostics: %s", diags)

	args := mod.Commands["render.warm_caches"].Args
	assert.True(t, args["shader_names"].Type.Equals(cty.List(cty.String)))
	assert.True(t, args["budgets"].Type.Equals(cty.Map(cty.Number)))
}

func TestParseFile_MissingModuleBlock(t *testing.T) {
	_, diags := parseString(t, `command "a.b" {}`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Missing module block")
}

func TestParseFile_MissingModuleName(t *testing.T) {
	_, diags := parseString(t, `module {}`)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Missing 'name' attribute")
}

func TestParseFile_MissingArgType(t *testing.T) {
	src := `
module {
  name = "display"
}

command "display.set_mode" {
  arg "width" {}
}
`
	_, diags := parseString(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Missing 'type' attribute")
}

func TestParseFile_UnknownArgType(t *testing.T) {
	src := `
module {
  name = "display"
}

command "display.set_mode" {
  arg "width" {
    type = pixels
  }
}
`
	_, diags := parseString(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "unknown primitive type")
}

func TestParseFile_DefaultMustMatchDeclaredType(t *testing.T) {
	src := `
module {
  name = "display"
}

command "display.set_mode" {
  arg "width" {
    type    = number
    default = "wide"
  }
}
`
	_, diags := parseString(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Invalid default value type")
}

func TestParseFile_DuplicateArg(t *testing.T) {
	src := `
module {
  name = "audio"
}

command "audio.mute" {
  arg "hard" {
    type = bool
  }
  arg "hard" {
    type = bool
  }
}
`
	_, diags := parseString(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Duplicate arg definition")
}

func TestParseFile_DuplicateCommand(t *testing.T) {
	src := `
module {
  name = "audio"
}

command "audio.mute" {}
command "audio.mute" {}
`
	_, diags := parseString(t, src)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags.Error(), "Duplicate command definition")
}

func TestLoad_WalksModuleDirectories(t *testing.T) {
	root := t.TempDir()
	writeManifest := func(dir, src string) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, FileName), []byte(src), 0o644))
	}

	writeManifest("display", `
module {
  name = "display"
}

service "display" {}
`)
	writeManifest("audio", `
module {
  name = "audio"
}

service "audio" {}
`)

	modules, err := Load(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	// Deterministic load order: sorted by path.
	assert.Equal(t, "audio", modules[0].Name)
	assert.Equal(t, "display", modules[1].Name)
}

func TestLoad_AccumulatesDiagnosticsAcrossFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "broken"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "broken", FileName), []byte(`module {}`), 0o644))

	_, err := Load(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing 'name' attribute")
}

func TestLoad_MissingRootIsAnError(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning modules path")
}
