package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/framewire/internal/command"
	"github.com/vk/framewire/internal/manifest"
)

type setGainInput struct {
	Music       bool    `cty:"music"`
	MusicVolume float64 `cty:"music_volume"`
}

type setGainCmd struct {
	Music  bool
	Volume float64
}

const gainManifest = `
module {
  name = "audio"
}

command "audio.set_gain" {
  arg "music" {
    type    = bool
    default = true
  }
  arg "music_volume" {
    type = number
  }
}

service "audio" {
  description = "Mixer control surface."
}
`

func parseManifest(t *testing.T, src string) *manifest.Module {
	t.Helper()
	file, diags := hclparse.NewParser().ParseHCL([]byte(src), "test.hcl")
	require.False(t, diags.HasErrors(), "fixture must parse: %s", diags)
	mod, diags := manifest.ParseFile(context.Background(), file, "test.hcl")
	require.False(t, diags.HasErrors(), "fixture must decode: %s", diags)
	return mod
}

func registerGainFactory(r *Registry) {
	r.RegisterCommand("audio.set_gain", &RegisteredCommand{
		NewInput: func() any { return &setGainInput{} },
		Build: func(input any) (command.Command, error) {
			in := input.(*setGainInput)
			return &setGainCmd{Music: in.Music, Volume: in.MusicVolume}, nil
		},
	})
}

func TestRegisterCommand_DuplicatePanics(t *testing.T) {
	r := New()
	registerGainFactory(r)
	assert.Panics(t, func() { registerGainFactory(r) })
}

func TestPopulateFromManifests_RejectsCrossModuleDuplicates(t *testing.T) {
	r := New()
	mod := parseManifest(t, gainManifest)
	other := parseManifest(t, gainManifest)
	other.SourcePath = "other.hcl"

	err := r.PopulateFromManifests(context.Background(), []*manifest.Module{mod, other})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 'audio.set_gain': declared in both")
	assert.Contains(t, err.Error(), "service 'audio': declared in both")
}

func TestCommandNames_SortedCatalog(t *testing.T) {
	r := New()
	mod := parseManifest(t, `
module {
  name = "misc"
}

command "b.two" {}
command "a.one" {}
`)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	assert.Equal(t, []string{"a.one", "b.two"}, r.CommandNames())

	def, ok := r.Definition("a.one")
	require.True(t, ok)
	assert.Equal(t, "a.one", def.Name)

	_, ok = r.Definition("c.three")
	assert.False(t, ok)
}

func TestBuild_FillsInputFromJSONArgs(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	cmd, err := r.Build(context.Background(), "audio.set_gain",
		[]byte(`{"music": false, "music_volume": 0.25}`))
	require.NoError(t, err)

	gain, ok := cmd.(*setGainCmd)
	require.True(t, ok)
	assert.False(t, gain.Music)
	assert.Equal(t, 0.25, gain.Volume)
}

func TestBuild_AppliesManifestDefaults(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	cmd, err := r.Build(context.Background(), "audio.set_gain", []byte(`{"music_volume": 1}`))
	require.NoError(t, err)

	gain := cmd.(*setGainCmd)
	assert.True(t, gain.Music, "omitted arg must take its manifest default")
	assert.Equal(t, 1.0, gain.Volume)
}

func TestBuild_MissingRequiredArg(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	_, err := r.Build(context.Background(), "audio.set_gain", []byte(`{"music": true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing required arg "music_volume"`)
}

func TestBuild_RejectsUnknownArg(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	_, err := r.Build(context.Background(), "audio.set_gain",
		[]byte(`{"music_volume": 1, "bass_boost": true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `has no arg "bass_boost"`)
}

func TestBuild_RejectsUnconvertibleArgType(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	_, err := r.Build(context.Background(), "audio.set_gain",
		[]byte(`{"music_volume": true}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `arg "music_volume"`)
}

func TestBuild_RejectsNonObjectArgs(t *testing.T) {
	r := New()
	registerGainFactory(r)
	mod := parseManifest(t, gainManifest)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	_, err := r.Build(context.Background(), "audio.set_gain", []byte(`[1, 2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a JSON object")
}

func TestBuild_UnknownCommand(t *testing.T) {
	r := New()

	_, err := r.Build(context.Background(), "audio.set_gain", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "audio.set_gain"`)
}

func TestBuild_FactoryErrorPropagates(t *testing.T) {
	r := New()
	r.RegisterCommand("display.noop", &RegisteredCommand{
		NewInput: func() any { return &struct{}{} },
		Build: func(any) (command.Command, error) {
			return nil, errors.New("port offline")
		},
	})
	mod := parseManifest(t, `
module {
  name = "display"
}

command "display.noop" {}
`)
	require.NoError(t, r.PopulateFromManifests(context.Background(), []*manifest.Module{mod}))

	_, err := r.Build(context.Background(), "display.noop", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port offline")
}
