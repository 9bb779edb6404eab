package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/prism/internal/config"
	"github.com/aretw0/prism/pkg/domain"
	"github.com/aretw0/prism/pkg/typeinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	p, err := config.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), p)
	assert.Equal(t, 2, p.Cache.Window)
	assert.True(t, p.Cache.Enabled)
}

func TestLoad_YAML(t *testing.T) {
	src := `
log_level: debug
cache:
  window: 4
split:
  nil_on_null: true
  expose_tags: [json, doc]
policy:
  blacklist: [Secret]
  no_flatten: [domain.Vector3D]
aliases:
  pose: domain.Vector3D
only_aliases: true
`
	p, err := config.Load(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "debug", p.LogLevel)
	assert.Equal(t, 4, p.Cache.Window)
	assert.True(t, p.Cache.Enabled, "missing keys keep their defaults")
	assert.True(t, p.Split.NilOnNull)
	assert.Equal(t, []string{"json", "doc"}, p.Split.ExposeTags)
	assert.Equal(t, []string{"Secret"}, p.Policy.Blacklist)
	assert.Equal(t, map[string]string{"pose": "domain.Vector3D"}, p.Aliases)
	assert.True(t, p.OnlyAliases)
}

func TestLoad_JSON(t *testing.T) {
	p, err := config.Load(strings.NewReader(`{"cache": {"window": "3", "enabled": false}}`))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Cache.Window)
	assert.False(t, p.Cache.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "colour: red",
		"window too low": "cache: {window: 0}",
		"bad level":      "log_level: loud",
		"bad format":     "log_format: xml",
		"not a mapping":  "- a\n- b",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(strings.NewReader(src))
			assert.True(t, errors.Is(err, config.ErrInvalidProfile), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache: {window: 5}\n"), 0o600))

	p, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Cache.Window)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProfile_Options(t *testing.T) {
	names := typeinfo.NewNames()
	p := config.Defaults()
	p.Policy.NoFlatten = []string{"domain.Vector3D"}
	p.Aliases = map[string]string{"pose": "domain.Vector3D"}

	split, err := p.SplitOptions(names)
	require.NoError(t, err)
	assert.Len(t, split, 5)

	join, err := p.JoinOptions(names)
	require.NoError(t, err)
	assert.Len(t, join, 2)

	rb, err := p.RebindOptions(names)
	require.NoError(t, err)
	assert.Len(t, rb, 3)

	assert.Len(t, p.HostOptions(), 1)
}

func TestProfile_UnresolvedTypes(t *testing.T) {
	names := typeinfo.NewNames()
	p := config.Defaults()
	p.Policy.NoFlatten = []string{"nope.Missing"}
	_, err := p.SplitOptions(names)
	assert.ErrorIs(t, err, domain.ErrTypeNotResolved)

	p = config.Defaults()
	p.Aliases = map[string]string{"x": "nope.Missing"}
	_, err = p.RebindOptions(names)
	assert.ErrorIs(t, err, domain.ErrTypeNotResolved)
}

func TestProfile_Logger(t *testing.T) {
	var buf strings.Builder
	p := config.Defaults()
	p.LogFormat = "json"
	p.Logger(&buf).Info("ready", "type", reflect.TypeFor[int]().String())
	assert.Contains(t, buf.String(), `"type":"int"`)
}
