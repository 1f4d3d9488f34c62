package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"morphkit/arbor/internal/morph"
	"morphkit/arbor/internal/warning"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, warning.DefaultMaxWarnings, cfg.MaxWarnings())
	assert.Equal(t, def.Workers, cfg.Workers)
	assert.Equal(t, "arbor.db", cfg.Store)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Warnings.Raise)
}

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(`
warnings:
  max: 0
  raise: true
  ignore: [zero_diameter, Only-Child]
modifiers: [two_points_sections, nrn_order]
workers: 3
store: /tmp/cells.db
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.MaxWarnings())
	assert.True(t, cfg.Warnings.Raise)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/tmp/cells.db", cfg.Store)

	mods, err := cfg.ModifierFlags()
	require.NoError(t, err)
	assert.Equal(t, morph.TwoPointsSections|morph.NrnOrder, mods)

	kinds, err := cfg.IgnoredKinds()
	require.NoError(t, err)
	assert.Equal(t, []warning.Kind{warning.ZeroDiameter, warning.OnlyChild}, kinds)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown modifier": "modifiers: [flatten]\n",
		"unknown warning":  "warnings:\n  ignore: [nope]\n",
		"bad level":        "log_level: loud\n",
		"bad yaml":         "workers: [\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestApply(t *testing.T) {
	cfg, err := Parse([]byte("warnings:\n  max: 5\n  raise: true\n  ignore: [no_soma_found]\n"))
	require.NoError(t, err)

	c := warning.NewCollector()
	require.NoError(t, cfg.Apply(c))
	assert.Equal(t, 5, c.MaxWarningCount())
	assert.True(t, c.RaiseWarnings())
	assert.True(t, c.IsIgnored(warning.NoSomaFound))
	assert.False(t, c.IsIgnored(warning.ZeroDiameter))

	p, err := cfg.WarningHandler(nil)
	require.NoError(t, err)
	assert.NoError(t, p.Emit(warning.NoSomaFound, "ignored"))
	assert.ErrorIs(t, p.Emit(warning.ZeroDiameter, "raised"), warning.ErrRaised)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName)

	cfg := Default()
	cfg.Modifiers = []string{"soma_sphere"}
	cfg.Store = "cells.db"
	require.NoError(t, cfg.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"soma_sphere"}, back.Modifiers)
	assert.Equal(t, filepath.Join(dir, "nested", "cells.db"), back.Store)
	assert.Equal(t, cfg.Workers, back.Workers)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
