package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/encounter/internal/config"
	"github.com/san-kum/encounter/internal/hierarchy"
)

func resolve(t *testing.T, name string, args ...string) (*config.Config, error) {
	t.Helper()
	cmd, f := newRunCmdFlags(name)
	require.NoError(t, cmd.ParseFlags(args))
	return resolveConfig(cmd.Flags(), name, f)
}

func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := resolve(t, "triple")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTriple(), cfg)
}

func TestResolveConfig_FlagsOverridePreset(t *testing.T) {
	cfg, err := resolve(t, "triple", "--preset", "unstable", "--m2", "3", "--ks=false", "--pn1", "--seed", "9", "--ncount", "50")
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 3}, cfg.Masses)
	assert.Equal(t, 2.5, cfg.A[1], "preset value kept")
	assert.False(t, cfg.Run.Regularize, "flag turns off preset regularization")
	assert.True(t, cfg.Run.PN.PN1)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, 50, cfg.Run.NCount)
}

func TestResolveConfig_UnknownPreset(t *testing.T) {
	_, err := resolve(t, "triple", "--preset", "nope")
	assert.ErrorContains(t, err, "unknown preset")
}

func TestResolveConfig_BinarySingle(t *testing.T) {
	cfg, err := resolve(t, "binsingle", "--vinf", "0.5", "--peri0", "1.2")
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.VInf)
	assert.Equal(t, []float64{1.2}, cfg.Peri)

	cfg, err = resolve(t, "binsingle")
	require.NoError(t, err)
	assert.Empty(t, cfg.Peri, "unchanged flags leave the pericenter random")
}

func TestResolveConfig_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario: triple\na: [1, 50]\nperi: [0.5]\n"), 0644))

	cfg, err := resolve(t, "triple", "--config", path, "--peri1", "2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 50}, cfg.A)
	assert.Equal(t, []float64{0.5, 2}, cfg.Peri)

	_, err = resolve(t, "binsingle", "--config", path)
	assert.ErrorContains(t, err, "describes scenario")
}

func TestResolveConfig_Invalid(t *testing.T) {
	_, err := resolve(t, "triple", "--a1", "0.5")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestResolveConfig_PeriPadding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(path, []byte("scenario = \"triple\"\nperi = []\n"), 0644))

	cfg, err := resolve(t, "triple", "--config", path, "--peri1", "1")
	require.NoError(t, err)
	assert.Equal(t, []float64{hierarchy.Random, 1}, cfg.Peri)
}
