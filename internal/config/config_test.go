package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(path), "db.sqlite"), cfg.Database)
	assert.Equal(t, "full", cfg.Defaults.Alphabet)
	assert.Equal(t, 16, cfg.Defaults.KeyLength)
	assert.Equal(t, path, cfg.Path())
}

func TestLoad_ResolvesRelativeDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: stores/pwm.sqlite
defaults:
  alphabet: alphanumeric
  key_length: 24
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "stores", "pwm.sqlite"), cfg.Database)
	assert.Equal(t, "alphanumeric", cfg.Defaults.Alphabet)
	assert.Equal(t, 24, cfg.Defaults.KeyLength)

	opts := cfg.RecordOptions()
	assert.Equal(t, "alphanumeric", opts.Alphabet)
	assert.Equal(t, 24, opts.KeyLength)
}

func TestLoad_AbsoluteDatabaseUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	abs := filepath.Join(t.TempDir(), "elsewhere.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("database: "+abs+"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Database)
	assert.Equal(t, 16, cfg.Defaults.KeyLength)
}

func TestLoad_RejectsNegativeKeyLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  key_length: -3\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unterminated\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default(path)
	cfg.Defaults.KeyLength = 20
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database, loaded.Database)
	assert.Equal(t, 20, loaded.Defaults.KeyLength)
}

func TestDefaultPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvVar, "/tmp/custom/pwm.yaml")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom/pwm.yaml", path)
}
