package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDirs_XDGOverride(t *testing.T) {
	configHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)

	dirs, err := ResolveDirs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configHome, "topicalmap"), dirs.Config)
	assert.Equal(t, filepath.Join(dataHome, "topicalmap"), dirs.Data)
}

func TestResolveDirs_HomeFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses HOME")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	dirs, err := ResolveDirs()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "topicalmap"), dirs.Config)
	assert.Equal(t, filepath.Join(home, ".local", "share", "topicalmap"), dirs.Data)
}

func TestDatabasePath(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	assert.Equal(t, filepath.Join(dataHome, "topicalmap", DatabaseFile), DatabasePath())
}

func TestConfigFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	assert.Empty(t, ConfigFile())

	dir := filepath.Join(configHome, "topicalmap")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	toml := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(toml, []byte("[log]\nlevel = \"debug\"\n"), 0o644))
	assert.Equal(t, toml, ConfigFile())

	yaml := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yaml, []byte("log:\n  level: debug\n"), 0o644))
	assert.Equal(t, yaml, ConfigFile(), "yaml wins over toml")
}

func TestConfigFile_IgnoresDirectories(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, "topicalmap", "config.yaml"), 0o755))

	assert.Empty(t, ConfigFile())
}
