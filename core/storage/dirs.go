// Package storage resolves the platform directories topicalmap keeps its
// config file and database in, honoring the XDG base directory variables.
package storage

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

const (
	appName = "topicalmap"

	// DatabaseFile is the store file name inside the data directory.
	DatabaseFile = "topicalmap.db"
)

// configNames are probed in order by ConfigFile.
var configNames = []string{"config.yaml", "config.yml", "config.toml"}

// Dirs holds the per-user directories.
type Dirs struct {
	Config string // config.yaml / config.toml
	Data   string // store database
}

// ResolveDirs returns the platform directories. XDG_CONFIG_HOME and
// XDG_DATA_HOME take precedence on every platform.
func ResolveDirs() (Dirs, error) {
	config, err := resolveDir("XDG_CONFIG_HOME", platformConfigDefault)
	if err != nil {
		return Dirs{}, err
	}
	data, err := resolveDir("XDG_DATA_HOME", platformDataDefault)
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{Config: config, Data: data}, nil
}

func resolveDir(envVar string, fallback func() (string, error)) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	dir, err := fallback()
	if err != nil {
		return "", errors.Wrapf(err, "resolve default for %s", envVar)
	}
	return dir, nil
}

// DatabasePath returns the default store location. It falls back to the
// working directory when no home directory can be found.
func DatabasePath() string {
	dirs, err := ResolveDirs()
	if err != nil {
		return DatabaseFile
	}
	return filepath.Join(dirs.Data, DatabaseFile)
}

// ConfigFile returns the first config file present in the config
// directory, or "" if there is none.
func ConfigFile() string {
	dirs, err := ResolveDirs()
	if err != nil {
		return ""
	}
	for _, name := range configNames {
		path := filepath.Join(dirs.Config, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
