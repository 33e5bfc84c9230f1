//go:build windows

package storage

import (
	"os"
	"path/filepath"
)

func platformConfigDefault() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config"), nil
}

func platformDataDefault() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "data"), nil
}
