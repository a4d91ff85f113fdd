// Package storage provides a persistent archive of self-play games and
// aggregate statistics.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tungsten"

// DataDir returns the per-user tungsten directory, creating it if needed.
// It lives under Application Support on macOS, %APPDATA% on Windows and
// $XDG_DATA_HOME (falling back to ~/.local/share) elsewhere.
func DataDir() (string, error) {
	base, err := userDataBase()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(base, appName))
}

// DatabaseDir returns the badger directory of the game archive.
func DatabaseDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dir, "games"))
}

func userDataBase() (string, error) {
	var env string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		env = "APPDATA"
	default:
		env = "XDG_DATA_HOME"
	}
	if dir := os.Getenv(env); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Roaming"), nil
	}
	return filepath.Join(home, ".local", "share"), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
