// Package paths resolves where the purchase CLI keeps its configuration and
// its database file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDirName is the directory created under the platform config and data roots.
const AppDirName = "purchase"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PURCHASE_CONFIG_DIR"
	EnvDataDir   = "PURCHASE_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/purchase (fallback ~/.config/purchase)
// Others:  os.UserConfigDir()/purchase
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory where purchase.db lives.
//
// Linux:   $XDG_DATA_HOME/purchase (fallback ~/.local/share/purchase)
// Others:  os.UserConfigDir()/purchase
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// xdgDir applies the XDG lookup on Linux and os.UserConfigDir elsewhere.
func xdgDir(env, homeRel string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDirName), nil
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Join(v, AppDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppDirName), nil
}

// ResolveConfigDir picks the configuration directory:
// flag > PURCHASE_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks the data directory:
// flag > data_dir from config.yaml > PURCHASE_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	return firstAbs(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

// firstAbs returns the first non-empty candidate as an absolute path, or the
// fallback when all are empty.
func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
