// ABOUTME: Standard filesystem paths for screenhook configuration
// ABOUTME: Resolves the user config dir (XDG on Linux) with a home-dir fallback

package config

import (
	"os"
	"path/filepath"
)

const appDirName = "screenhook"

// ConfigDir returns the user-global config directory
// ($XDG_CONFIG_HOME/screenhook on Linux).
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return filepath.Join(".", "."+appDirName)
		}
		return filepath.Join(home, ".config", appDirName)
	}
	return filepath.Join(dir, appDirName)
}

// DefaultConfigFile returns the path read when no --config flag is given.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}
