package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "finchat"

// DefaultConfigPath is the user config file under XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.json")
}

// DefaultDatabasePath keeps the database with other runtime state under
// XDG_STATE_HOME.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, appName, "finchat.db")
}
