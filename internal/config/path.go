// Package config loads engine settings and resolves filesystem locations.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultDatabasePath is where the catalog lives unless database.path says otherwise.
	DefaultDatabasePath = "$HOME/.local/share/sku/catalog.db"
	// DefaultConfigDir holds config.yaml.
	DefaultConfigDir = "$HOME/.config/sku"
)

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded catalog path, falling back to the default
// when configured is empty.
func DatabasePath(configured string) string {
	if strings.TrimSpace(configured) == "" {
		configured = DefaultDatabasePath
	}
	return ExpandPath(configured)
}
