// Package config defines the launcher configuration.
//
// The file lives at ~/.context7-launcher/config.json and uses camelCase keys.
// Keys missing from the file keep their DefaultConfig values.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// PackageConfig names the npm package that provides the server.
type PackageConfig struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// RuntimeConfig overrides executable discovery.
type RuntimeConfig struct {
	NodePath string `json:"nodePath,omitempty"`
	NPMPath  string `json:"npmPath,omitempty"`
}

// LogConfig controls the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// RefreshConfig controls scheduled re-provisioning.
type RefreshConfig struct {
	Schedule string `json:"schedule"` // cron expression or @every/@daily descriptor
}

// Config is the root configuration object.
type Config struct {
	ServerID      string        `json:"serverId"`
	Package       PackageConfig `json:"package"`
	VersionPolicy string        `json:"versionPolicy"` // "exact" or "resolved"
	Runtime       RuntimeConfig `json:"runtime"`
	// WorkDir is where the package is installed and the entry script is
	// resolved. Empty means the process working directory.
	WorkDir      string        `json:"workDir"`
	SettingsPath string        `json:"settingsPath"`
	Log          LogConfig     `json:"log"`
	Refresh      RefreshConfig `json:"refresh"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		ServerID: "mcp-server-context7",
		Package: PackageConfig{
			Name:    "@upstash/context7-mcp",
			Version: "latest",
		},
		VersionPolicy: "resolved",
		SettingsPath:  "~/.context7-launcher/settings.yaml",
		Log:           LogConfig{Level: "info", Format: "text"},
		Refresh:       RefreshConfig{Schedule: "@every 6h"},
	}
}

// WorkDirPath returns the expanded WorkDir, or "" when unset.
func (c *Config) WorkDirPath() string {
	return ExpandHome(c.WorkDir)
}

// GlobalSettingsPath returns the expanded global settings file path.
func (c *Config) GlobalSettingsPath() string {
	return ExpandHome(c.SettingsPath)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
