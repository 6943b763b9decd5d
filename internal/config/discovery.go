package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigDir overrides the config directory search.
const EnvConfigDir = "QUICKPANEL_CONFIG_DIR"

// DiscoverConfigPath finds the config file. An explicit path wins; otherwise
// $QUICKPANEL_CONFIG_DIR, ~/.config/quickpanel and ./config.yaml are checked
// in order.
func DiscoverConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return resolveConfigFile(explicit)
	}

	if dir := os.Getenv(EnvConfigDir); dir != "" {
		if path, err := resolveConfigFile(dir); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		if path, err := resolveConfigFile(filepath.Join(homeDir, ".config", "quickpanel")); err == nil {
			return path, nil
		}
	}

	if fileExists("./config.yaml") {
		return filepath.Abs("./config.yaml")
	}

	return "", fmt.Errorf("no config found (checked: $%s, ~/.config/quickpanel, ./config.yaml)", EnvConfigDir)
}

// resolveConfigFile accepts either a file or a directory holding config.yaml.
func resolveConfigFile(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", path, err)
	}
	if dirExists(absPath) {
		absPath = filepath.Join(absPath, "config.yaml")
	}
	if !fileExists(absPath) {
		return "", fmt.Errorf("config file not found: %s", absPath)
	}
	return absPath, nil
}

// LoadOrDefault loads the discovered config, or returns Defaults when none
// exists and explicit is empty.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := DiscoverConfigPath(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		return Defaults(), nil
	}
	return Load(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
