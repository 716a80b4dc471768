package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CHATDB_CONFIG_PATH: config file location (default: ~/.config/chatdb.toml)
//   - CHATDB_HOME: base directory for chatdb data (default: ~/.local/share/chatdb)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking CHATDB_CONFIG_PATH env var
// first, then falling back to the default ~/.config/chatdb.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CHATDB_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "chatdb.toml"), nil
}

// getBaseDir returns the base directory for chatdb data, checking CHATDB_HOME
// env var first, then falling back to the XDG default ~/.local/share/chatdb.
func getBaseDir() (string, error) {
	if path := os.Getenv("CHATDB_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "chatdb"), nil
}
