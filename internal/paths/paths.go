// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
)

// CWD-relative directory names used when nothing else is configured.
const (
	DefaultConfigDirName = ".profilefields"
	DefaultDataDirName   = ".profilefields-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PROFILEFIELDS_CONFIG_DIR"
	EnvDataDir   = "PROFILEFIELDS_DATA_DIR"
)

// getwd is swapped in tests.
var getwd = os.Getwd

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > PROFILEFIELDS_CONFIG_DIR > $(CWD)/.profilefields.
// The result is always absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdDefault(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence
// chain: flag > PROFILEFIELDS_DATA_DIR > data_dir from config.yaml >
// $(CWD)/.profilefields-db. A relative config value is resolved against
// the working directory.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	return cwdDefault(DefaultDataDirName)
}

func cwdDefault(name string) (string, error) {
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
