package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/i18n"
	"github.com/mesh-intelligence/profilefields/internal/logging"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
)

// settings is the content of config.yaml.
type settings struct {
	Backend     string              `mapstructure:"backend" yaml:"backend"`
	DataDir     string              `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Locale      string              `mapstructure:"locale" yaml:"locale"`
	Log         logging.Config      `mapstructure:"log" yaml:"log"`
	Roles       map[string][]string `mapstructure:"roles" yaml:"roles"`
	Assignments []access.Assignment `mapstructure:"assignments" yaml:"assignments"`
}

func defaultSettings() settings {
	return settings{
		Backend: types.BackendSQLite,
		Locale:  i18n.BaseLocale,
		Log:     logging.Config{Level: "info"},
		Roles:   access.DefaultRoles(),
	}
}

// loadSettings reads config.yaml from configDir. A missing file yields
// the defaults.
func loadSettings(configDir string) (settings, error) {
	def := defaultSettings()

	v := viper.New()
	v.SetDefault("backend", def.Backend)
	v.SetDefault("locale", def.Locale)
	v.SetDefault("log.level", def.Log.Level)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	if len(s.Roles) == 0 {
		s.Roles = def.Roles
	}
	cfg := types.Config{Backend: s.Backend, DataDir: s.DataDir}
	if err := cfg.Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return s, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. An existing file is left alone.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	s := defaultSettings()
	s.DataDir = dataDir
	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# profilefields configuration\n")
	return true, os.WriteFile(path, append(header, data...), 0o644)
}
