// Package config provides configuration types, defaults and loading for kanban.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LocalConfigPath is checked before the user config directory.
const LocalConfigPath = ".kanban/config.yaml"

// Config holds all configuration options for kanban.
type Config struct {
	DBPath   string      `mapstructure:"db_path" yaml:"db_path"` // empty means ~/.kanban/kanban.db
	LogLevel string      `mapstructure:"log_level" yaml:"log_level"`
	Debug    bool        `mapstructure:"debug" yaml:"debug"`
	Board    BoardConfig `mapstructure:"board" yaml:"board"`
}

// BoardConfig holds lifecycle and board view options.
type BoardConfig struct {
	// StrictTransitions rejects state changes outside the transition table.
	StrictTransitions bool `mapstructure:"strict_transitions" yaml:"strict_transitions"`
	// ShowRemoved shows the Removed column in the board view.
	ShowRemoved bool `mapstructure:"show_removed" yaml:"show_removed"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel: "warn",
		Board: BoardConfig{
			StrictTransitions: false,
			ShowRemoved:       false,
		},
	}
}

// SetDefaults registers Defaults() on a viper instance.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("board.strict_transitions", d.Board.StrictTransitions)
	v.SetDefault("board.show_removed", d.Board.ShowRemoved)
}

// Load reads configuration into v and decodes it.
//
// Lookup order when cfgFile is empty:
//  1. .kanban/config.yaml (current directory)
//  2. ~/.config/kanban/config.yaml (user config)
//
// A missing config file is not an error unless cfgFile names it explicitly.
// Environment variables prefixed KANBAN_ override file values
// (KANBAN_DB_PATH, KANBAN_BOARD_STRICT_TRANSITIONS, ...).
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(LocalConfigPath); err == nil {
		v.SetConfigFile(LocalConfigPath)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kanban"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values that viper cannot type-check.
func Validate(cfg Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log_level %q: want debug, info, warn or error", cfg.LogLevel)
	}
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories. An existing file is left untouched.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
