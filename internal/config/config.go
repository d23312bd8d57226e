// Package config loads ompbuild runtime configuration from viper.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config file and environment naming.
const (
	FileName  = ".ompbuild"
	FileType  = "yaml"
	EnvPrefix = "OMPBUILD"
	AppName   = "ompbuild"
)

// Config holds all runtime configuration for an ompbuild invocation.
// Values are populated from .ompbuild.yaml, OMPBUILD_* env vars, and CLI flags.
type Config struct {
	ConfigDir        string   `mapstructure:"config_dir"`
	VariantsDir      string   `mapstructure:"variants_dir"`
	OutputDir        string   `mapstructure:"output_dir"`
	FallbackFilename string   `mapstructure:"fallback_filename"`
	DefaultVariant   string   `mapstructure:"default_variant"`
	FallbackVariant  string   `mapstructure:"fallback_variant"`
	Patterns         []string `mapstructure:"patterns"`
	Ignore           []string `mapstructure:"ignore"`
	Concurrency      int      `mapstructure:"concurrency"`
	Telemetry        string   `mapstructure:"telemetry"`
	Verbose          bool     `mapstructure:"verbose"`
}

// SetDefaults registers built-in defaults with viper.
func SetDefaults() {
	viper.SetDefault("config_dir", "config")
	viper.SetDefault("variants_dir", "build")
	viper.SetDefault("output_dir", "dist")
	viper.SetDefault("fallback_filename", "config.yml")
	viper.SetDefault("default_variant", "full")
	viper.SetDefault("fallback_variant", "minimal")
	viper.SetDefault("patterns", []string{"*.yml", "*.yaml"})
	viper.SetDefault("ignore", []string{"node_modules", "dist"})
	viper.SetDefault("concurrency", 0)
	viper.SetDefault("telemetry", "")
	viper.SetDefault("verbose", false)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Concurrency < 0 {
		return Config{}, fmt.Errorf("concurrency must not be negative, got %d", cfg.Concurrency)
	}
	return cfg, nil
}

// SearchPaths returns the directories searched for the config file, in
// order: the working directory, then the XDG config directory for ompbuild.
func SearchPaths() []string {
	return []string{".", filepath.Join(xdg.ConfigHome, AppName)}
}
