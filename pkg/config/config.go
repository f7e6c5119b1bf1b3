// Package config loads runtime settings from viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Size is a width and height in screen pixels.
type Size struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// Validate implements validation.Validatable.
func (s Size) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Width, validation.Required, validation.Min(200)),
		validation.Field(&s.Height, validation.Required, validation.Min(200)),
	)
}

// Config holds all runtime configuration.
// Values are populated from .spatial.toml, SPATIAL_* env vars, and CLI flags.
type Config struct {
	DBPath        string        `mapstructure:"db_path"`
	Seed          string        `mapstructure:"seed"` // layout script used for an empty database; embedded default when blank
	Mode          string        `mapstructure:"mode"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
	AutosaveDelay time.Duration `mapstructure:"autosave_delay"`
	Window        Size          `mapstructure:"window"`
	Viewport      Size          `mapstructure:"viewport"`
}

// DefaultDBPath is ~/.spatial/spatial.db, or a file in the working
// directory when there is no home directory.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "spatial.db"
	}
	return filepath.Join(home, ".spatial", "spatial.db")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates the
// result.
func Load() (Config, error) {
	viper.SetDefault("db_path", DefaultDBPath())
	viper.SetDefault("seed", "")
	viper.SetDefault("mode", "pan")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("autosave_delay", "500ms")
	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 800)
	viper.SetDefault("viewport.width", 1280)
	viper.SetDefault("viewport.height", 800)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate checks the loaded values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.Mode, validation.In("pan", "select")),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.AutosaveDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.Window),
		validation.Field(&c.Viewport),
	)
}
