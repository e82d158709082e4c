// Package config loads legalgate settings.
//
// Precedence, lowest first: built-in defaults, the YAML config file,
// LEGALGATE_* environment variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/legalgate/internal/fixture"
	"github.com/roach88/legalgate/internal/timeexpr"
)

// DefaultConfigFile is read from the working directory when no path is given.
const DefaultConfigFile = ".legalgate.yaml"

// Config is the effective configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Harness  HarnessConfig  `mapstructure:"harness"`
	Time     TimeConfig     `mapstructure:"time"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// HarnessConfig controls scenario runs.
type HarnessConfig struct {
	// ManualTag opts a scenario out of enforcement suppression.
	ManualTag string `mapstructure:"manual_tag"`
	// GoldenDir is the golden trace directory, relative to the scenarios
	// directory unless absolute.
	GoldenDir string `mapstructure:"golden_dir"`
}

// TimeConfig controls time expression parsing.
type TimeConfig struct {
	// Location is an IANA name, or "Local" for the host zone.
	Location string `mapstructure:"location"`
}

// LogConfig controls CLI logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath overrides DefaultConfigFile. A missing default file is not
	// an error; a missing explicit file is.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dot-notated keys).
	FlagOverrides map[string]any
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "legalgate.db"},
		Harness: HarnessConfig{
			ManualTag: fixture.ManualTag,
			GoldenDir: "golden",
		},
		Time: TimeConfig{Location: "Local"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load returns the effective configuration after applying precedence.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := mergeConfigFile(v, opts.ConfigPath); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix("LEGALGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range opts.FlagOverrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults seeds viper with built-in defaults. Every key needs a default
// for AutomaticEnv to see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("harness.manual_tag", def.Harness.ManualTag)
	v.SetDefault("harness.golden_dir", def.Harness.GoldenDir)
	v.SetDefault("time.location", def.Time.Location)
	v.SetDefault("log.level", def.Log.Level)
}

// mergeConfigFile merges the YAML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks values that would otherwise fail later.
func Validate(cfg Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if cfg.Harness.ManualTag == "" {
		return fmt.Errorf("harness.manual_tag must not be empty")
	}
	if _, err := timeexpr.LoadLocation(cfg.Time.Location); err != nil {
		return fmt.Errorf("time.location: %w", err)
	}
	level := strings.ToLower(cfg.Log.Level)
	for _, l := range validLevels {
		if level == l {
			return nil
		}
	}
	return fmt.Errorf("log.level %q: must be one of %v", cfg.Log.Level, validLevels)
}
