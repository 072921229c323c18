// Package config loads georef tool settings from defaults, an optional YAML
// file and GEOREF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"georef/internal/georef"

	"github.com/spf13/viper"
)

// Config holds all tool configuration.
type Config struct {
	Transform TransformConfig `mapstructure:"transform"`
	Warp      WarpConfig      `mapstructure:"warp"`
	Log       LogConfig       `mapstructure:"log"`
}

type TransformConfig struct {
	Method  string  `mapstructure:"method"`
	Order   int     `mapstructure:"order"`
	Scaling float64 `mapstructure:"scaling"`
}

// ParsedMethod returns the configured method.
func (t TransformConfig) ParsedMethod() (georef.Method, error) {
	return georef.ParseMethod(t.Method)
}

type WarpConfig struct {
	Width   int `mapstructure:"width"`
	Workers int `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. An empty path searches for georef.yaml in the
// working directory and ./configs and tolerates its absence; an explicit
// path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("transform.method", "automatic")
	v.SetDefault("transform.order", 3)
	v.SetDefault("transform.scaling", 1.0)
	v.SetDefault("warp.width", 1024)
	v.SetDefault("warp.workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("georef")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// GEOREF_TRANSFORM_METHOD → transform.method
	v.SetEnvPrefix("GEOREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {

	errs := c.Transform.problems()
	if c.Warp.Width <= 0 {
		errs = append(errs, fmt.Sprintf("warp.width must be positive, got %d", c.Warp.Width))
	}
	if c.Warp.Workers < 0 {
		errs = append(errs, fmt.Sprintf("warp.workers must not be negative, got %d", c.Warp.Workers))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks resolved transform settings.
func (t TransformConfig) Validate() error {
	if errs := t.problems(); len(errs) > 0 {
		return fmt.Errorf("invalid transform settings: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (t TransformConfig) problems() []string {
	var errs []string
	if _, err := t.ParsedMethod(); err != nil {
		errs = append(errs, fmt.Sprintf("transform.method: unknown method %q", t.Method))
	}
	if t.Order < 1 {
		errs = append(errs, fmt.Sprintf("transform.order must be at least 1, got %d", t.Order))
	}
	if !(t.Scaling > 0) || math.IsInf(t.Scaling, 0) {
		errs = append(errs, fmt.Sprintf("transform.scaling must be a positive number, got %g", t.Scaling))
	}
	return errs
}
