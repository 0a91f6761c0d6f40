// Package config loads vellum settings from YAML.
//
// Example:
//
//	cache:
//	  capacity: 4096
//	eval:
//	  timeout: 30s
//	  expression_timeout: 5s
//	log:
//	  level: info
//	  format: text
//	render:
//	  format: svg
//	  width: 1920
//	  height: 1080
//	fonts:
//	  dirs: [/usr/share/fonts/truetype]
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/chazu/vellum/pkg/appio"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Eval   EvalConfig   `yaml:"eval"`
	Log    LogConfig    `yaml:"log"`
	Render RenderConfig `yaml:"render"`
	Fonts  FontsConfig  `yaml:"fonts"`
}

type CacheConfig struct {
	// Capacity is the number of memoized node results kept.
	Capacity int `yaml:"capacity"`
}

type EvalConfig struct {
	// Timeout bounds a whole evaluation pass. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
	// ExpressionTimeout bounds a single expression node.
	ExpressionTimeout time.Duration `yaml:"expression_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type RenderConfig struct {
	Format string `yaml:"format"` // svg or png
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

type FontsConfig struct {
	Dirs []string `yaml:"dirs"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cache:  CacheConfig{Capacity: 4096},
		Eval:   EvalConfig{Timeout: 30 * time.Second, ExpressionTimeout: 5 * time.Second},
		Log:    LogConfig{Level: "info", Format: "text"},
		Render: RenderConfig{Format: "svg", Width: 1920, Height: 1080},
	}
}

// Load reads and validates the file at path. Keys the file omits keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user-provided config file
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity))
	}
	if c.Eval.Timeout < 0 {
		errs = append(errs, fmt.Errorf("eval.timeout must not be negative, got %s", c.Eval.Timeout))
	}
	if c.Eval.ExpressionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("eval.expression_timeout must be positive, got %s", c.Eval.ExpressionTimeout))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Render.Format {
	case "svg", "png":
	default:
		errs = append(errs, fmt.Errorf("render.format must be svg or png, got %q", c.Render.Format))
	}
	if c.Render.Width == 0 || c.Render.Height == 0 {
		errs = append(errs, fmt.Errorf("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// Logger builds a logger writing to w with the configured level and
// format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Environment returns a local execution environment whose font cache holds
// every font found in the configured directories.
func (c *Config) Environment() (*appio.Environment, error) {
	env := appio.NewEnvironment()
	fonts := env.Fonts
	for _, dir := range c.Fonts.Dirs {
		next, err := fonts.LoadFontDir(dir)
		if err != nil {
			return nil, fmt.Errorf("fonts.dirs: %w", err)
		}
		fonts = next
	}
	return env.WithFonts(fonts), nil
}
