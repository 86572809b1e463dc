package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	elua "github.com/dshills/docshare/internal/extension/lua"
	"github.com/dshills/docshare/internal/logging"
	"github.com/dshills/docshare/internal/notify"
)

// Config is the complete docshare configuration.
type Config struct {
	Log       LogConfig       `toml:"log" yaml:"log"`
	API       APIConfig       `toml:"api" yaml:"api"`
	Notify    NotifyConfig    `toml:"notify" yaml:"notify"`
	Extension ExtensionConfig `toml:"extension" yaml:"extension"`
	Handles   HandlesConfig   `toml:"handles" yaml:"handles"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
	Color  string `toml:"color" yaml:"color"`
}

// APIConfig selects which capability tables are exported.
type APIConfig struct {
	ExportV2 bool `toml:"export_v2" yaml:"export_v2"`
}

// NotifyConfig configures keyspace notifications.
type NotifyConfig struct {
	// KeyspaceEvents is a flag string such as "KEA"; empty disables
	// delivery.
	KeyspaceEvents string `toml:"keyspace_events" yaml:"keyspace_events"`
}

// ExtensionConfig configures the Lua extension runtime.
type ExtensionConfig struct {
	Dir     string   `toml:"dir" yaml:"dir"`
	Timeout string   `toml:"timeout" yaml:"timeout"`
	Allow   []string `toml:"allow" yaml:"allow"`
}

// HandlesConfig bounds open handles. Zero means unlimited.
type HandlesConfig struct {
	MaxKeys        int `toml:"max_keys" yaml:"max_keys"`
	MaxPathsPerKey int `toml:"max_paths_per_key" yaml:"max_paths_per_key"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
			Color:  logging.ColorAuto,
		},
		API:    APIConfig{ExportV2: true},
		Notify: NotifyConfig{KeyspaceEvents: "KEA"},
		Extension: ExtensionConfig{
			Timeout: elua.DefaultExecutionTimeout.String(),
			Allow:   capabilityNames(elua.KnownCapabilities()),
		},
	}
}

func capabilityNames(caps []elua.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return tomlParseError(path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

func tomlParseError(path string, err error) error {
	pe := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Setting: "log.level", Message: err.Error()}
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return &ValidationError{Setting: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	switch c.Log.Color {
	case logging.ColorAuto, logging.ColorAlways, logging.ColorNever:
	default:
		return &ValidationError{Setting: "log.color", Message: fmt.Sprintf("unknown color mode %q", c.Log.Color)}
	}
	if _, err := notify.ParseMask(c.Notify.KeyspaceEvents); err != nil {
		return &ValidationError{Setting: "notify.keyspace_events", Message: err.Error()}
	}
	if d, err := time.ParseDuration(c.Extension.Timeout); err != nil || d < 0 {
		return &ValidationError{Setting: "extension.timeout", Message: fmt.Sprintf("invalid duration %q", c.Extension.Timeout)}
	}
	for _, name := range c.Extension.Allow {
		if !elua.Capability(name).IsKnown() {
			return &ValidationError{Setting: "extension.allow", Message: fmt.Sprintf("unknown capability %q", name)}
		}
	}
	if c.Handles.MaxKeys < 0 {
		return &ValidationError{Setting: "handles.max_keys", Message: "must not be negative"}
	}
	if c.Handles.MaxPathsPerKey < 0 {
		return &ValidationError{Setting: "handles.max_paths_per_key", Message: "must not be negative"}
	}
	return nil
}

// NotifyMask returns the parsed notification mask. Call after Validate.
func (c *Config) NotifyMask() notify.Mask {
	m, _ := notify.ParseMask(c.Notify.KeyspaceEvents)
	return m
}

// ExtensionTimeout returns the parsed extension timeout. Call after
// Validate.
func (c *Config) ExtensionTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Extension.Timeout)
	return d
}

// AllowedCapabilities returns extension.allow as capabilities.
func (c *Config) AllowedCapabilities() []elua.Capability {
	out := make([]elua.Capability, len(c.Extension.Allow))
	for i, name := range c.Extension.Allow {
		out[i] = elua.Capability(name)
	}
	return out
}

// LoggingOptions returns the log section as logging options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format, Color: c.Log.Color}
}
