package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DOCSHARE_"

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// envSetting maps one variable to the field it overrides.
type envSetting struct {
	name string
	set  func(c *Config, val string) error
}

func envSettings() []envSetting {
	str := func(field func(*Config) *string) func(*Config, string) error {
		return func(c *Config, v string) error {
			*field(c) = v
			return nil
		}
	}
	integer := func(field func(*Config) *int) func(*Config, string) error {
		return func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		}
	}
	return []envSetting{
		{"LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
		{"LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
		{"LOG_COLOR", str(func(c *Config) *string { return &c.Log.Color })},
		{"API_EXPORT_V2", func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return err
			}
			c.API.ExportV2 = b
			return nil
		}},
		{"NOTIFY_KEYSPACE_EVENTS", str(func(c *Config) *string { return &c.Notify.KeyspaceEvents })},
		{"EXTENSION_DIR", str(func(c *Config) *string { return &c.Extension.Dir })},
		{"EXTENSION_TIMEOUT", str(func(c *Config) *string { return &c.Extension.Timeout })},
		{"EXTENSION_ALLOW", func(c *Config, v string) error {
			c.Extension.Allow = splitList(v)
			return nil
		}},
		{"HANDLES_MAX_KEYS", integer(func(c *Config) *int { return &c.Handles.MaxKeys })},
		{"HANDLES_MAX_PATHS_PER_KEY", integer(func(c *Config) *int { return &c.Handles.MaxPathsPerKey })},
	}
}

// ApplyEnv overrides settings from DOCSHARE_* variables. An empty value is
// a value, not an unset variable.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, s := range envSettings() {
		val, ok := lookup(EnvPrefix + s.name)
		if !ok {
			continue
		}
		if err := s.set(c, val); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, s.name, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
