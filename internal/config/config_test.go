package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/docshare/internal/notify"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if !c.API.ExportV2 {
		t.Error("ExportV2 default is false")
	}
	if c.NotifyMask() != notify.MustParseMask("KEA") {
		t.Errorf("NotifyMask() = %v", c.NotifyMask())
	}
	if len(c.AllowedCapabilities()) != 3 {
		t.Errorf("AllowedCapabilities() = %v", c.AllowedCapabilities())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "docshare.toml", `
[log]
level = "debug"

[notify]
keyspace_events = "Ed"

[extension]
timeout = "250ms"
allow = ["api"]

[handles]
max_keys = 64
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if c.Log.Level != "debug" {
		t.Errorf("log.level = %q", c.Log.Level)
	}
	if c.Log.Format != "text" {
		t.Errorf("log.format default lost: %q", c.Log.Format)
	}
	if !c.API.ExportV2 {
		t.Error("api.export_v2 default lost")
	}
	if c.NotifyMask() != notify.MustParseMask("Ed") {
		t.Errorf("mask = %v", c.NotifyMask())
	}
	if c.ExtensionTimeout() != 250*time.Millisecond {
		t.Errorf("timeout = %v", c.ExtensionTimeout())
	}
	if len(c.Extension.Allow) != 1 || c.Extension.Allow[0] != "api" {
		t.Errorf("allow = %v", c.Extension.Allow)
	}
	if c.Handles.MaxKeys != 64 || c.Handles.MaxPathsPerKey != 0 {
		t.Errorf("handles = %+v", c.Handles)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "docshare.yaml", `
log:
  format: json
api:
  export_v2: false
handles:
  max_paths_per_key: 8
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if c.Log.Format != "json" || c.Log.Level != "info" {
		t.Errorf("log = %+v", c.Log)
	}
	if c.API.ExportV2 {
		t.Error("api.export_v2 not overridden")
	}
	if c.Handles.MaxPathsPerKey != 8 {
		t.Errorf("handles = %+v", c.Handles)
	}
}

func TestLoadParseError(t *testing.T) {
	path := writeConfig(t, "bad.toml", "[log\nlevel = 1\n")
	_, err := Load(path)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Load error = %v, want *ParseError", err)
	}
	if pe.Path != path || pe.Line == 0 {
		t.Errorf("ParseError = %+v", pe)
	}

	path = writeConfig(t, "bad.yaml", "log: [unclosed\n")
	if _, err := Load(path); !errors.As(err, &pe) {
		t.Errorf("YAML Load error = %v, want *ParseError", err)
	}
}

func TestLoadUnsupportedAndMissing(t *testing.T) {
	path := writeConfig(t, "docshare.ini", "x=1")
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.ini) error = %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCSHARE_LOG_LEVEL":              "warn",
		"DOCSHARE_API_EXPORT_V2":          "false",
		"DOCSHARE_NOTIFY_KEYSPACE_EVENTS": "",
		"DOCSHARE_EXTENSION_ALLOW":        "api, notify,",
		"DOCSHARE_HANDLES_MAX_KEYS":       "10",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := Default()
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv error = %v", err)
	}
	if c.Log.Level != "warn" || c.API.ExportV2 || c.Notify.KeyspaceEvents != "" || c.Handles.MaxKeys != 10 {
		t.Errorf("config = %+v", c)
	}
	if len(c.Extension.Allow) != 2 || c.Extension.Allow[1] != "notify" {
		t.Errorf("allow = %q", c.Extension.Allow)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	env = map[string]string{"DOCSHARE_HANDLES_MAX_KEYS": "lots"}
	if err := Default().ApplyEnv(lookup); err == nil {
		t.Error("ApplyEnv accepted a non-integer")
	}
	if err := Default().ApplyEnv(noEnv); err != nil {
		t.Errorf("ApplyEnv(empty) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		setting string
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"color", func(c *Config) { c.Log.Color = "sometimes" }, "log.color"},
		{"mask", func(c *Config) { c.Notify.KeyspaceEvents = "Q" }, "notify.keyspace_events"},
		{"timeout", func(c *Config) { c.Extension.Timeout = "soon" }, "extension.timeout"},
		{"negative timeout", func(c *Config) { c.Extension.Timeout = "-1s" }, "extension.timeout"},
		{"allow", func(c *Config) { c.Extension.Allow = []string{"fs"} }, "extension.allow"},
		{"max keys", func(c *Config) { c.Handles.MaxKeys = -1 }, "handles.max_keys"},
		{"max paths", func(c *Config) { c.Handles.MaxPathsPerKey = -1 }, "handles.max_paths_per_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Setting != tt.setting {
				t.Fatalf("Validate() error = %v, want setting %s", err, tt.setting)
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Error("ValidationError does not wrap ErrValidationFailed")
			}
		})
	}
}
