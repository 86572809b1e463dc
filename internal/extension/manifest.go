package extension

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	elua "github.com/dshills/docshare/internal/extension/lua"
)

// ManifestFile is the manifest file name inside an extension directory.
const ManifestFile = "extension.json"

// Manifest describes an extension.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`

	// Main is the script path relative to the extension directory.
	Main string `json:"main"`

	// Capabilities requested by the extension.
	Capabilities []elua.Capability `json:"capabilities"`

	// Requires lists shared APIs that must be exported before the
	// extension runs, e.g. "DocShare_V1".
	Requires []string `json:"requires"`

	dir string
}

var (
	namePattern   = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
)

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ManifestForScript returns the implicit manifest of a single-file
// extension. The name is derived from the file name; no capabilities are
// requested.
func ManifestForScript(path string) *Manifest {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := &Manifest{
		Name: sanitizeName(base),
		Main: filepath.Base(path),
		dir:  filepath.Dir(path),
	}
	m.applyDefaults()
	return m
}

func sanitizeName(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('-')
		}
	}
	name := strings.TrimRight(strings.TrimLeft(sb.String(), "-0123456789"), "-")
	if name == "" {
		return "script"
	}
	return name
}

func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks the manifest fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}
	if filepath.Ext(m.Main) != ".lua" || filepath.IsAbs(m.Main) || strings.Contains(m.Main, "..") {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	for _, c := range m.Capabilities {
		if !c.IsKnown() {
			return fmt.Errorf("%w: %s", ErrInvalidCapability, c)
		}
	}
	return nil
}

// Dir returns the extension directory.
func (m *Manifest) Dir() string { return m.dir }

// MainPath returns the absolute-or-relative path of the main script.
func (m *Manifest) MainPath() string { return filepath.Join(m.dir, m.Main) }

// HasCapability reports whether the manifest requests c.
func (m *Manifest) HasCapability(c elua.Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
