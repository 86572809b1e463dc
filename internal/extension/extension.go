package extension

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	elua "github.com/dshills/docshare/internal/extension/lua"
	"github.com/dshills/docshare/internal/host"
)

// Extension is a loaded Lua extension.
type Extension struct {
	id       string
	manifest *Manifest
	state    *elua.State
	logger   *slog.Logger

	allowed map[elua.Capability]bool
	timeout time.Duration

	runMu   sync.Mutex
	frameMu sync.Mutex
	frame   *host.Context
}

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithAllowedCapabilities restricts which requested capabilities may be
// granted. Without this option every known capability may be granted.
func WithAllowedCapabilities(caps ...elua.Capability) Option {
	return func(e *Extension) {
		e.allowed = make(map[elua.Capability]bool, len(caps))
		for _, c := range caps {
			e.allowed[c] = true
		}
	}
}

// WithTimeout bounds each Run and Call.
func WithTimeout(d time.Duration) Option {
	return func(e *Extension) {
		e.timeout = d
	}
}

// New creates an extension from a manifest and grants the capabilities it
// requests. It fails if a requested capability is not allowed.
func New(m *Manifest, opts ...Option) (*Extension, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	e := &Extension{
		id:       uuid.NewString(),
		manifest: m,
		logger:   slog.Default(),
		timeout:  elua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "extension", "extension", m.Name, "instance", e.id)

	for _, c := range m.Capabilities {
		if e.allowed != nil && !e.allowed[c] {
			return nil, fmt.Errorf("%w: %s requests %s", ErrCapabilityDenied, m.Name, c)
		}
	}

	e.state = elua.NewState(elua.WithExecutionTimeout(e.timeout))
	for _, c := range m.Capabilities {
		e.state.Sandbox().Grant(c)
	}
	registerHandleType(e.state.L)
	e.state.PreloadModule("host", e.hostModule)
	return e, nil
}

// Load loads the extension at path: a .lua file or a directory with an
// extension.json manifest.
func Load(path string, opts ...Option) (*Extension, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load extension: %w", err)
	}
	var m *Manifest
	if info.IsDir() {
		m, err = LoadManifest(filepath.Join(path, ManifestFile))
		if err != nil {
			return nil, err
		}
	} else {
		m = ManifestForScript(path)
	}
	return New(m, opts...)
}

// LoadDir loads every extension directly inside dir: subdirectories with a
// manifest and loose .lua files. Results are in directory order.
func LoadDir(dir string, opts ...Option) ([]*Extension, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read extension dir: %w", err)
	}
	var exts []*Extension
	for _, ent := range entries {
		path := filepath.Join(dir, ent.Name())
		switch {
		case ent.IsDir():
			if _, err := os.Stat(filepath.Join(path, ManifestFile)); err != nil {
				continue
			}
		case filepath.Ext(ent.Name()) != ".lua":
			continue
		}
		ext, err := Load(path, opts...)
		if err != nil {
			for _, loaded := range exts {
				_ = loaded.Close()
			}
			return nil, err
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

// ID returns the unique instance id.
func (e *Extension) ID() string { return e.id }

// Name returns the manifest name.
func (e *Extension) Name() string { return e.manifest.Name }

// Manifest returns the manifest.
func (e *Extension) Manifest() *Manifest { return e.manifest }

// Run executes the main script as one command frame.
func (e *Extension) Run(ctx context.Context, srv *host.Server) error {
	return e.invoke(ctx, srv, func() error {
		return e.state.DoFile(ctx, e.manifest.MainPath())
	})
}

// RunString executes code as one command frame.
func (e *Extension) RunString(ctx context.Context, srv *host.Server, code string) error {
	return e.invoke(ctx, srv, func() error {
		return e.state.DoString(ctx, code)
	})
}

// Call calls a global function defined by the extension as one command
// frame and returns its results as Go values.
func (e *Extension) Call(ctx context.Context, srv *host.Server, fn string, args ...any) ([]any, error) {
	var out []any
	err := e.invoke(ctx, srv, func() error {
		largs := make([]lua.LValue, len(args))
		for i, a := range args {
			largs[i] = elua.ToLuaValue(e.state.L, a)
		}
		res, err := e.state.Call(ctx, fn, largs...)
		if err != nil {
			return err
		}
		out = make([]any, len(res))
		for i, v := range res {
			out[i] = elua.ToGoValue(v)
		}
		return nil
	})
	return out, err
}

// Global returns a global variable of the extension as a Go value.
func (e *Extension) Global(name string) any {
	return elua.ToGoValue(e.state.GetGlobal(name))
}

// invoke runs fn inside a host command frame with the frame visible to the
// host module.
func (e *Extension) invoke(ctx context.Context, srv *host.Server, fn func() error) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.state.IsClosed() {
		return ErrClosed
	}
	return srv.Invoke(ctx, e.manifest.Name, func(hc *host.Context) error {
		for _, api := range e.manifest.Requires {
			if _, err := hc.GetSharedAPI(api); err != nil {
				return fmt.Errorf("%w: %s needs %s", ErrMissingAPI, e.manifest.Name, api)
			}
		}

		e.setFrame(hc)
		defer e.setFrame(nil)

		start := time.Now()
		err := fn()
		e.logger.Debug("extension frame finished", "invocation", hc.ID(), "elapsed", time.Since(start), "err", err)
		if err != nil {
			return fmt.Errorf("extension %s: %w", e.manifest.Name, err)
		}
		return nil
	})
}

func (e *Extension) setFrame(hc *host.Context) {
	e.frameMu.Lock()
	e.frame = hc
	e.frameMu.Unlock()
}

// Close releases the Lua state.
func (e *Extension) Close() error {
	return e.state.Close()
}
