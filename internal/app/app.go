// Package app wires the docshare components together: configuration,
// logging, the host keyspace, the exported JSON API, seed data, Lua
// extensions and the config watcher.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/docshare/internal/config"
	"github.com/dshills/docshare/internal/config/watcher"
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/extension"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/jsoncmd"
	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/logging"
	"github.com/dshills/docshare/internal/notify"
)

// caller is the frame caller name used for the application's own commands.
const caller = "docshare"

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty uses
	// defaults and the environment.
	ConfigPath string

	// SeedPath is a JSON or YAML file of documents stored at startup.
	SeedPath string

	// Extensions are extension paths loaded in addition to the configured
	// extension directory.
	Extensions []string

	// Watch reloads the configuration file when it changes.
	Watch bool

	// LogOutput receives log records. Nil means stderr, in which case the
	// logger also becomes the slog default.
	LogOutput io.Writer

	// Events receives one line per delivered keyspace notification.
	Events io.Writer
}

// Application is a running docshare host.
type Application struct {
	mu sync.Mutex

	cfg      *config.Config
	logger   *logging.Logger
	notifier *notify.Notifier
	server   *host.Server
	bridge   *jsonapi.Bridge

	extensions []*extension.Extension
	watcher    *watcher.Watcher
	eventsSub  *notify.Subscription

	running atomic.Bool
	opts    Options
}

// New creates and bootstraps an application.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(ctx); err != nil {
		app.shutdown()
		return nil, err
	}
	app.running.Store(true)
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap(ctx context.Context) error {
	var err error

	// 1. Configuration
	app.cfg, err = config.Load(app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}

	// 2. Logging
	if app.opts.LogOutput == nil {
		app.logger, err = logging.Setup(app.cfg.LoggingOptions())
	} else {
		app.logger, err = logging.New(app.opts.LogOutput, app.cfg.LoggingOptions())
	}
	if err != nil {
		return &InitError{Component: "logging", Err: err}
	}
	log := app.logger.Logger

	// 3. Keyspace, notifications and the host server
	app.notifier = notify.New(notify.WithMask(app.cfg.NotifyMask()), notify.WithLogger(log))
	app.server = host.NewServer(
		host.WithStore(keyspace.New()),
		host.WithNotifier(app.notifier),
		host.WithLogger(log),
	)
	if app.opts.Events != nil {
		if err := app.printEvents(app.opts.Events); err != nil {
			return &InitError{Component: "event printer", Err: err}
		}
	}

	// 4. JSON API
	app.bridge = jsonapi.NewBridge(
		jsonapi.WithLogger(log),
		jsonapi.WithLimits(app.cfg.Handles.MaxKeys, app.cfg.Handles.MaxPathsPerKey),
	)
	err = app.server.Invoke(ctx, caller, func(hc *host.Context) error {
		return jsonapi.Export(hc, jsonapi.ExportOptions{
			SkipV2: !app.cfg.API.ExportV2,
			Bridge: app.bridge,
		})
	})
	if err != nil {
		return &InitError{Component: "json api", Err: err}
	}

	// 5. Seed data
	if app.opts.SeedPath != "" {
		if err := app.seed(ctx, app.opts.SeedPath); err != nil {
			return &InitError{Component: "seed", Err: err}
		}
	}

	// 6. Extensions
	if err := app.loadExtensions(); err != nil {
		return &InitError{Component: "extensions", Err: err}
	}

	// 7. Config watcher
	if app.opts.Watch && app.opts.ConfigPath != "" {
		app.watcher, err = watcher.New(app.opts.ConfigPath,
			watcher.Apply(app.logger, app.notifier),
			watcher.WithLogger(log),
		)
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
	}

	log.Debug("application started",
		"extensions", len(app.extensions),
		"keys", app.server.Store().Len(),
		"events", app.notifier.Mask().String())
	return nil
}

func (app *Application) printEvents(w io.Writer) error {
	var mu sync.Mutex
	sub, err := app.notifier.Subscribe(notify.TopicPrefix+notify.Separator+notify.WildcardMulti, "",
		func(_ context.Context, ev notify.Event) error {
			mu.Lock()
			defer mu.Unlock()
			_, err := fmt.Fprintf(w, "%s %s\n", ev.Topic(), ev.Key)
			return err
		})
	if err != nil {
		return err
	}
	app.eventsSub = sub
	return nil
}

func (app *Application) seed(ctx context.Context, path string) error {
	entries, err := LoadSeed(path)
	if err != nil {
		return err
	}
	return app.server.Invoke(ctx, caller, func(hc *host.Context) error {
		for _, e := range entries {
			if _, err := jsoncmd.Set(hc, e.Key, "$", e.JSON, jsoncmd.Always); err != nil {
				return fmt.Errorf("seed key %s: %w", e.Key, err)
			}
		}
		hc.Logger().Info("keyspace seeded", "path", path, "keys", len(entries))
		return nil
	})
}

func (app *Application) loadExtensions() error {
	extOpts := []extension.Option{
		extension.WithLogger(app.logger.Logger),
		extension.WithTimeout(app.cfg.ExtensionTimeout()),
		extension.WithAllowedCapabilities(app.cfg.AllowedCapabilities()...),
	}
	if dir := app.cfg.Extension.Dir; dir != "" {
		exts, err := extension.LoadDir(dir, extOpts...)
		if err != nil {
			return err
		}
		app.extensions = append(app.extensions, exts...)
	}
	for _, path := range app.opts.Extensions {
		ext, err := extension.Load(path, extOpts...)
		if err != nil {
			return err
		}
		app.extensions = append(app.extensions, ext)
	}
	return nil
}

// Run runs every loaded extension once, in load order, each in its own
// command frame. It stops at the first failure.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.Load() {
		return ErrNotRunning
	}
	for _, ext := range app.extensions {
		app.logger.Info("running extension", "extension", ext.Name(), "version", ext.Manifest().Version)
		if err := ext.Run(ctx, app.server); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the JSON at paths in key, formatted by f.
func (app *Application) Get(ctx context.Context, key string, f document.Format, paths ...string) (string, error) {
	if !app.running.Load() {
		return "", ErrNotRunning
	}
	var out string
	err := app.server.Invoke(ctx, caller, func(hc *host.Context) error {
		var err error
		out, err = jsoncmd.Get(hc, key, f, paths...)
		return err
	})
	return out, err
}

// Shutdown stops the watcher and closes the extensions. Calling it more
// than once is a no-op.
func (app *Application) Shutdown() {
	if !app.running.CompareAndSwap(true, false) {
		return
	}
	app.shutdown()
}

// shutdown performs cleanup in reverse initialization order.
func (app *Application) shutdown() {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.watcher != nil {
		_ = app.watcher.Close()
		app.watcher = nil
	}
	for i := len(app.extensions) - 1; i >= 0; i-- {
		_ = app.extensions[i].Close()
	}
	app.extensions = nil
	if app.eventsSub != nil {
		_ = app.notifier.Unsubscribe(app.eventsSub)
		app.eventsSub = nil
	}
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config { return app.cfg }

// Server returns the host server.
func (app *Application) Server() *host.Server { return app.server }

// Bridge returns the handle bridge behind the application's exported tables.
func (app *Application) Bridge() *jsonapi.Bridge { return app.bridge }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger.Logger }

// Extensions returns the loaded extensions.
func (app *Application) Extensions() []*extension.Extension {
	app.mu.Lock()
	defer app.mu.Unlock()
	return append([]*extension.Extension(nil), app.extensions...)
}
