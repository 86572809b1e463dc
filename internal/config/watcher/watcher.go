// Package watcher reloads the configuration file when it changes.
//
// The watcher observes the file's directory rather than the file itself so
// editors that save by writing a temporary file and renaming it over the
// original are seen. Bursts of events are debounced into one reload.
package watcher

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/docshare/internal/config"
	"github.com/dshills/docshare/internal/logging"
	"github.com/dshills/docshare/internal/notify"
)

// ErrWatcherClosed is returned by operations on a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 100 * time.Millisecond

// Handler receives each successfully reloaded configuration.
type Handler func(cfg *config.Config)

// Stats holds reload counters.
type Stats struct {
	Reloads   int64
	Errors    int64
	LastError error
}

// Watcher reloads one configuration file on change.
type Watcher struct {
	mu sync.Mutex

	path     string
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger
	load     func(path string) (*config.Config, error)

	fsw     *fsnotify.Watcher
	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup

	reloads   atomic.Int64
	errCount  atomic.Int64
	lastError error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New starts watching path and calls handler after each change that loads
// and validates. Invalid files are logged and skipped; the previous
// configuration stays in effect.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     abs,
		handler:  handler,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		load:     config.Load,
		fsw:      fsw,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "config-watcher", "path", abs)

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Stats returns reload counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Reloads:   w.reloads.Load(),
		Errors:    w.errCount.Load(),
		LastError: w.lastError,
	}
}

// Close stops the watcher and waits for a pending reload to finish.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.recordError(err)
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// schedule arms or re-arms the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.reload()
	})
}

func (w *Watcher) reload() {
	select {
	case <-w.closeCh:
		return
	default:
	}
	cfg, err := w.load(w.path)
	if err != nil {
		w.recordError(err)
		w.logger.Error("config reload failed, keeping previous settings", "err", err)
		return
	}
	w.reloads.Add(1)
	w.logger.Info("config reloaded")
	if w.handler != nil {
		w.handler(cfg)
	}
}

func (w *Watcher) recordError(err error) {
	w.errCount.Add(1)
	w.mu.Lock()
	w.lastError = err
	w.mu.Unlock()
}

// Apply returns a Handler that applies the settings that can change while
// running: the log level and the notification mask.
func Apply(l *logging.Logger, n *notify.Notifier) Handler {
	return func(cfg *config.Config) {
		if l != nil {
			if err := l.SetLevel(cfg.Log.Level); err != nil {
				l.Warn("ignoring log level", "level", cfg.Log.Level, "err", err)
			}
		}
		if n != nil {
			n.SetMask(cfg.NotifyMask())
		}
	}
}
