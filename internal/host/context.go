package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// Context is the per-frame view of the host handed to extension code.
type Context struct {
	ctx    context.Context
	server *Server
	id     string
	caller string
	logger *slog.Logger

	mu    sync.Mutex
	hooks []func()
	held  map[string]*keyspace.Key
	done  bool
}

// Context returns the Go context of the frame.
func (c *Context) Context() context.Context { return c.ctx }

// ID returns the unique invocation id.
func (c *Context) ID() string { return c.id }

// Caller returns the name of the extension running the frame.
func (c *Context) Caller() string { return c.caller }

// Logger returns a logger tagged with the invocation.
func (c *Context) Logger() *slog.Logger { return c.logger }

// Server returns the host server.
func (c *Context) Server() *Server { return c.server }

// Done reports whether the frame has ended.
func (c *Context) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// OnRelease registers fn to run when the frame ends. Hooks run in reverse
// order of registration. Registering on an ended frame runs fn at once.
func (c *Context) OnRelease(fn func()) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		fn()
		return
	}
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

func (c *Context) release() {
	c.mu.Lock()
	hooks := c.hooks
	c.hooks = nil
	c.done = true
	c.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// OpenKey opens a key of the keyspace, blocking until its lock is free.
// The key is closed when the frame ends if the caller has not closed it.
// Opening a key the frame still holds fails with ErrKeyHeld.
func (c *Context) OpenKey(name string, mode keyspace.Mode) (*keyspace.Key, error) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil, ErrFrameClosed
	}
	if prev, ok := c.held[name]; ok && !prev.Closed() {
		c.mu.Unlock()
		return nil, &keyspace.KeyError{Op: "open", Key: name, Err: ErrKeyHeld}
	}
	c.mu.Unlock()

	k, err := c.server.store.Open(c.ctx, name, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.held == nil {
		c.held = make(map[string]*keyspace.Key)
	}
	c.held[name] = k
	c.mu.Unlock()

	c.OnRelease(func() { _ = k.Close() })
	return k, nil
}

// DeleteKey removes a key's value and emits the generic "del" event.
// It reports whether there was a value to remove.
func (c *Context) DeleteKey(name string) (bool, error) {
	k, err := c.OpenKey(name, keyspace.ModeWrite)
	if err != nil {
		return false, err
	}
	defer k.Close()

	deleted, err := k.Delete()
	if err != nil || !deleted {
		return false, err
	}
	if err := c.NotifyKeyspaceEvent(notify.KindGeneric, "del", name); err != nil {
		return true, err
	}
	return true, nil
}

// NotifyKeyspaceEvent publishes a keyspace notification. Delivery happens
// before it returns; events disabled by the notifier's mask are dropped.
func (c *Context) NotifyKeyspaceEvent(kind notify.Kind, event, key string) error {
	if c.Done() {
		return ErrFrameClosed
	}
	return c.server.notifier.Publish(c.ctx, notify.Event{
		Kind: kind,
		Name: event,
		Key:  key,
		DB:   c.server.db,
	})
}

// ExportSharedAPI publishes api under name for other extensions.
func (c *Context) ExportSharedAPI(name string, api any) error {
	if c.Done() {
		return ErrFrameClosed
	}
	if err := c.server.apis.Export(SharedAPI{Name: name, Exporter: c.caller, Value: api}); err != nil {
		return err
	}
	c.logger.Debug("shared API exported", "api", name)
	return nil
}

// GetSharedAPI looks up a shared API by name.
func (c *Context) GetSharedAPI(name string) (any, error) {
	api, ok := c.server.apis.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAPINotFound, name)
	}
	return api.Value, nil
}
