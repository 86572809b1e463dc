package jsonapi

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi/handle"
	"github.com/dshills/docshare/internal/keyspace"
)

// keyHandle is the state behind a KeyRef.
type keyHandle struct {
	hc  *host.Context
	key *keyspace.Key
	typ *keyspace.ValueType
	doc *document.Document

	mu    sync.Mutex
	paths []handle.ID
}

// pathHandle is the state behind a PathRef.
type pathHandle struct {
	owner handle.ID
	val   document.Value
}

// Bridge owns the handle tables behind a capability table.
type Bridge struct {
	keys  *handle.Table[*keyHandle]
	paths *handle.Table[*pathHandle]

	logger      atomic.Pointer[slog.Logger]
	maxKeys     atomic.Int64
	maxPathsKey atomic.Int64
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger.Store(l.With("component", "jsonapi"))
		}
	}
}

// WithLimits caps the number of open key handles and the number of path
// handles per key. Zero means unlimited.
func WithLimits(maxKeys, maxPathsPerKey int) Option {
	return func(b *Bridge) {
		b.maxKeys.Store(int64(maxKeys))
		b.maxPathsKey.Store(int64(maxPathsPerKey))
	}
}

// NewBridge creates a bridge with empty handle tables.
func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		keys:  handle.New[*keyHandle](kindKey),
		paths: handle.New[*pathHandle](kindPath),
	}
	b.logger.Store(slog.Default().With("component", "jsonapi"))
	b.Configure(opts...)
	return b
}

// Configure applies options to a live bridge.
func (b *Bridge) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(b)
	}
}

func (b *Bridge) log() *slog.Logger { return b.logger.Load() }

// OpenKeys returns the number of open key handles.
func (b *Bridge) OpenKeys() int { return b.keys.Len() }

// OpenPaths returns the number of live path handles.
func (b *Bridge) OpenPaths() int { return b.paths.Len() }

var (
	stdOnce sync.Once
	std     *Bridge
)

// Default returns the process-wide bridge backing API and APIV2Table.
func Default() *Bridge {
	stdOnce.Do(func() {
		std = NewBridge()
	})
	return std
}
