package host

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// Server is the host process state shared by all command frames.
type Server struct {
	store    *keyspace.Store
	notifier *notify.Notifier
	apis     *Registry
	logger   *slog.Logger
	db       int
}

// Option configures a Server.
type Option func(*Server)

// WithStore sets the keyspace.
func WithStore(s *keyspace.Store) Option {
	return func(srv *Server) {
		if s != nil {
			srv.store = s
		}
	}
}

// WithNotifier sets the notification channel.
func WithNotifier(n *notify.Notifier) Option {
	return func(srv *Server) {
		if n != nil {
			srv.notifier = n
		}
	}
}

// WithRegistry sets the shared-API registry.
func WithRegistry(r *Registry) Option {
	return func(srv *Server) {
		if r != nil {
			srv.apis = r
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// WithDB sets the logical database number reported in notifications.
func WithDB(db int) Option {
	return func(srv *Server) {
		srv.db = db
	}
}

// NewServer creates a server. Components not supplied by options are
// created with their defaults.
func NewServer(opts ...Option) *Server {
	srv := &Server{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.store == nil {
		srv.store = keyspace.New(keyspace.WithLogger(srv.logger))
	}
	if srv.notifier == nil {
		srv.notifier = notify.New(notify.WithLogger(srv.logger))
	}
	if srv.apis == nil {
		srv.apis = NewRegistry()
	}
	srv.logger = srv.logger.With("component", "host")
	return srv
}

// Store returns the keyspace.
func (s *Server) Store() *keyspace.Store { return s.store }

// Notifier returns the notification channel.
func (s *Server) Notifier() *notify.Notifier { return s.notifier }

// Registry returns the shared-API registry.
func (s *Server) Registry() *Registry { return s.apis }

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Invoke runs fn as one command frame on behalf of caller. The Context
// passed to fn is valid until fn returns; its release hooks run before
// Invoke returns, even if fn panics. A panic is returned as an error
// wrapping ErrPanic.
func (s *Server) Invoke(ctx context.Context, caller string, fn func(*Context) error) (err error) {
	hc := &Context{
		ctx:    ctx,
		server: s,
		id:     uuid.NewString(),
		caller: caller,
	}
	hc.logger = s.logger.With("invocation", hc.id, "caller", caller)

	defer hc.release()
	defer func() {
		if r := recover(); r != nil {
			hc.logger.ErrorContext(ctx, "command panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return fn(hc)
}
