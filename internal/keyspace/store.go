// Package keyspace implements the host's in-memory keyspace: named keys
// holding typed values, opened one holder at a time.
//
// Every key has an exclusive lock. Open blocks until the lock is free (or
// the context is done) and the returned Key holds it until Close. This
// replaces the single global critical section a single-threaded host would
// provide: two goroutines can never observe or mutate the same key at the
// same time, while different keys proceed in parallel.
package keyspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// MaxTypeNameLen bounds registered value type names.
const MaxTypeNameLen = 16

// ValueType is a registered kind of value a key can hold.
// Values are compared by identity: a key holds a value "of type t" only if
// it was stored with the same *ValueType.
type ValueType struct {
	name   string
	encver int
}

// Name returns the registered type name.
func (t *ValueType) Name() string { return t.name }

// EncodingVersion returns the encoding version given at registration.
func (t *ValueType) EncodingVersion() int { return t.encver }

// String returns the type name.
func (t *ValueType) String() string {
	if t == nil {
		return "none"
	}
	return t.name
}

// StringType is the built-in type for plain string values.
var StringType = &ValueType{name: "string"}

// Mode is the access mode of an open key.
type Mode int

const (
	// ModeRead opens a key for reading.
	ModeRead Mode = 1 << iota
	// ModeWrite opens a key for reading and writing.
	ModeWrite
)

// String returns the mode name.
func (m Mode) String() string {
	switch {
	case m&ModeWrite != 0:
		return "write"
	case m&ModeRead != 0:
		return "read"
	default:
		return "none"
	}
}

// entry is the slot behind a key name.
type entry struct {
	lock  chan struct{}
	typ   *ValueType
	value any
	refs  int // holders plus waiters, guarded by Store.mu
}

// Store is an in-memory keyspace. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	types   map[string]*ValueType
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty keyspace with the built-in string type registered.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		types:   map[string]*ValueType{StringType.name: StringType},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "keyspace")
	return s
}

// RegisterType registers a new value type.
func (s *Store) RegisterType(name string, encver int) (*ValueType, error) {
	if name == "" || len(name) > MaxTypeNameLen {
		return nil, &KeyError{Op: "register type", Key: name, Err: ErrInvalidTypeName}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.types[name]; ok {
		return nil, &KeyError{Op: "register type", Key: name, Err: ErrTypeExists}
	}
	t := &ValueType{name: name, encver: encver}
	s.types[name] = t
	s.logger.Debug("value type registered", "type", name, "encver", encver)
	return t, nil
}

// LookupType returns a registered type by name.
func (s *Store) LookupType(name string) (*ValueType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.types[name]
	return t, ok
}

// Open acquires the key's exclusive lock and returns a handle to it.
// Missing keys are opened empty; they only come into existence when a
// value is stored. Open blocks while another holder has the key.
func (s *Store) Open(ctx context.Context, name string, mode Mode) (*Key, error) {
	if name == "" {
		return nil, &KeyError{Op: "open", Key: name, Err: ErrInvalidKeyName}
	}
	if mode == 0 {
		mode = ModeRead
	}

	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		e = &entry{lock: make(chan struct{}, 1)}
		s.entries[name] = e
	}
	e.refs++
	s.mu.Unlock()

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		s.release(name, e, false)
		return nil, &KeyError{Op: "open", Key: name, Err: ctx.Err()}
	}
	return &Key{store: s, name: name, mode: mode, e: e}, nil
}

// release drops one reference to e and forgets the entry when nobody holds
// or waits on it and it stores nothing.
func (s *Store) release(name string, e *entry, unlock bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 && e.value == nil && s.entries[name] == e {
		delete(s.entries, name)
	}
	if unlock {
		<-e.lock
	}
}

// Exists reports whether a key currently stores a value.
// It does not take the key lock, so the answer may be stale immediately.
func (s *Store) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	return ok && e.value != nil
}

// Keys returns the names of all keys that store a value, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name, e := range s.entries {
		if e.value != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len returns the number of keys that store a value.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.value != nil {
			n++
		}
	}
	return n
}
