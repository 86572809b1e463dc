package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/match"
)

// Handler receives delivered events. It runs in the publisher's goroutine.
type Handler func(ctx context.Context, ev Event) error

// Subscription is a registered interest in a topic pattern and key pattern.
type Subscription struct {
	id         string
	pattern    Topic
	keyPattern string
	handler    Handler
	cancelled  atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// KeyPattern returns the glob the key name must match.
func (s *Subscription) KeyPattern() string { return s.keyPattern }

func (s *Subscription) accepts(ev Event) bool {
	if s.cancelled.Load() {
		return false
	}
	if !ev.Topic().Matches(s.pattern) {
		return false
	}
	return MatchKey(ev.Key, s.keyPattern)
}

// MatchKey reports whether key matches the glob pattern. The empty pattern
// and "*" match every key.
func MatchKey(key, pattern string) bool {
	return pattern == "" || pattern == "*" || match.Match(key, pattern)
}

// Stats holds delivery counters.
type Stats struct {
	Published  uint64
	Suppressed uint64
	Delivered  uint64
	Failed     uint64
	Panicked   uint64
}

// Notifier is the host's keyspace-notification channel.
// It is safe for concurrent use.
type Notifier struct {
	mu   sync.RWMutex
	subs []*Subscription

	mask   atomic.Uint32
	logger *slog.Logger
	now    func() time.Time

	published  atomic.Uint64
	suppressed atomic.Uint64
	delivered  atomic.Uint64
	failed     atomic.Uint64
	panicked   atomic.Uint64
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithMask sets the initial delivery mask.
func WithMask(m Mask) Option {
	return func(n *Notifier) {
		n.mask.Store(uint32(m))
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a notifier. The default mask delivers every class, key misses
// and new keys included ("KEAmn").
func New(opts ...Option) *Notifier {
	n := &Notifier{
		logger: slog.Default(),
		now:    time.Now,
	}
	n.mask.Store(uint32(Channels | KindAll | KindKeyMiss | KindNew))
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("component", "notify")
	return n
}

// Mask returns the current delivery mask.
func (n *Notifier) Mask() Mask {
	return Mask(n.mask.Load())
}

// SetMask replaces the delivery mask. Takes effect for the next Publish.
func (n *Notifier) SetMask(m Mask) {
	n.mask.Store(uint32(m))
}

// Subscribe registers handler for events whose topic matches pattern and
// whose key matches the glob keyPattern ("" or "*" match every key).
func (n *Notifier) Subscribe(pattern Topic, keyPattern string, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	sub := &Subscription{
		id:         uuid.NewString(),
		pattern:    pattern,
		keyPattern: keyPattern,
		handler:    handler,
	}
	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()
	return sub, nil
}

// Unsubscribe cancels and removes a subscription.
func (n *Notifier) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s == sub {
			s.cancelled.Store(true)
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Len returns the number of live subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Publish delivers ev to every matching subscription, in subscription order,
// before returning. Events whose kind is disabled by the mask are dropped.
// Handler errors and panics are counted and logged; they never fail the
// publisher.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if err := ev.validate(); err != nil {
		return fmt.Errorf("%w: kind=%q event=%q key=%q", err, ev.Kind, ev.Name, ev.Key)
	}
	if !n.Mask().Enabled(ev.Kind) {
		n.suppressed.Add(1)
		return nil
	}
	n.published.Add(1)
	if ev.Time.IsZero() {
		ev.Time = n.now()
	}

	n.mu.RLock()
	subs := make([]*Subscription, 0, len(n.subs))
	for _, s := range n.subs {
		if s.accepts(ev) {
			subs = append(subs, s)
		}
	}
	n.mu.RUnlock()

	for _, s := range subs {
		if err := n.deliver(ctx, s, ev); err != nil {
			n.failed.Add(1)
			n.logger.WarnContext(ctx, "notification handler failed", "err", err)
			continue
		}
		n.delivered.Add(1)
	}
	return nil
}

// deliver runs one handler with panic recovery.
func (n *Notifier) deliver(ctx context.Context, s *Subscription, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			n.panicked.Add(1)
			n.logger.ErrorContext(ctx, "notification handler panicked",
				"subscription", s.id, "topic", ev.Topic(), "panic", r, "stack", string(debug.Stack()))
			err = &HandlerError{SubscriptionID: s.id, Topic: ev.Topic(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := s.handler(ctx, ev); herr != nil {
		return &HandlerError{SubscriptionID: s.id, Topic: ev.Topic(), Err: herr}
	}
	return nil
}

// Stats returns delivery counters.
func (n *Notifier) Stats() Stats {
	return Stats{
		Published:  n.published.Load(),
		Suppressed: n.suppressed.Load(),
		Delivered:  n.delivered.Load(),
		Failed:     n.failed.Load(),
		Panicked:   n.panicked.Load(),
	}
}
