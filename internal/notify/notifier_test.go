package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func newTestNotifier(t *testing.T, mask string) *Notifier {
	t.Helper()
	return New(
		WithMask(MustParseMask(mask)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestNotifierPublishDelivers(t *testing.T) {
	n := newTestNotifier(t, "KEA")

	var got []Event
	_, err := n.Subscribe("keyevent.module.**", "", func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe error = %v", err)
	}

	ev := Event{Kind: KindModule, Name: "json.set", Key: "doc:1"}
	if err := n.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("delivered %d events, want 1", len(got))
	}
	if got[0].Name != "json.set" || got[0].Key != "doc:1" || got[0].Kind != KindModule {
		t.Errorf("delivered %+v", got[0])
	}
	if got[0].Time.IsZero() {
		t.Error("event time not set")
	}
}

func TestNotifierKeyPattern(t *testing.T) {
	n := newTestNotifier(t, "KEA")

	count := 0
	if _, err := n.Subscribe("**", "user:*", func(context.Context, Event) error {
		count++
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_ = n.Publish(ctx, Event{Kind: KindModule, Name: "json.set", Key: "user:1"})
	_ = n.Publish(ctx, Event{Kind: KindModule, Name: "json.set", Key: "order:1"})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestNotifierMaskSuppresses(t *testing.T) {
	n := newTestNotifier(t, "Kg")

	count := 0
	if _, err := n.Subscribe("**", "", func(context.Context, Event) error {
		count++
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_ = n.Publish(ctx, Event{Kind: KindModule, Name: "json.set", Key: "k"})
	_ = n.Publish(ctx, Event{Kind: KindGeneric, Name: "del", Key: "k"})

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	st := n.Stats()
	if st.Suppressed != 1 || st.Published != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	n.SetMask(0)
	_ = n.Publish(ctx, Event{Kind: KindGeneric, Name: "del", Key: "k"})
	if count != 1 {
		t.Errorf("count after disabling = %d, want 1", count)
	}
}

func TestNotifierInvalidEvent(t *testing.T) {
	n := newTestNotifier(t, "KEA")

	tests := []Event{
		{Name: "x", Key: "k"},
		{Kind: KindModule, Key: "k"},
		{Kind: KindModule, Name: "x"},
		{Kind: KindKeyspace, Name: "x", Key: "k"},
	}
	for _, ev := range tests {
		if err := n.Publish(context.Background(), ev); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("Publish(%+v) error = %v, want ErrInvalidEvent", ev, err)
		}
	}
}

func TestNotifierHandlerFailures(t *testing.T) {
	n := newTestNotifier(t, "KEA")

	delivered := false
	_, _ = n.Subscribe("**", "", func(context.Context, Event) error {
		return errors.New("boom")
	})
	_, _ = n.Subscribe("**", "", func(context.Context, Event) error {
		panic("kaboom")
	})
	_, _ = n.Subscribe("**", "", func(context.Context, Event) error {
		delivered = true
		return nil
	})

	if err := n.Publish(context.Background(), Event{Kind: KindModule, Name: "json.del", Key: "k"}); err != nil {
		t.Fatalf("Publish error = %v", err)
	}
	if !delivered {
		t.Error("later handler not reached after failures")
	}
	st := n.Stats()
	if st.Failed != 2 || st.Panicked != 1 || st.Delivered != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestNotifierUnsubscribe(t *testing.T) {
	n := newTestNotifier(t, "KEA")

	count := 0
	sub, err := n.Subscribe("**", "", func(context.Context, Event) error {
		count++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Unsubscribe(sub); err != nil {
		t.Fatalf("Unsubscribe error = %v", err)
	}
	if err := n.Unsubscribe(sub); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("second Unsubscribe error = %v", err)
	}
	_ = n.Publish(context.Background(), Event{Kind: KindModule, Name: "json.set", Key: "k"})
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if n.Len() != 0 {
		t.Errorf("Len() = %d, want 0", n.Len())
	}
}

func TestNotifierSubscribeValidation(t *testing.T) {
	n := newTestNotifier(t, "KEA")
	if _, err := n.Subscribe("**", "", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler error = %v", err)
	}
	if _, err := n.Subscribe("a..b", "", func(context.Context, Event) error { return nil }); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("bad topic error = %v", err)
	}
}

func TestMatchKey(t *testing.T) {
	tests := []struct {
		key, pattern string
		want         bool
	}{
		{"user:1", "", true},
		{"user:1", "*", true},
		{"user:1", "user:*", true},
		{"order:1", "user:*", false},
		{"user:1", "user:?", true},
		{"user:10", "user:?", false},
	}
	for _, tt := range tests {
		if got := MatchKey(tt.key, tt.pattern); got != tt.want {
			t.Errorf("MatchKey(%q, %q) = %v, want %v", tt.key, tt.pattern, got, tt.want)
		}
	}
}

func TestNotifierDefaultMask(t *testing.T) {
	n := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if n.Mask() != MustParseMask("KEAmn") {
		t.Errorf("default mask = %s, want KEAmn", n.Mask())
	}
	if got := n.Mask().String(); got != "KEAmn" {
		t.Errorf("Mask().String() = %q", got)
	}
}
