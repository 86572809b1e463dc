package notify

import "time"

// Event is a single keyspace notification.
type Event struct {
	// Kind is the event class (exactly one flag).
	Kind Kind

	// Name is the short event name, e.g. "json.set" or "del".
	Name string

	// Key is the affected key.
	Key string

	// DB is the logical database the key lives in.
	DB int

	// Time is when the event was published. Set by the notifier.
	Time time.Time
}

// Topic returns the topic the event is published on.
func (e Event) Topic() Topic {
	return TopicFor(e.Kind, e.Name)
}

// validate checks that the event carries the three required fields.
func (e Event) validate() error {
	if e.Kind == 0 || e.Kind&Channels != 0 || e.Name == "" || e.Key == "" {
		return ErrInvalidEvent
	}
	return nil
}
