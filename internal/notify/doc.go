// Package notify implements the host's keyspace-notification channel.
//
// Every event carries exactly three pieces of information: a kind flag
// (which class of key it concerns), a short event name and the name of the
// affected key. Events are delivered synchronously, in the publisher's
// goroutine, to every subscription whose topic pattern and key pattern both
// match.
//
// # Topics
//
// An event is addressed by the topic "keyevent.<kind>.<event>", for example
// "keyevent.module.json.set". Subscription patterns use the usual
// wildcards:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// so "keyevent.module.**" receives every event emitted by a module type and
// "**" receives everything.
//
// # Masks
//
// Which kinds reach subscribers at all is controlled by a Mask, parsed from
// the host's classic flag string:
//
//	K  keyspace channel       E  keyevent channel
//	g  generic (del, rename)  $  string
//	l  list                   s  set
//	h  hash                   z  sorted set
//	x  expired                e  evicted
//	t  stream                 m  key miss
//	d  module types           n  new keys
//	A  alias for "g$lshzxetd"
//
// A mask without K or E disables delivery entirely. Filtering by mask is
// the only policy the channel applies: there is no buffering and no
// deduplication.
package notify
