package notify

import (
	"fmt"
	"strings"
)

// Kind is a set of keyspace event class flags.
// An event normally carries exactly one class; masks combine several.
type Kind uint32

// Event classes. The bit values are local to this package; masks are
// exchanged as flag strings (see ParseMask), never as numbers.
const (
	KindKeyspace Kind = 1 << iota // K
	KindKeyevent                  // E
	KindGeneric                   // g
	KindString                    // $
	KindList                      // l
	KindSet                       // s
	KindHash                      // h
	KindZSet                      // z
	KindExpired                   // x
	KindEvicted                   // e
	KindStream                    // t
	KindKeyMiss                   // m
	KindModule                    // d
	KindNew                       // n
)

// KindAll is the set selected by the "A" flag.
const KindAll = KindGeneric | KindString | KindList | KindSet | KindHash |
	KindZSet | KindExpired | KindEvicted | KindStream | KindModule

// Channels is the set of delivery channel flags.
const Channels = KindKeyspace | KindKeyevent

var kindFlags = []struct {
	kind Kind
	flag byte
	name string
}{
	{KindKeyspace, 'K', "keyspace"},
	{KindKeyevent, 'E', "keyevent"},
	{KindGeneric, 'g', "generic"},
	{KindString, '$', "string"},
	{KindList, 'l', "list"},
	{KindSet, 's', "set"},
	{KindHash, 'h', "hash"},
	{KindZSet, 'z', "zset"},
	{KindExpired, 'x', "expired"},
	{KindEvicted, 'e', "evicted"},
	{KindStream, 't', "stream"},
	{KindKeyMiss, 'm', "keymiss"},
	{KindModule, 'd', "module"},
	{KindNew, 'n', "new"},
}

// String returns the name of a single-class kind, or the flag string for a
// combination.
func (k Kind) String() string {
	for _, f := range kindFlags {
		if f.kind == k {
			return f.name
		}
	}
	if k == 0 {
		return ""
	}
	return Mask(k).String()
}

// KindByName returns the single-class kind with the given name.
func KindByName(name string) (Kind, bool) {
	for _, f := range kindFlags {
		if f.name == name {
			return f.kind, true
		}
	}
	return 0, false
}

// Has reports whether all bits of other are set in k.
func (k Kind) Has(other Kind) bool {
	return k&other == other
}

// Mask selects which event kinds are delivered.
type Mask Kind

// ParseMask parses a flag string such as "KEA" or "Kd".
// The empty string yields the zero mask (notifications off).
func ParseMask(s string) (Mask, error) {
	var m Kind
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == 'A' {
			m |= KindAll
			continue
		}
		found := false
		for _, f := range kindFlags {
			if f.flag == c {
				m |= f.kind
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFlag, c)
		}
	}
	return Mask(m), nil
}

// MustParseMask is like ParseMask but panics on error.
// Intended for package-level defaults and tests.
func MustParseMask(s string) Mask {
	m, err := ParseMask(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical flag string for the mask, using "A" when
// every class it covers is set.
func (m Mask) String() string {
	var sb strings.Builder
	k := Kind(m)
	for _, f := range kindFlags[:2] {
		if k.Has(f.kind) {
			sb.WriteByte(f.flag)
		}
	}
	rest := kindFlags[2:]
	if k.Has(KindAll) {
		sb.WriteByte('A')
		k &^= KindAll
	}
	for _, f := range rest {
		if k.Has(f.kind) {
			sb.WriteByte(f.flag)
		}
	}
	return sb.String()
}

// Enabled reports whether an event of the given kind is delivered under m.
// At least one channel flag must be present.
func (m Mask) Enabled(kind Kind) bool {
	k := Kind(m)
	if k&Channels == 0 {
		return false
	}
	return k&kind&^Channels != 0
}
