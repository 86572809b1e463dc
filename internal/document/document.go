// Package document is the JSON document type stored in keyspace keys.
//
// A Document keeps its content as compact JSON text and answers queries with
// Values that point into that text without copying it. Reads are served by
// gjson, writes by sjson; this package only adds the path syntax and the
// traversal rules on top.
//
// Traversal order is document order: object members in the order they
// appear in the text, array elements by index, and for recursive descent a
// node before its children (pre-order). "First match" always means the
// first value produced in that order.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Document is a mutable JSON document. It is not safe for concurrent use;
// the keyspace key lock serializes access.
type Document struct {
	raw     string
	version uint64
}

// Parse validates text and returns a document holding its compact form.
func Parse(text string) (*Document, error) {
	if !gjson.Valid(text) {
		return nil, ErrInvalidJSON
	}
	return &Document{raw: compact(text)}, nil
}

// MustParse is like Parse but panics on invalid input. Intended for tests
// and fixtures.
func MustParse(text string) *Document {
	d, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return d
}

func compact(text string) string {
	return string(pretty.Ugly([]byte(text)))
}

// Raw returns the compact JSON text.
func (d *Document) Raw() string { return d.raw }

// Version increases with every mutation.
func (d *Document) Version() uint64 { return d.version }

// Root returns the root value.
func (d *Document) Root() Value {
	return Value{res: gjson.Parse(d.raw), version: d.version}
}

// Query returns every value matching expr, in traversal order.
func (d *Document) Query(expr string) ([]Value, error) {
	p, err := ParsePath(expr)
	if err != nil {
		return nil, err
	}
	return d.QueryPath(p), nil
}

// QueryPath is Query for an already parsed path. Each location is reported
// once, at its first match; chained descents reach some values more than once.
func (d *Document) QueryPath(p Path) []Value {
	var out []Value
	seen := make(map[string]struct{})
	walk(d.Root(), p.segments, func(v Value) bool {
		k := v.loc.key()
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		out = append(out, v)
		return true
	})
	return out
}

// First returns the first value matching expr.
func (d *Document) First(expr string) (Value, error) {
	return d.Root().Get(expr)
}

// walk evaluates segs against v depth-first, calling yield for each match
// until it returns false. It reports whether the walk should continue.
func walk(v Value, segs []Segment, yield func(Value) bool) bool {
	if len(segs) == 0 {
		return yield(v)
	}
	seg, rest := segs[0], segs[1:]
	if seg.Descent {
		return descend(v, seg, rest, yield)
	}
	return step(v, seg, rest, yield)
}

// step applies a single non-descent segment to v.
func step(v Value, seg Segment, rest []Segment, yield func(Value) bool) bool {
	switch seg.Type {
	case SegmentKey:
		if !v.res.IsObject() {
			return true
		}
		var child Value
		found := false
		v.res.ForEach(func(k, val gjson.Result) bool {
			if k.Str == seg.Key {
				child = Value{res: val, loc: v.loc.child(Step{Key: k.Str}), version: v.version}
				found = true
				return false
			}
			return true
		})
		if !found {
			return true
		}
		return walk(child, rest, yield)
	case SegmentIndex:
		if !v.res.IsArray() {
			return true
		}
		elems := v.res.Array()
		idx := seg.Index
		if idx < 0 {
			idx += len(elems)
		}
		if idx < 0 || idx >= len(elems) {
			return true
		}
		child := Value{res: elems[idx], loc: v.loc.child(Step{Index: idx, IsIndex: true}), version: v.version}
		return walk(child, rest, yield)
	case SegmentWildcard:
		cont := true
		eachChild(v, func(child Value) bool {
			cont = walk(child, rest, yield)
			return cont
		})
		return cont
	}
	return true
}

// descend applies seg at v and at every node below v, in pre-order.
func descend(v Value, seg Segment, rest []Segment, yield func(Value) bool) bool {
	here := seg
	here.Descent = false
	if !step(v, here, rest, yield) {
		return false
	}
	cont := true
	eachChild(v, func(child Value) bool {
		cont = descend(child, seg, rest, yield)
		return cont
	})
	return cont
}

// eachChild calls fn for every member or element of v in document order.
func eachChild(v Value, fn func(Value) bool) {
	if !v.res.IsObject() && !v.res.IsArray() {
		return
	}
	isArray := v.res.IsArray()
	i := 0
	v.res.ForEach(func(k, val gjson.Result) bool {
		st := Step{Key: k.Str}
		if isArray {
			st = Step{Index: i, IsIndex: true}
		}
		i++
		return fn(Value{res: val, loc: v.loc.child(st), version: v.version})
	})
}

// Set replaces the value at loc with the JSON text raw. An empty location
// replaces the whole document.
func (d *Document) Set(loc Location, raw string) error {
	if !gjson.Valid(raw) {
		return ErrInvalidJSON
	}
	raw = compact(raw)
	if len(loc) == 0 {
		d.raw = raw
		d.version++
		return nil
	}
	var out string
	var err error
	if loc.hasEmptyKey() {
		out, err = rewrite(d.raw, loc, func(gjson.Result) (string, bool) { return raw, true })
	} else {
		out, err = sjson.SetRaw(d.raw, sjsonPath(loc), raw)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", loc, err)
	}
	d.raw = out
	d.version++
	return nil
}

// Append appends raw values to the array at loc.
func (d *Document) Append(loc Location, raws ...string) error {
	for _, raw := range raws {
		if !gjson.Valid(raw) {
			return ErrInvalidJSON
		}
	}
	if loc.hasEmptyKey() {
		out, err := rewrite(d.raw, loc, func(old gjson.Result) (string, bool) {
			return appendRaw(old, raws), true
		})
		if err != nil {
			return fmt.Errorf("append %s: %w", loc, err)
		}
		d.raw = out
		d.version++
		return nil
	}
	out := d.raw
	for _, raw := range raws {
		var err error
		p := "-1"
		if len(loc) > 0 {
			p = sjsonPath(loc) + ".-1"
		}
		out, err = sjson.SetRaw(out, p, compact(raw))
		if err != nil {
			return fmt.Errorf("append %s: %w", loc, err)
		}
	}
	d.raw = out
	d.version++
	return nil
}

// Delete removes the value at loc. The root cannot be deleted; remove the
// key instead.
func (d *Document) Delete(loc Location) error {
	if len(loc) == 0 {
		return fmt.Errorf("delete root: %w", ErrNotConcrete)
	}
	var out string
	var err error
	if loc.hasEmptyKey() {
		out, err = rewrite(d.raw, loc, func(gjson.Result) (string, bool) { return "", false })
	} else {
		out, err = sjson.Delete(d.raw, sjsonPath(loc))
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", loc, err)
	}
	d.raw = out
	d.version++
	return nil
}

// sjsonPath converts a location into sjson path syntax. Numeric object keys
// are forced with ':' so they are not taken as array indexes.
func sjsonPath(loc Location) string {
	var sb strings.Builder
	for i, st := range loc {
		if i > 0 {
			sb.WriteByte('.')
		}
		if st.IsIndex {
			sb.WriteString(itoa(st.Index))
			continue
		}
		if isDigits(st.Key) {
			sb.WriteByte(':')
		}
		for j := 0; j < len(st.Key); j++ {
			c := st.Key[j]
			if !isPlain(c) {
				sb.WriteByte('\\')
			}
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// rewrite rebuilds raw along loc and replaces the value there with the result
// of fn. fn returning false removes the value. sjson paths cannot name the
// empty key, so locations holding one are edited this way. A missing object
// member is added when it is the last step.
func rewrite(raw string, loc Location, fn func(old gjson.Result) (string, bool)) (string, error) {
	res := gjson.Parse(raw)
	st, rest := loc[0], loc[1:]

	var sb strings.Builder
	n := 0
	found := false
	var ferr error
	emit := func(member, val string) {
		if n > 0 {
			sb.WriteByte(',')
		}
		n++
		sb.WriteString(member)
		sb.WriteString(val)
	}
	edit := func(old gjson.Result) (string, bool) {
		found = true
		if len(rest) == 0 {
			return fn(old)
		}
		out, err := rewrite(old.Raw, rest, fn)
		if err != nil {
			ferr = err
		}
		return out, true
	}

	switch {
	case st.IsIndex && res.IsArray():
		sb.WriteByte('[')
		i := 0
		res.ForEach(func(_, val gjson.Result) bool {
			raw := val.Raw
			keep := true
			if i == st.Index {
				raw, keep = edit(val)
			}
			if keep {
				emit("", raw)
			}
			i++
			return ferr == nil
		})
		sb.WriteByte(']')
	case !st.IsIndex && res.IsObject():
		sb.WriteByte('{')
		res.ForEach(func(key, val gjson.Result) bool {
			raw := val.Raw
			keep := true
			if key.Str == st.Key {
				raw, keep = edit(val)
			}
			if keep {
				emit(key.Raw+":", raw)
			}
			return ferr == nil
		})
		if !found && len(rest) == 0 {
			if v, keep := fn(gjson.Result{}); keep {
				found = true
				emit(string(gjson.AppendJSONString(nil, st.Key))+":", v)
			}
		}
		sb.WriteByte('}')
	}
	if ferr != nil {
		return "", ferr
	}
	if !found {
		return "", ErrNoMatch
	}
	return sb.String(), nil
}

// appendRaw appends raws to the array old.
func appendRaw(old gjson.Result, raws []string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	n := 0
	old.ForEach(func(_, val gjson.Result) bool {
		if n > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(val.Raw)
		n++
		return true
	})
	for _, raw := range raws {
		if n > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(compact(raw))
		n++
	}
	sb.WriteByte(']')
	return sb.String()
}

func isPlain(c byte) bool {
	return c == '_' || c == '-' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func itoa(n int) string { return strconv.Itoa(n) }

// Format controls JSON output layout.
type Format struct {
	Indent   string
	Prefix   string
	SortKeys bool
}

// IsZero reports whether f requests compact output.
func (f Format) IsZero() bool {
	return f.Indent == "" && f.Prefix == "" && !f.SortKeys
}

// Render formats JSON text according to f.
func (f Format) Render(raw string) string {
	if f.IsZero() {
		return raw
	}
	if f.Indent == "" && f.Prefix == "" {
		opts := &pretty.Options{SortKeys: true}
		return string(pretty.Ugly(pretty.PrettyOptions([]byte(raw), opts)))
	}
	opts := &pretty.Options{Width: 80, Prefix: f.Prefix, Indent: f.Indent, SortKeys: f.SortKeys}
	return strings.TrimRight(string(pretty.PrettyOptions([]byte(raw), opts)), "\n")
}
