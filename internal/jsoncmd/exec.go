package jsoncmd

import (
	"errors"
	"fmt"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// Event names published by the mutating commands.
const (
	EventSet       = "json.set"
	EventDel       = "json.del"
	EventNumIncrBy = "json.numincrby"
	EventStrAppend = "json.strappend"
	EventArrAppend = "json.arrappend"
	EventToggle    = "json.toggle"
)

// target is an open document key.
type target struct {
	key *keyspace.Key
	typ *keyspace.ValueType
	doc *document.Document
}

// open opens name through the frame. An empty key yields a target with a
// nil document; a key of another type fails.
func open(hc *host.Context, name string, mode keyspace.Mode) (*target, error) {
	typ, err := jsonapi.RegisterType(hc.Server().Store())
	if err != nil {
		return nil, err
	}
	k, err := hc.OpenKey(name, mode)
	if err != nil {
		return nil, err
	}
	t := &target{key: k, typ: typ}
	if k.IsEmpty() {
		return t, nil
	}
	v, err := k.Value(typ)
	if err != nil {
		_ = k.Close()
		return nil, err
	}
	t.doc = v.(*document.Document)
	return t, nil
}

func (t *target) close() { _ = t.key.Close() }

// resolve parses expr and returns its matches. A legacy path yields at most
// the first match and fails with ErrNoMatch when there is none.
func resolve(doc *document.Document, expr string) (document.Path, []document.Value, error) {
	p, err := document.ParsePath(expr)
	if err != nil {
		return p, nil, err
	}
	matches := doc.QueryPath(p)
	if p.IsLegacy() {
		if len(matches) == 0 {
			return p, nil, fmt.Errorf("%s: %w", expr, document.ErrNoMatch)
		}
		matches = matches[:1]
	}
	return p, matches, nil
}

// outcome is what a per-match function reports.
type outcome[R any] struct {
	result  R
	ok      bool // value had the right type
	changed bool
}

// read runs fn on every match of expr in a read-only key.
func read[R any](hc *host.Context, name, expr string, fn func(v document.Value) outcome[R]) ([]R, error) {
	t, err := open(hc, name, keyspace.ModeRead)
	if err != nil {
		return nil, err
	}
	defer t.close()
	if t.doc == nil {
		return nil, ErrNoKey
	}
	p, matches, err := resolve(t.doc, expr)
	if err != nil {
		return nil, err
	}
	out := make([]R, len(matches))
	for i, m := range matches {
		o := fn(m)
		if !o.ok && p.IsLegacy() {
			return nil, fmt.Errorf("%s is %s: %w", expr, m.Type(), ErrWrongType)
		}
		out[i] = o.result
	}
	return out, nil
}

// mutate runs fn on every match of expr, children before parents, and
// publishes event once if any call changed the document.
func mutate[R any](hc *host.Context, name, expr, event string, fn func(d *document.Document, v document.Value) (outcome[R], error)) ([]R, error) {
	t, err := open(hc, name, keyspace.ModeWrite)
	if err != nil {
		return nil, err
	}
	defer t.close()
	if t.doc == nil {
		return nil, ErrNoKey
	}
	p, matches, err := resolve(t.doc, expr)
	if err != nil {
		return nil, err
	}

	out := make([]R, len(matches))
	changed := false
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		o, err := fn(t.doc, m)
		if err != nil {
			return nil, notifyIf(hc, changed, event, name, err)
		}
		if !o.ok && p.IsLegacy() {
			return nil, notifyIf(hc, changed, event, name, fmt.Errorf("%s is %s: %w", expr, m.Type(), ErrWrongType))
		}
		out[i] = o.result
		changed = changed || o.changed
	}
	return out, notifyIf(hc, changed, event, name, nil)
}

// notifyIf publishes event when changed and joins any publish failure to
// err. A partial mutation still announces itself.
func notifyIf(hc *host.Context, changed bool, event, key string, err error) error {
	if !changed {
		return err
	}
	if nerr := jsonapi.Notify(hc, notify.KindModule, event, key); nerr != nil {
		return errors.Join(err, nerr)
	}
	return err
}
