package jsoncmd

import (
	"fmt"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// Condition restricts when Set writes.
type Condition int

const (
	// Always writes unconditionally.
	Always Condition = iota
	// IfNotExists writes only when the path has no match (NX).
	IfNotExists
	// IfExists writes only when the path already matches (XX).
	IfExists
)

// Set stores the JSON text raw at expr in key name. A missing key can only
// be created at the root. When expr matches nothing and its last step is a
// member name, the member is added to every object its parent matches.
// Set reports whether anything was written.
func Set(hc *host.Context, name, expr, raw string, cond Condition) (bool, error) {
	value, err := document.Parse(raw)
	if err != nil {
		return false, err
	}
	p, err := document.ParsePath(expr)
	if err != nil {
		return false, err
	}

	t, err := open(hc, name, keyspace.ModeWrite)
	if err != nil {
		return false, err
	}
	defer t.close()

	if t.doc == nil {
		if !p.IsRoot() {
			return false, ErrNewRoot
		}
		if cond == IfExists {
			return false, nil
		}
		if err := t.key.SetValue(t.typ, value); err != nil {
			return false, err
		}
		return true, jsonapi.Notify(hc, notify.KindModule, EventSet, name)
	}

	var locs []document.Location
	matches := t.doc.QueryPath(p)
	switch {
	case len(matches) > 0:
		if cond == IfNotExists {
			return false, nil
		}
		for _, m := range matches {
			locs = append(locs, m.Location())
		}
	case cond == IfExists:
		return false, nil
	default:
		locs = newMemberLocations(t.doc, p)
	}
	if len(locs) == 0 {
		return false, nil
	}
	if p.IsLegacy() {
		locs = locs[:1]
	}

	for i := len(locs) - 1; i >= 0; i-- {
		if err := t.doc.Set(locs[i], value.Raw()); err != nil {
			return false, fmt.Errorf("set %s: %w", name, err)
		}
	}
	return true, jsonapi.Notify(hc, notify.KindModule, EventSet, name)
}

// newMemberLocations returns where a missing member named by p's last step
// would go: one location per object matched by p's parent.
func newMemberLocations(doc *document.Document, p document.Path) []document.Location {
	parent, last, ok := p.Parent()
	if !ok || last.Type != document.SegmentKey || last.Descent {
		return nil
	}
	var locs []document.Location
	for _, v := range doc.QueryPath(parent) {
		if v.Type() != document.TypeObject {
			continue
		}
		loc := append(document.Location{}, v.Location()...)
		locs = append(locs, append(loc, document.Step{Key: last.Key}))
	}
	return locs
}
