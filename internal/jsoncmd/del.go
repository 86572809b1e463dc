package jsoncmd

import (
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/jsonapi"
	"github.com/dshills/docshare/internal/keyspace"
	"github.com/dshills/docshare/internal/notify"
)

// Del removes every match of expr from key name and returns how many values
// were removed. Deleting the root removes the key. A missing key or path
// removes nothing.
func Del(hc *host.Context, name, expr string) (int, error) {
	p, err := document.ParsePath(expr)
	if err != nil {
		return 0, err
	}
	t, err := open(hc, name, keyspace.ModeWrite)
	if err != nil {
		return 0, err
	}
	defer t.close()
	if t.doc == nil {
		return 0, nil
	}

	if p.IsRoot() {
		if _, err := t.key.Delete(); err != nil {
			return 0, err
		}
		return 1, jsonapi.Notify(hc, notify.KindModule, EventDel, name)
	}

	matches := t.doc.QueryPath(p)
	if p.IsLegacy() && len(matches) > 1 {
		matches = matches[:1]
	}
	n := 0
	for i := len(matches) - 1; i >= 0; i-- {
		if err := t.doc.Delete(matches[i].Location()); err != nil {
			return n, notifyIf(hc, n > 0, EventDel, name, err)
		}
		n++
	}
	return n, notifyIf(hc, n > 0, EventDel, name, nil)
}
