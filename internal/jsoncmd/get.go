package jsoncmd

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
	"github.com/dshills/docshare/internal/keyspace"
)

// Get returns the JSON text selected by paths in key name, laid out by f.
//
// With no paths the whole document is returned. One legacy path returns the
// first match; one "$" path returns an array of all matches. Several paths
// return an object keyed by path, whose values are arrays when any path
// starts with "$" and single values otherwise.
func Get(hc *host.Context, name string, f document.Format, paths ...string) (string, error) {
	t, err := open(hc, name, keyspace.ModeRead)
	if err != nil {
		return "", err
	}
	defer t.close()
	if t.doc == nil {
		return "", ErrNoKey
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	parsed := make([]document.Path, len(paths))
	legacy := true
	for i, expr := range paths {
		p, err := document.ParsePath(expr)
		if err != nil {
			return "", err
		}
		parsed[i] = p
		legacy = legacy && p.IsLegacy()
	}

	render := func(p document.Path) (string, error) {
		matches := t.doc.QueryPath(p)
		if legacy {
			if len(matches) == 0 {
				return "", fmt.Errorf("%s: %w", p, document.ErrNoMatch)
			}
			return matches[0].Raw(), nil
		}
		return jsonArray(matches), nil
	}

	if len(parsed) == 1 {
		out, err := render(parsed[0])
		if err != nil {
			return "", err
		}
		return f.Render(out), nil
	}

	buf := []byte{'{'}
	for i, p := range parsed {
		out, err := render(p)
		if err != nil {
			return "", err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = gjson.AppendJSONString(buf, p.String())
		buf = append(buf, ':')
		buf = append(buf, out...)
	}
	buf = append(buf, '}')
	return f.Render(string(buf)), nil
}

// Type returns the type name of each match of expr in key name.
func Type(hc *host.Context, name, expr string) ([]string, error) {
	return read(hc, name, expr, func(v document.Value) outcome[string] {
		return outcome[string]{result: v.Type().String(), ok: true}
	})
}

func jsonArray(vals []document.Value) string {
	buf := []byte{'['}
	for i, v := range vals {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, v.Raw()...)
	}
	return string(append(buf, ']'))
}
