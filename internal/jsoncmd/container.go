package jsoncmd

import (
	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
)

// ArrAppend appends the JSON values raws to every array match of expr and
// returns the new lengths (-1 for non-array matches).
func ArrAppend(hc *host.Context, name, expr string, raws ...string) ([]int, error) {
	for _, raw := range raws {
		if _, err := document.Parse(raw); err != nil {
			return nil, err
		}
	}
	return mutate(hc, name, expr, EventArrAppend, func(d *document.Document, v document.Value) (outcome[int], error) {
		if v.Type() != document.TypeArray {
			return outcome[int]{result: -1}, nil
		}
		if len(raws) == 0 {
			return outcome[int]{result: v.Len(), ok: true}, nil
		}
		if err := d.Append(v.Location(), raws...); err != nil {
			return outcome[int]{}, err
		}
		return outcome[int]{result: v.Len() + len(raws), ok: true, changed: true}, nil
	})
}

// ArrLen returns the length of every array match (-1 for others).
func ArrLen(hc *host.Context, name, expr string) ([]int, error) {
	return lengthOf(hc, name, expr, document.TypeArray)
}

// ObjLen returns the member count of every object match (-1 for others).
func ObjLen(hc *host.Context, name, expr string) ([]int, error) {
	return lengthOf(hc, name, expr, document.TypeObject)
}

func lengthOf(hc *host.Context, name, expr string, want document.Type) ([]int, error) {
	return read(hc, name, expr, func(v document.Value) outcome[int] {
		if v.Type() != want {
			return outcome[int]{result: -1}
		}
		return outcome[int]{result: v.Len(), ok: true}
	})
}

// ObjKeys returns the member names of every object match (nil for others).
func ObjKeys(hc *host.Context, name, expr string) ([][]string, error) {
	return read(hc, name, expr, func(v document.Value) outcome[[]string] {
		if v.Type() != document.TypeObject {
			return outcome[[]string]{}
		}
		keys := v.Keys()
		if keys == nil {
			keys = []string{}
		}
		return outcome[[]string]{result: keys, ok: true}
	})
}

// Toggle flips every boolean match of expr and returns the new values as
// 1 or 0 (-1 for non-boolean matches).
func Toggle(hc *host.Context, name, expr string) ([]int, error) {
	return mutate(hc, name, expr, EventToggle, func(d *document.Document, v document.Value) (outcome[int], error) {
		if v.Type() != document.TypeBool {
			return outcome[int]{result: -1}, nil
		}
		next, raw := 1, "true"
		if v.Bool() {
			next, raw = 0, "false"
		}
		if err := d.Set(v.Location(), raw); err != nil {
			return outcome[int]{}, err
		}
		return outcome[int]{result: next, ok: true, changed: true}, nil
	})
}
