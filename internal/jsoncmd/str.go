package jsoncmd

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
)

// StrAppend appends the JSON string raw to every string match of expr and
// returns the new byte lengths (-1 for non-string matches).
func StrAppend(hc *host.Context, name, expr, raw string) ([]int, error) {
	suffix := gjson.Parse(raw)
	if suffix.Type != gjson.String || !gjson.Valid(raw) {
		return nil, ErrNotString
	}
	return mutate(hc, name, expr, EventStrAppend, func(d *document.Document, v document.Value) (outcome[int], error) {
		if v.Type() != document.TypeString {
			return outcome[int]{result: -1}, nil
		}
		s := v.Str() + suffix.Str
		if err := d.Set(v.Location(), string(gjson.AppendJSONString(nil, s))); err != nil {
			return outcome[int]{}, err
		}
		return outcome[int]{result: len(s), ok: true, changed: suffix.Str != ""}, nil
	})
}

// StrLen returns the byte length of every string match (-1 for others).
func StrLen(hc *host.Context, name, expr string) ([]int, error) {
	return read(hc, name, expr, func(v document.Value) outcome[int] {
		if v.Type() != document.TypeString {
			return outcome[int]{result: -1}
		}
		return outcome[int]{result: v.Len(), ok: true}
	})
}
