package jsoncmd

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/docshare/internal/document"
	"github.com/dshills/docshare/internal/host"
)

// NumIncrBy adds the JSON number by to every numeric match of expr and
// returns the new values as JSON text ("null" for non-numeric matches).
// Integer plus integer stays an integer; anything else becomes a float.
func NumIncrBy(hc *host.Context, name, expr, by string) ([]string, error) {
	inc := gjson.Parse(by)
	if inc.Type != gjson.Number || !gjson.Valid(by) {
		return nil, ErrNotNumber
	}
	return mutate(hc, name, expr, EventNumIncrBy, func(d *document.Document, v document.Value) (outcome[string], error) {
		if t := v.Type(); t != document.TypeInt && t != document.TypeFloat {
			return outcome[string]{result: "null"}, nil
		}
		next, err := addNumbers(v.Raw(), inc.Raw)
		if err != nil {
			return outcome[string]{}, err
		}
		if err := d.Set(v.Location(), next); err != nil {
			return outcome[string]{}, err
		}
		return outcome[string]{result: next, ok: true, changed: true}, nil
	})
}

func isIntText(s string) bool {
	return !strings.ContainsAny(s, ".eE")
}

func addNumbers(a, b string) (string, error) {
	if isIntText(a) && isIntText(b) {
		x, errA := strconv.ParseInt(a, 10, 64)
		y, errB := strconv.ParseInt(b, 10, 64)
		if errA == nil && errB == nil {
			sum := x + y
			if (y > 0 && sum < x) || (y < 0 && sum > x) {
				return "", ErrOverflow
			}
			return strconv.FormatInt(sum, 10), nil
		}
	}
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return "", ErrNotNumber
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return "", ErrNotNumber
	}
	sum := x + y
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return "", ErrOverflow
	}
	return formatFloat(sum), nil
}

// formatFloat renders f so that it still reads back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if isIntText(s) {
		s += ".0"
	}
	return s
}
