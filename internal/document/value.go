package document

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Type is the dynamic type of a JSON value.
type Type int

// JSON value types.
const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeObject
	TypeArray
)

// String returns the type name as reported by the type command.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "boolean"
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	default:
		return "unknown"
	}
}

// Step is one concrete step of a Location.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Location is the concrete position of a value inside its document.
// The empty Location is the root.
type Location []Step

// String renders the location as a "$" path.
func (l Location) String() string {
	var sb strings.Builder
	sb.WriteByte('$')
	for _, st := range l {
		if st.IsIndex {
			sb.WriteByte('[')
			sb.WriteString(itoa(st.Index))
			sb.WriteByte(']')
			continue
		}
		sb.WriteString("['")
		sb.WriteString(strings.ReplaceAll(st.Key, "'", `\'`))
		sb.WriteString("']")
	}
	return sb.String()
}

// key encodes the location without the ambiguity of String's quoting.
func (l Location) key() string {
	var sb strings.Builder
	for _, st := range l {
		if st.IsIndex {
			sb.WriteByte('#')
			sb.WriteString(itoa(st.Index))
			sb.WriteByte(';')
			continue
		}
		sb.WriteByte('.')
		sb.WriteString(itoa(len(st.Key)))
		sb.WriteByte(':')
		sb.WriteString(st.Key)
	}
	return sb.String()
}

func (l Location) hasEmptyKey() bool {
	for _, st := range l {
		if !st.IsIndex && st.Key == "" {
			return true
		}
	}
	return false
}

func (l Location) child(st Step) Location {
	out := make(Location, len(l), len(l)+1)
	copy(out, l)
	return append(out, st)
}

// Value is a read-only view of one value inside a Document. It shares the
// document's text and does not copy it. A Value is only meaningful while the
// document has not been mutated since it was obtained (see Version).
type Value struct {
	res     gjson.Result
	loc     Location
	version uint64
}

// Exists reports whether the value refers to anything.
func (v Value) Exists() bool { return v.res.Exists() }

// Type returns the dynamic JSON type.
func (v Value) Type() Type {
	switch v.res.Type {
	case gjson.Null:
		return TypeNull
	case gjson.False, gjson.True:
		return TypeBool
	case gjson.Number:
		if strings.ContainsAny(v.res.Raw, ".eE") {
			return TypeFloat
		}
		return TypeInt
	case gjson.String:
		return TypeString
	case gjson.JSON:
		if v.res.IsArray() {
			return TypeArray
		}
		return TypeObject
	default:
		return TypeNull
	}
}

// Len returns the length of variable-length values: the byte length of a
// string, the element count of an array, the member count of an object.
// Scalars report 0.
func (v Value) Len() int {
	switch v.Type() {
	case TypeString:
		return len(v.res.Str)
	case TypeArray, TypeObject:
		n := 0
		v.res.ForEach(func(_, _ gjson.Result) bool {
			n++
			return true
		})
		return n
	default:
		return 0
	}
}

// Raw returns the JSON text of the value.
func (v Value) Raw() string { return v.res.Raw }

// Str returns the decoded string for string values and the JSON text
// otherwise.
func (v Value) Str() string { return v.res.String() }

// Int returns the value as an integer.
func (v Value) Int() int64 { return v.res.Int() }

// Float returns the value as a float.
func (v Value) Float() float64 { return v.res.Float() }

// Bool returns the value as a boolean.
func (v Value) Bool() bool { return v.res.Bool() }

// Keys returns the member names of an object in document order.
func (v Value) Keys() []string {
	if v.Type() != TypeObject {
		return nil
	}
	var keys []string
	v.res.ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.Str)
		return true
	})
	return keys
}

// Location returns the concrete position of the value.
func (v Value) Location() Location { return v.loc }

// Version returns the document version the value was read from.
func (v Value) Version() uint64 { return v.version }

// Get resolves path relative to this value and returns the first match.
func (v Value) Get(expr string) (Value, error) {
	p, err := ParsePath(expr)
	if err != nil {
		return Value{}, err
	}
	var out Value
	found := false
	walk(v, p.segments, func(m Value) bool {
		out, found = m, true
		return false
	})
	if !found {
		return Value{}, ErrNoMatch
	}
	return out, nil
}
