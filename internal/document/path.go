package document

import (
	"strconv"
	"strings"
)

// SegmentType identifies the kind of a path segment.
type SegmentType uint8

const (
	// SegmentKey selects an object member by name.
	SegmentKey SegmentType = iota
	// SegmentIndex selects an array element; negative counts from the end.
	SegmentIndex
	// SegmentWildcard selects every member or element.
	SegmentWildcard
)

// String returns the segment type name.
func (t SegmentType) String() string {
	switch t {
	case SegmentKey:
		return "key"
	case SegmentIndex:
		return "index"
	case SegmentWildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Segment is one step of a path.
type Segment struct {
	Type  SegmentType
	Key   string
	Index int

	// Descent makes the step apply to the current node and every node below
	// it ("..").
	Descent bool
}

// Path is a parsed path expression.
type Path struct {
	expr     string
	segments []Segment
	legacy   bool
}

// String returns the original expression.
func (p Path) String() string { return p.expr }

// Segments returns the parsed segments. The slice must not be modified.
func (p Path) Segments() []Segment { return p.segments }

// IsLegacy reports whether the expression used the dotted legacy syntax
// rather than a "$" root.
func (p Path) IsLegacy() bool { return p.legacy }

// IsRoot reports whether the path selects the document root.
func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// IsConcrete reports whether the path can match at most one location.
func (p Path) IsConcrete() bool {
	for _, s := range p.segments {
		if s.Descent || s.Type == SegmentWildcard {
			return false
		}
	}
	return true
}

// Parent splits off the last segment.
func (p Path) Parent() (Path, Segment, bool) {
	if len(p.segments) == 0 {
		return p, Segment{}, false
	}
	n := len(p.segments) - 1
	parent := Path{expr: p.expr, segments: p.segments[:n:n], legacy: p.legacy}
	return parent, p.segments[n], true
}

// ParsePath parses a path expression.
//
// Accepted forms:
//
//	$                  root
//	$.a.b  $['a']["b"] member access
//	$.x[1]  $.x[-1]    array index (negative counts from the end)
//	$.*  $[*]          every member or element
//	$..a  $..*         recursive descent
//	.  .a.b  a.b  a[0] legacy dotted syntax
//
// Filters, slices, unions and script expressions are not supported and are
// reported as malformed.
func ParsePath(expr string) (Path, error) {
	s := strings.TrimSpace(expr)
	p := Path{expr: expr}
	if s == "" {
		return p, &PathError{Path: expr, Reason: "empty expression"}
	}

	i := 0
	switch {
	case s[0] == '$':
		i = 1
	case s == ".":
		p.legacy = true
		return p, nil
	case s[0] == '.' || s[0] == '[':
		p.legacy = true
	default:
		p.legacy = true
		s = "." + s
	}

	for i < len(s) {
		descent := false
		switch s[i] {
		case '.':
			i++
			if i < len(s) && s[i] == '.' {
				descent = true
				i++
			}
			if i >= len(s) {
				return p, &PathError{Path: expr, Offset: i, Reason: "expected member name"}
			}
			if s[i] == '[' {
				if !descent {
					return p, &PathError{Path: expr, Offset: i, Reason: "unexpected '['"}
				}
				seg, next, err := parseBracket(expr, s, i)
				if err != nil {
					return p, err
				}
				seg.Descent = true
				p.segments = append(p.segments, seg)
				i = next
				continue
			}
			if s[i] == '*' {
				p.segments = append(p.segments, Segment{Type: SegmentWildcard, Descent: descent})
				i++
				continue
			}
			start := i
			for i < len(s) && s[i] != '.' && s[i] != '[' {
				if !isNameChar(s[i]) {
					return p, &PathError{Path: expr, Offset: i, Reason: "invalid character " + strconv.QuoteRune(rune(s[i]))}
				}
				i++
			}
			if i == start {
				return p, &PathError{Path: expr, Offset: i, Reason: "empty member name"}
			}
			p.segments = append(p.segments, Segment{Type: SegmentKey, Key: s[start:i], Descent: descent})
		case '[':
			seg, next, err := parseBracket(expr, s, i)
			if err != nil {
				return p, err
			}
			p.segments = append(p.segments, seg)
			i = next
		default:
			return p, &PathError{Path: expr, Offset: i, Reason: "expected '.' or '['"}
		}
	}
	return p, nil
}

// parseBracket parses "[...]" starting at s[i] == '['.
func parseBracket(expr, s string, i int) (Segment, int, error) {
	i++ // '['
	if i >= len(s) {
		return Segment{}, i, &PathError{Path: expr, Offset: i, Reason: "unterminated '['"}
	}
	switch c := s[i]; {
	case c == '*':
		i++
		if i >= len(s) || s[i] != ']' {
			return Segment{}, i, &PathError{Path: expr, Offset: i, Reason: "expected ']'"}
		}
		return Segment{Type: SegmentWildcard}, i + 1, nil
	case c == '\'' || c == '"':
		key, next, err := parseQuoted(expr, s, i)
		if err != nil {
			return Segment{}, next, err
		}
		if next >= len(s) || s[next] != ']' {
			return Segment{}, next, &PathError{Path: expr, Offset: next, Reason: "expected ']'"}
		}
		return Segment{Type: SegmentKey, Key: key}, next + 1, nil
	case c == '-' || (c >= '0' && c <= '9'):
		start := i
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i >= len(s) || s[i] != ']' {
			return Segment{}, i, &PathError{Path: expr, Offset: i, Reason: "expected ']' after index"}
		}
		n, err := strconv.Atoi(s[start:i])
		if err != nil {
			return Segment{}, start, &PathError{Path: expr, Offset: start, Reason: "invalid index"}
		}
		return Segment{Type: SegmentIndex, Index: n}, i + 1, nil
	default:
		return Segment{}, i, &PathError{Path: expr, Offset: i, Reason: "unsupported bracket expression"}
	}
}

// parseQuoted parses a quoted member name starting at the opening quote and
// returns the decoded name and the offset after the closing quote.
func parseQuoted(expr, s string, i int) (string, int, error) {
	quote := s[i]
	i++
	var sb strings.Builder
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 >= len(s) {
				return "", i, &PathError{Path: expr, Offset: i, Reason: "dangling escape"}
			}
			sb.WriteByte(s[i+1])
			i += 2
		case c == quote:
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return "", i, &PathError{Path: expr, Offset: i, Reason: "unterminated string"}
}

// isNameChar reports whether c may appear in an unquoted member name.
func isNameChar(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ']', '*', '?', '(', ')', '@', '\'', '"', ',', ':':
		return false
	}
	return true
}
