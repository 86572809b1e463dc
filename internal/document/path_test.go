package document

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr   string
		want   []Segment
		legacy bool
	}{
		{"$", nil, false},
		{".", nil, true},
		{"$.a", []Segment{{Type: SegmentKey, Key: "a"}}, false},
		{"$.x[1]", []Segment{{Type: SegmentKey, Key: "x"}, {Type: SegmentIndex, Index: 1}}, false},
		{"$['a b'][\"c\"]", []Segment{{Type: SegmentKey, Key: "a b"}, {Type: SegmentKey, Key: "c"}}, false},
		{"$.x[-1]", []Segment{{Type: SegmentKey, Key: "x"}, {Type: SegmentIndex, Index: -1}}, false},
		{"$.*", []Segment{{Type: SegmentWildcard}}, false},
		{"$[*].id", []Segment{{Type: SegmentWildcard}, {Type: SegmentKey, Key: "id"}}, false},
		{"$..name", []Segment{{Type: SegmentKey, Key: "name", Descent: true}}, false},
		{"$..*", []Segment{{Type: SegmentWildcard, Descent: true}}, false},
		{"$..[0]", []Segment{{Type: SegmentIndex, Index: 0, Descent: true}}, false},
		{".a.b", []Segment{{Type: SegmentKey, Key: "a"}, {Type: SegmentKey, Key: "b"}}, true},
		{"a[0].b", []Segment{{Type: SegmentKey, Key: "a"}, {Type: SegmentIndex, Index: 0}, {Type: SegmentKey, Key: "b"}}, true},
		{"$['it\\'s']", []Segment{{Type: SegmentKey, Key: "it's"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParsePath(tt.expr)
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.expr, err)
			}
			if p.IsLegacy() != tt.legacy {
				t.Errorf("IsLegacy() = %v, want %v", p.IsLegacy(), tt.legacy)
			}
			got := p.Segments()
			if len(got) != len(tt.want) {
				t.Fatalf("Segments() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Segments()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePathMalformed(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"$x",
		"$.",
		"$..",
		"$.a[",
		"$.a[1",
		"$.a[-]",
		"$.a['b]",
		"$.a[?(@.b)]",
		"$.a[1:2]",
		"$.a b",
		"$.a.[0]",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := ParsePath(expr)
			if !errors.Is(err, ErrMalformedPath) {
				t.Errorf("ParsePath(%q) error = %v, want ErrMalformedPath", expr, err)
			}
			var pe *PathError
			if !errors.As(err, &pe) {
				t.Errorf("error %T is not *PathError", err)
			}
		})
	}
}

func TestPathConcreteAndParent(t *testing.T) {
	p, _ := ParsePath("$.a.b[2]")
	if !p.IsConcrete() {
		t.Error("IsConcrete() = false for $.a.b[2]")
	}
	parent, last, ok := p.Parent()
	if !ok || last.Type != SegmentIndex || last.Index != 2 || len(parent.Segments()) != 2 {
		t.Errorf("Parent() = %+v, %+v, %v", parent.Segments(), last, ok)
	}

	root, _ := ParsePath("$")
	if !root.IsRoot() {
		t.Error("IsRoot() = false for $")
	}
	if _, _, ok := root.Parent(); ok {
		t.Error("root has a parent")
	}

	wild, _ := ParsePath("$..a")
	if wild.IsConcrete() {
		t.Error("IsConcrete() = true for $..a")
	}
}
