package geofuzz

import (
	"fmt"
	"math/bits"
	"strings"
)

// ShapeKind identifies a primitive the engine can place.
type ShapeKind uint8

const (
	// ShapeRectangle is an axis-aligned rectangle.
	ShapeRectangle ShapeKind = iota + 1

	// ShapeRotatedRectangle is a rectangle rotated about its center.
	ShapeRotatedRectangle

	// ShapeTriangle is an arbitrary triangle.
	ShapeTriangle

	// ShapeEllipse is an axis-aligned ellipse.
	ShapeEllipse

	// ShapeRotatedEllipse is an ellipse rotated about its center.
	ShapeRotatedEllipse

	// ShapeCircle is a circle.
	ShapeCircle

	// ShapeLine is a one pixel wide line segment.
	ShapeLine

	// ShapeQuadraticBezier is a one pixel wide quadratic Bezier curve.
	ShapeQuadraticBezier

	// ShapePolyline is a one pixel wide open polyline.
	ShapePolyline

	shapeKindEnd
)

// shapeTags is the single kind ↔ tag table. Tags appear in output file names.
var shapeTags = [...]string{
	ShapeRectangle:        "rectangle",
	ShapeRotatedRectangle: "rotated_rectangle",
	ShapeTriangle:         "triangle",
	ShapeEllipse:          "ellipse",
	ShapeRotatedEllipse:   "rotated_ellipse",
	ShapeCircle:           "circle",
	ShapeLine:             "line",
	ShapeQuadraticBezier:  "quadratic_bezier",
	ShapePolyline:         "polyline",
}

// ShapeKinds returns every supported kind in declaration order.
func ShapeKinds() []ShapeKind {
	kinds := make([]ShapeKind, 0, int(shapeKindEnd)-1)
	for k := ShapeRectangle; k < shapeKindEnd; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k is one of the declared kinds.
func (k ShapeKind) Valid() bool {
	return k >= ShapeRectangle && k < shapeKindEnd
}

// String returns the tag of the kind, e.g. "rotated_ellipse".
func (k ShapeKind) String() string {
	if k.Valid() {
		return shapeTags[k]
	}
	return fmt.Sprintf("ShapeKind(%d)", uint8(k))
}

// ParseShapeKind returns the kind with the given tag. Matching ignores case
// and accepts '-' in place of '_'.
func ParseShapeKind(tag string) (ShapeKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), "-", "_")
	for k := ShapeRectangle; k < shapeKindEnd; k++ {
		if shapeTags[k] == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("geofuzz: unknown shape kind %q", tag)
}

// ShapeSet is the set of kinds an engine may choose from during a step.
//
// The zero value is the empty set. AnyShape returns the distinct
// "engine decides" variant, which is not an empty set: it places no
// restriction on the engine.
type ShapeSet struct {
	mask    uint16
	anyKind bool
}

// NewShapeSet returns the set containing the given kinds. Invalid kinds are
// ignored.
func NewShapeSet(kinds ...ShapeKind) ShapeSet {
	var s ShapeSet
	for _, k := range kinds {
		if k.Valid() {
			s.mask |= 1 << k
		}
	}
	return s
}

// AnyShape returns the "engine decides" sentinel.
func AnyShape() ShapeSet {
	return ShapeSet{anyKind: true}
}

// IsAny reports whether s is the "engine decides" sentinel.
func (s ShapeSet) IsAny() bool { return s.anyKind }

// IsEmpty reports whether s is neither the sentinel nor contains any kind.
func (s ShapeSet) IsEmpty() bool { return !s.anyKind && s.mask == 0 }

// Len returns the number of kinds in s. The sentinel has length 0.
func (s ShapeSet) Len() int { return bits.OnesCount16(s.mask) }

// Contains reports whether the engine may place kind k under s.
// The sentinel permits every valid kind.
func (s ShapeSet) Contains(k ShapeKind) bool {
	if !k.Valid() {
		return false
	}
	return s.anyKind || s.mask&(1<<k) != 0
}

// Kinds returns the member kinds in declaration order. For the sentinel it
// returns every supported kind.
func (s ShapeSet) Kinds() []ShapeKind {
	if s.anyKind {
		return ShapeKinds()
	}
	kinds := make([]ShapeKind, 0, s.Len())
	for k := ShapeRectangle; k < shapeKindEnd; k++ {
		if s.mask&(1<<k) != 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Tag returns the output-name suffix for s: one "_<tag>" token per member in
// declaration order, or "" for the sentinel.
func (s ShapeSet) Tag() string {
	if s.anyKind {
		return ""
	}
	var b strings.Builder
	for _, k := range s.Kinds() {
		b.WriteByte('_')
		b.WriteString(k.String())
	}
	return b.String()
}

// String returns a readable form, e.g. "any" or "circle|line".
func (s ShapeSet) String() string {
	if s.anyKind {
		return "any"
	}
	if s.mask == 0 {
		return "none"
	}
	tags := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		tags = append(tags, k.String())
	}
	return strings.Join(tags, "|")
}

// ParseShapeSet parses a comma or '|' separated list of tags. "any" and the
// empty string yield the sentinel.
func ParseShapeSet(list string) (ShapeSet, error) {
	list = strings.TrimSpace(list)
	if list == "" || strings.EqualFold(list, "any") {
		return AnyShape(), nil
	}
	var s ShapeSet
	for _, field := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == '|' }) {
		k, err := ParseShapeKind(field)
		if err != nil {
			return ShapeSet{}, err
		}
		s.mask |= 1 << k
	}
	return s, nil
}
