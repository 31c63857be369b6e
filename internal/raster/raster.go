// Package raster converts shape outlines into horizontal pixel spans.
//
// Spans are the currency of the baseline engine: a candidate shape is
// rasterized once, then the same spans drive color estimation, error
// evaluation and drawing. Coverage is binary; a pixel belongs to a shape
// when its center lies inside the outline.
package raster

import (
	"math"
	"slices"
)

// Span is the run of pixels [X1, X2) on row Y.
type Span struct {
	Y, X1, X2 int
}

// Len returns the number of pixels in the span.
func (s Span) Len() int { return s.X2 - s.X1 }

// Rasterizer fills polygons into spans for a fixed canvas size.
// A Rasterizer reuses its scratch buffers and is not safe for concurrent
// use; give each goroutine its own.
type Rasterizer struct {
	width, height int
	edges         []Edge
	xs            []float64
}

// NewRasterizer creates a rasterizer for a width×height canvas.
func NewRasterizer(width, height int) *Rasterizer {
	return &Rasterizer{
		width:  width,
		height: height,
		edges:  make([]Edge, 0, 16),
		xs:     make([]float64, 0, 16),
	}
}

// Polygon appends the spans of the closed polygon through points to dst,
// using the even-odd rule. Spans are clipped to the canvas.
func (r *Rasterizer) Polygon(dst []Span, points []Point) []Span {
	if len(points) < 3 {
		return dst
	}

	r.edges = r.edges[:0]
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for i := range points {
		p0, p1 := points[i], points[(i+1)%len(points)]
		if e, ok := NewEdge(p0, p1); ok {
			r.edges = append(r.edges, e)
			yMin = math.Min(yMin, e.y0)
			yMax = math.Max(yMax, e.y1)
		}
	}
	if len(r.edges) == 0 {
		return dst
	}

	// Rows whose pixel centers lie in [yMin, yMax).
	rowMin := max(int(math.Ceil(yMin-0.5)), 0)
	rowMax := min(int(math.Ceil(yMax-0.5)), r.height)

	for y := rowMin; y < rowMax; y++ {
		scanY := float64(y) + 0.5
		r.xs = r.xs[:0]
		for _, e := range r.edges {
			if e.Crosses(scanY) {
				r.xs = append(r.xs, e.XAt(scanY))
			}
		}
		slices.Sort(r.xs)
		for i := 0; i+1 < len(r.xs); i += 2 {
			dst = r.appendSpan(dst, y, pixelStart(r.xs[i]), pixelStart(r.xs[i+1]))
		}
	}
	return dst
}

// pixelStart returns the first pixel whose center is at or right of x.
func pixelStart(x float64) int {
	return int(math.Ceil(x - 0.5))
}

// Ellipse appends the spans of the axis-aligned ellipse centered at (cx, cy)
// with radii rx, ry.
func (r *Rasterizer) Ellipse(dst []Span, cx, cy, rx, ry float64) []Span {
	if rx <= 0 || ry <= 0 {
		return dst
	}
	rowMin := max(int(math.Ceil(cy-ry-0.5)), 0)
	rowMax := min(int(math.Ceil(cy+ry-0.5)), r.height)
	for y := rowMin; y < rowMax; y++ {
		dy := (float64(y) + 0.5 - cy) / ry
		if dy*dy >= 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		dst = r.appendSpan(dst, y, pixelStart(cx-half), pixelStart(cx+half))
	}
	return dst
}

// Rect appends the spans of the axis-aligned rectangle [x0, x1] × [y0, y1],
// inclusive of both corner pixels.
func (r *Rasterizer) Rect(dst []Span, x0, y0, x1, y1 int) []Span {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := max(y0, 0); y <= min(y1, r.height-1); y++ {
		dst = r.appendSpan(dst, y, x0, x1+1)
	}
	return dst
}

// Line appends the one pixel wide Bresenham line from (x0, y0) to (x1, y1),
// end points included. The output may contain overlapping spans when lines
// are combined; pass it through Normalize before use.
func (r *Rasterizer) Line(dst []Span, x0, y0, x1, y1 int) []Span {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		dst = r.appendSpan(dst, y0, x0, x0+1)
		if x0 == x1 && y0 == y1 {
			return dst
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline appends the lines joining consecutive points.
func (r *Rasterizer) Polyline(dst []Span, points []Point) []Span {
	for i := 0; i+1 < len(points); i++ {
		p0, p1 := points[i], points[i+1]
		dst = r.Line(dst, int(p0.X), int(p0.Y), int(p1.X), int(p1.Y))
	}
	return dst
}

// appendSpan clips [x1, x2) on row y to the canvas and appends it if not empty.
func (r *Rasterizer) appendSpan(dst []Span, y, x1, x2 int) []Span {
	if y < 0 || y >= r.height {
		return dst
	}
	x1 = max(x1, 0)
	x2 = min(x2, r.width)
	if x1 >= x2 {
		return dst
	}
	return append(dst, Span{Y: y, X1: x1, X2: x2})
}

// Normalize sorts spans by row and column and merges overlapping or adjacent
// spans on the same row, so that every pixel appears at most once.
// It reorders and rewrites spans in place and returns the shortened slice.
func Normalize(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b Span) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X1 - b.X1
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Y == last.Y && s.X1 <= last.X2 {
			last.X2 = max(last.X2, s.X2)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Area returns the total number of pixels covered by spans.
func Area(spans []Span) int {
	n := 0
	for _, s := range spans {
		n += s.Len()
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
