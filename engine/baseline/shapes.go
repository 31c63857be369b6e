package baseline

import (
	"math"
	"math/rand/v2"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/internal/raster"
)

// maxExtent bounds the random size of a new shape, in pixels.
const maxExtent = 32

// shape is a candidate primitive. Shapes are values; mutate returns a copy.
type shape interface {
	kind() geofuzz.ShapeKind
	rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span
	mutate(rng *rand.Rand, w, h int) shape
}

// newShape returns a random shape of kind k on a w×h canvas.
func newShape(k geofuzz.ShapeKind, rng *rand.Rand, w, h int) shape {
	x, y := rng.Float64()*float64(w), rng.Float64()*float64(h)
	p := func() raster.Point { return jitterPoint(raster.Point{X: x, Y: y}, rng, maxExtent, w, h) }
	ext := func() float64 { return 1 + rng.Float64()*maxExtent }
	angle := rng.Float64() * math.Pi

	switch k {
	case geofuzz.ShapeRectangle:
		return rect{a: raster.Point{X: x, Y: y}, b: p()}
	case geofuzz.ShapeRotatedRectangle:
		return rotatedRect{c: raster.Point{X: x, Y: y}, w: ext(), h: ext(), angle: angle}
	case geofuzz.ShapeTriangle:
		return triangle{pts: [3]raster.Point{{X: x, Y: y}, p(), p()}}
	case geofuzz.ShapeEllipse:
		return ellipse{c: raster.Point{X: x, Y: y}, rx: ext(), ry: ext()}
	case geofuzz.ShapeRotatedEllipse:
		return ellipse{c: raster.Point{X: x, Y: y}, rx: ext(), ry: ext(), angle: angle, rotated: true}
	case geofuzz.ShapeCircle:
		r := ext()
		return ellipse{c: raster.Point{X: x, Y: y}, rx: r, ry: r, circle: true}
	case geofuzz.ShapeLine:
		return polyline{pts: []raster.Point{{X: x, Y: y}, p()}, k: geofuzz.ShapeLine}
	case geofuzz.ShapeQuadraticBezier:
		return quadratic{p0: raster.Point{X: x, Y: y}, c: p(), p1: p()}
	default:
		return polyline{pts: []raster.Point{{X: x, Y: y}, p(), p(), p()}, k: geofuzz.ShapePolyline}
	}
}

// jitterPoint moves p by a normal offset with standard deviation sd and
// clamps it to the canvas.
func jitterPoint(p raster.Point, rng *rand.Rand, sd float64, w, h int) raster.Point {
	return raster.Point{
		X: clampf(p.X+rng.NormFloat64()*sd, 0, float64(w-1)),
		Y: clampf(p.Y+rng.NormFloat64()*sd, 0, float64(h-1)),
	}
}

func jitterExtent(v float64, rng *rand.Rand) float64 {
	return clampf(v+rng.NormFloat64()*maxExtent/2, 1, 4*maxExtent)
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

type rect struct{ a, b raster.Point }

func (s rect) kind() geofuzz.ShapeKind { return geofuzz.ShapeRectangle }

func (s rect) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	return r.Rect(dst, int(s.a.X), int(s.a.Y), int(s.b.X), int(s.b.Y))
}

func (s rect) mutate(rng *rand.Rand, w, h int) shape {
	if rng.IntN(2) == 0 {
		s.a = jitterPoint(s.a, rng, maxExtent/2, w, h)
	} else {
		s.b = jitterPoint(s.b, rng, maxExtent/2, w, h)
	}
	return s
}

type rotatedRect struct {
	c           raster.Point
	w, h, angle float64
}

func (s rotatedRect) kind() geofuzz.ShapeKind { return geofuzz.ShapeRotatedRectangle }

func (s rotatedRect) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	sin, cos := math.Sincos(s.angle)
	hw, hh := s.w/2, s.h/2
	corners := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	pts := make([]raster.Point, 4)
	for i, c := range corners {
		pts[i] = raster.Point{X: s.c.X + c[0]*cos - c[1]*sin, Y: s.c.Y + c[0]*sin + c[1]*cos}
	}
	return r.Polygon(dst, pts)
}

func (s rotatedRect) mutate(rng *rand.Rand, w, h int) shape {
	switch rng.IntN(3) {
	case 0:
		s.c = jitterPoint(s.c, rng, maxExtent/2, w, h)
	case 1:
		s.w, s.h = jitterExtent(s.w, rng), jitterExtent(s.h, rng)
	default:
		s.angle += rng.NormFloat64() * 0.5
	}
	return s
}

type triangle struct{ pts [3]raster.Point }

func (s triangle) kind() geofuzz.ShapeKind { return geofuzz.ShapeTriangle }

func (s triangle) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	return r.Polygon(dst, s.pts[:])
}

func (s triangle) mutate(rng *rand.Rand, w, h int) shape {
	i := rng.IntN(3)
	s.pts[i] = jitterPoint(s.pts[i], rng, maxExtent/2, w, h)
	return s
}

// ellipse covers axis-aligned ellipses, rotated ellipses and circles.
type ellipse struct {
	c               raster.Point
	rx, ry, angle   float64
	rotated, circle bool
}

func (s ellipse) kind() geofuzz.ShapeKind {
	switch {
	case s.circle:
		return geofuzz.ShapeCircle
	case s.rotated:
		return geofuzz.ShapeRotatedEllipse
	default:
		return geofuzz.ShapeEllipse
	}
}

// rotatedEllipseSegments is the polygon resolution of rotated ellipses.
const rotatedEllipseSegments = 24

func (s ellipse) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	if !s.rotated {
		return r.Ellipse(dst, s.c.X, s.c.Y, s.rx, s.ry)
	}
	sin, cos := math.Sincos(s.angle)
	pts := make([]raster.Point, rotatedEllipseSegments)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / rotatedEllipseSegments
		x, y := s.rx*math.Cos(t), s.ry*math.Sin(t)
		pts[i] = raster.Point{X: s.c.X + x*cos - y*sin, Y: s.c.Y + x*sin + y*cos}
	}
	return r.Polygon(dst, pts)
}

func (s ellipse) mutate(rng *rand.Rand, w, h int) shape {
	switch rng.IntN(3) {
	case 0:
		s.c = jitterPoint(s.c, rng, maxExtent/2, w, h)
	case 1:
		s.rx = jitterExtent(s.rx, rng)
		if s.circle {
			s.ry = s.rx
		} else {
			s.ry = jitterExtent(s.ry, rng)
		}
	default:
		if s.rotated {
			s.angle += rng.NormFloat64() * 0.5
		} else {
			s.c = jitterPoint(s.c, rng, maxExtent/4, w, h)
		}
	}
	return s
}

// polyline covers lines (two points) and polylines.
type polyline struct {
	pts []raster.Point
	k   geofuzz.ShapeKind
}

func (s polyline) kind() geofuzz.ShapeKind { return s.k }

func (s polyline) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	return r.Polyline(dst, s.pts)
}

func (s polyline) mutate(rng *rand.Rand, w, h int) shape {
	pts := append([]raster.Point(nil), s.pts...)
	i := rng.IntN(len(pts))
	pts[i] = jitterPoint(pts[i], rng, maxExtent/2, w, h)
	return polyline{pts: pts, k: s.k}
}

// bezierSegments is the number of lines a quadratic curve is flattened into.
const bezierSegments = 16

type quadratic struct{ p0, c, p1 raster.Point }

func (s quadratic) kind() geofuzz.ShapeKind { return geofuzz.ShapeQuadraticBezier }

func (s quadratic) rasterize(r *raster.Rasterizer, dst []raster.Span) []raster.Span {
	pts := make([]raster.Point, bezierSegments+1)
	for i := range pts {
		t := float64(i) / bezierSegments
		u := 1 - t
		pts[i] = raster.Point{
			X: u*u*s.p0.X + 2*u*t*s.c.X + t*t*s.p1.X,
			Y: u*u*s.p0.Y + 2*u*t*s.c.Y + t*t*s.p1.Y,
		}
	}
	return r.Polyline(dst, pts)
}

func (s quadratic) mutate(rng *rand.Rand, w, h int) shape {
	switch rng.IntN(3) {
	case 0:
		s.p0 = jitterPoint(s.p0, rng, maxExtent/2, w, h)
	case 1:
		s.c = jitterPoint(s.c, rng, maxExtent/2, w, h)
	default:
		s.p1 = jitterPoint(s.p1, rng, maxExtent/2, w, h)
	}
	return s
}
