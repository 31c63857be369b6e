package raster

// Point is a 2D point in pixel space.
type Point struct {
	X, Y float64
}

// Edge is a non-horizontal polygon edge oriented top to bottom.
type Edge struct {
	x0, y0 float64 // upper end point
	x1, y1 float64 // lower end point
	dxdy   float64 // inverse slope
}

// NewEdge creates an edge between two points. ok is false for horizontal
// edges, which never cross a scanline.
func NewEdge(p0, p1 Point) (e Edge, ok bool) {
	if p0.Y == p1.Y {
		return Edge{}, false
	}
	if p0.Y > p1.Y {
		p0, p1 = p1, p0
	}
	return Edge{
		x0:   p0.X,
		y0:   p0.Y,
		x1:   p1.X,
		y1:   p1.Y,
		dxdy: (p1.X - p0.X) / (p1.Y - p0.Y),
	}, true
}

// Crosses reports whether the scanline at y intersects the edge. The upper
// end point is included and the lower one excluded, so a vertex shared by two
// edges is counted once.
func (e Edge) Crosses(y float64) bool {
	return e.y0 <= y && y < e.y1
}

// XAt returns the x coordinate of the edge at y.
func (e Edge) XAt(y float64) float64 {
	return e.x0 + (y-e.y0)*e.dxdy
}
