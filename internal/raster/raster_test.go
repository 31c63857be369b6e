package raster

import (
	"testing"
)

// coverage renders spans into a width×height grid of hit counts.
func coverage(t *testing.T, spans []Span, w, h int) [][]int {
	t.Helper()
	grid := make([][]int, h)
	for y := range grid {
		grid[y] = make([]int, w)
	}
	for _, s := range spans {
		if s.Y < 0 || s.Y >= h || s.X1 < 0 || s.X2 > w || s.X1 >= s.X2 {
			t.Fatalf("span %+v outside %dx%d canvas or empty", s, w, h)
		}
		for x := s.X1; x < s.X2; x++ {
			grid[s.Y][x]++
		}
	}
	return grid
}

func TestRect(t *testing.T) {
	r := NewRasterizer(10, 10)
	spans := r.Rect(nil, 2, 3, 5, 4)

	if got, want := Area(spans), 4*2; got != want {
		t.Errorf("Area = %d, want %d", got, want)
	}
	grid := coverage(t, spans, 10, 10)
	if grid[3][2] != 1 || grid[4][5] != 1 || grid[5][5] != 0 {
		t.Error("rectangle corners not covered as expected")
	}
}

func TestRectSwappedAndClipped(t *testing.T) {
	r := NewRasterizer(4, 4)
	spans := r.Rect(nil, 10, 10, -3, -3)
	if got := Area(spans); got != 16 {
		t.Errorf("Area = %d, want 16 (full canvas)", got)
	}
}

func TestPolygonSquare(t *testing.T) {
	r := NewRasterizer(10, 10)
	spans := r.Polygon(nil, []Point{{2, 2}, {6, 2}, {6, 6}, {2, 6}})

	if got := Area(spans); got != 16 {
		t.Errorf("Area = %d, want 16", got)
	}
	grid := coverage(t, spans, 10, 10)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			if grid[y][x] != 1 {
				t.Errorf("pixel (%d,%d) = %d, want 1", x, y, grid[y][x])
			}
		}
	}
}

func TestPolygonTriangleHalfSquare(t *testing.T) {
	r := NewRasterizer(100, 100)
	spans := r.Polygon(nil, []Point{{0, 0}, {100, 0}, {0, 100}})

	got := Area(spans)
	if got < 4900 || got > 5100 {
		t.Errorf("Area = %d, want about 5000", got)
	}
	coverage(t, spans, 100, 100)
}

func TestPolygonDegenerate(t *testing.T) {
	r := NewRasterizer(10, 10)
	tests := []struct {
		name   string
		points []Point
	}{
		{"too few points", []Point{{1, 1}, {5, 5}}},
		{"horizontal", []Point{{1, 1}, {5, 1}, {8, 1}}},
		{"off canvas", []Point{{-20, -20}, {-10, -20}, {-10, -10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if spans := r.Polygon(nil, tt.points); len(spans) != 0 {
				t.Errorf("Polygon() = %v, want no spans", spans)
			}
		})
	}
}

func TestEllipse(t *testing.T) {
	r := NewRasterizer(200, 200)
	spans := r.Ellipse(nil, 100, 100, 50, 25)

	got := float64(Area(spans))
	want := 3.14159 * 50 * 25
	if got < want*0.97 || got > want*1.03 {
		t.Errorf("Area = %v, want about %v", got, want)
	}
	coverage(t, spans, 200, 200)

	if spans := r.Ellipse(nil, 10, 10, 0, 5); len(spans) != 0 {
		t.Errorf("zero radius ellipse produced %d spans", len(spans))
	}
}

func TestLineEndpoints(t *testing.T) {
	r := NewRasterizer(20, 20)
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           int
	}{
		{"horizontal", 1, 1, 8, 1, 8},
		{"vertical", 3, 0, 3, 9, 10},
		{"diagonal", 0, 0, 9, 9, 10},
		{"reverse", 9, 9, 0, 0, 10},
		{"point", 4, 4, 4, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Normalize(r.Line(nil, tt.x0, tt.y0, tt.x1, tt.y1))
			if got := Area(spans); got != tt.want {
				t.Errorf("Area = %d, want %d", got, tt.want)
			}
			grid := coverage(t, spans, 20, 20)
			if grid[tt.y0][tt.x0] != 1 || grid[tt.y1][tt.x1] != 1 {
				t.Error("line end points not covered")
			}
		})
	}
}

func TestNormalizeMergesOverlaps(t *testing.T) {
	spans := []Span{
		{Y: 2, X1: 5, X2: 8},
		{Y: 1, X1: 0, X2: 3},
		{Y: 2, X1: 1, X2: 6},
		{Y: 2, X1: 8, X2: 9},
		{Y: 2, X1: 12, X2: 13},
	}
	got := Normalize(spans)
	want := []Span{
		{Y: 1, X1: 0, X2: 3},
		{Y: 2, X1: 1, X2: 9},
		{Y: 2, X1: 12, X2: 13},
	}
	if len(got) != len(want) {
		t.Fatalf("Normalize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Normalize()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPolylineNoDoubleCoverageAfterNormalize(t *testing.T) {
	r := NewRasterizer(30, 30)
	spans := Normalize(r.Polyline(nil, []Point{{0, 0}, {20, 5}, {5, 20}, {0, 0}}))
	grid := coverage(t, spans, 30, 30)
	for y := range grid {
		for x := range grid[y] {
			if grid[y][x] > 1 {
				t.Fatalf("pixel (%d,%d) covered %d times", x, y, grid[y][x])
			}
		}
	}
}
