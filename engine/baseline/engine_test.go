package baseline

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/geofuzz"
)

// gradient returns a w×h test target with a diagonal color ramp and a dark
// square in the middle.
func gradient(t *testing.T, w, h int) *geofuzz.Bitmap {
	t.Helper()
	b, err := geofuzz.NewBitmap(w, h)
	if err != nil {
		t.Fatalf("NewBitmap(%d, %d) error = %v", w, h, err)
	}
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255}
			if x > w/4 && x < 3*w/4 && y > h/4 && y < 3*h/4 {
				c = color.NRGBA{R: 10, G: 20, B: 30, A: 255}
			}
			b.SetRGBA(x, y, c)
		}
	}
	return b
}

func stepOptions(shapes geofuzz.ShapeSet, seed uint32, workers int) geofuzz.RunOptions {
	return geofuzz.RunOptions{
		Shapes:         shapes,
		Alpha:          200,
		CandidateCount: 24,
		MaxMutations:   40,
		Seed:           seed,
		MaxWorkers:     workers,
	}
}

func TestNewStartsFromAverageColor(t *testing.T) {
	target, _ := geofuzz.NewBitmap(2, 1)
	target.SetRGBA(0, 0, color.NRGBA{R: 100, G: 0, B: 50, A: 255})
	target.SetRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	e, err := New(target)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := color.NRGBA{R: 150, G: 50, B: 50, A: 255}
	for x := range 2 {
		if got := e.Current().RGBA(x, 0); got != want {
			t.Errorf("Current().RGBA(%d, 0) = %v, want %v", x, got, want)
		}
	}
	if s := e.Score(); s <= 0 || s > 1 {
		t.Errorf("Score() = %v, want in (0, 1]", s)
	}
}

func TestNewNilTarget(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) error = nil, want error")
	}
}

func TestStepPinnedKind(t *testing.T) {
	target := gradient(t, 48, 32)
	for _, k := range geofuzz.ShapeKinds() {
		t.Run(k.String(), func(t *testing.T) {
			e, err := New(target)
			if err != nil {
				t.Fatal(err)
			}
			accepted := 0
			for step := range 20 {
				res, err := e.Step(context.Background(), stepOptions(geofuzz.NewShapeSet(k), uint32(step+1), 2))
				if err != nil {
					t.Fatalf("Step(%d) error = %v", step, err)
				}
				for _, r := range res {
					if r.Kind != k {
						t.Errorf("step %d: result kind = %v, want %v", step, r.Kind, k)
					}
				}
				accepted += len(res)
			}
			if accepted == 0 {
				t.Errorf("no %v accepted in 20 steps", k)
			}
		})
	}
}

func TestStepScoresDecrease(t *testing.T) {
	e, err := New(gradient(t, 40, 40))
	if err != nil {
		t.Fatal(err)
	}
	prev := e.Score()
	for step := range 50 {
		res, err := e.Step(context.Background(), stepOptions(geofuzz.AnyShape(), uint32(step*7+3), 0))
		if err != nil {
			t.Fatalf("Step(%d) error = %v", step, err)
		}
		for _, r := range res {
			if r.Score < 0 || r.Score > 1 {
				t.Fatalf("step %d: score = %v, want in [0, 1]", step, r.Score)
			}
			if r.Score > prev {
				t.Errorf("step %d: score = %v, want <= %v", step, r.Score, prev)
			}
			prev = r.Score
		}
	}
}

func TestStepIndependentOfWorkers(t *testing.T) {
	target := gradient(t, 32, 24)
	run := func(workers int) (*geofuzz.Bitmap, []geofuzz.StepResult) {
		e, err := New(target)
		if err != nil {
			t.Fatal(err)
		}
		var all []geofuzz.StepResult
		for step := range 30 {
			res, err := e.Step(context.Background(), stepOptions(geofuzz.AnyShape(), uint32(1000+step), workers))
			if err != nil {
				t.Fatalf("workers=%d step %d: %v", workers, step, err)
			}
			all = append(all, res...)
		}
		return e.Current().Clone(), all
	}

	img1, res1 := run(1)
	for _, workers := range []int{2, 8, 16} {
		img, res := run(workers)
		if !img.Equal(img1) {
			t.Errorf("workers=%d: image differs from workers=1", workers)
		}
		if len(res) != len(res1) {
			t.Fatalf("workers=%d: %d results, want %d", workers, len(res), len(res1))
		}
		for i := range res {
			if res[i] != res1[i] {
				t.Errorf("workers=%d: result %d = %+v, want %+v", workers, i, res[i], res1[i])
			}
		}
	}
}

func TestStepIncrementalDifference(t *testing.T) {
	target := gradient(t, 30, 20)
	e, err := New(target)
	if err != nil {
		t.Fatal(err)
	}
	for step := range 25 {
		if _, err := e.Step(context.Background(), stepOptions(geofuzz.AnyShape(), uint32(step), 4)); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := e.diff, differenceFull(target, e.Current()); got != want {
		t.Errorf("incremental diff = %d, want %d", got, want)
	}
}

func TestStepZeroAlpha(t *testing.T) {
	e, err := New(gradient(t, 16, 16))
	if err != nil {
		t.Fatal(err)
	}
	before := e.Current().Clone()
	opts := stepOptions(geofuzz.AnyShape(), 5, 1)
	opts.Alpha = 0

	res, err := e.Step(context.Background(), opts)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(res) != 0 {
		t.Errorf("Step() = %d results, want 0", len(res))
	}
	if !e.Current().Equal(before) {
		t.Error("image changed on a zero-alpha step")
	}
}

func TestStepErrors(t *testing.T) {
	e, err := New(gradient(t, 8, 8))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Step(context.Background(), stepOptions(geofuzz.NewShapeSet(), 1, 1)); !errors.Is(err, ErrNoShapes) {
		t.Errorf("empty shape set: error = %v, want %v", err, ErrNoShapes)
	}

	opts := stepOptions(geofuzz.AnyShape(), 1, 1)
	opts.CandidateCount = 0
	if _, err := e.Step(context.Background(), opts); err == nil {
		t.Error("zero candidates: error = nil, want error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Step(ctx, stepOptions(geofuzz.AnyShape(), 1, 1)); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled context: error = %v, want %v", err, context.Canceled)
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		src, dst, alpha uint8
		want            uint8
	}{
		{255, 0, 255, 255},
		{0, 255, 255, 0},
		{200, 40, 0, 40},
		{0, 255, 128, 127},
		{100, 100, 77, 100},
	}
	for _, tt := range tests {
		if got := blend(tt.src, tt.dst, tt.alpha); got != tt.want {
			t.Errorf("blend(%d, %d, %d) = %d, want %d", tt.src, tt.dst, tt.alpha, got, tt.want)
		}
	}
}

func TestFactory(t *testing.T) {
	eng, err := Factory(gradient(t, 4, 4))
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	if eng.Current().Width() != 4 || eng.Current().Height() != 4 {
		t.Errorf("Current() size = %dx%d, want 4x4", eng.Current().Width(), eng.Current().Height())
	}
}
