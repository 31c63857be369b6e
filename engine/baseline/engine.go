package baseline

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/internal/raster"
)

// ErrNoShapes is returned when the options permit no shape kind.
var ErrNoShapes = errors.New("baseline: no permitted shape kinds")

// Engine approximates a target bitmap with flat-colored shapes.
type Engine struct {
	target  *geofuzz.Bitmap
	current *geofuzz.Bitmap
	w, h    int

	// diff is the sum of squared channel differences between target and
	// current over all pixels and all four channels.
	diff uint64

	logger *slog.Logger
}

// New creates an engine for target. The cumulative image starts as the
// opaque average color of the target. target is not modified.
func New(target *geofuzz.Bitmap) (*Engine, error) {
	if target == nil {
		return nil, geofuzz.ErrInvalidDimensions
	}
	current, err := geofuzz.NewBitmap(target.Width(), target.Height())
	if err != nil {
		return nil, err
	}
	current.Fill(averageColor(target))

	e := &Engine{
		target:  target,
		current: current,
		w:       target.Width(),
		h:       target.Height(),
		logger:  geofuzz.Logger(),
	}
	e.diff = differenceFull(target, current)
	return e, nil
}

// Factory adapts New to geofuzz.EngineFactory.
func Factory(initial *geofuzz.Bitmap) (geofuzz.Engine, error) {
	return New(initial)
}

// SetLogger sets the engine logger. The harness calls it after construction.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Current returns the cumulative image. The engine keeps ownership.
func (e *Engine) Current() *geofuzz.Bitmap {
	return e.current
}

// Score returns the normalized root-mean-square error between target and
// current, in [0, 1].
func (e *Engine) Score() float64 {
	return score(e.diff, e.w, e.h)
}

func score(diff uint64, w, h int) float64 {
	return math.Sqrt(float64(diff)/float64(w*h*4)) / 255
}

// candidate is an evaluated shape.
type candidate struct {
	shape shape
	spans []raster.Span
	color color.NRGBA
	diff  uint64 // total difference if the shape were drawn
	valid bool
}

// better reports whether c improves on o. Ties keep o.
func (c candidate) better(o candidate) bool {
	return c.valid && (!o.valid || c.diff < o.diff)
}

// Step runs one search round with opts and returns the accepted shape, if any.
func (e *Engine) Step(ctx context.Context, opts geofuzz.RunOptions) ([]geofuzz.StepResult, error) {
	kinds := opts.Shapes.Kinds()
	if len(kinds) == 0 {
		return nil, ErrNoShapes
	}
	if opts.CandidateCount < 1 {
		return nil, fmt.Errorf("baseline: candidate count %d < 1", opts.CandidateCount)
	}
	if opts.Alpha == 0 {
		// A transparent shape cannot change the image.
		return nil, nil
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	cands := make([]candidate, opts.CandidateCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(i)+1))
			s := newShape(kinds[rng.IntN(len(kinds))], rng, e.w, e.h)
			cands[i] = e.evaluate(raster.NewRasterizer(e.w, e.h), s, opts.Alpha)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.better(best) {
			best = c
		}
	}
	if !best.valid {
		return nil, nil
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), 0))
	r := raster.NewRasterizer(e.w, e.h)
	for m := range opts.MaxMutations {
		if m%32 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if c := e.evaluate(r, best.shape.mutate(rng, e.w, e.h), opts.Alpha); c.better(best) {
			best = c
		}
	}

	if best.diff >= e.diff {
		return nil, nil
	}

	e.draw(best, opts.Alpha)
	e.diff = best.diff
	res := geofuzz.StepResult{Kind: best.shape.kind(), Score: e.Score()}
	e.logger.Debug("baseline accepted shape", "kind", res.Kind, "score", res.Score, "pixels", raster.Area(best.spans))
	return []geofuzz.StepResult{res}, nil
}

// evaluate rasterizes s, picks its best color for alpha and computes the
// total difference the image would have with s drawn.
func (e *Engine) evaluate(r *raster.Rasterizer, s shape, alpha uint8) candidate {
	spans := raster.Normalize(s.rasterize(r, nil))
	if len(spans) == 0 {
		return candidate{}
	}
	c := e.computeColor(spans, alpha)
	return candidate{
		shape: s,
		spans: spans,
		color: c,
		diff:  e.differencePartial(spans, c, alpha),
		valid: true,
	}
}

// computeColor returns the color that, blended at alpha over the current
// image, moves the covered pixels closest to the target on average.
func (e *Engine) computeColor(spans []raster.Span, alpha uint8) color.NRGBA {
	var sum [3]float64
	count := 0
	a := 255 / float64(alpha)
	td, cd := e.target.Data(), e.current.Data()
	for _, s := range spans {
		for i := e.current.Offset(s.X1, s.Y); i < e.current.Offset(s.X2, s.Y); i += 4 {
			for ch := range 3 {
				t, c := float64(td[i+ch]), float64(cd[i+ch])
				sum[ch] += (t-c)*a + c
			}
			count++
		}
	}
	n := float64(count)
	return color.NRGBA{
		R: clamp8(sum[0] / n),
		G: clamp8(sum[1] / n),
		B: clamp8(sum[2] / n),
		A: alpha,
	}
}

// differencePartial returns the total difference after blending c over the
// covered pixels, updating e.diff incrementally.
func (e *Engine) differencePartial(spans []raster.Span, c color.NRGBA, alpha uint8) uint64 {
	total := e.diff
	src := [4]uint8{c.R, c.G, c.B, 255}
	td, cd := e.target.Data(), e.current.Data()
	for _, s := range spans {
		for i := e.current.Offset(s.X1, s.Y); i < e.current.Offset(s.X2, s.Y); i += 4 {
			for ch := range 4 {
				t := int64(td[i+ch])
				before := t - int64(cd[i+ch])
				after := t - int64(blend(src[ch], cd[i+ch], alpha))
				total = total - uint64(before*before) + uint64(after*after)
			}
		}
	}
	return total
}

// draw blends the candidate into the cumulative image.
func (e *Engine) draw(c candidate, alpha uint8) {
	src := [4]uint8{c.color.R, c.color.G, c.color.B, 255}
	cd := e.current.Data()
	for _, s := range c.spans {
		for i := e.current.Offset(s.X1, s.Y); i < e.current.Offset(s.X2, s.Y); i += 4 {
			for ch := range 4 {
				cd[i+ch] = blend(src[ch], cd[i+ch], alpha)
			}
		}
	}
}

// blend composites src over dst with opacity alpha, rounding to nearest.
func blend(src, dst, alpha uint8) uint8 {
	a := uint32(alpha)
	return uint8((uint32(src)*a + uint32(dst)*(255-a) + 127) / 255)
}

func clamp8(v float64) uint8 {
	return uint8(math.Round(clampf(v, 0, 255)))
}

// averageColor returns the opaque mean color of b.
func averageColor(b *geofuzz.Bitmap) color.NRGBA {
	var r, g, bl uint64
	data := b.Data()
	for i := 0; i < len(data); i += 4 {
		r += uint64(data[i])
		g += uint64(data[i+1])
		bl += uint64(data[i+2])
	}
	n := uint64(b.Width() * b.Height())
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 255}
}

// differenceFull returns the sum of squared channel differences of a and b.
func differenceFull(a, b *geofuzz.Bitmap) uint64 {
	var total uint64
	da, db := a.Data(), b.Data()
	for i := range da {
		d := int64(da[i]) - int64(db[i])
		total += uint64(d * d)
	}
	return total
}
