package geofuzz

import (
	"image/color"
	"testing"
)

func filled(t testing.TB, w, h int, c color.NRGBA) *Bitmap {
	t.Helper()
	b, err := NewBitmap(w, h)
	if err != nil {
		t.Fatalf("NewBitmap(%d, %d) error = %v", w, h, err)
	}
	b.Fill(c)
	return b
}

func noise(t testing.TB, w, h int, seed uint64) *Bitmap {
	t.Helper()
	b, err := NewBitmap(w, h)
	if err != nil {
		t.Fatal(err)
	}
	rng := NewRand(seed)
	for i := range b.Data() {
		b.Data()[i] = uint8(rng.IntN(256))
	}
	return b
}

func TestCompositeDimensions(t *testing.T) {
	tests := []struct {
		wa, ha, wb, hb int
		w, h           int
	}{
		{10, 20, 10, 20, 10, 20},
		{10, 20, 30, 5, 10, 5},
		{1, 1, 64, 64, 1, 1},
		{64, 3, 2, 64, 2, 3},
	}
	for _, policy := range []CombinePolicy{CombineNormalized, CombineTruncating} {
		for _, tt := range tests {
			a := noise(t, tt.wa, tt.ha, 1)
			b := noise(t, tt.wb, tt.hb, 2)
			got, err := Composite(a, b, policy)
			if err != nil {
				t.Fatalf("%v: Composite() error = %v", policy, err)
			}
			if got.Width() != tt.w || got.Height() != tt.h {
				t.Errorf("%v: Composite(%dx%d, %dx%d) = %dx%d, want %dx%d",
					policy, tt.wa, tt.ha, tt.wb, tt.hb, got.Width(), got.Height(), tt.w, tt.h)
			}
		}
	}
}

func TestCompositeCommutative(t *testing.T) {
	a := noise(t, 17, 9, 3)
	b := noise(t, 11, 13, 4)
	for _, policy := range []CombinePolicy{CombineNormalized, CombineTruncating} {
		ab, _ := Composite(a, b, policy)
		ba, _ := Composite(b, a, policy)
		if !ab.Equal(ba) {
			t.Errorf("%v: Composite(a, b) != Composite(b, a)", policy)
		}
	}
}

func TestCompositeValues(t *testing.T) {
	tests := []struct {
		policy CombinePolicy
		a, b   uint8
		want   uint8
	}{
		{CombineNormalized, 255, 255, 255},
		{CombineNormalized, 255, 77, 77},
		{CombineNormalized, 0, 200, 0},
		{CombineNormalized, 128, 128, 64},
		{CombineTruncating, 16, 16, 0},
		{CombineTruncating, 3, 5, 15},
		{CombineTruncating, 255, 255, 1},
	}
	for _, tt := range tests {
		a := filled(t, 2, 2, color.NRGBA{tt.a, tt.a, tt.a, tt.a})
		b := filled(t, 2, 2, color.NRGBA{tt.b, tt.b, tt.b, tt.b})
		got, err := Composite(a, b, tt.policy)
		if err != nil {
			t.Fatal(err)
		}
		want := color.NRGBA{tt.want, tt.want, tt.want, tt.want}
		if c := got.RGBA(1, 1); c != want {
			t.Errorf("%v(%d, %d) = %v, want %v", tt.policy, tt.a, tt.b, c, want)
		}
	}
}

func TestCompositePure(t *testing.T) {
	a := noise(t, 8, 8, 5)
	b := noise(t, 8, 8, 6)
	a0, b0 := a.Clone(), b.Clone()

	first, _ := Composite(a, b, CombineNormalized)
	second, _ := Composite(a, b, CombineNormalized)
	if !first.Equal(second) {
		t.Error("Composite is not deterministic")
	}
	if !a.Equal(a0) || !b.Equal(b0) {
		t.Error("Composite modified its inputs")
	}
}

func TestCompositeErrors(t *testing.T) {
	a := noise(t, 2, 2, 1)
	if _, err := Composite(nil, a, CombineNormalized); err == nil {
		t.Error("Composite(nil, a) error = nil")
	}
	if _, err := Composite(a, a, CombinePolicy(9)); err == nil {
		t.Error("Composite with unknown policy error = nil")
	}
}

func TestParseCombinePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CombinePolicy
		wantErr bool
	}{
		{"", CombineNormalized, false},
		{"normalized", CombineNormalized, false},
		{"Truncate", CombineTruncating, false},
		{"raw", CombineTruncating, false},
		{"screen", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCombinePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCombinePolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func FuzzComposite(f *testing.F) {
	f.Add(uint8(3), uint8(4), uint8(5), uint8(2), uint64(1), false)
	f.Add(uint8(1), uint8(1), uint8(1), uint8(1), uint64(7), true)
	f.Fuzz(func(t *testing.T, wa, ha, wb, hb uint8, seed uint64, truncate bool) {
		if wa == 0 || ha == 0 || wb == 0 || hb == 0 {
			t.Skip()
		}
		policy := CombineNormalized
		if truncate {
			policy = CombineTruncating
		}
		a := noise(t, int(wa%64)+1, int(ha%64)+1, seed)
		b := noise(t, int(wb%64)+1, int(hb%64)+1, seed+1)

		ab, err := Composite(a, b, policy)
		if err != nil {
			t.Fatal(err)
		}
		ba, err := Composite(b, a, policy)
		if err != nil {
			t.Fatal(err)
		}
		if ab.Width() != min(a.Width(), b.Width()) || ab.Height() != min(a.Height(), b.Height()) {
			t.Fatalf("size %dx%d", ab.Width(), ab.Height())
		}
		if !ab.Equal(ba) {
			t.Fatal("not commutative")
		}
	})
}
