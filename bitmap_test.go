package geofuzz

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func TestNewBitmap(t *testing.T) {
	tests := []struct {
		w, h    int
		wantErr error
	}{
		{1, 1, nil},
		{64, 48, nil},
		{0, 10, ErrInvalidDimensions},
		{10, -1, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		b, err := NewBitmap(tt.w, tt.h)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("NewBitmap(%d, %d) error = %v, want %v", tt.w, tt.h, err, tt.wantErr)
			continue
		}
		if err == nil && len(b.Data()) != tt.w*tt.h*4 {
			t.Errorf("NewBitmap(%d, %d) data length = %d", tt.w, tt.h, len(b.Data()))
		}
	}
}

func TestNewBitmapFromData(t *testing.T) {
	if _, err := NewBitmapFromData(2, 2, make([]uint8, 15)); !errors.Is(err, ErrDataSize) {
		t.Errorf("short data error = %v, want %v", err, ErrDataSize)
	}
	data := make([]uint8, 16)
	b, err := NewBitmapFromData(2, 2, data)
	if err != nil {
		t.Fatal(err)
	}
	data[4] = 9
	if b.RGBA(1, 0).R != 9 {
		t.Error("NewBitmapFromData copied its input")
	}
}

func TestBitmapPixels(t *testing.T) {
	b, _ := NewBitmap(3, 2)
	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	b.SetRGBA(2, 1, c)
	b.SetRGBA(5, 5, c) // ignored

	if got := b.RGBA(2, 1); got != c {
		t.Errorf("RGBA(2, 1) = %v, want %v", got, c)
	}
	if got := b.RGBA(-1, 0); got != (color.NRGBA{}) {
		t.Errorf("RGBA(-1, 0) = %v, want zero", got)
	}
	if got := b.At(2, 1); got != c {
		t.Errorf("At(2, 1) = %v, want %v", got, c)
	}
	if b.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Bounds() = %v", b.Bounds())
	}

	clone := b.Clone()
	clone.SetRGBA(0, 0, c)
	if b.RGBA(0, 0) == c {
		t.Error("Clone shares memory with its source")
	}
	if b.Equal(clone) {
		t.Error("Equal() = true after modifying the clone")
	}
}

func TestBitmapFromImageSubImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 3, color.NRGBA{R: 200, A: 255})
	sub := src.SubImage(image.Rect(1, 2, 4, 4))

	b, err := BitmapFromImage(sub)
	if err != nil {
		t.Fatal(err)
	}
	if b.Width() != 3 || b.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", b.Width(), b.Height())
	}
	if got := b.RGBA(1, 1); got.R != 200 || got.A != 255 {
		t.Errorf("RGBA(1, 1) = %v, want the pixel at (2, 3) of the source", got)
	}
}

func TestBitmapFromImageConverts(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(1, 0, color.Gray{Y: 90})
	b, err := BitmapFromImage(src)
	if err != nil {
		t.Fatal(err)
	}
	want := color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	if got := b.RGBA(1, 0); got != want {
		t.Errorf("RGBA(1, 0) = %v, want %v", got, want)
	}
}

func TestEncodeDecodePNG(t *testing.T) {
	b := noise(t, 7, 5, 11)
	var buf bytes.Buffer
	if err := EncodePNG(&buf, b); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	got, err := DecodeBitmapBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBitmapBytes() error = %v", err)
	}
	if !got.Equal(b) {
		t.Error("PNG round trip changed pixels")
	}
}

func TestDecodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	b, err := DecodeBitmapBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBitmapBytes(jpeg) error = %v", err)
	}
	if b.Width() != 16 || b.Height() != 8 || b.RGBA(0, 0).A != 255 {
		t.Errorf("decoded %dx%d alpha %d", b.Width(), b.Height(), b.RGBA(0, 0).A)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeBitmapBytes(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("DecodeBitmapBytes(nil) error = %v, want %v", err, ErrEmptyData)
	}
	if _, err := DecodeBitmapBytes([]byte("not an image")); err == nil {
		t.Error("DecodeBitmapBytes(garbage) error = nil")
	}
	if err := EncodePNG(&bytes.Buffer{}, nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("EncodePNG(nil) error = %v", err)
	}
}
