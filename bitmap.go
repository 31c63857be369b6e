package geofuzz

import (
	"bytes"
	"errors"
	"image"
	"image/color"
)

// Bitmap errors.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("geofuzz: invalid bitmap dimensions")

	// ErrDataSize is returned when pixel data does not match width*height*4.
	ErrDataSize = errors.New("geofuzz: bitmap data size mismatch")
)

// Bitmap is a rectangular RGBA8 pixel buffer (non-premultiplied, 4 bytes per
// pixel, row-major, no padding).
//
// A Bitmap handed to the harness as an asset is treated as read-only and may
// be shared between concurrent runs.
type Bitmap struct {
	width  int
	height int
	data   []uint8
}

// NewBitmap creates a transparent bitmap with the given dimensions.
func NewBitmap(width, height int) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &Bitmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}, nil
}

// NewBitmapFromData wraps existing RGBA8 data without copying.
func NewBitmapFromData(width, height int, data []uint8) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(data) != width*height*4 {
		return nil, ErrDataSize
	}
	return &Bitmap{width: width, height: height, data: data}, nil
}

// Width returns the width of the bitmap.
func (b *Bitmap) Width() int {
	return b.width
}

// Height returns the height of the bitmap.
func (b *Bitmap) Height() int {
	return b.height
}

// Data returns the raw pixel data.
func (b *Bitmap) Data() []uint8 {
	return b.data
}

// Offset returns the byte offset of pixel (x, y).
func (b *Bitmap) Offset(x, y int) int {
	return (y*b.width + x) * 4
}

// RGBA returns the channels of a single pixel. Out-of-bounds reads return
// transparent black.
func (b *Bitmap) RGBA(x, y int) color.NRGBA {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return color.NRGBA{}
	}
	i := b.Offset(x, y)
	return color.NRGBA{R: b.data[i], G: b.data[i+1], B: b.data[i+2], A: b.data[i+3]}
}

// SetRGBA sets a single pixel. Out-of-bounds writes are ignored.
func (b *Bitmap) SetRGBA(x, y int, c color.NRGBA) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := b.Offset(x, y)
	b.data[i+0] = c.R
	b.data[i+1] = c.G
	b.data[i+2] = c.B
	b.data[i+3] = c.A
}

// Fill sets every pixel to c.
func (b *Bitmap) Fill(c color.NRGBA) {
	for i := 0; i < len(b.data); i += 4 {
		b.data[i+0] = c.R
		b.data[i+1] = c.G
		b.data[i+2] = c.B
		b.data[i+3] = c.A
	}
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	data := make([]uint8, len(b.data))
	copy(data, b.data)
	return &Bitmap{width: b.width, height: b.height, data: data}
}

// Equal reports whether two bitmaps have identical dimensions and pixels.
func (b *Bitmap) Equal(o *Bitmap) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.width == o.width && b.height == o.height && bytes.Equal(b.data, o.data)
}

// ToImage converts the bitmap to an *image.NRGBA sharing no memory with b.
func (b *Bitmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// BitmapFromImage converts any image to an RGBA8 bitmap.
func BitmapFromImage(img image.Image) (*Bitmap, error) {
	bounds := img.Bounds()
	bm, err := NewBitmap(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	// Fast path: NRGBA has the same layout
	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range bm.height {
			start := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(bm.data[y*bm.width*4:], nrgba.Pix[start:start+bm.width*4])
		}
		return bm, nil
	}

	for y := range bm.height {
		for x := range bm.width {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			bm.SetRGBA(x, y, c)
		}
	}
	return bm, nil
}

// At implements the image.Image interface.
func (b *Bitmap) At(x, y int) color.Color {
	return b.RGBA(x, y)
}

// Bounds implements the image.Image interface.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Bitmap) ColorModel() color.Model {
	return color.NRGBAModel
}
