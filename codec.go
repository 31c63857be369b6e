package geofuzz

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp" // register BMP, TIFF and WebP decoders
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Codec errors.
var (
	// ErrEmptyImage is returned when a file decodes to zero pixels.
	ErrEmptyImage = errors.New("geofuzz: image decodes empty")

	// ErrEmptyData is returned when there is no data to decode.
	ErrEmptyData = errors.New("geofuzz: empty image data")
)

// LoadBitmap decodes the image file at path into an RGBA8 bitmap.
// Supported formats: PNG, JPEG, GIF, BMP, TIFF, WebP.
//
// All failures, including a missing file, carry KindLoad.
func LoadBitmap(path string) (*Bitmap, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, newError(KindLoad, "open", path, err)
	}
	defer func() { _ = f.Close() }()

	bm, err := DecodeBitmap(f)
	if err != nil {
		return nil, newError(KindLoad, "decode", path, err)
	}
	return bm, nil
}

// DecodeBitmap decodes an image from r, auto-detecting the format.
func DecodeBitmap(r io.Reader) (*Bitmap, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	bm, err := BitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	return bm, nil
}

// DecodeBitmapBytes decodes an in-memory image.
func DecodeBitmapBytes(data []byte) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return DecodeBitmap(bytes.NewReader(data))
}

// EncodePNG writes b as PNG to w.
func EncodePNG(w io.Writer, b *Bitmap) error {
	if b == nil || b.width == 0 || b.height == 0 {
		return ErrInvalidDimensions
	}
	if err := png.Encode(w, b.ToImage()); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes b as a PNG file at path. The parent directory must exist.
func SavePNG(path string, b *Bitmap) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := EncodePNG(f, b); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
