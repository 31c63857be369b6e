package geofuzz

import (
	"fmt"
	"strings"
)

// CombinePolicy selects the per-channel function used by Composite.
type CombinePolicy int

const (
	// CombineNormalized multiplies two channels and renormalizes: a*b/255.
	// This is a standard multiply blend and never leaves the 8-bit range.
	CombineNormalized CombinePolicy = iota

	// CombineTruncating multiplies the raw channel values and keeps the low
	// 8 bits. Most input pairs overflow, which yields noise-like images that
	// no natural corpus contains.
	CombineTruncating
)

// String returns the policy name used by the CLI and config file.
func (p CombinePolicy) String() string {
	switch p {
	case CombineNormalized:
		return "normalized"
	case CombineTruncating:
		return "truncate"
	default:
		return fmt.Sprintf("CombinePolicy(%d)", int(p))
	}
}

// ParseCombinePolicy parses "normalized" or "truncate".
func ParseCombinePolicy(s string) (CombinePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normalized", "multiply":
		return CombineNormalized, nil
	case "truncate", "truncating", "raw":
		return CombineTruncating, nil
	}
	return 0, fmt.Errorf("geofuzz: unknown combine policy %q", s)
}

// combine applies the policy to one channel pair.
func (p CombinePolicy) combine(a, b uint8) uint8 {
	if p == CombineTruncating {
		return a * b // wraps modulo 256
	}
	return uint8(uint16(a) * uint16(b) / 255)
}

// Composite combines two bitmaps into a new one sized
// (min(wA, wB), min(hA, hB)). Each output channel is the policy applied to the
// matching channels of a and b at the same coordinate. Composite is pure: the
// inputs are not modified and the result depends only on its arguments.
func Composite(a, b *Bitmap, policy CombinePolicy) (*Bitmap, error) {
	if a == nil || b == nil {
		return nil, ErrInvalidDimensions
	}
	if policy != CombineNormalized && policy != CombineTruncating {
		return nil, fmt.Errorf("geofuzz: composite: %v", policy)
	}

	out, err := NewBitmap(min(a.width, b.width), min(a.height, b.height))
	if err != nil {
		return nil, err
	}

	rowBytes := out.width * 4
	for y := range out.height {
		ra := a.data[a.Offset(0, y):][:rowBytes]
		rb := b.data[b.Offset(0, y):][:rowBytes]
		ro := out.data[out.Offset(0, y):][:rowBytes]
		for i := range ro {
			ro[i] = policy.combine(ra[i], rb[i])
		}
	}
	return out, nil
}
