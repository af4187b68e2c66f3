package render

import "github.com/aretw0/roteiro/pkg/domain"

// DefaultBasePixelSize is used when the caller does not supply one.
const DefaultBasePixelSize = 16.0

// sizeScale maps a segment's declared size token to a multiplier over the
// caller-supplied base pixel size. The token encodes a relative size, never
// an absolute one, so renderer output stays consistent with the operator's
// accessibility scale control.
var sizeScale = map[string]float64{
	"sm":   0.875,
	"base": 1.0,
	"lg":   1.125,
	"xl":   1.25,
	"2xl":  1.5,
	"3xl":  1.875,
}

// ScaleSize resolves a size token against a base pixel size. Unknown or
// empty tokens fall back to the base size; a non-positive base falls back
// to DefaultBasePixelSize.
func ScaleSize(token string, base float64) float64 {
	if base <= 0 {
		base = DefaultBasePixelSize
	}
	scale, ok := sizeScale[token]
	if !ok {
		scale = 1.0
	}
	return base * scale
}

// styleFor resolves a Formatting record into an absolute Style.
func styleFor(f domain.Formatting, base float64) *Style {
	return &Style{
		Bold:       f.Bold,
		Italic:     f.Italic,
		Color:      f.Color,
		Background: f.Background,
		PixelSize:  ScaleSize(f.Size, base),
		Alignment:  f.Alignment,
		FontFamily: f.FontFamily,
		ListType:   f.ListType,
		Shadow:     f.Shadow,
	}
}
