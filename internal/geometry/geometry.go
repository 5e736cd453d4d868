// Package geometry computes target output dimensions for image variants.
//
// All math stays in float64 until a caller rounds for file naming or a
// resize call, so repeated ratio derivations do not compound rounding error.
package geometry

import (
	"errors"
	"math"
)

var ErrInvalidSource = errors.New("source dimensions must be positive")

// Size is a pixel extent. Values are kept fractional; see Round.
type Size struct {
	Width  float64
	Height float64
}

// Dimension is an optional requested extent. The zero value means "derive
// from the aspect ratio of the source".
type Dimension struct {
	px  float64
	set bool
}

func Px(v float64) Dimension { return Dimension{px: v, set: true} }

func (d Dimension) IsSet() bool     { return d.set }
func (d Dimension) Pixels() float64 { return d.px }

// Request is a target box where either axis may be left unset.
type Request struct {
	Width  Dimension
	Height Dimension
}

// Resolve computes the output size for a variant. With neither axis requested
// the source size is returned as-is; with one axis the other is derived from
// the source aspect ratio; with both the request is honored verbatim (a crop
// downstream absorbs any ratio mismatch).
//
// If the computed size exceeds the source on either axis it is capped to the
// largest size that fits inside the source while preserving the requested
// ratio. The returned bool reports that the request was undersized; this is
// advisory, never an error.
func Resolve(orig Size, req Request) (Size, bool, error) {
	if orig.Width <= 0 || orig.Height <= 0 {
		return Size{}, false, ErrInvalidSource
	}
	origRatio := orig.Width / orig.Height

	var out Size
	switch {
	case !req.Width.IsSet() && !req.Height.IsSet():
		out = orig
	case req.Width.IsSet() && !req.Height.IsSet():
		out = Size{Width: req.Width.Pixels(), Height: req.Width.Pixels() / origRatio}
	case !req.Width.IsSet() && req.Height.IsSet():
		out = Size{Width: req.Height.Pixels() * origRatio, Height: req.Height.Pixels()}
	default:
		out = Size{Width: req.Width.Pixels(), Height: req.Height.Pixels()}
	}

	if out.Width <= orig.Width && out.Height <= orig.Height {
		return out, false, nil
	}

	// The requested box does not fit inside the source. Saturate whichever
	// source axis binds first and derive the other from the requested ratio.
	targetRatio := out.Width / out.Height
	if origRatio < targetRatio {
		out = Size{Width: orig.Width, Height: orig.Width / targetRatio}
	} else {
		out = Size{Width: orig.Height * targetRatio, Height: orig.Height}
	}
	return out, true, nil
}

// Round converts a fractional pixel count to the nearest integer count.
func Round(v float64) int {
	return int(math.Round(v))
}
