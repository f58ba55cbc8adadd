package propagation

import (
	"fmt"
	"math"

	"github.com/bob-anderson-ok/wavesim/field"
)

// FresnelNumber returns max over channels of (D/2)^2/(lambda*|z|), where D is
// the physical height of the field. It is +Inf for z == 0.
func FresnelNumber(f field.Field, z float64) float64 {
	nf := math.Inf(-1)
	for c := 0; c < f.Channels(); c++ {
		half := f.Extent(c) / 2
		nf = math.Max(nf, half*half/(f.WavelengthAt(c)*math.Abs(z)))
	}
	return nf
}

// PadRatio is the minimum padded-to-original size ratio, 2*max(1, M/(4*Nf)),
// with M the height in pixels. Strongly diffracting setups (small Fresnel
// number relative to the pixel count) need more padding.
// It is a heuristic for controlling aliasing, not a guaranteed bound.
func PadRatio(f field.Field, z float64) float64 {
	m := float64(f.Height())
	return 2 * math.Max(1, m/(4*FresnelNumber(f, z)))
}

// AutoPad returns the total number of pixels to add along each spatial axis
// for propagating f by z with the given method. The padded size is rounded up
// to an even number; the result is always even so it splits evenly per side.
// Only the magnitude of z matters: backward propagation is padded like the
// forward step of the same length.
func AutoPad(f field.Field, z float64, method Method) (int, error) {
	q := PadRatio(f, z)
	switch method {
	case MethodTransfer, MethodTransform:
	case MethodExact:
		scale := 0.0
		for c := 0; c < f.Channels(); c++ {
			scale = math.Max(scale, f.WavelengthAt(c)/(2*f.DxAt(c)))
		}
		if scale >= 1 {
			return 0, fmt.Errorf("%w: exact transfer needs dx > lambda/2 (lambda/(2*dx) = %.3f)", ErrSampling, scale)
		}
		q /= math.Sqrt(1 - scale*scale)
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedMethod, method)
	}
	m := f.Height()
	nPad := int(math.Ceil(q*float64(m)/2))*2 - m
	if nPad%2 != 0 {
		nPad++
	}
	return nPad, nil
}

// Params selects how Propagate runs. The zero value is the transfer method in
// full mode with automatic padding.
type Params struct {
	Method Method
	Mode   Mode

	// NPad is the total pad per spatial axis. Nil selects AutoPad.
	NPad *int

	Options
}

// Pad is a convenience for setting Params.NPad.
func Pad(n int) *int { return &n }

// Propagate diffracts f a distance z in a medium of refractive index n with
// the method in p. The transform method ignores p.Mode.
func Propagate(f field.Field, z, n float64, p Params) (field.Field, error) {
	nPad := 0
	if p.NPad != nil {
		nPad = *p.NPad
	} else {
		var err error
		if nPad, err = AutoPad(f, z, p.Method); err != nil {
			return field.Field{}, err
		}
	}

	switch p.Method {
	case MethodTransform:
		return Transform(f, z, n, nPad, p.Options)
	case MethodTransfer:
		return Transfer(f, z, n, nPad, p.Mode, p.Options)
	case MethodExact:
		return Exact(f, z, n, nPad, p.Mode, p.Options)
	default:
		return field.Field{}, fmt.Errorf("%w: method must be one of transform, transfer or exact, got %v", ErrUnsupportedMethod, p.Method)
	}
}
