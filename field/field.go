// Package field defines Field, the immutable sampled wavefront that every
// propagation and sample operator consumes and returns.
//
// The amplitude U always has rank 5 with axes
//
//	(batch, height, width, polarization, channel)
//
// Scalar fields have a single polarization component; vector fields have three,
// ordered (z, y, x). Each channel carries one wavelength of the spectrum.
package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/bob-anderson-ok/wavesim/ndarray"
	"gonum.org/v1/gonum/floats"
)

// Axis positions inside Field.U.
const (
	AxisBatch = iota
	AxisHeight
	AxisWidth
	AxisPolarization
	AxisChannel

	Rank
)

// ErrInvalidField is returned when a field cannot be built from the given parts.
var ErrInvalidField = errors.New("field: invalid field")

// Field is a sampled complex wavefront. Operators never modify a Field in place;
// they build a new one with Replace or the With* helpers, which share every
// attribute that did not change.
type Field struct {
	U *ndarray.Complex

	// Dx is the (isotropic) sample spacing per channel. A single value applies
	// to every channel.
	Dx []float64

	// Spectrum is the wavelength per channel, in the same length unit as Dx.
	Spectrum []float64

	// SpectralDensity weights each channel when computing intensity.
	SpectralDensity []float64
}

// New validates the parts and returns a Field. A nil density spreads the
// weight evenly over the channels.
func New(u *ndarray.Complex, dx, spectrum, density []float64) (Field, error) {
	if u == nil || u.Rank() != Rank {
		return Field{}, fmt.Errorf("%w: u must have rank %d (batch, height, width, polarization, channel)", ErrInvalidField, Rank)
	}
	for _, n := range u.Shape {
		if n < 1 {
			return Field{}, fmt.Errorf("%w: every axis of u needs at least one sample, got shape %v", ErrInvalidField, u.Shape)
		}
	}
	c := u.Shape[AxisChannel]
	if err := checkPerChannel("dx", dx, c); err != nil {
		return Field{}, err
	}
	if err := checkPerChannel("spectrum", spectrum, c); err != nil {
		return Field{}, err
	}
	if density == nil {
		density = uniformDensity(c)
	} else if len(density) != c {
		return Field{}, fmt.Errorf("%w: spectral density has %d entries for %d channels", ErrInvalidField, len(density), c)
	}
	return Field{U: u, Dx: dx, Spectrum: spectrum, SpectralDensity: density}, nil
}

func uniformDensity(c int) []float64 {
	d := make([]float64, c)
	for i := range d {
		d[i] = 1 / float64(c)
	}
	return d
}

func checkPerChannel(name string, v []float64, c int) error {
	if len(v) != 1 && len(v) != c {
		return fmt.Errorf("%w: %s has %d entries for %d channels", ErrInvalidField, name, len(v), c)
	}
	for _, x := range v {
		if !(x > 0) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidField, name, x)
		}
	}
	return nil
}

func (f Field) Shape() []int { return f.U.Shape }
func (f Field) Ndim() int    { return f.U.Rank() }
func (f Field) Batch() int   { return f.U.Shape[AxisBatch] }
func (f Field) Height() int  { return f.U.Shape[AxisHeight] }
func (f Field) Width() int   { return f.U.Shape[AxisWidth] }

// Polarizations is 1 for scalar fields and 3 for vector fields.
func (f Field) Polarizations() int { return f.U.Shape[AxisPolarization] }
func (f Field) Channels() int      { return f.U.Shape[AxisChannel] }

// DxAt returns the sample spacing of channel c.
func (f Field) DxAt(c int) float64 { return perChannel(f.Dx, c) }

// WavelengthAt returns the wavelength of channel c.
func (f Field) WavelengthAt(c int) float64 { return perChannel(f.Spectrum, c) }

func perChannel(v []float64, c int) float64 {
	if len(v) == 1 {
		return v[0]
	}
	return v[c]
}

// Extent is the physical height of the field for channel c.
func (f Field) Extent(c int) float64 { return float64(f.Height()) * f.DxAt(c) }

// Replace returns a copy of f with a new amplitude and spacing. A nil dx keeps f.Dx.
func (f Field) Replace(u *ndarray.Complex, dx []float64) Field {
	g := f
	g.U = u
	if dx != nil {
		g.Dx = dx
	}
	return g
}

// WithU returns a copy of f with a new amplitude.
func (f Field) WithU(u *ndarray.Complex) Field { return f.Replace(u, nil) }

// WithDx returns a copy of f with a new spacing and the same amplitude.
func (f Field) WithDx(dx []float64) Field { return f.Replace(f.U, dx) }

// Coordinates returns the centered sample positions (i - n/2)*dx of an axis with n samples.
func Coordinates(n int, dx float64) []float64 {
	x := make([]float64, n)
	if n == 1 {
		return x
	}
	start := -float64(n/2) * dx
	floats.Span(x, start, start+float64(n-1)*dx)
	return x
}

// L2Sq returns the squared distance of pixel (i, j) from the grid center for channel c.
func (f Field) L2Sq(i, j, c int) float64 {
	dx := f.DxAt(c)
	y := float64(i-f.Height()/2) * dx
	x := float64(j-f.Width()/2) * dx
	return y*y + x*x
}

// L2SqGrid returns the squared-radius grid with shape (1, H, W, 1, C).
func (f Field) L2SqGrid() *ndarray.Real {
	h, w, c := f.Height(), f.Width(), f.Channels()
	g := ndarray.NewReal(1, h, w, 1, c)
	for ch := 0; ch < c; ch++ {
		ys := Coordinates(h, f.DxAt(ch))
		xs := Coordinates(w, f.DxAt(ch))
		for i, y := range ys {
			for j, x := range xs {
				g.Set(y*y+x*x, 0, i, j, 0, ch)
			}
		}
	}
	return g
}

// Pad zero-pads the spatial axes of f by n pixels on each side.
func Pad(f Field, n int) (Field, error) {
	u, err := ndarray.Pad(f.U, ndarray.SpatialWidths(Rank, n))
	if err != nil {
		return Field{}, err
	}
	return f.WithU(u), nil
}

// Crop removes n pixels from each side of the spatial axes of f.
func Crop(f Field, n int) (Field, error) {
	u, err := ndarray.Crop(f.U, ndarray.SpatialWidths(Rank, n))
	if err != nil {
		return Field{}, err
	}
	return f.WithU(u), nil
}

// Intensity returns the (batch, height, width) intensity, summing |u|^2 over
// polarization and weighting channels by the spectral density. A nil density
// weights every channel by 1/C.
func (f Field) Intensity() *ndarray.Real {
	b, h, w, p, c := f.Batch(), f.Height(), f.Width(), f.Polarizations(), f.Channels()
	density := f.SpectralDensity
	if density == nil {
		density = uniformDensity(c)
	}
	out := ndarray.NewReal(b, h, w)
	k := 0
	for bi := 0; bi < b; bi++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				s := 0.0
				for pol := 0; pol < p; pol++ {
					for ch := 0; ch < c; ch++ {
						v := f.U.At(bi, i, j, pol, ch)
						s += density[ch] * (real(v)*real(v) + imag(v)*imag(v))
					}
				}
				out.Data[k] = s
				k++
			}
		}
	}
	return out
}

// Power returns the total power per batch element, sum(|u|^2 * dx^2).
func (f Field) Power() []float64 {
	b, c := f.Batch(), f.Channels()
	perBatch := len(f.U.Data) / b
	out := make([]float64, b)
	for bi := range out {
		chunk := f.U.Data[bi*perBatch : (bi+1)*perBatch]
		for k, v := range chunk {
			dx := f.DxAt(k % c)
			out[bi] += (real(v)*real(v) + imag(v)*imag(v)) * dx * dx
		}
	}
	return out
}
