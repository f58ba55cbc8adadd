// Package propagation diffracts a field.Field through a homogeneous medium.
//
// Three methods are provided: the single-FFT Fresnel transform, the paraxial
// transfer (angular spectrum) method and the exact non-paraxial angular
// spectrum method. Propagate picks the padding from the Fresnel number when
// none is given and dispatches to one of them.
package propagation

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/spectral"
)

// Transform propagates f a distance z in a medium of index n with the
// single-FFT Fresnel transform. nPad pixels are added in total along each
// spatial axis before the FFT and removed afterwards. The output sample
// spacing becomes du = L^2/((H+nPad)*dx) with L^2 = lambda*z/n, so the grid
// must be square. A zero distance returns f unchanged.
func Transform(f field.Field, z, n float64, nPad int, opts Options) (field.Field, error) {
	if err := checkPad(nPad); err != nil {
		return field.Field{}, err
	}
	if f.Height() != f.Width() {
		return field.Field{}, fmt.Errorf("%w: transform method needs a square grid, got %dx%d", ndarray.ErrShapeMismatch, f.Height(), f.Width())
	}
	if z == 0 {
		return f, nil
	}

	nc := f.Channels()
	l2 := make([]float64, nc) // L^2 per channel
	du := make([]float64, nc)
	for c := range l2 {
		l2[c] = f.WavelengthAt(c) * z / n
		du[c] = l2[c] / (float64(f.Height()+nPad) * f.DxAt(c))
	}

	in := scaleByPixel(f, func(i, j, c int) complex128 {
		return cmplx.Exp(complex(0, math.Pi*f.L2Sq(i, j, c)/l2[c]))
	})

	half := nPad / 2
	u, err := ndarray.Pad(in, ndarray.SpatialWidths(field.Rank, half))
	if err != nil {
		return field.Field{}, err
	}
	if u, err = spectral.FFT2(u, opts.FFT); err != nil {
		return field.Field{}, err
	}
	if u, err = spectral.Shift2(u); err != nil {
		return field.Field{}, err
	}
	if u, err = ndarray.Crop(u, ndarray.SpatialWidths(field.Rank, half)); err != nil {
		return field.Field{}, err
	}

	out := f.WithU(u)
	u = scaleByPixel(out, func(i, j, c int) complex128 {
		dx := f.DxAt(c)
		norm := dx * dx / l2[c]
		outGrid := f.L2Sq(i, j, c) * (du[c] / dx) * (du[c] / dx)
		return complex(norm, 0) * cmplx.Exp(complex(0, math.Pi*outGrid/l2[c]))
	})
	return f.Replace(u, du), nil
}

// Transfer propagates f a distance z with the paraxial transfer function
// exp(-i*pi*L^2*(fx^2+fy^2)) applied on the padded frequency grid. The sample
// spacing is unchanged.
func Transfer(f field.Field, z, n float64, nPad int, mode Mode, opts Options) (field.Field, error) {
	if err := mode.check(); err != nil {
		return field.Field{}, err
	}
	if err := checkPad(nPad); err != nil {
		return field.Field{}, err
	}
	padded, err := field.Pad(f, nPad/2)
	if err != nil {
		return field.Field{}, err
	}
	kernel := transferFunction(padded, func(fy, fx float64, c int) float64 {
		l2 := padded.WavelengthAt(c) * z / n
		return -math.Pi * l2 * (fx*fx + fy*fy)
	})
	out, err := KernelPropagate(padded, kernel, opts)
	if err != nil {
		return field.Field{}, err
	}
	return finish(out, nPad, mode)
}

// Exact propagates f a distance z with the non-paraxial angular spectrum
// kernel. Evanescent frequencies, where (lambda/n)^2*(fx^2+fy^2) > 1, get zero
// phase instead of a complex root.
func Exact(f field.Field, z, n float64, nPad int, mode Mode, opts Options) (field.Field, error) {
	if err := mode.check(); err != nil {
		return field.Field{}, err
	}
	if err := checkPad(nPad); err != nil {
		return field.Field{}, err
	}
	padded, err := field.Pad(f, nPad/2)
	if err != nil {
		return field.Field{}, err
	}
	out, err := KernelPropagate(padded, ExactKernel(padded, z, n, opts.KyKx), opts)
	if err != nil {
		return field.Field{}, err
	}
	return finish(out, nPad, mode)
}

// ExactPhase is the exact angular spectrum phase for one frequency sample.
func ExactPhase(wavelength, z, n, fy, fx float64, kykx [2]float64) float64 {
	ky, kx := fy-kykx[0], fx-kykx[1]
	k := 1 - (wavelength/n)*(wavelength/n)*(kx*kx+ky*ky)
	k = math.Max(k, 0)
	return 2 * math.Pi * (z * n / wavelength) * math.Sqrt(k)
}

// ExactKernel returns the exact transfer function exp(i*phase) for
// propagating f by z, shaped (1, H, W, 1, C) over f's own frequency grid. No
// FFT is performed; the kernel can be reused with KernelPropagate for every
// step of the same thickness.
func ExactKernel(f field.Field, z, n float64, kykx [2]float64) *ndarray.Complex {
	return transferFunction(f, func(fy, fx float64, c int) float64 {
		return ExactPhase(f.WavelengthAt(c), z, n, fy, fx, kykx)
	})
}

// KernelPropagate applies a precomputed frequency-domain kernel to f:
// IFFT(FFT(u) * kernel). The kernel must broadcast onto f.U.
func KernelPropagate(f field.Field, kernel *ndarray.Complex, opts Options) (field.Field, error) {
	spec, err := spectral.FFT2(f.U, opts.FFT)
	if err != nil {
		return field.Field{}, err
	}
	if spec, err = ndarray.Mul(spec, kernel); err != nil {
		return field.Field{}, fmt.Errorf("propagator does not match field: %w", err)
	}
	u, err := spectral.IFFT2(spec, opts.FFT)
	if err != nil {
		return field.Field{}, err
	}
	return f.WithU(u), nil
}

func transferFunction(f field.Field, phase func(fy, fx float64, c int) float64) *ndarray.Complex {
	h, w, nc := f.Height(), f.Width(), f.Channels()
	k := ndarray.NewComplex(1, h, w, 1, nc)
	for c := 0; c < nc; c++ {
		fy := spectral.Freq(h, f.DxAt(c))
		fx := spectral.Freq(w, f.DxAt(c))
		for i, vy := range fy {
			for j, vx := range fx {
				k.Set(cmplx.Exp(complex(0, phase(vy, vx, c))), 0, i, j, 0, c)
			}
		}
	}
	return k
}

// scaleByPixel multiplies f.U by a factor that depends only on the spatial
// position and channel.
func scaleByPixel(f field.Field, factor func(i, j, c int) complex128) *ndarray.Complex {
	h, w, nc := f.Height(), f.Width(), f.Channels()
	k := ndarray.NewComplex(1, h, w, 1, nc)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			for c := 0; c < nc; c++ {
				k.Set(factor(i, j, c), 0, i, j, 0, c)
			}
		}
	}
	// shapes always broadcast: same spatial and channel sizes
	u, _ := ndarray.Mul(f.U, k)
	return u
}

func finish(out field.Field, nPad int, mode Mode) (field.Field, error) {
	switch mode {
	case ModeFull:
		return out, nil
	case ModeSame:
		return field.Crop(out, nPad/2)
	default:
		return field.Field{}, fmt.Errorf("%w: mode %v", ErrUnsupportedMethod, mode)
	}
}

func checkPad(nPad int) error {
	if nPad < 0 || nPad%2 != 0 {
		return fmt.Errorf("%w: pad must be a non-negative even number of pixels, got %d", ndarray.ErrShape, nPad)
	}
	return nil
}
