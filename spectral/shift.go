package spectral

import (
	"fmt"

	"github.com/bob-anderson-ok/wavesim/ndarray"
)

// Shift2 moves the zero-frequency sample to the center of the spatial axes (fftshift).
func Shift2(a *ndarray.Complex) (*ndarray.Complex, error) {
	return roll2(a, false)
}

// IShift2 undoes Shift2 (ifftshift). The two differ only for odd sizes.
func IShift2(a *ndarray.Complex) (*ndarray.Complex, error) {
	return roll2(a, true)
}

func roll2(a *ndarray.Complex, inverse bool) (*ndarray.Complex, error) {
	if a.Rank() < 3 {
		return nil, fmt.Errorf("%w: need (batch, height, width, ...) axes, got shape %v", ndarray.ErrShape, a.Shape)
	}
	h, w := a.Shape[1], a.Shape[2]
	shY, shX := h/2, w/2
	if inverse {
		shY, shX = h-h/2, w-w/2
	}
	st := a.Strides()
	out := ndarray.NewComplex(a.Shape...)
	groups, _ := planeGroups(a.Shape, nil)
	for _, base := range groups[0] {
		for y := 0; y < h; y++ {
			yy := (y + shY) % h
			for x := 0; x < w; x++ {
				xx := (x + shX) % w
				out.Data[base+yy*st[1]+xx*st[2]] = a.Data[base+y*st[1]+x*st[2]]
			}
		}
	}
	return out, nil
}

// Freq returns the sample frequencies of an n-point transform with sample
// spacing d, in the same order as numpy.fft.fftfreq:
// [0, 1, ..., ceil(n/2)-1, -floor(n/2), ..., -1] / (d*n).
func Freq(n int, d float64) []float64 {
	f := make([]float64, n)
	scale := 1.0 / (float64(n) * d)
	for i := 0; i < n; i++ {
		k := i
		if i >= (n+1)/2 {
			k = i - n
		}
		f[i] = float64(k) * scale
	}
	return f
}
