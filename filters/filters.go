// Package filters holds the image utilities used around the optical simulation:
// Gaussian kernels and filtering, FFT convolution and an edge taper for
// suppressing wrap-around at the borders of a field.
package filters

import (
	"fmt"
	"math"

	"github.com/bob-anderson-ok/wavesim/ndarray"
	"gonum.org/v1/gonum/floats"
)

// GaussianKernel returns a normalized Gaussian kernel with one axis per entry
// of sigma. When shape is nil each axis extends int(truncate*sigma+0.5)
// pixels either side of the center; otherwise truncate is ignored and shape,
// which must be odd along every axis, is used.
func GaussianKernel(sigma []float64, truncate float64, shape []int) (*ndarray.Real, error) {
	if len(sigma) == 0 {
		return nil, fmt.Errorf("%w: sigma needs at least one axis", ndarray.ErrShape)
	}
	radius := make([]int, len(sigma))
	if shape != nil {
		if len(shape) != len(sigma) {
			return nil, fmt.Errorf("%w: shape %v does not match %d sigma values", ndarray.ErrShapeMismatch, shape, len(sigma))
		}
		for i, s := range shape {
			if s%2 == 0 || s < 1 {
				return nil, fmt.Errorf("%w: kernel shape must be odd in all dimensions, got %v", ndarray.ErrShape, shape)
			}
			radius[i] = (s - 1) / 2
		}
	} else {
		for i, s := range sigma {
			radius[i] = int(truncate*s + 0.5)
		}
	}

	dims := make([]int, len(radius))
	for i, r := range radius {
		dims[i] = 2*r + 1
	}
	k := ndarray.NewReal(dims...)
	st := k.Strides()
	for off := range k.Data {
		sum := 0.0
		rem := off
		for ax := range dims {
			d := float64(rem/st[ax]-radius[ax]) / sigma[ax]
			rem %= st[ax]
			sum += d * d
		}
		k.Data[off] = math.Exp(-0.5 * sum)
	}
	floats.Scale(1/floats.Sum(k.Data), k.Data)
	return k, nil
}

// GaussianFilter blurs a 2D image with a Gaussian of the given per-axis sigma,
// truncated at four standard deviations. The image is zero padded.
func GaussianFilter(image *ndarray.Real, sigma [2]float64) (*ndarray.Real, error) {
	k, err := GaussianKernel(sigma[:], 4, nil)
	if err != nil {
		return nil, err
	}
	return ConvolveFFT(image, k, ConvSame, PadZeros)
}

// SigmoidTaper returns an (h, w) mask rising from 0 on the border pixels
// towards 1 in the interior, 2*(sigmoid(d/width)-0.5) with d the distance to
// the nearest border pixel.
func SigmoidTaper(h, w int, width float64) *ndarray.Real {
	t := ndarray.NewReal(h, w)
	for y := 0; y < h; y++ {
		dy := min(y, h-1-y)
		for x := 0; x < w; x++ {
			d := float64(min(dy, x, w-1-x))
			t.Data[y*w+x] = 2 * (1/(1+math.Exp(-d/width)) - 0.5)
		}
	}
	return t
}
