package field

import (
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/wavesim/ndarray"
)

// Empty returns a zero scalar field with batch size 1 and one channel per wavelength.
func Empty(height, width int, dx float64, spectrum []float64) (Field, error) {
	u := ndarray.NewComplex(1, height, width, 1, len(spectrum))
	return New(u, []float64{dx}, spectrum, nil)
}

// PlaneWave returns a unit-amplitude scalar plane wave. kykx is the transverse
// spatial frequency (cycles per unit length) of the propagation direction; the
// zero value is a wave travelling along the optical axis.
func PlaneWave(height, width int, dx float64, spectrum []float64, kykx [2]float64) (Field, error) {
	f, err := Empty(height, width, dx, spectrum)
	if err != nil {
		return Field{}, err
	}
	ys := Coordinates(height, dx)
	xs := Coordinates(width, dx)
	for i, y := range ys {
		for j, x := range xs {
			v := cmplx.Exp(complex(0, 2*math.Pi*(kykx[0]*y+kykx[1]*x)))
			for ch := range spectrum {
				f.U.Set(v, 0, i, j, 0, ch)
			}
		}
	}
	return f, nil
}

// GaussianBeam returns a scalar Gaussian amplitude profile exp(-r^2/waist^2) at its waist.
func GaussianBeam(height, width int, dx float64, spectrum []float64, waist float64) (Field, error) {
	f, err := Empty(height, width, dx, spectrum)
	if err != nil {
		return Field{}, err
	}
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			v := complex(math.Exp(-f.L2Sq(i, j, 0)/(waist*waist)), 0)
			for ch := range spectrum {
				f.U.Set(v, 0, i, j, 0, ch)
			}
		}
	}
	return f, nil
}

// VectorPlaneWave returns an on-axis vector plane wave whose (y, x) components
// are given by the Jones vector. The z component is zero.
func VectorPlaneWave(height, width int, dx float64, spectrum []float64, jones [2]complex128) (Field, error) {
	u := ndarray.NewComplex(1, height, width, 3, len(spectrum))
	for i := 0; i < height; i++ {
		for j := 0; j < width; j++ {
			for ch := range spectrum {
				u.Set(jones[0], 0, i, j, 1, ch)
				u.Set(jones[1], 0, i, j, 2, ch)
			}
		}
	}
	return New(u, []float64{dx}, spectrum, nil)
}
