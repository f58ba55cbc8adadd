// Package polarizer applies thin polarizing elements to vector fields.
// Vector fields carry three polarization components ordered (z, y, x).
package polarizer

import (
	"fmt"
	"math"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"gonum.org/v1/gonum/mat"
)

// jonesMatrix embeds the 2x2 Jones matrix in the (z, y, x) basis. The z row and
// column are zero.
func jonesMatrix(j00, j01, j10, j11 complex128) *mat.CDense {
	return mat.NewCDense(3, 3, []complex128{
		0, 0, 0,
		0, j11, j10,
		0, j01, j00,
	})
}

// Apply returns the field directly after an element with Jones coefficients
// j00, j01, j10, j11, computing u' = u . J along the polarization axis.
func Apply(f field.Field, j00, j01, j10, j11 complex128) (field.Field, error) {
	if f.Polarizations() != 3 {
		return field.Field{}, fmt.Errorf("%w: polarizers need a vector field with 3 polarization components, got %d",
			ndarray.ErrShapeMismatch, f.Polarizations())
	}
	jm := jonesMatrix(j00, j01, j10, j11)

	u := ndarray.NewComplex(f.Shape()...)
	stride := f.Channels() // distance between polarization components
	block := 3 * stride
	for base := 0; base < len(u.Data); base += block {
		for c := 0; c < stride; c++ {
			var in [3]complex128
			for p := range in {
				in[p] = f.U.Data[base+p*stride+c]
			}
			for q := 0; q < 3; q++ {
				var s complex128
				for p := 0; p < 3; p++ {
					s += in[p] * jm.At(p, q)
				}
				u.Data[base+q*stride+c] = s
			}
		}
	}
	return f.WithU(u), nil
}

// Linear applies a linear polarizer whose transmission axis makes angle (radians)
// with the horizontal (x) axis.
func Linear(f field.Field, angle float64) (field.Field, error) {
	c, s := math.Cos(angle), math.Sin(angle)
	j00 := complex(c*c, 0)
	j11 := complex(s*s, 0)
	j01 := complex(s*c, 0)
	return Apply(f, j00, j01, j01, j11)
}

// LeftCircular applies a left circular polarizer.
func LeftCircular(f field.Field) (field.Field, error) {
	return Apply(f, 1, -1i, 1i, 1)
}

// RightCircular applies a right circular polarizer.
func RightCircular(f field.Field) (field.Field, error) {
	return Apply(f, 1, 1i, -1i, 1)
}
