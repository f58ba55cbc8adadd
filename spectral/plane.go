package spectral

import (
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// plane addresses one (h, w) spatial plane inside a flat array.
type plane struct {
	h, w   int
	sy, sx int
}

func (p plane) gather(data []complex128, base int) [][]complex128 {
	m := make([][]complex128, p.h)
	for y := range m {
		m[y] = make([]complex128, p.w)
		for x := range m[y] {
			m[y][x] = data[base+y*p.sy+x*p.sx]
		}
	}
	return m
}

func (p plane) scatter(data []complex128, base int, m [][]complex128) {
	for y := range m {
		for x := range m[y] {
			data[base+y*p.sy+x*p.sx] = m[y][x]
		}
	}
}

func (p plane) transform(data []complex128, base int, forward bool, backend Backend) error {
	m := p.gather(data, base)
	switch backend {
	case BackendGonum:
		fft2InPlace(m, forward)
	case BackendGoDSP:
		if forward {
			m = fft.FFT2(m)
		} else {
			m = fft.IFFT2(m)
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnknownBackend, backend)
	}
	p.scatter(data, base, m)
	return nil
}

// fft2InPlace runs a 2D transform as rows then columns with gonum's CmplxFFT.
// Both directions are unnormalized.
func fft2InPlace(a [][]complex128, forward bool) {
	h := len(a)
	w := len(a[0])

	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	// rows
	for y := 0; y < h; y++ {
		if forward {
			rowFFT.Coefficients(a[y], a[y])
		} else {
			rowFFT.Sequence(a[y], a[y])
		}
	}

	// cols
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = a[y][x]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for y := 0; y < h; y++ {
			a[y][x] = col[y]
		}
	}
}
