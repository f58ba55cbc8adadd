package filters

import (
	"errors"
	"fmt"

	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/spectral"
)

type ConvMode int

const (
	ConvSame ConvMode = iota
	ConvFull
	ConvValid
)

type PaddingMode int

const (
	PadZeros PaddingMode = iota
	PadReflect
	PadReplicate
	PadCircular
)

// ErrEmpty is returned when the image or the kernel has no pixels.
var ErrEmpty = errors.New("filters: empty image or kernel")

// ConvolveFFT convolves a 2D image with a 2D kernel using the FFT.
//
// mode:  ConvSame (image sized, kernel center aligned), ConvFull or ConvValid
// pad:   how the image is extended past its border
//
// The kernel is used as stored, so a centered kernel leaves ConvSame output
// registered with the input.
func ConvolveFFT(image, kernel *ndarray.Real, mode ConvMode, pad PaddingMode) (*ndarray.Real, error) {
	if image.Rank() != 2 || kernel.Rank() != 2 {
		return nil, fmt.Errorf("%w: image %v and kernel %v must be 2D", ndarray.ErrShape, image.Shape, kernel.Shape)
	}
	H, W := image.Shape[0], image.Shape[1]
	Ph, Pw := kernel.Shape[0], kernel.Shape[1]
	if H == 0 || W == 0 || Ph == 0 || Pw == 0 {
		return nil, ErrEmpty
	}

	// Output dimensions and where they start inside the full result.
	var outH, outW, offY, offX int
	switch mode {
	case ConvSame:
		outH, outW = H, W
		offY, offX = Ph/2, Pw/2
	case ConvFull:
		outH, outW = H+Ph-1, W+Pw-1
	case ConvValid:
		outH, outW = H-Ph+1, W-Pw+1
		offY, offX = Ph-1, Pw-1
		if outH <= 0 || outW <= 0 {
			return nil, fmt.Errorf("%w: valid convolution requested but kernel %v larger than image %v",
				ndarray.ErrShape, kernel.Shape, image.Shape)
		}
	default:
		return nil, fmt.Errorf("filters: unknown ConvMode %d", mode)
	}

	// The image is extended by the kernel size minus one on every side. Wrap
	// around from the circular FFT only reaches the first Ph-1 rows (Pw-1
	// columns) of the result, which are never read.
	eh, ew := H+2*(Ph-1), W+2*(Pw-1)
	FH := nextPow2(eh)
	FW := nextPow2(ew)

	A := ndarray.NewComplex(1, FH, FW)
	for y := 0; y < eh; y++ {
		for x := 0; x < ew; x++ {
			A.Data[y*FW+x] = complex(sample2D(image, y-(Ph-1), x-(Pw-1), pad), 0)
		}
	}
	B := ndarray.NewComplex(1, FH, FW)
	for y := 0; y < Ph; y++ {
		for x := 0; x < Pw; x++ {
			B.Data[y*FW+x] = complex(kernel.Data[y*Pw+x], 0)
		}
	}

	fa, err := spectral.FFT2(A, spectral.Options{})
	if err != nil {
		return nil, err
	}
	fb, err := spectral.FFT2(B, spectral.Options{})
	if err != nil {
		return nil, err
	}
	for i := range fa.Data {
		fa.Data[i] *= fb.Data[i]
	}
	conv, err := spectral.IFFT2(fa, spectral.Options{})
	if err != nil {
		return nil, err
	}

	// full[y][x] sits at conv[y+Ph-1][x+Pw-1].
	out := ndarray.NewReal(outH, outW)
	for y := 0; y < outH; y++ {
		row := (y + offY + Ph - 1) * FW
		for x := 0; x < outW; x++ {
			out.Data[y*outW+x] = cleanZero(real(conv.Data[row+x+offX+Pw-1]))
		}
	}
	return out, nil
}

// -------------------- Padding --------------------

func sample2D(img *ndarray.Real, y, x int, mode PaddingMode) float64 {
	H, W := img.Shape[0], img.Shape[1]

	if 0 <= y && y < H && 0 <= x && x < W {
		return img.Data[y*W+x]
	}

	switch mode {
	case PadReplicate:
		return img.Data[clamp(y, 0, H-1)*W+clamp(x, 0, W-1)]
	case PadReflect:
		return img.Data[reflectIndex(y, H)*W+reflectIndex(x, W)]
	case PadCircular:
		return img.Data[mod(y, H)*W+mod(x, W)]
	}
	return 0
}

// -------------------- utility --------------------

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// reflectIndex implements "reflect" padding without repeating edge pixels.
// Example for n=5 indices: ... 2 1 0 1 2 3 4 3 2 1 0 1 ...
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2*n - 2
	i = mod(i, period)
	if i >= n {
		i = period - i
	}
	return i
}

// avoid tiny FFT residue where the result should be exactly zero
func cleanZero(x float64) float64 {
	if x < 1e-15 && x > -1e-15 {
		return 0
	}
	return x
}
