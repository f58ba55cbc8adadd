// Package spectral implements the 2D Fourier transforms used for propagation.
// Transforms run over the spatial axes (1 and 2) of an ndarray.Complex and are
// batched over every other axis. Conventions follow numpy: the forward
// transform is unnormalized and the inverse divides by H*W.
package spectral

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bob-anderson-ok/wavesim/ndarray"
	"gonum.org/v1/gonum/cmplxs"
	"golang.org/x/sync/errgroup"
)

// Backend selects the FFT implementation.
type Backend int

const (
	BackendGonum Backend = iota
	BackendGoDSP
)

func (b Backend) String() string {
	switch b {
	case BackendGonum:
		return "gonum"
	case BackendGoDSP:
		return "go-dsp"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ErrUnknownBackend is returned for a Backend value with no implementation.
var ErrUnknownBackend = errors.New("spectral: unknown FFT backend")

// Options tune how transforms are executed. The zero value uses gonum and runs
// all planes concurrently.
type Options struct {
	Backend Backend

	// LoopAxis, when set, names a non-spatial axis whose slabs are transformed
	// one after another. Only the planes of one slab are in flight at a time.
	LoopAxis *int
}

// LoopOver is a convenience for setting Options.LoopAxis.
func LoopOver(axis int) *int { return &axis }

// FFT2 returns the forward 2D transform of a over its spatial axes.
func FFT2(a *ndarray.Complex, opts Options) (*ndarray.Complex, error) {
	return transform(a, true, opts)
}

// IFFT2 returns the normalized inverse 2D transform of a over its spatial axes.
func IFFT2(a *ndarray.Complex, opts Options) (*ndarray.Complex, error) {
	return transform(a, false, opts)
}

func transform(a *ndarray.Complex, forward bool, opts Options) (*ndarray.Complex, error) {
	if a.Rank() < 3 {
		return nil, fmt.Errorf("%w: need (batch, height, width, ...) axes, got shape %v", ndarray.ErrShape, a.Shape)
	}
	if a.Shape[1] < 1 || a.Shape[2] < 1 {
		return nil, fmt.Errorf("%w: empty spatial plane in shape %v", ndarray.ErrShape, a.Shape)
	}
	groups, err := planeGroups(a.Shape, opts.LoopAxis)
	if err != nil {
		return nil, err
	}

	out := a.Clone()
	st := out.Strides()
	p := plane{h: a.Shape[1], w: a.Shape[2], sy: st[1], sx: st[2]}

	for _, bases := range groups {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, base := range bases {
			base := base
			g.Go(func() error {
				return p.transform(out.Data, base, forward, opts.Backend)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// go-dsp normalizes its inverse already.
	if !forward && opts.Backend == BackendGonum {
		cmplxs.Scale(complex(1/float64(p.h*p.w), 0), out.Data)
	}
	return out, nil
}

// planeGroups returns the flat offsets of element (0, 0) of every spatial plane,
// grouped by index along loopAxis (a single group when loopAxis is nil).
func planeGroups(shape []int, loopAxis *int) ([][]int, error) {
	outer := append([]int(nil), shape...)
	outer[1], outer[2] = 1, 1
	st := stridesOf(shape)

	n := 1
	if loopAxis != nil {
		ax := *loopAxis
		if ax < 0 || ax >= len(shape) || ax == 1 || ax == 2 {
			return nil, fmt.Errorf("%w: loop axis %d is not a batch axis of shape %v", ndarray.ErrShape, ax, shape)
		}
		n = shape[ax]
	}
	groups := make([][]int, n)
	forEachIndex(outer, func(idx []int) {
		off := 0
		for i, v := range idx {
			off += v * st[i]
		}
		g := 0
		if loopAxis != nil {
			g = idx[*loopAxis]
		}
		groups[g] = append(groups[g], off)
	})
	return groups, nil
}

func stridesOf(shape []int) []int {
	st := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= shape[i]
	}
	return st
}

func forEachIndex(shape []int, fn func(idx []int)) {
	for _, s := range shape {
		if s == 0 {
			return
		}
	}
	idx := make([]int, len(shape))
	for {
		fn(idx)
		k := len(shape) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return
		}
	}
}
