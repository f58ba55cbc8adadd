// Package sample models how a field is perturbed by a sample: a single thin
// phase/absorption screen, or a thick sample approximated as a stack of such
// screens separated by free-space propagation (the multislice method).
package sample

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/propagation"
	"github.com/bob-anderson-ok/wavesim/spectral"
)

// ThinSample multiplies f by exp(i*2*pi*(dn + i*absorption)*thickness/lambda).
// absorption and dn must have the same rank as the field and broadcast onto
// it; thickness is either a scalar (ndarray.Scalar) or broadcasts as well.
func ThinSample(f field.Field, absorption, dn, thickness *ndarray.Real) (field.Field, error) {
	if absorption.Rank() != f.Ndim() {
		return field.Field{}, fmt.Errorf("%w: absorption must have the same rank as the field (%d), got %v", ndarray.ErrShapeMismatch, f.Ndim(), absorption.Shape)
	}
	if dn.Rank() != f.Ndim() {
		return field.Field{}, fmt.Errorf("%w: refractive index change must have the same rank as the field (%d), got %v", ndarray.ErrShapeMismatch, f.Ndim(), dn.Shape)
	}

	wl := ndarray.NewReal(1, 1, 1, 1, f.Channels())
	for c := range wl.Data {
		wl.Data[c] = f.WavelengthAt(c)
	}

	// dn + i*absorption on the field's full shape
	index, err := ndarray.Map3(f.U, absorption, dn, func(_ complex128, a, d float64) complex128 {
		return complex(d, a)
	})
	if err != nil {
		return field.Field{}, err
	}
	transmission, err := ndarray.Map3(index, thickness, wl, func(q complex128, t, l float64) complex128 {
		return cmplx.Exp(1i * complex(2*math.Pi*t/l, 0) * q)
	})
	if err != nil {
		return field.Field{}, err
	}
	u, err := ndarray.Mul(f.U, transmission)
	if err != nil {
		return field.Field{}, err
	}
	return f.WithU(u), nil
}

// MultisliceOptions tune Multislice. Use DefaultMultisliceOptions as a base.
type MultisliceOptions struct {
	// Propagator is a precomputed kernel for one slice thickness on the padded
	// grid (see propagation.ExactKernel). Nil computes one.
	Propagator *ndarray.Complex

	// KyKx tilts the propagation direction, in cycles per unit length.
	KyKx [2]float64

	// ReferenceFraction is the fraction of the total stack thickness the field
	// is propagated back by after the last slice. 0.5 puts the output plane at
	// the middle of the stack, 0 leaves it at the exit surface. The zero value
	// of MultisliceOptions therefore reports the exit surface; a nil opts and
	// DefaultMultisliceOptions use the midplane.
	ReferenceFraction float64

	FFT spectral.Options
}

// DefaultMultisliceOptions references the output to the stack midplane.
func DefaultMultisliceOptions() *MultisliceOptions {
	return &MultisliceOptions{ReferenceFraction: 0.5}
}

// Multislice propagates f through a thick sample given as (D, H, W) stacks of
// absorption and refractive index change, one entry per slice of thickness
// thicknessPerSlice, in a medium of index n. The field is padded by nPad
// pixels on each side for the whole simulation and cropped back at the end.
// The stacks may be sized like the field (they are padded with the medium) or
// like the padded field. Nil opts means DefaultMultisliceOptions.
func Multislice(f field.Field, absorptionStack, dnStack *ndarray.Real, n, thicknessPerSlice float64, nPad int, opts *MultisliceOptions) (field.Field, error) {
	if opts == nil {
		opts = DefaultMultisliceOptions()
	}
	if !ndarray.SameShape(absorptionStack, dnStack) {
		return field.Field{}, fmt.Errorf("%w: absorption stack %v and dn stack %v differ", ndarray.ErrShapeMismatch, absorptionStack.Shape, dnStack.Shape)
	}
	if absorptionStack.Rank() != 3 {
		return field.Field{}, fmt.Errorf("%w: stacks must be (depth, height, width), got %v", ndarray.ErrShapeMismatch, absorptionStack.Shape)
	}

	padded, err := field.Pad(f, nPad)
	if err != nil {
		return field.Field{}, err
	}
	absorptionStack, err = fitStack(absorptionStack, f, padded, nPad)
	if err != nil {
		return field.Field{}, err
	}
	dnStack, err = fitStack(dnStack, f, padded, nPad)
	if err != nil {
		return field.Field{}, err
	}

	popts := propagation.Options{FFT: opts.FFT, KyKx: opts.KyKx}
	kernel := opts.Propagator
	if kernel == nil {
		kernel = propagation.ExactKernel(padded, thicknessPerSlice, n, opts.KyKx)
	}

	thickness := ndarray.Scalar(thicknessPerSlice)
	depth := absorptionStack.Shape[0]
	// Each slice acts on the field left by the previous one.
	for i := 0; i < depth; i++ {
		absorption, err := spatialSlice(absorptionStack, i, padded.Ndim())
		if err != nil {
			return field.Field{}, err
		}
		dn, err := spatialSlice(dnStack, i, padded.Ndim())
		if err != nil {
			return field.Field{}, err
		}
		if padded, err = ThinSample(padded, absorption, dn, thickness); err != nil {
			return field.Field{}, fmt.Errorf("slice %d: %w", i, err)
		}
		if padded, err = propagation.KernelPropagate(padded, kernel, popts); err != nil {
			return field.Field{}, fmt.Errorf("slice %d: %w", i, err)
		}
	}

	back := opts.ReferenceFraction * thicknessPerSlice * float64(depth)
	if back != 0 {
		padded, err = propagation.Exact(padded, -back, n, 0, propagation.ModeFull, popts)
		if err != nil {
			return field.Field{}, err
		}
	}
	return field.Crop(padded, nPad)
}

// fitStack zero-pads a stack sized like the unpadded field; stacks already
// sized like the padded field pass through.
func fitStack(stack *ndarray.Real, f, padded field.Field, nPad int) (*ndarray.Real, error) {
	h, w := stack.Shape[1], stack.Shape[2]
	switch {
	case h == padded.Height() && w == padded.Width():
		return stack, nil
	case h == f.Height() && w == f.Width():
		return ndarray.Pad(stack, []int{0, nPad, nPad})
	default:
		return nil, fmt.Errorf("%w: stack slices are %dx%d, field is %dx%d (%dx%d padded)",
			ndarray.ErrShapeMismatch, h, w, f.Height(), f.Width(), padded.Height(), padded.Width())
	}
}

func spatialSlice(stack *ndarray.Real, i, rank int) (*ndarray.Real, error) {
	s, err := ndarray.Slice2D(stack, i)
	if err != nil {
		return nil, err
	}
	return ndarray.Broadcast2DToSpatial(s, rank)
}
