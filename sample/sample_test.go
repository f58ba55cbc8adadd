package sample

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/bob-anderson-ok/wavesim/field"
	"github.com/bob-anderson-ok/wavesim/ndarray"
	"github.com/bob-anderson-ok/wavesim/propagation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	size       = 32
	dx         = 0.3
	wavelength = 0.5
	medium     = 1.33
)

func beam(t *testing.T) field.Field {
	t.Helper()
	f, err := field.GaussianBeam(size, size, dx, []float64{wavelength}, 2.0)
	require.NoError(t, err)
	return f
}

func randomStack(seed int64, depth int, scale float64) *ndarray.Real {
	rng := rand.New(rand.NewSource(seed))
	s := ndarray.NewReal(depth, size, size)
	for i := range s.Data {
		s.Data[i] = scale * rng.Float64()
	}
	return s
}

func lift(t *testing.T, stack *ndarray.Real, i int) *ndarray.Real {
	t.Helper()
	s, err := spatialSlice(stack, i, field.Rank)
	require.NoError(t, err)
	return s
}

func requireSameField(t *testing.T, want, got field.Field, tol float64) {
	t.Helper()
	require.Equal(t, want.Shape(), got.Shape())
	for i := range want.U.Data {
		if d := cmplx.Abs(want.U.Data[i] - got.U.Data[i]); d > tol {
			t.Fatalf("element %d differs by %g: want %v got %v", i, d, want.U.Data[i], got.U.Data[i])
		}
	}
}

func TestThinSamplePhaseAndAbsorption(t *testing.T) {
	f := beam(t)
	dn := ndarray.Full(0.05, 1, size, size, 1, 1)
	absorption := ndarray.Full(0.01, 1, size, size, 1, 1)
	thickness := 2.0

	out, err := ThinSample(f, absorption, dn, ndarray.Scalar(thickness))
	require.NoError(t, err)

	wantPhase := 2 * math.Pi * 0.05 * thickness / wavelength
	wantAtten := math.Exp(-2 * math.Pi * 0.01 * thickness / wavelength)
	for i, v := range out.U.Data {
		in := f.U.Data[i]
		if cmplx.Abs(in) < 1e-6 {
			continue
		}
		ratio := v / in
		assert.InDelta(t, wantAtten, cmplx.Abs(ratio), 1e-12)
		assert.InDelta(t, wantPhase, cmplx.Phase(ratio), 1e-12)
	}
	// the input is left alone
	assert.Equal(t, complex(1, 0), f.U.At(0, size/2, size/2, 0, 0))
}

func TestThinSamplePerPixelThickness(t *testing.T) {
	f := beam(t)
	dn := ndarray.Full(0.1, 1, 1, 1, 1, 1)
	zero := ndarray.Full(0.0, 1, 1, 1, 1, 1)
	thickness := ndarray.NewReal(1, size, size, 1, 1)
	thickness.Set(wavelength/0.1/2, 0, size/2, size/2, 0, 0) // half a wave

	out, err := ThinSample(f, zero, dn, thickness)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, real(out.U.At(0, size/2, size/2, 0, 0)), 1e-12)
	assert.Equal(t, f.U.At(0, 3, 3, 0, 0), out.U.At(0, 3, 3, 0, 0))
}

func TestThinSampleRankMismatch(t *testing.T) {
	f := beam(t)
	ok := ndarray.NewReal(1, size, size, 1, 1)
	_, err := ThinSample(f, ndarray.NewReal(size, size), ok, ndarray.Scalar(1))
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))
	_, err = ThinSample(f, ok, ndarray.NewReal(size, size), ndarray.Scalar(1))
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))
	_, err = ThinSample(f, ndarray.NewReal(1, 4, 4, 1, 1), ok, ndarray.Scalar(1))
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))
}

func TestSingleSliceMatchesHalfStepPropagation(t *testing.T) {
	f := beam(t)
	absorption := randomStack(1, 1, 0.01)
	dn := randomStack(2, 1, 0.05)
	thickness, nPad := 1.5, 16

	got, err := Multislice(f, absorption, dn, medium, thickness, nPad, nil)
	require.NoError(t, err)

	thin, err := ThinSample(f, lift(t, absorption, 0), lift(t, dn, 0), ndarray.Scalar(thickness))
	require.NoError(t, err)
	want, err := propagation.Exact(thin, thickness/2, medium, 2*nPad, propagation.ModeSame, propagation.Options{})
	require.NoError(t, err)

	requireSameField(t, want, got, 1e-9)
}

func TestZeroOptionsReportExitSurface(t *testing.T) {
	f := beam(t)
	absorption := randomStack(1, 1, 0.01)
	dn := randomStack(2, 1, 0.05)
	thickness, nPad := 1.5, 16

	got, err := Multislice(f, absorption, dn, medium, thickness, nPad, &MultisliceOptions{})
	require.NoError(t, err)

	thin, err := ThinSample(f, lift(t, absorption, 0), lift(t, dn, 0), ndarray.Scalar(thickness))
	require.NoError(t, err)
	want, err := propagation.Exact(thin, thickness, medium, 2*nPad, propagation.ModeSame, propagation.Options{})
	require.NoError(t, err)
	requireSameField(t, want, got, 1e-9)

	mid, err := Multislice(f, absorption, dn, medium, thickness, nPad, &MultisliceOptions{ReferenceFraction: 0.5})
	require.NoError(t, err)
	def, err := Multislice(f, absorption, dn, medium, thickness, nPad, nil)
	require.NoError(t, err)
	requireSameField(t, def, mid, 0)
}

func TestMultisliceRunsSlicesInOrder(t *testing.T) {
	f := beam(t)
	absorption := randomStack(3, 3, 0.01)
	dn := randomStack(4, 3, 0.05)
	thickness, nPad := 0.8, 8
	opts := &MultisliceOptions{ReferenceFraction: 0}

	got, err := Multislice(f, absorption, dn, medium, thickness, nPad, opts)
	require.NoError(t, err)

	want, err := field.Pad(f, nPad)
	require.NoError(t, err)
	padA, err := ndarray.Pad(absorption, []int{0, nPad, nPad})
	require.NoError(t, err)
	padD, err := ndarray.Pad(dn, []int{0, nPad, nPad})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		want, err = ThinSample(want, lift(t, padA, i), lift(t, padD, i), ndarray.Scalar(thickness))
		require.NoError(t, err)
		want, err = propagation.Exact(want, thickness, medium, 0, propagation.ModeFull, propagation.Options{})
		require.NoError(t, err)
	}
	want, err = field.Crop(want, nPad)
	require.NoError(t, err)
	requireSameField(t, want, got, 1e-9)

	// reversing the stack gives a different field
	rev := ndarray.NewReal(3, size, size)
	revD := ndarray.NewReal(3, size, size)
	n := size * size
	for i := 0; i < 3; i++ {
		copy(rev.Data[i*n:(i+1)*n], absorption.Data[(2-i)*n:(3-i)*n])
		copy(revD.Data[i*n:(i+1)*n], dn.Data[(2-i)*n:(3-i)*n])
	}
	other, err := Multislice(f, rev, revD, medium, thickness, nPad, opts)
	require.NoError(t, err)
	diff := 0.0
	for i := range other.U.Data {
		diff = math.Max(diff, cmplx.Abs(other.U.Data[i]-got.U.Data[i]))
	}
	assert.Greater(t, diff, 1e-6)
}

func TestMultisliceWithSuppliedPropagator(t *testing.T) {
	f := beam(t)
	absorption := randomStack(5, 2, 0.01)
	dn := randomStack(6, 2, 0.05)
	thickness, nPad := 1.0, 8

	padded, err := field.Pad(f, nPad)
	require.NoError(t, err)
	opts := DefaultMultisliceOptions()
	opts.Propagator = propagation.ExactKernel(padded, thickness, medium, opts.KyKx)

	a, err := Multislice(f, absorption, dn, medium, thickness, nPad, opts)
	require.NoError(t, err)
	b, err := Multislice(f, absorption, dn, medium, thickness, nPad, nil)
	require.NoError(t, err)
	requireSameField(t, b, a, 0)

	opts.Propagator = ndarray.NewComplex(1, size, size, 1, 1)
	_, err = Multislice(f, absorption, dn, medium, thickness, nPad, opts)
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))
}

func TestMultisliceAcceptsPaddedStacks(t *testing.T) {
	f := beam(t)
	absorption := randomStack(7, 2, 0.01)
	dn := randomStack(8, 2, 0.05)
	padA, err := ndarray.Pad(absorption, []int{0, 4, 4})
	require.NoError(t, err)
	padD, err := ndarray.Pad(dn, []int{0, 4, 4})
	require.NoError(t, err)

	a, err := Multislice(f, absorption, dn, medium, 1, 4, nil)
	require.NoError(t, err)
	b, err := Multislice(f, padA, padD, medium, 1, 4, nil)
	require.NoError(t, err)
	requireSameField(t, a, b, 0)
	assert.Equal(t, f.Shape(), a.Shape())
}

func TestMultisliceShapeErrors(t *testing.T) {
	f := beam(t)
	_, err := Multislice(f, randomStack(1, 2, 1), randomStack(1, 3, 1), medium, 1, 4, nil)
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))

	_, err = Multislice(f, ndarray.NewReal(2, 10, 10), ndarray.NewReal(2, 10, 10), medium, 1, 4, nil)
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))

	_, err = Multislice(f, ndarray.NewReal(size, size), ndarray.NewReal(size, size), medium, 1, 4, nil)
	assert.True(t, errors.Is(err, ndarray.ErrShapeMismatch))
}
