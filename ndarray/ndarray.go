// Package ndarray provides the small dense N-dimensional array type that the
// propagation code passes around: row-major storage, symmetric zero padding and
// cropping, and numpy-style broadcasting for element-wise operations.
package ndarray

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when a requested shape, pad or crop is invalid.
	ErrShape = errors.New("ndarray: invalid shape")

	// ErrShapeMismatch is returned when two operands have incompatible shapes or ranks.
	ErrShapeMismatch = errors.New("ndarray: shape mismatch")
)

// Number is the element type constraint for Array.
type Number interface {
	~float64 | ~complex128
}

// Array is a dense row-major N-dimensional array. Operations in this module
// never modify an Array they did not allocate.
type Array[T Number] struct {
	Shape []int
	Data  []T
}

// Complex is a complex-valued array (wave fields, transfer functions).
type Complex = Array[complex128]

// Real is a real-valued array (absorption, refractive index changes, thickness).
type Real = Array[float64]

// New allocates a zero-filled array with the given shape.
func New[T Number](shape ...int) *Array[T] {
	s := append([]int(nil), shape...)
	return &Array[T]{Shape: s, Data: make([]T, sizeOf(s))}
}

// NewComplex is New for complex128 arrays.
func NewComplex(shape ...int) *Complex { return New[complex128](shape...) }

// NewReal is New for float64 arrays.
func NewReal(shape ...int) *Real { return New[float64](shape...) }

// FromSlice wraps data (without copying) as an array of the given shape.
func FromSlice[T Number](data []T, shape ...int) (*Array[T], error) {
	s := append([]int(nil), shape...)
	if n := sizeOf(s); n != len(data) {
		return nil, fmt.Errorf("%w: have %d elements, shape %v needs %d", ErrShape, len(data), s, n)
	}
	return &Array[T]{Shape: s, Data: data}, nil
}

// Scalar returns a rank-0 real array that broadcasts against any shape.
func Scalar(v float64) *Real {
	return &Real{Shape: []int{}, Data: []float64{v}}
}

// Full returns an array of the given shape with every element set to v.
func Full[T Number](v T, shape ...int) *Array[T] {
	a := New[T](shape...)
	for i := range a.Data {
		a.Data[i] = v
	}
	return a
}

// Rank is the number of axes.
func (a *Array[T]) Rank() int { return len(a.Shape) }

// Size is the number of elements.
func (a *Array[T]) Size() int { return len(a.Data) }

// Strides returns the row-major element strides of each axis.
func (a *Array[T]) Strides() []int { return stridesOf(a.Shape) }

// Offset converts a multi-index into a flat offset into Data.
func (a *Array[T]) Offset(idx ...int) int {
	off := 0
	for i, n := range a.Shape {
		off = off*n + idx[i]
	}
	return off
}

// At returns the element at idx.
func (a *Array[T]) At(idx ...int) T { return a.Data[a.Offset(idx...)] }

// Set stores v at idx. Only meant for arrays the caller owns.
func (a *Array[T]) Set(v T, idx ...int) { a.Data[a.Offset(idx...)] = v }

// Clone returns a deep copy.
func (a *Array[T]) Clone() *Array[T] {
	return &Array[T]{
		Shape: append([]int(nil), a.Shape...),
		Data:  append([]T(nil), a.Data...),
	}
}

// Reshape returns a view of a with a new shape of the same size. Data is shared.
func (a *Array[T]) Reshape(shape ...int) (*Array[T], error) {
	s := append([]int(nil), shape...)
	if sizeOf(s) != len(a.Data) {
		return nil, fmt.Errorf("%w: cannot reshape %v to %v", ErrShape, a.Shape, s)
	}
	return &Array[T]{Shape: s, Data: a.Data}, nil
}

// SameShape reports whether a and b have identical shapes.
func SameShape[T, U Number](a *Array[T], b *Array[U]) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
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

// forEachIndex calls fn for every multi-index of shape in row-major order.
// The idx slice is reused between calls.
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
