package ndarray

import "fmt"

// Broadcastable checks that src can be broadcast onto dst: equal rank, and every
// src axis either matches dst or has size 1. A rank-0 src broadcasts onto anything.
func Broadcastable(dst, src []int) error {
	if len(src) == 0 {
		return nil
	}
	if len(dst) != len(src) {
		return fmt.Errorf("%w: rank %d cannot broadcast to rank %d", ErrShapeMismatch, len(src), len(dst))
	}
	for i := range dst {
		if src[i] != dst[i] && src[i] != 1 {
			return fmt.Errorf("%w: shape %v cannot broadcast to %v", ErrShapeMismatch, src, dst)
		}
	}
	return nil
}

// broadcastStrides returns strides for reading src while walking dst; broadcast
// axes get a stride of 0.
func broadcastStrides(dst, src []int) []int {
	st := make([]int, len(dst))
	if len(src) == 0 {
		return st
	}
	s := stridesOf(src)
	for i := range dst {
		if src[i] != 1 {
			st[i] = s[i]
		}
	}
	return st
}

// Map2 returns a new array shaped like a whose elements are fn(a, b) with b broadcast onto a.
func Map2[T, U Number](a *Array[T], b *Array[U], fn func(T, U) T) (*Array[T], error) {
	if err := Broadcastable(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	out := &Array[T]{Shape: append([]int(nil), a.Shape...), Data: make([]T, len(a.Data))}
	bst := broadcastStrides(a.Shape, b.Shape)
	k := 0
	forEachIndex(a.Shape, func(idx []int) {
		off := 0
		for i, v := range idx {
			off += v * bst[i]
		}
		out.Data[k] = fn(a.Data[k], b.Data[off])
		k++
	})
	return out, nil
}

// Map3 is Map2 with two broadcast operands.
func Map3[T, U, V Number](a *Array[T], b *Array[U], c *Array[V], fn func(T, U, V) T) (*Array[T], error) {
	if err := Broadcastable(a.Shape, b.Shape); err != nil {
		return nil, err
	}
	if err := Broadcastable(a.Shape, c.Shape); err != nil {
		return nil, err
	}
	out := &Array[T]{Shape: append([]int(nil), a.Shape...), Data: make([]T, len(a.Data))}
	bst := broadcastStrides(a.Shape, b.Shape)
	cst := broadcastStrides(a.Shape, c.Shape)
	k := 0
	forEachIndex(a.Shape, func(idx []int) {
		bo, co := 0, 0
		for i, v := range idx {
			bo += v * bst[i]
			co += v * cst[i]
		}
		out.Data[k] = fn(a.Data[k], b.Data[bo], c.Data[co])
		k++
	})
	return out, nil
}

// Mul multiplies a element-wise by b broadcast onto a.
func Mul(a, b *Complex) (*Complex, error) {
	return Map2(a, b, func(x, y complex128) complex128 { return x * y })
}

// Broadcast2DToSpatial lifts an (H, W) array to the given rank with the spatial
// axes at positions 1 and 2 and size-1 axes elsewhere. Data is shared.
func Broadcast2DToSpatial[T Number](a *Array[T], rank int) (*Array[T], error) {
	if a.Rank() != 2 {
		return nil, fmt.Errorf("%w: expected a 2D array, got shape %v", ErrShapeMismatch, a.Shape)
	}
	if rank < 3 {
		return nil, fmt.Errorf("%w: cannot place spatial axes in rank %d", ErrShape, rank)
	}
	shape := make([]int, rank)
	for i := range shape {
		shape[i] = 1
	}
	shape[1], shape[2] = a.Shape[0], a.Shape[1]
	return a.Reshape(shape...)
}

// Slice2D returns a view of the i-th (H, W) plane of a (D, H, W) stack.
func Slice2D[T Number](a *Array[T], i int) (*Array[T], error) {
	if a.Rank() != 3 {
		return nil, fmt.Errorf("%w: expected a (D, H, W) stack, got shape %v", ErrShapeMismatch, a.Shape)
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("%w: slice %d out of range for depth %d", ErrShape, i, a.Shape[0])
	}
	n := a.Shape[1] * a.Shape[2]
	return &Array[T]{Shape: []int{a.Shape[1], a.Shape[2]}, Data: a.Data[i*n : (i+1)*n]}, nil
}
