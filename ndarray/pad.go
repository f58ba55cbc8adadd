package ndarray

import "fmt"

// Pad symmetrically zero-pads a, adding widths[i] elements on each side of axis i.
// A width of 0 leaves that axis unchanged.
func Pad[T Number](a *Array[T], widths []int) (*Array[T], error) {
	if len(widths) != a.Rank() {
		return nil, fmt.Errorf("%w: %d pad widths for rank %d array", ErrShapeMismatch, len(widths), a.Rank())
	}
	shape := make([]int, a.Rank())
	for i, w := range widths {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative pad width %d on axis %d", ErrShape, w, i)
		}
		shape[i] = a.Shape[i] + 2*w
	}
	out := New[T](shape...)
	dst := out.Strides()
	k := 0
	forEachIndex(a.Shape, func(idx []int) {
		off := 0
		for i, v := range idx {
			off += (v + widths[i]) * dst[i]
		}
		out.Data[off] = a.Data[k]
		k++
	})
	return out, nil
}

// Crop symmetrically removes lengths[i] elements from each side of axis i.
// It is the inverse of Pad given the same widths. A length of 0 leaves the axis untouched.
func Crop[T Number](a *Array[T], lengths []int) (*Array[T], error) {
	if len(lengths) != a.Rank() {
		return nil, fmt.Errorf("%w: %d crop lengths for rank %d array", ErrShapeMismatch, len(lengths), a.Rank())
	}
	shape := make([]int, a.Rank())
	for i, n := range lengths {
		if n < 0 || 2*n > a.Shape[i] {
			return nil, fmt.Errorf("%w: cannot crop %d from each side of axis %d with size %d", ErrShape, n, i, a.Shape[i])
		}
		shape[i] = a.Shape[i] - 2*n
	}
	out := New[T](shape...)
	src := a.Strides()
	k := 0
	forEachIndex(shape, func(idx []int) {
		off := 0
		for i, v := range idx {
			off += (v + lengths[i]) * src[i]
		}
		out.Data[k] = a.Data[off]
		k++
	})
	return out, nil
}

// SpatialWidths returns a per-axis width list for an array of the given rank with
// n on the spatial axes (1 and 2) and 0 elsewhere.
func SpatialWidths(rank, n int) []int {
	w := make([]int, rank)
	if rank > 2 {
		w[1], w[2] = n, n
	}
	return w
}
