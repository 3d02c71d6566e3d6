// Package tensor provides a dense, row-major N-dimensional array used to hold
// benchmark result tables. A tensor with an empty shape is a scalar holding
// exactly one element.
package tensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrShapeMismatch indicates that the element count does not match the shape.
	ErrShapeMismatch = errors.New("tensor: shape does not match element count")
	// ErrInvalidShape indicates a negative dimension.
	ErrInvalidShape = errors.New("tensor: dimensions must be >= 0")
	// ErrIndexOutOfBounds indicates an index outside the tensor.
	ErrIndexOutOfBounds = errors.New("tensor: index out of bounds")
	// ErrInvalidPermutation indicates an axis permutation that is not a bijection.
	ErrInvalidPermutation = errors.New("tensor: invalid axis permutation")
)

// Tensor is a dense array of T stored in row-major order.
type Tensor[T any] struct {
	shape   []int
	strides []int
	data    []T
}

// FromSlice wraps data (without copying) as a tensor of the given shape.
func FromSlice[T any](data []T, shape ...int) (*Tensor[T], error) {
	n, err := numElements(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShapeMismatch, shape, n, len(data))
	}
	return build(slices.Clone(shape), data), nil
}

func build[T any](shape []int, data []T) *Tensor[T] {
	return &Tensor[T]{shape: shape, strides: rowMajorStrides(shape), data: data}
}

func numElements(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
		}
		n *= d
	}
	return n, nil
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// Shape returns a copy of the tensor dimensions.
func (t *Tensor[T]) Shape() []int { return slices.Clone(t.shape) }

// Rank returns the number of axes.
func (t *Tensor[T]) Rank() int { return len(t.shape) }

// Len returns the number of elements.
func (t *Tensor[T]) Len() int { return len(t.data) }

// Data returns a copy of the elements in row-major order.
func (t *Tensor[T]) Data() []T { return slices.Clone(t.data) }

func (t *Tensor[T]) offset(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("%w: %d indices for rank %d", ErrIndexOutOfBounds, len(idx), len(t.shape))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= t.shape[axis] {
			return 0, fmt.Errorf("%w: index %d on axis %d of size %d", ErrIndexOutOfBounds, i, axis, t.shape[axis])
		}
		off += i * t.strides[axis]
	}
	return off, nil
}

// At returns the element at idx. A scalar tensor is read with no indices.
func (t *Tensor[T]) At(idx ...int) (T, error) {
	off, err := t.offset(idx)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.data[off], nil
}

// MustAt is At for callers that already validated idx.
func (t *Tensor[T]) MustAt(idx ...int) T {
	v, err := t.At(idx...)
	if err != nil {
		panic(err)
	}
	return v
}

// Reshape returns a tensor sharing no storage with t and holding the same
// row-major elements under a new shape.
func (t *Tensor[T]) Reshape(shape ...int) (*Tensor[T], error) {
	return FromSlice(slices.Clone(t.data), shape...)
}

// Transpose permutes the axes of t: axis i of the result is axis perm[i] of t.
// With no arguments the axis order is reversed.
func (t *Tensor[T]) Transpose(perm ...int) (*Tensor[T], error) {
	rank := len(t.shape)
	if len(perm) == 0 {
		perm = make([]int, rank)
		for i := range perm {
			perm[i] = rank - 1 - i
		}
	}
	if len(perm) != rank {
		return nil, fmt.Errorf("%w: %v for rank %d", ErrInvalidPermutation, perm, rank)
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPermutation, perm)
		}
		seen[p] = true
	}

	shape := make([]int, rank)
	srcStrides := make([]int, rank)
	for i, p := range perm {
		shape[i] = t.shape[p]
		srcStrides[i] = t.strides[p]
	}

	out := build(shape, make([]T, len(t.data)))
	idx := make([]int, rank)
	for n := range out.data {
		off := 0
		for axis, i := range idx {
			off += i * srcStrides[axis]
		}
		out.data[n] = t.data[off]
		// odometer increment, last axis fastest
		for axis := rank - 1; axis >= 0; axis-- {
			idx[axis]++
			if idx[axis] < shape[axis] {
				break
			}
			idx[axis] = 0
		}
	}
	return out, nil
}

// Nested returns the elements as nested []any slices, one level per axis.
// A scalar tensor returns its single element.
func (t *Tensor[T]) Nested() any {
	if len(t.shape) == 0 {
		if len(t.data) == 0 {
			return nil
		}
		return t.data[0]
	}
	return t.nest(0, 0)
}

func (t *Tensor[T]) nest(axis, off int) any {
	n := t.shape[axis]
	if axis == len(t.shape)-1 {
		out := make([]T, n)
		copy(out, t.data[off:off+n])
		return out
	}
	out := make([]any, n)
	for i := range n {
		out[i] = t.nest(axis+1, off+i*t.strides[axis])
	}
	return out
}

// MarshalJSON encodes the tensor as nested JSON arrays.
func (t *Tensor[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Nested())
}

func (t *Tensor[T]) String() string {
	return fmt.Sprintf("%v", t.Nested())
}
