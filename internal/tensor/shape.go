package tensor

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrShapeOverflow is returned when a shape's element or byte count does not fit in an int.
var ErrShapeOverflow = errors.New("shape size overflows int")

// Shape represents the dimensions of a tensor.
// The quantizer treats it as opaque: only NumElements and equality matter.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that no dimension is negative and that the element count fits in an int.
// Zero-sized dimensions are allowed.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	_, err := s.ByteSize(1)
	return err
}

// ByteSize returns NumElements()*elemSize, or ErrShapeOverflow if the product
// does not fit in an int. The shape must not contain negative dimensions.
func (s Shape) ByteSize(elemSize int) (int, error) {
	n := elemSize
	for _, dim := range s {
		if dim == 0 {
			return 0, nil
		}
	}
	for _, dim := range s {
		if n > math.MaxInt/dim {
			return 0, fmt.Errorf("%w: %v x %d bytes", ErrShapeOverflow, s, elemSize)
		}
		n *= dim
	}
	return n, nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

// ComputeStrides calculates row-major strides for the shape.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}
