/*
 *	Copyright 2024 TensorIR Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package shapes defines Shape and associated tools.
//
// Shape represents the shape (rank, dimensions and DType) of either a Tensor
// or the expected shape of the value of a node in a computation graph. The
// DType enumeration is the one from github.com/gomlx/gopjrt/dtypes.
//
// ## Glossary
//
//   - Rank: number of axes (dimensions) of a Tensor.
//   - Axis: the index of a dimension on a multidimensional Tensor. We refer to
//     a dimension index as "axis" (plural axes) and to its size as its
//     dimension.
//   - Dimension: the size of a Tensor in one of its axes.
//   - DType: the data type of the unit element in a tensor.
//   - Scalar: a shape with no axes (rank 0), a single value of the DType.
//
// Example: `[][]int32{{0, 1, 2}, {3, 4, 5}}` converted to a Tensor has shape
// `(Int32)[2 3]`: rank 2, axis 0 has dimension 2 and axis 1 has dimension 3.
// This shape is created with `shapes.Make(dtypes.Int32, 2, 3)`.
//
// A dimension may also be marked as dynamic (DynamicDim): its size is only
// known when the graph is executed. Operators whose output length depends on
// input values (e.g. a range generator) produce dynamic dimensions.
package shapes

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	. "github.com/gomlx/gopjrt/dtypes"
	"slices"
)

// DynamicDim marks an axis whose dimension is only known at execution time.
const DynamicDim = -1

// Shape represents the shape of either a Tensor or the expected shape
// of the value from a computation node.
//
// Use Make to create a new shape.
type Shape struct {
	DType      DType
	Dimensions []int
}

// Make returns a Shape structure filled with the values given.
// All dimensions must be positive; see MakeDynamic for shapes with
// execution-time dimensions.
func Make(dtype DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 {
			exceptions.Panicf("shapes.Make(%s): cannot create a shape with an axis with dimension <= 0", s)
		}
	}
	return s
}

// MakeDynamic is like Make, but accepts DynamicDim (-1) for axes whose
// dimension is only known at execution time.
func MakeDynamic(dtype DType, dimensions ...int) Shape {
	s := Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}
	for _, dim := range dimensions {
		if dim <= 0 && dim != DynamicDim {
			exceptions.Panicf("shapes.MakeDynamic(%s): dimensions must be positive or DynamicDim", s)
		}
	}
	return s
}

// Scalar returns a scalar Shape for the given type.
func Scalar[T Number]() Shape {
	return Shape{DType: FromGenericsType[T]()}
}

// Invalid returns an invalid shape.
//
// Invalid().Ok() == false.
func Invalid() Shape {
	return Shape{DType: InvalidDType}
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just
// instantiating it with Shape{}, is invalid.
func (s Shape) Ok() bool { return s.DType != InvalidDType }

// Rank of the shape, that is, the number of dimensions.
func (s Shape) Rank() int { return len(s.Dimensions) }

// IsScalar returns whether the shape represents a scalar: no dimensions (rank==0).
func (s Shape) IsScalar() bool { return s.Ok() && s.Rank() == 0 }

// IsFullyDefined returns whether all dimensions are static (no DynamicDim).
func (s Shape) IsFullyDefined() bool {
	return !slices.Contains(s.Dimensions, DynamicDim)
}

// Dim returns the dimension of the given axis. axis can take negative numbers,
// in which case it counts from the end -- so axis=-1 refers to the last axis.
// It panics for an out-of-bound axis.
func (s Shape) Dim(axis int) int {
	adjustedAxis := axis
	if adjustedAxis < 0 {
		adjustedAxis += s.Rank()
	}
	if adjustedAxis < 0 || adjustedAxis >= s.Rank() {
		exceptions.Panicf("Shape.Dim(%d) out-of-bounds for rank %d (shape=%s)", axis, s.Rank(), s)
	}
	return s.Dimensions[adjustedAxis]
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// HasShape is satisfied by any value with an associated Shape -- Shape itself,
// tensors and graph nodes.
type HasShape interface {
	Shape() Shape
}

// String implements stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	parts := make([]string, 0, s.Rank())
	for _, dim := range s.Dimensions {
		if dim == DynamicDim {
			parts = append(parts, "?")
		} else {
			parts = append(parts, fmt.Sprintf("%d", dim))
		}
	}
	return fmt.Sprintf("(%s)[%s]", s.DType, strings.Join(parts, " "))
}

// Size returns the number of elements of DType needed for this shape, the
// product of all dimensions. It returns DynamicDim if the shape is not fully
// defined.
func (s Shape) Size() (size int) {
	if !s.IsFullyDefined() {
		return DynamicDim
	}
	size = 1
	for _, d := range s.Dimensions {
		size *= d
	}
	return
}

// Memory returns the number of bytes needed to store an array of the given
// shape. It is undefined (negative) for shapes not fully defined.
func (s Shape) Memory() int {
	if !s.IsFullyDefined() {
		return DynamicDim
	}
	return int(s.DType.Memory()) * s.Size()
}

// Equal compares two shapes for equality: dtype and dimensions are compared.
func (s Shape) Equal(s2 Shape) bool {
	if s.DType != s2.DType {
		return false
	}
	return s.EqualDimensions(s2)
}

// EqualDimensions compares two shapes for equality of dimensions. DTypes may differ.
func (s Shape) EqualDimensions(s2 Shape) bool {
	if s.Rank() != s2.Rank() {
		return false
	}
	return slices.Equal(s.Dimensions, s2.Dimensions)
}

// CompatibleDimensions reports whether the two shapes could hold the same
// value at execution time: dimensions must be equal, except where either side
// is dynamic.
func (s Shape) CompatibleDimensions(s2 Shape) bool {
	if s.Rank() != s2.Rank() {
		return false
	}
	for axis, dim := range s.Dimensions {
		dim2 := s2.Dimensions[axis]
		if dim != dim2 && dim != DynamicDim && dim2 != DynamicDim {
			return false
		}
	}
	return true
}

// Clone returns a new deep copy of the shape.
func (s Shape) Clone() (s2 Shape) {
	s2.DType = s.DType
	s2.Dimensions = slices.Clone(s.Dimensions)
	return
}

// ConcatenateDimensions of two shapes. The resulting rank is the sum of both
// ranks. They must have the same dtype. If any of them is a scalar, the
// resulting shape is a copy of the other.
func ConcatenateDimensions(s1, s2 Shape) (shape Shape) {
	if s1.DType == InvalidDType || s2.DType == InvalidDType || s1.DType != s2.DType {
		return
	}
	if s1.IsScalar() {
		return s2.Clone()
	} else if s2.IsScalar() {
		return s1.Clone()
	}
	shape.DType = s1.DType
	shape.Dimensions = make([]int, s1.Rank()+s2.Rank())
	copy(shape.Dimensions, s1.Dimensions)
	copy(shape.Dimensions[s1.Rank():], s2.Dimensions)
	return
}

// BroadcastShapes returns the shape resulting from broadcasting s1 and s2
// together with numpy-style rules: shapes are aligned on their trailing axes;
// at each axis the dimensions must be equal, or one of them must be 1 (which
// is then expanded to the other). Dynamic dimensions only broadcast against
// equal or size-1 dimensions.
//
// It panics if the shapes are not broadcast-compatible or dtypes differ.
func BroadcastShapes(s1, s2 Shape) Shape {
	if s1.DType != s2.DType {
		exceptions.Panicf("cannot broadcast shapes %s and %s with different dtypes", s1, s2)
	}
	rank := max(s1.Rank(), s2.Rank())
	dims := make([]int, rank)
	for ii := 0; ii < rank; ii++ {
		axis := rank - 1 - ii
		dim1, dim2 := 1, 1
		if ii < s1.Rank() {
			dim1 = s1.Dimensions[s1.Rank()-1-ii]
		}
		if ii < s2.Rank() {
			dim2 = s2.Dimensions[s2.Rank()-1-ii]
		}
		switch {
		case dim1 == dim2:
			dims[axis] = dim1
		case dim1 == 1:
			dims[axis] = dim2
		case dim2 == 1:
			dims[axis] = dim1
		default:
			exceptions.Panicf("cannot broadcast shapes %s and %s: axes %d are incompatible", s1, s2, axis)
		}
	}
	return Shape{DType: s1.DType, Dimensions: dims}
}
