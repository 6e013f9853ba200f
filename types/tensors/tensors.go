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

// Package tensors implements Tensor, a multi-dimensional array: a shape (data
// type plus axes dimensions) and its content, stored flat in row-major order.
//
// Tensors are the concrete inputs and outputs of compiled computation graphs.
// They are host-only: the reference interpreter operates directly on their
// flat data.
//
// There are various ways to construct a Tensor from local data:
//
//   - FromShape(shape): a tensor of the given shape, zero-initialized.
//   - FromScalarAndDimensions(value, dimensions...): filled with a scalar.
//   - FromFlatDataAndDimensions(data, dimensions...): from flat values.
//   - FromValue(value): from a scalar or (regular) multi-dimensional slice,
//     e.g. FromValue([][]float32{{1, 2}, {3, 4}}).
//   - FromAnyValue(value): non-generic version of FromValue.
package tensors

import (
	"fmt"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/tensorir/tensorir/types/shapes"
)

// Tensor represents a multidimensional array (from a scalar with 0 dimensions
// to arbitrarily large dimensions), defined by its shape and its flat content.
//
// The flat data is stored as a Go slice of the type corresponding to the
// DType, in row-major order.
type Tensor struct {
	shape shapes.Shape

	// flat is a []T where T is the Go type for shape.DType. Even a scalar is
	// stored as a one-element slice.
	flat any
}

// newTensor returns a Tensor initialized with the shape and an allocated,
// zero-initialized flat slice.
func newTensor(shape shapes.Shape) *Tensor {
	if !shape.Ok() || !shape.IsFullyDefined() {
		exceptions.Panicf("tensors: cannot create a tensor for shape %s", shape)
	}
	size := shape.Size()
	flat := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), size, size)
	return &Tensor{shape: shape, flat: flat.Interface()}
}

// FromShape creates a tensor with the given shape, zero-initialized.
func FromShape(shape shapes.Shape) *Tensor {
	return newTensor(shape)
}

// Shape of the tensor, includes the DType.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType is a shortcut to `Tensor.Shape().DType`.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank is a shortcut to `Tensor.Shape().Rank()`.
func (t *Tensor) Rank() int { return t.shape.Rank() }

// IsScalar is a shortcut to `Tensor.Shape().IsScalar()`.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Size returns the number of elements in the tensor.
func (t *Tensor) Size() int { return t.shape.Size() }

// AssertValid panics if t is nil or if its shape is invalid.
func (t *Tensor) AssertValid() {
	if t == nil {
		panic(errors.New("Tensor is nil"))
	}
	if !t.shape.Ok() {
		panic(errors.New("Tensor shape is invalid"))
	}
}

// ConstFlatData calls accessFn with the flattened data as a slice of the Go
// type corresponding to the DType. Even scalar values have a flattened data
// representation of one element.
//
// The slice is owned by the tensor and must not be modified; see
// MutableFlatData for that.
func (t *Tensor) ConstFlatData(accessFn func(flat any)) {
	t.AssertValid()
	accessFn(t.flat)
}

// ConstFlatData is the generics version of Tensor.ConstFlatData. It panics if
// T doesn't match the tensor's dtype.
func ConstFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("ConstFlatData[%T] is incompatible with Tensor's dtype %s", v, t.shape.DType)
	}
	accessFn(t.flat.([]T))
}

// MutableFlatData calls accessFn with the flat data slice; its contents may be
// changed until accessFn returns.
func (t *Tensor) MutableFlatData(accessFn func(flat any)) {
	t.AssertValid()
	accessFn(t.flat)
}

// MutableFlatData is the generics version of Tensor.MutableFlatData. It panics
// if T doesn't match the tensor's dtype.
func MutableFlatData[T dtypes.Supported](t *Tensor, accessFn func(flat []T)) {
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("MutableFlatData[%T] is incompatible with Tensor's dtype %s", v, t.shape.DType)
	}
	accessFn(t.flat.([]T))
}

// ToScalar returns the scalar value of the Tensor. It panics if the generic
// type doesn't match the DType of the tensor, or if the tensor is not scalar.
func ToScalar[T dtypes.Supported](t *Tensor) T {
	t.AssertValid()
	if !t.shape.IsScalar() {
		var v T
		exceptions.Panicf("ToScalar[%T] requires scalar Tensor, got shape %s instead", v, t.shape)
	}
	if t.shape.DType != dtypes.FromGenericsType[T]() {
		var v T
		exceptions.Panicf("ToScalar[%T] is incompatible with Tensor's dtype %s", v, t.shape.DType)
	}
	return t.flat.([]T)[0]
}

// CopyFlatData returns a copy of the flat data of the Tensor. It panics if the
// generic type doesn't match the DType of the tensor.
func CopyFlatData[T dtypes.Supported](t *Tensor) []T {
	var flatCopy []T
	ConstFlatData(t, func(flat []T) {
		flatCopy = make([]T, len(flat))
		copy(flatCopy, flat)
	})
	return flatCopy
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	t.AssertValid()
	t2 := newTensor(t.shape.Clone())
	reflect.Copy(reflect.ValueOf(t2.flat), reflect.ValueOf(t.flat))
	return t2
}

// Reshape returns a copy of the tensor with the given dimensions. The total
// size must not change.
func (t *Tensor) Reshape(dimensions ...int) *Tensor {
	t.AssertValid()
	newShape := shapes.Make(t.shape.DType, dimensions...)
	if newShape.Size() != t.Size() {
		exceptions.Panicf("Tensor.Reshape: total size of shapes don't match: from %s to %s", t.shape, newShape)
	}
	t2 := t.Clone()
	t2.shape = newShape
	return t2
}

// LayoutStrides return the strides for each axis, handy when manipulating the
// flat data.
func (t *Tensor) LayoutStrides() (strides []int) {
	rank := t.shape.Rank()
	if rank == 0 {
		return
	}
	strides = make([]int, rank)
	currentStride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= t.shape.Dimensions[axis]
	}
	return
}

// FromScalar creates a scalar tensor with the given value.
// The DType is inferred from the value.
func FromScalar[T dtypes.Supported](value T) (t *Tensor) {
	return FromScalarAndDimensions(value)
}

// FromScalarAndDimensions creates a tensor with the given dimensions, filled
// with the given scalar value replicated everywhere.
// The DType is inferred from the value.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) (t *Tensor) {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	t = FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		for ii := range flat {
			flat[ii] = value
		}
	})
	return
}

// FromFlatDataAndDimensions creates a tensor with the given dimensions, filled
// with the flattened values given in data, which are copied.
// The DType is inferred from the data type.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) (t *Tensor) {
	dtype := dtypes.FromGenericsType[T]()
	shape := shapes.Make(dtype, dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("FromFlatDataAndDimensions(%s): data size is %d, but dimensions size is %d",
			shape, len(data), shape.Size())
	}
	t = FromShape(shape)
	MutableFlatData(t, func(flat []T) {
		copy(flat, data)
	})
	return
}

// MultiDimensionSlice lists the Go types a Tensor can be converted to/from.
// There are no recursions in generics' constraint definitions, so we enumerate
// up to 4 levels of slices; FromAnyValue handles arbitrary depth.
type MultiDimensionSlice interface {
	float32 | float64 | int | int32 | int64 | uint8 |
		[]float32 | []float64 | []int | []int32 | []int64 | []uint8 |
		[][]float32 | [][]float64 | [][]int | [][]int32 | [][]int64 | [][]uint8 |
		[][][]float32 | [][][]float64 | [][][]int | [][][]int32 | [][][]int64 | [][][]uint8 |
		[][][][]float32 | [][][][]float64 | [][][][]int | [][][][]int32 | [][][][]int64 | [][][][]uint8
}

// FromValue returns a tensor constructed from the given multi-dimension slice
// (or scalar). If the rank of the value is larger than 1, the shape of all
// sub-slices must be the same.
//
// It panics if the shape is not regular.
func FromValue[S MultiDimensionSlice](value S) *Tensor {
	return FromAnyValue(value)
}

// FromAnyValue is a non-generic version of FromValue.
// The input is expected to be either a scalar or a slice of slices with
// homogeneous dimensions. If the input is a tensor already, it is returned
// unchanged.
//
// It panics if the value type is unsupported or the shape is not regular.
func FromAnyValue(value any) (t *Tensor) {
	if valueT, ok := value.(*Tensor); ok {
		return valueT
	}
	shape, err := shapeForValue(value)
	if err != nil {
		panic(errors.Wrapf(err, "cannot create shape from %T", value))
	}
	t = FromShape(shape)
	t.MutableFlatData(func(flatAny any) {
		if baseType(reflect.TypeOf(value)) == reflect.TypeOf(int(0)) {
			// Go `int` is either int32 or int64 depending on the platform; the
			// tensor data is typed accordingly, so we view it as []int.
			if strconv.IntSize == 64 {
				flatRef := flatAny.([]int64)
				flatAny = unsafe.Slice((*int)(unsafe.Pointer(unsafe.SliceData(flatRef))), len(flatRef))
			} else {
				flatRef := flatAny.([]int32)
				flatAny = unsafe.Slice((*int)(unsafe.Pointer(unsafe.SliceData(flatRef))), len(flatRef))
			}
		}
		flatV := reflect.ValueOf(flatAny)
		if shape.IsScalar() {
			flatV.Index(0).Set(reflect.ValueOf(value))
			return
		}
		copySlicesRecursively(flatV, reflect.ValueOf(value), t.LayoutStrides())
	})
	return
}

// copySlicesRecursively copies values on a multi-dimension slice to a flat
// data slice, assuming the strides for each dimension.
func copySlicesRecursively(data reflect.Value, mdSlice reflect.Value, strides []int) {
	if len(strides) == 1 {
		reflect.Copy(data, mdSlice)
		return
	}
	numElements := mdSlice.Len()
	subStrides := strides[1:]
	for ii := 0; ii < numElements; ii++ {
		subData := data.Slice(ii*strides[0], (ii+1)*strides[0])
		copySlicesRecursively(subData, mdSlice.Index(ii), subStrides)
	}
}

// Value returns a multidimensional slice (except if the shape is a scalar)
// with a copy of the values stored in the tensor. Expensive, meant for tests
// and printing results.
func (t *Tensor) Value() any {
	var mdSlice any
	t.ConstFlatData(func(flat any) {
		if t.shape.IsScalar() {
			mdSlice = reflect.ValueOf(flat).Index(0).Interface()
			return
		}
		flatCopyV := reflect.MakeSlice(reflect.SliceOf(t.shape.DType.GoType()), t.Size(), t.Size())
		reflect.Copy(flatCopyV, reflect.ValueOf(flat))
		if t.shape.Rank() == 1 {
			mdSlice = flatCopyV.Interface()
			return
		}
		mdSlice = convertDataToSlices(flatCopyV, t.shape.Dimensions...).Interface()
	})
	return mdSlice
}

// convertDataToSlices takes data as a flat slice and creates multidimensional
// slices with the given dimensions pointing into the data.
func convertDataToSlices(dataV reflect.Value, dimensions ...int) reflect.Value {
	if len(dimensions) <= 1 {
		return dataV
	}
	resultT := dataV.Type().Elem()
	for range dimensions {
		resultT = reflect.SliceOf(resultT)
	}
	strides := make([]int, len(dimensions))
	currentStride := 1
	for axis := len(dimensions) - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= dimensions[axis]
	}
	return createSlicesRecursively(resultT, dataV, dimensions, strides)
}

func createSlicesRecursively(resultT reflect.Type, data reflect.Value, dimensions []int, strides []int) reflect.Value {
	if len(strides) == 1 {
		return data
	}
	numElements := dimensions[0]
	slice := reflect.MakeSlice(resultT, numElements, numElements)
	subStrides := strides[1:]
	subDimensions := dimensions[1:]
	subResultT := resultT.Elem()
	for ii := 0; ii < numElements; ii++ {
		subData := data.Slice(ii*strides[0], (ii+1)*strides[0])
		slice.Index(ii).Set(createSlicesRecursively(subResultT, subData, subDimensions, subStrides))
	}
	return slice
}

func shapeForValue(v any) (shape shapes.Shape, err error) {
	err = shapeForValueRecursive(&shape, reflect.ValueOf(v), reflect.TypeOf(v))
	return
}

func shapeForValueRecursive(shape *shapes.Shape, v reflect.Value, t reflect.Type) error {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
		shape.Dimensions = append(shape.Dimensions, v.Len())
		shapePrefix := shape.Clone()
		if v.Len() == 0 {
			return errors.Errorf("value with empty slice not valid for Tensor conversion: %v", v)
		}
		err := shapeForValueRecursive(shape, v.Index(0), t)
		if err != nil {
			return err
		}
		// All other elements must have the same shape as the first one.
		for ii := 1; ii < v.Len(); ii++ {
			shapeTest := shapePrefix.Clone()
			err = shapeForValueRecursive(&shapeTest, v.Index(ii), t)
			if err != nil {
				return err
			}
			if !shape.Equal(shapeTest) {
				return errors.Errorf("sub-slices have irregular shapes, found shapes %q, and %q", shape, shapeTest)
			}
		}
	} else if t.Kind() == reflect.Pointer {
		return errors.Errorf("cannot convert Pointer (%s) to a concrete value for tensors", t)
	} else {
		shape.DType = dtypes.FromGoType(t)
		if shape.DType == dtypes.InvalidDType {
			return errors.Errorf("cannot convert type %s to a concrete tensor type", t)
		}
	}
	return nil
}

// baseType returns the underlying element type of a multi-dimension slice:
// baseType([][]int{...}) is int.
func baseType(valueType reflect.Type) reflect.Type {
	for valueType.Kind() == reflect.Slice || valueType.Kind() == reflect.Array {
		valueType = valueType.Elem()
	}
	return valueType
}

// Equal checks whether t == otherTensor: same shape and same values.
//
// Slow implementation: fine for small tensors.
func (t *Tensor) Equal(otherTensor *Tensor) bool {
	t.AssertValid()
	otherTensor.AssertValid()
	if t == otherTensor {
		return true
	}
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	equal := true
	t.ConstFlatData(func(flat0 any) {
		otherTensor.ConstFlatData(func(flat1 any) {
			t0V := reflect.ValueOf(flat0)
			t1V := reflect.ValueOf(flat1)
			for ii := range t0V.Len() {
				if !t0V.Index(ii).Equal(t1V.Index(ii)) {
					equal = false
					return
				}
			}
		})
	})
	return equal
}

// InDelta checks whether Abs(t - otherTensor) < delta for every element. The
// shapes must match. Only float and integer dtypes are supported.
func (t *Tensor) InDelta(otherTensor *Tensor, delta float64) bool {
	t.AssertValid()
	otherTensor.AssertValid()
	if !t.shape.Equal(otherTensor.shape) {
		return false
	}
	flat0 := t.AsFloat64s()
	flat1 := otherTensor.AsFloat64s()
	for ii, value := range flat0 {
		diff := value - flat1[ii]
		if diff < 0 {
			diff = -diff
		}
		if diff > delta {
			return false
		}
	}
	return true
}

// GoStr converts to string, using a Go-syntax representation of the value.
func (t *Tensor) GoStr() string {
	t.AssertValid()
	value := t.Value()
	if t.shape.IsScalar() {
		return fmt.Sprintf("%s(%v)", t.shape.DType, value)
	}
	return fmt.Sprintf("%s: %#v", t.shape, value)
}

// String implements fmt.Stringer.
func (t *Tensor) String() string { return t.GoStr() }
