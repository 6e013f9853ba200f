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

package tensors

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/tensorir/tensorir/types/shapes"
)

func TestFromValue(t *testing.T) {
	{
		want := [][]float32{{1, 2, 3}, {4, 5, 6}}
		tensor := FromValue(want)
		require.True(t, tensor.Shape().Equal(shapes.Make(dtypes.Float32, 2, 3)))
		assert.Equal(t, want, tensor.Value())
		assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, CopyFlatData[float32](tensor))
	}
	{
		tensor := FromValue(3.14)
		require.True(t, tensor.IsScalar())
		assert.Equal(t, 3.14, ToScalar[float64](tensor))
	}
	{
		// Go ints map to the platform word size dtype.
		tensor := FromValue([]int{1, 2, 3})
		assert.Equal(t, 3, tensor.Size())
		assert.EqualValues(t, 6, int(tensor.AsFloat64s()[0]+tensor.AsFloat64s()[1]+tensor.AsFloat64s()[2]))
	}
	{
		// Irregular sub-slices panic.
		require.Panics(t, func() { FromAnyValue([][]int32{{1}, {2, 3}}) })
	}
}

func TestFromShape(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Int32, 2, 2))
	assert.Equal(t, []int32{0, 0, 0, 0}, CopyFlatData[int32](tensor))
	require.Panics(t, func() { FromShape(shapes.MakeDynamic(dtypes.Int32, shapes.DynamicDim)) })
}

func TestFromFlatDataAndDimensions(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int64{1, 2, 3, 4, 5, 6}, 3, 2)
	assert.Equal(t, [][]int64{{1, 2}, {3, 4}, {5, 6}}, tensor.Value())
	require.Panics(t, func() { FromFlatDataAndDimensions([]int64{1, 2}, 3) })
}

func TestMutableAndConstFlatData(t *testing.T) {
	tensor := FromScalarAndDimensions(float32(1), 2, 2)
	MutableFlatData(tensor, func(flat []float32) {
		flat[3] = 7
	})
	assert.Equal(t, [][]float32{{1, 1}, {1, 7}}, tensor.Value())
	// Generic accessors check the dtype.
	require.Panics(t, func() { ConstFlatData(tensor, func(flat []float64) {}) })
}

func TestClone(t *testing.T) {
	tensor := FromValue([]float64{1, 2})
	clone := tensor.Clone()
	MutableFlatData(clone, func(flat []float64) { flat[0] = 100 })
	assert.Equal(t, []float64{1, 2}, CopyFlatData[float64](tensor))
}

func TestReshape(t *testing.T) {
	tensor := FromValue([]int32{1, 2, 3, 4, 5, 6})
	reshaped := tensor.Reshape(2, 3)
	assert.Equal(t, [][]int32{{1, 2, 3}, {4, 5, 6}}, reshaped.Value())
	require.Panics(t, func() { tensor.Reshape(4, 2) })
}

func TestEqualAndInDelta(t *testing.T) {
	t1 := FromValue([]float32{1, 2, 3})
	t2 := FromValue([]float32{1, 2, 3})
	t3 := FromValue([]float32{1, 2, 3.001})
	assert.True(t, t1.Equal(t2))
	assert.False(t, t1.Equal(t3))
	assert.True(t, t1.InDelta(t3, 0.01))
	assert.False(t, t1.InDelta(t3, 0.0001))
	assert.False(t, t1.InDelta(FromValue([][]float32{{1, 2, 3}}), 1))
}

func TestConvertTo(t *testing.T) {
	tensor := FromValue([]float64{1.5, -2, 3})
	converted := tensor.ConvertTo(dtypes.Float32)
	assert.Equal(t, []float32{1.5, -2, 3}, CopyFlatData[float32](converted))

	asInt := tensor.ConvertTo(dtypes.Int32)
	assert.Equal(t, []int32{1, -2, 3}, CopyFlatData[int32](asInt))

	// 16-bit floats round-trip through conversion helpers.
	asF16 := tensor.ConvertTo(dtypes.Float16)
	assert.Equal(t, dtypes.Float16, asF16.DType())
	assert.InDeltaSlice(t, []float64{1.5, -2, 3}, asF16.AsFloat64s(), 1e-3)

	asBF16 := tensor.ConvertTo(dtypes.BFloat16)
	assert.Equal(t, dtypes.BFloat16, asBF16.DType())
	assert.InDeltaSlice(t, []float64{1.5, -2, 3}, asBF16.AsFloat64s(), 1e-1)
}

func TestFromScalarAndDType(t *testing.T) {
	tensor := FromScalarAndDType(dtypes.Float32, 2.5)
	assert.Equal(t, float32(2.5), ToScalar[float32](tensor))

	f16 := FromScalarAndDType(dtypes.Float16, 1)
	assert.Equal(t, float16.Fromfloat32(1), ToScalar[float16.Float16](f16))
}

func TestAsFloat64s(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, FromValue([]uint8{1, 2}).AsFloat64s())
	assert.Equal(t, []float64{-1, 2}, FromValue([]int64{-1, 2}).AsFloat64s())
}

func TestLayoutStrides(t *testing.T) {
	tensor := FromShape(shapes.Make(dtypes.Float32, 2, 3, 4))
	assert.Equal(t, []int{12, 4, 1}, tensor.LayoutStrides())
}
