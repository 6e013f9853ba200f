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

package shapes

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	s := Make(dtypes.Float32, 2, 3)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, "(Float32)[2 3]", s.String())
	assert.True(t, s.IsFullyDefined())

	scalar := Scalar[float64]()
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, 1, scalar.Size())

	err := exceptions.TryCatch[error](func() { _ = Make(dtypes.Float32, 2, 0) })
	require.Error(t, err)
}

func TestMakeDynamic(t *testing.T) {
	s := MakeDynamic(dtypes.Float32, DynamicDim)
	assert.False(t, s.IsFullyDefined())
	assert.Equal(t, DynamicDim, s.Size())
	assert.Equal(t, "(Float32)[?]", s.String())

	err := exceptions.TryCatch[error](func() { _ = MakeDynamic(dtypes.Float32, -7) })
	require.Error(t, err)
}

func TestDim(t *testing.T) {
	s := Make(dtypes.Int32, 5, 7, 11)
	assert.Equal(t, 5, s.Dim(0))
	assert.Equal(t, 11, s.Dim(-1))
	assert.Equal(t, 7, s.Dim(-2))
	err := exceptions.TryCatch[error](func() { _ = s.Dim(3) })
	require.Error(t, err)
}

func TestEqualAndCompatible(t *testing.T) {
	s1 := Make(dtypes.Float32, 2, 3)
	s2 := Make(dtypes.Float32, 2, 3)
	s3 := Make(dtypes.Float64, 2, 3)
	assert.True(t, s1.Equal(s2))
	assert.False(t, s1.Equal(s3))
	assert.True(t, s1.EqualDimensions(s3))

	dynamic := MakeDynamic(dtypes.Float32, 2, DynamicDim)
	assert.False(t, s1.Equal(dynamic))
	assert.True(t, s1.CompatibleDimensions(dynamic))
	assert.False(t, Make(dtypes.Float32, 3, 3).CompatibleDimensions(dynamic))
}

func TestBroadcastShapes(t *testing.T) {
	s := BroadcastShapes(Make(dtypes.Float32, 2, 1), Make(dtypes.Float32, 3))
	assert.Equal(t, []int{2, 3}, s.Dimensions)

	s = BroadcastShapes(Make(dtypes.Float32, 4, 1, 5), Make(dtypes.Float32, 1, 3, 1))
	assert.Equal(t, []int{4, 3, 5}, s.Dimensions)

	// Scalars broadcast against anything.
	s = BroadcastShapes(Shape{DType: dtypes.Float32}, Make(dtypes.Float32, 2, 3))
	assert.Equal(t, []int{2, 3}, s.Dimensions)

	err := exceptions.TryCatch[error](func() {
		_ = BroadcastShapes(Make(dtypes.Float32, 2), Make(dtypes.Float32, 3))
	})
	require.Error(t, err)
	err = exceptions.TryCatch[error](func() {
		_ = BroadcastShapes(Make(dtypes.Float32, 2), Make(dtypes.Float64, 2))
	})
	require.Error(t, err)
}

func TestConcatenateDimensions(t *testing.T) {
	s := ConcatenateDimensions(Make(dtypes.Int64, 2), Make(dtypes.Int64, 3, 4))
	assert.Equal(t, []int{2, 3, 4}, s.Dimensions)
	s = ConcatenateDimensions(Scalar[int64](), Make(dtypes.Int64, 3))
	assert.Equal(t, []int{3}, s.Dimensions)
}

func TestClone(t *testing.T) {
	s1 := Make(dtypes.Float32, 2, 3)
	s2 := s1.Clone()
	s2.Dimensions[0] = 7
	assert.Equal(t, 2, s1.Dimensions[0])
}
