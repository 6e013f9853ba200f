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
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"

	"github.com/tensorir/tensorir/types/shapes"
)

// Float16 (github.com/x448/float16) and BFloat16
// (github.com/gomlx/gopjrt/dtypes/bfloat16) are supported for storage and
// conversion; the interpreter computes on the wider types.

// AsFloat64s returns a copy of the flat data converted to float64, one value
// per element. It panics for unsupported dtypes.
func (t *Tensor) AsFloat64s() []float64 {
	t.AssertValid()
	out := make([]float64, t.Size())
	t.ConstFlatData(func(flat any) {
		switch data := flat.(type) {
		case []float64:
			copy(out, data)
		case []float32:
			for ii, v := range data {
				out[ii] = float64(v)
			}
		case []int32:
			for ii, v := range data {
				out[ii] = float64(v)
			}
		case []int64:
			for ii, v := range data {
				out[ii] = float64(v)
			}
		case []uint8:
			for ii, v := range data {
				out[ii] = float64(v)
			}
		case []float16.Float16:
			for ii, v := range data {
				out[ii] = float64(v.Float32())
			}
		case []bfloat16.BFloat16:
			for ii, v := range data {
				out[ii] = float64(v.Float32())
			}
		default:
			exceptions.Panicf("AsFloat64s: unsupported dtype %s", t.DType())
		}
	})
	return out
}

// FromFloat64sAndShape creates a tensor of the given shape, converting the
// given float64 values to the shape's dtype. len(values) must match the shape
// size.
func FromFloat64sAndShape(values []float64, shape shapes.Shape) *Tensor {
	if len(values) != shape.Size() {
		exceptions.Panicf("FromFloat64sAndShape(%s): got %d values, shape requires %d", shape, len(values), shape.Size())
	}
	t := FromShape(shape)
	t.MutableFlatData(func(flat any) {
		switch data := flat.(type) {
		case []float64:
			copy(data, values)
		case []float32:
			for ii, v := range values {
				data[ii] = float32(v)
			}
		case []int32:
			for ii, v := range values {
				data[ii] = int32(v)
			}
		case []int64:
			for ii, v := range values {
				data[ii] = int64(v)
			}
		case []uint8:
			for ii, v := range values {
				data[ii] = uint8(v)
			}
		case []float16.Float16:
			for ii, v := range values {
				data[ii] = float16.Fromfloat32(float32(v))
			}
		case []bfloat16.BFloat16:
			for ii, v := range values {
				data[ii] = bfloat16.FromFloat32(float32(v))
			}
		default:
			exceptions.Panicf("FromFloat64sAndShape: unsupported dtype %s", shape.DType)
		}
	})
	return t
}

// FromScalarAndDType creates a scalar tensor of the given dtype from a
// float64 value.
func FromScalarAndDType(dtype dtypes.DType, value float64) *Tensor {
	return FromFloat64sAndShape([]float64{value}, shapes.Shape{DType: dtype})
}

// ConvertTo returns a copy of the tensor converted to the given dtype,
// element by element. Values are routed through float64, which is exact for
// every supported dtype except int64 values beyond 2^53 in magnitude, which
// round to the nearest representable float64.
func (t *Tensor) ConvertTo(dtype dtypes.DType) *Tensor {
	t.AssertValid()
	if dtype == t.DType() {
		return t.Clone()
	}
	newShape := t.shape.Clone()
	newShape.DType = dtype
	return FromFloat64sAndShape(t.AsFloat64s(), newShape)
}
