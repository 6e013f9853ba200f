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

package interp

import (
	"math"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

// Indexing kernels (Take, ScatterSum) and generators (IotaLike, Arange).

func init() {
	nodeExecutors[graph.NodeTypeTake] = execTake
	nodeExecutors[graph.NodeTypeScatterSum] = execScatterSum
	nodeExecutors[graph.NodeTypeIotaLike] = execIotaLike
	nodeExecutors[graph.NodeTypeArange] = execArange
}

func execTake(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in, indicesT := inputs[0], inputs[1]
	axis, flat := node.TakeAxis()
	indices, err := indicesAsInts(indicesT)
	if err != nil {
		return nil, err
	}
	inDims := in.Shape().Dimensions
	if flat {
		// Index over the flattened layout: treat the input as rank-1.
		axis, inDims = 0, []int{in.Size()}
	}
	dim := inDims[axis]
	for _, index := range indices {
		if index < 0 || index >= dim {
			return nil, errors.Errorf("Take: index %d out-of-range for dimension %d of axis %d", index, dim, axis)
		}
	}
	postSize := numElements(inDims[axis+1:])
	preSize := numElements(inDims[:axis])
	outDims := make([]int, 0, len(inDims)-1+indicesT.Rank())
	outDims = append(outDims, inDims[:axis]...)
	outDims = append(outDims, indicesT.Shape().Dimensions...)
	outDims = append(outDims, inDims[axis+1:]...)
	srcIdxs := make([]int, numElements(outDims))
	pos := 0
	for pre := range preSize {
		for _, index := range indices {
			base := (pre*dim + index) * postSize
			for post := range postSize {
				srcIdxs[pos] = base + post
				pos++
			}
		}
	}
	return applyGather(in, shapes.Make(in.DType(), outDims...), srcIdxs)
}

func execScatterSum(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	switch node.DType() {
	case dtypes.Float32:
		return execScatterSumGeneric[float32](node, inputs)
	case dtypes.Float64:
		return execScatterSumGeneric[float64](node, inputs)
	case dtypes.Int32:
		return execScatterSumGeneric[int32](node, inputs)
	case dtypes.Int64:
		return execScatterSumGeneric[int64](node, inputs)
	case dtypes.Uint8:
		return execScatterSumGeneric[uint8](node, inputs)
	default:
		return nil, errUnsupportedDType(node.DType())
	}
}

func execScatterSumGeneric[T numeric](node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	operand, indicesT, updates := inputs[0], inputs[1], inputs[2]
	axis, flat := node.ScatterAxis()
	indices, err := indicesAsInts(indicesT)
	if err != nil {
		return nil, err
	}
	operandDims := operand.Shape().Dimensions
	if flat {
		axis, operandDims = 0, []int{operand.Size()}
	}
	dim := operandDims[axis]
	for _, index := range indices {
		if index < 0 || index >= dim {
			return nil, errors.Errorf("ScatterSum: index %d out-of-range for dimension %d of axis %d", index, dim, axis)
		}
	}
	preSize := numElements(operandDims[:axis])
	postSize := numElements(operandDims[axis+1:])
	out := operand.Clone()
	tensors.ConstFlatData(updates, func(updatesFlat []T) {
		tensors.MutableFlatData(out, func(outFlat []T) {
			pos := 0
			for pre := range preSize {
				for _, index := range indices {
					base := (pre*dim + index) * postSize
					for post := range postSize {
						outFlat[base+post] += updatesFlat[pos]
						pos++
					}
				}
			}
		})
	})
	return out, nil
}

func execIotaLike(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	axis := node.IotaAxis()
	dims := in.Shape().Dimensions
	strides := rowMajorStrides(dims)
	values := make([]float64, in.Size())
	for ii := range values {
		values[ii] = float64(ii / strides[axis] % dims[axis])
	}
	return tensors.FromFloat64sAndShape(values, in.Shape().Clone()), nil
}

func execArange(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	start := inputs[0].AsFloat64s()[0]
	stop := inputs[1].AsFloat64s()[0]
	step := inputs[2].AsFloat64s()[0]
	if step == 0 {
		return nil, errors.New("Arange: step must not be zero")
	}
	numValues := int(math.Ceil((stop - start) / step))
	if numValues <= 0 {
		return nil, errors.Errorf("Arange: empty output for start=%v, stop=%v, step=%v", start, stop, step)
	}
	values := make([]float64, numValues)
	for ii := range values {
		values[ii] = start + float64(ii)*step
	}
	return tensors.FromFloat64sAndShape(values, shapes.Make(node.DType(), numValues)), nil
}
