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
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

// Element-wise kernels: the unary ops (Neg, NonNegativeIndicator, Clip) and
// the binary ops with broadcasting (Add, Sub, Mul, Min, Max).

func init() {
	for _, nodeType := range []graph.NodeType{
		graph.NodeTypeNeg, graph.NodeTypeNonNegativeIndicator, graph.NodeTypeClip} {
		nodeExecutors[nodeType] = execUnary
	}
	for _, nodeType := range []graph.NodeType{
		graph.NodeTypeAdd, graph.NodeTypeSub, graph.NodeTypeMul,
		graph.NodeTypeMin, graph.NodeTypeMax} {
		nodeExecutors[nodeType] = execBinary
	}
}

func execUnary(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	switch in.DType() {
	case dtypes.Float32:
		return execUnaryGeneric[float32](node, in), nil
	case dtypes.Float64:
		return execUnaryGeneric[float64](node, in), nil
	case dtypes.Int32:
		return execUnaryGeneric[int32](node, in), nil
	case dtypes.Int64:
		return execUnaryGeneric[int64](node, in), nil
	case dtypes.Uint8:
		return execUnaryGeneric[uint8](node, in), nil
	default:
		return nil, errUnsupportedDType(in.DType())
	}
}

func execUnaryGeneric[T numeric](node *graph.Node, in *tensors.Tensor) *tensors.Tensor {
	out := tensors.FromShape(in.Shape().Clone())
	tensors.ConstFlatData(in, func(inFlat []T) {
		tensors.MutableFlatData(out, func(outFlat []T) {
			switch node.Type() {
			case graph.NodeTypeNeg:
				for ii, v := range inFlat {
					outFlat[ii] = -v
				}
			case graph.NodeTypeNonNegativeIndicator:
				for ii, v := range inFlat {
					if v >= 0 {
						outFlat[ii] = 1
					}
				}
			case graph.NodeTypeClip:
				lo, hi := T(node.ClipMin()), T(node.ClipMax())
				for ii, v := range inFlat {
					outFlat[ii] = min(max(v, lo), hi)
				}
			}
		})
	})
	return out
}

func execBinary(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in0, in1 := inputs[0], inputs[1]
	switch in0.DType() {
	case dtypes.Float32:
		return execBinaryGeneric[float32](node, in0, in1), nil
	case dtypes.Float64:
		return execBinaryGeneric[float64](node, in0, in1), nil
	case dtypes.Int32:
		return execBinaryGeneric[int32](node, in0, in1), nil
	case dtypes.Int64:
		return execBinaryGeneric[int64](node, in0, in1), nil
	case dtypes.Uint8:
		return execBinaryGeneric[uint8](node, in0, in1), nil
	default:
		return nil, errUnsupportedDType(in0.DType())
	}
}

func execBinaryGeneric[T numeric](node *graph.Node, in0, in1 *tensors.Tensor) *tensors.Tensor {
	var fn func(a, b T) T
	switch node.Type() {
	case graph.NodeTypeAdd:
		fn = func(a, b T) T { return a + b }
	case graph.NodeTypeSub:
		fn = func(a, b T) T { return a - b }
	case graph.NodeTypeMul:
		fn = func(a, b T) T { return a * b }
	case graph.NodeTypeMin:
		fn = func(a, b T) T { return min(a, b) }
	case graph.NodeTypeMax:
		fn = func(a, b T) T { return max(a, b) }
	}
	outShape := shapes.BroadcastShapes(in0.Shape(), in1.Shape())
	out := tensors.FromShape(outShape)
	strides0 := broadcastStrides(in0.Shape().Dimensions, outShape.Dimensions)
	strides1 := broadcastStrides(in1.Shape().Dimensions, outShape.Dimensions)
	tensors.ConstFlatData(in0, func(flat0 []T) {
		tensors.ConstFlatData(in1, func(flat1 []T) {
			tensors.MutableFlatData(out, func(outFlat []T) {
				it := newCoordsIterator(outShape.Dimensions)
				for ii := range outFlat {
					outFlat[ii] = fn(flat0[it.FlatIndex(strides0)], flat1[it.FlatIndex(strides1)])
					it.Next()
				}
			})
		})
	})
	return out
}
