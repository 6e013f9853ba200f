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
	"slices"

	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

// Shape-manipulation kernels: Transpose, Reshape, Squeeze, Stack, Slice, Pad,
// BroadcastTo and ReduceSum. Most are expressed as a gather over the
// flattened input: a per-output-element source index (applyGather), built
// from the actual (execution-time) input dimensions.

func init() {
	nodeExecutors[graph.NodeTypeTranspose] = execTranspose
	nodeExecutors[graph.NodeTypeReshape] = execReshape
	nodeExecutors[graph.NodeTypeSqueeze] = execSqueeze
	nodeExecutors[graph.NodeTypeStack] = execStack
	nodeExecutors[graph.NodeTypeSlice] = execSlice
	nodeExecutors[graph.NodeTypePad] = execPad
	nodeExecutors[graph.NodeTypeBroadcastTo] = execBroadcastTo
	nodeExecutors[graph.NodeTypeReduceSum] = execReduceSum
}

// applyGather returns a tensor of outShape where element ii is
// in.flat[srcIdxs[ii]], or zero where srcIdxs[ii] is negative.
func applyGather(in *tensors.Tensor, outShape shapes.Shape, srcIdxs []int) (*tensors.Tensor, error) {
	switch in.DType() {
	case dtypes.Float32:
		return applyGatherGeneric[float32](in, outShape, srcIdxs), nil
	case dtypes.Float64:
		return applyGatherGeneric[float64](in, outShape, srcIdxs), nil
	case dtypes.Int32:
		return applyGatherGeneric[int32](in, outShape, srcIdxs), nil
	case dtypes.Int64:
		return applyGatherGeneric[int64](in, outShape, srcIdxs), nil
	case dtypes.Uint8:
		return applyGatherGeneric[uint8](in, outShape, srcIdxs), nil
	default:
		return nil, errUnsupportedDType(in.DType())
	}
}

func applyGatherGeneric[T numeric](in *tensors.Tensor, outShape shapes.Shape, srcIdxs []int) *tensors.Tensor {
	out := tensors.FromShape(outShape)
	tensors.ConstFlatData(in, func(inFlat []T) {
		tensors.MutableFlatData(out, func(outFlat []T) {
			for ii, srcIdx := range srcIdxs {
				if srcIdx >= 0 {
					outFlat[ii] = inFlat[srcIdx]
				}
			}
		})
	})
	return out
}

func execTranspose(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	permutations := node.Permutations()
	inDims := in.Shape().Dimensions
	inStrides := rowMajorStrides(inDims)
	outDims := make([]int, len(inDims))
	permutedStrides := make([]int, len(inDims))
	for ii, axis := range permutations {
		outDims[ii] = inDims[axis]
		permutedStrides[ii] = inStrides[axis]
	}
	srcIdxs := make([]int, in.Size())
	it := newCoordsIterator(outDims)
	for ii := range srcIdxs {
		srcIdxs[ii] = it.FlatIndex(permutedStrides)
		it.Next()
	}
	return applyGather(in, shapes.Make(in.DType(), outDims...), srcIdxs)
}

func execReshape(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	return inputs[0].Reshape(node.Shape().Dimensions...), nil
}

func execSqueeze(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	axes := node.SqueezeAxes()
	dims := make([]int, 0, in.Rank()-len(axes))
	for axis, dim := range in.Shape().Dimensions {
		if !slices.Contains(axes, axis) {
			dims = append(dims, dim)
		}
	}
	return in.Reshape(dims...), nil
}

func execStack(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	switch node.DType() {
	case dtypes.Float32:
		return execStackGeneric[float32](node, inputs), nil
	case dtypes.Float64:
		return execStackGeneric[float64](node, inputs), nil
	case dtypes.Int32:
		return execStackGeneric[int32](node, inputs), nil
	case dtypes.Int64:
		return execStackGeneric[int64](node, inputs), nil
	case dtypes.Uint8:
		return execStackGeneric[uint8](node, inputs), nil
	default:
		return nil, errUnsupportedDType(node.DType())
	}
}

func execStackGeneric[T numeric](node *graph.Node, inputs []*tensors.Tensor) *tensors.Tensor {
	axis := node.StackAxis()
	inDims := inputs[0].Shape().Dimensions
	numPieces := len(inputs)
	outerSize := numElements(inDims[:axis])
	innerSize := numElements(inDims[axis:])
	out := tensors.FromShape(node.Shape().Clone())
	tensors.MutableFlatData(out, func(outFlat []T) {
		for piece, in := range inputs {
			tensors.ConstFlatData(in, func(inFlat []T) {
				for outer := range outerSize {
					src := inFlat[outer*innerSize : (outer+1)*innerSize]
					dst := outFlat[(outer*numPieces+piece)*innerSize:]
					copy(dst, src)
				}
			})
		}
	})
	return out
}

func execSlice(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	starts := node.SliceStarts()
	outDims := node.Shape().Dimensions
	inStrides := rowMajorStrides(in.Shape().Dimensions)
	offset := 0
	for axis, start := range starts {
		offset += start * inStrides[axis]
	}
	srcIdxs := make([]int, numElements(outDims))
	it := newCoordsIterator(outDims)
	for ii := range srcIdxs {
		srcIdxs[ii] = offset + it.FlatIndex(inStrides)
		it.Next()
	}
	return applyGather(in, node.Shape().Clone(), srcIdxs)
}

func execPad(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	lows := node.PadLows()
	outDims := node.Shape().Dimensions
	outStrides := rowMajorStrides(outDims)
	offset := 0
	for axis, low := range lows {
		offset += low * outStrides[axis]
	}
	srcIdxs := slices.Repeat([]int{-1}, numElements(outDims))
	it := newCoordsIterator(in.Shape().Dimensions)
	for ii := range in.Size() {
		srcIdxs[offset+it.FlatIndex(outStrides)] = ii
		it.Next()
	}
	return applyGather(in, node.Shape().Clone(), srcIdxs)
}

func execBroadcastTo(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	outDims := node.Shape().Dimensions
	strides := broadcastStrides(in.Shape().Dimensions, outDims)
	srcIdxs := make([]int, numElements(outDims))
	it := newCoordsIterator(outDims)
	for ii := range srcIdxs {
		srcIdxs[ii] = it.FlatIndex(strides)
		it.Next()
	}
	return applyGather(in, node.Shape().Clone(), srcIdxs)
}

func execReduceSum(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	in := inputs[0]
	switch in.DType() {
	case dtypes.Float32:
		return execReduceSumGeneric[float32](node, in), nil
	case dtypes.Float64:
		return execReduceSumGeneric[float64](node, in), nil
	case dtypes.Int32:
		return execReduceSumGeneric[int32](node, in), nil
	case dtypes.Int64:
		return execReduceSumGeneric[int64](node, in), nil
	case dtypes.Uint8:
		return execReduceSumGeneric[uint8](node, in), nil
	default:
		return nil, errUnsupportedDType(in.DType())
	}
}

func execReduceSumGeneric[T numeric](node *graph.Node, in *tensors.Tensor) *tensors.Tensor {
	axes := node.ReduceAxes()
	inDims := in.Shape().Dimensions
	outDims := make([]int, 0, len(inDims)-len(axes))
	for axis, dim := range inDims {
		if !slices.Contains(axes, axis) {
			outDims = append(outDims, dim)
		}
	}
	// Per-input-axis strides into the output: reduced axes collapse to
	// stride 0, so their elements accumulate on the same output position.
	outStrides := rowMajorStrides(outDims)
	mappedStrides := make([]int, len(inDims))
	outAxis := 0
	for axis := range inDims {
		if !slices.Contains(axes, axis) {
			mappedStrides[axis] = outStrides[outAxis]
			outAxis++
		}
	}
	out := tensors.FromShape(shapes.Make(in.DType(), outDims...))
	tensors.ConstFlatData(in, func(inFlat []T) {
		tensors.MutableFlatData(out, func(outFlat []T) {
			it := newCoordsIterator(inDims)
			for _, v := range inFlat {
				outFlat[it.FlatIndex(mappedStrides)] += v
				it.Next()
			}
		})
	})
	return out
}
