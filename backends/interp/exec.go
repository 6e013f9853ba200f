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
	"github.com/pkg/errors"

	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/tensors"
)

// Shared helpers for the exec_*.go kernels.

// numeric constrains the dtypes the interpreter computes on directly.
// Exact types (no approximation elements), so a T numeric also satisfies
// dtypes.Supported and can instantiate the tensors flat-data accessors.
type numeric interface {
	float32 | float64 | int32 | int64 | uint8
}

func init() {
	nodeExecutors[graph.NodeTypeConstant] = execConstant
	nodeExecutors[graph.NodeTypeIdentity] = execIdentity
	nodeExecutors[graph.NodeTypeConvertDType] = execConvertDType
}

func execConstant(node *graph.Node, _ []*tensors.Tensor) (*tensors.Tensor, error) {
	return node.ConstantValue(), nil
}

func execIdentity(_ *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	return inputs[0], nil
}

func execConvertDType(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error) {
	return inputs[0].ConvertTo(node.DType()), nil
}

// errUnsupportedDType is the shared failure for kernels asked to compute on a
// dtype outside the numeric constraint (e.g. Float16).
func errUnsupportedDType(dtype dtypes.DType) error {
	return errors.Errorf("dtype %s is not supported by the interpreter kernels", dtype)
}

// rowMajorStrides returns the flat-data strides of a row-major layout with
// the given dimensions.
func rowMajorStrides(dims []int) []int {
	strides := make([]int, len(dims))
	currentStride := 1
	for axis := len(dims) - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= dims[axis]
	}
	return strides
}

// broadcastStrides returns per-output-axis strides into a value with inDims,
// broadcast (numpy-style, trailing-aligned) to outDims: axes missing or of
// dimension 1 in the input get stride 0.
func broadcastStrides(inDims, outDims []int) []int {
	inStrides := rowMajorStrides(inDims)
	strides := make([]int, len(outDims))
	rankDiff := len(outDims) - len(inDims)
	for axis := range outDims {
		if axis < rankDiff || inDims[axis-rankDiff] == 1 {
			continue // Stride 0: broadcast axis.
		}
		strides[axis] = inStrides[axis-rankDiff]
	}
	return strides
}

// coordsIterator iterates over all coordinates of the given dimensions in
// row-major order.
type coordsIterator struct {
	dims   []int
	coords []int
}

func newCoordsIterator(dims []int) *coordsIterator {
	return &coordsIterator{dims: dims, coords: make([]int, len(dims))}
}

// Next advances to the next coordinate, wrapping at the end.
func (it *coordsIterator) Next() {
	for axis := len(it.dims) - 1; axis >= 0; axis-- {
		it.coords[axis]++
		if it.coords[axis] < it.dims[axis] {
			return
		}
		it.coords[axis] = 0
	}
}

// FlatIndex projects the current coordinates through the given strides.
func (it *coordsIterator) FlatIndex(strides []int) int {
	idx := 0
	for axis, coord := range it.coords {
		idx += coord * strides[axis]
	}
	return idx
}

// numElements is the product of the dimensions (1 for a scalar).
func numElements(dims []int) int {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	return size
}

// indicesAsInts copies an Int32 or Int64 indices tensor to a []int.
func indicesAsInts(indices *tensors.Tensor) ([]int, error) {
	switch indices.DType() {
	case dtypes.Int32:
		flat := tensors.CopyFlatData[int32](indices)
		out := make([]int, len(flat))
		for ii, v := range flat {
			out[ii] = int(v)
		}
		return out, nil
	case dtypes.Int64:
		flat := tensors.CopyFlatData[int64](indices)
		out := make([]int, len(flat))
		for ii, v := range flat {
			out[ii] = int(v)
		}
		return out, nil
	default:
		return nil, errors.Errorf("indices must be Int32 or Int64, got %s", indices.Shape())
	}
}
