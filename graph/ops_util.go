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

package graph

import (
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

// Derived ops: convenience builders composed from the primitive ops in
// ops.go.

// Scalar returns a constant scalar with the given value, converted to the
// given dtype. Scalars of the same value and dtype are deduplicated within
// the graph.
func Scalar(g *Graph, dtype dtypes.DType, value float64) *Node {
	return g.getScalarConst(dtype, value)
}

// ScalarZero returns a scalar constant 0 for the given dtype.
func ScalarZero(g *Graph, dtype dtypes.DType) *Node { return Scalar(g, dtype, 0) }

// ScalarOne returns a scalar constant 1 for the given dtype.
func ScalarOne(g *Graph, dtype dtypes.DType) *Node { return Scalar(g, dtype, 1) }

// AddScalar adds the given scalar value, converted to x's dtype, to every
// element of x.
func AddScalar(x *Node, value float64) *Node {
	return Add(x, Scalar(x.Graph(), x.DType(), value))
}

// MulScalar multiplies every element of x by the given scalar value,
// converted to x's dtype.
func MulScalar(x *Node, value float64) *Node {
	return Mul(x, Scalar(x.Graph(), x.DType(), value))
}

// OneMinus returns 1-x, element-wise.
func OneMinus(x *Node) *Node {
	return Sub(ScalarOne(x.Graph(), x.DType()), x)
}

// Zeros returns a node of the given (fully defined) shape filled with zeros.
func Zeros(g *Graph, shape shapes.Shape) *Node {
	if !shape.IsFullyDefined() {
		Panicf("Zeros: shape must be fully defined, got %s", shape)
	}
	return ConstTensor(g, tensors.FromShape(shape))
}

// Ones returns a node of the given (fully defined) shape filled with ones.
func Ones(g *Graph, shape shapes.Shape) *Node {
	if !shape.IsFullyDefined() {
		Panicf("Ones: shape must be fully defined, got %s", shape)
	}
	return BroadcastTo(ScalarOne(g, shape.DType), shape.Dimensions...)
}

// ZerosLike returns a node of zeros with the same shape and dtype as x. It
// also works for shapes with dynamic dimensions, in which case the result
// takes its execution-time shape from x.
func ZerosLike(x *Node) *Node {
	x.AssertValid()
	if x.Shape().IsFullyDefined() {
		return Zeros(x.Graph(), x.Shape())
	}
	return MulScalar(x, 0)
}

// OnesLike returns a node of ones with the same shape and dtype as x. It also
// works for shapes with dynamic dimensions, in which case the result takes
// its execution-time shape from x.
func OnesLike(x *Node) *Node {
	x.AssertValid()
	if x.Shape().IsFullyDefined() {
		return Ones(x.Graph(), x.Shape())
	}
	return AddScalar(ZerosLike(x), 1)
}

// ReduceAllSum sums all elements of x, returning a scalar.
func ReduceAllSum(x *Node) *Node {
	return ReduceSum(x)
}

// Split is the inverse of Stack: it slices x into x.Shape().Dim(axis) pieces
// along the given axis, each with the axis squeezed out. Negative axis counts
// from the end. x must have a fully defined shape.
func Split(x *Node, axis int) []*Node {
	x.AssertValid()
	if !x.Shape().IsFullyDefined() {
		Panicf("Split: x must have a fully defined shape, got %s", x.Shape())
	}
	axis = adjustAxis("Split", axis, x.Rank())
	starts := make([]int, x.Rank())
	limits := make([]int, x.Rank())
	copy(limits, x.Shape().Dimensions)
	pieces := make([]*Node, x.Shape().Dimensions[axis])
	for ii := range pieces {
		starts[axis], limits[axis] = ii, ii+1
		pieces[ii] = Squeeze(Slice(x, starts, limits), axis)
	}
	return pieces
}

// StopGradient returns a node with the same value as x through which
// gradients do not back-propagate during reverse-mode autodiff.
func StopGradient(x *Node) *Node {
	node := Identity(x)
	node.stopGradient = true
	return node
}

// IdentityWithCustomGradient returns a node with the same value as x, but
// whose gradient is computed by the given VJP function instead of the
// identity rule. The VJP is called with the node, the adjoint flowing into it
// and the node's shape, and must return the gradient with respect to x. See
// the VJP type in rev_autodiff.go.
func IdentityWithCustomGradient(x *Node, vjp VJP) *Node {
	node := Identity(x)
	node.customVJP = vjp
	return node
}
