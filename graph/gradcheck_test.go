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

package graph_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"

	. "github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/graph/gradtest"
	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

// Numeric checks of the VJP rules against central finite differences.
// Test points stay away from the non-differentiable kinks (clip boundaries,
// min/max ties), where finite differences are meaningless.

func TestNumericGradients(t *testing.T) {
	x23 := tensors.FromValue([][]float64{{0.37, -1.52, 2.08}, {-0.19, 1.41, 0.66}})
	x4 := tensors.FromValue([]float64{-1.83, 0.42, -0.31, 1.27})

	gradtest.CheckGradients(t, "clip",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 4))
			return ReduceAllSum(Clip(x, -1, 1)), []*Node{x}
		},
		[]*tensors.Tensor{x4})

	gradtest.CheckGradients(t, "negative",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			return ReduceAllSum(Mul(Neg(x), x)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "copy",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			return ReduceAllSum(Mul(Identity(x), x)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "cast",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 4))
			squared := Mul(x, x)
			return ReduceAllSum(ConvertDType(ConvertDType(squared, dtypes.Float32), dtypes.Float64)), []*Node{x}
		},
		[]*tensors.Tensor{x4}, gradtest.WithTolerances(0.01, 1e-3))

	gradtest.CheckGradients(t, "transposeDefault",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			weights := Const(g, [][]float64{{1, -2}, {0.5, 3}, {-1, 2}})
			return ReduceAllSum(Mul(Transpose(x), weights)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "transposePermutation",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			cubed := Mul(x, Mul(x, x))
			return ReduceAllSum(Transpose(cubed, 1, 0)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "takeAxis0",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			indices := Const(g, []int32{1, 1, 0})
			taken := Take(x, indices, 0)
			return ReduceAllSum(Mul(taken, taken)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "takeAxis1",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			return ReduceAllSum(Take(x, Const(g, []int32{2, 0}), 1)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "takeFlat",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			taken := TakeFlat(x, Const(g, []int32{0, 5, 5, 3}))
			return ReduceAllSum(Mul(taken, taken)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "stack",
		func(g *Graph) (*Node, []*Node) {
			a := g.Parameter("a", shapes.Make(dtypes.Float64, 4))
			b := g.Parameter("b", shapes.Make(dtypes.Float64, 4))
			stacked := Stack([]*Node{a, b, a}, 1)
			return ReduceAllSum(Mul(stacked, stacked)), []*Node{a, b}
		},
		[]*tensors.Tensor{x4, tensors.FromValue([]float64{0.77, -0.12, 1.91, -2.23})})

	gradtest.CheckGradients(t, "squeeze",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 1, 4, 1))
			squeezed := Squeeze(x, 0, -1)
			return ReduceAllSum(Mul(squeezed, squeezed)), []*Node{x}
		},
		[]*tensors.Tensor{tensors.FromValue([][][]float64{{{0.3}, {-1.1}, {2.2}, {0.8}}})})

	gradtest.CheckGradients(t, "minMax",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 4))
			y := g.Parameter("y", shapes.Make(dtypes.Float64, 4))
			return ReduceAllSum(Add(Min(x, y), Max(x, y))), []*Node{x, y}
		},
		[]*tensors.Tensor{x4, tensors.FromValue([]float64{0.11, -0.95, 1.33, 0.24})})

	gradtest.CheckGradients(t, "broadcastMul",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			row := g.Parameter("row", shapes.Make(dtypes.Float64, 3))
			return ReduceAllSum(Mul(x, row)), []*Node{x, row}
		},
		[]*tensors.Tensor{x23, tensors.FromValue([]float64{1.5, -0.5, 2.1})})

	gradtest.CheckGradients(t, "slicePad",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			sliced := Slice(x, []int{0, 1}, []int{2, 3})
			padded := Pad(sliced, []int{1, 0}, []int{0, 1})
			return ReduceAllSum(Mul(padded, padded)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "reduceSumPartial",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
			summed := ReduceSum(x, 1)
			return ReduceAllSum(Mul(summed, summed)), []*Node{x}
		},
		[]*tensors.Tensor{x23})

	gradtest.CheckGradients(t, "broadcastTo",
		func(g *Graph) (*Node, []*Node) {
			x := g.Parameter("x", shapes.Make(dtypes.Float64, 3))
			big := BroadcastTo(x, 2, 3)
			weights := Const(g, [][]float64{{1, -1, 0.5}, {2, 0.3, -0.7}})
			return ReduceAllSum(Mul(big, weights)), []*Node{x}
		},
		[]*tensors.Tensor{tensors.FromValue([]float64{0.9, -1.4, 0.2})})
}
