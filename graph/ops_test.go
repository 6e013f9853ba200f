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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/shapes"
)

func TestParameter(t *testing.T) {
	g := New("params")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3))
	assert.Equal(t, NodeTypeParameter, x.Type())
	assert.Equal(t, "x", x.ParameterName())
	assert.Equal(t, 1, g.NumParameters())
	assert.Same(t, x, g.ParameterByName("x"))
	assert.Same(t, x, g.ParameterByIndex(0))

	// Same name and shape returns the same node.
	assert.Same(t, x, g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3)))
	// Same name with a different shape is an error.
	require.Panics(t, func() { g.Parameter("x", shapes.Make(dtypes.Float32, 3)) })
	// Parameters must be fully defined.
	require.Panics(t, func() { g.Parameter("dyn", shapes.MakeDynamic(dtypes.Float32, shapes.DynamicDim)) })
}

func TestConst(t *testing.T) {
	g := New("const")
	c := Const(g, [][]float32{{1, 2}, {3, 4}})
	assert.Equal(t, NodeTypeConstant, c.Type())
	assert.True(t, c.Shape().Equal(shapes.Make(dtypes.Float32, 2, 2)))
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, c.ConstantValue().Value())

	// The scalar cache deduplicates constants.
	assert.Same(t, ScalarOne(g, dtypes.Float32), ScalarOne(g, dtypes.Float32))
	assert.NotSame(t, ScalarOne(g, dtypes.Float32), ScalarOne(g, dtypes.Float64))
}

func TestBinaryOpShapes(t *testing.T) {
	g := New("binary")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3))
	y := g.Parameter("y", shapes.Make(dtypes.Float32, 2, 3))
	assert.True(t, Add(x, y).Shape().Equal(shapes.Make(dtypes.Float32, 2, 3)))

	// Scalars broadcast.
	assert.True(t, Mul(x, ScalarOne(g, dtypes.Float32)).Shape().Equal(x.Shape()))

	// Numpy-style broadcasting.
	row := g.Parameter("row", shapes.Make(dtypes.Float32, 3))
	col := g.Parameter("col", shapes.Make(dtypes.Float32, 2, 1))
	assert.Equal(t, []int{2, 3}, Add(row, col).Shape().Dimensions)

	// DType mismatch.
	z := g.Parameter("z", shapes.Make(dtypes.Float64, 2, 3))
	require.Panics(t, func() { Add(x, z) })
	// Incompatible dimensions.
	require.Panics(t, func() { Add(row, g.Parameter("bad", shapes.Make(dtypes.Float32, 4))) })
}

func TestTranspose(t *testing.T) {
	g := New("transpose")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3, 4))

	// Default is reversing the axes.
	reversed := Transpose(x)
	assert.Equal(t, []int{4, 3, 2}, reversed.Shape().Dimensions)
	assert.Equal(t, []int{2, 1, 0}, reversed.Permutations())

	permuted := Transpose(x, 0, 2, 1)
	assert.Equal(t, []int{2, 4, 3}, permuted.Shape().Dimensions)

	// Negative axes count from the end.
	assert.Equal(t, []int{2, 4, 3}, Transpose(x, 0, -1, -2).Shape().Dimensions)

	require.Panics(t, func() { Transpose(x, 0, 1) })    // Wrong count.
	require.Panics(t, func() { Transpose(x, 0, 0, 1) }) // Repeated axis.
	require.Panics(t, func() { Transpose(x, 0, 1, 3) }) // Out-of-bounds.
}

func TestReshape(t *testing.T) {
	g := New("reshape")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3))
	assert.Equal(t, []int{6}, Reshape(x, 6).Shape().Dimensions)
	assert.Equal(t, []int{3, 2, 1}, Reshape(x, 3, 2, 1).Shape().Dimensions)
	require.Panics(t, func() { Reshape(x, 4) })
}

func TestSqueeze(t *testing.T) {
	g := New("squeeze")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 1, 3, 1, 2))

	// No axes: all unit axes removed.
	assert.Equal(t, []int{3, 2}, Squeeze(x).Shape().Dimensions)

	assert.Equal(t, []int{3, 1, 2}, Squeeze(x, 0).Shape().Dimensions)
	assert.Equal(t, []int{3, 2}, Squeeze(x, 0, -2).Shape().Dimensions)

	require.Panics(t, func() { Squeeze(x, 1) }) // Dimension is not 1.
}

func TestStack(t *testing.T) {
	g := New("stack")
	a := g.Parameter("a", shapes.Make(dtypes.Float32, 3, 4))
	b := g.Parameter("b", shapes.Make(dtypes.Float32, 3, 4))
	c := g.Parameter("c", shapes.Make(dtypes.Float32, 3, 4))

	assert.Equal(t, []int{3, 3, 4}, Stack([]*Node{a, b, c}, 0).Shape().Dimensions)
	assert.Equal(t, []int{3, 3, 4}, Stack([]*Node{a, b, c}, 1).Shape().Dimensions)
	assert.Equal(t, []int{3, 4, 3}, Stack([]*Node{a, b, c}, 2).Shape().Dimensions)
	assert.Equal(t, []int{3, 4, 3}, Stack([]*Node{a, b, c}, -1).Shape().Dimensions)

	bad := g.Parameter("bad", shapes.Make(dtypes.Float32, 4, 3))
	require.Panics(t, func() { Stack([]*Node{a, bad}, 0) })
	require.Panics(t, func() { Stack([]*Node{a, b}, 3) })
}

func TestSliceAndPad(t *testing.T) {
	g := New("slicepad")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 4, 5))

	s := Slice(x, []int{1, 0}, []int{3, 5})
	assert.Equal(t, []int{2, 5}, s.Shape().Dimensions)
	require.Panics(t, func() { Slice(x, []int{0}, []int{1}) })          // Wrong rank.
	require.Panics(t, func() { Slice(x, []int{2, 0}, []int{2, 5}) })    // Empty slice.
	require.Panics(t, func() { Slice(x, []int{0, 0}, []int{5, 5}) })    // Out-of-bounds.

	p := Pad(x, []int{1, 0}, []int{0, 2})
	assert.Equal(t, []int{5, 7}, p.Shape().Dimensions)
	require.Panics(t, func() { Pad(x, []int{-1, 0}, []int{0, 0}) })
}

func TestBroadcastTo(t *testing.T) {
	g := New("broadcast")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 3, 1))
	assert.Equal(t, []int{2, 3, 4}, BroadcastTo(x, 2, 3, 4).Shape().Dimensions)

	// Broadcasting to the same shape is a no-op.
	assert.Same(t, x, BroadcastTo(x, 3, 1))

	// Unit axes expand on the right-aligned match.
	assert.Equal(t, []int{3, 5}, BroadcastTo(x, 3, 5).Shape().Dimensions)

	require.Panics(t, func() { BroadcastTo(x, 4, 1) })
	require.Panics(t, func() { BroadcastTo(x, 1) }) // Lower rank.
}

func TestReduceSum(t *testing.T) {
	g := New("reduce")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3, 4))

	assert.True(t, ReduceSum(x).IsScalar())
	assert.True(t, ReduceAllSum(x).IsScalar())
	assert.Equal(t, []int{2, 4}, ReduceSum(x, 1).Shape().Dimensions)
	assert.Equal(t, []int{2}, ReduceSum(x, -1, 1).Shape().Dimensions)
	// Repeated axes are deduplicated.
	assert.Equal(t, []int{2, 4}, ReduceSum(x, 1, 1).Shape().Dimensions)

	require.Panics(t, func() { ReduceSum(x, 3) })
}

func TestTakeAndScatterSum(t *testing.T) {
	g := New("take")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 4, 5))
	indices := g.Parameter("indices", shapes.Make(dtypes.Int32, 2, 3))

	taken := Take(x, indices, 0)
	assert.Equal(t, []int{2, 3, 5}, taken.Shape().Dimensions)
	assert.Equal(t, []int{4, 2, 3}, Take(x, indices, 1).Shape().Dimensions)
	assert.Equal(t, []int{2, 3}, TakeFlat(x, indices).Shape().Dimensions)

	floatIndices := g.Parameter("floatIndices", shapes.Make(dtypes.Float32, 2))
	require.Panics(t, func() { Take(x, floatIndices, 0) })

	scattered := ScatterSum(Zeros(g, x.Shape()), indices, taken, 0)
	assert.True(t, scattered.Shape().Equal(x.Shape()))
	require.Panics(t, func() { ScatterSum(Zeros(g, x.Shape()), indices, x, 0) }) // Wrong updates shape.

	flat := ScatterSumFlat(Zeros(g, x.Shape()), indices, TakeFlat(x, indices))
	assert.True(t, flat.Shape().Equal(x.Shape()))
}

func TestArange(t *testing.T) {
	g := New("arange")
	start := g.Parameter("start", shapes.Scalar[float32]())
	stop := g.Parameter("stop", shapes.Scalar[float32]())
	step := g.Parameter("step", shapes.Scalar[float32]())

	r := Arange(start, stop, step)
	assert.Equal(t, dtypes.Float32, r.DType())
	assert.Equal(t, 1, r.Rank())
	assert.False(t, r.Shape().IsFullyDefined())

	vector := g.Parameter("vector", shapes.Make(dtypes.Float32, 2))
	require.Panics(t, func() { Arange(vector, stop, step) })
	intScalar := g.Parameter("int", shapes.Scalar[int32]())
	require.Panics(t, func() { Arange(intScalar, intScalar, intScalar) })

	// Ops compose over the dynamic dimension.
	doubled := MulScalar(r, 2)
	assert.False(t, doubled.Shape().IsFullyDefined())
	assert.True(t, ReduceAllSum(doubled).IsScalar())
	// But static-shape-only ops reject it.
	require.Panics(t, func() { Reshape(r, 4) })
}

func TestIotaLike(t *testing.T) {
	g := New("iota")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2, 3))
	iota := IotaLike(x, -1)
	assert.True(t, iota.Shape().Equal(x.Shape()))
	assert.Equal(t, 1, iota.IotaAxis())
	require.Panics(t, func() { IotaLike(ScalarOne(g, dtypes.Float32), 0) })
}

func TestConvertDType(t *testing.T) {
	g := New("convert")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2))
	converted := ConvertDType(x, dtypes.Float64)
	assert.True(t, converted.Shape().Equal(shapes.Make(dtypes.Float64, 2)))
	// Converting to the same dtype is a no-op.
	assert.Same(t, x, ConvertDType(x, dtypes.Float32))
}

func TestClipBuilder(t *testing.T) {
	g := New("clip")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 3))
	clipped := Clip(x, -1, 1)
	assert.True(t, clipped.Shape().Equal(x.Shape()))
	assert.Equal(t, -1.0, clipped.ClipMin())
	assert.Equal(t, 1.0, clipped.ClipMax())
	require.Panics(t, func() { Clip(x, 2, 1) })
}

func TestGraphString(t *testing.T) {
	g := New("str")
	x := g.Parameter("x", shapes.Make(dtypes.Float32, 2))
	_ = Neg(x)
	str := g.String()
	assert.Contains(t, str, "Graph \"str\"")
	assert.Contains(t, str, "Parameter(name=\"x\")")
	assert.Contains(t, str, "Neg(#0)")
}

func TestGraphIsolation(t *testing.T) {
	g1 := New("g1")
	g2 := New("g2")
	x1 := g1.Parameter("x", shapes.Make(dtypes.Float32, 2))
	x2 := g2.Parameter("x", shapes.Make(dtypes.Float32, 2))
	require.Panics(t, func() { Add(x1, x2) })
}
