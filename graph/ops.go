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
	"fmt"
	"slices"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
	"github.com/tensorir/tensorir/types/xslices"
)

// This file holds one builder function per op, with its shape inference, and
// the corresponding typed NodeInputs struct holding the op's static
// parameters.

// nodeInputsParameter holds the inputs used for the call to Graph.Parameter.
type nodeInputsParameter struct {
	name   string
	handle ParameterHandle
}

func (ni *nodeInputsParameter) Type() NodeType { return NodeTypeParameter }
func (ni *nodeInputsParameter) String() string {
	return fmt.Sprintf("Parameter(name=%q)", ni.name)
}

// nodeInputsConstant holds the inputs used for the call to Const.
type nodeInputsConstant struct{}

func (ni *nodeInputsConstant) Type() NodeType { return NodeTypeConstant }
func (ni *nodeInputsConstant) String() string { return "Constant()" }

// ConstTensor creates a constant node holding a copy of the given tensor.
func ConstTensor(g *Graph, value *tensors.Tensor) *Node {
	g.AssertValid()
	value.AssertValid()
	node := newNode(g, value.Shape().Clone(), nil, &nodeInputsConstant{})
	node.constValue = value.Clone()
	return node
}

// Const creates a constant node converting value to a tensor with
// tensors.FromAnyValue: it accepts Go scalars and (multi-dimensional) slices
// of the supported dtypes, or a tensor itself.
func Const(g *Graph, value any) *Node {
	return ConstTensor(g, tensors.FromAnyValue(value))
}

// constScalar creates a scalar constant of the given dtype from a float64.
// Used by the graph's scalar cache, see Graph.getScalarConst.
func constScalar(g *Graph, dtype dtypes.DType, value float64) *Node {
	return ConstTensor(g, tensors.FromScalarAndDType(dtype, value))
}

// nodeInputsIdentity holds the inputs used for the call to Identity.
type nodeInputsIdentity struct {
	x *Node
}

func (ni *nodeInputsIdentity) Type() NodeType { return NodeTypeIdentity }
func (ni *nodeInputsIdentity) String() string { return "Identity" }

// Identity returns a node whose value is the same as its input.
//
// It's a no-op during execution, but it is used as an attachment point for
// gradient manipulation: see StopGradient and IdentityWithCustomGradient.
func Identity(x *Node) *Node {
	g := validateBuildingGraphFromInputs(x)
	return newNode(g, x.Shape().Clone(), []*Node{x}, &nodeInputsIdentity{x: x})
}

// nodeInputsConvertDType holds the inputs used for the call to ConvertDType.
type nodeInputsConvertDType struct {
	x     *Node
	dtype dtypes.DType
}

func (ni *nodeInputsConvertDType) Type() NodeType { return NodeTypeConvertDType }
func (ni *nodeInputsConvertDType) String() string {
	return fmt.Sprintf("ConvertDType(dtype=%s)", ni.dtype)
}

// ConvertDType converts x to the given dtype, element-wise. The shape is
// otherwise unchanged.
func ConvertDType(x *Node, dtype dtypes.DType) *Node {
	g := validateBuildingGraphFromInputs(x)
	if dtype == dtypes.InvalidDType {
		Panicf("ConvertDType: invalid target dtype")
	}
	if dtype == x.DType() {
		return x
	}
	shape := x.Shape().Clone()
	shape.DType = dtype
	return newNode(g, shape, []*Node{x}, &nodeInputsConvertDType{x: x, dtype: dtype})
}

// nodeInputsNeg holds the inputs used for the call to Neg.
type nodeInputsNeg struct {
	x *Node
}

func (ni *nodeInputsNeg) Type() NodeType { return NodeTypeNeg }
func (ni *nodeInputsNeg) String() string { return "Neg" }

// Neg returns the element-wise negation of x.
func Neg(x *Node) *Node {
	g := validateBuildingGraphFromInputs(x)
	return newNode(g, x.Shape().Clone(), []*Node{x}, &nodeInputsNeg{x: x})
}

// nodeInputsNonNegativeIndicator holds the inputs used for the call to
// NonNegativeIndicator.
type nodeInputsNonNegativeIndicator struct {
	x *Node
}

func (ni *nodeInputsNonNegativeIndicator) Type() NodeType { return NodeTypeNonNegativeIndicator }
func (ni *nodeInputsNonNegativeIndicator) String() string { return "NonNegativeIndicator" }

// NonNegativeIndicator returns 1 where x >= 0, 0 otherwise, element-wise,
// with the same dtype as x.
//
// It is the building block for the gradient masks of Clip, Min and Max.
func NonNegativeIndicator(x *Node) *Node {
	g := validateBuildingGraphFromInputs(x)
	return newNode(g, x.Shape().Clone(), []*Node{x}, &nodeInputsNonNegativeIndicator{x: x})
}

// nodeInputsBinaryOp holds the inputs of the element-wise binary ops (Add,
// Sub, Mul, Min, Max), which share shape inference and only differ on the
// node type.
type nodeInputsBinaryOp struct {
	nodeType NodeType
	x, y     *Node
}

func (ni *nodeInputsBinaryOp) Type() NodeType { return ni.nodeType }
func (ni *nodeInputsBinaryOp) String() string {
	return ni.nodeType.String()
}

// binaryOpShape infers the output shape of an element-wise binary op with
// broadcasting: scalars broadcast against anything; otherwise numpy-style
// broadcasting rules apply (see shapes.BroadcastShapes). Shapes with dynamic
// dimensions are accepted only when no broadcasting is needed.
func binaryOpShape(opName string, x, y *Node) shapes.Shape {
	if x.DType() != y.DType() {
		Panicf("%s: dtypes of operands don't match: %s and %s", opName, x.Shape(), y.Shape())
	}
	xShape, yShape := x.Shape(), y.Shape()
	if xShape.IsScalar() {
		return yShape.Clone()
	}
	if yShape.IsScalar() {
		return xShape.Clone()
	}
	if xShape.CompatibleDimensions(yShape) {
		// Merge, preferring static dimensions where one side is dynamic.
		merged := xShape.Clone()
		for axis, dim := range merged.Dimensions {
			if dim == shapes.DynamicDim {
				merged.Dimensions[axis] = yShape.Dimensions[axis]
			}
		}
		return merged
	}
	if !xShape.IsFullyDefined() || !yShape.IsFullyDefined() {
		Panicf("%s: cannot broadcast shapes with dynamic dimensions: %s and %s", opName, xShape, yShape)
	}
	return shapes.BroadcastShapes(xShape, yShape)
}

func binaryOp(nodeType NodeType, x, y *Node) *Node {
	g := validateBuildingGraphFromInputs(x, y)
	shape := binaryOpShape(nodeType.String(), x, y)
	return newNode(g, shape, []*Node{x, y}, &nodeInputsBinaryOp{nodeType: nodeType, x: x, y: y})
}

// Add returns the element-wise sum of x and y, with broadcasting.
func Add(x, y *Node) *Node { return binaryOp(NodeTypeAdd, x, y) }

// Sub returns the element-wise subtraction of y from x, with broadcasting.
func Sub(x, y *Node) *Node { return binaryOp(NodeTypeSub, x, y) }

// Mul returns the element-wise product of x and y, with broadcasting.
func Mul(x, y *Node) *Node { return binaryOp(NodeTypeMul, x, y) }

// Min returns the element-wise minimum of x and y, with broadcasting.
func Min(x, y *Node) *Node { return binaryOp(NodeTypeMin, x, y) }

// Max returns the element-wise maximum of x and y, with broadcasting.
func Max(x, y *Node) *Node { return binaryOp(NodeTypeMax, x, y) }

// nodeInputsClip holds the inputs used for the call to Clip.
type nodeInputsClip struct {
	x        *Node
	min, max float64
}

func (ni *nodeInputsClip) Type() NodeType { return NodeTypeClip }
func (ni *nodeInputsClip) String() string {
	return fmt.Sprintf("Clip(min=%v, max=%v)", ni.min, ni.max)
}

// Clip limits the values of x to the static range [min, max], element-wise.
//
// Its gradient is 1 inside the range, boundaries included, and 0 outside.
func Clip(x *Node, min, max float64) *Node {
	g := validateBuildingGraphFromInputs(x)
	if min > max {
		Panicf("Clip: min (%v) must be <= max (%v)", min, max)
	}
	return newNode(g, x.Shape().Clone(), []*Node{x}, &nodeInputsClip{x: x, min: min, max: max})
}

// ClipMin returns the node's min parameter for a Clip node. It panics for
// other node types.
func (n *Node) ClipMin() float64 { return n.inputs.(*nodeInputsClip).min }

// ClipMax returns the node's max parameter for a Clip node. It panics for
// other node types.
func (n *Node) ClipMax() float64 { return n.inputs.(*nodeInputsClip).max }

// nodeInputsTranspose holds the inputs used for the call to Transpose.
type nodeInputsTranspose struct {
	x            *Node
	permutations []int
}

func (ni *nodeInputsTranspose) Type() NodeType { return NodeTypeTranspose }
func (ni *nodeInputsTranspose) String() string {
	return fmt.Sprintf("Transpose(permutations=%v)", ni.permutations)
}

// Transpose returns x with all its axes permuted: output axis ii comes from
// x's axis permutations[ii]. If no permutations are given, the axes are
// reversed -- the matrix transpose for rank-2.
//
// Negative values in permutations count from the end.
func Transpose(x *Node, permutations ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	rank := x.Rank()
	if len(permutations) == 0 {
		permutations = make([]int, rank)
		for ii := range permutations {
			permutations[ii] = rank - 1 - ii
		}
	}
	if len(permutations) != rank {
		Panicf("Transpose: there must be one permutation per axis of x, got %v for shape %s", permutations, x.Shape())
	}
	permutations = slices.Clone(permutations)
	seen := make([]bool, rank)
	for ii, axis := range permutations {
		adjusted := adjustAxis("Transpose", axis, rank)
		permutations[ii] = adjusted
		if seen[adjusted] {
			Panicf("Transpose: axis %d appears more than once in permutations %v", adjusted, permutations)
		}
		seen[adjusted] = true
	}
	dims := xslices.Map(permutations, func(axis int) int { return x.Shape().Dimensions[axis] })
	shape := shapes.MakeDynamic(x.DType(), dims...)
	return newNode(g, shape, []*Node{x}, &nodeInputsTranspose{x: x, permutations: permutations})
}

// Permutations returns the (normalized) permutations parameter of a Transpose
// node. It panics for other node types.
func (n *Node) Permutations() []int { return n.inputs.(*nodeInputsTranspose).permutations }

// nodeInputsReshape holds the inputs used for the call to Reshape.
type nodeInputsReshape struct {
	x          *Node
	dimensions []int
}

func (ni *nodeInputsReshape) Type() NodeType { return NodeTypeReshape }
func (ni *nodeInputsReshape) String() string {
	return fmt.Sprintf("Reshape(dimensions=%v)", ni.dimensions)
}

// Reshape returns x reshaped to the given dimensions. The total size must
// match, and x must have a fully defined shape.
func Reshape(x *Node, dimensions ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	if !x.Shape().IsFullyDefined() {
		Panicf("Reshape: cannot reshape value with dynamic dimensions, got %s", x.Shape())
	}
	shape := shapes.Make(x.DType(), dimensions...)
	if shape.Size() != x.Shape().Size() {
		Panicf("Reshape: total size of shapes don't match: from %s to %s", x.Shape(), shape)
	}
	return newNode(g, shape, []*Node{x}, &nodeInputsReshape{x: x, dimensions: slices.Clone(dimensions)})
}

// nodeInputsSqueeze holds the inputs used for the call to Squeeze.
type nodeInputsSqueeze struct {
	x    *Node
	axes []int
}

func (ni *nodeInputsSqueeze) Type() NodeType { return NodeTypeSqueeze }
func (ni *nodeInputsSqueeze) String() string {
	return fmt.Sprintf("Squeeze(axes=%v)", ni.axes)
}

// Squeeze removes axes of dimension 1 from x. If no axes are given, all axes
// of dimension 1 are removed; otherwise only the given axes, which must have
// dimension 1. Negative axes count from the end.
func Squeeze(x *Node, axes ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	rank := x.Rank()
	if len(axes) == 0 {
		for axis, dim := range x.Shape().Dimensions {
			if dim == 1 {
				axes = append(axes, axis)
			}
		}
	} else {
		axes = slices.Clone(axes)
		for ii, axis := range axes {
			axes[ii] = adjustAxis("Squeeze", axis, rank)
			if x.Shape().Dimensions[axes[ii]] != 1 {
				Panicf("Squeeze: axis %d of %s doesn't have dimension 1", axis, x.Shape())
			}
		}
		slices.Sort(axes)
		axes = slices.Compact(axes)
	}
	dims := make([]int, 0, rank-len(axes))
	for axis, dim := range x.Shape().Dimensions {
		if !slices.Contains(axes, axis) {
			dims = append(dims, dim)
		}
	}
	shape := shapes.MakeDynamic(x.DType(), dims...)
	return newNode(g, shape, []*Node{x}, &nodeInputsSqueeze{x: x, axes: axes})
}

// SqueezeAxes returns the (normalized) axes parameter of a Squeeze node. It
// panics for other node types.
func (n *Node) SqueezeAxes() []int { return n.inputs.(*nodeInputsSqueeze).axes }

// nodeInputsStack holds the inputs used for the call to Stack.
type nodeInputsStack struct {
	xs   []*Node
	axis int
}

func (ni *nodeInputsStack) Type() NodeType { return NodeTypeStack }
func (ni *nodeInputsStack) String() string {
	return fmt.Sprintf("Stack(axis=%d)", ni.axis)
}

// Stack joins the given nodes, which must all have the same (fully defined)
// shape, along a new axis at the given position. The output rank is
// one larger than the inputs' rank, with dimension len(xs) at the new axis.
// Negative axis counts from the end of the output shape.
func Stack(xs []*Node, axis int) *Node {
	g := validateBuildingGraphFromInputs(xs...)
	shape0 := xs[0].Shape()
	if !shape0.IsFullyDefined() {
		Panicf("Stack: inputs must have fully defined shapes, got %s", shape0)
	}
	for ii, x := range xs {
		if !x.Shape().Equal(shape0) {
			Panicf("Stack: input #%d has shape %s, differing from input #0 with shape %s", ii, x.Shape(), shape0)
		}
	}
	outputRank := shape0.Rank() + 1
	axis = adjustAxis("Stack", axis, outputRank)
	dims := slices.Insert(slices.Clone(shape0.Dimensions), axis, len(xs))
	shape := shapes.Make(shape0.DType, dims...)
	return newNode(g, shape, slices.Clone(xs), &nodeInputsStack{xs: xs, axis: axis})
}

// StackAxis returns the (normalized) axis parameter of a Stack node. It
// panics for other node types.
func (n *Node) StackAxis() int { return n.inputs.(*nodeInputsStack).axis }

// nodeInputsSlice holds the inputs used for the call to Slice.
type nodeInputsSlice struct {
	x              *Node
	starts, limits []int
}

func (ni *nodeInputsSlice) Type() NodeType { return NodeTypeSlice }
func (ni *nodeInputsSlice) String() string {
	return fmt.Sprintf("Slice(starts=%v, limits=%v)", ni.starts, ni.limits)
}

// Slice extracts the sub-array x[starts[0]:limits[0], starts[1]:limits[1], ...].
// One start and one (exclusive) limit per axis, and each slice must be
// non-empty. x must have a fully defined shape.
func Slice(x *Node, starts, limits []int) *Node {
	g := validateBuildingGraphFromInputs(x)
	rank := x.Rank()
	if len(starts) != rank || len(limits) != rank {
		Panicf("Slice: starts (%v) and limits (%v) must have one value per axis of x (%s)", starts, limits, x.Shape())
	}
	if !x.Shape().IsFullyDefined() {
		Panicf("Slice: cannot slice value with dynamic dimensions, got %s", x.Shape())
	}
	dims := make([]int, rank)
	for axis := range dims {
		dim := x.Shape().Dimensions[axis]
		if starts[axis] < 0 || limits[axis] > dim || starts[axis] >= limits[axis] {
			Panicf("Slice: invalid range [%d, %d) for axis %d of %s", starts[axis], limits[axis], axis, x.Shape())
		}
		dims[axis] = limits[axis] - starts[axis]
	}
	shape := shapes.Make(x.DType(), dims...)
	return newNode(g, shape, []*Node{x},
		&nodeInputsSlice{x: x, starts: slices.Clone(starts), limits: slices.Clone(limits)})
}

// SliceStarts returns the starts parameter of a Slice node. It panics for
// other node types.
func (n *Node) SliceStarts() []int { return n.inputs.(*nodeInputsSlice).starts }

// SliceLimits returns the limits parameter of a Slice node. It panics for
// other node types.
func (n *Node) SliceLimits() []int { return n.inputs.(*nodeInputsSlice).limits }

// nodeInputsPad holds the inputs used for the call to Pad.
type nodeInputsPad struct {
	x           *Node
	lows, highs []int
}

func (ni *nodeInputsPad) Type() NodeType { return NodeTypePad }
func (ni *nodeInputsPad) String() string {
	return fmt.Sprintf("Pad(lows=%v, highs=%v)", ni.lows, ni.highs)
}

// Pad grows x with zeros: lows[axis] zeros prepended and highs[axis] zeros
// appended on each axis. x must have a fully defined shape.
func Pad(x *Node, lows, highs []int) *Node {
	g := validateBuildingGraphFromInputs(x)
	rank := x.Rank()
	if len(lows) != rank || len(highs) != rank {
		Panicf("Pad: lows (%v) and highs (%v) must have one value per axis of x (%s)", lows, highs, x.Shape())
	}
	if !x.Shape().IsFullyDefined() {
		Panicf("Pad: cannot pad value with dynamic dimensions, got %s", x.Shape())
	}
	dims := make([]int, rank)
	for axis := range dims {
		if lows[axis] < 0 || highs[axis] < 0 {
			Panicf("Pad: padding amounts must be non-negative, got lows=%v, highs=%v", lows, highs)
		}
		dims[axis] = lows[axis] + x.Shape().Dimensions[axis] + highs[axis]
	}
	shape := shapes.Make(x.DType(), dims...)
	return newNode(g, shape, []*Node{x},
		&nodeInputsPad{x: x, lows: slices.Clone(lows), highs: slices.Clone(highs)})
}

// PadLows returns the lows parameter of a Pad node. It panics for other node
// types.
func (n *Node) PadLows() []int { return n.inputs.(*nodeInputsPad).lows }

// PadHighs returns the highs parameter of a Pad node. It panics for other
// node types.
func (n *Node) PadHighs() []int { return n.inputs.(*nodeInputsPad).highs }

// nodeInputsBroadcastTo holds the inputs used for the call to BroadcastTo.
type nodeInputsBroadcastTo struct {
	x          *Node
	dimensions []int
}

func (ni *nodeInputsBroadcastTo) Type() NodeType { return NodeTypeBroadcastTo }
func (ni *nodeInputsBroadcastTo) String() string {
	return fmt.Sprintf("BroadcastTo(dimensions=%v)", ni.dimensions)
}

// BroadcastTo broadcasts x to the given dimensions with numpy-style rules:
// the shapes are aligned on the trailing axes, and on each aligned axis x's
// dimension must either match or be 1.
func BroadcastTo(x *Node, dimensions ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	shape := shapes.Make(x.DType(), dimensions...)
	if x.Shape().Equal(shape) {
		return x
	}
	if !x.Shape().IsFullyDefined() {
		Panicf("BroadcastTo: cannot broadcast value with dynamic dimensions, got %s", x.Shape())
	}
	if x.Rank() > shape.Rank() {
		Panicf("BroadcastTo: cannot broadcast %s to lower rank shape %s", x.Shape(), shape)
	}
	rankDiff := shape.Rank() - x.Rank()
	for axis, dim := range x.Shape().Dimensions {
		targetDim := shape.Dimensions[rankDiff+axis]
		if dim != 1 && dim != targetDim {
			Panicf("BroadcastTo: axis %d of %s is incompatible with target shape %s", axis, x.Shape(), shape)
		}
	}
	return newNode(g, shape, []*Node{x}, &nodeInputsBroadcastTo{x: x, dimensions: slices.Clone(dimensions)})
}

// nodeInputsReduceSum holds the inputs used for the call to ReduceSum.
type nodeInputsReduceSum struct {
	x    *Node
	axes []int
}

func (ni *nodeInputsReduceSum) Type() NodeType { return NodeTypeReduceSum }
func (ni *nodeInputsReduceSum) String() string {
	return fmt.Sprintf("ReduceSum(axes=%v)", ni.axes)
}

// ReduceSum sums x over the given axes, which are removed from the shape. If
// no axes are given, it sums over all axes and returns a scalar. Negative
// axes count from the end.
func ReduceSum(x *Node, axes ...int) *Node {
	g := validateBuildingGraphFromInputs(x)
	rank := x.Rank()
	if len(axes) == 0 {
		axes = xslices.Iota(0, rank)
	} else {
		axes = slices.Clone(axes)
		for ii, axis := range axes {
			axes[ii] = adjustAxis("ReduceSum", axis, rank)
		}
		slices.Sort(axes)
		axes = slices.Compact(axes)
	}
	dims := make([]int, 0, rank-len(axes))
	for axis, dim := range x.Shape().Dimensions {
		if !slices.Contains(axes, axis) {
			dims = append(dims, dim)
		}
	}
	shape := shapes.MakeDynamic(x.DType(), dims...)
	return newNode(g, shape, []*Node{x}, &nodeInputsReduceSum{x: x, axes: axes})
}

// ReduceAxes returns the (normalized) axes parameter of a ReduceSum node. It
// panics for other node types.
func (n *Node) ReduceAxes() []int { return n.inputs.(*nodeInputsReduceSum).axes }

// nodeInputsTake holds the inputs used for the call to Take or TakeFlat. For
// TakeFlat, flat is true and axis is unused.
type nodeInputsTake struct {
	x, indices *Node
	axis       int
	flat       bool
}

func (ni *nodeInputsTake) Type() NodeType { return NodeTypeTake }
func (ni *nodeInputsTake) String() string {
	if ni.flat {
		return "Take(flat)"
	}
	return fmt.Sprintf("Take(axis=%d)", ni.axis)
}

func validateIndicesDType(opName string, indices *Node) {
	if indices.DType() != dtypes.Int32 && indices.DType() != dtypes.Int64 {
		Panicf("%s: indices must be Int32 or Int64, got %s", opName, indices.Shape())
	}
	if !indices.Shape().IsFullyDefined() {
		Panicf("%s: indices must have a fully defined shape, got %s", opName, indices.Shape())
	}
}

// Take gathers slices of x along the given axis: output position
// [..., i, ...] (indices' axes replacing x's axis) holds the slice
// x[..., indices[i], ...]. The output shape is x's dimensions before axis,
// followed by indices' dimensions, followed by x's dimensions after axis.
//
// indices must be Int32 or Int64, and must be in-range: behavior for
// out-of-range indices is undefined. Negative axis counts from the end.
func Take(x, indices *Node, axis int) *Node {
	g := validateBuildingGraphFromInputs(x, indices)
	validateIndicesDType("Take", indices)
	axis = adjustAxis("Take", axis, x.Rank())
	dims := make([]int, 0, x.Rank()-1+indices.Rank())
	dims = append(dims, x.Shape().Dimensions[:axis]...)
	dims = append(dims, indices.Shape().Dimensions...)
	dims = append(dims, x.Shape().Dimensions[axis+1:]...)
	shape := shapes.MakeDynamic(x.DType(), dims...)
	return newNode(g, shape, []*Node{x, indices}, &nodeInputsTake{x: x, indices: indices, axis: axis})
}

// TakeFlat gathers scalars of x indexed over its flattened (row-major)
// layout: the output has indices' dimensions and x's dtype. It matches Take
// over a rank-1 x, for any rank.
func TakeFlat(x, indices *Node) *Node {
	g := validateBuildingGraphFromInputs(x, indices)
	validateIndicesDType("TakeFlat", indices)
	if !x.Shape().IsFullyDefined() {
		Panicf("TakeFlat: x must have a fully defined shape, got %s", x.Shape())
	}
	shape := shapes.Make(x.DType(), indices.Shape().Dimensions...)
	return newNode(g, shape, []*Node{x, indices}, &nodeInputsTake{x: x, indices: indices, flat: true})
}

// TakeAxis returns the (normalized) axis parameter of a Take node, and
// whether the node indexes the flattened layout (TakeFlat), in which case the
// axis is meaningless. It panics for other node types.
func (n *Node) TakeAxis() (axis int, flat bool) {
	inputs := n.inputs.(*nodeInputsTake)
	return inputs.axis, inputs.flat
}

// nodeInputsScatterSum holds the inputs used for the call to ScatterSum or
// ScatterSumFlat. For ScatterSumFlat, flat is true and axis is unused.
type nodeInputsScatterSum struct {
	operand, indices, updates *Node
	axis                      int
	flat                      bool
}

func (ni *nodeInputsScatterSum) Type() NodeType { return NodeTypeScatterSum }
func (ni *nodeInputsScatterSum) String() string {
	if ni.flat {
		return "ScatterSum(flat)"
	}
	return fmt.Sprintf("ScatterSum(axis=%d)", ni.axis)
}

// ScatterSum adds the slices of updates into a copy of operand along the
// given axis, at the positions selected by indices -- the inverse of Take:
// for every index i of indices, updates[..., i, ...] is added to
// operand[..., indices[i], ...]. Repeated indices accumulate.
//
// updates must have the shape Take(operand, indices, axis) would return.
func ScatterSum(operand, indices, updates *Node, axis int) *Node {
	g := validateBuildingGraphFromInputs(operand, indices, updates)
	validateIndicesDType("ScatterSum", indices)
	if operand.DType() != updates.DType() {
		Panicf("ScatterSum: operand (%s) and updates (%s) must have the same dtype", operand.Shape(), updates.Shape())
	}
	axis = adjustAxis("ScatterSum", axis, operand.Rank())
	wantDims := make([]int, 0, operand.Rank()-1+indices.Rank())
	wantDims = append(wantDims, operand.Shape().Dimensions[:axis]...)
	wantDims = append(wantDims, indices.Shape().Dimensions...)
	wantDims = append(wantDims, operand.Shape().Dimensions[axis+1:]...)
	if !slices.Equal(updates.Shape().Dimensions, wantDims) {
		Panicf("ScatterSum: updates shape %s doesn't match the scattered shape %v for operand %s and indices %s",
			updates.Shape(), wantDims, operand.Shape(), indices.Shape())
	}
	return newNode(g, operand.Shape().Clone(), []*Node{operand, indices, updates},
		&nodeInputsScatterSum{operand: operand, indices: indices, updates: updates, axis: axis})
}

// ScatterSumFlat adds the scalars of updates into a copy of operand, indexed
// over operand's flattened (row-major) layout -- the inverse of TakeFlat.
// updates must have the same dimensions as indices, and repeated indices
// accumulate.
func ScatterSumFlat(operand, indices, updates *Node) *Node {
	g := validateBuildingGraphFromInputs(operand, indices, updates)
	validateIndicesDType("ScatterSumFlat", indices)
	if operand.DType() != updates.DType() {
		Panicf("ScatterSumFlat: operand (%s) and updates (%s) must have the same dtype", operand.Shape(), updates.Shape())
	}
	if !operand.Shape().IsFullyDefined() {
		Panicf("ScatterSumFlat: operand must have a fully defined shape, got %s", operand.Shape())
	}
	if !updates.Shape().EqualDimensions(indices.Shape()) {
		Panicf("ScatterSumFlat: updates shape %s must match indices shape %s", updates.Shape(), indices.Shape())
	}
	return newNode(g, operand.Shape().Clone(), []*Node{operand, indices, updates},
		&nodeInputsScatterSum{operand: operand, indices: indices, updates: updates, flat: true})
}

// ScatterAxis returns the (normalized) axis parameter of a ScatterSum node,
// and whether the node indexes the flattened layout (ScatterSumFlat), in
// which case the axis is meaningless. It panics for other node types.
func (n *Node) ScatterAxis() (axis int, flat bool) {
	inputs := n.inputs.(*nodeInputsScatterSum)
	return inputs.axis, inputs.flat
}

// nodeInputsIotaLike holds the inputs used for the call to IotaLike.
type nodeInputsIotaLike struct {
	x    *Node
	axis int
}

func (ni *nodeInputsIotaLike) Type() NodeType { return NodeTypeIotaLike }
func (ni *nodeInputsIotaLike) String() string {
	return fmt.Sprintf("IotaLike(axis=%d)", ni.axis)
}

// IotaLike returns a node with the same shape and dtype as x, holding at each
// position the coordinate along the given axis (0, 1, 2, ...), converted to
// x's dtype. The values of x are ignored, only its execution-time shape is
// used, so it also works for dynamic shapes.
func IotaLike(x *Node, axis int) *Node {
	g := validateBuildingGraphFromInputs(x)
	if x.Rank() == 0 {
		Panicf("IotaLike: x must not be a scalar")
	}
	axis = adjustAxis("IotaLike", axis, x.Rank())
	return newNode(g, x.Shape().Clone(), []*Node{x}, &nodeInputsIotaLike{x: x, axis: axis})
}

// IotaAxis returns the (normalized) axis parameter of an IotaLike node. It
// panics for other node types.
func (n *Node) IotaAxis() int { return n.inputs.(*nodeInputsIotaLike).axis }

// nodeInputsArange holds the inputs used for the call to Arange.
type nodeInputsArange struct {
	start, stop, step *Node
}

func (ni *nodeInputsArange) Type() NodeType { return NodeTypeArange }
func (ni *nodeInputsArange) String() string { return "Arange" }

// Arange returns the evenly spaced values [start, start+step, start+2*step,
// ...) up to but excluding stop. All three inputs must be scalars of the same
// floating point dtype. The output is a vector whose length,
// ceil((stop-start)/step), depends on the input values, so its dimension is
// dynamic (shapes.DynamicDim) until execution.
//
// step must not be zero at execution time.
func Arange(start, stop, step *Node) *Node {
	g := validateBuildingGraphFromInputs(start, stop, step)
	for _, n := range []*Node{start, stop, step} {
		if !n.IsScalar() {
			Panicf("Arange: inputs must be scalars, got %s", n.Shape())
		}
		if n.DType() != start.DType() {
			Panicf("Arange: inputs must have the same dtype, got %s and %s", start.Shape(), n.Shape())
		}
	}
	if !start.DType().IsFloat() {
		Panicf("Arange: inputs must be floating point, got %s", start.Shape())
	}
	shape := shapes.MakeDynamic(start.DType(), shapes.DynamicDim)
	return newNode(g, shape, []*Node{start, stop, step}, &nodeInputsArange{start: start, stop: stop, step: step})
}

// adjustAxis converts a possibly negative axis to the [0, rank) range,
// panicking if out-of-bounds. The opName is used for the error message only.
func adjustAxis(opName string, axis, rank int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += rank
	}
	if adjusted < 0 || adjusted >= rank {
		Panicf("%s: axis %d is out-of-bounds for rank %d", opName, axis, rank)
	}
	return adjusted
}
