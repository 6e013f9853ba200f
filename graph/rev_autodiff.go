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
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	. "github.com/gomlx/exceptions"

	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/xslices"
)

// This file implements reverse-mode automatic differentiation: the Gradient
// transform and the per-op VJP (vector-jacobian product) rules.

// Sentinel errors reported by the Gradient transform. They are delivered by
// panic, wrapped with context and a stack trace; recover them with
// exceptions.TryCatch[error] and test with errors.Is.
var (
	// ErrUnregisteredOperator is reported when the graph contains a node on a
	// gradient path whose NodeType has no entry in VJPRegistration.
	ErrUnregisteredOperator = errors.New("no VJP (gradient) registered for operator")

	// ErrNonScalarOutput is reported when Gradient is called on a non-scalar
	// output.
	ErrNonScalarOutput = errors.New("gradient requires a scalar output")

	// ErrShapeMismatch is reported when a VJP rule produces a gradient whose
	// shape is incompatible with the input it is the gradient of.
	ErrShapeMismatch = errors.New("gradient shape mismatch")
)

// VJP returns the vector-jacobian-product for the given node, that is, the
// gradient contributions to each of the node's inputs.
//
// node is the node for which we are calculating the gradient, v is the
// adjoint: the gradient of the scalar loss with respect to the node's output,
// with outputShape (the node's own shape). It returns one gradient per
// node.Inputs(), in order; a nil entry means no contribution flows to that
// input (e.g. the indices of a Take).
type VJP func(node, v *Node, outputShape shapes.Shape) []*Node

// VJPRegistration maps each node type to its VJP rule. A nil entry marks a
// node type that is valid on a gradient path but propagates nothing to its
// inputs (sources and operators with zero gradient almost everywhere). A
// missing entry is an error (ErrUnregisteredOperator) if such a node is
// reached by the gradient walk.
//
// New ops can register their rule here; it must be done before building
// gradients, not concurrently.
var VJPRegistration = map[NodeType]VJP{
	NodeTypeParameter:            nil,
	NodeTypeConstant:             nil,
	NodeTypeNonNegativeIndicator: nil,
	NodeTypeIotaLike:             nil,

	NodeTypeIdentity:     identityVJP,
	NodeTypeConvertDType: convertDTypeVJP,
	NodeTypeNeg:          negVJP,
	NodeTypeAdd:          addVJP,
	NodeTypeSub:          subVJP,
	NodeTypeMul:          mulVJP,
	NodeTypeMin:          minMaxVJP,
	NodeTypeMax:          minMaxVJP,
	NodeTypeClip:         clipVJP,
	NodeTypeTranspose:    transposeVJP,
	NodeTypeReshape:      reshapeVJP,
	NodeTypeSqueeze:      squeezeVJP,
	NodeTypeStack:        stackVJP,
	NodeTypeSlice:        sliceVJP,
	NodeTypePad:          padVJP,
	NodeTypeBroadcastTo:  broadcastToVJP,
	NodeTypeReduceSum:    reduceSumVJP,
	NodeTypeTake:         takeVJP,
	NodeTypeScatterSum:   scatterSumVJP,
	NodeTypeArange:       arangeVJP,
}

// reverseNode holds the bookkeeping of the reverse walk for one node.
type reverseNode struct {
	node *Node

	// selected: a gradient with respect to this node was requested.
	selected bool

	// useful: in the transitive input closure of the output, with a selected
	// node in its own transitive input closure (or selected itself). Only
	// useful nodes receive and propagate adjoints.
	useful bool

	// visited memoizes markUseful, so shared sub-graphs are walked once.
	visited bool

	// accumulatedVJP sums the gradient contributions from all consumers seen
	// so far. After all consumers were visited (guaranteed by walking ids in
	// descending order) it is the node's full adjoint.
	accumulatedVJP *Node
}

// reverseGraph: reverse walk bookkeeping for all nodes up to the output, see
// newReverseGraph. Indexed by NodeId.
type reverseGraph struct {
	g     *Graph
	nodes []*reverseNode
}

func newReverseGraph(g *Graph, output *Node, gradientNodes []*Node) *reverseGraph {
	rg := &reverseGraph{
		g:     g,
		nodes: make([]*reverseNode, output.Id()+1),
	}
	for ii := range rg.nodes {
		rg.nodes[ii] = &reverseNode{node: g.NodeById(NodeId(ii))}
	}
	for _, node := range gradientNodes {
		rg.nodes[node.Id()].selected = true
	}
	rg.markUseful(output)
	return rg
}

// markUseful computes whether gradients flow through the node: it is useful
// if selected, or if any of its inputs is useful. Returns the node's own
// usefulness. stopGradient nodes block the recursion.
func (rg *reverseGraph) markUseful(node *Node) bool {
	rNode := rg.nodes[node.Id()]
	if rNode.visited {
		return rNode.useful
	}
	rNode.visited = true
	if rNode.selected {
		rNode.useful = true
		return true
	}
	if node.stopGradient {
		return false
	}
	for _, input := range node.Inputs() {
		if rg.markUseful(input) {
			rNode.useful = true
		}
	}
	return rNode.useful
}

// Gradient computes the gradients of output with respect to each node in
// gradientNodes, using reverse-mode automatic differentiation. The gradient
// nodes are appended to the same graph, sharing the forward nodes, and
// returned in the same order as gradientNodes -- each with the same shape and
// dtype as the node it is the gradient of.
//
// output must be a scalar of a floating point dtype -- reduce it (e.g.
// ReduceAllSum) if needed. A gradient node through which no gradient path
// reaches the output yields a zero-valued gradient.
//
// It panics (with a stack trace, see package github.com/gomlx/exceptions) on
// structural errors: ErrNonScalarOutput, ErrUnregisteredOperator and
// ErrShapeMismatch.
func Gradient(output *Node, gradientNodes ...*Node) []*Node {
	g := validateBuildingGraphFromInputs(append([]*Node{output}, gradientNodes...)...)
	if !output.IsScalar() {
		panic(errors.Wrapf(ErrNonScalarOutput, "Gradient: output has shape %s", output.Shape()))
	}
	if !output.DType().IsFloat() {
		Panicf("Gradient: output must have a floating point dtype, got %s", output.Shape())
	}
	for ii, node := range gradientNodes {
		if node.Id() > output.Id() {
			Panicf("Gradient: gradient node #%d (%s) was created after the output node, it cannot affect it", ii, node)
		}
	}

	rg := newReverseGraph(g, output, gradientNodes)
	// Seed: d(output)/d(output) = 1.
	rg.nodes[output.Id()].accumulatedVJP = ScalarOne(g, output.DType())

	// Walk nodes in descending id order: every consumer of a node has a
	// larger id, so when a node is visited its adjoint is complete.
	for nodeIdx := output.Id(); nodeIdx >= 0; nodeIdx-- {
		rNode := rg.nodes[nodeIdx]
		node := rNode.node
		v := rNode.accumulatedVJP
		if !rNode.useful || v == nil || node.stopGradient || node.NumInputs() == 0 {
			continue
		}
		vjpFn, found := node.customVJP, true
		if vjpFn == nil {
			vjpFn, found = VJPRegistration[node.Type()]
		}
		if !found {
			panic(errors.Wrapf(ErrUnregisteredOperator, "Gradient: node %s", node))
		}
		if vjpFn == nil {
			continue
		}
		if klog.V(2).Enabled() {
			klog.Infof("Gradient: backprop through #%d %s", node.Id(), node)
		}
		vjps := vjpFn(node, v, node.Shape())
		if len(vjps) != node.NumInputs() {
			Panicf("Gradient: VJP of node %s returned %d gradients for %d inputs", node, len(vjps), node.NumInputs())
		}
		for ii, vjp := range vjps {
			if vjp == nil {
				continue
			}
			input := node.Inputs()[ii]
			if vjp.DType() != input.DType() || !vjp.Shape().CompatibleDimensions(input.Shape()) {
				panic(errors.Wrapf(ErrShapeMismatch,
					"Gradient: invalid gradient shape %s for input #%d (%s) of node %s", vjp.Shape(), ii, input.Shape(), node))
			}
			rInput := rg.nodes[input.Id()]
			if !rInput.useful {
				continue
			}
			if rInput.accumulatedVJP == nil {
				rInput.accumulatedVJP = vjp
			} else {
				rInput.accumulatedVJP = Add(rInput.accumulatedVJP, vjp)
			}
		}
		// Free the adjoint of internal nodes, it is no longer needed.
		if !rNode.selected {
			rNode.accumulatedVJP = nil
		}
	}

	return xslices.Map(gradientNodes, func(node *Node) *Node {
		vjp := rg.nodes[node.Id()].accumulatedVJP
		if vjp == nil {
			// No gradient path from node to output: the gradient is zero.
			return ZerosLike(node)
		}
		return vjp
	})
}

// reconcileToShape reduces the adjoint v, which may have a broadcast shape,
// back to the shape of the input it is the gradient of: axes broadcast from
// dimension 1 are summed, leading axes added by rank expansion are summed
// away, and the result is reshaped to the target.
func reconcileToShape(v *Node, target shapes.Shape) *Node {
	if v.Shape().Rank() == target.Rank() && v.Shape().CompatibleDimensions(target) {
		return v
	}
	if target.IsScalar() {
		return ReduceAllSum(v)
	}
	if !v.Shape().IsFullyDefined() || !target.IsFullyDefined() {
		panic(errors.Wrapf(ErrShapeMismatch,
			"cannot reconcile gradient with dynamic shape %s to target %s", v.Shape(), target))
	}
	rankDiff := v.Rank() - target.Rank()
	if rankDiff < 0 {
		panic(errors.Wrapf(ErrShapeMismatch,
			"gradient shape %s has lower rank than target %s", v.Shape(), target))
	}
	axesToReduce := xslices.Iota(0, rankDiff)
	for axis, targetDim := range target.Dimensions {
		vDim := v.Shape().Dimensions[rankDiff+axis]
		if vDim == targetDim {
			continue
		}
		if targetDim != 1 {
			panic(errors.Wrapf(ErrShapeMismatch,
				"gradient shape %s is not a broadcast of target %s", v.Shape(), target))
		}
		axesToReduce = append(axesToReduce, rankDiff+axis)
	}
	output := v
	if len(axesToReduce) > 0 {
		output = ReduceSum(output, axesToReduce...)
	}
	if !output.Shape().EqualDimensions(target) {
		output = Reshape(output, target.Dimensions...)
	}
	return output
}

// identityVJP passes the adjoint through unchanged.
func identityVJP(_, v *Node, _ shapes.Shape) []*Node {
	return []*Node{v}
}

// convertDTypeVJP converts the adjoint back to the input's dtype.
func convertDTypeVJP(node, v *Node, _ shapes.Shape) []*Node {
	return []*Node{ConvertDType(v, node.Inputs()[0].DType())}
}

func negVJP(_, v *Node, _ shapes.Shape) []*Node {
	return []*Node{Neg(v)}
}

func addVJP(node, v *Node, _ shapes.Shape) []*Node {
	x, y := node.Inputs()[0], node.Inputs()[1]
	return []*Node{
		reconcileToShape(v, x.Shape()),
		reconcileToShape(v, y.Shape()),
	}
}

func subVJP(node, v *Node, _ shapes.Shape) []*Node {
	x, y := node.Inputs()[0], node.Inputs()[1]
	return []*Node{
		reconcileToShape(v, x.Shape()),
		reconcileToShape(Neg(v), y.Shape()),
	}
}

func mulVJP(node, v *Node, _ shapes.Shape) []*Node {
	x, y := node.Inputs()[0], node.Inputs()[1]
	return []*Node{
		reconcileToShape(Mul(v, y), x.Shape()),
		reconcileToShape(Mul(v, x), y.Shape()),
	}
}

// minMaxVJP routes the adjoint to the winning side, element-wise. On ties the
// whole gradient goes to the first operand.
func minMaxVJP(node, v *Node, _ shapes.Shape) []*Node {
	x, y := node.Inputs()[0], node.Inputs()[1]
	var winnerX *Node // 1 where the output was taken from x.
	if node.Type() == NodeTypeMax {
		winnerX = NonNegativeIndicator(Sub(x, y))
	} else {
		winnerX = NonNegativeIndicator(Sub(y, x))
	}
	return []*Node{
		reconcileToShape(Mul(v, winnerX), x.Shape()),
		reconcileToShape(Mul(v, OneMinus(winnerX)), y.Shape()),
	}
}

// clipVJP masks the adjoint to the in-range elements, boundaries included:
// the gradient is 1 where min <= x <= max, 0 outside.
func clipVJP(node, v *Node, _ shapes.Shape) []*Node {
	x := node.Inputs()[0]
	aboveMin := NonNegativeIndicator(AddScalar(x, -node.ClipMin()))
	belowMax := NonNegativeIndicator(Neg(AddScalar(x, -node.ClipMax())))
	return []*Node{Mul(v, Mul(aboveMin, belowMax))}
}

// transposeVJP applies the inverse permutation to the adjoint.
func transposeVJP(node, v *Node, _ shapes.Shape) []*Node {
	permutations := node.Permutations()
	inverse := make([]int, len(permutations))
	for ii, axis := range permutations {
		inverse[axis] = ii
	}
	return []*Node{Transpose(v, inverse...)}
}

func reshapeVJP(node, v *Node, _ shapes.Shape) []*Node {
	x := node.Inputs()[0]
	return []*Node{Reshape(v, x.Shape().Dimensions...)}
}

// squeezeVJP reshapes the adjoint back, re-inserting the squeezed unit axes.
func squeezeVJP(node, v *Node, _ shapes.Shape) []*Node {
	x := node.Inputs()[0]
	return []*Node{Reshape(v, x.Shape().Dimensions...)}
}

// stackVJP splits the adjoint back into one piece per input.
func stackVJP(node, v *Node, _ shapes.Shape) []*Node {
	return Split(v, node.StackAxis())
}

// sliceVJP pads the adjoint with zeros back to the input's shape.
func sliceVJP(node, v *Node, _ shapes.Shape) []*Node {
	inputs := node.inputs.(*nodeInputsSlice)
	x := node.Inputs()[0]
	rank := x.Rank()
	highs := make([]int, rank)
	for axis := range highs {
		highs[axis] = x.Shape().Dimensions[axis] - inputs.limits[axis]
	}
	return []*Node{Pad(v, inputs.starts, highs)}
}

// padVJP slices the padding out of the adjoint.
func padVJP(node, v *Node, _ shapes.Shape) []*Node {
	inputs := node.inputs.(*nodeInputsPad)
	x := node.Inputs()[0]
	rank := x.Rank()
	limits := make([]int, rank)
	for axis := range limits {
		limits[axis] = inputs.lows[axis] + x.Shape().Dimensions[axis]
	}
	return []*Node{Slice(v, inputs.lows, limits)}
}

// broadcastToVJP sums the adjoint over the broadcast axes.
func broadcastToVJP(node, v *Node, _ shapes.Shape) []*Node {
	x := node.Inputs()[0]
	return []*Node{reconcileToShape(v, x.Shape())}
}

// reduceSumVJP broadcasts the adjoint back over the reduced axes.
func reduceSumVJP(node, v *Node, _ shapes.Shape) []*Node {
	x := node.Inputs()[0]
	axes := node.ReduceAxes()
	if !x.Shape().IsFullyDefined() {
		// The static target shape is unknown; only a full reduction (scalar
		// adjoint) can be expanded, by leaning on broadcasting against x.
		if !v.IsScalar() {
			panic(errors.Wrapf(ErrShapeMismatch,
				"cannot expand gradient of partial ReduceSum over dynamic shape %s", x.Shape()))
		}
		return []*Node{Mul(OnesLike(x), v)}
	}
	dims := make([]int, x.Rank())
	copy(dims, x.Shape().Dimensions)
	for _, axis := range axes {
		dims[axis] = 1
	}
	expanded := BroadcastTo(Reshape(v, dims...), x.Shape().Dimensions...)
	return []*Node{expanded}
}

// takeVJP scatter-adds the adjoint back into a zero tensor of the input's
// shape. The indices input gets no gradient.
func takeVJP(node, v *Node, _ shapes.Shape) []*Node {
	inputs := node.inputs.(*nodeInputsTake)
	x, indices := node.Inputs()[0], node.Inputs()[1]
	if !x.Shape().IsFullyDefined() {
		panic(errors.Wrapf(ErrShapeMismatch,
			"cannot build Take gradient for input with dynamic shape %s", x.Shape()))
	}
	zeros := Zeros(node.Graph(), x.Shape())
	var vjpX *Node
	if inputs.flat {
		vjpX = ScatterSumFlat(zeros, indices, v)
	} else {
		vjpX = ScatterSum(zeros, indices, v, inputs.axis)
	}
	return []*Node{vjpX, nil}
}

// scatterSumVJP: the operand's adjoint passes through; the updates' adjoint
// is gathered from the scattered positions. The indices input gets no
// gradient.
func scatterSumVJP(node, v *Node, _ shapes.Shape) []*Node {
	inputs := node.inputs.(*nodeInputsScatterSum)
	indices := node.Inputs()[1]
	var vjpUpdates *Node
	if inputs.flat {
		vjpUpdates = TakeFlat(v, indices)
	} else {
		vjpUpdates = Take(v, indices, inputs.axis)
	}
	return []*Node{v, nil, vjpUpdates}
}

// arangeVJP: every output element is start + k*step, so d/d(start) sums the
// adjoint and d/d(step) sums it weighted by the element's position. The
// (excluded) stop only affects the output's length, so its gradient is zero.
func arangeVJP(node, v *Node, _ shapes.Shape) []*Node {
	g := node.Graph()
	dtype := node.DType()
	vjpStart := ReduceAllSum(v)
	vjpStop := ScalarZero(g, dtype)
	vjpStep := ReduceAllSum(Mul(v, IotaLike(v, 0)))
	return []*Node{vjpStart, vjpStop, vjpStep}
}
