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
	"strings"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
	"github.com/tensorir/tensorir/types/xslices"
)

// NodeInputs holds the inputs of a node: a per-op typed struct with the
// static parameters used to create the node (axes, permutations, limits, ...).
// Dynamic inputs -- other nodes -- are kept as graph edges in Node instead.
type NodeInputs interface {
	Type() NodeType

	// String prints a descriptive representation of the node, with its static
	// parameters.
	String() string
}

// Node implements Node and is the standard node implementation.
type Node struct {
	graph  *Graph
	id     NodeId
	shape  shapes.Shape
	inputs NodeInputs

	inputNodes []*Node

	// constValue is set only for constant nodes (NodeTypeConstant).
	constValue *tensors.Tensor

	// stopGradient prevents gradients from back-propagating through this node.
	stopGradient bool

	// customVJP overrides the registered VJP for the node type, if set.
	customVJP VJP
}

// newNode creates a node in the graph with the given shape, input nodes and
// typed inputs, and registers it.
func newNode(g *Graph, shape shapes.Shape, inputNodes []*Node, inputs NodeInputs) *Node {
	node := &Node{
		graph:      g,
		shape:      shape,
		inputs:     inputs,
		inputNodes: inputNodes,
	}
	node.id = g.registerNode(node)
	return node
}

// Graph that holds this node.
func (n *Node) Graph() *Graph {
	if n == nil {
		return nil
	}
	return n.graph
}

// Id is the unique id of this node within the Graph. Ids follow creation
// order, a topological order of the computation DAG.
func (n *Node) Id() NodeId {
	if n == nil {
		return InvalidNodeId
	}
	return n.id
}

// Type identifies the operation performed by the node.
func (n *Node) Type() NodeType {
	if n == nil || n.inputs == nil {
		return NodeTypeInvalid
	}
	return n.inputs.Type()
}

// Shape of the value of this node. Some nodes (e.g. Arange) have dynamic
// dimensions, only defined at execution time.
func (n *Node) Shape() shapes.Shape {
	if n == nil {
		return shapes.Invalid()
	}
	return n.shape
}

// DType returns the DType of the node's shape.
func (n *Node) DType() dtypes.DType {
	return n.shape.DType
}

// Rank returns the rank of the node's shape.
func (n *Node) Rank() int {
	return n.shape.Rank()
}

// IsScalar returns whether the node's value is a scalar.
func (n *Node) IsScalar() bool {
	return n.shape.IsScalar()
}

// Inputs are the other nodes that are direct inputs to the node.
func (n *Node) Inputs() []*Node {
	if n == nil {
		return nil
	}
	return n.inputNodes
}

// NumInputs returns the number of node inputs.
func (n *Node) NumInputs() int { return len(n.inputNodes) }

// ConstantValue returns the tensor held by a constant node, or nil for any
// other node type.
func (n *Node) ConstantValue() *tensors.Tensor {
	if n == nil || n.Type() != NodeTypeConstant {
		return nil
	}
	return n.constValue
}

// ParameterName returns the name of the parameter node. It panics for other
// node types.
func (n *Node) ParameterName() string {
	n.AssertValid()
	inputs, ok := n.inputs.(*nodeInputsParameter)
	if !ok {
		Panicf("node %s is not a Parameter", n)
	}
	return inputs.name
}

// ParameterHandle returns the parameter handle of the parameter node. It
// panics for other node types.
func (n *Node) ParameterHandle() ParameterHandle {
	n.AssertValid()
	inputs, ok := n.inputs.(*nodeInputsParameter)
	if !ok {
		Panicf("node %s is not a Parameter", n)
	}
	return inputs.handle
}

// AssertValid panics if the node is nil or if its graph is invalid.
func (n *Node) AssertValid() {
	if n == nil {
		Panicf("Node is nil")
	}
	n.graph.AssertValid()
}

// String implements the fmt.Stringer interface.
func (n *Node) String() (str string) {
	if n == nil {
		return "Node(nil)"
	}
	if n.inputs == nil {
		return "Node(invalid)"
	}
	str = n.inputs.String()
	if len(n.inputNodes) > 0 {
		inputIds := xslices.Map(n.inputNodes, func(input *Node) string {
			return fmt.Sprintf("#%d", input.Id())
		})
		str = fmt.Sprintf("%s(%s)", str, strings.Join(inputIds, ", "))
	}
	str = fmt.Sprintf("%s -> %s", str, n.shape)
	return
}

// validateBuildingGraphFromInputs checks that all inputs are non-nil, valid
// and share the same graph, which it returns.
func validateBuildingGraphFromInputs(inputs ...*Node) (g *Graph) {
	if len(inputs) == 0 {
		Panicf("no input nodes provided")
	}
	for ii, n := range inputs {
		if n == nil {
			Panicf("input node #%d is nil", ii)
		}
		n.AssertValid()
		if g == nil {
			g = n.graph
		} else if n.graph != g {
			Panicf("input node #%d (%s) belongs to a different graph (%q) than the previous inputs (%q)",
				ii, n, n.graph.Name(), g.Name())
		}
	}
	return
}
