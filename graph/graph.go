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

// Package graph implements the tensor-program intermediate representation
// (IR) and its reverse-mode automatic-differentiation transform.
//
// The main elements in the package are:
//
//   - Graph: an append-only container of operation nodes. Nodes are created
//     through the op builder functions (Add, Mul, Transpose, Take, ...), which
//     perform shape inference at building time. Node ids follow creation
//     order, which is a topological order of the DAG.
//
//   - Node: the result of an operation ("op"). Each node has a fixed shape,
//     inferred when it is built. Static op parameters (axes, permutations,
//     clip limits, target dtypes) are held in per-op NodeInputs structs, not
//     as graph edges.
//
//   - Gradient: the reverse-mode autodiff transform (see rev_autodiff.go). It
//     appends nodes computing the gradient of a scalar output with respect to
//     selected nodes, sharing the forward nodes by reference.
//
// Building a graph performs no numeric computation; execution is done by a
// backend, e.g. the reference interpreter in backends/interp.
//
// Builders and the gradient transform panic with errors that carry stack
// traces (see github.com/gomlx/exceptions); use exceptions.TryCatch to
// convert them to ordinary errors at an API boundary. See rev_autodiff.go for
// the sentinel errors reported by the gradient transform.
//
// A Graph must not be built from multiple goroutines. Separate graphs are
// independent and can be built and differentiated concurrently.
package graph

import (
	"fmt"
	"strings"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/tensorir/tensorir/types/shapes"
)

// Graph holds the operations and dependencies of a computation.
//
// Create one with New, and add nodes to it with the op builder functions.
type Graph struct {
	name  string
	nodes []*Node

	parameters            []*Node
	parameterNameToHandle map[string]ParameterHandle

	scalars scalarCache
}

// NodeId is a unique identifier of a Node within a Graph. Ids are assigned in
// creation order, so they follow a topological order of the DAG.
type NodeId int

// InvalidNodeId indicates a node that failed to be created.
const InvalidNodeId = NodeId(-1)

// ParameterHandle is the index of a parameter within a graph, in order of
// creation.
type ParameterHandle int

// InvalidParameterHandle represents an invalid (or non-existent) parameter.
const InvalidParameterHandle = ParameterHandle(-1)

// New constructs an empty Graph with the given name (used for debugging only,
// it can be empty).
func New(name string) *Graph {
	return &Graph{
		name:                  name,
		parameterNameToHandle: make(map[string]ParameterHandle),
		scalars:               make(scalarCache),
	}
}

// Name of the computation this Graph defines.
func (g *Graph) Name() string { return g.name }

// AssertValid panics if the graph is nil.
func (g *Graph) AssertValid() {
	if g == nil {
		Panicf("the Graph is nil")
	}
}

// NumNodes returns the number of nodes added to the graph so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// registerNode assigns the node the next id in the graph and appends it.
func (g *Graph) registerNode(node *Node) (id NodeId) {
	id = NodeId(len(g.nodes))
	g.nodes = append(g.nodes, node)
	return
}

// NodeById returns the node with the given id. It panics if id is
// out-of-range.
func (g *Graph) NodeById(id NodeId) *Node {
	g.AssertValid()
	if id < 0 || int(id) >= len(g.nodes) {
		Panicf("invalid request Graph.NodeById(id=%d): graph has only %d nodes", id, len(g.nodes))
	}
	return g.nodes[id]
}

// NumParameters returns the number of parameters created for this graph.
func (g *Graph) NumParameters() int { return len(g.parameters) }

// ParameterByIndex returns the ii-th parameter, in order of creation,
// registered for this graph.
func (g *Graph) ParameterByIndex(ii int) *Node { return g.parameters[ii] }

// ParameterByName returns the parameter registered with the given name, or
// nil if no such parameter exists.
func (g *Graph) ParameterByName(name string) *Node {
	g.AssertValid()
	handle, ok := g.parameterNameToHandle[name]
	if !ok {
		return nil
	}
	return g.parameters[handle]
}

// Parameter registers an input parameter for the computation Graph. The shape
// must be fully defined. When executing the graph, one concrete tensor per
// parameter is fed, in order of creation.
//
// If a parameter with the same name and shape already exists it is returned;
// a different shape under the same name is an error.
func (g *Graph) Parameter(name string, shape shapes.Shape) (node *Node) {
	g.AssertValid()
	if !shape.Ok() || !shape.IsFullyDefined() {
		Panicf("graph %q: parameter %q must have a valid, fully defined shape, got %s", g.name, name, shape)
	}
	parameterHandle := ParameterHandle(len(g.parameters))
	if name == "" {
		name = fmt.Sprintf("p#%d", parameterHandle)
	}
	if handle, ok := g.parameterNameToHandle[name]; ok {
		node = g.parameters[handle]
		if !node.shape.Equal(shape) {
			Panicf("graph %q: requested parameter %q already exists with a different shape: requested %s, previous %s",
				g.name, name, shape, node.shape)
		}
		return
	}
	node = newNode(g, shape, nil, &nodeInputsParameter{name: name, handle: parameterHandle})
	g.parameters = append(g.parameters, node)
	g.parameterNameToHandle[name] = parameterHandle
	return
}

// String converts the Graph to a multi-line listing of its nodes, useful for
// debugging.
func (g *Graph) String() string {
	if g == nil {
		return "Graph(nil)"
	}
	parts := []string{fmt.Sprintf("Graph %q: %d nodes, %d parameters", g.name, len(g.nodes), g.NumParameters())}
	for ii, node := range g.nodes {
		parts = append(parts, fmt.Sprintf("#%d\t%s", ii, node))
	}
	return strings.Join(parts, "\n")
}

// scalarCache maps scalar values -- the key always uses a float64 -- to
// previously created constant nodes, one cache per dtype. It avoids creating
// duplicate nodes for common values (0, 1, ...).
type scalarCache map[dtypes.DType]map[float64]*Node

// getScalarConst either creates a scalar constant or returns a previously
// created one from the cache.
func (g *Graph) getScalarConst(dtype dtypes.DType, value float64) (output *Node) {
	dtypeMap, found := g.scalars[dtype]
	if !found {
		dtypeMap = make(map[float64]*Node)
		g.scalars[dtype] = dtypeMap
	}
	output, found = dtypeMap[value]
	if found {
		return
	}
	output = constScalar(g, dtype, value)
	dtypeMap[value] = output
	return
}
