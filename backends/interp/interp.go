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

// Package interp is a reference interpreter for computation graphs built with
// the graph package: it executes nodes one at a time, on the host, directly
// over the tensors' flat data.
//
// Usage: build a graph, Compile the desired output nodes into an Executable,
// and Run it with one input tensor per graph parameter, in order of creation:
//
//	g := graph.New("f")
//	x := g.Parameter("x", shapes.Make(dtypes.Float32, 3))
//	y := graph.ReduceAllSum(graph.Mul(x, x))
//	exec := must.M1(interp.Compile(y))
//	results := must.M1(exec.Run(tensors.FromValue([]float32{1, 2, 3})))
//
// It is meant for tests and for numerically checking gradients, not for
// performance: kernels are straightforward loops, with no parallelism or
// fusion. Computations are supported on Float32, Float64, Int32, Int64 and
// Uint8; Float16 and BFloat16 tensors can be fed and converted (ConvertDType)
// but not otherwise operated on.
package interp

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/tensors"
	"github.com/tensorir/tensorir/types/xslices"
)

// nodeExecutor executes one node over the materialized tensors of its
// inputs, returning the node's value.
type nodeExecutor func(node *graph.Node, inputs []*tensors.Tensor) (*tensors.Tensor, error)

// nodeExecutors dispatches execution per node type. The entries are
// registered by the init functions of the exec_*.go files; a nil entry means
// the node type is not supported by the interpreter.
var nodeExecutors [graph.NodeTypeLast]nodeExecutor

// Executable is a graph compiled (validated and scheduled) for execution by
// the interpreter. It is stateless across runs: the same Executable can be
// Run multiple times and from multiple goroutines.
type Executable struct {
	g       *graph.Graph
	outputs []*graph.Node

	// schedule holds the needed nodes in ascending id order, a valid
	// execution order.
	schedule []*graph.Node
}

// Compile prepares the given output nodes, which must belong to the same
// graph, for execution. It validates that every node needed by the outputs is
// supported by the interpreter.
func Compile(outputs ...*graph.Node) (*Executable, error) {
	if len(outputs) == 0 {
		return nil, errors.New("interp.Compile: no outputs given")
	}
	g := outputs[0].Graph()
	maxId := graph.NodeId(-1)
	for ii, output := range outputs {
		if output == nil || output.Graph() == nil {
			return nil, errors.Errorf("interp.Compile: output #%d is invalid", ii)
		}
		if output.Graph() != g {
			return nil, errors.Errorf("interp.Compile: output #%d belongs to graph %q, output #0 to graph %q",
				ii, output.Graph().Name(), g.Name())
		}
		maxId = max(maxId, output.Id())
	}

	needed := make([]bool, maxId+1)
	var markNeeded func(node *graph.Node)
	markNeeded = func(node *graph.Node) {
		if needed[node.Id()] {
			return
		}
		needed[node.Id()] = true
		for _, input := range node.Inputs() {
			markNeeded(input)
		}
	}
	for _, output := range outputs {
		markNeeded(output)
	}

	e := &Executable{g: g, outputs: outputs}
	for id, isNeeded := range needed {
		if !isNeeded {
			continue
		}
		node := g.NodeById(graph.NodeId(id))
		nodeType := node.Type()
		if nodeType != graph.NodeTypeParameter && nodeExecutors[nodeType] == nil {
			return nil, errors.Errorf("interp.Compile: node type %s (node %s) is not supported by the interpreter",
				nodeType, node)
		}
		e.schedule = append(e.schedule, node)
	}
	klog.V(1).Infof("interp.Compile: graph %q, %d of %d nodes scheduled", g.Name(), len(e.schedule), g.NumNodes())
	return e, nil
}

// Graph returns the graph this executable was compiled from.
func (e *Executable) Graph() *graph.Graph { return e.g }

// Run executes the compiled graph with the given inputs -- one tensor per
// graph parameter, in order of creation, each matching the parameter's shape.
// It returns one tensor per compiled output, in the order given to Compile.
func (e *Executable) Run(inputs ...*tensors.Tensor) ([]*tensors.Tensor, error) {
	if len(inputs) != e.g.NumParameters() {
		return nil, errors.Errorf("interp: graph %q takes %d parameters, got %d inputs",
			e.g.Name(), e.g.NumParameters(), len(inputs))
	}
	values := make([]*tensors.Tensor, xslices.Last(e.schedule).Id()+1)
	for _, node := range e.schedule {
		var value *tensors.Tensor
		var err error
		if node.Type() == graph.NodeTypeParameter {
			value = inputs[node.ParameterHandle()]
			if value == nil {
				return nil, errors.Errorf("interp: input for parameter %q is nil", node.ParameterName())
			}
			if !value.Shape().Equal(node.Shape()) {
				return nil, errors.Errorf("interp: parameter %q requires shape %s, got input shaped %s",
					node.ParameterName(), node.Shape(), value.Shape())
			}
		} else {
			nodeInputs := make([]*tensors.Tensor, node.NumInputs())
			for ii, input := range node.Inputs() {
				nodeInputs[ii] = values[input.Id()]
			}
			value, err = nodeExecutors[node.Type()](node, nodeInputs)
			if err != nil {
				return nil, errors.WithMessagef(err, "interp: executing node #%d %s", node.Id(), node)
			}
			if value.DType() != node.DType() || !value.Shape().CompatibleDimensions(node.Shape()) {
				return nil, errors.Errorf("interp: node #%d %s produced a value shaped %s", node.Id(), node, value.Shape())
			}
		}
		values[node.Id()] = value
		if klog.V(2).Enabled() {
			klog.Infof("interp: #%d %s = %s", node.Id(), node, value)
		}
	}
	results := make([]*tensors.Tensor, len(e.outputs))
	for ii, output := range e.outputs {
		results[ii] = values[output.Id()]
	}
	return results, nil
}
