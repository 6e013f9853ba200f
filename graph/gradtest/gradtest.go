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

// Package gradtest checks gradients built by graph.Gradient against numeric
// (finite differences) estimates, executed with the backends/interp
// interpreter. It is used by the gradient tests of the graph package, and can
// be used to validate the VJP of newly registered operators.
package gradtest

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"

	"github.com/tensorir/tensorir/backends/interp"
	"github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/tensors"
)

// GraphFn builds the computation to check into g: it returns the output node,
// which must be a scalar -- reduce (e.g. graph.ReduceAllSum) if needed -- and
// the nodes to differentiate with respect to. Those must be parameters of g,
// since the numeric estimate works by perturbing their concrete inputs.
type GraphFn func(g *graph.Graph) (output *graph.Node, wrt []*graph.Node)

type config struct {
	delta float64
	rtol  float64
	atol  float64
}

// Option configures CheckGradients.
type Option func(*config)

// WithDelta sets the step used by the central finite differences estimate.
// Default is 1e-3.
func WithDelta(delta float64) Option {
	return func(c *config) { c.delta = delta }
}

// WithTolerances sets the relative and absolute tolerances of the comparison:
// it requires |analytic - numeric| <= atol + rtol*|numeric| element-wise.
// Defaults are rtol=0.01 and atol=1e-4.
func WithTolerances(rtol, atol float64) Option {
	return func(c *config) {
		c.rtol = rtol
		c.atol = atol
	}
}

// CheckGradients builds the graph with graphFn, computes the gradients of its
// output with respect to the returned nodes, executes everything with the
// interpreter on the given inputs (one tensor per graph parameter, in order
// of creation) and compares the result with a central finite differences
// estimate.
func CheckGradients(t *testing.T, name string, graphFn GraphFn, inputs []*tensors.Tensor, options ...Option) {
	c := &config{delta: 1e-3, rtol: 0.01, atol: 1e-4}
	for _, option := range options {
		option(c)
	}
	t.Run(name, func(t *testing.T) {
		g := graph.New(name)
		output, wrt := graphFn(g)
		require.True(t, output.IsScalar(), "output of the graph function must be scalar, got %s", output.Shape())
		for ii, node := range wrt {
			require.Equal(t, graph.NodeTypeParameter, node.Type(),
				"gradient node #%d (%s) must be a graph parameter", ii, node)
		}
		grads := graph.Gradient(output, wrt...)

		gradExec := must.M1(interp.Compile(grads...))
		analytic := must.M1(gradExec.Run(inputs...))
		outputExec := must.M1(interp.Compile(output))

		evalOutput := func(perturbed []*tensors.Tensor) float64 {
			results := must.M1(outputExec.Run(perturbed...))
			return results[0].AsFloat64s()[0]
		}

		for wrtIdx, node := range wrt {
			handle := node.ParameterHandle()
			base := inputs[handle]
			baseValues := base.AsFloat64s()
			analyticValues := analytic[wrtIdx].AsFloat64s()
			require.Len(t, analyticValues, len(baseValues),
				"gradient for parameter %q has %d elements, parameter has %d",
				node.ParameterName(), len(analyticValues), len(baseValues))
			for elemIdx := range baseValues {
				numeric := centralDifference(c, evalOutput, inputs, handle, baseValues, elemIdx)
				diff := analyticValues[elemIdx] - numeric
				if diff < 0 {
					diff = -diff
				}
				tolerance := c.atol + c.rtol*abs(numeric)
				require.LessOrEqualf(t, diff, tolerance,
					"gradient of %q[%d]: analytic %g vs numeric %g (delta=%g)",
					node.ParameterName(), elemIdx, analyticValues[elemIdx], numeric, c.delta)
			}
		}
	})
}

// centralDifference estimates d(output)/d(input[handle][elemIdx]) with a
// central difference of step c.delta.
func centralDifference(c *config, evalOutput func([]*tensors.Tensor) float64,
	inputs []*tensors.Tensor, handle graph.ParameterHandle, baseValues []float64, elemIdx int) float64 {
	perturbed := make([]*tensors.Tensor, len(inputs))
	copy(perturbed, inputs)
	shape := inputs[handle].Shape()

	values := make([]float64, len(baseValues))
	copy(values, baseValues)
	values[elemIdx] = baseValues[elemIdx] + c.delta
	perturbed[handle] = tensors.FromFloat64sAndShape(values, shape)
	plus := evalOutput(perturbed)

	values[elemIdx] = baseValues[elemIdx] - c.delta
	perturbed[handle] = tensors.FromFloat64sAndShape(values, shape)
	minus := evalOutput(perturbed)

	return (plus - minus) / (2 * c.delta)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
