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

// tensorir_grad builds a small demonstration program, differentiates it and
// prints the resulting graph. With -eval it also runs both the forward value
// and the gradients on the reference interpreter.
//
// It is a developer smoke-test tool, handy to eyeball what the gradient
// transform emits for a given operator without writing a test first.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/tensorir/tensorir/backends/interp"
	. "github.com/tensorir/tensorir/graph"
	"github.com/tensorir/tensorir/types/shapes"
	"github.com/tensorir/tensorir/types/tensors"
)

var (
	flagProgram = flag.String("program", "clip",
		fmt.Sprintf("Demonstration program to differentiate. One of: %s.", strings.Join(programNames(), ", ")))
	flagEval = flag.Bool("eval", false, "Evaluate the forward output and the gradients on the reference interpreter.")
)

// demoProgram builds a scalar output, the nodes to differentiate with respect
// to, and the input tensors to feed them when -eval is set.
type demoProgram func(g *Graph) (output *Node, wrt []*Node, inputs []*tensors.Tensor)

var programs = map[string]demoProgram{
	"clip": func(g *Graph) (*Node, []*Node, []*tensors.Tensor) {
		x := g.Parameter("x", shapes.Make(dtypes.Float64, 7))
		return ReduceAllSum(Clip(x, 1, 10)), []*Node{x},
			[]*tensors.Tensor{tensors.FromValue([]float64{-3, 0.5, 1, 4, 10, 10.5, 42})}
	},
	"take": func(g *Graph) (*Node, []*Node, []*tensors.Tensor) {
		x := g.Parameter("x", shapes.Make(dtypes.Float64, 2, 3))
		taken := Take(x, Const(g, []int32{1, 1, 0}), 0)
		return ReduceAllSum(Mul(taken, taken)), []*Node{x},
			[]*tensors.Tensor{tensors.FromValue([][]float64{{1, 2, 3}, {4, 5, 6}})}
	},
	"stack": func(g *Graph) (*Node, []*Node, []*tensors.Tensor) {
		a := g.Parameter("a", shapes.Make(dtypes.Float64, 3))
		b := g.Parameter("b", shapes.Make(dtypes.Float64, 3))
		return ReduceAllSum(Mul(Stack([]*Node{a, b, a}, 0), Stack([]*Node{b, a, b}, 0))),
			[]*Node{a, b},
			[]*tensors.Tensor{
				tensors.FromValue([]float64{1, 2, 3}),
				tensors.FromValue([]float64{-1, 0, 1}),
			}
	},
	"arange": func(g *Graph) (*Node, []*Node, []*tensors.Tensor) {
		start := g.Parameter("start", shapes.Scalar[float64]())
		stop := g.Parameter("stop", shapes.Scalar[float64]())
		step := g.Parameter("step", shapes.Scalar[float64]())
		return ReduceAllSum(Arange(start, stop, step)),
			[]*Node{start, stop, step},
			[]*tensors.Tensor{
				tensors.FromScalar(0.0),
				tensors.FromScalar(5.0),
				tensors.FromScalar(1.0),
			}
	},
}

func programNames() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	return names
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	build, found := programs[*flagProgram]
	if !found {
		klog.Errorf("Unknown program %q. See 'tensorir_grad -help'.", *flagProgram)
		os.Exit(1)
	}

	g := New(*flagProgram)
	output, wrt, inputs := build(g)
	fmt.Printf("Forward graph:\n%s\n", g)

	grads := Gradient(output, wrt...)
	fmt.Printf("After gradient transform:\n%s\n", g)
	for ii, grad := range grads {
		fmt.Printf("\tgrad[%s] = %s\n", wrt[ii], grad)
	}

	if !*flagEval {
		return
	}
	exec := must.M1(interp.Compile(append([]*Node{output}, grads...)...))
	results := must.M1(exec.Run(inputs...))
	fmt.Printf("\nOutput: %s\n", results[0].GoStr())
	for ii, result := range results[1:] {
		fmt.Printf("grad[%s] = %s\n", wrt[ii], result.GoStr())
	}
}
