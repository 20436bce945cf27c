/*
 *	Copyright 2025 The beamform Authors.
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

package pipeline

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
)

// Runner is the built callable: a Pipeline resolved against one Spec and
// one backend. It holds no mutable state after construction -- the
// underlying graph.Exec caches one compiled graph per distinct input shape
// -- so a Runner may be invoked repeatedly and concurrently with any
// matching inputs.
type Runner struct {
	spec     Spec
	argNames []string
	outAxes  []string
	exec     *graph.Exec
}

func newRunner(backend backends.Backend, spec Spec, p *plan) (*Runner, error) {
	r := &Runner{
		spec:     spec,
		argNames: spec.ArgNames(),
		outAxes:  p.outAxes,
	}
	graphFn := func(inputs []*graph.Node) *graph.Node {
		args := make(map[string]*graph.Node, len(inputs))
		sizes := make(map[string]int)
		for i, name := range r.argNames {
			args[name] = inputs[i]
			for d, axis := range spec[name] {
				sizes[axis] = inputs[i].Shape().Dimensions[d]
			}
		}
		return p.fn(&runCtx{sizes: sizes}, args)
	}
	err := exceptions.TryCatch[error](func() {
		r.exec = graph.NewExecAny(backend, graphFn)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "pipeline: failed to set up executor")
	}
	r.exec.SetName("pipeline.Runner")
	return r, nil
}

// OutputAxes returns the named axes of the result, outermost first: the
// axes introduced by ForAll stages and never reduced away. Wrap transforms
// that change the output shape are not reflected here.
func (r *Runner) OutputAxes() []string { return slices.Clone(r.outAxes) }

// Call executes the pipeline on the given named tensors.
//
// Every argument the Spec declares must be supplied with a tensor of
// matching rank (ArgumentError otherwise), and arguments sharing an axis
// must agree on its size (AxisSizeError). Validation happens before any
// execution; a failed call leaves no partial results. The first call for a
// given combination of input shapes compiles the graph, later calls with
// the same shapes reuse it.
func (r *Runner) Call(args map[string]*tensors.Tensor) (*tensors.Tensor, error) {
	if err := r.validateArgs(args); err != nil {
		return nil, err
	}
	ordered := make([]any, len(r.argNames))
	for i, name := range r.argNames {
		ordered[i] = args[name]
	}
	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() {
		outputs = r.exec.Call(ordered...)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "pipeline execution failed")
	}
	return outputs[0], nil
}

func (r *Runner) validateArgs(args map[string]*tensors.Tensor) error {
	for name := range args {
		if _, ok := r.spec[name]; !ok {
			return argumentErrorf("argument %q is not declared in %s", name, r.spec)
		}
	}
	sizes := make(map[string]int)
	sizedBy := make(map[string]string)
	for _, name := range r.argNames {
		t, ok := args[name]
		if !ok || t == nil {
			return argumentErrorf("argument %q declared in %s was not supplied", name, r.spec)
		}
		axes := r.spec[name]
		dims := t.Shape().Dimensions
		if len(dims) != len(axes) {
			return argumentErrorf("argument %q has rank %d, but declares %d axes %v", name, len(dims), len(axes), axes)
		}
		for d, axis := range axes {
			if prev, ok := sizes[axis]; ok && prev != dims[d] {
				return axisSizeErrorf(axis, "axis %q has size %d in argument %q but size %d in argument %q",
					axis, dims[d], name, prev, sizedBy[axis])
			}
			sizes[axis] = dims[d]
			sizedBy[axis] = name
		}
	}
	return nil
}
