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

package pipeline_test

import (
	"testing"

	"github.com/gomlx/beamform/internal/pipetest"
	"github.com/gomlx/beamform/pipeline"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/require"
)

func TestWrapGradient(t *testing.T) {
	// d/dx sum(x^2) = 2x; the kernel needs no gradient awareness.
	squareKernel := func(args map[string]*graph.Node) *graph.Node {
		return graph.Square(args["x"])
	}
	p := pipeline.Compose(squareKernel,
		pipeline.ForAll("points"),
		pipeline.Apply(pipeline.Sum, "points"),
		pipeline.Wrap(pipeline.GradientWRT("x")),
	)
	runner, err := p.Build(pipetest.Backend(), pipeline.Spec{"x": {"points"}})
	require.NoError(t, err)

	got, err := runner.Call(map[string]*tensors.Tensor{
		"x": tensors.FromValue([]float32{1, -2, 3.5}),
	})
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{2, -4, 7}, got, 1e-4)
}

func TestWrapGradientThroughReduce(t *testing.T) {
	// Gradients must also flow through the iterative fold.
	squareKernel := func(args map[string]*graph.Node) *graph.Node {
		return graph.Square(args["x"])
	}
	p := pipeline.Compose(squareKernel,
		pipeline.Reduce(pipeline.Sum, "points", 2),
		pipeline.Wrap(pipeline.GradientWRT("x")),
	)
	runner, err := p.Build(pipetest.Backend(), pipeline.Spec{"x": {"points"}})
	require.NoError(t, err)

	got, err := runner.Call(map[string]*tensors.Tensor{
		"x": tensors.FromValue([]float32{1, -2, 3.5}),
	})
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{2, -4, 7}, got, 1e-4)
}

func TestWrapScaled(t *testing.T) {
	onesKernel := func(args map[string]*graph.Node) *graph.Node {
		return graph.OnesLike(args["p"])
	}
	p := pipeline.Compose(onesKernel,
		pipeline.ForAll("points"),
		pipeline.ForAll("tx"),
		pipeline.Apply(pipeline.Sum, "tx"),
		pipeline.Wrap(pipeline.Scaled(0.25)),
	)
	runner, err := p.Build(pipetest.Backend(), ptSpec)
	require.NoError(t, err)
	got, err := runner.Call(ptArgs())
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{1, 1, 1}, got, 1e-6)
}
