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

package kernels_test

import (
	"testing"

	"github.com/gomlx/beamform/internal/pipetest"
	"github.com/gomlx/beamform/kernels"
	"github.com/gomlx/beamform/pipeline"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/require"
)

func TestPlaneTransmitDelay(t *testing.T) {
	exec := graph.NewExecAny(pipetest.Backend(), func(point, origin, direction *graph.Node) *graph.Node {
		return kernels.PlaneTransmitDelay(point, origin, direction, 1540)
	})
	out := exec.Call(
		[]float32{0, 0, 30e-3},
		[]float32{0, 0, 0},
		[]float32{0, 0, 1},
	)[0]
	require.InDelta(t, 30e-3/1540, float64(out.Value().(float32)), 1e-9)
}

func TestSphericalReceiveDelay(t *testing.T) {
	exec := graph.NewExecAny(pipetest.Backend(), func(point, element *graph.Node) *graph.Node {
		return kernels.SphericalReceiveDelay(point, element, 1000)
	})
	// 3-4-5 triangle: distance 5mm at 1000 m/s.
	out := exec.Call(
		[]float32{3e-3, 0, 4e-3},
		[]float32{0, 0, 0},
	)[0]
	require.InDelta(t, 5e-6, float64(out.Value().(float32)), 1e-10)
}

func TestSampleAt(t *testing.T) {
	exec := graph.NewExecAny(pipetest.Backend(), func(signal, delay *graph.Node) *graph.Node {
		return kernels.SampleAt(signal, delay, 1, 0)
	})
	signal := []float32{0, 10, 20, 30, 40}
	for _, test := range []struct {
		delay float32
		want  float32
	}{
		{0, 0},
		{2, 20},
		{2.5, 25},  // between samples: linear
		{4, 40},    // last sample
		{10, 0},    // past the recording
		{-1, 0},    // before the recording
	} {
		out := exec.Call(signal, test.delay)[0]
		require.InDelta(t, test.want, out.Value().(float32), 1e-4, "delay=%v", test.delay)
	}
}

func TestSampleAtRejectsSingleSample(t *testing.T) {
	// A one-sample recording leaves nothing to interpolate between.
	exec := graph.NewExecAny(pipetest.Backend(), func(signal, delay *graph.Node) *graph.Node {
		return kernels.SampleAt(signal, delay, 1, 0)
	})
	err := exceptions.TryCatch[error](func() {
		exec.Call([]float32{42}, float32(0))
	})
	require.ErrorContains(t, err, "at least 2 samples")
}

func TestSignalForPointMissingArgument(t *testing.T) {
	// An incomplete argument set must fail with the missing name, not a
	// nil-node panic deep inside a delay model.
	kernel := kernels.SignalForPoint(kernels.Config{SpeedOfSound: 1, SamplingFreq: 1, T0: 0})
	exec := graph.NewExecAny(pipetest.Backend(), func(point *graph.Node) *graph.Node {
		return kernel(map[string]*graph.Node{"point": point})
	})
	err := exceptions.TryCatch[error](func() {
		exec.Call([]float32{0, 0, 1e-3})
	})
	require.ErrorContains(t, err, `"origin"`)
}

// dasSetup is a tiny synthetic acquisition with unit speed of sound and
// sample rate, so delays equal sample indices: one plane-wave transmit
// along +z, two receive elements at the origin, and points straight below.
func dasSetup() (pipeline.Spec, map[string]*tensors.Tensor) {
	spec := pipeline.Spec{
		"point":     {"points", "xyz"},
		"origin":    {"tx", "xyz"},
		"direction": {"tx", "xyz"},
		"element":   {"rx", "xyz"},
		"signal":    {"tx", "rx", "time"},
	}
	args := map[string]*tensors.Tensor{
		// Two-way delays: point 1 -> 2 samples, point 2 -> 4 samples.
		"point":     tensors.FromValue([][]float32{{0, 0, 1}, {0, 0, 2}}),
		"origin":    tensors.FromValue([][]float32{{0, 0, 0}}),
		"direction": tensors.FromValue([][]float32{{0, 0, 1}}),
		"element":   tensors.FromValue([][]float32{{0, 0, 0}, {0, 0, 0}}),
		"signal": tensors.FromValue([][][]float32{{
			{0, 1, 2, 3, 4, 5, 6, 7},
			{0, 10, 20, 30, 40, 50, 60, 70},
		}}),
	}
	return spec, args
}

func TestDelayAndSum(t *testing.T) {
	kernel := kernels.SignalForPoint(kernels.Config{SpeedOfSound: 1, SamplingFreq: 1, T0: 0})
	p := pipeline.Compose(kernel,
		pipeline.ForAll("points"),
		pipeline.ForAll("rx"),
		pipeline.ForAll("tx"),
		pipeline.Apply(pipeline.Sum, "tx", "rx"),
	)
	spec, args := dasSetup()
	runner, err := p.Build(pipetest.Backend(), spec)
	require.NoError(t, err)
	got, err := runner.Call(args)
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{22, 44}, got, 1e-3)
}

func TestDelayAndSumIterativeReceivers(t *testing.T) {
	// Folding over receivers instead of materializing them must not change
	// the image.
	kernel := kernels.SignalForPoint(kernels.Config{SpeedOfSound: 1, SamplingFreq: 1, T0: 0})
	p := pipeline.Compose(kernel,
		pipeline.ForAll("points"),
		pipeline.Reduce(pipeline.Sum, "rx", 1),
		pipeline.ForAll("tx"),
		pipeline.Apply(pipeline.Sum, "tx"),
	)
	spec, args := dasSetup()
	runner, err := p.Build(pipetest.Backend(), spec)
	require.NoError(t, err)
	got, err := runner.Call(args)
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{22, 44}, got, 1e-3)
}

func TestDelayAndSumApodized(t *testing.T) {
	kernel := kernels.SignalForPoint(kernels.Config{SpeedOfSound: 1, SamplingFreq: 1, T0: 0})
	p := pipeline.Compose(kernel,
		pipeline.ForAll("points"),
		pipeline.ForAll("rx"),
		pipeline.ForAll("tx"),
		pipeline.Apply(pipeline.Sum, "tx", "rx"),
	)
	spec, args := dasSetup()
	spec["apodization"] = []string{"rx"}
	args["apodization"] = tensors.FromValue([]float32{1, 0.5})
	runner, err := p.Build(pipetest.Backend(), spec)
	require.NoError(t, err)
	got, err := runner.Call(args)
	require.NoError(t, err)
	pipetest.RequireEqualTensor(t, []float32{12, 24}, got, 1e-3)
}
