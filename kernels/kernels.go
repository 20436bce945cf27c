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

// Package kernels provides the physical per-point computations composed by
// package pipeline into beamformers: wave delay models, channel-data
// sampling and the delay-and-sum kernel.
//
// All functions are graph-building: they take and return graph nodes and
// are written elementwise, so the pipeline machinery can vectorize them
// across any combination of points, transmits and receive-elements.
package kernels

import (
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gopjrt/dtypes"

	"github.com/gomlx/beamform/pipeline"
)

// PlaneTransmitDelay returns the seconds elapsed since a transmitted plane
// wave passed through its origin until it reached point: the distance from
// origin to point projected onto the (unit-length) propagation direction,
// divided by the speed of sound.
//
// point, origin and direction carry their (x, y, z) components on a
// trailing dimension of size 3, aligned on any leading vectorized
// dimensions; the result drops the component dimension.
func PlaneTransmitDelay(point, origin, direction *graph.Node, speedOfSound float64) *graph.Node {
	projected := graph.ReduceSum(graph.Mul(graph.Sub(point, origin), direction), -1)
	return graph.DivScalar(projected, speedOfSound)
}

// SphericalReceiveDelay returns the seconds elapsed for a wave scattered at
// point to travel back to a receiving element: the Euclidean distance
// between them divided by the speed of sound. Components are on a trailing
// dimension of size 3, as in PlaneTransmitDelay.
func SphericalReceiveDelay(point, element *graph.Node, speedOfSound float64) *graph.Node {
	diff := graph.Sub(point, element)
	distance := graph.Sqrt(graph.ReduceSum(graph.Square(diff), -1))
	return graph.DivScalar(distance, speedOfSound)
}

// SampleAt linearly interpolates recorded channel data at the given delays.
//
// signal carries the recorded samples on its last dimension; its leading
// dimensions must match delay's dimensions exactly (the layout the pipeline
// produces when every recording axis is vectorized and "time" is left as
// the kernel-private axis). delay is in seconds; t0 is the recording time
// of sample 0 and samplingFreq the sample rate in Hz. Delays falling
// outside the recording evaluate to 0.
func SampleAt(signal, delay *graph.Node, samplingFreq, t0 float64) *graph.Node {
	if signal.Rank() != delay.Rank()+1 {
		Panicf("SampleAt: signal must have exactly one (trailing) sample dimension more than delay, got signal shape %s vs delay shape %s",
			signal.Shape(), delay.Shape())
	}
	numSamples := signal.Shape().Dimensions[signal.Rank()-1]
	if numSamples < 2 {
		Panicf("SampleAt: signal needs at least 2 samples along its trailing dimension to interpolate, got %d", numSamples)
	}
	last := float64(numSamples - 1)

	pos := graph.MulScalar(graph.AddScalar(delay, -t0), samplingFreq)
	i0 := graph.Floor(graph.ClipScalar(pos, 0, last-1))
	frac := graph.Sub(graph.ClipScalar(pos, 0, last), i0)

	batchDims := delay.Rank()
	idx0 := graph.ExpandDims(graph.ConvertDType(i0, dtypes.Int32), -1)
	idx1 := graph.ExpandDims(graph.ConvertDType(graph.AddScalar(i0, 1), dtypes.Int32), -1)
	s0 := graph.GatherWithBatchDims(signal, idx0, batchDims)
	s1 := graph.GatherWithBatchDims(signal, idx1, batchDims)

	value := graph.Add(graph.Mul(graph.OneMinus(frac), s0), graph.Mul(frac, s1))
	valid := graph.LogicalAnd(
		graph.GreaterOrEqual(pos, graph.ZerosLike(pos)),
		graph.LessOrEqual(pos, graph.MulScalar(graph.OnesLike(pos), last)))
	return graph.Where(valid, value, graph.ZerosLike(value))
}

// Config are the acquisition constants of a delay-and-sum kernel.
type Config struct {
	// SpeedOfSound in the medium, in m/s.
	SpeedOfSound float64
	// SamplingFreq of the channel data, in Hz.
	SamplingFreq float64
	// T0 is the recording time of channel-data sample 0, in seconds.
	T0 float64
}

// SignalForPoint builds the delay-and-sum point kernel: for one point, one
// transmit and one receiving element, it computes the two-way propagation
// delay, samples the element's recorded signal at that delay, and weighs it
// by the apodization argument if one is declared.
//
// Kernel arguments:
//   - "point": imaged position, components on a trailing size-3 dimension.
//   - "origin", "direction": transmitted plane-wave origin and unit
//     direction, components on a trailing size-3 dimension.
//   - "element": receiving element position, same layout.
//   - "signal": recorded channel data, samples on a trailing "time"
//     dimension.
//   - "apodization" (optional): multiplicative weight.
//
// Compose it with ForAll/Reduce stages over "points", "transmits" and
// "receivers" to obtain a beamformer; summing over transmits and receivers
// yields the usual coherent compounding.
func SignalForPoint(cfg Config) pipeline.Kernel {
	return func(args map[string]*graph.Node) *graph.Node {
		for _, name := range []string{"point", "origin", "direction", "element", "signal"} {
			if args[name] == nil {
				Panicf("SignalForPoint kernel: argument %q was not declared", name)
			}
		}
		point := args["point"]
		txDelay := PlaneTransmitDelay(point, args["origin"], args["direction"], cfg.SpeedOfSound)
		rxDelay := SphericalReceiveDelay(point, args["element"], cfg.SpeedOfSound)
		delay := graph.Add(txDelay, rxDelay)
		value := SampleAt(args["signal"], delay, cfg.SamplingFreq, cfg.T0)
		if apod, ok := args["apodization"]; ok {
			value = graph.Mul(value, apod)
		}
		return value
	}
}
