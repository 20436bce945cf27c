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

// Package pipeline composes per-pixel imaging kernels into executable,
// differentiable, vectorized beamformers, delegating the numerical work to a
// GoMLX backend.
//
// A beamformer is described in two halves that are kept separate until the
// very end:
//
//   - A Kernel: a pure graph-building function that computes one value for
//     one point. It knows nothing about how many points, transmits or
//     receive-elements there are.
//   - A sequence of stages that declare how that kernel should be spread
//     across and collapsed along named axes: ForAll vectorizes over an axis,
//     Apply materializes and reduces pending axes, Reduce folds over an axis
//     iteratively with bounded memory, and Wrap applies an arbitrary
//     function-to-function transform (e.g. gradient extraction).
//
// Which argument varies along which axis is described by a Spec, a mapping
// from argument name to its ordered axis names. Axis sizes are not part of
// the Spec; they are read from the concrete tensors at call time, and the
// same axis name used by two arguments must resolve to the same size.
//
// A minimal delay-and-sum skeleton looks like:
//
//	p := pipeline.Compose(kernel,
//		pipeline.ForAll("points"),
//		pipeline.ForAll("transmits"),
//		pipeline.Apply(pipeline.Sum, "transmits"),
//	)
//	runner, err := p.Build(backend, pipeline.Spec{
//		"point":  {"points", "xyz"},
//		"origin": {"transmits", "xyz"},
//		"signal": {"transmits", "time"},
//	})
//	...
//	image, err := runner.Call(map[string]*tensors.Tensor{...})
//
// Stages are listed innermost-first: the first stage is closest to the
// kernel. In the example the output has one dimension left, "points", and
// the "transmits" dimension has been summed away.
//
// Apply fully materializes the value being reduced, which is the fastest
// option but costs memory proportional to the product of all pending axis
// sizes. Swapping Apply for Reduce keeps the numeric result identical (for
// associative, commutative reducers such as Sum) while folding over the axis
// one slice at a time, making peak memory independent of the axis size. The
// unroll parameter of Reduce processes that many indices per fold step,
// interpolating between the two extremes at the cost of a larger compiled
// graph.
//
// Building is a pure, synchronous validation-and-resolution pass: a
// Pipeline is immutable and may be built any number of times against
// different Specs, and a Runner holds no mutable state so it is safe for
// concurrent calls. All axis bookkeeping errors are reported before any
// numeric computation runs, as one of SpecError, AxisSizeError or
// ArgumentError.
package pipeline
