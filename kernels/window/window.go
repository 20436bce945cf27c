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

// Package window implements the popular window (apodization, tapering)
// functions used to weigh beamformed contributions for better
// main-lobe/side-lobe characteristics.
//
// A Window maps a ratio to a weight: the peak is at ratio 0, the weight
// tapers off towards ratio ±0.5, and every window is identically 0 outside
// [-0.5, 0.5]. Windows are graph functions, elementwise over ratios of any
// shape, so they can be used inside pipeline kernels.
package window

import (
	"math"

	"github.com/gomlx/gomlx/graph"
)

// Window maps a ratio in [-0.5, 0.5] to a taper weight, elementwise.
type Window func(ratio *graph.Node) *graph.Node

// withinValid masks the weight to 0 outside [-0.5, 0.5].
func withinValid(ratio, weight *graph.Node) *graph.Node {
	valid := graph.LogicalAnd(
		graph.GreaterOrEqual(ratio, graph.MulScalar(graph.OnesLike(ratio), -0.5)),
		graph.LessOrEqual(ratio, graph.MulScalar(graph.OnesLike(ratio), 0.5)))
	return graph.Where(valid, weight, graph.ZerosLike(weight))
}

// Rectangular weighs every valid ratio 1.
func Rectangular() Window {
	return func(ratio *graph.Node) *graph.Node {
		return withinValid(ratio, graph.OnesLike(ratio))
	}
}

// Hanning is the raised-cosine window a0 + a1*cos(2πr) with a0 = a1 = 0.5.
// The generalized coefficients are exposed because Hamming is the same
// window with different constants.
func Hanning(a0, a1 float64) Window {
	return func(ratio *graph.Node) *graph.Node {
		cos := graph.Cos(graph.MulScalar(ratio, 2*math.Pi))
		return withinValid(ratio, graph.AddScalar(graph.MulScalar(cos, a1), a0))
	}
}

// Hann is the standard Hanning window, reaching exactly 0 at ratio ±0.5.
func Hann() Window { return Hanning(0.5, 0.5) }

// Hamming approximately minimizes the nearest side lobe; it does not reach
// 0 at the edges.
func Hamming() Window { return Hanning(0.53836, 0.46164) }

// Bartlett is the triangular window 1 - 2|r|.
func Bartlett() Window {
	return func(ratio *graph.Node) *graph.Node {
		return withinValid(ratio, graph.OneMinus(graph.MulScalar(graph.Abs(ratio), 2)))
	}
}

// Tukey is flat-topped with cosine-tapered edges; roll in [0, 1] is the
// fraction of the window spent tapering. Tukey(0) is Rectangular and
// Tukey(1) is Hann.
func Tukey(roll float64) Window {
	if roll == 0 {
		return Rectangular()
	}
	return func(ratio *graph.Node) *graph.Node {
		absR := graph.Abs(ratio)
		flat := graph.LessThan(absR, graph.MulScalar(graph.OnesLike(absR), 0.5*(1-roll)))
		phase := graph.AddScalar(graph.MulScalar(absR, 2/roll), (roll-1)/roll)
		taper := graph.MulScalar(graph.OnePlus(graph.Cos(graph.MulScalar(phase, math.Pi))), 0.5)
		return withinValid(ratio, graph.Where(flat, graph.OnesLike(absR), taper))
	}
}
