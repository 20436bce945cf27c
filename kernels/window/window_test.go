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

package window_test

import (
	"testing"

	"github.com/gomlx/beamform/internal/pipetest"
	"github.com/gomlx/beamform/kernels/window"
	"github.com/gomlx/gomlx/graph"
	"github.com/stretchr/testify/require"
)

// ratios probed by every test: peak, mid-taper, edges and out of range.
var ratios = []float32{0, 0.25, 0.5, -0.5, 0.75, -1}

func evalWindow(t *testing.T, w window.Window) []float32 {
	t.Helper()
	exec := graph.NewExecAny(pipetest.Backend(), func(r *graph.Node) *graph.Node {
		return w(r)
	})
	out := exec.Call(ratios)[0]
	return out.Value().([]float32)
}

func TestRectangular(t *testing.T) {
	got := evalWindow(t, window.Rectangular())
	require.InDeltaSlice(t, []float32{1, 1, 1, 1, 0, 0}, got, 1e-6)
}

func TestHann(t *testing.T) {
	got := evalWindow(t, window.Hann())
	require.InDeltaSlice(t, []float32{1, 0.5, 0, 0, 0, 0}, got, 1e-6)
}

func TestHamming(t *testing.T) {
	got := evalWindow(t, window.Hamming())
	// Hamming doesn't reach zero at the edges.
	require.InDeltaSlice(t, []float32{1, 0.53836, 0.07672, 0.07672, 0, 0}, got, 1e-4)
}

func TestBartlett(t *testing.T) {
	got := evalWindow(t, window.Bartlett())
	require.InDeltaSlice(t, []float32{1, 0.5, 0, 0, 0, 0}, got, 1e-6)
}

func TestTukey(t *testing.T) {
	// roll=0.5: flat until |r|=0.25, cosine taper to 0 at |r|=0.5.
	got := evalWindow(t, window.Tukey(0.5))
	require.InDeltaSlice(t, []float32{1, 1, 0, 0, 0, 0}, got, 1e-5)

	// Mid-taper point of the roll: halfway weight.
	exec := graph.NewExecAny(pipetest.Backend(), func(r *graph.Node) *graph.Node {
		return window.Tukey(0.5)(r)
	})
	out := exec.Call([]float32{0.375})[0]
	require.InDeltaSlice(t, []float32{0.5}, out.Value().([]float32), 1e-5)
}

func TestTukeyDegenerateRolls(t *testing.T) {
	// roll=0 has no taper at all and must match Rectangular, including at
	// the ±0.5 edges; roll=1 is all taper and must match Hann.
	got := evalWindow(t, window.Tukey(0))
	require.InDeltaSlice(t, []float32{1, 1, 1, 1, 0, 0}, got, 1e-6)

	got = evalWindow(t, window.Tukey(1))
	require.InDeltaSlice(t, []float32{1, 0.5, 0, 0, 0, 0}, got, 1e-5)
}
