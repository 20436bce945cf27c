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
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"k8s.io/klog/v2"
)

// reduceLevel schedules the iterative reduction of one axis: instead of
// materializing the inner function across the full axis, arguments carrying
// the axis are sliced into chunks of unroll indices, the inner function is
// evaluated per chunk (the chunk riding along as a vectorized dimension of
// size <= unroll at output dimension dim), chunk-reduced, and combined into
// a running accumulator.
//
// The fold is sequential by construction: each step depends on the previous
// accumulator, which is exactly what bounds peak memory to one chunk plus
// the accumulator. Choosing the chunk size is the caller's tradeoff -- the
// scheduler makes no automatic choice between this and Apply's full
// materialization.
func reduceLevel(inner levelFn, r Reducer, axis string, unroll int, dim int, spec Spec) levelFn {
	argsWithAxis := spec.ArgsWithAxis(axis)
	axisDim := make(map[string]int, len(argsWithAxis))
	for _, name := range argsWithAxis {
		axisDim[name] = slices.Index(spec[name], axis)
	}
	return func(rc *runCtx, args map[string]*graph.Node) *graph.Node {
		n := rc.sizes[axis]
		if n < 1 {
			Panicf("cannot reduce over empty axis %q (size %d)", axis, n)
		}
		steps := (n + unroll - 1) / unroll
		if klog.V(2).Enabled() {
			klog.Infof("pipeline: iterative %s over axis %q: %d indices in %s steps of <=%d, materializing 1/%s of the Apply equivalent per step",
				r, axis, n, humanize.Comma(int64(steps)), unroll, humanize.Comma(int64(steps)))
		}

		var acc *graph.Node
		for start := 0; start < n; start += unroll {
			end := min(start+unroll, n)
			sliced := maps.Clone(args)
			for _, name := range argsWithAxis {
				sliced[name] = sliceDim(args[name], axisDim[name], start, end)
			}
			rc.sizes[axis] = end - start
			part := r.along(inner(rc, sliced), dim)
			if acc == nil {
				acc = part
			} else {
				acc = r.combine(acc, part)
			}
		}
		rc.sizes[axis] = n
		return acc
	}
}

// sliceDim takes indices [start, end) of one dimension, keeping all others
// in full.
func sliceDim(node *graph.Node, dim, start, end int) *graph.Node {
	specs := make([]graph.SliceAxisSpec, node.Rank())
	for d := range specs {
		if d == dim {
			specs[d] = graph.AxisRange(start, end)
		} else {
			specs[d] = graph.AxisRange()
		}
	}
	return graph.Slice(node, specs...)
}
