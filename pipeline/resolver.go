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

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
)

// runCtx carries the per-invocation state threaded through the resolved
// function chain while the computation graph is being built: the concrete
// axis sizes read from the bound arguments. Reduce stages temporarily
// override their axis's entry with the current chunk size.
type runCtx struct {
	sizes map[string]int
}

// levelFn is one level of the resolved function chain. Arguments are the
// (possibly sliced) full named arrays; the returned node's dimensions are
// the vectorized axes pending at this level, outermost first.
type levelFn func(rc *runCtx, args map[string]*graph.Node) *graph.Node

// plan is the output of resolving a Pipeline against a Spec: the composed
// graph-building function plus the axis layout of its result.
type plan struct {
	fn      levelFn
	outAxes []string
}

// resolve validates the stage sequence against the Spec and composes the
// executable chain. It walks the stages twice: outermost to innermost to
// determine which axes are consumed where (fail-fast on bad references),
// then innermost to outermost to compose the levelFn chain around the
// kernel adapter.
func (p *Pipeline) resolve(spec Spec) (*plan, error) {
	if p.kernel == nil {
		return nil, specErrorf("pipeline has no kernel")
	}

	// Outermost-to-innermost pass: consumption bookkeeping. vec collects
	// the vectorized axes in output-dimension order (outermost stage
	// first); both ForAll and Reduce axes become kernel output dimensions,
	// the latter only chunk-sized.
	var vec []string
	consumedBy := make(map[string]string)
	// reservedAt[i] holds the axes consumed by Reduce stages outside stage
	// i, which stage i must therefore not touch.
	reservedAt := make([][]string, len(p.stages))
	var reduceReserved []string
	for i := len(p.stages) - 1; i >= 0; i-- {
		s := p.stages[i]
		reservedAt[i] = slices.Clone(reduceReserved)
		switch s.kind {
		case stageForAll, stageReduce:
			axis := s.axes[0]
			if !spec.HasAxis(axis) {
				return nil, specErrorf("%s references axis %q, which no argument declares in %s", s, axis, spec)
			}
			if by, ok := consumedBy[axis]; ok {
				return nil, specErrorf("%s references axis %q, already consumed by %s", s, axis, by)
			}
			consumedBy[axis] = s.String()
			vec = append(vec, axis)
			if s.kind == stageReduce {
				if s.unroll < 1 {
					return nil, specErrorf("%s: unroll must be a positive integer", s)
				}
				reduceReserved = append(reduceReserved, axis)
			}
		case stageApply:
			if len(s.axes) == 0 {
				return nil, specErrorf("Apply(%s) lists no axes", s.reducer)
			}
		case stageWrap:
			if s.transform == nil {
				return nil, specErrorf("Wrap stage has a nil transform")
			}
		}
	}

	// Innermost-to-outermost pass: compose the chain. outAxes tracks the
	// dimensions of the current function's output.
	fn := kernelAdapter(p.kernel, spec, vec)
	outAxes := slices.Clone(vec)
	for i, s := range p.stages {
		switch s.kind {
		case stageForAll:
			// Vectorization itself happens in the kernel adapter; the axis
			// is already an output dimension here.
		case stageApply:
			dims := make([]int, 0, len(s.axes))
			for _, axis := range s.axes {
				if slices.Contains(reservedAt[i], axis) {
					return nil, specErrorf("%s references axis %q, which an enclosing Reduce stage consumes", s, axis)
				}
				d := slices.Index(outAxes, axis)
				if d < 0 {
					return nil, specErrorf("%s references axis %q, which is not a pending vectorized dimension (never introduced by ForAll, or already consumed)", s, axis)
				}
				dims = append(dims, d)
			}
			fn = applyLevel(fn, s.reducer, dims)
			outAxes = removeAxes(outAxes, s.axes)
		case stageReduce:
			axis := s.axes[0]
			d := slices.Index(outAxes, axis)
			if d < 0 {
				return nil, specErrorf("%s: axis %q is not pending at this stage", s, axis)
			}
			fn = reduceLevel(fn, s.reducer, axis, s.unroll, d, spec)
			outAxes = removeAxes(outAxes, s.axes)
		case stageWrap:
			fn = wrapLevel(fn, s.transform)
		}
	}
	return &plan{fn: fn, outAxes: outAxes}, nil
}

func removeAxes(axes []string, toRemove []string) []string {
	out := make([]string, 0, len(axes))
	for _, a := range axes {
		if !slices.Contains(toRemove, a) {
			out = append(out, a)
		}
	}
	return out
}

// applyLevel materializes the inner output and reduces the given dimensions
// away with the reducer.
func applyLevel(inner levelFn, r Reducer, dims []int) levelFn {
	return func(rc *runCtx, args map[string]*graph.Node) *graph.Node {
		return r.along(inner(rc, args), dims...)
	}
}

// wrapLevel exposes the inner chain as a plain GraphFn and hands it to the
// user transform.
func wrapLevel(inner levelFn, transform Transform) levelFn {
	return func(rc *runCtx, args map[string]*graph.Node) *graph.Node {
		fn := func(a map[string]*graph.Node) *graph.Node {
			return inner(rc, a)
		}
		return transform(fn)(args)
	}
}

// kernelAdapter is the innermost level: it lays every argument out in one
// canonical dimension order and invokes the kernel exactly once.
//
// For each argument the adapter (a) transposes the argument's vectorized
// axes into vec order, keeping unreferenced axes as trailing dimensions in
// their declared order, (b) inserts size-1 dimensions for vectorized axes
// the argument doesn't declare, and (c) broadcasts the vectorized
// dimensions to their full (or current chunk) sizes. The kernel therefore
// sees all arguments aligned on len(vec) leading dimensions and can combine
// them elementwise.
func kernelAdapter(kernel Kernel, spec Spec, vec []string) levelFn {
	return func(rc *runCtx, args map[string]*graph.Node) *graph.Node {
		vecDims := make([]int, len(vec))
		for i, axis := range vec {
			size, ok := rc.sizes[axis]
			if !ok {
				Panicf("no concrete size for axis %q; arguments bound do not cover it", axis)
			}
			vecDims[i] = size
		}
		kargs := make(map[string]*graph.Node, len(args))
		for name, node := range args {
			kargs[name] = alignArg(node, spec[name], vec, vecDims)
		}
		return kernel(kargs)
	}
}

// alignArg reshapes one argument into the canonical layout described in
// kernelAdapter: dims [vec..., leftover...].
func alignArg(node *graph.Node, axes []string, vec []string, vecDims []int) *graph.Node {
	if node.Rank() != len(axes) {
		Panicf("argument has rank %d but declares %d axes %v", node.Rank(), len(axes), axes)
	}

	// Transpose declared axes so the vectorized ones come first, in vec
	// order, and the leftover (kernel-private) axes trail in declared
	// order.
	var perm []int
	for _, axis := range vec {
		if d := slices.Index(axes, axis); d >= 0 {
			perm = append(perm, d)
		}
	}
	var leftoverDims []int
	for d, axis := range axes {
		if !slices.Contains(vec, axis) {
			perm = append(perm, d)
			leftoverDims = append(leftoverDims, node.Shape().Dimensions[d])
		}
	}
	if !slices.IsSorted(perm) {
		node = graph.TransposeAllDims(node, perm...)
	}

	// Insert size-1 dimensions for vectorized axes this argument doesn't
	// declare, then broadcast them to full size.
	withOnes := make([]int, 0, len(vec)+len(leftoverDims))
	target := make([]int, 0, len(vec)+len(leftoverDims))
	d := 0
	for _, axis := range vec {
		if slices.Contains(axes, axis) {
			withOnes = append(withOnes, node.Shape().Dimensions[d])
			d++
		} else {
			withOnes = append(withOnes, 1)
		}
	}
	withOnes = append(withOnes, leftoverDims...)
	target = append(target, vecDims...)
	target = append(target, leftoverDims...)
	if !slices.Equal(withOnes, node.Shape().Dimensions) {
		node = graph.Reshape(node, withOnes...)
	}
	if !slices.Equal(target, withOnes) {
		node = graph.BroadcastToDims(node, target...)
	}
	return node
}
