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
	"fmt"
	"strings"

	"github.com/gomlx/gomlx/graph"
)

// Kernel is the per-point computation a pipeline vectorizes and reduces: a
// pure graph-building function of named arguments, returning one value.
//
// When the kernel is invoked, every argument has already been transposed and
// broadcast to a common leading shape -- one dimension per vectorized axis,
// outermost stage first -- so elementwise graph ops compose freely across
// arguments. Axes an argument declares but no stage ever references are left
// as trailing dimensions of that argument only, private to the kernel (e.g.
// an "xyz" component axis reduced by a vector norm, or a "time" axis sampled
// by interpolation). The kernel must return a value shaped like the common
// leading shape, built only from ops the backend can vectorize and, when
// gradients are requested, differentiate.
type Kernel func(args map[string]*graph.Node) *graph.Node

// GraphFn is the shape of the composed function a Wrap transform operates
// on: named full arrays in, one array out.
type GraphFn func(args map[string]*graph.Node) *graph.Node

// Transform is an arbitrary function-to-function transform applied by a
// Wrap stage, e.g. gradient extraction. See GradientWRT.
type Transform func(fn GraphFn) GraphFn

// Reducer pairs the two forms a reduction takes in a computation graph: a
// binary combine of two like-shaped values (used by the iterative fold of
// Reduce stages) and a reduction along given dimensions of a single value
// (used by Apply stages and by per-chunk reduction inside the fold).
//
// The provided reducers (Sum, Product, Max, Min) are associative and
// commutative, which is what makes Apply and Reduce numerically
// interchangeable. Nothing stops a custom non-associative Reducer, but then
// the result depends on the execution strategy and no equivalence is
// guaranteed.
type Reducer struct {
	name    string
	combine func(a, b *graph.Node) *graph.Node
	along   func(x *graph.Node, axes ...int) *graph.Node
}

// NewReducer builds a custom Reducer from a binary combine op and an
// along-axes reduction op.
func NewReducer(name string,
	combine func(a, b *graph.Node) *graph.Node,
	along func(x *graph.Node, axes ...int) *graph.Node) Reducer {
	return Reducer{name: name, combine: combine, along: along}
}

// String returns the reducer's name.
func (r Reducer) String() string { return r.name }

// Predefined reducers, all associative and commutative.
var (
	Sum     = NewReducer("sum", graph.Add, graph.ReduceSum)
	Product = NewReducer("product", graph.Mul, graph.ReduceMultiply)
	Max     = NewReducer("max", graph.Max, graph.ReduceMax)
	Min     = NewReducer("min", graph.Min, graph.ReduceMin)
)

type stageKind int

const (
	stageForAll stageKind = iota
	stageApply
	stageReduce
	stageWrap
)

func (k stageKind) String() string {
	switch k {
	case stageForAll:
		return "ForAll"
	case stageApply:
		return "Apply"
	case stageReduce:
		return "Reduce"
	case stageWrap:
		return "Wrap"
	}
	return fmt.Sprintf("stageKind(%d)", int(k))
}

// Stage is one atomic transformation of the composed function: a closed
// tagged variant over ForAll, Apply, Reduce and Wrap. Stages are pure
// descriptions -- they execute nothing themselves and carry no state; all
// interpretation happens in one place, when a Pipeline is built. Construct
// them only with the ForAll, Apply, Reduce and Wrap functions.
type Stage struct {
	kind      stageKind
	axes      []string
	reducer   Reducer
	unroll    int
	transform Transform
}

// ForAll vectorizes the function so far across every index of the named
// axis: arguments declaring the axis vary along it, the rest are broadcast.
// It adds one dimension to the pipeline's output; the dimension of the
// outermost ForAll stage comes first. Reordering two ForAll stages never
// changes the numeric result, only intermediate layout.
func ForAll(axis string) Stage {
	return Stage{kind: stageForAll, axes: []string{axis}}
}

// Apply materializes the output across the named axes -- previously
// introduced by ForAll stages -- and reduces them away with the reducer.
// This is the fastest reduction strategy, at a memory cost proportional to
// the product of all pending axis sizes. See Reduce for the memory-bounded
// alternative.
func Apply(reducer Reducer, axes ...string) Stage {
	return Stage{kind: stageApply, reducer: reducer, axes: axes}
}

// Reduce collapses the named axis by folding over its indices
// sequentially: the function so far is evaluated for unroll indices at a
// time and combined into a running accumulator, so peak memory is bounded
// by one slice plus the accumulator, independent of the axis size. For an
// associative, commutative reducer the result is numerically identical to
// Apply(reducer, axis) for every unroll from 1 to the full axis size; the
// tradeoff is a larger graph and longer compile time for smaller unroll.
//
// Unlike Apply, the axis must not have been vectorized by a ForAll: Reduce
// consumes it directly from the arguments.
func Reduce(reducer Reducer, axis string, unroll int) Stage {
	return Stage{kind: stageReduce, reducer: reducer, axes: []string{axis}, unroll: unroll}
}

// Wrap applies an arbitrary Transform to the whole composed function at
// this point of the stage sequence. Transforms that change the output shape
// (like GradientWRT) should normally be the outermost stage, since axis
// bookkeeping for later Apply/Reduce stages assumes the output shape is
// preserved.
func Wrap(transform Transform) Stage {
	return Stage{kind: stageWrap, transform: transform}
}

// String returns the stage as it would be written in a Compose call.
func (s Stage) String() string {
	switch s.kind {
	case stageForAll:
		return fmt.Sprintf("ForAll(%q)", s.axes[0])
	case stageApply:
		quoted := make([]string, len(s.axes))
		for i, a := range s.axes {
			quoted[i] = fmt.Sprintf("%q", a)
		}
		return fmt.Sprintf("Apply(%s, %s)", s.reducer, strings.Join(quoted, ", "))
	case stageReduce:
		return fmt.Sprintf("Reduce(%s, %q, unroll=%d)", s.reducer, s.axes[0], s.unroll)
	case stageWrap:
		return "Wrap(transform)"
	}
	return s.kind.String()
}
