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
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
)

// GradientWRT returns a Transform that replaces the composed function's
// output with its gradient with respect to the named argument. The composed
// function must produce a scalar at the point the Wrap stage sits --
// typically after every axis has been reduced away -- and the returned
// value has the argument's shape.
//
// Differentiation is done by the backend's reverse-mode autodiff over the
// built graph; the kernel itself is untouched and needs no gradient
// awareness.
func GradientWRT(argName string) Transform {
	return func(fn GraphFn) GraphFn {
		return func(args map[string]*graph.Node) *graph.Node {
			arg, ok := args[argName]
			if !ok {
				Panicf("GradientWRT(%q): no such argument", argName)
			}
			output := fn(args)
			if !output.Shape().IsScalar() {
				Panicf("GradientWRT(%q): output must be a scalar to differentiate, got shape %s -- reduce all axes first", argName, output.Shape())
			}
			return graph.Gradient(output, arg)[0]
		}
	}
}

// Scaled returns a Transform that multiplies the composed function's output
// by a constant factor, e.g. for normalizing by the number of contributing
// transmits.
func Scaled(factor float64) Transform {
	return func(fn GraphFn) GraphFn {
		return func(args map[string]*graph.Node) *graph.Node {
			out := fn(args)
			return graph.MulScalar(out, factor)
		}
	}
}
