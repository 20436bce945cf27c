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
	"maps"
	"slices"
	"strings"
)

// Spec maps each argument name to the ordered list of named axes that
// argument varies along. The order is significant: it mirrors the dimension
// order of the tensor that will be bound to the argument. An axis absent
// from an argument's list means the argument is constant (broadcast) along
// that axis.
//
// Axis sizes are not part of a Spec; they are resolved from the concrete
// tensors at call time. A Spec is a plain value, copied where needed, and is
// never mutated by the pipeline machinery.
type Spec map[string][]string

// ArgNames returns the declared argument names, sorted, so that the
// positional order of arguments fed to the backend is deterministic.
func (s Spec) ArgNames() []string {
	return slices.Sorted(maps.Keys(s))
}

// HasAxis reports whether any argument declares the given axis.
func (s Spec) HasAxis(axis string) bool {
	for _, axes := range s {
		if slices.Contains(axes, axis) {
			return true
		}
	}
	return false
}

// ArgsWithAxis returns the names of the arguments declaring the given axis,
// sorted.
func (s Spec) ArgsWithAxis(axis string) []string {
	var names []string
	for name, axes := range s {
		if slices.Contains(axes, axis) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// validate checks the Spec is well-formed: at least one argument, and no
// argument listing the same axis twice.
func (s Spec) validate() error {
	if len(s) == 0 {
		return specErrorf("spec declares no arguments")
	}
	for _, name := range s.ArgNames() {
		axes := s[name]
		seen := make(map[string]bool, len(axes))
		for _, axis := range axes {
			if seen[axis] {
				return specErrorf("argument %q lists axis %q more than once", name, axis)
			}
			seen[axis] = true
		}
	}
	return nil
}

// String returns a compact human-readable form, e.g.
// `Spec{point: [points, xyz], signal: [transmits, time]}`.
func (s Spec) String() string {
	var sb strings.Builder
	sb.WriteString("Spec{")
	for i, name := range s.ArgNames() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: [%s]", name, strings.Join(s[name], ", "))
	}
	sb.WriteString("}")
	return sb.String()
}
