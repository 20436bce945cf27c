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
	"strings"

	"github.com/gomlx/gomlx/backends"
	"k8s.io/klog/v2"
)

// Pipeline is an immutable ordered stage sequence anchored to a base
// kernel. It is a pure description: nothing is validated or executed until
// Build is called, and a single Pipeline may be built repeatedly against
// different Specs, each build independent of the others.
type Pipeline struct {
	kernel Kernel
	stages []Stage
}

// Compose anchors the kernel to the given stages and returns the resulting
// Pipeline. Stages are listed innermost-first: the first stage wraps the
// kernel directly, each following stage wraps everything before it.
func Compose(kernel Kernel, stages ...Stage) *Pipeline {
	return &Pipeline{kernel: kernel, stages: slices.Clone(stages)}
}

// String lists the pipeline the way it was composed, one stage per line.
func (p *Pipeline) String() string {
	var sb strings.Builder
	sb.WriteString("Compose(\n\tkernel,\n")
	for _, s := range p.stages {
		sb.WriteString("\t")
		sb.WriteString(s.String())
		sb.WriteString(",\n")
	}
	sb.WriteString(")")
	return sb.String()
}

// Build resolves the pipeline against a concrete Spec and the injected
// backend, returning the executable Runner.
//
// This is the single validation-and-resolution pass: every axis referenced
// by a stage is checked against the Spec and against what earlier stages
// consumed (SpecError on failure), and the stage sequence is composed into
// one graph-building function, compiled lazily per input shape by the
// backend. Build has no side effects beyond the returned Runner or error,
// and the Runner holds no mutable state, so it is safe to call from
// concurrent goroutines and to reuse across calls.
func (p *Pipeline) Build(backend backends.Backend, spec Spec) (*Runner, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	plan, err := p.resolve(spec)
	if err != nil {
		return nil, err
	}
	if klog.V(1).Enabled() {
		klog.Infof("pipeline: built [%s] against %s, output axes %v", strings.Join(stageNames(p.stages), ", "), spec, plan.outAxes)
	}
	return newRunner(backend, spec, plan)
}

func stageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.kind.String()
	}
	return names
}
