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

import "github.com/pkg/errors"

// SpecError reports an invalid axis reference found while resolving a
// Pipeline against a Spec: a stage names an axis that no argument declares,
// or an axis that an earlier (inner) stage already consumed. It is always
// raised at Build time, before any numeric computation runs.
type SpecError struct {
	err error
}

// Error implements the error interface.
func (e *SpecError) Error() string { return e.err.Error() }

// Unwrap returns the underlying error, with its stack trace.
func (e *SpecError) Unwrap() error { return e.err }

func specErrorf(format string, args ...any) *SpecError {
	return &SpecError{err: errors.Errorf(format, args...)}
}

// AxisSizeError reports that two or more arguments declare the same axis
// name but disagree on its concrete size once bound to real tensors. It is
// raised at call time, when sizes first become known.
type AxisSizeError struct {
	err error

	// Axis is the name of the conflicting axis.
	Axis string
}

// Error implements the error interface.
func (e *AxisSizeError) Error() string { return e.err.Error() }

// Unwrap returns the underlying error, with its stack trace.
func (e *AxisSizeError) Unwrap() error { return e.err }

func axisSizeErrorf(axis, format string, args ...any) *AxisSizeError {
	return &AxisSizeError{err: errors.Errorf(format, args...), Axis: axis}
}

// ArgumentError reports that a Runner was invoked without all the arguments
// its Spec declares, with arguments the Spec doesn't know about, or with a
// tensor whose rank doesn't match the argument's declared axes.
type ArgumentError struct {
	err error
}

// Error implements the error interface.
func (e *ArgumentError) Error() string { return e.err.Error() }

// Unwrap returns the underlying error, with its stack trace.
func (e *ArgumentError) Unwrap() error { return e.err }

func argumentErrorf(format string, args ...any) *ArgumentError {
	return &ArgumentError{err: errors.Errorf(format, args...)}
}
