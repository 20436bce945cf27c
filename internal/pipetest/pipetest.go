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

// Package pipetest holds test utilities shared by the beamform packages:
// one lazily-built backend reused across tests, and small helpers to
// compare tensors against Go values.
package pipetest

import (
	"sync"
	"testing"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
)

var (
	backendOnce   sync.Once
	cachedBackend backends.Backend
)

// Backend returns the shared test backend. It defaults to the pure-Go
// backend so tests don't require an XLA installation; set GOMLX_BACKEND to
// override.
func Backend() backends.Backend {
	backendOnce.Do(func() {
		backends.DefaultConfig = "go"
		cachedBackend = must.M1(backends.NewOrErr())
	})
	return cachedBackend
}

// RequireEqualTensor fails the test if got doesn't match want (any
// Go value convertible to a tensor) within delta.
func RequireEqualTensor(t *testing.T, want any, got *tensors.Tensor, delta float64) {
	t.Helper()
	require.NotNil(t, got)
	wantT := tensors.FromAnyValue(want)
	require.Truef(t, wantT.InDelta(got, delta), "tensor mismatch: want %s, got %s", wantT.GoStr(), got.GoStr())
}
