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

// Package scan generates the imaging grids a beamformer evaluates: flat
// [n, 3] tensors of (x, y, z) points suitable as the "point" argument of a
// pipeline, plus the grid dimensions needed to fold the flat result back
// into an image.
package scan

import (
	"math"

	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
)

// Grid is a flat sequence of imaging points plus the shape it was
// flattened from.
type Grid struct {
	// Points is shaped [NumPoints(), 3].
	Points *tensors.Tensor
	// Dims are the grid dimensions, e.g. {numX, numZ}; their product is
	// the number of points.
	Dims []int
}

// NumPoints returns the total number of points in the grid.
func (g *Grid) NumPoints() int {
	n := 1
	for _, d := range g.Dims {
		n *= d
	}
	return n
}

// Linear builds a cartesian grid spanning the given lateral (x) and depth
// (z) coordinates, at y=0, point order x-major.
func Linear(xs, zs []float64) (*Grid, error) {
	if len(xs) == 0 || len(zs) == 0 {
		return nil, errors.Errorf("scan.Linear: empty coordinate range (got %d x, %d z values)", len(xs), len(zs))
	}
	flat := make([]float32, 0, len(xs)*len(zs)*3)
	for _, x := range xs {
		for _, z := range zs {
			flat = append(flat, float32(x), 0, float32(z))
		}
	}
	return &Grid{
		Points: tensors.FromFlatDataAndDimensions(flat, len(xs)*len(zs), 3),
		Dims:   []int{len(xs), len(zs)},
	}, nil
}

// Sector builds a polar grid: one point per (azimuth angle, depth) pair,
// fanned out from the apex. Angles are in radians measured from the z
// axis, in the x-z plane, angle-major.
func Sector(angles, depths []float64, apex [3]float64) (*Grid, error) {
	if len(angles) == 0 || len(depths) == 0 {
		return nil, errors.Errorf("scan.Sector: empty coordinate range (got %d angles, %d depths)", len(angles), len(depths))
	}
	flat := make([]float32, 0, len(angles)*len(depths)*3)
	for _, a := range angles {
		sin, cos := math.Sincos(a)
		for _, d := range depths {
			flat = append(flat,
				float32(apex[0]+d*sin),
				float32(apex[1]),
				float32(apex[2]+d*cos))
		}
	}
	return &Grid{
		Points: tensors.FromFlatDataAndDimensions(flat, len(angles)*len(depths), 3),
		Dims:   []int{len(angles), len(depths)},
	}, nil
}

// Linspace returns n evenly spaced values from start to stop, inclusive.
func Linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
