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

// Package raster interpolates an image sampled on an irregular
// (curved/warped) grid onto arbitrary query points, by turning each grid
// cell into a quadrilateral and linearly interpolating inside it.
//
// It is a deliberately simple O(n·m) routine -- every query point is tested
// against every polygon, with no spatial acceleration structure -- meant for
// scan conversion of modest image sizes. Query points covered by no polygon
// evaluate to NaN.
//
// Points are 2D, (x, z), matching the lateral/depth plane of a scan.
package raster

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/pkg/errors"
)

// Polygons is a flat collection of quadrilaterals with one value per
// vertex: Vertices is shaped [numPolygons, 4, 2] ((x, z) per vertex, in
// grid-cell winding order) and Values [numPolygons, 4].
type Polygons struct {
	Vertices *graph.Node
	Values   *graph.Node
}

// ImageToPolygons converts a warped-grid image into quadrilaterals, one per
// grid cell: coords is shaped [nx, nz, 2] with the (x, z) position of every
// grid node, image [nx, nz] with the value at that node. The resulting
// (nx-1)*(nz-1) polygons have their vertices ordered around the cell:
// (i,j), (i+1,j), (i+1,j+1), (i,j+1).
func ImageToPolygons(coords, image *graph.Node) *Polygons {
	dims := image.Shape().Dimensions
	nx, nz := dims[0], dims[1]
	m := (nx - 1) * (nz - 1)

	var vertices, values []*graph.Node
	for _, corner := range [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		dx, dz := corner[0], corner[1]
		xr := graph.AxisRange(dx, nx-1+dx)
		zr := graph.AxisRange(dz, nz-1+dz)
		c := graph.Slice(coords, xr, zr, graph.AxisRange())
		vertices = append(vertices, graph.Reshape(c, m, 1, 2))
		v := graph.Slice(image, xr, zr)
		values = append(values, graph.Reshape(v, m, 1))
	}
	return &Polygons{
		Vertices: graph.Concatenate(vertices, 1),
		Values:   graph.Concatenate(values, 1),
	}
}

// LerpAll linearly interpolates the polygons' vertex values at each of the
// given points (shaped [n, 2]), returning one value per point.
//
// Each polygon is split into two triangles along its v1-v3 diagonal and
// interpolated barycentrically; a point coincident with a vertex yields
// exactly that vertex's value. Points inside several polygons (cell
// boundaries on a conforming grid, where the interpolants agree) average
// their contributions; points inside none yield NaN.
func LerpAll(p *Polygons, points *graph.Node) *graph.Node {
	g := points.Graph()
	dtype := points.DType()
	n := points.Shape().Dimensions[0]
	m := p.Values.Shape().Dimensions[0]

	// Everything below is elementwise on [n, m]: one row per query point,
	// one column per polygon.
	px := broadcastPointComp(points, 0, m)
	pz := broadcastPointComp(points, 1, m)
	var vx, vz, vv [4]*graph.Node
	for k := 0; k < 4; k++ {
		vx[k] = broadcastVertexComp(p.Vertices, k, 0, n)
		vz[k] = broadcastVertexComp(p.Vertices, k, 1, n)
		val := graph.Slice(p.Values, graph.AxisRange(), graph.AxisElem(k))
		vv[k] = graph.BroadcastToDims(graph.Reshape(val, 1, m), n, m)
	}

	// The diagonal v1-v3 is shared between the two triangles; the second
	// triangle excludes it (strict test on v4's weight) so diagonal points
	// are interpolated exactly once.
	value := graph.Add(
		lerpTriangle(px, pz, vx[0], vz[0], vv[0], vx[1], vz[1], vv[1], vx[2], vz[2], vv[2], false),
		lerpTriangle(px, pz, vx[0], vz[0], vv[0], vx[2], vz[2], vv[2], vx[3], vz[3], vv[3], true),
	)

	// Point-in-polygon: on the same side of all four edges. Both winding
	// directions are accepted.
	zero := graph.ZerosLike(px)
	var nonNeg, nonPos *graph.Node
	for k := 0; k < 4; k++ {
		next := (k + 1) % 4
		// Line through two vertices: a*x + b*z + c = 0.
		a := graph.Sub(vz[k], vz[next])
		b := graph.Sub(vx[next], vx[k])
		c := graph.Sub(graph.Mul(vx[k], vz[next]), graph.Mul(vx[next], vz[k]))
		d := graph.Add(graph.Add(graph.Mul(a, px), graph.Mul(b, pz)), c)
		geq := graph.GreaterOrEqual(d, zero)
		leq := graph.LessOrEqual(d, zero)
		if k == 0 {
			nonNeg, nonPos = geq, leq
		} else {
			nonNeg = graph.LogicalAnd(nonNeg, geq)
			nonPos = graph.LogicalAnd(nonPos, leq)
		}
	}
	inside := graph.LogicalOr(nonNeg, nonPos)

	count := graph.ReduceSum(graph.ConvertDType(inside, dtype), -1)
	total := graph.ReduceSum(graph.Where(inside, value, zero), -1)
	return graph.Where(
		graph.GreaterThan(count, graph.ZerosLike(count)),
		graph.Div(total, count),
		graph.Scalar(g, dtype, math.NaN()))
}

// Render is the one-call convenience wrapper: it builds the polygons from
// coords/image, interpolates them at points, and executes on the given
// backend. coords is [nx, nz, 2], image [nx, nz], points [n, 2]; the result
// is [n].
func Render(backend backends.Backend, coords, image, points *tensors.Tensor) (result *tensors.Tensor, err error) {
	var outputs []*tensors.Tensor
	err = exceptions.TryCatch[error](func() {
		exec := graph.NewExecAny(backend, func(coords, image, points *graph.Node) *graph.Node {
			return LerpAll(ImageToPolygons(coords, image), points)
		})
		outputs = exec.Call(coords, image, points)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "raster: interpolation failed")
	}
	return outputs[0], nil
}

// lerpTriangle interpolates the triangle's vertex values barycentrically,
// returning 0 outside the triangle. strictV3 excludes the edge opposite to
// the triangle's third vertex.
func lerpTriangle(px, pz, x1, z1, v1, x2, z2, v2, x3, z3, v3 *graph.Node, strictV3 bool) *graph.Node {
	zero := graph.ZerosLike(px)
	denom := graph.Add(
		graph.Mul(graph.Sub(z2, z3), graph.Sub(x1, x3)),
		graph.Mul(graph.Sub(x3, x2), graph.Sub(z1, z3)))
	w1 := graph.Div(graph.Add(
		graph.Mul(graph.Sub(z2, z3), graph.Sub(px, x3)),
		graph.Mul(graph.Sub(x3, x2), graph.Sub(pz, z3))), denom)
	w2 := graph.Div(graph.Add(
		graph.Mul(graph.Sub(z3, z1), graph.Sub(px, x3)),
		graph.Mul(graph.Sub(x1, x3), graph.Sub(pz, z3))), denom)
	w3 := graph.Sub(graph.Sub(graph.OnesLike(w1), w1), w2)

	in3 := graph.GreaterOrEqual(w3, zero)
	if strictV3 {
		in3 = graph.GreaterThan(w3, zero)
	}
	inside := graph.LogicalAnd(
		graph.LogicalAnd(graph.GreaterOrEqual(w1, zero), graph.GreaterOrEqual(w2, zero)),
		in3)
	value := graph.Add(graph.Add(graph.Mul(w1, v1), graph.Mul(w2, v2)), graph.Mul(w3, v3))
	return graph.Where(inside, value, zero)
}

// broadcastPointComp extracts one (x or z) component of the points and lays
// it out as [n, m].
func broadcastPointComp(points *graph.Node, comp, m int) *graph.Node {
	n := points.Shape().Dimensions[0]
	c := graph.Slice(points, graph.AxisRange(), graph.AxisElem(comp))
	return graph.BroadcastToDims(graph.Reshape(c, n, 1), n, m)
}

// broadcastVertexComp extracts one component of one vertex of every polygon
// and lays it out as [n, m].
func broadcastVertexComp(vertices *graph.Node, k, comp, n int) *graph.Node {
	m := vertices.Shape().Dimensions[0]
	c := graph.Slice(vertices, graph.AxisRange(), graph.AxisElem(k), graph.AxisElem(comp))
	return graph.BroadcastToDims(graph.Reshape(c, 1, m), n, m)
}
