/*
Copyright © 2025 the AeroTunnel authors.
This file is part of AeroTunnel.

AeroTunnel is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AeroTunnel is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AeroTunnel.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package mesh reads and writes the triangle meshes used as custom
// obstacles.
package mesh

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is a triangle soup. Vertices holds flat x, y, z triples, three
// vertices per triangle.
type Mesh struct {
	Vertices []float64
	Bounds   r3.Box
}

// New returns a mesh of the given vertices with its bounds computed.
// It returns an error if vertices is empty or not a whole number of
// triangles.
func New(vertices []float64) (*Mesh, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh: no vertices")
	}
	if len(vertices)%9 != 0 {
		return nil, fmt.Errorf("mesh: %d coordinates is not a whole number of triangles", len(vertices))
	}
	for _, v := range vertices {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("mesh: non-finite coordinate")
		}
	}
	return &Mesh{Vertices: vertices, Bounds: BoundsOf(vertices)}, nil
}

// Triangles returns the number of triangles in m.
func (m *Mesh) Triangles() int { return len(m.Vertices) / 9 }

// Triangle returns the vertices of triangle i.
func (m *Mesh) Triangle(i int) [3]r3.Vec {
	v := m.Vertices[i*9 : i*9+9]
	return [3]r3.Vec{
		{X: v[0], Y: v[1], Z: v[2]},
		{X: v[3], Y: v[4], Z: v[5]},
		{X: v[6], Y: v[7], Z: v[8]},
	}
}

// BoundsOf returns the axis-aligned bounding box of flat vertex triples.
// The box is zero if there are no vertices.
func BoundsOf(vertices []float64) r3.Box {
	if len(vertices) < 3 {
		return r3.Box{}
	}
	b := r3.Box{
		Min: r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for i := 0; i+2 < len(vertices); i += 3 {
		x, y, z := vertices[i], vertices[i+1], vertices[i+2]
		b.Min.X, b.Max.X = math.Min(b.Min.X, x), math.Max(b.Max.X, x)
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, y), math.Max(b.Max.Y, y)
		b.Min.Z, b.Max.Z = math.Min(b.Min.Z, z), math.Max(b.Max.Z, z)
	}
	return b
}

// Normal returns the unit normal of the triangle (a, b, c) following the
// right-hand rule, or the zero vector for a degenerate triangle.
func Normal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	l := r3.Norm(n)
	if l == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}
