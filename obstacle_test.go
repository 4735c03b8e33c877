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

package aerotunnel

import (
	"bytes"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestObstacleShapesNotEmpty(t *testing.T) {
	for _, k := range []ShapeKind{Cylinder, Airfoil, Wing, Sphere, Cow} {
		for _, dim := range []Dimension{Dim2D, Dim3D} {
			s := NewState()
			s.ResizeGrid(64, 32, 24)
			s.SetDimension(dim)
			kind := k
			s.UpdateGeometry(GeometryUpdate{Kind: &kind})
			BuildObstacle(s)
			if n := countSolid(s.Obstacle()); n == 0 {
				t.Errorf("%v %v: obstacle has no solid cells", k, dim)
			}
		}
	}
}

func TestObstacleDeterministic(t *testing.T) {
	for _, k := range []ShapeKind{Cylinder, Airfoil, Wing, Sphere, Cow} {
		for _, dim := range []Dimension{Dim2D, Dim3D} {
			kind, angle := k, 7.5
			build := func() []uint8 {
				s := NewState()
				s.ResizeGrid(50, 30, 20)
				s.SetDimension(dim)
				s.UpdateGeometry(GeometryUpdate{Kind: &kind, Angle: &angle})
				BuildObstacle(s)
				return s.Obstacle()
			}
			if !bytes.Equal(build(), build()) {
				t.Errorf("%v %v: masks differ", k, dim)
			}
		}
	}
}

func TestObstacleRebuildClears(t *testing.T) {
	s := NewState()
	s.ResizeGrid(40, 20, 4)
	for i := range s.Fields2D.Obstacle {
		s.Fields2D.Obstacle[i] = 1
	}
	cyl := Cylinder
	s.UpdateGeometry(GeometryUpdate{Kind: &cyl})
	Build2DObstacle(s)
	if n := countSolid(s.Fields2D.Obstacle); n == 0 || n == 40*20 {
		t.Errorf("have %d solid cells", n)
	}
}

func TestAirfoilAngle(t *testing.T) {
	mask := func(angle float64) []uint8 {
		s := NewState()
		s.ResizeGrid(120, 60, 4)
		kind := Airfoil
		s.UpdateGeometry(GeometryUpdate{Kind: &kind, Angle: &angle})
		Build2DObstacle(s)
		return s.Fields2D.Obstacle
	}
	if bytes.Equal(mask(0), mask(15)) {
		t.Error("angle of attack does not change the airfoil")
	}
	// A symmetric section at zero angle is symmetric about the chord line,
	// so its thickness is roughly 12% of the chord.
	m := mask(0)
	top, bottom := 60, -1
	for y := 0; y < 60; y++ {
		for x := 0; x < 120; x++ {
			if m[y*120+x] != 0 {
				top = min(top, y)
				bottom = max(bottom, y)
			}
		}
	}
	thickness := bottom - top + 1
	chord := 48
	if thickness < chord/12 || thickness > chord/4 {
		t.Errorf("thickness %d is not close to 12%% of chord %d", thickness, chord)
	}
}

func TestCustomFallback(t *testing.T) {
	for _, dim := range []Dimension{Dim2D, Dim3D} {
		s := NewState()
		s.ResizeGrid(64, 48, 40)
		s.SetDimension(dim)
		kind := Custom
		s.UpdateGeometry(GeometryUpdate{Kind: &kind})
		BuildObstacle(s)
		if countSolid(s.Obstacle()) == 0 {
			t.Errorf("%v: custom geometry without a mesh has no solid cells", dim)
		}
		s.UpdateGeometry(GeometryUpdate{CustomBounds: &r3.Box{Max: r3.Vec{X: 2, Y: 1, Z: 1}}})
		BuildObstacle(s)
		if countSolid(s.Obstacle()) == 0 {
			t.Errorf("%v: custom bounds have no solid cells", dim)
		}
	}
}

// unitCube returns a closed cube mesh spanning [0, 1] on each axis. The
// two faces normal to x are split along the same diagonal.
func unitCube() []float64 {
	var v []float64
	quad := func(p [4][3]float64) {
		for _, i := range []int{0, 1, 2, 0, 2, 3} {
			v = append(v, p[i][0], p[i][1], p[i][2])
		}
	}
	for _, c := range []float64{0, 1} {
		quad([4][3]float64{{c, 0, 0}, {c, 1, 0}, {c, 1, 1}, {c, 0, 1}})
		quad([4][3]float64{{0, c, 0}, {1, c, 0}, {1, c, 1}, {0, c, 1}})
		quad([4][3]float64{{0, 0, c}, {1, 0, c}, {1, 1, c}, {0, 1, c}})
	}
	return v
}

func TestCustomMeshFillsInterior(t *testing.T) {
	const n = 20
	s := NewState()
	s.ResizeGrid(n, n, n)
	s.SetDimension(Dim3D)
	kind := Custom
	s.UpdateGeometry(GeometryUpdate{Kind: &kind, CustomMesh: unitCube()})
	Build3DObstacle(s)
	m := s.Fields3D.Obstacle

	// The cube is placed 7 cells wide between x = 2 and x = 9. The row at
	// y = 11, z = 8 passes through the stamped centroids of both x faces
	// and through no other stamp, so its middle is solid only if the
	// interior was filled.
	row := (8*n + 11) * n
	for x := 4; x <= 7; x++ {
		if m[row+x] == 0 {
			t.Errorf("interior cell x=%d is not solid", x)
		}
	}
	for x := 12; x < n; x++ {
		if m[row+x] != 0 {
			t.Errorf("cell x=%d outside the cube is solid", x)
		}
	}
}

func TestCustomMesh2D(t *testing.T) {
	s := NewState()
	s.ResizeGrid(60, 40, 4)
	kind := Custom
	s.UpdateGeometry(GeometryUpdate{Kind: &kind, CustomMesh: unitCube()})
	Build2DObstacle(s)
	if countSolid(s.Fields2D.Obstacle) == 0 {
		t.Error("no solid cells")
	}
}

func TestFillRow(t *testing.T) {
	for _, test := range []struct{ in, want []uint8 }{
		{in: []uint8{0, 1, 0, 0, 1, 0}, want: []uint8{0, 1, 1, 1, 1, 0}},
		{in: []uint8{0, 1, 1, 0, 0, 0}, want: []uint8{0, 1, 1, 0, 0, 0}},
		{in: []uint8{1, 0, 1, 0, 1, 0, 0}, want: []uint8{1, 1, 1, 0, 1, 0, 0}},
		{in: []uint8{0, 0, 0}, want: []uint8{0, 0, 0}},
	} {
		have := append([]uint8(nil), test.in...)
		fillRow(have)
		if !bytes.Equal(have, test.want) {
			t.Errorf("%v: have %v, want %v", test.in, have, test.want)
		}
	}
}
