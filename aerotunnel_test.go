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
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

const testTolerance = 1e-8

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance {
		return true
	}
	return false
}

// newTestState returns a state with the given extents and a solver of
// the given kind bound to it.
func newTestState(t *testing.T, kind SolverKind, shape ShapeKind, nx, ny, nz int) (*State, Solver) {
	t.Helper()
	s := NewState()
	s.ResizeGrid(nx, ny, nz)
	s.UpdateGeometry(GeometryUpdate{Kind: &shape})
	sol, err := NewSolver(kind, s)
	if err != nil {
		t.Fatal(err)
	}
	return s, sol
}

// checkFinite fails the test if any field of the active dimension or any
// diagnostic is not finite.
func checkFinite(t *testing.T, s *State) {
	t.Helper()
	for name, v := range s.ActiveScalars() {
		if floats.HasNaN(v) || math.IsInf(floats.Max(v), 0) || math.IsInf(floats.Min(v), 0) {
			t.Errorf("%s field is not finite", name)
		}
	}
	d := s.Diagnostics()
	for _, v := range []float64{d.Drag, d.Lift, d.LD, d.Strouhal, d.SideForce} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("diagnostics are not finite: %+v", d)
			break
		}
	}
}

func countSolid(m []uint8) int {
	n := 0
	for _, v := range m {
		if v != 0 {
			n++
		}
	}
	return n
}
