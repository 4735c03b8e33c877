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

func TestNewSolver(t *testing.T) {
	for _, k := range SolverKinds {
		s, sol := newTestState(t, k, Cylinder, 40, 20, 12)
		if sol.Kind() != k {
			t.Errorf("have kind %v, want %v", sol.Kind(), k)
		}
		if s.Params.Solver != k || s.Params.Dimension != k.Dimension() {
			t.Errorf("%v: state not aligned: %+v", k, s.Params)
		}
		if countSolid(s.Obstacle()) == 0 {
			t.Errorf("%v: obstacle was not built", k)
		}
	}
	if _, err := NewSolver(SolverKind(99), NewState()); err == nil {
		t.Error("expected an error for an invalid kind")
	}
}

func TestStepCountsAndFinite(t *testing.T) {
	for _, k := range SolverKinds {
		for _, n := range []int{0, 1, 5} {
			s, sol := newTestState(t, k, Cylinder, 40, 20, 12)
			s.Iterations = 3
			for i := 0; i < n; i++ {
				sol.Step(0)
			}
			if s.Iterations != 3+n {
				t.Errorf("%v after %d steps: have %d iterations, want %d", k, n, s.Iterations, 3+n)
			}
			checkFinite(t, s)
		}
	}
}

// TestLongRunFinite steps every solver for a few hundred iterations at the
// flow conditions of the built-in 3D scenarios.
func TestLongRunFinite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping long run")
	}
	const steps = 200
	type test struct {
		kind     SolverKind
		shape    ShapeKind
		mach, re float64
	}
	var tests []test
	for _, k := range SolverKinds {
		shape := Cylinder
		if k.Dimension() == Dim3D {
			shape = Wing
		}
		tests = append(tests, test{kind: k, shape: shape, mach: 0.2, re: 6000})
	}
	tests = append(tests, test{kind: LBM3D, shape: Sphere, mach: 0.05, re: 2000})
	for _, test := range tests {
		s := NewState()
		s.ResizeGrid(48, 32, 24)
		s.UpdateGeometry(GeometryUpdate{Kind: &test.shape})
		s.UpdateParams(ParamsUpdate{Mach: &test.mach})
		s.SetReynolds(test.re)
		sol, err := NewSolver(test.kind, s)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < steps; i++ {
			sol.Step(0)
		}
		if s.Iterations != steps {
			t.Errorf("%v %v: have %d iterations, want %d", test.kind, test.shape, s.Iterations, steps)
		}
		checkFinite(t, s)
	}
}

func TestStepAccumulatesWallTime(t *testing.T) {
	s, sol := newTestState(t, Vortex2D, Cylinder, 20, 12, 4)
	sol.Step(3)
	sol.Step(4)
	if s.WallTime != 7 {
		t.Errorf("have %v, want 7ns", s.WallTime)
	}
}

func TestStepDimensionMismatch(t *testing.T) {
	for _, k := range SolverKinds {
		s, sol := newTestState(t, k, Cylinder, 24, 16, 8)
		other := Dim2D
		if k.Dimension() == Dim2D {
			other = Dim3D
		}
		s.SetDimension(other)
		sol.Step(0)
		if s.Iterations != 0 {
			t.Errorf("%v stepped a state of the other dimension", k)
		}
	}
}

func TestStepAfterResize(t *testing.T) {
	for _, k := range SolverKinds {
		s, sol := newTestState(t, k, Cylinder, 24, 16, 8)
		sol.Step(0)
		s.ResizeGrid(30, 18, 10)
		sol.Step(0)
		sol.Step(0)
		if s.Iterations != 2 {
			t.Errorf("%v: have %d iterations, want 2", k, s.Iterations)
		}
		checkFinite(t, s)
	}
}

func TestLBM2DCylinder(t *testing.T) {
	s := NewState()
	s.ResizeGrid(96, 48, 4)
	nu := 0.02
	s.UpdateParams(ParamsUpdate{Viscosity: &nu})
	kind := Cylinder
	s.UpdateGeometry(GeometryUpdate{Kind: &kind})
	sol, err := NewSolver(LBM2D, s)
	if err != nil {
		t.Fatal(err)
	}
	if w := RelaxationRate(s.Params.Viscosity); absDifferent(w, 1.7857, 1e-4) {
		t.Errorf("relaxation rate: have %g, want 1.7857", w)
	}
	for i := 0; i < 6; i++ {
		sol.Step(0)
	}
	if s.Iterations != 6 {
		t.Errorf("have %d iterations, want 6", s.Iterations)
	}
	if countSolid(s.Fields2D.Obstacle) == 0 {
		t.Error("no solid cells")
	}
	checkFinite(t, s)
	if len(s.Fields2D.Distribution) != 96*48*9 {
		t.Errorf("distribution length %d", len(s.Fields2D.Distribution))
	}
}

func TestNavierStokes2D(t *testing.T) {
	s, sol := newTestState(t, NavierStokes2D, Airfoil, 64, 32, 4)
	for i := 0; i < 3; i++ {
		sol.Step(0)
	}
	if s.Iterations != 3 {
		t.Errorf("have %d iterations, want 3", s.Iterations)
	}
	checkFinite(t, s)
	// Diagnostics are evaluated at the iteration count before the step.
	it := 2.0
	if absDifferent(s.Drag, 0.2*math.Tanh(it/500), testTolerance) ||
		absDifferent(s.Lift, 0.1*math.Sin(it/120), testTolerance) ||
		absDifferent(s.Strouhal, math.Abs(s.Lift)*0.2, testTolerance) {
		t.Errorf("diagnostics: %+v", s.Diagnostics())
	}
	for c, v := range s.Fields2D.Obstacle {
		if v != 0 && (s.Fields2D.VelocityX[c] != 0 || s.Fields2D.VelocityY[c] != 0) {
			t.Fatalf("solid cell %d has velocity", c)
		}
	}
}

func TestLBM3D(t *testing.T) {
	s, sol := newTestState(t, LBM3D, Sphere, 48, 32, 24)
	for i := 0; i < 3; i++ {
		sol.Step(0)
	}
	if len(s.Fields3D.VelocityX) != 36864 {
		t.Errorf("velocityX length: have %d, want 36864", len(s.Fields3D.VelocityX))
	}
	if countSolid(s.Fields3D.Obstacle) == 0 {
		t.Error("no solid cells")
	}
	if s.Iterations != 3 {
		t.Errorf("have %d iterations, want 3", s.Iterations)
	}
	checkFinite(t, s)
}

// TestLBMClosedBoxMass checks that collide and stream conserve the total
// mass of a box whose edges and obstacle reflect every population.
func TestLBMClosedBoxMass(t *testing.T) {
	for _, test := range []struct {
		lat        *Lattice
		nx, ny, nz int
	}{
		{lat: D2Q9, nx: 24, ny: 16, nz: 1},
		{lat: D3Q19, nx: 16, ny: 12, nz: 10},
	} {
		s := NewState()
		nz := max(test.nz, 4)
		s.ResizeGrid(test.nx, test.ny, nz)
		var g latticeGrid
		if test.lat == D2Q9 {
			kind := Cylinder
			s.UpdateGeometry(GeometryUpdate{Kind: &kind})
			Build2DObstacle(s)
			g = grid2D(s.Params, s.Fields2D)
		} else {
			s.SetDimension(Dim3D)
			Build3DObstacle(s)
			g = grid3D(s.Params, s.Fields3D)
		}
		// Perturb the density so the flow is not uniform.
		q := test.lat.Q
		for c := 0; c < g.cells(); c++ {
			rho := 1 + 0.05*math.Sin(float64(c))
			test.lat.setEquilibrium(g.dist[c*q:(c+1)*q], rho, 0.05, 0.01, 0)
		}
		l := &lbm{s: s, lat: test.lat}
		before := floats.Sum(g.dist)
		for i := 0; i < 20; i++ {
			l.collide(g, RelaxationRate(0.05))
			l.stream(&g)
		}
		after := floats.Sum(g.dist)
		if different(before, after, 1e-10) {
			t.Errorf("Q%d: mass changed from %.12g to %.12g", q, before, after)
		}
	}
}

func TestPotentialResidualDecreases(t *testing.T) {
	s, sol := newTestState(t, Potential2D, Cylinder, 40, 24, 4)
	ps := sol.(*Potential2DSolver)
	ps.ensureCapacity(40 * 24)
	var last float64
	done := 0
	for i, n := range []int{5, 50, 500} {
		ps.relax(n - done)
		done = n
		r := ps.residual()
		if i > 0 && !(r < last) {
			t.Errorf("residual after %d iterations is %g, not below %g", n, r, last)
		}
		last = r
	}
	sol.Step(0)
	checkFinite(t, s)
	if s.Strouhal != 0 {
		t.Errorf("strouhal: have %g, want 0", s.Strouhal)
	}
}

func TestVortexDiagnostics(t *testing.T) {
	s, sol := newTestState(t, Vortex2D, Cylinder, 40, 30, 4)
	sol.Step(0)
	if absDifferent(s.Drag, 0.01, testTolerance) || s.Lift != 0 || s.Strouhal != 0.2 || s.LD != 0 {
		t.Errorf("diagnostics after one step: %+v", s.Diagnostics())
	}
	for i := 0; i < 99; i++ {
		sol.Step(0)
	}
	if absDifferent(s.Lift, 0.6*math.Sin(99.0/100), testTolerance) {
		t.Errorf("lift: have %g", s.Lift)
	}
	if absDifferent(s.LD, s.Lift/s.Drag, testTolerance) {
		t.Errorf("L/D: have %g, want %g", s.LD, s.Lift/s.Drag)
	}
}

func TestEulerForcesZero(t *testing.T) {
	s, sol := newTestState(t, Euler3D, Sphere, 24, 16, 12)
	for i := 0; i < 4; i++ {
		sol.Step(0)
	}
	d := s.Diagnostics()
	if d.Drag != 0 || d.Lift != 0 || d.LD != 0 || d.SideForce != 0 {
		t.Errorf("have %+v, want zero forces", d)
	}
	checkFinite(t, s)
	for _, v := range s.Fields3D.Density {
		if v <= 0 {
			t.Fatalf("non-positive density %g", v)
		}
	}
}
