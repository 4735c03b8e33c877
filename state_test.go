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
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestResizeGrid(t *testing.T) {
	s := NewState()
	s.Iterations = 7
	s.ResizeGrid(48, 32, 24)
	if s.Iterations != 0 {
		t.Errorf("iterations: have %d, want 0", s.Iterations)
	}
	n2, n3 := 48*32, 48*32*24
	for name, v := range s.Fields2D.Scalars() {
		if len(v) != n2 {
			t.Errorf("2D %s: have length %d, want %d", name, len(v), n2)
		}
	}
	for name, v := range s.Fields3D.Scalars() {
		if len(v) != n3 {
			t.Errorf("3D %s: have length %d, want %d", name, len(v), n3)
		}
	}
	if len(s.Fields2D.Obstacle) != n2 || len(s.Fields3D.Obstacle) != n3 {
		t.Error("obstacle masks have the wrong length")
	}
	if len(s.Fields2D.Distribution) != n2*9 {
		t.Errorf("2D distribution: have %d, want %d", len(s.Fields2D.Distribution), n2*9)
	}
	if len(s.Fields3D.Distribution) != n3*19 {
		t.Errorf("3D distribution: have %d, want %d", len(s.Fields3D.Distribution), n3*19)
	}
}

func TestResizeGridDiscardsFields(t *testing.T) {
	s := NewState()
	s.ResizeGrid(8, 6, 4)
	s.Fields2D.VelocityX[0] = 42
	old := s.Fields2D
	s.ResizeGrid(8, 6, 4)
	if s.Fields2D == old {
		t.Error("field set was not reallocated")
	}
	if s.Fields2D.VelocityX[0] == 42 {
		t.Error("old field contents were kept")
	}
}

func TestResetFields(t *testing.T) {
	s, sol := newTestState(t, NavierStokes2D, Cylinder, 32, 16, 4)
	for i := 0; i < 3; i++ {
		sol.Step(0)
	}
	s.Drag, s.Lift, s.LD, s.Strouhal = 1, 2, 3, 4
	old2, old3 := s.Fields2D, s.Fields3D
	params, geometry := s.Params, s.Geometry
	s.ResetFields()
	if d := s.Diagnostics(); d != (Diagnostics{}) {
		t.Errorf("diagnostics: have %+v, want zero", d)
	}
	if s.Fields2D == old2 || s.Fields3D == old3 {
		t.Error("field sets were not reallocated")
	}
	if len(s.Fields2D.VelocityX) != 32*16 || len(s.Fields3D.VelocityX) != 32*16*4 {
		t.Error("field sets have the wrong size")
	}
	if s.Params != params || !reflect.DeepEqual(s.Geometry, geometry) {
		t.Error("parameters or geometry changed")
	}
}

func TestUpdateParams(t *testing.T) {
	s := NewState()
	mach := 0.25
	s.UpdateParams(ParamsUpdate{Mach: &mach})
	want := DefaultParams()
	want.Mach = 0.25
	if s.Params != want {
		t.Errorf("have %+v, want %+v", s.Params, want)
	}
}

func TestUpdateGeometry(t *testing.T) {
	s := NewState()
	custom, cyl := Custom, Cylinder
	id := "aeroCow"
	s.UpdateGeometry(GeometryUpdate{
		Kind:         &custom,
		CustomMesh:   []float64{0, 0, 0, 1, 0, 0, 0, 1, 0},
		CustomBounds: &r3.Box{Max: r3.Vec{X: 1, Y: 1}},
		PresetID:     &id,
	})
	if s.Geometry.CustomMesh == nil || s.Geometry.CustomBounds == nil || s.Geometry.PresetID != id {
		t.Fatalf("custom geometry not set: %+v", s.Geometry)
	}
	angle := 5.0
	s.UpdateGeometry(GeometryUpdate{Angle: &angle})
	if s.Geometry.CustomMesh == nil || s.Geometry.Angle != 5 {
		t.Errorf("angle update changed the custom mesh: %+v", s.Geometry)
	}
	s.UpdateGeometry(GeometryUpdate{Kind: &cyl})
	if s.Geometry.CustomMesh != nil || s.Geometry.CustomBounds != nil || s.Geometry.PresetID != "" {
		t.Errorf("custom geometry not cleared: %+v", s.Geometry)
	}
}

func TestViscosityFromReynolds(t *testing.T) {
	for _, test := range []struct{ re, nu float64 }{
		{re: 100, nu: 0.2},
		{re: 5e4, nu: 0.1},
		{re: 2.5e5, nu: 0.02},
		{re: 1e7, nu: 0.002},
	} {
		if nu := ViscosityFromReynolds(test.re); absDifferent(nu, test.nu, testTolerance) {
			t.Errorf("Re %g: have %g, want %g", test.re, nu, test.nu)
		}
	}
	s := NewState()
	nu := s.Params.Viscosity
	s.SetReynolds(0)
	if s.Params.Viscosity != nu {
		t.Error("a zero Reynolds number changed the viscosity")
	}
}

func TestParseKinds(t *testing.T) {
	for _, k := range []SolverKind{LBM2D, NavierStokes2D, Potential2D, Vortex2D, LBM3D, Euler3D} {
		have, err := ParseSolverKind(k.String())
		if err != nil || have != k {
			t.Errorf("%v: have %v, %v", k, have, err)
		}
	}
	if _, err := ParseSolverKind("lbm4d"); err == nil {
		t.Error("expected an error for an unknown solver")
	}
	for _, k := range []ShapeKind{Cylinder, Airfoil, Wing, Sphere, Cow, Custom} {
		have, err := ParseShapeKind(k.String())
		if err != nil || have != k {
			t.Errorf("%v: have %v, %v", k, have, err)
		}
	}
}

func TestRelaxationRate(t *testing.T) {
	if w := RelaxationRate(0.02); absDifferent(w, 1/0.56, testTolerance) || absDifferent(w, 1.7857, 1e-4) {
		t.Errorf("have %g, want 1.7857", w)
	}
}

func TestLatticeSymmetry(t *testing.T) {
	for name, l := range map[string]*Lattice{"D2Q9": D2Q9, "D3Q19": D3Q19} {
		if absDifferent(floats.Sum(l.W), 1, 1e-12) {
			t.Errorf("%s: weights sum to %g", name, floats.Sum(l.W))
		}
		for k, c := range l.C {
			o := l.C[l.Opposite[k]]
			if o[0] != -c[0] || o[1] != -c[1] || o[2] != -c[2] {
				t.Errorf("%s: direction %d: opposite %v of %v", name, k, o, c)
			}
		}
	}
	if D2Q9.Q != 9 || D3Q19.Q != 19 {
		t.Error("wrong population counts")
	}
}

// TestLatticeIsotropy checks that the velocities are distinct and that the
// weighted second moments equal δij/3, which is what lets the equilibrium
// carry momentum.
func TestLatticeIsotropy(t *testing.T) {
	for name, l := range map[string]*Lattice{"D2Q9": D2Q9, "D3Q19": D3Q19} {
		dims := 3
		if l == D2Q9 {
			dims = 2
		}
		seen := make(map[[3]int]int)
		for k, c := range l.C {
			if kk, ok := seen[c]; ok {
				t.Errorf("%s: directions %d and %d are both %v", name, kk, k, c)
			}
			seen[c] = k
		}
		for i := 0; i < dims; i++ {
			var first float64
			for k, c := range l.C {
				first += l.W[k] * float64(c[i])
			}
			if absDifferent(first, 0, 1e-12) {
				t.Errorf("%s: first moment %d is %g", name, i, first)
			}
			for j := 0; j < dims; j++ {
				var m float64
				for k, c := range l.C {
					m += l.W[k] * float64(c[i]*c[j])
				}
				want := 0.
				if i == j {
					want = 1. / 3
				}
				if absDifferent(m, want, 1e-12) {
					t.Errorf("%s: second moment (%d, %d): have %g, want %g", name, i, j, m, want)
				}
			}
		}
	}
}

func TestEquilibriumMoments(t *testing.T) {
	const rho, ux, uy, uz = 1.1, 0.05, -0.02, 0.01
	for name, l := range map[string]*Lattice{"D2Q9": D2Q9, "D3Q19": D3Q19} {
		f := make([]float64, l.Q)
		z := uz
		if l == D2Q9 {
			z = 0
		}
		l.setEquilibrium(f, rho, ux, uy, z)
		r, x, y, zz := l.moments(f)
		if absDifferent(r, rho, 1e-12) || absDifferent(x, ux, 1e-12) ||
			absDifferent(y, uy, 1e-12) || absDifferent(zz, z, 1e-12) {
			t.Errorf("%s: moments (%g, %g, %g, %g)", name, r, x, y, zz)
		}
	}
}
