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
	"strings"
	"testing"
)

func TestScenarioApply(t *testing.T) {
	s := NewState()
	s.ResizeGrid(40, 30, 20)
	custom := Custom
	s.UpdateGeometry(GeometryUpdate{Kind: &custom, CustomMesh: []float64{0, 0, 0, 1, 0, 0, 0, 1, 0}})
	s.Iterations = 7

	sc := Scenario{Solver: "lbm3d", Nx: 50, Nz: 16, Geometry: "sphere", Angle: 3, Mach: 0.1, Reynolds: 1000}
	if err := sc.Apply(s); err != nil {
		t.Fatal(err)
	}
	p := s.Params
	if p.Nx != 50 || p.Ny != 30 || p.Nz != 16 {
		t.Errorf("extents: %d×%d×%d", p.Nx, p.Ny, p.Nz)
	}
	if p.Solver != LBM3D || p.Dimension != Dim3D {
		t.Errorf("solver %v, dimension %v", p.Solver, p.Dimension)
	}
	if p.Mach != 0.1 || p.Reynolds != 1000 || p.Viscosity != ViscosityFromReynolds(1000) {
		t.Errorf("params: %+v", p)
	}
	g := s.Geometry
	if g.Kind != Sphere || g.Angle != 3 || g.CustomMesh != nil || g.CustomBounds != nil || g.PresetID != "" {
		t.Errorf("geometry: %+v", g)
	}
	if s.Iterations != 0 {
		t.Errorf("iterations not reset: %d", s.Iterations)
	}
	if len(s.Fields3D.Density) != 50*30*16 {
		t.Errorf("3D fields not resized: %d", len(s.Fields3D.Density))
	}

	if err := (Scenario{Solver: "lbm4d", Geometry: "sphere"}).Apply(s); err == nil {
		t.Error("expected an error for an invalid solver")
	}
}

func TestBuiltinScenarios(t *testing.T) {
	want := []string{"airfoil", "cavity", "cylinder", "wing"}
	if names := ScenarioNames(Scenarios); !reflect.DeepEqual(names, want) {
		t.Errorf("have %v, want %v", names, want)
	}
	for name, sc := range Scenarios {
		if _, _, err := sc.kinds(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestApplyScenario(t *testing.T) {
	sim := NewSimulation()
	sim.InitFuncs = []DomainManipulator{
		ApplyScenario(Scenario{Solver: "vortex2d", Nx: 30, Ny: 20, Geometry: "airfoil", Angle: 5}),
	}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	if sim.Solver == nil || sim.Solver.Kind() != Vortex2D {
		t.Fatalf("solver: %v", sim.Solver)
	}
	if countSolid(sim.Fields2D.Obstacle) == 0 {
		t.Error("obstacle not built")
	}
}

func TestLoadScenarios(t *testing.T) {
	const good = `
[scenario.plate]
label = "Flat wing"
solver = "euler3d"
nx = 64
ny = 32
nz = 16
geometry = "wing"
angle = 2.5
mach = 0.4

[scenario.blob]
solver = "ns2d"
geometry = "cylinder"
reynolds = 200.0
`
	m, err := LoadScenarios(strings.NewReader(good))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]Scenario{
		"plate": {Label: "Flat wing", Solver: "euler3d", Nx: 64, Ny: 32, Nz: 16,
			Geometry: "wing", Angle: 2.5, Mach: 0.4},
		"blob": {Solver: "ns2d", Geometry: "cylinder", Reynolds: 200},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("have %+v, want %+v", m, want)
	}

	for _, bad := range []string{
		"[scenario.x]\nsolver = \"warp\"\ngeometry = \"sphere\"\n",
		"[scenario.x]\nsolver = \"lbm2d\"\ngeometry = \"donut\"\n",
		"[scenario.x\n",
	} {
		if _, err := LoadScenarios(strings.NewReader(bad)); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
