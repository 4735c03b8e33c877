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
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
)

// Scenario is a named, ready-to-run configuration. Zero grid extents leave
// the corresponding current extent unchanged.
type Scenario struct {
	Label    string  `toml:"label"`
	Solver   string  `toml:"solver"`
	Nx       int     `toml:"nx"`
	Ny       int     `toml:"ny"`
	Nz       int     `toml:"nz"`
	Geometry string  `toml:"geometry"`
	Angle    float64 `toml:"angle"`
	Mach     float64 `toml:"mach"`
	Reynolds float64 `toml:"reynolds"`
}

// Scenarios are the built-in scenarios.
var Scenarios = map[string]Scenario{
	"cylinder": {Label: "Cylinder vortex street", Solver: "lbm2d", Nx: 256, Ny: 128,
		Geometry: "cylinder", Angle: 0, Mach: 0.15, Reynolds: 3900},
	"airfoil": {Label: "NACA 0012 at 4°", Solver: "lbm2d", Nx: 320, Ny: 160,
		Geometry: "airfoil", Angle: 4, Mach: 0.3, Reynolds: 1e5},
	"wing": {Label: "Tapered wing at 8°", Solver: "lbm3d", Nx: 192, Ny: 96, Nz: 64,
		Geometry: "wing", Angle: 8, Mach: 0.2, Reynolds: 6000},
	"cavity": {Label: "Sphere in a low-speed box", Solver: "lbm3d", Nx: 160, Ny: 160, Nz: 80,
		Geometry: "sphere", Angle: 0, Mach: 0.05, Reynolds: 2000},
}

// ScenarioNames returns the sorted names of the scenarios in m.
func ScenarioNames(m map[string]Scenario) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoadScenarios reads scenarios from TOML, where each scenario is a table
// under [scenario.<name>].
func LoadScenarios(r io.Reader) (map[string]Scenario, error) {
	var f struct {
		Scenario map[string]Scenario `toml:"scenario"`
	}
	if _, err := toml.DecodeReader(r, &f); err != nil {
		return nil, fmt.Errorf("aerotunnel: reading scenarios: %v", err)
	}
	for name, sc := range f.Scenario {
		if _, _, err := sc.kinds(); err != nil {
			return nil, fmt.Errorf("aerotunnel: scenario %q: %v", name, err)
		}
	}
	return f.Scenario, nil
}

// kinds parses the solver and geometry of the scenario.
func (sc Scenario) kinds() (SolverKind, ShapeKind, error) {
	solver, err := ParseSolverKind(sc.Solver)
	if err != nil {
		return solver, Airfoil, err
	}
	shape, err := ParseShapeKind(sc.Geometry)
	return solver, shape, err
}

// Apply configures s for the scenario: it sets the dimension and solver,
// resizes the grid (which resets the fields), sets the Mach and Reynolds
// numbers, and replaces the geometry, clearing any custom mesh or preset.
func (sc Scenario) Apply(s *State) error {
	solver, shape, err := sc.kinds()
	if err != nil {
		return err
	}
	nx, ny, nz := s.Params.Nx, s.Params.Ny, s.Params.Nz
	if sc.Nx > 0 {
		nx = sc.Nx
	}
	if sc.Ny > 0 {
		ny = sc.Ny
	}
	if sc.Nz > 0 {
		nz = sc.Nz
	}
	s.SetDimension(solver.Dimension())
	s.SetSolver(solver)
	s.ResizeGrid(nx, ny, nz)
	if sc.Mach > 0 {
		mach := sc.Mach
		s.UpdateParams(ParamsUpdate{Mach: &mach})
	}
	s.SetReynolds(sc.Reynolds)
	preset := ""
	s.UpdateGeometry(GeometryUpdate{Kind: &shape, Angle: &sc.Angle, PresetID: &preset})
	s.Geometry.CustomMesh = nil
	s.Geometry.CustomBounds = nil
	s.ResetFields()
	return nil
}

// ApplyScenario applies sc to the simulation and selects its solver.
func ApplyScenario(sc Scenario) DomainManipulator {
	return func(sim *Simulation) error {
		if err := sc.Apply(sim.State); err != nil {
			return err
		}
		return SelectSolver(sim.Params.Solver)(sim)
	}
}
