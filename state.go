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
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Dimension is the dimensionality of the active grid.
type Dimension int

// The two supported dimensions.
const (
	Dim2D Dimension = iota
	Dim3D
)

func (d Dimension) String() string {
	if d == Dim3D {
		return "3d"
	}
	return "2d"
}

// ParseDimension converts "2d" or "3d" (case-insensitive) to a Dimension.
func ParseDimension(s string) (Dimension, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2d":
		return Dim2D, nil
	case "3d":
		return Dim3D, nil
	}
	return Dim2D, fmt.Errorf("aerotunnel: invalid dimension %q; valid options are 2d and 3d", s)
}

// SolverKind identifies one of the six flow solvers.
type SolverKind int

// The available solvers.
const (
	LBM2D SolverKind = iota
	NavierStokes2D
	Potential2D
	Vortex2D
	LBM3D
	Euler3D
)

var solverKeys = []string{"lbm2d", "ns2d", "potential2d", "vortex2d", "lbm3d", "euler3d"}

// SolverKinds lists every solver in declaration order.
var SolverKinds = []SolverKind{LBM2D, NavierStokes2D, Potential2D, Vortex2D, LBM3D, Euler3D}

func (k SolverKind) String() string {
	if k < 0 || int(k) >= len(solverKeys) {
		return fmt.Sprintf("SolverKind(%d)", int(k))
	}
	return solverKeys[k]
}

// Dimension returns the grid dimension the solver operates on.
func (k SolverKind) Dimension() Dimension {
	if k == LBM3D || k == Euler3D {
		return Dim3D
	}
	return Dim2D
}

// ParseSolverKind converts a solver key such as "lbm2d" to a SolverKind.
func ParseSolverKind(s string) (SolverKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range solverKeys {
		if k == key {
			return SolverKind(i), nil
		}
	}
	return LBM2D, fmt.Errorf("aerotunnel: invalid solver %q; valid options are %s",
		s, strings.Join(solverKeys, ", "))
}

// ShapeKind identifies the obstacle primitive.
type ShapeKind int

// The obstacle shapes. Cow is only distinct in 3D.
const (
	Cylinder ShapeKind = iota
	Airfoil
	Wing
	Sphere
	Cow
	Custom
)

var shapeKeys = []string{"cylinder", "airfoil", "wing", "sphere", "cow", "custom"}

func (k ShapeKind) String() string {
	if k < 0 || int(k) >= len(shapeKeys) {
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
	return shapeKeys[k]
}

// ParseShapeKind converts a shape name such as "airfoil" to a ShapeKind.
func ParseShapeKind(s string) (ShapeKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, k := range shapeKeys {
		if k == key {
			return ShapeKind(i), nil
		}
	}
	return Airfoil, fmt.Errorf("aerotunnel: invalid geometry %q; valid options are %s",
		s, strings.Join(shapeKeys, ", "))
}

// Params holds the simulation parameters.
type Params struct {
	Dimension Dimension
	Solver    SolverKind

	// Grid extents in cells.
	Nx, Ny, Nz int

	Dx float64 // cell spacing
	Dt float64 // timestep used by the Navier-Stokes solver

	Mach      float64
	Reynolds  float64
	Viscosity float64 // kinematic viscosity in lattice units
	Density0  float64 // reference density
}

// DefaultParams returns the default simulation parameters.
func DefaultParams() Params {
	return Params{
		Dimension: Dim2D,
		Solver:    LBM2D,
		Nx:        256,
		Ny:        128,
		Nz:        64,
		Dx:        1,
		Dt:        0.01,
		Mach:      0.15,
		Reynolds:  5000,
		Viscosity: 0.02,
		Density0:  1,
	}
}

// ParamsUpdate is a partial parameter update. Nil fields are left
// unchanged.
type ParamsUpdate struct {
	Dx, Dt    *float64
	Mach      *float64
	Reynolds  *float64
	Viscosity *float64
	Density0  *float64
}

// Geometry describes the obstacle.
type Geometry struct {
	Kind ShapeKind

	// Angle is the angle of attack in degrees.
	Angle float64

	// CustomMesh holds flat vertex triples, three vertices per triangle.
	CustomMesh []float64

	// CustomBounds is the axis-aligned bounding box of the custom mesh.
	CustomBounds *r3.Box

	// PresetID identifies the preset mesh the custom geometry came from.
	PresetID string
}

// GeometryUpdate is a partial geometry update. Nil fields are left
// unchanged.
type GeometryUpdate struct {
	Kind         *ShapeKind
	Angle        *float64
	CustomMesh   []float64
	CustomBounds *r3.Box
	PresetID     *string
}

// Diagnostics are the scalar results of the most recent step.
type Diagnostics struct {
	Iterations int
	Drag       float64 // drag coefficient
	Lift       float64 // lift coefficient
	LD         float64 // lift-to-drag ratio, 0 when drag is 0
	Strouhal   float64
	SideForce  float64 // side-force coefficient, 3D only
}

// State holds the parameters, geometry, fields and diagnostics of one
// simulation. A State must only be mutated by one goroutine at a time.
type State struct {
	Params   Params
	Geometry Geometry

	Fields2D *FieldSet2D
	Fields3D *FieldSet3D

	// Iterations is the number of steps taken since the last resize or reset.
	Iterations int

	Drag, Lift, LD, Strouhal, SideForce float64

	// WallTime is the total elapsed time reported to Step.
	WallTime time.Duration

	// stale records which obstacle masks need rebuilding.
	stale [2]bool
}

// NewState returns a state with default parameters, an airfoil obstacle,
// and freshly initialized field sets.
func NewState() *State {
	s := &State{
		Params:   DefaultParams(),
		Geometry: Geometry{Kind: Airfoil},
	}
	s.allocate()
	return s
}

func (s *State) allocate() {
	s.Fields2D = newFieldSet2D(s.Params)
	s.Fields3D = newFieldSet3D(s.Params)
	s.stale = [2]bool{true, true}
}

// ResizeGrid sets the grid extents, reallocates both field sets, and
// resets the iteration counter. Old field contents are discarded.
func (s *State) ResizeGrid(nx, ny, nz int) {
	s.Params.Nx, s.Params.Ny, s.Params.Nz = nx, ny, nz
	s.allocate()
	s.Iterations = 0
}

// SetDimension sets the active dimension.
func (s *State) SetDimension(d Dimension) { s.Params.Dimension = d }

// SetSolver sets the active solver identifier.
func (s *State) SetSolver(k SolverKind) { s.Params.Solver = k }

// UpdateParams merges u into the parameters without validation.
func (s *State) UpdateParams(u ParamsUpdate) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Params.Dx, u.Dx)
	set(&s.Params.Dt, u.Dt)
	set(&s.Params.Mach, u.Mach)
	set(&s.Params.Reynolds, u.Reynolds)
	set(&s.Params.Viscosity, u.Viscosity)
	set(&s.Params.Density0, u.Density0)
}

// SetReynolds sets the Reynolds number and the viscosity derived from it.
// Non-positive values are ignored.
func (s *State) SetReynolds(re float64) {
	if !(re > 0) {
		return
	}
	s.Params.Reynolds = re
	s.Params.Viscosity = ViscosityFromReynolds(re)
}

// ViscosityFromReynolds converts a Reynolds number to a lattice viscosity,
// clamped to [0.002, 0.2] to keep the lattice Boltzmann relaxation stable.
func ViscosityFromReynolds(re float64) float64 {
	return math.Max(0.002, math.Min(0.2, 5000/re))
}

// UpdateGeometry merges u into the geometry descriptor. Setting a kind
// other than Custom clears the custom mesh, bounds, and preset.
func (s *State) UpdateGeometry(u GeometryUpdate) {
	g := &s.Geometry
	if u.Kind != nil {
		g.Kind = *u.Kind
	}
	if u.Angle != nil {
		g.Angle = *u.Angle
	}
	if u.CustomMesh != nil {
		g.CustomMesh = u.CustomMesh
	}
	if u.CustomBounds != nil {
		b := *u.CustomBounds
		g.CustomBounds = &b
	}
	if u.PresetID != nil {
		g.PresetID = *u.PresetID
	}
	if g.Kind != Custom {
		g.CustomMesh = nil
		g.CustomBounds = nil
		g.PresetID = ""
	}
	s.stale = [2]bool{true, true}
}

// ResetFields reallocates both field sets at the current extents and
// zeroes the diagnostics. Parameters and geometry are kept.
func (s *State) ResetFields() {
	s.allocate()
	s.Iterations = 0
	s.Drag, s.Lift, s.LD, s.Strouhal, s.SideForce = 0, 0, 0, 0, 0
}

// Obstacle returns the obstacle mask of the active dimension.
func (s *State) Obstacle() []uint8 {
	if s.Params.Dimension == Dim3D {
		return s.Fields3D.Obstacle
	}
	return s.Fields2D.Obstacle
}

// Diagnostics returns the current scalar diagnostics.
func (s *State) Diagnostics() Diagnostics {
	return Diagnostics{
		Iterations: s.Iterations,
		Drag:       s.Drag,
		Lift:       s.Lift,
		LD:         s.LD,
		Strouhal:   s.Strouhal,
		SideForce:  s.SideForce,
	}
}

// ensureObstacle rebuilds the obstacle mask of dimension d if the
// geometry or grid changed since it was last built.
func (s *State) ensureObstacle(d Dimension) {
	if !s.stale[d] {
		return
	}
	if d == Dim3D {
		Build3DObstacle(s)
	} else {
		Build2DObstacle(s)
	}
}

// finishStep records a completed step.
func (s *State) finishStep(elapsed time.Duration) {
	s.LD = liftToDrag(s.Lift, s.Drag)
	s.Iterations++
	s.WallTime += elapsed
}
