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
	"time"
)

// LBM2DSolver is a D2Q9 BGK lattice Boltzmann solver with bounce-back
// obstacles, a freestream inlet, a zero-gradient outlet and free-slip
// top and bottom walls.
type LBM2DSolver struct {
	lbm
}

// Kind returns LBM2D.
func (l *LBM2DSolver) Kind() SolverKind { return LBM2D }

// Step advances the 2D lattice by one collide-stream cycle.
func (l *LBM2DSolver) Step(elapsed time.Duration) {
	s := l.s
	if !active(s, LBM2D) {
		return
	}
	s.ensureObstacle(Dim2D)
	p := s.Params
	f := s.Fields2D
	u0 := latticeInflow(p.Mach)

	g := grid2D(p, f)
	l.collide(g, RelaxationRate(p.Viscosity))
	l.stream(&g)
	f.Distribution = g.dist
	l.slipWalls(g)
	l.inletOutlet(g, p.Density0, u0)

	vorticity2D(f, p.Nx, p.Ny)

	area := frontalArea2D(f.Obstacle, p.Nx, p.Ny)
	fx, fy := surfaceLoads2D(f, p.Nx, p.Ny, 1.0/3, p.Viscosity)
	s.Drag = coefficient(fx, p.Density0, u0, area)
	s.Lift = coefficient(fy, p.Density0, u0, area)
	s.SideForce = 0
	l.updateStrouhal(float64(max(area, 1)), u0)
	s.finishStep(elapsed)
}

// LBM3DSolver is a D3Q19 BGK lattice Boltzmann solver with bounce-back
// obstacles and lateral walls, a freestream inlet and a zero-gradient
// outlet.
type LBM3DSolver struct {
	lbm
}

// Kind returns LBM3D.
func (l *LBM3DSolver) Kind() SolverKind { return LBM3D }

// Step advances the 3D lattice by one collide-stream cycle. Lift acts
// along z and side force along y.
func (l *LBM3DSolver) Step(elapsed time.Duration) {
	s := l.s
	if !active(s, LBM3D) {
		return
	}
	s.ensureObstacle(Dim3D)
	p := s.Params
	f := s.Fields3D
	u0 := latticeInflow(p.Mach)

	g := grid3D(p, f)
	l.collide(g, RelaxationRate(p.Viscosity))
	l.stream(&g)
	f.Distribution = g.dist
	l.inletOutlet(g, p.Density0, u0)

	vorticity3D(f, p.Nx, p.Ny, p.Nz)

	area := frontalArea3D(f.Obstacle, p.Nx, p.Ny, p.Nz)
	fx, fy, fz := surfaceLoads3D(f, p.Nx, p.Ny, p.Nz, 1.0/3, p.Viscosity)
	s.Drag = coefficient(fx, p.Density0, u0, area)
	s.Lift = coefficient(fz, p.Density0, u0, area)
	s.SideForce = coefficient(fy, p.Density0, u0, area)
	l.updateStrouhal(math.Sqrt(float64(max(area, 1))), u0)
	s.finishStep(elapsed)
}
