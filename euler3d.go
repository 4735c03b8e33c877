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

// Constants of the compressible Euler solver.
const (
	gamma      = 1.4 // ratio of specific heats
	cfl        = 0.5 // Courant number
	artVisc    = 0.1 // artificial viscosity coefficient
	sampleStep = 100 // stride of the cells sampled for the wave speed
	eulerFloor = 1e-6
)

// Euler3DSolver solves the compressible Euler equations with central
// fluxes and explicit artificial viscosity. The reference sound speed is 1,
// so the freestream velocity equals the Mach number.
//
// Drag, lift and side force are not computed by this solver and are always
// reported as 0.
type Euler3DSolver struct {
	s *State

	// fields is the field set the conserved state was initialized for.
	fields *FieldSet3D
	energy []float64

	// next holds the updated density, momentum and energy.
	next [5][]float64
}

// Kind returns Euler3D.
func (e *Euler3DSolver) Kind() SolverKind { return Euler3D }

// freestreamState returns the inlet density, velocity, pressure and total
// energy for Mach number mach.
func freestreamState(mach float64) (rho, u, p, energy float64) {
	rho, u, p = 1, mach, 1/gamma
	return rho, u, p, p/(gamma-1) + 0.5*rho*u*u
}

// initialize sets a uniform freestream everywhere and zero velocity inside
// the obstacle. If steps have already been taken, as after loading a
// checkpoint, the fields are kept and only the energy is derived from them.
func (e *Euler3DSolver) initialize() {
	f := e.s.Fields3D
	n := len(f.Density)
	e.fields = f
	e.energy = make([]float64, n)
	for i := range e.next {
		e.next[i] = make([]float64, n)
	}
	if e.s.Iterations > 0 {
		for c := 0; c < n; c++ {
			u, v, w := f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c]
			e.energy[c] = f.Pressure[c]/(gamma-1) + 0.5*f.Density[c]*(u*u+v*v+w*w)
		}
		return
	}
	rho, u, p, _ := freestreamState(e.s.Params.Mach)
	for c := 0; c < n; c++ {
		uc := u
		if f.Obstacle[c] != 0 {
			uc = 0
		}
		f.Density[c] = rho
		f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c] = uc, 0, 0
		f.Pressure[c] = p
		e.energy[c] = p/(gamma-1) + 0.5*rho*uc*uc
	}
}

// timestep returns a stable timestep from the CFL condition, using the
// largest wave speed among a sample of cells.
func (e *Euler3DSolver) timestep() float64 {
	f := e.s.Fields3D
	maxSpeed := 0.0
	for c := 0; c < len(f.Density); c += sampleStep {
		u, v, w := f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c]
		sound := math.Sqrt(gamma * f.Pressure[c] / f.Density[c])
		maxSpeed = math.Max(maxSpeed, math.Sqrt(u*u+v*v+w*w)+sound)
	}
	return cfl / (maxSpeed + eulerFloor)
}

// conserved returns the conserved variables of cell c.
func (e *Euler3DSolver) conserved(c int) [5]float64 {
	f := e.s.Fields3D
	r := f.Density[c]
	return [5]float64{r, r * f.VelocityX[c], r * f.VelocityY[c], r * f.VelocityZ[c], e.energy[c]}
}

// flux returns the flux of the conserved variables of cell c along axis
// (0 for x, 1 for y, 2 for z).
func (e *Euler3DSolver) flux(c, axis int) [5]float64 {
	f := e.s.Fields3D
	r, p := f.Density[c], f.Pressure[c]
	vel := [3]float64{f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c]}
	un := vel[axis]
	out := [5]float64{r * un, r * un * vel[0], r * un * vel[1], r * un * vel[2], (e.energy[c] + p) * un}
	out[1+axis] += p
	return out
}

// Step advances the flow by one CFL-limited timestep.
func (e *Euler3DSolver) Step(elapsed time.Duration) {
	s := e.s
	if !active(s, Euler3D) {
		return
	}
	s.ensureObstacle(Dim3D)
	if e.fields != s.Fields3D || len(e.energy) != len(s.Fields3D.Density) {
		e.initialize()
	}
	p := s.Params
	f := s.Fields3D
	nx, ny, nz := p.Nx, p.Ny, p.Nz
	dt := e.timestep()
	strides := [3]int{1, nx, nx * ny}

	parallelFor(max(nz-2, 0), func(start, end int) {
		for z := start + 1; z < end+1; z++ {
			for y := 1; y < ny-1; y++ {
				for x := 1; x < nx-1; x++ {
					c := (z*ny+y)*nx + x
					if f.Obstacle[c] != 0 {
						continue
					}
					var div, lap [5]float64
					u := e.conserved(c)
					for axis, st := range strides {
						fp, fm := e.flux(c+st, axis), e.flux(c-st, axis)
						up, um := e.conserved(c+st), e.conserved(c-st)
						for k := range div {
							div[k] += fp[k] - fm[k]
							lap[k] += up[k] + um[k] - 2*u[k]
						}
					}
					for k := range div {
						e.next[k][c] = u[k] - 0.5*dt*div[k] + artVisc*lap[k]
					}
				}
			}
		}
	})

	parallelFor(max(nz-2, 0), func(start, end int) {
		for z := start + 1; z < end+1; z++ {
			for y := 1; y < ny-1; y++ {
				for x := 1; x < nx-1; x++ {
					c := (z*ny+y)*nx + x
					if f.Obstacle[c] != 0 {
						continue
					}
					r := math.Max(e.next[0][c], eulerFloor)
					u, v, w := e.next[1][c]/r, e.next[2][c]/r, e.next[3][c]/r
					f.Density[c] = r
					f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c] = u, v, w
					e.energy[c] = e.next[4][c]
					f.Pressure[c] = math.Max((gamma-1)*(e.energy[c]-0.5*r*(u*u+v*v+w*w)), eulerFloor)
				}
			}
		}
	})

	e.boundaries()
	vorticity3D(f, nx, ny, nz)

	s.Drag, s.Lift, s.SideForce, s.Strouhal = 0, 0, 0, 0
	s.finishStep(elapsed)
}

// boundaries holds the inlet face at the freestream state and copies the
// outlet face from its interior neighbor.
func (e *Euler3DSolver) boundaries() {
	p := e.s.Params
	f := e.s.Fields3D
	nx := p.Nx
	rho, u, pr, energy := freestreamState(p.Mach)
	for row := 0; row < p.Ny*p.Nz; row++ {
		in := row * nx
		f.Density[in] = rho
		f.VelocityX[in], f.VelocityY[in], f.VelocityZ[in] = u, 0, 0
		f.Pressure[in] = pr
		e.energy[in] = energy

		out, src := in+nx-1, in+nx-2
		f.Density[out] = f.Density[src]
		f.VelocityX[out] = f.VelocityX[src]
		f.VelocityY[out] = f.VelocityY[src]
		f.VelocityZ[out] = f.VelocityZ[src]
		f.Pressure[out] = f.Pressure[src]
		e.energy[out] = e.energy[src]
	}
}
