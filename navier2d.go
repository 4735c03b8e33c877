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

// Iteration counts of the Navier-Stokes relaxation phases.
const (
	diffusionSweeps      = 8
	projectionIterations = 20
)

// NavierStokes2DSolver is a semi-Lagrangian incompressible Navier-Stokes
// solver. Each step advects velocity along itself, diffuses it implicitly,
// and projects it onto a nearly divergence-free field.
//
// The force coefficients it reports are smooth functions of the iteration
// count rather than integrated loads.
type NavierStokes2DSolver struct {
	s *State

	// Scratch buffers, reallocated when the grid size changes.
	u, v     []float64 // advected velocity
	prev     []float64 // diffusion source
	p, pNext []float64 // projection pressure
	div      []float64
}

// Kind returns NavierStokes2D.
func (n *NavierStokes2DSolver) Kind() SolverKind { return NavierStokes2D }

func (n *NavierStokes2DSolver) ensureCapacity(size int) {
	if len(n.u) == size {
		return
	}
	n.u = make([]float64, size)
	n.v = make([]float64, size)
	n.prev = make([]float64, size)
	n.p = make([]float64, size)
	n.pNext = make([]float64, size)
	n.div = make([]float64, size)
}

// Step advances the flow by one timestep of length Params.Dt.
func (n *NavierStokes2DSolver) Step(elapsed time.Duration) {
	s := n.s
	if !active(s, NavierStokes2D) {
		return
	}
	s.ensureObstacle(Dim2D)
	p := s.Params
	f := s.Fields2D
	nx, ny := p.Nx, p.Ny
	n.ensureCapacity(nx * ny)

	n.advect(f, f.VelocityX, n.u, p.Dt, nx, ny)
	n.advect(f, f.VelocityY, n.v, p.Dt, nx, ny)
	a := p.Dt * p.Viscosity * float64(nx*ny)
	n.diffuse(n.u, a, nx, ny)
	n.diffuse(n.v, a, nx, ny)
	n.project(f.Obstacle, nx, ny)

	for i, solid := range f.Obstacle {
		if solid != 0 {
			f.VelocityX[i], f.VelocityY[i] = 0, 0
		} else {
			f.VelocityX[i], f.VelocityY[i] = n.u[i], n.v[i]
		}
		f.Pressure[i] = p.Density0 + n.p[i]
	}
	channelBoundaries(f, nx, ny, latticeInflow(p.Mach))
	vorticity2D(f, nx, ny)

	it := float64(s.Iterations)
	s.Drag = 0.2 * math.Tanh(it/500)
	s.Lift = 0.1 * math.Sin(it/120)
	s.Strouhal = math.Abs(s.Lift) * 0.2
	s.SideForce = 0
	s.finishStep(elapsed)
}

// advect traces each interior fluid cell backward along the current
// velocity for time dt and writes the bilinear interpolation of src at the
// departure point into out. Departure points are clamped to stay half a
// cell inside the domain.
func (n *NavierStokes2DSolver) advect(f *FieldSet2D, src, out []float64, dt float64, nx, ny int) {
	copy(out, src)
	parallelFor(ny-2, func(start, end int) {
		for j := start + 1; j < end+1; j++ {
			for i := 1; i < nx-1; i++ {
				c := j*nx + i
				if f.Obstacle[c] != 0 {
					out[c] = 0
					continue
				}
				x := clamp(float64(i)-dt*f.VelocityX[c], 0.5, float64(nx)-1.5)
				y := clamp(float64(j)-dt*f.VelocityY[c], 0.5, float64(ny)-1.5)
				i0, j0 := int(x), int(y)
				s1, t1 := x-float64(i0), y-float64(j0)
				s0, t0 := 1-s1, 1-t1
				c0 := j0*nx + i0
				out[c] = s0*(t0*src[c0]+t1*src[c0+nx]) + s1*(t0*src[c0+1]+t1*src[c0+nx+1])
			}
		}
	})
}

// diffuse relaxes field toward the solution of the implicit diffusion
// equation (1+4a)x - a*Σneighbors = field with red-black Gauss-Seidel
// sweeps.
func (n *NavierStokes2DSolver) diffuse(field []float64, a float64, nx, ny int) {
	copy(n.prev, field)
	for sweep := 0; sweep < diffusionSweeps; sweep++ {
		for color := 0; color < 2; color++ {
			parallelFor(ny-2, func(start, end int) {
				for j := start + 1; j < end+1; j++ {
					for i := 1 + (j+color)%2; i < nx-1; i += 2 {
						c := j*nx + i
						field[c] = (n.prev[c] + a*(field[c-1]+field[c+1]+field[c-nx]+field[c+nx])) / (1 + 4*a)
					}
				}
			})
		}
	}
}

// project removes most of the divergence of (n.u, n.v) by solving a
// Poisson equation for n.p with Jacobi iterations and subtracting its
// gradient. Pressure is 0 on the domain edges and divergence is 0 in solid
// cells.
func (n *NavierStokes2DSolver) project(obstacle []uint8, nx, ny int) {
	clear(n.p)
	clear(n.pNext)
	clear(n.div)
	parallelFor(ny-2, func(start, end int) {
		for j := start + 1; j < end+1; j++ {
			for i := 1; i < nx-1; i++ {
				c := j*nx + i
				if obstacle[c] == 0 {
					n.div[c] = -0.5 * (n.u[c+1] - n.u[c-1] + n.v[c+nx] - n.v[c-nx])
				}
			}
		}
	})
	for k := 0; k < projectionIterations; k++ {
		parallelFor(ny-2, func(start, end int) {
			for j := start + 1; j < end+1; j++ {
				for i := 1; i < nx-1; i++ {
					c := j*nx + i
					n.pNext[c] = (n.div[c] + n.p[c-1] + n.p[c+1] + n.p[c-nx] + n.p[c+nx]) / 4
				}
			}
		})
		n.p, n.pNext = n.pNext, n.p
	}
	parallelFor(ny-2, func(start, end int) {
		for j := start + 1; j < end+1; j++ {
			for i := 1; i < nx-1; i++ {
				c := j*nx + i
				n.u[c] -= 0.5 * (n.p[c+1] - n.p[c-1])
				n.v[c] -= 0.5 * (n.p[c+nx] - n.p[c-nx])
			}
		}
	})
}

// channelBoundaries imposes a uniform inflow u0 at x = 0, a zero-gradient
// outlet at x = nx-1, and free-slip walls at y = 0 and y = ny-1.
func channelBoundaries(f *FieldSet2D, nx, ny int, u0 float64) {
	for i := 0; i < nx; i++ {
		for _, w := range [][2]int{{0, 1}, {ny - 1, ny - 2}} {
			c, in := w[0]*nx+i, w[1]*nx+i
			f.VelocityX[c] = f.VelocityX[in]
			f.VelocityY[c] = 0
		}
	}
	for j := 0; j < ny; j++ {
		c := j * nx
		f.VelocityX[c], f.VelocityY[c] = u0, 0
		f.VelocityX[c+nx-1] = f.VelocityX[c+nx-2]
		f.VelocityY[c+nx-1] = f.VelocityY[c+nx-2]
	}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
