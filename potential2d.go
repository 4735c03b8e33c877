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
	"time"

	"gonum.org/v1/gonum/floats"
)

// potentialIterations is the number of Jacobi sweeps per step.
const potentialIterations = 40

// Potential2DSolver computes inviscid, irrotational flow around the
// obstacle. It relaxes the perturbation potential φ of a uniform stream
// with speed 0.4*Mach, so the velocity is ∇φ plus the freestream. φ is 0 on
// the domain edges and satisfies a no-penetration condition on solid
// faces.
type Potential2DSolver struct {
	s *State

	phi, next []float64
}

// Kind returns Potential2D.
func (ps *Potential2DSolver) Kind() SolverKind { return Potential2D }

// freestream returns the freestream speed of the potential flow.
func (ps *Potential2DSolver) freestream() float64 { return ps.s.Params.Mach * 0.4 }

func (ps *Potential2DSolver) ensureCapacity(size int) {
	if len(ps.phi) != size {
		ps.phi = make([]float64, size)
		ps.next = make([]float64, size)
	}
}

// Step performs a fixed number of relaxation sweeps and derives velocity,
// pressure and loads from the potential.
func (ps *Potential2DSolver) Step(elapsed time.Duration) {
	s := ps.s
	if !active(s, Potential2D) {
		return
	}
	s.ensureObstacle(Dim2D)
	p := s.Params
	ps.ensureCapacity(p.Nx * p.Ny)
	if s.Iterations == 0 {
		clear(ps.phi)
	}
	ps.relax(potentialIterations)
	ps.derive()
	ps.loads()
	s.finishStep(elapsed)
}

// neighbor returns the value of φ seen by fluid cell c across the face to
// cell nb, which is dx cells from c along x. Across a solid face the value
// is a ghost that makes the normal velocity vanish.
func (ps *Potential2DSolver) neighbor(phi []float64, obstacle []uint8, c, nb, dx int) float64 {
	if obstacle[nb] == 0 {
		return phi[nb]
	}
	return phi[c] - float64(dx)*ps.freestream()
}

// stencil returns the sum of the fluid neighbors of interior fluid cell c
// plus the ghost offsets of its solid neighbors, and the number of fluid
// neighbors.
func (ps *Potential2DSolver) stencil(phi []float64, obstacle []uint8, c, nx int) (sum float64, n int) {
	u := ps.freestream()
	for _, nb := range [4]struct{ off, dx int }{{1, 1}, {-1, -1}, {nx, 0}, {-nx, 0}} {
		if obstacle[c+nb.off] == 0 {
			sum += phi[c+nb.off]
			n++
		} else {
			sum -= float64(nb.dx) * u
		}
	}
	return sum, n
}

// relax performs n Jacobi sweeps of the discrete Laplace equation.
func (ps *Potential2DSolver) relax(n int) {
	p := ps.s.Params
	nx, ny := p.Nx, p.Ny
	obstacle := ps.s.Fields2D.Obstacle
	for it := 0; it < n; it++ {
		parallelFor(ny-2, func(start, end int) {
			for j := start + 1; j < end+1; j++ {
				for i := 1; i < nx-1; i++ {
					c := j*nx + i
					if obstacle[c] != 0 {
						ps.next[c] = 0
						continue
					}
					sum, k := ps.stencil(ps.phi, obstacle, c, nx)
					if k == 0 {
						ps.next[c] = 0
						continue
					}
					ps.next[c] = sum / float64(k)
				}
			}
		})
		ps.phi, ps.next = ps.next, ps.phi
	}
}

// residual returns the L2 norm of the residual of the discrete Laplace
// equation over the interior fluid cells.
func (ps *Potential2DSolver) residual() float64 {
	p := ps.s.Params
	nx, ny := p.Nx, p.Ny
	obstacle := ps.s.Fields2D.Obstacle
	r := make([]float64, 0, nx*ny)
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			c := j*nx + i
			if obstacle[c] != 0 {
				continue
			}
			sum, k := ps.stencil(ps.phi, obstacle, c, nx)
			r = append(r, sum-float64(k)*ps.phi[c])
		}
	}
	return floats.Norm(r, 2)
}

// derive sets velocity, pressure and vorticity from the potential.
// Pressure follows Bernoulli's relation p = 1 - 0.5|v|².
func (ps *Potential2DSolver) derive() {
	p := ps.s.Params
	f := ps.s.Fields2D
	nx, ny := p.Nx, p.Ny
	u := ps.freestream()
	parallelFor(ny, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < nx; i++ {
				c := j*nx + i
				f.Vorticity[c] = 0
				switch {
				case f.Obstacle[c] != 0:
					f.VelocityX[c], f.VelocityY[c] = 0, 0
				case i == 0 || j == 0 || i == nx-1 || j == ny-1:
					f.VelocityX[c], f.VelocityY[c] = u, 0
				default:
					f.VelocityX[c] = u + 0.5*(ps.neighbor(ps.phi, f.Obstacle, c, c+1, 1)-
						ps.neighbor(ps.phi, f.Obstacle, c, c-1, -1))
					f.VelocityY[c] = 0.5 * (ps.neighbor(ps.phi, f.Obstacle, c, c+nx, 0) -
						ps.neighbor(ps.phi, f.Obstacle, c, c-nx, 0))
				}
				vx, vy := f.VelocityX[c], f.VelocityY[c]
				f.Pressure[c] = 1 - 0.5*(vx*vx+vy*vy)
			}
		}
	})
}

// loads sums the pressure difference across each interior solid cell,
// normalized by the number of solid cells. Potential flow does not shed
// vortices, so the Strouhal number is 0.
func (ps *Potential2DSolver) loads() {
	s := ps.s
	nx, ny := s.Params.Nx, s.Params.Ny
	f := s.Fields2D
	var drag, lift float64
	area := 0
	for j := 1; j < ny-1; j++ {
		for i := 1; i < nx-1; i++ {
			c := j*nx + i
			if f.Obstacle[c] == 0 {
				continue
			}
			area++
			drag += f.Pressure[c-1] - f.Pressure[c+1]
			lift += f.Pressure[c-nx] - f.Pressure[c+nx]
		}
	}
	norm := float64(max(area, 1))
	s.Drag = drag / norm
	s.Lift = lift / norm
	s.Strouhal = 0
	s.SideForce = 0
}
