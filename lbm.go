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

// RelaxationRate returns the BGK relaxation rate ω = 1/(3ν + 0.5) for
// kinematic viscosity nu.
func RelaxationRate(nu float64) float64 { return 1 / (3*nu + 0.5) }

// latticeGrid is a view of the fields of one dimension shaped for the
// lattice Boltzmann kernels. In 2D nz is 1 and uz is nil.
type latticeGrid struct {
	nx, ny, nz int

	density, pressure []float64
	ux, uy, uz        []float64
	obstacle          []uint8
	dist              []float64
}

func (g latticeGrid) cells() int { return g.nx * g.ny * g.nz }

func (g latticeGrid) index(x, y, z int) int { return (z*g.ny+y)*g.nx + x }

func grid2D(p Params, f *FieldSet2D) latticeGrid {
	return latticeGrid{
		nx: p.Nx, ny: p.Ny, nz: 1,
		density: f.Density, pressure: f.Pressure,
		ux: f.VelocityX, uy: f.VelocityY,
		obstacle: f.Obstacle, dist: f.Distribution,
	}
}

func grid3D(p Params, f *FieldSet3D) latticeGrid {
	return latticeGrid{
		nx: p.Nx, ny: p.Ny, nz: p.Nz,
		density: f.Density, pressure: f.Pressure,
		ux: f.VelocityX, uy: f.VelocityY, uz: f.VelocityZ,
		obstacle: f.Obstacle, dist: f.Distribution,
	}
}

// lbm holds the parts of a lattice Boltzmann solver that do not depend on
// the dimension.
type lbm struct {
	s   *State
	lat *Lattice

	// scratch receives streamed populations and is swapped with the
	// distribution of the field set after each step.
	scratch []float64

	shedding sheddingMonitor
}

// setMacros writes the macroscopic fields of cell c.
func (g latticeGrid) setMacros(c int, rho, ux, uy, uz float64) {
	g.density[c] = rho
	g.pressure[c] = rho
	g.ux[c] = ux
	g.uy[c] = uy
	if g.uz != nil {
		g.uz[c] = uz
	}
}

// collide relaxes the populations of every fluid cell toward equilibrium
// and records the macroscopic fields. Solid cells are left untouched except
// that their velocity is set to 0.
func (l *lbm) collide(g latticeGrid, omega float64) {
	q := l.lat.Q
	parallelFor(g.cells(), func(start, end int) {
		for c := start; c < end; c++ {
			if g.obstacle[c] != 0 {
				g.ux[c], g.uy[c] = 0, 0
				if g.uz != nil {
					g.uz[c] = 0
				}
				continue
			}
			f := g.dist[c*q : (c+1)*q]
			rho, ux, uy, uz := l.lat.moments(f)
			g.setMacros(c, rho, ux, uy, uz)
			for k := range f {
				f[k] += omega * (l.lat.Equilibrium(k, rho, ux, uy, uz) - f[k])
			}
		}
	})
}

// stream moves every population of every fluid cell one link along its
// lattice direction. A population whose target is solid or outside the
// domain is bounced back into the opposite slot of its source cell, so each
// slot of the result is written exactly once and mass is conserved. Solid
// cells keep their populations. The result replaces g.dist, which becomes
// the new scratch buffer.
func (l *lbm) stream(g *latticeGrid) {
	q := l.lat.Q
	if len(l.scratch) != len(g.dist) || (len(g.dist) > 0 && &l.scratch[0] == &g.dist[0]) {
		l.scratch = make([]float64, len(g.dist))
	}
	src, dst := g.dist, l.scratch
	parallelFor(g.nz*g.ny, func(start, end int) {
		for row := start; row < end; row++ {
			y, z := row%g.ny, row/g.ny
			for x := 0; x < g.nx; x++ {
				c := g.index(x, y, z)
				if g.obstacle[c] != 0 {
					copy(dst[c*q:(c+1)*q], src[c*q:(c+1)*q])
					continue
				}
				for k, ck := range l.lat.C {
					tx, ty, tz := x+ck[0], y+ck[1], z+ck[2]
					if tx < 0 || ty < 0 || tz < 0 || tx >= g.nx || ty >= g.ny || tz >= g.nz {
						dst[c*q+l.lat.Opposite[k]] = src[c*q+k]
						continue
					}
					t := g.index(tx, ty, tz)
					if g.obstacle[t] != 0 {
						dst[c*q+l.lat.Opposite[k]] = src[c*q+k]
						continue
					}
					dst[t*q+k] = src[c*q+k]
				}
			}
		}
	})
	l.scratch = src
	g.dist = dst
}

// setEquilibriumCell resets the populations of cell c to equilibrium and
// records the matching macroscopic fields.
func (l *lbm) setEquilibriumCell(g latticeGrid, c int, rho, ux, uy, uz float64) {
	q := l.lat.Q
	l.lat.setEquilibrium(g.dist[c*q:(c+1)*q], rho, ux, uy, uz)
	g.setMacros(c, rho, ux, uy, uz)
}

// inletOutlet imposes the freestream at x = 0 and a zero-gradient outlet
// at x = nx-1.
func (l *lbm) inletOutlet(g latticeGrid, rho0, u0 float64) {
	q := l.lat.Q
	for z := 0; z < g.nz; z++ {
		for y := 0; y < g.ny; y++ {
			l.setEquilibriumCell(g, g.index(0, y, z), rho0, u0, 0, 0)

			out, in := g.index(g.nx-1, y, z), g.index(g.nx-2, y, z)
			copy(g.dist[out*q:(out+1)*q], g.dist[in*q:(in+1)*q])
			g.density[out] = g.density[in]
			g.pressure[out] = g.pressure[in]
			g.ux[out] = g.ux[in]
			g.uy[out] = g.uy[in]
			if g.uz != nil {
				g.uz[out] = g.uz[in]
			}
		}
	}
}

// slipWalls turns the rows y = 0 and y = ny-1 into free-slip walls by
// resetting them to equilibrium with the density and streamwise velocity
// of the adjacent interior row and no normal velocity.
func (l *lbm) slipWalls(g latticeGrid) {
	for _, w := range [][2]int{{0, 1}, {g.ny - 1, g.ny - 2}} {
		for x := 0; x < g.nx; x++ {
			c, in := g.index(x, w[0], 0), g.index(x, w[1], 0)
			if g.obstacle[c] != 0 {
				continue
			}
			l.setEquilibriumCell(g, c, g.density[in], g.ux[in], 0, 0)
		}
	}
}

// updateStrouhal records the latest lift coefficient and updates the
// Strouhal estimate, using length as the characteristic length.
func (l *lbm) updateStrouhal(length, u0 float64) {
	if l.s.Iterations == 0 {
		l.shedding.reset()
	}
	l.shedding.add(l.s.Lift)
	l.s.Strouhal = l.shedding.strouhal(length, u0)
}
