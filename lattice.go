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

import "fmt"

// Lattice is a discrete velocity set for the lattice Boltzmann solvers.
type Lattice struct {
	// Q is the number of populations per cell.
	Q int

	// C holds the x, y, and z components of each lattice velocity.
	C [][3]int

	// W holds the weight of each lattice velocity.
	W []float64

	// Opposite holds, for each direction k, the index of the direction
	// whose velocity is -C[k].
	Opposite []int
}

// D2Q9 is the nine-velocity two-dimensional lattice.
var D2Q9 = newLattice(
	[]int{0, 1, 0, -1, 0, 1, -1, -1, 1},
	[]int{0, 0, 1, 0, -1, 1, 1, -1, -1},
	[]int{0, 0, 0, 0, 0, 0, 0, 0, 0},
	[]float64{4. / 9, 1. / 9, 1. / 9, 1. / 9, 1. / 9, 1. / 36, 1. / 36, 1. / 36, 1. / 36},
)

// D3Q19 is the nineteen-velocity three-dimensional lattice.
var D3Q19 = newLattice(
	[]int{0, 1, -1, 0, 0, 0, 0, 1, -1, 1, -1, 1, -1, 0, 0, 0, 0, 1, -1},
	[]int{0, 0, 0, 1, -1, 0, 0, 1, -1, -1, 1, 0, 0, 1, -1, 1, -1, 0, 0},
	[]int{0, 0, 0, 0, 0, 1, -1, 0, 0, 0, 0, 1, -1, -1, 1, 1, -1, -1, 1},
	[]float64{1. / 3,
		1. / 18, 1. / 18, 1. / 18, 1. / 18, 1. / 18, 1. / 18,
		1. / 36, 1. / 36, 1. / 36, 1. / 36, 1. / 36, 1. / 36,
		1. / 36, 1. / 36, 1. / 36, 1. / 36, 1. / 36, 1. / 36},
)

// newLattice assembles a lattice and derives the opposite-direction table
// by matching each velocity with its negation. Velocities must be distinct.
func newLattice(cx, cy, cz []int, w []float64) *Lattice {
	l := &Lattice{
		Q:        len(w),
		C:        make([][3]int, len(w)),
		W:        w,
		Opposite: make([]int, len(w)),
	}
	for k := range w {
		l.C[k] = [3]int{cx[k], cy[k], cz[k]}
	}
	seen := make(map[[3]int]bool, len(w))
	for _, c := range l.C {
		if seen[c] {
			panic(fmt.Sprintf("aerotunnel: lattice velocity %v appears twice", c))
		}
		seen[c] = true
	}
	for k, c := range l.C {
		l.Opposite[k] = -1
		for kk, cc := range l.C {
			if cc[0] == -c[0] && cc[1] == -c[1] && cc[2] == -c[2] {
				l.Opposite[k] = kk
				break
			}
		}
		if l.Opposite[k] < 0 {
			panic("aerotunnel: lattice velocity set is not symmetric")
		}
	}
	return l
}

// Equilibrium returns the second-order equilibrium population in
// direction k for density rho and velocity (ux, uy, uz).
func (l *Lattice) Equilibrium(k int, rho, ux, uy, uz float64) float64 {
	c := l.C[k]
	cu := 3 * (float64(c[0])*ux + float64(c[1])*uy + float64(c[2])*uz)
	u2 := ux*ux + uy*uy + uz*uz
	return l.W[k] * rho * (1 + cu + 0.5*cu*cu - 1.5*u2)
}

// setEquilibrium writes all Q equilibrium populations for one cell into f.
func (l *Lattice) setEquilibrium(f []float64, rho, ux, uy, uz float64) {
	for k := 0; k < l.Q; k++ {
		f[k] = l.Equilibrium(k, rho, ux, uy, uz)
	}
}

// moments returns the density and velocity carried by the populations f
// of one cell.
func (l *Lattice) moments(f []float64) (rho, ux, uy, uz float64) {
	for k, fk := range f[:l.Q] {
		c := l.C[k]
		rho += fk
		ux += fk * float64(c[0])
		uy += fk * float64(c[1])
		uz += fk * float64(c[2])
	}
	if rho > 0 {
		ux /= rho
		uy /= rho
		uz /= rho
	}
	return
}
