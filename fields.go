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

import "math"

// FieldSet2D holds the fields of a 2D simulation. Each scalar field has
// one element per cell, indexed as y*nx + x.
type FieldSet2D struct {
	VelocityX []float64
	VelocityY []float64
	Pressure  []float64
	Vorticity []float64
	Density   []float64

	// Obstacle is 1 for solid cells and 0 for fluid cells.
	Obstacle []uint8

	// Distribution holds the D2Q9 populations, 9 per cell, at
	// index cell*9 + k.
	Distribution []float64
}

// FieldSet3D holds the fields of a 3D simulation. Each scalar field has
// one element per cell, indexed as z*nx*ny + y*nx + x.
type FieldSet3D struct {
	VelocityX []float64
	VelocityY []float64
	VelocityZ []float64
	Pressure  []float64
	Vorticity []float64
	Density   []float64

	// Obstacle is 1 for solid cells and 0 for fluid cells.
	Obstacle []uint8

	// Distribution holds the D3Q19 populations, 19 per cell, at
	// index cell*19 + k.
	Distribution []float64
}

// latticeInflow returns the lattice inflow speed for Mach number mach.
func latticeInflow(mach float64) float64 { return mach / math.Sqrt(3) }

// newFieldSet2D allocates a 2D field set initialized to uniform
// freestream flow with equilibrium populations.
func newFieldSet2D(p Params) *FieldSet2D {
	n := p.Nx * p.Ny
	f := &FieldSet2D{
		VelocityX:    make([]float64, n),
		VelocityY:    make([]float64, n),
		Pressure:     make([]float64, n),
		Vorticity:    make([]float64, n),
		Density:      make([]float64, n),
		Obstacle:     make([]uint8, n),
		Distribution: make([]float64, n*D2Q9.Q),
	}
	u0 := latticeInflow(p.Mach)
	for i := 0; i < n; i++ {
		f.VelocityX[i] = u0
		f.Pressure[i] = 1
		f.Density[i] = 1
		D2Q9.setEquilibrium(f.Distribution[i*D2Q9.Q:], 1, u0, 0, 0)
	}
	return f
}

// newFieldSet3D allocates a 3D field set initialized to uniform
// freestream flow with equilibrium populations.
func newFieldSet3D(p Params) *FieldSet3D {
	n := p.Nx * p.Ny * p.Nz
	f := &FieldSet3D{
		VelocityX:    make([]float64, n),
		VelocityY:    make([]float64, n),
		VelocityZ:    make([]float64, n),
		Pressure:     make([]float64, n),
		Vorticity:    make([]float64, n),
		Density:      make([]float64, n),
		Obstacle:     make([]uint8, n),
		Distribution: make([]float64, n*D3Q19.Q),
	}
	u0 := latticeInflow(p.Mach)
	for i := 0; i < n; i++ {
		f.VelocityX[i] = u0
		f.Pressure[i] = 1
		f.Density[i] = 1
		D3Q19.setEquilibrium(f.Distribution[i*D3Q19.Q:], 1, u0, 0, 0)
	}
	return f
}

// Scalars returns the named scalar fields of the 2D set.
func (f *FieldSet2D) Scalars() map[string][]float64 {
	return map[string][]float64{
		"velocityX": f.VelocityX,
		"velocityY": f.VelocityY,
		"pressure":  f.Pressure,
		"vorticity": f.Vorticity,
		"density":   f.Density,
	}
}

// Scalars returns the named scalar fields of the 3D set.
func (f *FieldSet3D) Scalars() map[string][]float64 {
	return map[string][]float64{
		"velocityX": f.VelocityX,
		"velocityY": f.VelocityY,
		"velocityZ": f.VelocityZ,
		"pressure":  f.Pressure,
		"vorticity": f.Vorticity,
		"density":   f.Density,
	}
}

// ActiveScalars returns the scalar fields of the active dimension.
func (s *State) ActiveScalars() map[string][]float64 {
	if s.Params.Dimension == Dim3D {
		return s.Fields3D.Scalars()
	}
	return s.Fields2D.Scalars()
}

// Shape returns the active grid extents, slowest-varying first, in the
// order the fields are laid out: [ny nx] in 2D and [nz ny nx] in 3D.
func (s *State) Shape() []int {
	p := s.Params
	if p.Dimension == Dim3D {
		return []int{p.Nz, p.Ny, p.Nx}
	}
	return []int{p.Ny, p.Nx}
}
