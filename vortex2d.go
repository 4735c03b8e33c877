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

// sheetWindow is the number of sheet rows on each side of the sheet center
// that induce velocity at a cell.
const sheetWindow = 12

// Vortex2DSolver models periodic shedding from a single vortex sheet at
// mid-height. The sheet strength relaxes toward an oscillation in time and
// streamwise position, and the transverse velocity it induces is found by
// Biot-Savart summation over nearby sheet rows.
//
// Vorticity is a fixed multiple of the induced transverse velocity, and the
// force coefficients are prescribed functions of the iteration count.
type Vortex2DSolver struct {
	s *State

	// gamma holds the sheet strength, one value per cell.
	gamma []float64
}

// Kind returns Vortex2D.
func (vs *Vortex2DSolver) Kind() SolverKind { return Vortex2D }

// Step sheds, induces and updates diagnostics.
func (vs *Vortex2DSolver) Step(elapsed time.Duration) {
	s := vs.s
	if !active(s, Vortex2D) {
		return
	}
	s.ensureObstacle(Dim2D)
	p := s.Params
	f := s.Fields2D
	nx, ny := p.Nx, p.Ny
	if len(vs.gamma) != nx*ny {
		vs.gamma = make([]float64, nx*ny)
	}
	it := float64(s.Iterations)

	te := ny / 2
	for i := 2; i < nx-2; i++ {
		c := te*nx + i
		vs.gamma[c] = 0.95*vs.gamma[c] + 0.05*math.Sin(it*0.05+float64(i)*0.01)
	}

	u := p.Mach * 0.7
	y0, y1 := max(te-sheetWindow, 0), min(te+sheetWindow, ny-1)
	parallelFor(ny, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < nx; i++ {
				c := j*nx + i
				switch {
				case f.Obstacle[c] != 0:
					f.VelocityX[c], f.VelocityY[c], f.Vorticity[c] = 0, 0, 0
				case i < 2 || j < 2 || i >= nx-2 || j >= ny-2:
					f.VelocityX[c], f.VelocityY[c], f.Vorticity[c] = u, 0, 0
				default:
					v := 0.0
					for y := y0; y <= y1; y++ {
						d := float64(j - y)
						if d == 0 {
							d = 0.5
						}
						v += vs.gamma[y*nx+i] / (d * 4 * math.Pi)
					}
					f.VelocityX[c], f.VelocityY[c] = u, v
					f.Vorticity[c] = 0.6 * v
				}
				vx, vy := f.VelocityX[c], f.VelocityY[c]
				f.Pressure[c] = 1 - 0.5*(vx*vx+vy*vy)
			}
		}
	})

	s.Drag = 0.01 + 0.02*math.Abs(math.Sin(it/80))
	s.Lift = 0.6 * math.Sin(it/100)
	s.Strouhal = 0.2
	s.SideForce = 0
	s.finishStep(elapsed)
}
