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
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// liftToDrag returns lift/drag, or 0 when drag is 0.
func liftToDrag(lift, drag float64) float64 {
	if drag == 0 {
		return 0
	}
	return lift / drag
}

// vorticity2D sets f.Vorticity to the central-difference curl
// ∂v/∂x - ∂u/∂y. Edge and solid cells are set to 0.
func vorticity2D(f *FieldSet2D, nx, ny int) {
	parallelFor(ny, func(start, end int) {
		for j := start; j < end; j++ {
			for i := 0; i < nx; i++ {
				c := j*nx + i
				if i == 0 || j == 0 || i == nx-1 || j == ny-1 || f.Obstacle[c] != 0 {
					f.Vorticity[c] = 0
					continue
				}
				dvdx := 0.5 * (f.VelocityY[c+1] - f.VelocityY[c-1])
				dudy := 0.5 * (f.VelocityX[c+nx] - f.VelocityX[c-nx])
				f.Vorticity[c] = dvdx - dudy
			}
		}
	})
}

// vorticity3D sets f.Vorticity to the magnitude of the central-difference
// curl of velocity. Boundary and solid cells are set to 0.
func vorticity3D(f *FieldSet3D, nx, ny, nz int) {
	sx, sy, sz := 1, nx, nx*ny
	parallelFor(nz, func(start, end int) {
		for z := start; z < end; z++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					c := z*sz + y*sy + x
					if x == 0 || y == 0 || z == 0 || x == nx-1 || y == ny-1 || z == nz-1 ||
						f.Obstacle[c] != 0 {
						f.Vorticity[c] = 0
						continue
					}
					d := func(v []float64, s int) float64 { return 0.5 * (v[c+s] - v[c-s]) }
					wx := d(f.VelocityZ, sy) - d(f.VelocityY, sz)
					wy := d(f.VelocityX, sz) - d(f.VelocityZ, sx)
					wz := d(f.VelocityY, sx) - d(f.VelocityX, sy)
					f.Vorticity[c] = math.Sqrt(wx*wx + wy*wy + wz*wz)
				}
			}
		}
	})
}

// surfaceLoads2D integrates the force exerted by the fluid on the obstacle
// over every face shared by a fluid cell and a solid cell. The normal
// component is the fluid pressure times pScale; the tangential component
// approximates wall shear as nu times the fluid velocity one cell from the
// wall.
func surfaceLoads2D(f *FieldSet2D, nx, ny int, pScale, nu float64) (fx, fy float64) {
	solid := func(i, j int) bool {
		return i >= 0 && j >= 0 && i < nx && j < ny && f.Obstacle[j*nx+i] != 0
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			c := j*nx + i
			if f.Obstacle[c] != 0 {
				continue
			}
			p := f.Pressure[c] * pScale
			shear := nu * f.Density[c]
			if solid(i+1, j) {
				fx += p
				fy += shear * f.VelocityY[c]
			}
			if solid(i-1, j) {
				fx -= p
				fy += shear * f.VelocityY[c]
			}
			if solid(i, j+1) {
				fy += p
				fx += shear * f.VelocityX[c]
			}
			if solid(i, j-1) {
				fy -= p
				fx += shear * f.VelocityX[c]
			}
		}
	}
	return fx, fy
}

// surfaceLoads3D is the three-dimensional version of surfaceLoads2D.
func surfaceLoads3D(f *FieldSet3D, nx, ny, nz int, pScale, nu float64) (fx, fy, fz float64) {
	solid := func(x, y, z int) bool {
		return x >= 0 && y >= 0 && z >= 0 && x < nx && y < ny && z < nz &&
			f.Obstacle[(z*ny+y)*nx+x] != 0
	}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				c := (z*ny+y)*nx + x
				if f.Obstacle[c] != 0 {
					continue
				}
				p := f.Pressure[c] * pScale
				shear := nu * f.Density[c]
				u, v, w := f.VelocityX[c], f.VelocityY[c], f.VelocityZ[c]
				for s := -1; s <= 1; s += 2 {
					sign := float64(s)
					if solid(x+s, y, z) {
						fx += sign * p
						fy += shear * v
						fz += shear * w
					}
					if solid(x, y+s, z) {
						fy += sign * p
						fx += shear * u
						fz += shear * w
					}
					if solid(x, y, z+s) {
						fz += sign * p
						fx += shear * u
						fy += shear * v
					}
				}
			}
		}
	}
	return fx, fy, fz
}

// frontalArea2D returns the number of grid rows the obstacle occupies,
// which is its projected height normal to the flow.
func frontalArea2D(obstacle []uint8, nx, ny int) int {
	n := 0
	for j := 0; j < ny; j++ {
		for _, v := range obstacle[j*nx : (j+1)*nx] {
			if v != 0 {
				n++
				break
			}
		}
	}
	return n
}

// frontalArea3D returns the number of (y, z) columns the obstacle
// occupies, which is its projected area normal to the flow.
func frontalArea3D(obstacle []uint8, nx, ny, nz int) int {
	n := 0
	for row := 0; row < ny*nz; row++ {
		for _, v := range obstacle[row*nx : (row+1)*nx] {
			if v != 0 {
				n++
				break
			}
		}
	}
	return n
}

// coefficient normalizes force by the dynamic pressure 0.5*rho*u^2 acting
// on area, returning 0 when the dynamic pressure is 0. area is clamped to
// a minimum of 1.
func coefficient(force, rho, u float64, area int) float64 {
	q := 0.5 * rho * u * u * float64(max(area, 1))
	if q == 0 || math.IsNaN(q) {
		return 0
	}
	return force / q
}

// Bounds on the lift history used to estimate the shedding frequency.
const (
	sheddingWindow     = 256
	sheddingMinSamples = 64
)

// sheddingMonitor keeps a rolling window of lift coefficients and
// estimates the Strouhal number from their dominant frequency.
type sheddingMonitor struct {
	lift []float64
	next int
}

// add records the lift coefficient of one step.
func (m *sheddingMonitor) add(cl float64) {
	if len(m.lift) < sheddingWindow {
		m.lift = append(m.lift, cl)
		return
	}
	m.lift[m.next] = cl
	m.next = (m.next + 1) % sheddingWindow
}

func (m *sheddingMonitor) reset() {
	m.lift = m.lift[:0]
	m.next = 0
}

// strouhal returns f*length/u, where f is the dominant lift frequency in
// cycles per step, clamped to [0, 1]. Until enough history is available
// the estimate is a fixed fraction of the latest lift magnitude.
func (m *sheddingMonitor) strouhal(length, u float64) float64 {
	n := len(m.lift)
	if n == 0 {
		return 0
	}
	if n < sheddingMinSamples {
		return math.Min(math.Abs(m.lift[n-1]*0.1), 1)
	}
	if u == 0 {
		return 0
	}
	x := make([]float64, n)
	copy(x, m.lift)
	floats.AddConst(-floats.Sum(x)/float64(n), x)
	if floats.Norm(x, 2) < 1e-12 {
		return 0
	}
	// The window is circular, so the rotation of the ring buffer changes
	// only the phase of each bin.
	spectrum := fft.FFTReal(x)
	peak, peakMag := 0, 0.0
	for k := 1; k <= n/2; k++ {
		if mag := cmplx.Abs(spectrum[k]); mag > peakMag {
			peak, peakMag = k, mag
		}
	}
	st := float64(peak) / float64(n) * length / u
	return math.Max(0, math.Min(st, 1))
}
