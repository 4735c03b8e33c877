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

	"github.com/ctessum/geom"
	"github.com/spatialmodel/aerotunnel/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement of the obstacle within the domain, as fractions of the grid
// extents.
const (
	obstacleCenterX = 0.3
	meshCenterX     = 0.32
	gridMargin      = 2 // solid cells are kept this far from the domain edges
)

// BuildObstacle rebuilds the obstacle mask of the active dimension.
func BuildObstacle(s *State) {
	if s.Params.Dimension == Dim3D {
		Build3DObstacle(s)
		return
	}
	Build2DObstacle(s)
}

// Build2DObstacle clears the 2D obstacle mask and rasterizes the current
// geometry into it. Identical geometry and extents always produce an
// identical mask.
func Build2DObstacle(s *State) {
	nx, ny := s.Params.Nx, s.Params.Ny
	m := s.Fields2D.Obstacle
	clear(m)
	g := s.Geometry
	switch g.Kind {
	case Airfoil:
		rasterize2D(m, nx, ny, airfoilOutline(float64(int(float64(nx)*0.4)), g.Angle,
			math.Floor(float64(nx)*obstacleCenterX), math.Floor(float64(ny)*0.5)))
	case Cylinder:
		disk(m, nx, ny, float64(min(nx, ny))*0.08, 1)
	case Wing:
		rasterize2D(m, nx, ny, wingSectionOutline(nx, ny, g.Angle))
	case Custom:
		switch {
		case len(g.CustomMesh) >= 3:
			customMesh2D(m, nx, ny, g)
		case g.CustomBounds != nil:
			customBounds2D(m, nx, ny, *g.CustomBounds)
		default:
			genericBlob2D(m, nx, ny)
		}
	default:
		genericBlob2D(m, nx, ny)
	}
	s.stale[Dim2D] = false
}

// Build3DObstacle clears the 3D obstacle mask and voxelizes the current
// geometry into it. Identical geometry and extents always produce an
// identical mask.
func Build3DObstacle(s *State) {
	nx, ny, nz := s.Params.Nx, s.Params.Ny, s.Params.Nz
	m := s.Fields3D.Obstacle
	clear(m)
	g := s.Geometry
	switch g.Kind {
	case Wing:
		wing3D(m, nx, ny, nz, g.Angle)
	case Airfoil:
		airfoilVolume(m, nx, ny, nz, g.Angle)
	case Cylinder:
		cylinder3D(m, nx, ny, nz)
	case Cow:
		cow(m, nx, ny, nz, g.Angle)
	case Custom:
		switch {
		case len(g.CustomMesh) >= 3:
			customMesh3D(m, nx, ny, nz, g)
		case g.CustomBounds != nil:
			customBounds3D(m, nx, ny, nz, *g.CustomBounds)
		default:
			customBlob3D(m, nx, ny, nz)
		}
	default:
		sphere(m, nx, ny, nz)
	}
	s.stale[Dim3D] = false
}

// nacaThickness returns the half thickness, as a fraction of chord, of a
// symmetric NACA four-digit section with maximum thickness t at chord
// fraction x.
func nacaThickness(x, t float64) float64 {
	sx := math.Sqrt(math.Max(x, 0))
	return 5 * t * (0.2969*sx - 0.126*x - 0.3516*x*x + 0.2843*x*x*x - 0.1015*x*x*x*x)
}

// rotate rotates (x, y) by angle degrees and translates it by (cx, cy).
func rotate(x, y, angle, cx, cy float64) geom.Point {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	return geom.Point{X: cx + cos*x - sin*y, Y: cy + sin*x + cos*y}
}

// airfoilOutline returns a NACA 0012 outline with the given chord, centered
// on (cx, cy) and rotated by angle degrees.
func airfoilOutline(chord, angle, cx, cy float64) geom.Polygon {
	const stations = 64
	ring := make([]geom.Point, 0, 2*stations)
	for i := 0; i <= stations; i++ {
		// Cosine spacing clusters stations near the leading edge.
		x := 0.5 * (1 - math.Cos(math.Pi*float64(i)/stations))
		ring = append(ring, rotate(x*chord-chord/2, nacaThickness(x, 0.12)*chord, angle, cx, cy))
	}
	for i := stations - 1; i > 0; i-- {
		x := 0.5 * (1 - math.Cos(math.Pi*float64(i)/stations))
		ring = append(ring, rotate(x*chord-chord/2, -nacaThickness(x, 0.12)*chord, angle, cx, cy))
	}
	return geom.Polygon{ring}
}

// wingSectionOutline returns the diamond-shaped planform section of a
// tapered wing.
func wingSectionOutline(nx, ny int, angle float64) geom.Polygon {
	cx := math.Floor(float64(nx) * 0.28)
	cy := math.Floor(float64(ny) * 0.5)
	span := math.Floor(float64(ny) * 0.35)
	half := math.Floor(float64(nx)*0.35) / 2
	return geom.Polygon{{
		rotate(-half, 0, angle, cx, cy),
		rotate(0, -span, angle, cx, cy),
		rotate(half, 0, angle, cx, cy),
		rotate(0, span, angle, cx, cy),
	}}
}

// rasterize2D marks every cell whose center lies inside or on the edge of
// poly, keeping gridMargin cells clear at the domain edges.
func rasterize2D(m []uint8, nx, ny int, poly geom.Polygon) {
	b := poly.Bounds()
	i0 := max(gridMargin, int(math.Floor(b.Min.X)))
	i1 := min(nx-gridMargin-1, int(math.Ceil(b.Max.X)))
	j0 := max(gridMargin, int(math.Floor(b.Min.Y)))
	j1 := min(ny-gridMargin-1, int(math.Ceil(b.Max.Y)))
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			if (geom.Point{X: float64(i), Y: float64(j)}).Within(poly) != geom.Outside {
				m[j*nx+i] = 1
			}
		}
	}
}

// disk marks a disk centered near the upstream third of the domain. The
// squared radius is scaled by frac.
func disk(m []uint8, nx, ny int, radius, frac float64) {
	cx := int(float64(nx) * obstacleCenterX)
	cy := int(float64(ny) * 0.5)
	r2 := radius * radius * frac
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			dx, dy := float64(i-cx), float64(j-cy)
			if dx*dx+dy*dy <= r2 {
				m[j*nx+i] = 1
			}
		}
	}
}

// genericBlob2D is the fallback 2D shape: a disk with a reduced radius.
func genericBlob2D(m []uint8, nx, ny int) {
	disk(m, nx, ny, float64(min(nx, ny))*0.12, 0.8)
}

// extent returns the size of b along each axis, replacing zero sizes with
// fallback.
func extent(b r3.Box, fallback float64) r3.Vec {
	d := r3.Sub(b.Max, b.Min)
	if d.X == 0 {
		d.X = fallback
	}
	if d.Y == 0 {
		d.Y = fallback
	}
	if d.Z == 0 {
		d.Z = fallback
	}
	return d
}

// customBounds2D marks a box with the aspect ratio of b.
func customBounds2D(m []uint8, nx, ny int, b r3.Box) {
	d := extent(b, 1)
	scale := math.Min(float64(nx)*0.35/d.X, float64(ny)*0.4/d.Y)
	halfW := max(4, int(d.X*scale/2))
	halfH := max(4, int(d.Y*scale/2))
	cx := int(float64(nx) * obstacleCenterX)
	cy := int(float64(ny) * 0.5)
	for y := -halfH; y <= halfH; y++ {
		for x := -halfW; x <= halfW; x++ {
			gx, gy := cx+x, cy+y
			if gx > gridMargin && gx < nx-gridMargin && gy > gridMargin && gy < ny-gridMargin {
				m[gy*nx+gx] = 1
			}
		}
	}
}

// placement is a similarity transform from mesh space to grid space.
type placement struct {
	scale  float64
	center r3.Vec // grid-space anchor
	origin r3.Vec // mesh-space center of the bounds
}

// newPlacement fits the mesh bounds b into the grid. When nz is 0 the
// placement is planar and the z extent does not constrain the scale.
func newPlacement(b r3.Box, nx, ny, nz int) placement {
	w := math.Max(b.Max.X-b.Min.X, 1e-3)
	h := math.Max(b.Max.Y-b.Min.Y, 1e-3)
	d := math.Max(b.Max.Z-b.Min.Z, 1e-3)
	scale := math.Min(float64(nx)*0.35/w, float64(ny)*0.55/h)
	if nz > 0 {
		scale = math.Min(scale, float64(nz)*0.55/d)
	}
	return placement{
		scale: scale,
		center: r3.Vec{
			X: math.Floor(float64(nx) * meshCenterX),
			Y: math.Floor(float64(ny) * 0.5),
			Z: math.Floor(float64(nz) * 0.5),
		},
		origin: r3.Scale(0.5, r3.Add(b.Min, b.Max)),
	}
}

// toGrid maps a mesh-space point to grid cell coordinates.
func (p placement) toGrid(v r3.Vec) (x, y, z int) {
	g := r3.Add(p.center, r3.Scale(p.scale, r3.Sub(v, p.origin)))
	return int(math.Floor(g.X)), int(math.Floor(g.Y)), int(math.Floor(g.Z))
}

// meshPoints calls fn with every vertex and every triangle centroid of the
// flat vertex list v.
func meshPoints(v []float64, fn func(r3.Vec)) {
	for i := 0; i+2 < len(v); i += 3 {
		fn(r3.Vec{X: v[i], Y: v[i+1], Z: v[i+2]})
	}
	for i := 0; i+8 < len(v); i += 9 {
		fn(r3.Vec{
			X: (v[i] + v[i+3] + v[i+6]) / 3,
			Y: (v[i+1] + v[i+4] + v[i+7]) / 3,
			Z: (v[i+2] + v[i+5] + v[i+8]) / 3,
		})
	}
}

// meshBounds returns the custom bounds of g, or the bounds of its mesh if
// none were given.
func meshBounds(g Geometry) r3.Box {
	if g.CustomBounds != nil {
		return *g.CustomBounds
	}
	return mesh.BoundsOf(g.CustomMesh)
}

func customMesh2D(m []uint8, nx, ny int, g Geometry) {
	p := newPlacement(meshBounds(g), nx, ny, 0)
	meshPoints(g.CustomMesh, func(v r3.Vec) {
		gx, gy, _ := p.toGrid(v)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				x, y := gx+dx, gy+dy
				if x > 1 && x < nx-1 && y > 1 && y < ny-1 {
					m[y*nx+x] = 1
				}
			}
		}
	})
	for y := 0; y < ny; y++ {
		fillRow(m[y*nx : (y+1)*nx])
	}
}

// fillRow solidifies the interior of a stamped shell along one grid row.
// The inside state flips at each contiguous run of solid cells, and a gap
// is filled only when a later run closes it, so a row that leaves the
// shell without crossing it again is not flooded to the domain edge.
func fillRow(row []uint8) {
	inside := false
	gap := 0
	for x := 0; x < len(row); {
		if row[x] == 0 {
			x++
			continue
		}
		if inside {
			for i := gap; i < x; i++ {
				row[i] = 1
			}
		}
		for x < len(row) && row[x] != 0 {
			x++
		}
		inside = !inside
		gap = x
	}
}

func sphere(m []uint8, nx, ny, nz int) {
	r := float64(min(nx, ny, nz)) * 0.12
	cx := int(float64(nx) * 0.28)
	cy := int(float64(ny) * 0.5)
	cz := int(float64(nz) * 0.5)
	r2 := r * r
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				dx, dy, dz := float64(x-cx), float64(y-cy), float64(z-cz)
				if dx*dx+dy*dy+dz*dz <= r2 {
					m[(z*ny+y)*nx+x] = 1
				}
			}
		}
	}
}

// inside3D reports whether cell (x, y, z) is at least gridMargin cells
// from every domain face.
func inside3D(x, y, z, nx, ny, nz int) bool {
	return x >= gridMargin && x < nx-gridMargin &&
		y >= gridMargin && y < ny-gridMargin &&
		z >= gridMargin && z < nz-gridMargin
}

// wing3D voxelizes a wing with a linearly tapering chord along the span
// and a constant thickness band, pitched by angle degrees.
func wing3D(m []uint8, nx, ny, nz int, angle float64) {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	cx := math.Floor(float64(nx) * 0.28)
	cy := math.Floor(float64(ny) * 0.5)
	span := float64(ny) * 0.4
	chord := float64(nx) * 0.4
	thickness := float64(max(2, nz/10))
	for y := -span / 2; y < span/2; y++ {
		local := chord * (1 - math.Abs(y)/(span/2))
		for x := -local / 2; x < local/2; x++ {
			for z := -thickness; z <= thickness; z++ {
				gx := int(math.Floor(cx + cos*x - sin*z))
				gy := int(math.Floor(cy + y))
				gz := int(math.Floor(float64(nz)/2 + sin*x + cos*z))
				if inside3D(gx, gy, gz, nx, ny, nz) {
					m[(gz*ny+gy)*nx+gx] = 1
				}
			}
		}
	}
}

// airfoilVolume extrudes a NACA 0012 section along z.
func airfoilVolume(m []uint8, nx, ny, nz int, angle float64) {
	slice := make([]uint8, nx*ny)
	rasterize2D(slice, nx, ny, airfoilOutline(float64(nx)*0.35, angle,
		math.Floor(float64(nx)*obstacleCenterX), math.Floor(float64(ny)*0.5)))
	depth := max(4, nz/5)
	for dz := -depth; dz <= depth; dz++ {
		z := nz/2 + dz
		if z < gridMargin || z >= nz-gridMargin {
			continue
		}
		for i, v := range slice {
			if v != 0 {
				m[z*nx*ny+i] = 1
			}
		}
	}
}

// cylinder3D voxelizes a short cylinder with its axis along the flow.
func cylinder3D(m []uint8, nx, ny, nz int) {
	r := float64(min(ny, nz)) * 0.15
	cx := math.Floor(float64(nx) * 0.35)
	cy := int(float64(ny) * 0.5)
	cz := int(float64(nz) * 0.5)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			dy, dz := float64(y-cy), float64(z-cz)
			if dy*dy+dz*dz > r*r {
				continue
			}
			for x := cx - r; x < cx+r; x++ {
				gx := int(math.Floor(x))
				if gx >= gridMargin && gx < nx-gridMargin {
					m[(z*ny+y)*nx+gx] = 1
				}
			}
		}
	}
}

// cowPart is one primitive of the composite cow, in body units.
type cowPart struct {
	kind       byte    // 'e'llipsoid, 's'phere, 'c'ylinder or 'b'lob
	x, y, z    float64 // center
	rx, ry, rz float64 // ellipsoid radii; rx is the radius of the others
	h          float64 // cylinder height or blob radius
}

var cowParts = []cowPart{
	// body and head
	{kind: 'e', rx: 18, ry: 10, rz: 10},
	{kind: 's', x: 22, y: 6, rx: 7},
	// legs
	{kind: 'c', x: 10, y: -12, z: 5, rx: 3, h: 12},
	{kind: 'c', x: 10, y: -12, z: -5, rx: 3, h: 12},
	{kind: 'c', x: -10, y: -12, z: 5, rx: 3, h: 12},
	{kind: 'c', x: -10, y: -12, z: -5, rx: 3, h: 12},
	// udder and horns
	{kind: 's', x: -2, y: -10, rx: 4},
	{kind: 'b', x: 24, y: 12, z: 3, h: 6},
	{kind: 'b', x: 24, y: 12, z: -3, h: 6},
}

func (c cowPart) contains(x, y, z float64) bool {
	lx, ly, lz := x-c.x, y-c.y, z-c.z
	switch c.kind {
	case 'e':
		return lx*lx/(c.rx*c.rx)+ly*ly/(c.ry*c.ry)+lz*lz/(c.rz*c.rz) < 1
	case 's':
		return lx*lx+ly*ly+lz*lz < c.rx*c.rx
	case 'c':
		return ly > -c.h/2 && ly < c.h/2 && lx*lx+lz*lz < c.rx*c.rx
	default:
		return lx*lx+ly*ly+lz*lz < c.h*c.h
	}
}

// cow voxelizes a composite cow made of an ellipsoid body, a spherical
// head, and cylindrical legs, pitched by angle degrees.
func cow(m []uint8, nx, ny, nz int, angle float64) {
	sin, cos := math.Sincos(-angle * math.Pi / 180)
	cx, cy, cz := float64(nx)*0.35, float64(ny)*0.5, float64(nz)*0.5
	scale := float64(min(nx, ny, nz)) * 0.008
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				dx, dy, dz := float64(x)-cx, float64(y)-cy, float64(z)-cz
				bx := (dx*cos - dz*sin) / scale
				by := dy / scale
				bz := (dx*sin + dz*cos) / scale
				for _, p := range cowParts {
					if p.contains(bx, by, bz) {
						m[(z*ny+y)*nx+x] = 1
						break
					}
				}
			}
		}
	}
}

// customBlob3D is the fallback 3D custom shape: a wobbly box.
func customBlob3D(m []uint8, nx, ny, nz int) {
	cx := int(float64(nx) * obstacleCenterX)
	cy := int(float64(ny) * 0.5)
	cz := int(float64(nz) * 0.5)
	for z := -8; z <= 8; z++ {
		for y := -12; y <= 12; y++ {
			for x := -20; x <= 20; x++ {
				gx := int(float64(cx+x) + math.Sin(float64(z)*0.3)*3)
				gy := int(float64(cy+y) + math.Cos(float64(x)*0.1)*2)
				gz := cz + z
				if gx > gridMargin && gx < nx-gridMargin && gy > gridMargin &&
					gy < ny-gridMargin && gz > gridMargin && gz < nz-gridMargin {
					m[(gz*ny+gy)*nx+gx] = 1
				}
			}
		}
	}
}

func customBounds3D(m []uint8, nx, ny, nz int, b r3.Box) {
	d := extent(b, 1)
	scale := math.Min(float64(nx)*0.35/d.X, math.Min(float64(ny)*0.35/d.Y, float64(nz)*0.35/d.Z))
	halfW := max(3, int(d.X*scale/2))
	halfH := max(3, int(d.Y*scale/2))
	halfD := max(3, int(d.Z*scale/2))
	cx := int(float64(nx) * meshCenterX)
	cy := int(float64(ny) * 0.5)
	cz := int(float64(nz) * 0.5)
	for z := -halfD; z <= halfD; z++ {
		for y := -halfH; y <= halfH; y++ {
			for x := -halfW; x <= halfW; x++ {
				gx, gy, gz := cx+x, cy+y, cz+z
				if gx > gridMargin && gx < nx-gridMargin && gy > gridMargin &&
					gy < ny-gridMargin && gz > gridMargin && gz < nz-gridMargin {
					m[(gz*ny+gy)*nx+gx] = 1
				}
			}
		}
	}
}

func customMesh3D(m []uint8, nx, ny, nz int, g Geometry) {
	p := newPlacement(meshBounds(g), nx, ny, nz)
	meshPoints(g.CustomMesh, func(v r3.Vec) {
		gx, gy, gz := p.toGrid(v)
		for dz := -1; dz <= 1; dz++ {
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					x, y, z := gx+dx, gy+dy, gz+dz
					if x > 1 && x < nx-1 && y > 1 && y < ny-1 && z > 1 && z < nz-1 {
						m[(z*ny+y)*nx+x] = 1
					}
				}
			}
		}
	})
	for row := 0; row < ny*nz; row++ {
		fillRow(m[row*nx : (row+1)*nx])
	}
}
