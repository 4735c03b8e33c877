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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/mazznoer/colorgrad"
	"gonum.org/v1/gonum/floats"
)

// paletteSize is the number of colours sampled from the gradient.
const paletteSize = 256

// FieldImage returns an image of the named scalar field of the active
// dimension, one pixel per cell, with y increasing upward. In 3D the slice
// at mid-depth is drawn. Values are mapped linearly between the field's
// minimum and maximum over fluid cells, and obstacle cells are black.
func FieldImage(s *State, name string) (*image.RGBA, error) {
	field, ok := s.ActiveScalars()[name]
	if !ok {
		return nil, fmt.Errorf("aerotunnel: no field named %q", name)
	}
	nx, ny := s.Params.Nx, s.Params.Ny
	offset := 0
	if s.Params.Dimension == Dim3D {
		offset = (s.Params.Nz / 2) * nx * ny
	}
	slice := field[offset : offset+nx*ny]
	mask := s.Obstacle()[offset : offset+nx*ny]

	fluid := make([]float64, 0, len(slice))
	for i, v := range slice {
		if mask[i] == 0 {
			fluid = append(fluid, v)
		}
	}
	lo, hi := 0.0, 1.0
	if len(fluid) > 0 {
		lo, hi = floats.Min(fluid), floats.Max(fluid)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	palette := colorgrad.Viridis().Colors(paletteSize)
	img := image.NewRGBA(image.Rect(0, 0, nx, ny))
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			c := y*nx + x
			py := ny - 1 - y
			if mask[c] != 0 {
				img.Set(x, py, color.Black)
				continue
			}
			k := int((slice[c] - lo) / span * (paletteSize - 1))
			k = min(max(k, 0), paletteSize-1)
			img.Set(x, py, palette[k])
		}
	}
	return img, nil
}

// WriteFieldPNG writes the image of the named field to w.
func WriteFieldPNG(w io.Writer, s *State, name string) error {
	img, err := FieldImage(s, name)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
