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
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestFieldImage(t *testing.T) {
	s, sol := newTestState(t, NavierStokes2D, Cylinder, 40, 20, 4)
	sol.Step(0)
	img, err := FieldImage(s, "pressure")
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bounds %v", b)
	}
	m := s.Fields2D.Obstacle
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			solid := m[y*40+x] != 0
			black := img.At(x, 19-y) == color.RGBA{A: 255}
			if solid && !black {
				t.Fatalf("solid cell (%d, %d) is not black", x, y)
			}
		}
	}
	if _, err := FieldImage(s, "velocityZ"); err == nil {
		t.Error("expected an error for a 3D field in 2D")
	}
}

func TestFieldImageUniform(t *testing.T) {
	// A freshly allocated field is uniform; the image must still render.
	s := NewState()
	s.ResizeGrid(12, 8, 6)
	s.SetDimension(Dim3D)
	var buf bytes.Buffer
	if err := WriteFieldPNG(&buf, s, "density"); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("bounds %v", b)
	}
}
