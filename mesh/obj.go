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

package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOBJ reads the vertices ("v") and faces ("f") of a Wavefront OBJ
// file. Faces with more than three vertices are split into a fan of
// triangles around their first vertex. Only the vertex index of each
// "v/vt/vn" token is used. Faces that refer to vertices that do not
// exist are skipped.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	var verts []r3.Vec
	var out []float64
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				continue
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("mesh: OBJ line %d: %v", line, err)
				}
				c[i] = f
			}
			verts = append(verts, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
		case "f":
			if len(fields) < 4 {
				continue
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := strconv.Atoi(strings.SplitN(tok, "/", 2)[0])
				if err != nil {
					return nil, fmt.Errorf("mesh: OBJ line %d: %v", line, err)
				}
				idx = append(idx, i-1)
			}
			for i := 1; i < len(idx)-1; i++ {
				tri := [3]int{idx[0], idx[i], idx[i+1]}
				if !validIndices(tri, len(verts)) {
					continue
				}
				for _, k := range tri {
					out = append(out, verts[k].X, verts[k].Y, verts[k].Z)
				}
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("mesh: reading OBJ: %v", err)
	}
	return New(out)
}

func validIndices(tri [3]int, n int) bool {
	for _, i := range tri {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}
