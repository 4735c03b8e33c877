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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
)

const (
	stlHeaderLen   = 80
	stlTriangleLen = 50 // normal, three vertices, attribute byte count
)

var stlVertex = regexp.MustCompile(`(?i)vertex\s+([-+\d.eE]+)\s+([-+\d.eE]+)\s+([-+\d.eE]+)`)

// ReadSTL reads an ASCII or binary STL mesh from r.
func ReadSTL(r io.Reader) (*Mesh, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("mesh: reading STL: %v", err)
	}
	return ParseSTL(b)
}

// ParseSTL parses an ASCII or binary STL mesh. Data that begins with
// "solid" is tried as ASCII first, since some binary writers also start
// their header with that word.
func ParseSTL(b []byte) (*Mesh, error) {
	looksASCII := bytes.HasPrefix(bytes.ToLower(bytes.TrimLeft(b, " \t\r\n")), []byte("solid"))
	if looksASCII {
		if m, err := parseASCIISTL(b); err == nil {
			return m, nil
		}
	}
	if m, err := parseBinarySTL(b); err == nil {
		return m, nil
	}
	if !looksASCII {
		if m, err := parseASCIISTL(b); err == nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("mesh: data is neither ASCII nor binary STL")
}

func parseASCIISTL(b []byte) (*Mesh, error) {
	matches := stlVertex.FindAllSubmatch(b, -1)
	v := make([]float64, 0, len(matches)*3)
	for _, m := range matches {
		for _, s := range m[1:] {
			f, err := strconv.ParseFloat(string(s), 64)
			if err != nil {
				return nil, fmt.Errorf("mesh: parsing STL vertex: %v", err)
			}
			v = append(v, f)
		}
	}
	return New(v)
}

func parseBinarySTL(b []byte) (*Mesh, error) {
	if len(b) < stlHeaderLen+4 {
		return nil, fmt.Errorf("mesh: binary STL is too short")
	}
	n := int(binary.LittleEndian.Uint32(b[stlHeaderLen:]))
	if len(b) < stlHeaderLen+4+n*stlTriangleLen {
		return nil, fmt.Errorf("mesh: binary STL declares %d triangles but holds fewer", n)
	}
	v := make([]float64, n*9)
	off := stlHeaderLen + 4
	for i := 0; i < n; i++ {
		off += 12 // skip the normal
		for k := 0; k < 9; k++ {
			v[i*9+k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[off:])))
			off += 4
		}
		off += 2
	}
	return New(v)
}

// WriteSTL writes m to w as ASCII STL with unit facet normals.
func WriteSTL(w io.Writer, name string, m *Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for i := 0; i < m.Triangles(); i++ {
		t := m.Triangle(i)
		n := Normal(t[0], t[1], t[2])
		fmt.Fprintf(bw, "  facet normal %g %g %g\n", n.X, n.Y, n.Z)
		fmt.Fprintln(bw, "    outer loop")
		for _, p := range t {
			fmt.Fprintf(bw, "      vertex %g %g %g\n", p.X, p.Y, p.Z)
		}
		fmt.Fprintln(bw, "    endloop")
		fmt.Fprintln(bw, "  endfacet")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
