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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Preset is a mesh that ships with the program.
type Preset struct {
	ID          string
	Label       string
	File        string // path relative to the preset directory
	Recommended string // recommended solver key
	Description string
}

// Presets are the available preset meshes, by ID.
var Presets = map[string]Preset{
	"aeroCow": {
		ID: "aeroCow", Label: "Aero Cow", File: "aero-cow.stl", Recommended: "lbm3d",
		Description: "Converted from the classic cow mesh; a bluff body for wake studies.",
	},
	"utahTeapot": {
		ID: "utahTeapot", Label: "Utah Teapot", File: "utah-teapot.stl", Recommended: "lbm3d",
		Description: "High-curvature surface for iso-surface rendering checks.",
	},
	"humanoid": {
		ID: "humanoid", Label: "Humanoid Figure", File: "humanoid.stl", Recommended: "lbm3d",
		Description: "Simplified figure to test orientation and lift/drag readouts.",
	},
	"spaceInvader": {
		ID: "spaceInvader", Label: "Space Invader Magnet", File: "space-invader.stl", Recommended: "lbm2d",
		Description: "Flat extruded plate for separation visualization.",
	},
}

// PresetIDs returns the sorted preset IDs.
func PresetIDs() []string {
	ids := make([]string, 0, len(Presets))
	for id := range Presets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadPreset reads the preset with the given ID from dir.
func LoadPreset(dir, id string) (*Mesh, Preset, error) {
	p, ok := Presets[id]
	if !ok {
		return nil, p, fmt.Errorf("mesh: unknown preset %q", id)
	}
	m, err := Load(filepath.Join(dir, p.File))
	return m, p, err
}

// Load reads a mesh file, choosing the format by extension: ".obj" is read
// as OBJ and anything else as STL.
func Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: %v", err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".obj") {
		return ReadOBJ(f)
	}
	return ReadSTL(f)
}
