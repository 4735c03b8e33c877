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
	"encoding/gob"
	"fmt"
	"io"

	"github.com/spatialmodel/aerotunnel/internal/hash"
)

// ConfigKey returns a key that identifies the parameters and geometry of s.
// Two states with the same key and iteration count hold the same
// configuration.
func (s *State) ConfigKey() string {
	return hash.Key(struct {
		Params   Params
		Geometry Geometry
	}{s.Params, s.Geometry})
}

// checkpoint is the gob-encoded content of a checkpoint file.
type checkpoint struct {
	Version   string
	ConfigKey string

	Params   Params
	Geometry Geometry

	Iterations                          int
	Drag, Lift, LD, Strouhal, SideForce float64

	Fields2D *FieldSet2D
	Fields3D *FieldSet3D
}

// Save returns a function that writes the state of the simulation to w
// as a gob stream (format description at https://golang.org/pkg/encoding/gob/).
func Save(w io.Writer) DomainManipulator {
	return func(sim *Simulation) error {
		s := sim.State
		c := checkpoint{
			Version:    DataVersion,
			ConfigKey:  s.ConfigKey(),
			Params:     s.Params,
			Geometry:   s.Geometry,
			Iterations: s.Iterations,
			Drag:       s.Drag,
			Lift:       s.Lift,
			LD:         s.LD,
			Strouhal:   s.Strouhal,
			SideForce:  s.SideForce,
			Fields2D:   s.Fields2D,
			Fields3D:   s.Fields3D,
		}
		if err := gob.NewEncoder(w).Encode(c); err != nil {
			return fmt.Errorf("aerotunnel.Save: %v", err)
		}
		return nil
	}
}

// Load returns a function that replaces the state of the simulation with
// one previously written by Save and selects the solver it was saved with.
// Solver-private state, such as the sheet strength of the vortex solver, is not
// saved and starts afresh.
func Load(r io.Reader) DomainManipulator {
	return func(sim *Simulation) error {
		var c checkpoint
		if err := gob.NewDecoder(r).Decode(&c); err != nil {
			return fmt.Errorf("aerotunnel.Load: %v", err)
		}
		if c.Version != DataVersion {
			return fmt.Errorf("aerotunnel.Load: checkpoint version %s is incompatible with the required version %s",
				c.Version, DataVersion)
		}
		if err := c.check(); err != nil {
			return fmt.Errorf("aerotunnel.Load: %v", err)
		}
		s := &State{
			Params:     c.Params,
			Geometry:   c.Geometry,
			Fields2D:   c.Fields2D,
			Fields3D:   c.Fields3D,
			Iterations: c.Iterations,
			Drag:       c.Drag,
			Lift:       c.Lift,
			LD:         c.LD,
			Strouhal:   c.Strouhal,
			SideForce:  c.SideForce,
			stale:      [2]bool{true, true},
		}
		if k := s.ConfigKey(); k != c.ConfigKey {
			return fmt.Errorf("aerotunnel.Load: configuration key %s does not match saved key %s", k, c.ConfigKey)
		}
		sim.State = s
		return SelectSolver(s.Params.Solver)(sim)
	}
}

// check returns an error if the saved fields do not match the saved extents.
func (c *checkpoint) check() error {
	p := c.Params
	if p.Nx < 4 || p.Ny < 4 || p.Nz < 4 {
		return fmt.Errorf("invalid grid %d×%d×%d", p.Nx, p.Ny, p.Nz)
	}
	if c.Fields2D == nil || c.Fields3D == nil {
		return fmt.Errorf("missing field set")
	}
	n2, n3 := p.Nx*p.Ny, p.Nx*p.Ny*p.Nz
	f2, f3 := c.Fields2D, c.Fields3D
	for name, l := range map[string]int{
		"2D velocityX": len(f2.VelocityX), "2D velocityY": len(f2.VelocityY),
		"2D pressure": len(f2.Pressure), "2D vorticity": len(f2.Vorticity),
		"2D density": len(f2.Density), "2D obstacle": len(f2.Obstacle),
	} {
		if l != n2 {
			return fmt.Errorf("%s has %d cells, want %d", name, l, n2)
		}
	}
	for name, l := range map[string]int{
		"3D velocityX": len(f3.VelocityX), "3D velocityY": len(f3.VelocityY),
		"3D velocityZ": len(f3.VelocityZ), "3D pressure": len(f3.Pressure),
		"3D vorticity": len(f3.Vorticity), "3D density": len(f3.Density),
		"3D obstacle": len(f3.Obstacle),
	} {
		if l != n3 {
			return fmt.Errorf("%s has %d cells, want %d", name, l, n3)
		}
	}
	if len(f2.Distribution) != n2*D2Q9.Q || len(f3.Distribution) != n3*D3Q19.Q {
		return fmt.Errorf("distribution lengths do not match the grid")
	}
	return nil
}
