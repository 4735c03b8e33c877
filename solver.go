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
	"time"
)

// Solver advances the fields of a State by one step per call.
//
// Step increments the iteration counter of the state by exactly one and
// recomputes all diagnostics. If the active dimension of the state does not
// match the solver, Step does nothing. Solvers never own the fields they
// update; they only hold private scratch buffers, which are reallocated
// when the grid size changes.
type Solver interface {
	Kind() SolverKind
	Step(elapsed time.Duration)
}

// NewSolver returns a solver of the given kind bound to s. The active
// dimension and solver of s are switched to match, and the obstacle mask of
// that dimension is rebuilt.
func NewSolver(kind SolverKind, s *State) (Solver, error) {
	var sol Solver
	switch kind {
	case LBM2D:
		sol = &LBM2DSolver{lbm: lbm{s: s, lat: D2Q9}}
	case NavierStokes2D:
		sol = &NavierStokes2DSolver{s: s}
	case Potential2D:
		sol = &Potential2DSolver{s: s}
	case Vortex2D:
		sol = &Vortex2DSolver{s: s}
	case LBM3D:
		sol = &LBM3DSolver{lbm: lbm{s: s, lat: D3Q19}}
	case Euler3D:
		sol = &Euler3DSolver{s: s}
	default:
		return nil, fmt.Errorf("aerotunnel: invalid solver kind %d", int(kind))
	}
	s.SetSolver(kind)
	s.SetDimension(kind.Dimension())
	BuildObstacle(s)
	return sol, nil
}

// active reports whether s is currently configured for the dimension of
// solver kind k.
func active(s *State, k SolverKind) bool {
	return s.Params.Dimension == k.Dimension()
}
