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
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Simulation holds the current state of a wind tunnel run and the
// functions that set it up, advance it, and tear it down.
type Simulation struct {
	*State

	// Solver steps State. It is usually set by SelectSolver.
	Solver Solver

	// InitFuncs are run once by Init.
	InitFuncs []DomainManipulator

	// RunFuncs are run in order, repeatedly, by Run until Done is true.
	RunFuncs []DomainManipulator

	// CleanupFuncs are run once by Cleanup.
	CleanupFuncs []DomainManipulator

	// Done specifies whether the simulation is finished.
	Done bool

	lastStep time.Time
}

// DomainManipulator is a function that operates on a simulation.
type DomainManipulator func(*Simulation) error

// NewSimulation returns a simulation with a default State.
func NewSimulation() *Simulation {
	return &Simulation{State: NewState()}
}

// Init runs the InitFuncs.
func (sim *Simulation) Init() error {
	if sim.State == nil {
		sim.State = NewState()
	}
	for _, f := range sim.InitFuncs {
		if err := f(sim); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the RunFuncs until Done is set.
func (sim *Simulation) Run() error {
	for !sim.Done {
		for _, f := range sim.RunFuncs {
			if err := f(sim); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cleanup runs the CleanupFuncs.
func (sim *Simulation) Cleanup() error {
	for _, f := range sim.CleanupFuncs {
		if err := f(sim); err != nil {
			return err
		}
	}
	return nil
}

// SelectSolver creates a solver of the given kind and binds it to the
// simulation, switching the active dimension to match.
func SelectSolver(kind SolverKind) DomainManipulator {
	return func(sim *Simulation) error {
		s, err := NewSolver(kind, sim.State)
		if err != nil {
			return err
		}
		sim.Solver = s
		return nil
	}
}

// SetGrid resizes the grid. All extents must be positive.
func SetGrid(nx, ny, nz int) DomainManipulator {
	return func(sim *Simulation) error {
		if nx < 4 || ny < 4 || nz < 4 {
			return fmt.Errorf("aerotunnel: grid extents must all be at least 4; got %d×%d×%d", nx, ny, nz)
		}
		sim.ResizeGrid(nx, ny, nz)
		return nil
	}
}

// SetParams merges u into the simulation parameters.
func SetParams(u ParamsUpdate) DomainManipulator {
	return func(sim *Simulation) error {
		sim.UpdateParams(u)
		return nil
	}
}

// SetReynolds sets the Reynolds number and the viscosity derived from it.
func SetReynolds(re float64) DomainManipulator {
	return func(sim *Simulation) error {
		sim.State.SetReynolds(re)
		return nil
	}
}

// SetGeometry merges u into the obstacle geometry.
func SetGeometry(u GeometryUpdate) DomainManipulator {
	return func(sim *Simulation) error {
		sim.UpdateGeometry(u)
		return nil
	}
}

// Advance steps the solver once, passing the wall-clock time since the
// previous step.
func Advance() DomainManipulator {
	return func(sim *Simulation) error {
		if sim.Solver == nil {
			return fmt.Errorf("aerotunnel: no solver selected")
		}
		now := time.Now()
		var elapsed time.Duration
		if !sim.lastStep.IsZero() {
			elapsed = now.Sub(sim.lastStep)
		}
		sim.lastStep = now
		sim.Solver.Step(elapsed)
		return nil
	}
}

// IterationLimit sets Done once n calls have been made to the returned
// function.
func IterationLimit(n int) DomainManipulator {
	iteration := 0
	return func(sim *Simulation) error {
		iteration++
		if iteration >= n {
			sim.Done = true
		}
		return nil
	}
}

// SteadyStateConvergenceCheck checks whether the force coefficients have
// settled and sets the Done flag if they have. If numIterations > 0, the
// simulation is finished after that number of iterations have completed.
// Otherwise, every checkPeriod iterations the drag and lift coefficients are
// compared with those at the previous check, and the simulation is finished
// when both have changed by less than tolerance. Check results are logged
// to logger if it is not nil.
func SteadyStateConvergenceCheck(numIterations, checkPeriod int, tolerance float64, logger logrus.FieldLogger) DomainManipulator {
	if checkPeriod < 1 {
		checkPeriod = 1
	}
	var oldDrag, oldLift float64
	iteration := 0
	checks := 0

	return func(sim *Simulation) error {
		iteration++
		if numIterations > 0 {
			if iteration >= numIterations {
				sim.Done = true
			}
			return nil
		}
		if iteration%checkPeriod != 0 {
			return nil
		}
		checks++
		dragOK := checkConvergence(sim.Drag, oldDrag, tolerance)
		liftOK := checkConvergence(sim.Lift, oldLift, tolerance)
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"iteration": sim.Iterations,
				"drag":      sim.Drag,
				"lift":      sim.Lift,
			}).Debug("aerotunnel: convergence check")
		}
		// The first check only establishes the baseline.
		if checks > 1 && dragOK && liftOK {
			sim.Done = true
		}
		oldDrag, oldLift = sim.Drag, sim.Lift
		return nil
	}
}

// checkConvergence reports whether newVal differs from oldVal by less than
// tolerance, relative to oldVal, or absolutely when oldVal is 0.
func checkConvergence(newVal, oldVal, tolerance float64) bool {
	diff := math.Abs(newVal - oldVal)
	if oldVal != 0 {
		diff /= math.Abs(oldVal)
	}
	return diff <= tolerance && !math.IsNaN(diff) && !math.IsInf(diff, 0)
}

// CheckFinite returns an error if any field of the active dimension or any
// diagnostic contains NaN or infinity.
func CheckFinite() DomainManipulator {
	return func(sim *Simulation) error {
		for name, v := range sim.ActiveScalars() {
			if floats.HasNaN(v) || math.IsInf(floats.Max(v), 1) || math.IsInf(floats.Min(v), -1) {
				return fmt.Errorf("aerotunnel: non-finite %s field after iteration %d", name, sim.Iterations)
			}
		}
		d := sim.Diagnostics()
		for _, v := range []float64{d.Drag, d.Lift, d.LD, d.Strouhal, d.SideForce} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("aerotunnel: non-finite diagnostics after iteration %d: %+v", sim.Iterations, d)
			}
		}
		return nil
	}
}

// Log writes simulation status messages to logger every `every` calls.
func Log(logger logrus.FieldLogger, every int) DomainManipulator {
	if every < 1 {
		every = 1
	}
	startTime := time.Now()
	stepTime := time.Now()
	calls := 0

	return func(sim *Simulation) error {
		calls++
		if calls%every != 0 {
			return nil
		}
		logger.WithFields(logrus.Fields{
			"iteration": sim.Iterations,
			"solver":    sim.Params.Solver,
			"walltime":  time.Since(startTime).Round(time.Millisecond),
			"Δwalltime": (time.Since(stepTime) / time.Duration(every)).Round(time.Microsecond),
			"drag":      fmt.Sprintf("%.4g", sim.Drag),
			"lift":      fmt.Sprintf("%.4g", sim.Lift),
			"L/D":       fmt.Sprintf("%.4g", sim.LD),
			"strouhal":  fmt.Sprintf("%.4g", sim.Strouhal),
		}).Info("aerotunnel: step")
		stepTime = time.Now()
		return nil
	}
}

// RecordHistory appends the diagnostics of the latest step to h.
func RecordHistory(h *History) DomainManipulator {
	return func(sim *Simulation) error {
		h.Add(sim.Diagnostics())
		return nil
	}
}
