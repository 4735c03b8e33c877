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

package aerotunnelutil

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/aerotunnel"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

// newLogger returns a logger that writes to w.
func newLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.Out = w
	logger.SetLevel(logrus.InfoLevel)
	logger.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	}
	return logger
}

// initFuncs returns the functions that set up a simulation as specified
// by rc.
func initFuncs(rc *RunConfig) []aerotunnel.DomainManipulator {
	if rc.Scenario != nil {
		return []aerotunnel.DomainManipulator{aerotunnel.ApplyScenario(*rc.Scenario)}
	}
	mach := rc.Mach
	funcs := []aerotunnel.DomainManipulator{
		aerotunnel.SetGrid(rc.Grid[0], rc.Grid[1], rc.Grid[2]),
		aerotunnel.SetParams(aerotunnel.ParamsUpdate{Mach: &mach}),
		aerotunnel.SetReynolds(rc.Reynolds),
	}
	if rc.Viscosity > 0 {
		nu := rc.Viscosity
		funcs = append(funcs, aerotunnel.SetParams(aerotunnel.ParamsUpdate{Viscosity: &nu}))
	}
	angle := rc.Angle
	if rc.Mesh != nil {
		kind := aerotunnel.Custom
		bounds := rc.Mesh.Bounds
		preset := rc.PresetID
		funcs = append(funcs, aerotunnel.SetGeometry(aerotunnel.GeometryUpdate{
			Kind:         &kind,
			Angle:        &angle,
			CustomMesh:   rc.Mesh.Vertices,
			CustomBounds: &bounds,
			PresetID:     &preset,
		}))
	} else {
		kind := rc.Geometry
		funcs = append(funcs, aerotunnel.SetGeometry(aerotunnel.GeometryUpdate{Kind: &kind, Angle: &angle}))
	}
	return append(funcs, aerotunnel.SelectSolver(rc.Solver))
}

// Run runs a simulation as specified by rc. Log messages are written to
// the output of cmd and to rc.LogFile.
func Run(cmd *cobra.Command, rc *RunConfig) error {
	logfile, err := os.Create(rc.LogFile)
	if err != nil {
		return fmt.Errorf("aerotunnel: problem creating log file: %v", err)
	}
	defer logfile.Close()
	logger := newLogger(io.MultiWriter(cmd.OutOrStdout(), logfile))

	o, err := aerotunnel.NewOutputter(rc.OutputFile, rc.OutputVariables, nil)
	if err != nil {
		return err
	}

	history := new(aerotunnel.History)
	sim := aerotunnel.NewSimulation()
	if rc.Resume != "" {
		f, err := os.Open(rc.Resume)
		if err != nil {
			return fmt.Errorf("aerotunnel: opening checkpoint: %v", err)
		}
		defer f.Close()
		sim.InitFuncs = []aerotunnel.DomainManipulator{aerotunnel.Load(f)}
	} else {
		sim.InitFuncs = initFuncs(rc)
	}
	sim.InitFuncs = append(sim.InitFuncs, func(sim *aerotunnel.Simulation) error {
		return o.CheckOutputVars(sim.State)
	})
	sim.RunFuncs = []aerotunnel.DomainManipulator{
		aerotunnel.Advance(),
		aerotunnel.CheckFinite(),
		aerotunnel.RecordHistory(history),
		aerotunnel.Log(logger, rc.LogEvery),
	}
	if rc.HTTPAddress != "" {
		fs := aerotunnel.NewFrameServer(rc.ImageVariable, 2, history, logger)
		fs.Start(rc.HTTPAddress)
		sim.RunFuncs = append(sim.RunFuncs, aerotunnel.Publish(fs, 1))
		if rc.Open {
			if err := open.Run("http://" + rc.HTTPAddress); err != nil {
				logger.WithError(err).Warn("aerotunnel: opening browser")
			}
		}
	}
	sim.RunFuncs = append(sim.RunFuncs,
		aerotunnel.SteadyStateConvergenceCheck(rc.Steps, rc.CheckPeriod, rc.Tolerance, logger))

	sim.CleanupFuncs = []aerotunnel.DomainManipulator{o.Output()}
	if rc.HistoryPlot != "" {
		sim.CleanupFuncs = append(sim.CleanupFuncs, writeHistoryPlot(rc.HistoryPlot, history))
	}
	if rc.FieldImage != "" {
		sim.CleanupFuncs = append(sim.CleanupFuncs, writeFieldImage(rc.FieldImage, rc.ImageVariable))
	}
	if rc.Checkpoint != "" {
		sim.CleanupFuncs = append(sim.CleanupFuncs, writeCheckpoint(rc.Checkpoint))
	}

	startTime := time.Now()
	logger.WithField("solver", rc.Solver).Info("aerotunnel: initializing")
	if err := sim.Init(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"solver":    sim.Params.Solver,
		"dimension": sim.Params.Dimension,
		"grid":      fmt.Sprintf("%d×%d×%d", sim.Params.Nx, sim.Params.Ny, sim.Params.Nz),
		"geometry":  sim.Geometry.Kind,
		"viscosity": sim.Params.Viscosity,
	}).Info("aerotunnel: running")
	if err := sim.Run(); err != nil {
		return err
	}
	if err := sim.Cleanup(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"iterations": sim.Iterations,
		"walltime":   time.Since(startTime).Round(time.Millisecond),
	}).Info("aerotunnel: simulation completed successfully")

	if rc.Chart {
		fmt.Fprintln(cmd.OutOrStdout(), Summary(sim.Diagnostics(), history.Lift()))
	}
	return nil
}

func writeHistoryPlot(path string, h *aerotunnel.History) aerotunnel.DomainManipulator {
	return func(*aerotunnel.Simulation) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("aerotunnel: creating history plot: %v", err)
		}
		if err := h.WritePNG(f, 6*vg.Inch, 3*vg.Inch); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

func writeFieldImage(path, variable string) aerotunnel.DomainManipulator {
	return func(sim *aerotunnel.Simulation) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("aerotunnel: creating field image: %v", err)
		}
		if err := aerotunnel.WriteFieldPNG(f, sim.State, variable); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

func writeCheckpoint(path string) aerotunnel.DomainManipulator {
	return func(sim *aerotunnel.Simulation) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("aerotunnel: creating checkpoint: %v", err)
		}
		if err := aerotunnel.Save(f)(sim); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}
