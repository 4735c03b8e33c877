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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/aerotunnel"
	"github.com/spatialmodel/aerotunnel/mesh"
	"github.com/spf13/cast"
)

// RunConfig holds the checked configuration of a simulation run.
type RunConfig struct {
	// Scenario, if not nil, replaces Solver, Grid, Mach, Reynolds,
	// Geometry, and Angle.
	Scenario *aerotunnel.Scenario

	Solver    aerotunnel.SolverKind
	Grid      [3]int
	Mach      float64
	Reynolds  float64
	Viscosity float64 // overrides Reynolds if > 0

	Geometry aerotunnel.ShapeKind
	Angle    float64

	// Mesh, if not nil, is used as a custom obstacle, and PresetID
	// records the preset it was read from, if any.
	Mesh     *mesh.Mesh
	PresetID string

	Steps       int
	Tolerance   float64
	CheckPeriod int
	LogEvery    int

	OutputFile      string
	OutputVariables map[string]string
	HistoryPlot     string
	FieldImage      string
	ImageVariable   string
	LogFile         string

	// Checkpoint, if set, is the file the final state is saved to, and
	// Resume is a checkpoint to start from.
	Checkpoint string
	Resume     string

	HTTPAddress string
	Open        bool
	Chart       bool
}

// runConfig reads and checks the run configuration in cfg.
func runConfig(cfg *viper.Viper) (*RunConfig, error) {
	rc := &RunConfig{
		Mach:          cfg.GetFloat64("mach"),
		Reynolds:      cfg.GetFloat64("reynolds"),
		Viscosity:     cfg.GetFloat64("viscosity"),
		Angle:         cfg.GetFloat64("angle"),
		Steps:         cfg.GetInt("steps"),
		Tolerance:     cfg.GetFloat64("tolerance"),
		CheckPeriod:   cfg.GetInt("checkPeriod"),
		LogEvery:      cfg.GetInt("logEvery"),
		HistoryPlot:   os.ExpandEnv(cfg.GetString("HistoryPlot")),
		FieldImage:    os.ExpandEnv(cfg.GetString("FieldImage")),
		ImageVariable: cfg.GetString("ImageVariable"),
		Checkpoint:    os.ExpandEnv(cfg.GetString("checkpoint")),
		Resume:        os.ExpandEnv(cfg.GetString("resume")),
		HTTPAddress:   cfg.GetString("http"),
		Open:          cfg.GetBool("open"),
		Chart:         cfg.GetBool("chart"),
	}
	var err error
	if rc.Solver, err = aerotunnel.ParseSolverKind(cfg.GetString("solver")); err != nil {
		return nil, err
	}
	if rc.Geometry, err = aerotunnel.ParseShapeKind(cfg.GetString("geometry")); err != nil {
		return nil, err
	}
	if rc.Grid, err = checkGrid(cfg.Get("grid")); err != nil {
		return nil, err
	}
	if rc.Mach <= 0 {
		return nil, fmt.Errorf("aerotunnel: mach must be positive, but is %g", rc.Mach)
	}
	if rc.Viscosity < 0 {
		return nil, fmt.Errorf("aerotunnel: viscosity must not be negative, but is %g", rc.Viscosity)
	}

	if name := cfg.GetString("scenario"); name != "" {
		scenarios, err := loadScenarios(cfg.GetString("scenarioFile"))
		if err != nil {
			return nil, err
		}
		sc, ok := scenarios[name]
		if !ok {
			return nil, fmt.Errorf("aerotunnel: unknown scenario %q; available scenarios are %v",
				name, aerotunnel.ScenarioNames(scenarios))
		}
		rc.Scenario = &sc
	}

	if path := cfg.GetString("mesh"); path != "" {
		if rc.Mesh, err = mesh.Load(os.ExpandEnv(path)); err != nil {
			return nil, err
		}
	} else if id := cfg.GetString("preset"); id != "" {
		if rc.Mesh, _, err = mesh.LoadPreset(os.ExpandEnv(cfg.GetString("presetDir")), id); err != nil {
			return nil, err
		}
		rc.PresetID = id
	}

	if rc.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return nil, err
	}
	if rc.OutputVariables, err = checkOutputVars(GetStringMapString("OutputVariables", cfg)); err != nil {
		return nil, err
	}
	rc.LogFile = checkLogFile(os.ExpandEnv(cfg.GetString("LogFile")), rc.OutputFile)
	return rc, nil
}

// checkGrid converts the grid option to three extents of at least 4 cells.
func checkGrid(v interface{}) ([3]int, error) {
	var g [3]int
	// Values set from the command line or the environment arrive as a
	// string such as "[256,128,64]" or "256,128,64".
	if s, ok := v.(string); ok {
		v = strings.Split(strings.Trim(s, "[] "), ",")
	}
	if s, ok := v.([]string); ok {
		for i := range s {
			s[i] = strings.TrimSpace(s[i])
		}
		v = s
	}
	ints, err := cast.ToIntSliceE(v)
	if err != nil {
		return g, fmt.Errorf("aerotunnel: reading 'grid': %v", err)
	}
	if len(ints) != 3 {
		return g, fmt.Errorf("aerotunnel: 'grid' needs 3 extents (nx, ny, nz) but has %d", len(ints))
	}
	for i, n := range ints {
		if n < 4 {
			return g, fmt.Errorf("aerotunnel: grid extents must be at least 4, but are %v", ints)
		}
		g[i] = n
	}
	return g, nil
}

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again.")
	}
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		out[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return out, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("aerotunnel: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return logFile
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		return cast.ToStringMapString(v)
	case string:
		o := make(map[string]string)
		if err := json.NewDecoder(bytes.NewBufferString(v)).Decode(&o); err != nil {
			panic(fmt.Errorf("invalid JSON for variable %s: %v", varName, err))
		}
		return o
	default:
		panic(fmt.Errorf("invalid type for getStringMapString variable %s: %#v", varName, i))
	}
}

// loadScenarios returns the built-in scenarios together with those in
// file, if file is not empty. Scenarios in file replace built-in ones of
// the same name.
func loadScenarios(file string) (map[string]aerotunnel.Scenario, error) {
	out := make(map[string]aerotunnel.Scenario, len(aerotunnel.Scenarios))
	for k, v := range aerotunnel.Scenarios {
		out[k] = v
	}
	if file == "" {
		return out, nil
	}
	f, err := os.Open(os.ExpandEnv(file))
	if err != nil {
		return nil, fmt.Errorf("aerotunnel: opening scenario file: %v", err)
	}
	defer f.Close()
	extra, err := aerotunnel.LoadScenarios(f)
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		out[k] = v
	}
	return out, nil
}

// convertMesh reads the mesh at in and writes it to out as ASCII STL.
func convertMesh(in, out string) error {
	m, err := mesh.Load(in)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("aerotunnel: creating mesh file: %v", err)
	}
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if err := mesh.WriteSTL(f, name, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
