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

// Package aerotunnelutil contains the command-line interface and the
// configuration handling for AeroTunnel.
package aerotunnelutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/aerotunnel"
	"github.com/spatialmodel/aerotunnel/mesh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to AeroTunnel.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "solver",
			usage: `
              solver specifies the flow solver: one of lbm2d, ns2d, potential2d,
              vortex2d, lbm3d, or euler3d. The solver determines whether the
              simulation is 2D or 3D.`,
			defaultVal: "lbm2d",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "grid",
			usage: `
              grid specifies the grid extents nx, ny, and nz in cells. nz is
              only used by the 3D solvers but must still be at least 4.`,
			defaultVal: []int{256, 128, 64},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "mach",
			usage: `
              mach specifies the freestream Mach number.`,
			defaultVal: 0.15,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "reynolds",
			usage: `
              reynolds specifies the Reynolds number. It is converted to a
              lattice viscosity of 5000/reynolds, limited to the range
              [0.002, 0.2].`,
			defaultVal: 5000.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "viscosity",
			usage: `
              viscosity, if greater than zero, sets the lattice kinematic
              viscosity directly, overriding the value derived from reynolds.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "geometry",
			usage: `
              geometry specifies the obstacle shape: one of cylinder, airfoil,
              wing, sphere, or cow. It is ignored when mesh or preset is set.`,
			defaultVal: "airfoil",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "angle",
			usage: `
              angle specifies the angle of attack in degrees.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "mesh",
			usage: `
              mesh specifies the path to an STL or OBJ file to use as the
              obstacle. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "preset",
			usage: `
              preset specifies a preset mesh to use as the obstacle. Run
              'aerotunnel scenarios' to list them.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), scenariosCmd.Flags()},
		},
		{
			name: "presetDir",
			usage: `
              presetDir is the directory the preset meshes are read from.`,
			defaultVal: "assets",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "scenario",
			usage: `
              scenario specifies a named scenario to run. A scenario sets the
              solver, grid, Mach and Reynolds numbers, and geometry, replacing
              the corresponding options.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "scenarioFile",
			usage: `
              scenarioFile is the path to a TOML file of additional scenarios,
              each given as a [scenario.<name>] table.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), scenariosCmd.Flags()},
		},
		{
			name: "steps",
			usage: `
              steps is the number of steps to take. If < 1, the simulation
              runs until the force coefficients converge to within tolerance.`,
			shorthand:  "n",
			defaultVal: 1000,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the relative change in the drag and lift
              coefficients between checks below which a run without a fixed
              number of steps is considered converged.`,
			defaultVal: 1e-4,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "checkPeriod",
			usage: `
              checkPeriod is the number of steps between convergence checks.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "logEvery",
			usage: `
              logEvery is the number of steps between status messages.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the NetCDF file the final fields
              are written to. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "aerotunnel.nc",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies the variables to write to OutputFile,
              as a map of names to expressions of the model fields
              (velocityX, velocityY, velocityZ, pressure, vorticity, density,
              obstacle, x, y, z). For example:
              {"speed": "sqrt(velocityX*velocityX + velocityY*velocityY)"}.`,
			defaultVal: aerotunnel.DefaultOutputVariables,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "HistoryPlot",
			usage: `
              HistoryPlot, if set, is the path of a PNG file to draw the drag
              and lift coefficient history to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "FieldImage",
			usage: `
              FieldImage, if set, is the path of a PNG file to draw the final
              ImageVariable field to. 3D runs draw the mid-depth slice.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ImageVariable",
			usage: `
              ImageVariable is the field drawn to FieldImage and streamed by
              the frame server.`,
			defaultVal: "vorticity",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the log file. If empty, it is
              OutputFile with a .log extension.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "checkpoint",
			usage: `
              checkpoint, if set, is the path of a file to save the final
              simulation state to, so that a later run can resume from it.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "resume",
			usage: `
              resume, if set, is the path of a checkpoint file to start from.
              The solver, grid, parameters and geometry saved in the
              checkpoint replace the corresponding options.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "http",
			usage: `
              http, if set, is the address to serve live frames at, for
              example "localhost:7272".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "open",
			usage: `
              open specifies whether to open the live frame server in a web
              browser. It has no effect unless http is set.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "chart",
			usage: `
              chart specifies whether to print a summary with a chart of the
              lift history when the run finishes.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("AEROTUNNEL")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case []int:
				set.IntSliceP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(meshCmd)
	meshCmd.AddCommand(meshInspectCmd)
	meshCmd.AddCommand(meshConvertCmd)
	Root.AddCommand(scenariosCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("aerotunnel: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "aerotunnel",
	Short: "A virtual wind tunnel.",
	Long: `AeroTunnel computes approximate flow fields around an obstacle on a
uniform 2D or 3D grid and reports drag, lift, lift-to-drag ratio, and
Strouhal number as the flow develops.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'AEROTUNNEL_var' where 'var'
is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of AeroTunnel.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("AeroTunnel v%s\n", aerotunnel.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: `run runs a wind tunnel simulation and writes the final fields to
OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rc, err := runConfig(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, rc)
	},
	DisableAutoGenTag: true,
}

var meshCmd = &cobra.Command{
	Use:               "mesh",
	Short:             "Work with obstacle meshes.",
	DisableAutoGenTag: true,
}

// meshStats is the summary printed by 'mesh inspect'.
type meshStats struct {
	File      string
	Triangles int
	Bounds    r3.Box
	Extent    r3.Vec
}

var meshInspectCmd = &cobra.Command{
	Use:   "inspect FILE...",
	Short: "Print the size and bounds of meshes.",
	Long: `inspect reads STL or OBJ files and prints the number of triangles
and the bounding box of each.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			m, err := mesh.Load(os.ExpandEnv(path))
			if err != nil {
				return err
			}
			pretty.Fprintf(cmd.OutOrStdout(), "%# v\n", meshStats{
				File:      path,
				Triangles: m.Triangles(),
				Bounds:    m.Bounds,
				Extent:    r3.Sub(m.Bounds.Max, m.Bounds.Min),
			})
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var meshConvertCmd = &cobra.Command{
	Use:   "convert IN OUT",
	Short: "Convert a mesh to ASCII STL.",
	Long: `convert reads an STL or OBJ file and writes it as ASCII STL with
unit facet normals.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convertMesh(os.ExpandEnv(args[0]), os.ExpandEnv(args[1]))
	},
	DisableAutoGenTag: true,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenarios and preset meshes.",
	Long: `scenarios lists the built-in scenarios, any scenarios in scenarioFile,
and the preset meshes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios, err := loadScenarios(Cfg.GetString("scenarioFile"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), scenarioTable(scenarios))
		fmt.Fprintln(cmd.OutOrStdout(), presetTable())
		return nil
	},
	DisableAutoGenTag: true,
}
