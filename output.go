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
	"os"
	"regexp"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Outputter writes field snapshots to NetCDF files.
//
// outputVariables maps the names of the variables to write to expressions
// that define how they are calculated. Expressions can refer to the model
// fields (velocityX, velocityY, velocityZ, pressure, vorticity, density),
// to the obstacle mask (obstacle), to the cell coordinates (x, y, z), to
// other output variables, and to functions.
type Outputter struct {
	fileName        string
	outputVariables map[string]string
	modelVariables  []string
	outputFunctions map[string]govaluate.ExpressionFunction
}

// DefaultOutputVariables are the variables written when none are requested.
var DefaultOutputVariables = map[string]string{
	"velocityX": "velocityX",
	"velocityY": "velocityY",
	"pressure":  "pressure",
	"vorticity": "vorticity",
	"density":   "density",
	"obstacle":  "obstacle",
}

// unary returns an expression function wrapping f.
func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("aerotunnel: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("aerotunnel: invalid argument %v for function '%s'", arg[0], name)
		}
		return f(v), nil
	}
}

// NewOutputter initializes a new Outputter and adds a set of default output
// functions: 'exp(x)', 'sqrt(x)', 'abs(x)', 'log(x)', and 'pow(x, y)'.
// If outputVariables is empty, DefaultOutputVariables is used.
func NewOutputter(fileName string, outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp":  unary("exp", math.Exp),
		"sqrt": unary("sqrt", math.Sqrt),
		"abs":  unary("abs", math.Abs),
		"log":  unary("log", math.Log),
		"pow": func(args ...interface{}) (interface{}, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("aerotunnel: got %d arguments for function 'pow', but needs 2", len(args))
			}
			return math.Pow(args[0].(float64), args[1].(float64)), nil
		},
	}
	for k, v := range outputFunctions {
		funcs[k] = v
	}
	if len(outputVariables) == 0 {
		outputVariables = DefaultOutputVariables
	}
	o := &Outputter{
		fileName:        fileName,
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: funcs,
	}
	for k, v := range outputVariables {
		o.outputVariables[k] = v
	}
	if err := o.expandDerived(); err != nil {
		return nil, err
	}
	return o, nil
}

// expandDerived replaces every reference to another output variable in an
// expression by the expression that defines it, and records the model
// variables that the expanded expressions need.
func (o *Outputter) expandDerived() error {
	for pass := 0; ; pass++ {
		if pass > len(o.outputVariables) {
			return fmt.Errorf("aerotunnel: output variables refer to each other in a cycle")
		}
		changed := false
		for key, val := range o.outputVariables {
			expression, err := govaluate.NewEvaluableExpressionWithFunctions(val, o.outputFunctions)
			if err != nil {
				return fmt.Errorf("aerotunnel: output variable %s: %v", key, err)
			}
			for _, v := range removeDuplicates(expression.Vars()) {
				def, ok := o.outputVariables[v]
				if !ok || def == v || v == key {
					continue
				}
				// Only whole identifiers are replaced; 'x' in 'velocityX'
				// is left alone.
				re := regexp.MustCompile(`\b` + regexp.QuoteMeta(v) + `\b`)
				o.outputVariables[key] = re.ReplaceAllString(o.outputVariables[key], "("+def+")")
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	o.modelVariables = o.modelVariables[:0]
	for _, val := range o.outputVariables {
		expression, _ := govaluate.NewEvaluableExpressionWithFunctions(val, o.outputFunctions)
		o.modelVariables = append(o.modelVariables, expression.Vars()...)
	}
	o.modelVariables = removeDuplicates(o.modelVariables)
	sort.Strings(o.modelVariables)
	return nil
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// modelData returns the per-cell model variables of the active dimension,
// including the obstacle mask and the cell coordinates.
func (s *State) modelData() map[string][]float64 {
	data := s.ActiveScalars()
	obstacle := s.Obstacle()
	n := len(obstacle)
	mask := make([]float64, n)
	x, y, z := make([]float64, n), make([]float64, n), make([]float64, n)
	nx, ny := s.Params.Nx, s.Params.Ny
	for i, v := range obstacle {
		mask[i] = float64(v)
		x[i] = float64(i % nx)
		y[i] = float64((i / nx) % ny)
		z[i] = float64(i / (nx * ny))
	}
	data["obstacle"] = mask
	data["x"], data["y"], data["z"] = x, y, z
	return data
}

// CheckOutputVars returns an error if any variable needed by the output
// expressions is not a model variable of the active dimension.
func (o *Outputter) CheckOutputVars(s *State) error {
	data := s.modelData()
	for _, v := range o.modelVariables {
		if _, ok := data[v]; !ok {
			return fmt.Errorf("aerotunnel: undefined variable name '%s'", v)
		}
	}
	return nil
}

// Results evaluates the output expressions at every cell of the active
// dimension.
func (o *Outputter) Results(s *State) (map[string][]float64, error) {
	if err := o.CheckOutputVars(s); err != nil {
		return nil, err
	}
	data := s.modelData()
	n := len(s.Obstacle())
	out := make(map[string][]float64, len(o.outputVariables))
	params := make(map[string]interface{}, len(o.modelVariables))
	for name, expr := range o.outputVariables {
		if v, ok := data[expr]; ok {
			out[name] = append([]float64(nil), v...)
			continue
		}
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("aerotunnel: output variable %s: %v", name, err)
		}
		vars := removeDuplicates(expression.Vars())
		r := make([]float64, n)
		for i := range r {
			for _, v := range vars {
				params[v] = data[v][i]
			}
			val, err := expression.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("aerotunnel: evaluating %s: %v", name, err)
			}
			f, ok := val.(float64)
			if !ok {
				return nil, fmt.Errorf("aerotunnel: output variable %s evaluates to %T, not a number", name, val)
			}
			r[i] = f
		}
		out[name] = r
	}
	return out, nil
}

// Output returns a function that writes the evaluated output variables and
// the current diagnostics to the Outputter's file.
func (o *Outputter) Output() DomainManipulator {
	return func(sim *Simulation) error {
		results, err := o.Results(sim.State)
		if err != nil {
			return err
		}
		f, err := os.Create(o.fileName)
		if err != nil {
			return fmt.Errorf("aerotunnel: creating output file: %v", err)
		}
		if err := WriteNetCDF(f, sim.State, results); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
}

// WriteNetCDF writes the given per-cell variables, the grid extents, the
// simulation parameters and the diagnostics of s to w as a NetCDF file.
func WriteNetCDF(w *os.File, s *State, vars map[string][]float64) error {
	dims := []string{"y", "x"}
	if s.Params.Dimension == Dim3D {
		dims = []string{"z", "y", "x"}
	}
	h := cdf.NewHeader(dims, s.Shape())
	h.AddAttribute("", "comment", "AeroTunnel field snapshot")

	p := s.Params
	g := s.Geometry
	d := s.Diagnostics()
	h.AddAttribute("", "solver", p.Solver.String())
	h.AddAttribute("", "dimension", p.Dimension.String())
	h.AddAttribute("", "geometry", g.Kind.String())
	if g.PresetID != "" {
		h.AddAttribute("", "preset", g.PresetID)
	}
	h.AddAttribute("", "angle", []float64{g.Angle})
	h.AddAttribute("", "mach", []float64{p.Mach})
	h.AddAttribute("", "reynolds", []float64{p.Reynolds})
	h.AddAttribute("", "viscosity", []float64{p.Viscosity})
	h.AddAttribute("", "iterations", []int32{int32(d.Iterations)})
	h.AddAttribute("", "drag", []float64{d.Drag})
	h.AddAttribute("", "lift", []float64{d.Lift})
	h.AddAttribute("", "liftToDrag", []float64{d.LD})
	h.AddAttribute("", "strouhal", []float64{d.Strouhal})
	h.AddAttribute("", "sideForce", []float64{d.SideForce})

	h.AddAttribute("", "config_key", s.ConfigKey())
	h.AddAttribute("", "data_version", DataVersion)

	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, v := range names {
		h.AddVariable(v, dims, []float32{0})
		desc, units := describe(v)
		h.AddAttribute(v, "description", desc)
		h.AddAttribute(v, "units", units)
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("aerotunnel: creating NetCDF header: %v", err)
	}

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("aerotunnel: creating NetCDF file: %v", err)
	}
	for _, v := range names {
		if err = writeNCF(f, v, vars[v]); err != nil {
			return fmt.Errorf("aerotunnel: writing variable %s to NetCDF file: %v", v, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, v string, data []float64) error {
	end := f.Header.Lengths(v)
	n := 1
	for _, l := range end {
		n *= l
	}
	if len(data) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data))
	}
	data32 := make([]float32, len(data))
	for i, e := range data {
		data32[i] = float32(e)
	}
	w := f.Writer(v, make([]int, len(end)), end)
	_, err := w.Write(data32)
	return err
}

// describe returns the description and units of a model variable.
func describe(v string) (description, units string) {
	switch v {
	case "velocityX", "velocityY", "velocityZ":
		return fmt.Sprintf("Velocity component along %s", v[len(v)-1:]), "lattice units"
	case "pressure":
		return "Pressure", "lattice units"
	case "density":
		return "Density", "lattice units"
	case "vorticity":
		return "Vorticity (scalar curl in 2D, curl magnitude in 3D)", "1/step"
	case "obstacle":
		return "Obstacle mask", "1=solid, 0=fluid"
	}
	return "Derived output variable " + v, "-"
}

// Snapshot is the content of a NetCDF file written by WriteNetCDF.
type Snapshot struct {
	// Fields holds the per-cell variables, shaped like the grid with the
	// slowest-varying extent first.
	Fields map[string]*sparse.DenseArray

	// Attributes holds the global attributes.
	Attributes map[string]interface{}
}

// ReadNetCDF reads a snapshot written by WriteNetCDF.
func ReadNetCDF(r cdf.ReaderWriterAt) (*Snapshot, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("aerotunnel: opening NetCDF file: %v", err)
	}
	if v, ok := f.Header.GetAttribute("", "data_version").(string); !ok || v != DataVersion {
		return nil, fmt.Errorf("aerotunnel.ReadNetCDF: data version %v is incompatible "+
			"with the required version %s", f.Header.GetAttribute("", "data_version"), DataVersion)
	}
	snap := &Snapshot{
		Fields:     make(map[string]*sparse.DenseArray),
		Attributes: make(map[string]interface{}),
	}
	for _, a := range f.Header.Attributes("") {
		snap.Attributes[a] = f.Header.GetAttribute("", a)
	}
	for _, v := range f.Header.Variables() {
		data := sparse.ZerosDense(f.Header.Lengths(v)...)
		tmp := make([]float32, len(data.Elements))
		if _, err := f.Reader(v, nil, nil).Read(tmp); err != nil {
			return nil, fmt.Errorf("aerotunnel: reading variable %s: %v", v, err)
		}
		for i, e := range tmp {
			data.Elements[i] = float64(e)
		}
		snap.Fields[v] = data
	}
	return snap, nil
}
