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
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOutputterDerived(t *testing.T) {
	s, sol := newTestState(t, NavierStokes2D, Cylinder, 30, 20, 4)
	sol.Step(0)
	o, err := NewOutputter("", map[string]string{
		"u":      "velocityX",
		"speed":  "sqrt(u*u + velocityY*velocityY)",
		"speed2": "speed * 2",
		"fluid":  "1 - obstacle",
		"xpos":   "x",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.CheckOutputVars(s); err != nil {
		t.Fatal(err)
	}
	r, err := o.Results(s)
	if err != nil {
		t.Fatal(err)
	}
	f := s.Fields2D
	for c := range f.VelocityX {
		want := math.Hypot(f.VelocityX[c], f.VelocityY[c])
		if absDifferent(r["speed"][c], want, testTolerance) {
			t.Fatalf("speed[%d]: have %g, want %g", c, r["speed"][c], want)
		}
		if absDifferent(r["speed2"][c], 2*want, testTolerance) {
			t.Fatalf("speed2[%d]: have %g, want %g", c, r["speed2"][c], 2*want)
		}
		if r["fluid"][c] != 1-float64(f.Obstacle[c]) {
			t.Fatalf("fluid[%d] = %g", c, r["fluid"][c])
		}
		if r["xpos"][c] != float64(c%30) {
			t.Fatalf("xpos[%d] = %g", c, r["xpos"][c])
		}
	}
}

func TestOutputterDefault(t *testing.T) {
	o, err := NewOutputter("", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"density", "obstacle", "pressure", "velocityX", "velocityY", "vorticity"}
	if !reflect.DeepEqual(o.modelVariables, want) {
		t.Errorf("have %v, want %v", o.modelVariables, want)
	}
}

func TestOutputterCycle(t *testing.T) {
	_, err := NewOutputter("", map[string]string{
		"a": "b + 1",
		"b": "a * 2",
	}, nil)
	if err == nil {
		t.Error("expected an error for a cycle")
	}
}

func TestOutputterUndefined(t *testing.T) {
	s := NewState()
	s.ResizeGrid(10, 8, 4)
	o, err := NewOutputter("", map[string]string{"w": "velocityZ"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// velocityZ only exists in 3D.
	if err := o.CheckOutputVars(s); err == nil {
		t.Error("expected an error in 2D")
	}
	s.SetDimension(Dim3D)
	if err := o.CheckOutputVars(s); err != nil {
		t.Error(err)
	}
	if _, err := NewOutputter("", map[string]string{"bad": "velocityX +"}, nil); err == nil {
		t.Error("expected a parse error")
	}
}

func TestNetCDFRoundTrip(t *testing.T) {
	for _, kind := range []SolverKind{Vortex2D, LBM3D} {
		s, sol := newTestState(t, kind, Sphere, 20, 12, 8)
		sol.Step(0)
		sol.Step(0)
		o, err := NewOutputter("", map[string]string{
			"pressure": "pressure",
			"obstacle": "obstacle",
			"speed":    "abs(velocityX)",
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		r, err := o.Results(s)
		if err != nil {
			t.Fatal(err)
		}
		f, err := os.Create(filepath.Join(t.TempDir(), "out.nc"))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := WriteNetCDF(f, s, r); err != nil {
			t.Fatal(err)
		}
		snap, err := ReadNetCDF(f)
		if err != nil {
			t.Fatal(err)
		}
		if len(snap.Fields) != 3 {
			t.Errorf("%v: have %d variables, want 3", kind, len(snap.Fields))
		}
		p := snap.Fields["pressure"]
		if !reflect.DeepEqual(p.Shape, s.Shape()) {
			t.Errorf("%v: shape %v, want %v", kind, p.Shape, s.Shape())
		}
		for i, v := range r["pressure"] {
			if different(p.Elements[i], v, 1e-6) {
				t.Fatalf("%v: pressure[%d]: have %g, want %g", kind, i, p.Elements[i], v)
			}
		}
		for i, v := range s.Obstacle() {
			if snap.Fields["obstacle"].Elements[i] != float64(v) {
				t.Fatalf("%v: obstacle[%d] differs", kind, i)
			}
		}
		if a := snap.Attributes["solver"]; a != kind.String() {
			t.Errorf("solver attribute %v", a)
		}
		if a := snap.Attributes["iterations"]; !reflect.DeepEqual(a, []int32{2}) {
			t.Errorf("iterations attribute %v", a)
		}
		if a := snap.Attributes["config_key"]; a != s.ConfigKey() {
			t.Errorf("config key attribute %v", a)
		}
		if a := snap.Attributes["drag"]; !reflect.DeepEqual(a, []float64{s.Drag}) {
			t.Errorf("drag attribute %v, want %g", a, s.Drag)
		}
	}
}

func TestOutputManipulator(t *testing.T) {
	file := filepath.Join(t.TempDir(), "snapshot.nc")
	o, err := NewOutputter(file, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sim := NewSimulation()
	sim.InitFuncs = []DomainManipulator{SetGrid(24, 12, 4), SelectSolver(Potential2D)}
	sim.RunFuncs = []DomainManipulator{Advance(), IterationLimit(2)}
	sim.CleanupFuncs = []DomainManipulator{o.Output()}
	if err := sim.Init(); err != nil {
		t.Fatal(err)
	}
	if err := sim.Run(); err != nil {
		t.Fatal(err)
	}
	if err := sim.Cleanup(); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	snap, err := ReadNetCDF(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Fields) != len(DefaultOutputVariables) {
		t.Errorf("have %d variables, want %d", len(snap.Fields), len(DefaultOutputVariables))
	}
	if snap.Attributes["data_version"] != DataVersion {
		t.Errorf("data version %v", snap.Attributes["data_version"])
	}
}
