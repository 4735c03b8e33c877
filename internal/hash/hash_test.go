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

package hash

import "testing"

type config struct {
	Name  string
	Grid  [3]int
	Angle float64
	Mesh  []float64
}

func TestKey(t *testing.T) {
	a := config{Name: "wing", Grid: [3]int{64, 32, 16}, Angle: 4, Mesh: []float64{0, 1, 2}}
	b := a
	b.Mesh = []float64{0, 1, 2}
	if Key(a) != Key(b) {
		t.Error("equal objects have different keys")
	}
	b.Angle = 5
	if Key(a) == Key(b) {
		t.Error("different objects have the same key")
	}
	if k := Key(a); len(k) != 16 {
		t.Errorf("key %q has length %d", k, len(k))
	}
}

func TestKeyFallback(t *testing.T) {
	var p *config
	k1, k2 := Key(p), Key(p)
	if k1 != k2 || k1 == "" {
		t.Errorf("fallback keys %q and %q", k1, k2)
	}
	if k1 == Key(config{}) {
		t.Error("nil pointer and zero value have the same key")
	}
}

func TestKeyNil(t *testing.T) {
	if Key(nil) != Key(nil) {
		t.Error("nil keys differ")
	}
	var p *config
	if Key(nil) == Key(p) {
		t.Error("untyped and typed nil have the same key")
	}
}
