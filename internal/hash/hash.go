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

// Package hash computes stable keys for simulation configurations.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"io"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Key returns a hexadecimal key for object. Equal objects give equal keys.
func Key(object interface{}) string {
	h := fnv.New64a()
	if err := encode(h, object); err == nil {
		return fmt.Sprintf("%016x", h.Sum64())
	}
	// Values gob rejects, such as nil pointers, are keyed by a
	// deterministic printout instead.
	h.Reset()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	return fmt.Sprintf("%016x", h.Sum64())
}

// encode gob-encodes object to w. gob panics rather than returning an error
// for some inputs, so panics are converted to errors.
func encode(w io.Writer, object interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hash: gob: %v", r)
		}
	}()
	if v := reflect.ValueOf(object); !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return fmt.Errorf("hash: cannot gob-encode %T(nil)", object)
	}
	return gob.NewEncoder(w).Encode(object)
}
