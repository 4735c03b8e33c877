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
	"runtime"
	"sync"
)

// parallelFor splits the index range [0, n) into one contiguous chunk per
// processor and runs fn concurrently on each chunk, returning when all
// chunks are finished. fn must only write to elements belonging to its own
// chunk, or to elements that no other index writes.
func parallelFor(n int, fn func(start, end int)) {
	nprocs := runtime.GOMAXPROCS(0) // number of processors
	if nprocs > n {
		nprocs = n
	}
	if nprocs <= 1 {
		fn(0, n)
		return
	}
	chunk := (n + nprocs - 1) / nprocs
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		start := pp * chunk
		end := min(start+chunk, n)
		go func(start, end int) {
			defer wg.Done()
			if start < end {
				fn(start, end)
			}
		}(start, end)
	}
	wg.Wait()
}
