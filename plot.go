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
	"io"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// History records the diagnostics of successive steps. It is safe for
// concurrent use, so a web handler can draw it while the simulation runs.
type History struct {
	mu      sync.RWMutex
	records []Diagnostics
}

// Add appends d to the history.
func (h *History) Add(d Diagnostics) {
	h.mu.Lock()
	h.records = append(h.records, d)
	h.mu.Unlock()
}

// Len returns the number of records.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Records returns a copy of the recorded diagnostics.
func (h *History) Records() []Diagnostics {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Diagnostics(nil), h.records...)
}

// Lift returns the recorded lift coefficients.
func (h *History) Lift() []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]float64, len(h.records))
	for i, r := range h.records {
		out[i] = r.Lift
	}
	return out
}

// Plot returns a plot of the drag and lift coefficients against iteration.
func (h *History) Plot() (*plot.Plot, error) {
	records := h.Records()
	drag := make(plotter.XYs, len(records))
	lift := make(plotter.XYs, len(records))
	for i, r := range records {
		drag[i].X, drag[i].Y = float64(r.Iterations), r.Drag
		lift[i].X, lift[i].Y = float64(r.Iterations), r.Lift
	}
	p := plot.New()
	p.Title.Text = "Force coefficients"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Coefficient"
	p.Legend.Top = true
	if len(records) == 0 {
		return p, nil
	}
	if err := plotutil.AddLines(p, "drag", drag, "lift", lift); err != nil {
		return nil, fmt.Errorf("aerotunnel: plotting history: %v", err)
	}
	return p, nil
}

// WritePNG draws the history plot to w as a PNG image of the given size.
func (h *History) WritePNG(w io.Writer, width, height vg.Length) error {
	p, err := h.Plot()
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("aerotunnel: rendering history plot: %v", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
