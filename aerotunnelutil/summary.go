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
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spatialmodel/aerotunnel"
	"github.com/spatialmodel/aerotunnel/mesh"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// chartWidth is the maximum number of columns in the lift chart.
const chartWidth = 60

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

// Summary returns the final diagnostics and, when there are at least two
// samples, a chart of the lift history.
func Summary(d aerotunnel.Diagnostics, lift []float64) string {
	stats := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("AeroTunnel results"),
		row("iterations", fmt.Sprint(d.Iterations)),
		row("drag", fmt.Sprintf("%.4g", d.Drag)),
		row("lift", fmt.Sprintf("%.4g", d.Lift)),
		row("L/D", fmt.Sprintf("%.4g", d.LD)),
		row("Strouhal", fmt.Sprintf("%.4g", d.Strouhal)),
		row("side force", fmt.Sprintf("%.4g", d.SideForce)),
	)
	if len(lift) < 2 {
		return boxStyle.Render(stats)
	}
	chart := asciigraph.Plot(lift, asciigraph.Height(8), asciigraph.Width(min(len(lift), chartWidth)),
		asciigraph.Caption("lift coefficient"))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, stats, graphStyle.Render(chart)))
}

// scenarioTable lists scenarios.
func scenarioTable(scenarios map[string]aerotunnel.Scenario) string {
	lines := []string{headerStyle.Render("Scenarios")}
	for _, name := range aerotunnel.ScenarioNames(scenarios) {
		sc := scenarios[name]
		grid := fmt.Sprintf("%d×%d", sc.Nx, sc.Ny)
		if sc.Nz > 0 {
			grid += fmt.Sprintf("×%d", sc.Nz)
		}
		lines = append(lines, row(name, fmt.Sprintf("%s: %s, %s, %s at %g°, M %g, Re %g",
			sc.Label, sc.Solver, grid, sc.Geometry, sc.Angle, sc.Mach, sc.Reynolds)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// presetTable lists the preset meshes.
func presetTable() string {
	lines := []string{headerStyle.Render("Preset meshes")}
	for _, id := range mesh.PresetIDs() {
		p := mesh.Presets[id]
		lines = append(lines, row(id, fmt.Sprintf("%s (%s): %s", p.Label, p.Recommended, p.Description)))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
