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

// Package aerotunnel is a virtual wind tunnel. It computes approximate
// velocity, pressure, and vorticity fields around an obstacle on a uniform
// 2D or 3D grid using one of six interchangeable flow solvers, and derives
// aerodynamic diagnostics (drag and lift coefficients, lift-to-drag ratio,
// and Strouhal number) after every step.
package aerotunnel

// Version gives the version number.
const Version = "1.0.0"

// DataVersion is the version of the snapshot file layout written by
// WriteNetCDF.
const DataVersion = "1.0.0"
