/*
Copyright © 2025 the GenIDF authors.
This file is part of GenIDF.

GenIDF is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GenIDF is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GenIDF.  If not, see <http://www.gnu.org/licenses/>.
*/

package genidf

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// A Grid is a regular raster: a dense array of float values over a
// rectangular extent, with a NoData sentinel marking cells that hold no
// measurement. Row 0 is the northernmost row and column 0 the
// westernmost column; Data.Shape is [Ny, Nx].
type Grid struct {
	Xo, Yo float64 // southwest corner
	Dx, Dy float64
	NoData float64
	Data   *sparse.DenseArray
}

// NewGrid creates a grid covering b with the given cell sizes, with
// every cell initialized to noData. The extent must be an exact
// multiple of the cell size in both directions (use snapBounds first).
func NewGrid(b *geom.Bounds, dx, dy, noData float64) (*Grid, error) {
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("genidf: cell size must be positive; got %g x %g", dx, dy)
	}
	if b == nil || b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y {
		return nil, fmt.Errorf("genidf: invalid grid extent %+v", b)
	}
	nx := int(math.Round((b.Max.X - b.Min.X) / dx))
	ny := int(math.Round((b.Max.Y - b.Min.Y) / dy))
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("genidf: grid extent %+v smaller than one %g x %g cell", b, dx, dy)
	}
	g := &Grid{Xo: b.Min.X, Yo: b.Min.Y, Dx: dx, Dy: dy, NoData: noData,
		Data: sparse.ZerosDense(ny, nx)}
	for i := range g.Data.Elements {
		g.Data.Elements[i] = noData
	}
	return g, nil
}

// CopyShape returns a new grid with the same georeferencing and NoData
// sentinel as g, with all cells set to NoData. Used for the length,
// angle, and area side grids that are co-registered with the value grid.
func (g *Grid) CopyShape() *Grid {
	o := &Grid{Xo: g.Xo, Yo: g.Yo, Dx: g.Dx, Dy: g.Dy, NoData: g.NoData,
		Data: sparse.ZerosDense(g.Ny(), g.Nx())}
	for i := range o.Data.Elements {
		o.Data.Elements[i] = g.NoData
	}
	return o
}

// Nx returns the number of columns.
func (g *Grid) Nx() int { return g.Data.Shape[1] }

// Ny returns the number of rows.
func (g *Grid) Ny() int { return g.Data.Shape[0] }

func (g *Grid) yMax() float64 { return g.Yo + float64(g.Ny())*g.Dy }

// Bounds returns the outer extent of the grid.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.Xo, Y: g.Yo},
		Max: geom.Point{X: g.Xo + float64(g.Nx())*g.Dx, Y: g.yMax()},
	}
}

// RowCol returns the indices of the cell containing p. Points exactly on
// the eastern or southern grid boundary belong to the outermost cell so
// that every point of the closed extent maps to a cell.
func (g *Grid) RowCol(p geom.Point) (row, col int, ok bool) {
	col = int(math.Floor((p.X - g.Xo) / g.Dx))
	row = int(math.Floor((g.yMax() - p.Y) / g.Dy))
	if col == g.Nx() && p.X == g.Xo+float64(g.Nx())*g.Dx {
		col--
	}
	if row == g.Ny() && p.Y == g.Yo {
		row--
	}
	ok = row >= 0 && row < g.Ny() && col >= 0 && col < g.Nx()
	return row, col, ok
}

// CellCenter returns the center coordinate of the cell at (row, col).
func (g *Grid) CellCenter(row, col int) geom.Point {
	return geom.Point{
		X: g.Xo + (float64(col)+0.5)*g.Dx,
		Y: g.yMax() - (float64(row)+0.5)*g.Dy,
	}
}

// CellBounds returns the rectangle covered by the cell at (row, col).
func (g *Grid) CellBounds(row, col int) *geom.Bounds {
	x := g.Xo + float64(col)*g.Dx
	y := g.yMax() - float64(row+1)*g.Dy
	return &geom.Bounds{
		Min: geom.Point{X: x, Y: y},
		Max: geom.Point{X: x + g.Dx, Y: y + g.Dy},
	}
}

// CellPolygon returns the cell rectangle as a closed clockwise polygon.
func (g *Grid) CellPolygon(row, col int) geom.Polygon {
	b := g.CellBounds(row, col)
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y}, {X: b.Min.X, Y: b.Max.Y},
		{X: b.Max.X, Y: b.Max.Y}, {X: b.Max.X, Y: b.Min.Y},
		{X: b.Min.X, Y: b.Min.Y},
	}}
}

// Get returns the value of the cell at (row, col).
func (g *Grid) Get(row, col int) float64 { return g.Data.Get(row, col) }

// Set sets the value of the cell at (row, col).
func (g *Grid) Set(v float64, row, col int) { g.Data.Set(v, row, col) }

// IsNoData reports whether the cell at (row, col) holds the NoData
// sentinel.
func (g *Grid) IsNoData(row, col int) bool { return g.Get(row, col) == g.NoData }

// Neighbor directions, indexed clockwise from north. The first four are
// the edge neighbours; the last four are the corner neighbours.
const (
	dirNorth = iota
	dirEast
	dirSouth
	dirWest
	dirNorthEast
	dirSouthEast
	dirSouthWest
	dirNorthWest
)

var neighborOffsets = [8][2]int{
	{-1, 0}, {0, 1}, {1, 0}, {0, -1},
	{-1, 1}, {1, 1}, {1, -1}, {-1, -1},
}

// Neighbor returns the value of the neighbouring cell of (row, col) in
// the given direction. ok is false when the neighbour is outside the
// grid, in which case v is the NoData sentinel.
func (g *Grid) Neighbor(row, col, dir int) (v float64, ok bool) {
	r := row + neighborOffsets[dir][0]
	c := col + neighborOffsets[dir][1]
	if r < 0 || r >= g.Ny() || c < 0 || c >= g.Nx() {
		return g.NoData, false
	}
	return g.Get(r, c), true
}

// snapBounds expands b outward so that both sides are multiples of the
// cell size, anchored at the coordinate origin. A degenerate extent is
// padded to at least one cell.
func snapBounds(b *geom.Bounds, dx, dy float64) *geom.Bounds {
	o := &geom.Bounds{
		Min: geom.Point{X: math.Floor(b.Min.X/dx) * dx, Y: math.Floor(b.Min.Y/dy) * dy},
		Max: geom.Point{X: math.Ceil(b.Max.X/dx) * dx, Y: math.Ceil(b.Max.Y/dy) * dy},
	}
	if o.Max.X == o.Min.X {
		o.Max.X += dx
	}
	if o.Max.Y == o.Min.Y {
		o.Max.Y += dy
	}
	return o
}
