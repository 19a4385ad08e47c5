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
	"log"
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// An OverlapMethod decides the value of a cell that is covered by more
// than one feature.
type OverlapMethod int

const (
	// OverlapDefault selects the basic behaviour for the geometry type:
	// first-write-wins for polygons, unconditional overwrite for lines.
	OverlapDefault OverlapMethod = 0

	OverlapFirst             OverlapMethod = 1
	OverlapMin               OverlapMethod = 2
	OverlapMax               OverlapMethod = 3
	OverlapSum               OverlapMethod = 4
	OverlapLargestCellArea   OverlapMethod = 5
	OverlapWeightedAverage   OverlapMethod = 6
	OverlapSmallestCellArea  OverlapMethod = 7
	OverlapLargestTotalArea  OverlapMethod = 8
	OverlapSmallestTotalArea OverlapMethod = 9
	OverlapLast              OverlapMethod = 10
)

// A CellOverlapMethod decides whether a cell counts as covered by a
// polygon.
type CellOverlapMethod int

const (
	// CellCenter counts a cell as covered when its center point lies
	// inside the polygon. A center exactly on a polygon edge counts as
	// inside.
	CellCenter CellOverlapMethod = 1
	// CellTrueOverlap counts a cell as covered when the intersection of
	// the cell rectangle and the polygon has positive area; the area is
	// recorded as the cell's weight.
	CellTrueOverlap CellOverlapMethod = 2
)

// AreaBased reports whether m needs per-cell overlap weights, which are
// only available with CellTrueOverlap (polygons) or length tracking
// (lines).
func (m OverlapMethod) AreaBased() bool {
	switch m {
	case OverlapLargestCellArea, OverlapWeightedAverage, OverlapSmallestCellArea,
		OverlapLargestTotalArea, OverlapSmallestTotalArea:
		return true
	}
	return false
}

// Walk tuning constants, in length units. A segment is exhausted within
// a cell when less than lineMargin of it remains; probe points step in
// probeStep increments when crossing a cell edge, to get clear of
// clipping degeneracies at shared edges.
const (
	lineMargin = 0.05
	probeStep  = 0.1
)

// A Rasterizer converts GEN vector features to an IDF raster grid.
type Rasterizer struct {
	// CellSize is the grid resolution in both directions.
	CellSize float64

	// NoData is the sentinel for cells not covered by any feature.
	NoData float64

	// Bounds optionally fixes the target grid extent. When nil the
	// extent is derived from the feature collection and snapped outward
	// to a cell-size multiple.
	Bounds *geom.Bounds

	// Values resolves the raster value for each feature.
	Values ValueSource

	Overlap     OverlapMethod
	CellOverlap CellOverlapMethod

	// TrackAngle records, per cell, the direction between the first and
	// last point a line traverses within the cell, in an angle side
	// grid. Only the first non-NoData angle is kept per cell.
	TrackAngle bool

	// TrackLength exports the per-cell accumulated line length (or
	// covered polygon area) grid alongside the value grid.
	TrackLength bool

	// OrderBySize rasterizes features large-to-small (by area for
	// polygons, length for lines) instead of in input order.
	OrderBySize bool

	// IgnoreWinding suppresses the warning for polygons whose outer
	// ring is wound counter-clockwise.
	IgnoreWinding bool

	// Mask optionally restricts rasterization to cells whose centers
	// lie inside the mask polygon.
	Mask geom.Polygon
}

// A RasterResult holds the grids produced by rasterization. Length,
// Angle, and Area are nil unless the corresponding tracking option was
// enabled.
type RasterResult struct {
	Values *Grid
	Length *Grid
	Angle  *Grid
	Area   *Grid
}

// lineWalk is the state of a line walk across the grid: the current
// cell, the first and most recent points traversed within it, and the
// length accumulated there by the current feature.
type lineWalk struct {
	row, col int
	entry    geom.Point
	last     geom.Point
	cellLen  float64
	active   bool
}

// Rasterize converts fc to a raster grid.
func (r *Rasterizer) Rasterize(fc *FeatureCollection) (*RasterResult, error) {
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("genidf: no features to rasterize")
	}
	if r.CellOverlap == 0 {
		r.CellOverlap = CellCenter
	}
	if r.Overlap < OverlapDefault || r.Overlap > OverlapLast {
		return nil, fmt.Errorf("genidf: unknown overlap method %d", r.Overlap)
	}
	if err := r.Values.Validate(); err != nil {
		return nil, err
	}
	b := r.Bounds
	if b == nil {
		b = snapBounds(fc.Bounds(), r.CellSize, r.CellSize)
	}
	grid, err := NewGrid(b, r.CellSize, r.CellSize, r.NoData)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(fc.Features))
	for i := range order {
		order[i] = i
	}
	if r.OrderBySize {
		sort.SliceStable(order, func(i, j int) bool {
			return fc.Features[order[i]].size() > fc.Features[order[j]].size()
		})
	}

	res := &RasterResult{Values: grid}
	w := &cellWriter{grid: grid}
	length := grid.CopyShape() // always maintained for lines; exported on request
	if r.TrackAngle {
		res.Angle = grid.CopyShape()
	}
	var hasLines, hasPolygons bool

	method := r.Overlap
	if method != OverlapDefault && method.AreaBased() && r.CellOverlap != CellTrueOverlap {
		return nil, fmt.Errorf("genidf: overlap method %d needs cell-overlap method 2 (true overlap)", method)
	}

	for _, i := range order {
		f := fc.Features[i]
		v, ok := r.Values.Value(fc, i, f)
		if !ok {
			log.Printf("genidf: feature %s: value %g is in a skip range; feature skipped", f.ID, v)
			continue
		}
		switch g := f.Geom.(type) {
		case geom.Polygon:
			hasPolygons = true
			r.rasterizePolygon(res, w, f.ID, g, v, r.polygonMethod(method))
		case geom.LineString:
			hasLines = true
			r.rasterizeLine(res, w, length, f.ID, g, v, r.lineMethod(method))
		case geom.Point:
			if row, col, inGrid := grid.RowCol(g); inGrid && r.inMask(grid, row, col) {
				w.write(v, 1, 0, row, col, r.polygonMethod(method))
			}
		default:
			log.Printf("genidf: feature %s: unsupported geometry type %T; feature skipped", f.ID, f.Geom)
		}
	}
	if method == OverlapWeightedAverage {
		w.finishWeightedAverage()
	}
	// A tracked length of zero marks a degenerate pass that must not
	// count as coverage; reconcile the value and length grids. Only
	// meaningful when the length grid was actually fed by lines.
	if hasLines && !hasPolygons {
		reconcileLengthGrid(grid, length)
	}
	if r.TrackLength {
		res.Length = length
	}
	return res, nil
}

// polygonMethod and lineMethod substitute the per-geometry basic
// behaviour for OverlapDefault.
func (r *Rasterizer) polygonMethod(m OverlapMethod) OverlapMethod {
	if m == OverlapDefault {
		return OverlapFirst
	}
	return m
}

func (r *Rasterizer) lineMethod(m OverlapMethod) OverlapMethod {
	if m == OverlapDefault {
		return OverlapLast
	}
	return m
}

func (r *Rasterizer) inMask(g *Grid, row, col int) bool {
	if r.Mask == nil {
		return true
	}
	return g.CellCenter(row, col).Within(r.Mask) != geom.Outside
}

// cellRange returns the grid index range covered by b, clipped to the
// grid.
func cellRange(g *Grid, b *geom.Bounds) (row0, row1, col0, col1 int) {
	col0 = int(math.Floor((b.Min.X - g.Xo) / g.Dx))
	col1 = int(math.Floor((b.Max.X - g.Xo) / g.Dx))
	row0 = int(math.Floor((g.yMax() - b.Max.Y) / g.Dy))
	row1 = int(math.Floor((g.yMax() - b.Min.Y) / g.Dy))
	if col0 < 0 {
		col0 = 0
	}
	if row0 < 0 {
		row0 = 0
	}
	if col1 >= g.Nx() {
		col1 = g.Nx() - 1
	}
	if row1 >= g.Ny() {
		row1 = g.Ny() - 1
	}
	return
}

func (r *Rasterizer) rasterizePolygon(res *RasterResult, w *cellWriter, id string, poly geom.Polygon, v float64, method OverlapMethod) {
	grid := w.grid
	if len(poly) == 0 || len(poly[0]) < 3 {
		log.Printf("genidf: feature %s: degenerate polygon skipped", id)
		return
	}
	if !r.IgnoreWinding && !isClockwise(poly[0]) {
		// The basic algorithm has no island exclusion; a
		// counter-clockwise ring is rasterized like any other polygon.
		log.Printf("genidf: feature %s: outer ring is wound counter-clockwise (island); rasterizing without island exclusion", id)
	}
	featArea := math.Abs(ringArea(poly[0]))
	row0, row1, col0, col1 := cellRange(grid, poly.Bounds())
	for row := row0; row <= row1; row++ {
		for col := col0; col <= col1; col++ {
			if !r.inMask(grid, row, col) {
				continue
			}
			switch r.CellOverlap {
			case CellTrueOverlap:
				isect := poly.Intersection(grid.CellPolygon(row, col))
				if isect == nil {
					continue
				}
				a := isect.Area()
				if a <= 0 {
					continue
				}
				if res.Area == nil {
					res.Area = grid.CopyShape()
				}
				addToCell(res.Area, a, row, col)
				w.write(v, a, featArea, row, col, method)
			default: // cell-center-inside
				in := grid.CellCenter(row, col).Within(poly)
				if in == geom.Inside || in == geom.OnEdge {
					w.write(v, 1, featArea, row, col, method)
				}
			}
		}
	}
}

func (r *Rasterizer) rasterizeLine(res *RasterResult, w *cellWriter, length *Grid, id string, line geom.LineString, v float64, method OverlapMethod) {
	grid := w.grid
	if len(line) < 2 {
		log.Printf("genidf: feature %s: degenerate line skipped", id)
		return
	}
	lineLen := line.Length()
	var st lineWalk
	finish := func() {
		if !st.active {
			return
		}
		if r.inMask(grid, st.row, st.col) {
			w.write(v, st.cellLen, lineLen, st.row, st.col, method)
			if res.Angle != nil && res.Angle.IsNoData(st.row, st.col) && st.entry != st.last {
				res.Angle.Set(segmentAngle(st.entry, st.last), st.row, st.col)
			}
		}
		st.cellLen = 0
	}
	for i := 0; i < len(line)-1; i++ {
		a := geom.Point(line[i])
		b := geom.Point(line[i+1])
		segLen := distance(a, b)
		if segLen == 0 {
			continue
		}
		if !st.active {
			row, col, ok := seedWalk(grid, a, b)
			if !ok {
				continue // the whole segment lies outside the grid
			}
			st = lineWalk{row: row, col: col, entry: a, last: a, active: true}
		}
		cur := a
		for {
			c1, c2, ok := clipSegment(cur, b, grid.CellBounds(st.row, st.col))
			if !ok {
				// No intersection between the remaining segment and the
				// current cell. Best-effort recovery: close out this
				// cell and re-seed the walk at the cell containing the
				// segment's far endpoint.
				log.Printf("genidf: feature %s: segment missed cell (%d, %d); re-seeding walk at segment end", id, st.row, st.col)
				finish()
				row, col, inGrid := grid.RowCol(b)
				if !inGrid {
					st.active = false
					break
				}
				st = lineWalk{row: row, col: col, entry: b, last: b, active: true}
				break
			}
			if d := distance(c1, c2); d > 0 {
				addToCell(length, d, st.row, st.col)
				st.cellLen += d
			}
			st.last = c2
			if distance(c2, b) < lineMargin {
				// segment exhausted within this cell; the next segment
				// continues here
				st.last = b
				break
			}
			nrow, ncol, found := stepToNextCell(grid, c2, b, st.row, st.col)
			if !found {
				// The probe reached the segment end (or left the grid)
				// without entering a new cell.
				st.last = b
				break
			}
			finish()
			st.row, st.col = nrow, ncol
			st.entry, st.last = c2, c2
			cur = c2
		}
	}
	// the final cell receives the feature value via the same policy
	finish()
}

// seedWalk finds the first grid cell touched by the segment from a to b.
func seedWalk(g *Grid, a, b geom.Point) (row, col int, ok bool) {
	if row, col, ok = g.RowCol(a); ok {
		return row, col, true
	}
	c1, _, clipped := clipSegment(a, b, g.Bounds())
	if !clipped {
		return 0, 0, false
	}
	return g.RowCol(c1)
}

// stepToNextCell advances a probe point from exit toward end in
// probeStep increments until it lands in a cell other than (row, col).
func stepToNextCell(g *Grid, exit, end geom.Point, row, col int) (nrow, ncol int, found bool) {
	total := distance(exit, end)
	if total == 0 {
		return 0, 0, false
	}
	ux := (end.X - exit.X) / total
	uy := (end.Y - exit.Y) / total
	for d := probeStep; d <= total; d += probeStep {
		p := geom.Point{X: exit.X + ux*d, Y: exit.Y + uy*d}
		pr, pc, ok := g.RowCol(p)
		if !ok {
			return 0, 0, false
		}
		if pr != row || pc != col {
			return pr, pc, true
		}
	}
	return 0, 0, false
}

// addToCell accumulates v into a grid that may still hold the NoData
// sentinel.
func addToCell(g *Grid, v float64, row, col int) {
	if g.IsNoData(row, col) {
		g.Set(v, row, col)
	} else {
		g.Data.AddVal(v, row, col)
	}
}

// A cellWriter applies the overlap-resolution policy when writing
// feature values into the target grid. The comparator grid backing the
// area-based methods is allocated lazily, so the writer is self
// contained and Rasterize stays re-entrant.
type cellWriter struct {
	grid    *Grid
	weights *Grid // per-cell comparator or weight-sum grid
}

func (w *cellWriter) aux() *Grid {
	if w.weights == nil {
		w.weights = w.grid.CopyShape()
	}
	return w.weights
}

func (w *cellWriter) auxValue(row, col int) float64 {
	a := w.aux()
	if a.IsNoData(row, col) {
		return 0
	}
	return a.Get(row, col)
}

// write writes v to the cell at (row, col) under the given policy.
// weight is the feature's coverage of this cell (intersection area for
// polygons, in-cell length for lines; 1 in cell-center mode) and total
// the feature's overall size.
func (w *cellWriter) write(v, weight, total float64, row, col int, method OverlapMethod) {
	g := w.grid
	noData := g.IsNoData(row, col)
	switch method {
	case OverlapFirst:
		if noData {
			g.Set(v, row, col)
		}
	case OverlapLast:
		g.Set(v, row, col)
	case OverlapMin:
		if noData || v < g.Get(row, col) {
			g.Set(v, row, col)
		}
	case OverlapMax:
		if noData || v > g.Get(row, col) {
			g.Set(v, row, col)
		}
	case OverlapSum:
		addToCell(g, v, row, col)
	case OverlapWeightedAverage:
		// accumulate weighted sums; finishWeightedAverage divides
		addToCell(g, v*weight, row, col)
		addToCell(w.aux(), weight, row, col)
	case OverlapLargestCellArea:
		if noData || weight > w.auxValue(row, col) {
			g.Set(v, row, col)
			w.aux().Set(weight, row, col)
		}
	case OverlapSmallestCellArea:
		if noData || weight < w.auxValue(row, col) {
			g.Set(v, row, col)
			w.aux().Set(weight, row, col)
		}
	case OverlapLargestTotalArea:
		if noData || total > w.auxValue(row, col) {
			g.Set(v, row, col)
			w.aux().Set(total, row, col)
		}
	case OverlapSmallestTotalArea:
		if noData || total < w.auxValue(row, col) {
			g.Set(v, row, col)
			w.aux().Set(total, row, col)
		}
	default:
		panic(fmt.Errorf("genidf: invalid overlap method %d", method))
	}
}

// finishWeightedAverage divides the accumulated weighted sums by the
// accumulated weights.
func (w *cellWriter) finishWeightedAverage() {
	g := w.grid
	for row := 0; row < g.Ny(); row++ {
		for col := 0; col < g.Nx(); col++ {
			if g.IsNoData(row, col) {
				continue
			}
			if wt := w.auxValue(row, col); wt > 0 {
				g.Set(g.Get(row, col)/wt, row, col)
			} else {
				g.Set(g.NoData, row, col)
			}
		}
	}
}

// reconcileLengthGrid resets to NoData every cell where the value and
// length grids disagree: a value without a tracked length (or with a
// zero length) indicates a degenerate pass that should not count as
// coverage, and vice versa.
func reconcileLengthGrid(values, length *Grid) {
	for row := 0; row < values.Ny(); row++ {
		for col := 0; col < values.Nx(); col++ {
			hasValue := !values.IsNoData(row, col)
			hasLength := !length.IsNoData(row, col) && length.Get(row, col) != 0
			if hasValue != hasLength {
				values.Set(values.NoData, row, col)
				length.Set(length.NoData, row, col)
			}
		}
	}
}
