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
	"strconv"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// A HullType selects how raster cells are turned into vector features.
type HullType int

const (
	// HullPoints emits one point per qualifying cell and no polygon.
	HullPoints HullType = iota
	// HullConvex produces the convex hull of the qualifying cell
	// centers, falling back to the raster bounding box for degenerate
	// inputs.
	HullConvex
	// HullConcave produces a k-nearest-neighbour concave hull.
	HullConcave
	// HullEdges traces the exact outer cell-edge boundary into closed
	// polygons, including islands and holes.
	HullEdges
	// HullEdgesPoints is HullEdges plus a side point file of the outer
	// (non-enclosed) cells.
	HullEdgesPoints
	// HullEdgesNoIslands is HullEdges with rings dropped when they are
	// contained in another ring's convex hull. This island removal is
	// correct only for convex exteriors; a known limitation.
	HullEdgesNoIslands
)

// DefaultConcaveK is the default neighbour count for concave hulls.
const DefaultConcaveK = 3

// An Extractor converts an IDF raster grid to GEN vector features.
// Cells qualify when they are not NoData, not zero, and not inside any
// skip range.
type Extractor struct {
	Hull HullType

	// K is the concave-hull neighbour count (minimum 3). Ignored unless
	// Hull is HullConcave.
	K int

	SkipRanges []ValueRange

	// Mask optionally restricts extraction to cells whose centers lie
	// inside the mask polygon.
	Mask geom.Polygon
}

// A CellPoint is the point output for a single raster cell.
type CellPoint struct {
	geom.Point
	Value float64

	// Enclosed reports whether all 8 neighbours of the cell qualify,
	// i.e. the cell is not on the outer boundary.
	Enclosed bool
}

// An ExtractResult holds the vector features extracted from a raster.
// Points is only filled for HullPoints and HullEdgesPoints.
type ExtractResult struct {
	Features *FeatureCollection
	Points   []CellPoint
}

func (e *Extractor) qualifies(g *Grid, row, col int) bool {
	if g.IsNoData(row, col) {
		return false
	}
	v := g.Get(row, col)
	if v == 0 || inRanges(v, e.SkipRanges) {
		return false
	}
	if e.Mask != nil && g.CellCenter(row, col).Within(e.Mask) == geom.Outside {
		return false
	}
	return true
}

// Extract converts g to vector features according to the configured
// hull type. An empty result (no qualifying cells) is not an error;
// callers treat it as a file to skip.
func (e *Extractor) Extract(g *Grid) (*ExtractResult, error) {
	if e.Hull < HullPoints || e.Hull > HullEdgesNoIslands {
		return nil, fmt.Errorf("genidf: unknown hull type %d", e.Hull)
	}
	res := &ExtractResult{Features: &FeatureCollection{}}
	cells := e.qualifyingCells(g)
	if len(cells) == 0 {
		return res, nil
	}
	switch e.Hull {
	case HullPoints:
		res.Points = e.cellPoints(g, cells, false)
		return res, nil
	case HullConvex, HullConcave:
		return res, e.hullPolygon(g, cells, res)
	default:
		return res, e.traceEdges(g, cells, res)
	}
}

type gridCell struct{ row, col int }

func (e *Extractor) qualifyingCells(g *Grid) []gridCell {
	var cells []gridCell
	for row := 0; row < g.Ny(); row++ {
		for col := 0; col < g.Nx(); col++ {
			if e.qualifies(g, row, col) {
				cells = append(cells, gridCell{row, col})
			}
		}
	}
	return cells
}

// cellPoints returns the point output for the given cells. When
// outerOnly is set, cells whose 8 neighbours all qualify are omitted.
func (e *Extractor) cellPoints(g *Grid, cells []gridCell, outerOnly bool) []CellPoint {
	var pts []CellPoint
	for _, c := range cells {
		enclosed := true
		for dir := dirNorth; dir <= dirNorthWest; dir++ {
			r := c.row + neighborOffsets[dir][0]
			cc := c.col + neighborOffsets[dir][1]
			if r < 0 || r >= g.Ny() || cc < 0 || cc >= g.Nx() || !e.qualifies(g, r, cc) {
				enclosed = false
				break
			}
		}
		if outerOnly && enclosed {
			continue
		}
		pts = append(pts, CellPoint{
			Point:    g.CellCenter(c.row, c.col),
			Value:    g.Get(c.row, c.col),
			Enclosed: enclosed,
		})
	}
	return pts
}

// hullPolygon handles HullConvex and HullConcave: one polygon around
// all qualifying cell centers, with a zonal-statistics attribute row.
func (e *Extractor) hullPolygon(g *Grid, cells []gridCell, res *ExtractResult) error {
	pts := make([]geom.Point, len(cells))
	for i, c := range cells {
		pts[i] = g.CellCenter(c.row, c.col)
	}
	var ring geom.Path
	if e.Hull == HullConcave {
		k := e.K
		if k == 0 {
			k = DefaultConcaveK
		}
		var err error
		ring, err = concaveHull(pts, k)
		if err != nil {
			return err
		}
	} else {
		ring = convexHull(pts)
	}
	if ring == nil {
		// degenerate input: fall back to the raster bounding box
		b := g.Bounds()
		ring = geom.Path{
			{X: b.Min.X, Y: b.Max.Y}, {X: b.Max.X, Y: b.Max.Y},
			{X: b.Max.X, Y: b.Min.Y}, {X: b.Min.X, Y: b.Min.Y},
			{X: b.Min.X, Y: b.Max.Y},
		}
	}
	var z zonalStats
	for _, c := range cells {
		z.add(g.Get(c.row, c.col))
	}
	res.Features.Add(&Feature{Geom: geom.Polygon{ring}, ID: "1"})
	res.Features.Attributes = NewAttributeTable(ZonalStatColumns...)
	return res.Features.Attributes.AddRow("1", z.row())
}

// A cornerKey identifies a cell corner on the grid's corner lattice:
// x counts columns west to east in [0, Nx], y counts row boundaries
// north to south in [0, Ny]. Using integer lattice indices as map keys
// avoids the floating-point fragility of coordinate-string keys.
type cornerKey struct{ x, y int }

func (g *Grid) cornerPoint(k cornerKey) geom.Point {
	return geom.Point{X: g.Xo + float64(k.x)*g.Dx, Y: g.yMax() - float64(k.y)*g.Dy}
}

type latticeEdge struct{ from, to cornerKey }

// direction indices on the lattice (y increases southward):
// 0 east, 1 south, 2 west, 3 north.
func (e latticeEdge) direction() int {
	switch {
	case e.to.x > e.from.x:
		return 0
	case e.to.y > e.from.y:
		return 1
	case e.to.x < e.from.x:
		return 2
	default:
		return 3
	}
}

// traceEdges handles the exact cell-edge hull modes: it emits one edge
// per cell side whose neighbour does not qualify, stitches the edges
// into closed rings, and computes zonal statistics per ring.
func (e *Extractor) traceEdges(g *Grid, cells []gridCell, res *ExtractResult) error {
	var edges []latticeEdge
	for _, c := range cells {
		nw := cornerKey{c.col, c.row}
		ne := cornerKey{c.col + 1, c.row}
		se := cornerKey{c.col + 1, c.row + 1}
		sw := cornerKey{c.col, c.row + 1}
		// sides are oriented so that an isolated block traces clockwise
		if !e.qualifiesNeighbor(g, c, dirNorth) {
			edges = append(edges, latticeEdge{nw, ne})
		}
		if !e.qualifiesNeighbor(g, c, dirEast) {
			edges = append(edges, latticeEdge{ne, se})
		}
		if !e.qualifiesNeighbor(g, c, dirSouth) {
			edges = append(edges, latticeEdge{se, sw})
		}
		if !e.qualifiesNeighbor(g, c, dirWest) {
			edges = append(edges, latticeEdge{sw, nw})
		}
	}

	rings, openChains := stitchEdges(edges)
	for _, chain := range openChains {
		// unexpected topology: emit the open chain as a line feature
		line := make(geom.LineString, len(chain))
		for i, k := range chain {
			line[i] = g.cornerPoint(k)
		}
		res.Features.Add(&Feature{Geom: line, ID: strconv.Itoa(len(res.Features.Features) + 1)})
	}

	var polys []geom.Polygon
	for _, ring := range rings {
		path := make(geom.Path, len(ring))
		for i, k := range ring {
			path[i] = g.cornerPoint(k)
		}
		if !isClockwise(path) {
			reversePath(path)
		}
		polys = append(polys, geom.Polygon{path})
	}
	if e.Hull == HullEdgesNoIslands {
		polys = removeIslands(polys)
	}

	if len(openChains) > 0 {
		// still emit what was stitched, but surface the inconsistency
		for _, p := range polys {
			res.Features.Add(&Feature{Geom: p, ID: strconv.Itoa(len(res.Features.Features) + 1)})
		}
		return fmt.Errorf("genidf: %d open boundary chains: grid topology is inconsistent", len(openChains))
	}

	if err := e.attachZonalStats(g, cells, polys, res); err != nil {
		return err
	}
	if e.Hull == HullEdgesPoints {
		res.Points = e.cellPoints(g, cells, true)
	}
	return nil
}

func (e *Extractor) qualifiesNeighbor(g *Grid, c gridCell, dir int) bool {
	r := c.row + neighborOffsets[dir][0]
	cc := c.col + neighborOffsets[dir][1]
	if r < 0 || r >= g.Ny() || cc < 0 || cc >= g.Nx() {
		return false
	}
	return e.qualifies(g, r, cc)
}

// stitchEdges links boundary edges into closed rings by repeatedly
// following an unused edge starting at the current ring's endpoint.
// Where two continuations exist (two blocks touching at a corner), the
// sharpest right turn is taken so rings do not cross. Chains with no
// continuation are returned separately as open chains.
func stitchEdges(edges []latticeEdge) (rings [][]cornerKey, open [][]cornerKey) {
	bySource := make(map[cornerKey][]int, len(edges))
	for i, ed := range edges {
		bySource[ed.from] = append(bySource[ed.from], i)
	}
	used := make([]bool, len(edges))
	for i := range edges {
		if used[i] {
			continue
		}
		used[i] = true
		start := edges[i].from
		chain := []cornerKey{start, edges[i].to}
		dir := edges[i].direction()
		closed := false
		for {
			cur := chain[len(chain)-1]
			if cur == start {
				closed = true
				break
			}
			next := -1
			bestTurn := 4
			for _, j := range bySource[cur] {
				if used[j] {
					continue
				}
				// turn preference: right (1), straight (0), left (3);
				// reversing (2) would retrace the incoming edge
				t := (edges[j].direction() - dir + 4) % 4
				pref := [4]int{1, 0, 3, 2}[t]
				if pref < bestTurn {
					bestTurn = pref
					next = j
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			chain = append(chain, edges[next].to)
			dir = edges[next].direction()
		}
		if closed {
			rings = append(rings, chain)
		} else {
			open = append(open, chain)
		}
	}
	return rings, open
}

// removeIslands drops each ring that lies entirely inside another
// ring's convex hull. Correct only for convex exteriors.
func removeIslands(polys []geom.Polygon) []geom.Polygon {
	var keep []geom.Polygon
	for i, p := range polys {
		ai := math.Abs(ringArea(p[0]))
		island := false
		for j, q := range polys {
			if i == j || math.Abs(ringArea(q[0])) <= ai {
				continue
			}
			hull := convexHull(q[0])
			if hull == nil {
				continue
			}
			hullPoly := geom.Polygon{hull}
			inside := true
			for _, pt := range p[0] {
				if pt.Within(hullPoly) == geom.Outside {
					inside = false
					break
				}
			}
			if inside {
				island = true
				break
			}
		}
		if island {
			log.Printf("genidf: dropping island ring with area %g", ai)
			continue
		}
		keep = append(keep, p)
	}
	return keep
}

// ringIndexEntry is an rtree entry for one extracted ring.
type ringIndexEntry struct {
	geom.Polygon
	index int
	area  float64
}

// attachZonalStats scans the whole raster, attributes every qualifying
// cell to the smallest-area ring containing its center (so nested rings
// are attributed correctly), and attaches a statistics row per ring.
// A qualifying cell matching no ring is a fatal inconsistency. Rings
// with no cells are islands and are forced counter-clockwise; all
// others are forced clockwise.
func (e *Extractor) attachZonalStats(g *Grid, cells []gridCell, polys []geom.Polygon, res *ExtractResult) error {
	tree := rtree.NewTree(25, 50)
	for i, p := range polys {
		tree.Insert(&ringIndexEntry{Polygon: p, index: i, area: math.Abs(ringArea(p[0]))})
	}
	stats := make([]zonalStats, len(polys))
	for _, c := range cells {
		p := g.CellCenter(c.row, c.col)
		best := -1
		bestArea := math.Inf(1)
		for _, ei := range tree.SearchIntersect(p.Bounds()) {
			entry := ei.(*ringIndexEntry)
			if in := p.Within(entry.Polygon); in == geom.Inside || in == geom.OnEdge {
				if entry.area < bestArea {
					best, bestArea = entry.index, entry.area
				}
			}
		}
		if best < 0 {
			return fmt.Errorf("genidf: no enclosing polygon for cell (%d, %d) at (%g, %g)",
				c.row, c.col, p.X, p.Y)
		}
		stats[best].add(g.Get(c.row, c.col))
	}
	res.Features.Attributes = NewAttributeTable(ZonalStatColumns...)
	for i, p := range polys {
		if stats[i].count() == 0 {
			if isClockwise(p[0]) {
				reversePath(p[0])
			}
		} else if !isClockwise(p[0]) {
			reversePath(p[0])
		}
		id := strconv.Itoa(len(res.Features.Features) + 1)
		res.Features.Add(&Feature{Geom: p, ID: id})
		if stats[i].count() > 0 {
			if err := res.Features.Attributes.AddRow(id, stats[i].row()); err != nil {
				return err
			}
		}
	}
	return nil
}
