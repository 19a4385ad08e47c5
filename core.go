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

// This file re-exports the core library from internal/genidf so that
// the public API stays at the module root while the encoding
// subpackages (which this package's Converter imports) can depend on
// the core types without an import cycle.

import (
	"github.com/ctessum/geom"

	core "github.com/spatialmodel/genidf/internal/genidf"
)

// Feature is a single GEN feature: a geometry plus its identifier.
type Feature = core.Feature

// FeatureCollection is an ordered set of features.
type FeatureCollection = core.FeatureCollection

// AttributeTable holds the DAT attribute rows keyed by feature ID.
type AttributeTable = core.AttributeTable

// ValueRange is an inclusive value interval.
type ValueRange = core.ValueRange

// Grid is a regular raster grid.
type Grid = core.Grid

// HullType selects the geometry-reconstruction method used by Extractor.
type HullType = core.HullType

// Extractor converts a raster grid back into vector features.
type Extractor = core.Extractor

// CellPoint is a cell-center point extracted from a grid.
type CellPoint = core.CellPoint

// ExtractResult is the output of Extractor.Extract.
type ExtractResult = core.ExtractResult

// OverlapMethod selects how overlapping feature values are resolved.
type OverlapMethod = core.OverlapMethod

// CellOverlapMethod selects how a feature is matched to cells.
type CellOverlapMethod = core.CellOverlapMethod

// Rasterizer converts vector features onto a raster grid.
type Rasterizer = core.Rasterizer

// RasterResult is the output of Rasterizer.Rasterize.
type RasterResult = core.RasterResult

// ValueSource selects where a feature's raster value comes from.
type ValueSource = core.ValueSource

// Hull types. See the core package for their meanings.
const (
	HullPoints         = core.HullPoints
	HullConvex         = core.HullConvex
	HullConcave        = core.HullConcave
	HullEdges          = core.HullEdges
	HullEdgesPoints    = core.HullEdgesPoints
	HullEdgesNoIslands = core.HullEdgesNoIslands
)

// DefaultConcaveK is the default neighbour count for concave hulls.
const DefaultConcaveK = core.DefaultConcaveK

// Overlap methods. See the core package for their meanings.
const (
	OverlapDefault           = core.OverlapDefault
	OverlapFirst             = core.OverlapFirst
	OverlapMin               = core.OverlapMin
	OverlapMax               = core.OverlapMax
	OverlapSum               = core.OverlapSum
	OverlapLargestCellArea   = core.OverlapLargestCellArea
	OverlapWeightedAverage   = core.OverlapWeightedAverage
	OverlapSmallestCellArea  = core.OverlapSmallestCellArea
	OverlapLargestTotalArea  = core.OverlapLargestTotalArea
	OverlapSmallestTotalArea = core.OverlapSmallestTotalArea
	OverlapLast              = core.OverlapLast
)

// Cell-overlap methods. See the core package for their meanings.
const (
	CellCenter      = core.CellCenter
	CellTrueOverlap = core.CellTrueOverlap
)

// ZonalStatColumns names the columns of the zonal-statistics table.
var ZonalStatColumns = core.ZonalStatColumns

// NewAttributeTable creates an attribute table with the given columns.
func NewAttributeTable(columns ...string) *AttributeTable {
	return core.NewAttributeTable(columns...)
}

// NewGrid creates a grid covering b with the given cell sizes, with
// every cell initialized to noData.
func NewGrid(b *geom.Bounds, dx, dy, noData float64) (*Grid, error) {
	return core.NewGrid(b, dx, dy, noData)
}
