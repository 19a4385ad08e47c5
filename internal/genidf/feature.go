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

// Package genidf converts between GEN vector feature files and IDF
// raster grids: it rasterizes polygon and line features onto regular
// grids with length and angle accounting, and extracts vector
// boundaries (point sets, convex and concave hulls, exact cell-edge
// polygons) with zonal statistics from rasters.
package genidf

import (
	"fmt"
	"strconv"

	"github.com/ctessum/geom"
)

// A Feature is a single GEN vector feature together with its identifier.
// The geometry is one of geom.Polygon (closed ring; the first and last
// points of each ring are equal by convention), geom.LineString, or
// geom.Point; code dispatches on the geometry type.
type Feature struct {
	Geom geom.Geom
	ID   string
}

// size returns the measure used when ordering features large-to-small
// before rasterization: absolute ring area for polygons, length for
// lines, zero for points.
func (f *Feature) size() float64 {
	switch g := f.Geom.(type) {
	case geom.Polygon:
		var a float64
		for _, ring := range g {
			a += ringArea(ring)
		}
		if a < 0 {
			a = -a
		}
		return a
	case geom.LineString:
		return g.Length()
	default:
		return 0
	}
}

// A FeatureCollection is an ordered set of features with an optional
// attribute table whose rows are keyed by feature ID.
type FeatureCollection struct {
	Features   []*Feature
	Attributes *AttributeTable
}

// Add appends f to the collection.
func (fc *FeatureCollection) Add(f *Feature) {
	fc.Features = append(fc.Features, f)
}

// Bounds returns the combined bounds of all features, or nil when the
// collection is empty.
func (fc *FeatureCollection) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, f := range fc.Features {
		if b == nil {
			b = f.Geom.Bounds().Copy()
		} else {
			b.Extend(f.Geom.Bounds())
		}
	}
	return b
}

// Append adds all features of o to fc, renumbering them sequentially
// after fc's existing features and rekeying o's attribute rows to the
// new IDs. Used when merging the results of multiple input files into
// one output.
func (fc *FeatureCollection) Append(o *FeatureCollection) error {
	for _, f := range o.Features {
		newID := strconv.Itoa(len(fc.Features) + 1)
		if o.Attributes != nil {
			row, ok := o.Attributes.Row(f.ID)
			if ok {
				if fc.Attributes == nil {
					fc.Attributes = NewAttributeTable(o.Attributes.Columns()...)
				}
				if err := fc.Attributes.AddRow(newID, row); err != nil {
					return err
				}
			}
		}
		fc.Add(&Feature{Geom: f.Geom, ID: newID})
	}
	return nil
}

// An AttributeTable is a DAT attribute table: rows of column-aligned
// string values keyed by feature ID. Column names are unique and both
// column and row insertion order are preserved.
type AttributeTable struct {
	columns []string
	ids     []string
	rows    map[string][]string
}

// NewAttributeTable creates an attribute table with the given columns.
func NewAttributeTable(columns ...string) *AttributeTable {
	t := &AttributeTable{rows: make(map[string][]string)}
	for _, c := range columns {
		t.columns = append(t.columns, c)
	}
	return t
}

// Columns returns the column names in insertion order.
func (t *AttributeTable) Columns() []string { return t.columns }

// IDs returns the row keys in insertion order.
func (t *AttributeTable) IDs() []string { return t.ids }

// Len returns the number of rows.
func (t *AttributeTable) Len() int { return len(t.ids) }

// AddRow adds a row for the given feature ID. The number of values must
// match the number of columns.
func (t *AttributeTable) AddRow(id string, values []string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("genidf: attribute row %s has %d values for %d columns",
			id, len(values), len(t.columns))
	}
	if _, ok := t.rows[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.rows[id] = values
	return nil
}

// Row returns the row for the given feature ID.
func (t *AttributeTable) Row(id string) ([]string, bool) {
	r, ok := t.rows[id]
	return r, ok
}

// Value returns the value in the given 1-based column of the row keyed
// by id.
func (t *AttributeTable) Value(id string, column int) (string, bool) {
	r, ok := t.rows[id]
	if !ok || column < 1 || column > len(r) {
		return "", false
	}
	return r[column-1], true
}

// A ValueRange is an inclusive range of values to be skipped during
// conversion: a feature or cell value inside the range is treated as
// NoData.
type ValueRange struct {
	V1, V2 float64
}

// Contains reports whether v lies inside the (inclusive) range.
func (r ValueRange) Contains(v float64) bool {
	return v >= r.V1 && v <= r.V2
}

func inRanges(v float64, ranges []ValueRange) bool {
	for _, r := range ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}
