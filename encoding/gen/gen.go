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

// Package gen reads and writes GEN vector feature files and their DAT
// attribute tables.
//
// A GEN file is plain text: each feature is an identifier line followed
// by one "x,y" coordinate line per vertex and a line reading END; the
// file is terminated by a final END. A feature whose first and last
// coordinates are equal and that has at least four vertex lines is a
// polygon; one with a single vertex is a point; anything else is a
// line. The companion DAT file is CSV with a header row; its first
// column holds the feature ID.
package gen

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/genidf/internal/genidf"
)

const endMarker = "END"

// ReadFile reads the GEN file at the given path. If a DAT file with the
// same base name exists it is read as the attribute table.
func ReadFile(filename string) (*genidf.FeatureCollection, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("gen: opening %s: %v", filename, err)
	}
	defer f.Close()
	fc, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("gen: reading %s: %v", filename, err)
	}
	datName := strings.TrimSuffix(filename, ".gen") + ".dat"
	if _, err := os.Stat(datName); err == nil {
		df, err := os.Open(datName)
		if err != nil {
			return nil, fmt.Errorf("gen: opening %s: %v", datName, err)
		}
		defer df.Close()
		fc.Attributes, err = ReadDAT(df)
		if err != nil {
			return nil, fmt.Errorf("gen: reading %s: %v", datName, err)
		}
	}
	return fc, nil
}

// Read reads a GEN feature collection from r.
func Read(r io.Reader) (*genidf.FeatureCollection, error) {
	fc := &genidf.FeatureCollection{}
	scanner := bufio.NewScanner(r)
	var id string
	var coords []geom.Point
	inFeature := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !inFeature {
			if strings.EqualFold(line, endMarker) {
				break // end of file marker
			}
			// the identifier line may carry a label after a comma
			id = strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
			coords = nil
			inFeature = true
			continue
		}
		if strings.EqualFold(line, endMarker) {
			f, err := makeFeature(id, coords)
			if err != nil {
				return nil, err
			}
			fc.Add(f)
			inFeature = false
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("feature %s: malformed coordinate line %q", id, line)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %s: bad x coordinate %q", id, fields[0])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("feature %s: bad y coordinate %q", id, fields[1])
		}
		coords = append(coords, geom.Point{X: x, Y: y})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inFeature {
		return nil, fmt.Errorf("feature %s: missing %s terminator", id, endMarker)
	}
	return fc, nil
}

func makeFeature(id string, coords []geom.Point) (*genidf.Feature, error) {
	switch {
	case len(coords) == 0:
		return nil, fmt.Errorf("feature %s has no coordinates", id)
	case len(coords) == 1:
		return &genidf.Feature{Geom: coords[0], ID: id}, nil
	case len(coords) >= 4 && coords[0] == coords[len(coords)-1]:
		ring := make(geom.Path, len(coords))
		copy(ring, coords)
		return &genidf.Feature{Geom: geom.Polygon{ring}, ID: id}, nil
	default:
		line := make(geom.LineString, len(coords))
		copy(line, coords)
		return &genidf.Feature{Geom: line, ID: id}, nil
	}
}

// WriteFile writes fc to a GEN file at the given path, and its
// attribute table (if any) to a DAT file with the same base name.
func WriteFile(filename string, fc *genidf.FeatureCollection) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("gen: creating %s: %v", filename, err)
	}
	if err := Write(f, fc); err != nil {
		f.Close()
		return fmt.Errorf("gen: writing %s: %v", filename, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if fc.Attributes == nil || fc.Attributes.Len() == 0 {
		return nil
	}
	datName := strings.TrimSuffix(filename, ".gen") + ".dat"
	df, err := os.Create(datName)
	if err != nil {
		return fmt.Errorf("gen: creating %s: %v", datName, err)
	}
	if err := WriteDAT(df, fc.Attributes); err != nil {
		df.Close()
		return fmt.Errorf("gen: writing %s: %v", datName, err)
	}
	return df.Close()
}

// Write writes fc to w in GEN format.
func Write(w io.Writer, fc *genidf.FeatureCollection) error {
	bw := bufio.NewWriter(w)
	for _, f := range fc.Features {
		if _, err := fmt.Fprintln(bw, f.ID); err != nil {
			return err
		}
		var coords []geom.Point
		switch g := f.Geom.(type) {
		case geom.Point:
			coords = []geom.Point{g}
		case geom.LineString:
			coords = g
		case geom.Polygon:
			if len(g) == 0 {
				return fmt.Errorf("feature %s: empty polygon", f.ID)
			}
			coords = g[0]
			if len(coords) > 0 && coords[0] != coords[len(coords)-1] {
				coords = append(coords, coords[0])
			}
		default:
			return fmt.Errorf("feature %s: unsupported geometry type %T", f.ID, f.Geom)
		}
		for _, p := range coords {
			if _, err := fmt.Fprintf(bw, "%s,%s\n",
				strconv.FormatFloat(p.X, 'f', -1, 64),
				strconv.FormatFloat(p.Y, 'f', -1, 64)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(bw, endMarker); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, endMarker); err != nil {
		return err
	}
	return bw.Flush()
}

// ReadDAT reads a DAT attribute table from r. The first CSV column
// holds the feature ID; the remaining columns are attribute values.
func ReadDAT(r io.Reader) (*genidf.AttributeTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty DAT file")
	}
	hdr := records[0]
	if len(hdr) < 2 {
		return nil, fmt.Errorf("DAT header %v has no attribute columns", hdr)
	}
	t := genidf.NewAttributeTable(hdr[1:]...)
	for _, rec := range records[1:] {
		if len(rec) != len(hdr) {
			return nil, fmt.Errorf("DAT row %v has %d fields for %d columns", rec, len(rec), len(hdr))
		}
		if err := t.AddRow(strings.TrimSpace(rec[0]), rec[1:]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WriteDAT writes t to w as CSV with an ID first column.
func WriteDAT(w io.Writer, t *genidf.AttributeTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"ID"}, t.Columns()...)); err != nil {
		return err
	}
	for _, id := range t.IDs() {
		row, _ := t.Row(id)
		if err := cw.Write(append([]string{id}, row...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
