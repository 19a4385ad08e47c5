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
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"

	genenc "github.com/spatialmodel/genidf/encoding/gen"
	"github.com/spatialmodel/genidf/encoding/idf"
	"github.com/spatialmodel/genidf/encoding/ipf"
)

// DefaultCellSize is the grid resolution used when none is configured.
const DefaultCellSize = 25

// DefaultNoData is the NoData sentinel used for new grids.
const DefaultNoData = -9999

// A Config holds the settings for a conversion run.
type Config struct {
	// CellSize is the resolution of grids created from vector files.
	CellSize float64

	// NoData is the sentinel for cells not covered by any feature.
	NoData float64

	// Hull selects the raster-to-vector mode.
	Hull HullType

	// K is the concave-hull neighbour count.
	K int

	SkipRanges []ValueRange
	Values     ValueSource

	Overlap     OverlapMethod
	CellOverlap CellOverlapMethod

	// Angle and Length enable the angle and length/area side grids for
	// vector-to-raster conversion.
	Angle  bool
	Length bool

	OrderBySize   bool
	IgnoreWinding bool

	// Merge accumulates the vector output of all input files into a
	// single feature collection written once at the end of the run,
	// with feature IDs renumbered sequentially.
	Merge bool

	// Shapefile additionally writes extracted polygons as an ESRI
	// shapefile.
	Shapefile bool

	// GeoJSON additionally writes extracted features as a GeoJSON
	// feature collection.
	GeoJSON bool

	// Mask optionally restricts conversion to cells whose centers lie
	// inside the mask polygon.
	Mask geom.Polygon

	// OutputDir is the directory output files are written to; it
	// defaults to each input file's directory.
	OutputDir string
}

// Validate checks the configuration; it fails fast before any file is
// processed.
func (c *Config) Validate() error {
	if c.CellSize == 0 {
		c.CellSize = DefaultCellSize
	}
	if c.CellSize < 0 {
		return fmt.Errorf("genidf: cell size must be positive; got %g", c.CellSize)
	}
	if c.NoData == 0 {
		c.NoData = DefaultNoData
	}
	if c.Hull < HullPoints || c.Hull > HullEdgesNoIslands {
		return fmt.Errorf("genidf: unknown hull type %d", c.Hull)
	}
	if c.K == 0 {
		c.K = DefaultConcaveK
	}
	if c.Hull == HullConcave && c.K < 3 {
		return fmt.Errorf("genidf: concave hull parameter k must be at least 3; got %d", c.K)
	}
	if c.Overlap < OverlapDefault || c.Overlap > OverlapLast {
		return fmt.Errorf("genidf: unknown overlap method %d", c.Overlap)
	}
	if c.CellOverlap == 0 {
		c.CellOverlap = CellCenter
	}
	if c.CellOverlap != CellCenter && c.CellOverlap != CellTrueOverlap {
		return fmt.Errorf("genidf: unknown cell-overlap method %d", c.CellOverlap)
	}
	if c.Overlap.AreaBased() && c.CellOverlap != CellTrueOverlap {
		return fmt.Errorf("genidf: overlap method %d needs cell-overlap method 2 (true overlap)", c.Overlap)
	}
	if c.Values.Column < 0 {
		return fmt.Errorf("genidf: attribute column must be 1 or greater; got %d", c.Values.Column)
	}
	return c.Values.Validate()
}

// A Converter runs GEN-to-IDF and IDF-to-GEN conversions over a batch
// of input files, sequentially; the first unrecoverable error aborts
// the run.
type Converter struct {
	Config

	merged       *FeatureCollection
	mergedSource []string
	succeeded    int
}

// NewConverter validates c and creates a Converter.
func NewConverter(c Config) (*Converter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cv := &Converter{Config: c}
	if c.Merge {
		cv.merged = &FeatureCollection{}
	}
	return cv, nil
}

// Succeeded returns the number of files converted so far.
func (cv *Converter) Succeeded() int { return cv.succeeded }

// Run converts each input file in order. The direction is decided per
// file by extension: .gen files are rasterized, .idf files are
// vectorized. Empty inputs are skipped with a warning; any other error
// aborts the run.
func (cv *Converter) Run(files ...string) error {
	for _, f := range files {
		if err := cv.convertFile(f); err != nil {
			return fmt.Errorf("genidf: converting %s: %v", f, err)
		}
	}
	if cv.Merge && cv.merged != nil && len(cv.merged.Features) > 0 {
		out := filepath.Join(cv.outputDir(""), "merged.gen")
		if err := genenc.WriteFile(out, cv.merged); err != nil {
			return err
		}
		if err := cv.writeMetadata(out, cv.methodName()+" (merged)", cv.mergedSource); err != nil {
			return err
		}
	}
	log.Printf("genidf: %d of %d files converted", cv.succeeded, len(files))
	return nil
}

func (cv *Converter) convertFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gen":
		return cv.rasterizeFile(path)
	case ".idf":
		return cv.extractFile(path)
	default:
		return fmt.Errorf("unsupported input extension %q", filepath.Ext(path))
	}
}

func (cv *Converter) outputDir(inputPath string) string {
	if cv.OutputDir != "" {
		return cv.OutputDir
	}
	return filepath.Dir(inputPath)
}

func (cv *Converter) outputBase(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(cv.outputDir(inputPath), base)
}

// rasterizeFile converts one GEN vector file to an IDF raster plus any
// requested side grids.
func (cv *Converter) rasterizeFile(path string) error {
	fc, err := genenc.ReadFile(path)
	if err != nil {
		return err
	}
	if len(fc.Features) == 0 {
		log.Printf("genidf: %s contains no features; file skipped", path)
		return nil
	}
	r := &Rasterizer{
		CellSize:      cv.CellSize,
		NoData:        cv.NoData,
		Values:        cv.valueSource(),
		Overlap:       cv.Overlap,
		CellOverlap:   cv.CellOverlap,
		TrackAngle:    cv.Angle,
		TrackLength:   cv.Length,
		OrderBySize:   cv.OrderBySize,
		IgnoreWinding: cv.IgnoreWinding,
		Mask:          cv.Mask,
	}
	res, err := r.Rasterize(fc)
	if err != nil {
		return err
	}
	base := cv.outputBase(path)
	out := base + ".idf"
	if err := idf.WriteFile(out, res.Values); err != nil {
		return err
	}
	if res.Length != nil {
		if err := idf.WriteFile(base+"_length.idf", res.Length); err != nil {
			return err
		}
	}
	if res.Angle != nil {
		if err := idf.WriteFile(base+"_angle.idf", res.Angle); err != nil {
			return err
		}
	}
	if res.Area != nil {
		if err := idf.WriteFile(base+"_area.idf", res.Area); err != nil {
			return err
		}
	}
	if err := cv.writeMetadata(out,
		fmt.Sprintf("rasterized with cell size %g", cv.CellSize), []string{path}); err != nil {
		return err
	}
	cv.succeeded++
	return nil
}

// extractFile converts one IDF raster file to vector features, side
// point files, and zonal statistics.
func (cv *Converter) extractFile(path string) error {
	g, err := idf.ReadFile(path)
	if err != nil {
		return err
	}
	e := &Extractor{
		Hull:       cv.Hull,
		K:          cv.K,
		SkipRanges: cv.SkipRanges,
		Mask:       cv.Mask,
	}
	res, err := e.Extract(g)
	if err != nil {
		return err
	}
	if len(res.Features.Features) == 0 && len(res.Points) == 0 {
		log.Printf("genidf: %s contains no data cells; file skipped", path)
		return nil
	}
	base := cv.outputBase(path)
	if len(res.Points) > 0 {
		f := ipf.NewFile("Value")
		for _, p := range res.Points {
			if err := f.AddRow(p.X, p.Y, p.Value); err != nil {
				return err
			}
		}
		if err := ipf.WriteFile(base+".ipf", f); err != nil {
			return err
		}
		// A .gen output written below for the same base shares this
		// sidecar name, so write it here only when there is none.
		if len(res.Features.Features) == 0 || cv.Merge {
			if err := cv.writeMetadata(base+".ipf", cv.methodName(), []string{path}); err != nil {
				return err
			}
		}
	}
	if len(res.Features.Features) > 0 {
		if cv.Merge {
			if err := cv.merged.Append(res.Features); err != nil {
				return err
			}
			cv.mergedSource = append(cv.mergedSource, path)
		} else {
			out := base + ".gen"
			if err := genenc.WriteFile(out, res.Features); err != nil {
				return err
			}
			if err := cv.writeMetadata(out, cv.methodName(), []string{path}); err != nil {
				return err
			}
		}
		if cv.Shapefile {
			if err := writeShapefile(base+".shp", res.Features); err != nil {
				return err
			}
		}
		if cv.GeoJSON {
			if err := writeGeoJSON(base+".geojson", res.Features); err != nil {
				return err
			}
		}
	}
	cv.succeeded++
	return nil
}

func (cv *Converter) valueSource() ValueSource {
	vs := cv.Values
	vs.SkipRanges = append(vs.SkipRanges, cv.SkipRanges...)
	return vs
}

func (cv *Converter) methodName() string {
	switch cv.Hull {
	case HullPoints:
		return "cell point extraction"
	case HullConvex:
		return "convex hull extraction"
	case HullConcave:
		return fmt.Sprintf("concave hull extraction (k=%d)", cv.K)
	case HullEdgesPoints:
		return "cell-boundary extraction with outer-cell points"
	case HullEdgesNoIslands:
		return "cell-boundary extraction without islands"
	default:
		return "cell-boundary extraction"
	}
}

// writeMetadata writes a provenance sidecar next to the output file.
func (cv *Converter) writeMetadata(outputPath, method string, sources []string) error {
	f, err := os.Create(strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".met")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "GenIDF conversion, %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "method: %s\n", method)
	for _, s := range sources {
		fmt.Fprintf(w, "source: %s\n", s)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeShapefile writes the polygon features of fc to an ESRI
// shapefile, with the attribute table as string fields. Non-polygon
// features are skipped with a warning.
func writeShapefile(filename string, fc *FeatureCollection) error {
	var columns []string
	if fc.Attributes != nil {
		columns = fc.Attributes.Columns()
	}
	fields := make([]goshp.Field, 1, len(columns)+1)
	fields[0] = goshp.StringField("ID", 16)
	for _, c := range columns {
		fields = append(fields, goshp.StringField(c, 32))
	}
	shape, err := shp.NewEncoderFromFields(filename, goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("genidf: creating shapefile %s: %v", filename, err)
	}
	for _, f := range fc.Features {
		poly, ok := f.Geom.(geom.Polygon)
		if !ok {
			log.Printf("genidf: feature %s: %T not written to shapefile", f.ID, f.Geom)
			continue
		}
		values := make([]interface{}, len(fields))
		values[0] = f.ID
		for i := range columns {
			values[i+1] = ""
		}
		if fc.Attributes != nil {
			if row, ok := fc.Attributes.Row(f.ID); ok {
				for i, v := range row {
					values[i+1] = v
				}
			}
		}
		if err := shape.EncodeFields(poly, values...); err != nil {
			shape.Close()
			return fmt.Errorf("genidf: writing shapefile %s: %v", filename, err)
		}
	}
	shape.Close()
	return nil
}

type geoJSONFeature struct {
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

type geoJSONCollection struct {
	Type     string            `json:"type"`
	Features []*geoJSONFeature `json:"features"`
}

// writeGeoJSON writes fc as a GeoJSON feature collection, with the
// feature ID and any attribute-table columns as string properties.
func writeGeoJSON(filename string, fc *FeatureCollection) error {
	out := geoJSONCollection{Type: "FeatureCollection"}
	for _, f := range fc.Features {
		g, err := geojson.ToGeoJSON(f.Geom)
		if err != nil {
			return fmt.Errorf("genidf: feature %s: %v", f.ID, err)
		}
		props := map[string]string{"ID": f.ID}
		if fc.Attributes != nil {
			if row, ok := fc.Attributes.Row(f.ID); ok {
				for i, c := range fc.Attributes.Columns() {
					props[c] = row[i]
				}
			}
		}
		out.Features = append(out.Features, &geoJSONFeature{
			Type: "Feature", Geometry: g, Properties: props})
	}
	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("genidf: creating %s: %v", filename, err)
	}
	if err := json.NewEncoder(w).Encode(&out); err != nil {
		w.Close()
		return fmt.Errorf("genidf: writing %s: %v", filename, err)
	}
	return w.Close()
}
