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

package genidf_test

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"

	"github.com/spatialmodel/genidf"
	genenc "github.com/spatialmodel/genidf/encoding/gen"
	"github.com/spatialmodel/genidf/encoding/idf"
)

func writeTestGEN(t *testing.T, dir string) string {
	t.Helper()
	fc := &genidf.FeatureCollection{}
	fc.Add(&genidf.Feature{Geom: geom.Polygon{{
		{X: 0, Y: 0}, {X: 0, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 0}}}, ID: "1"})
	name := filepath.Join(dir, "area.gen")
	if err := genenc.WriteFile(name, fc); err != nil {
		t.Fatal(err)
	}
	return name
}

func writeTestIDF(t *testing.T, dir, name string) string {
	t.Helper()
	g, err := genidf.NewGrid(&geom.Bounds{
		Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 4, Y: 4}}, 1, 1, -9999)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct{ row, col int }{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
		g.Set(7, c.row, c.col)
	}
	path := filepath.Join(dir, name)
	if err := idf.WriteFile(path, g); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConverterRasterize(t *testing.T) {
	dir := t.TempDir()
	in := writeTestGEN(t, dir)

	cv, err := genidf.NewConverter(genidf.Config{CellSize: 1, Length: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(in); err != nil {
		t.Fatal(err)
	}
	if cv.Succeeded() != 1 {
		t.Errorf("succeeded = %d, want 1", cv.Succeeded())
	}

	g, err := idf.ReadFile(filepath.Join(dir, "area.idf"))
	if err != nil {
		t.Fatal(err)
	}
	if g.Nx() != 4 || g.Ny() != 4 {
		t.Fatalf("grid is %d x %d, want 4 x 4", g.Nx(), g.Ny())
	}
	n := 0
	for _, v := range g.Data.Elements {
		if v != g.NoData {
			n++
			if v != 1 {
				t.Fatalf("cell value %g, want 1", v)
			}
		}
	}
	if n != 16 {
		t.Errorf("%d cells written, want 16", n)
	}

	if _, err := os.Stat(filepath.Join(dir, "area.met")); err != nil {
		t.Error("no provenance sidecar:", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "area_length.idf")); err != nil {
		t.Error("no length grid written:", err)
	}
}

func TestConverterExtract(t *testing.T) {
	dir := t.TempDir()
	in := writeTestIDF(t, dir, "block.idf")

	cv, err := genidf.NewConverter(genidf.Config{Hull: genidf.HullEdges})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(in); err != nil {
		t.Fatal(err)
	}

	fc, err := genenc.ReadFile(filepath.Join(dir, "block.gen"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("%d features, want 1", len(fc.Features))
	}
	if fc.Attributes == nil {
		t.Fatal("no attribute table read back")
	}
	if v, ok := fc.Attributes.Value("1", 1); !ok || v != "4" {
		t.Errorf("Count attribute = %q, %v", v, ok)
	}
	if _, err := os.Stat(filepath.Join(dir, "block.met")); err != nil {
		t.Error("no provenance sidecar:", err)
	}
}

func TestConverterExtractPoints(t *testing.T) {
	dir := t.TempDir()
	in := writeTestIDF(t, dir, "pts.idf")

	cv, err := genidf.NewConverter(genidf.Config{Hull: genidf.HullPoints})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(in); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pts.ipf")); err != nil {
		t.Error("no IPF point file:", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "pts.met")); err != nil {
		t.Error("no metadata sidecar for IPF output:", err)
	}
}

func TestConverterMerge(t *testing.T) {
	dir := t.TempDir()
	a := writeTestIDF(t, dir, "a.idf")
	b := writeTestIDF(t, dir, "b.idf")

	cv, err := genidf.NewConverter(genidf.Config{
		Hull: genidf.HullEdges, Merge: true, OutputDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(a, b); err != nil {
		t.Fatal(err)
	}

	fc, err := genenc.ReadFile(filepath.Join(dir, "merged.gen"))
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("%d merged features, want 2", len(fc.Features))
	}
	if fc.Features[0].ID != "1" || fc.Features[1].ID != "2" {
		t.Errorf("merged IDs %q, %q", fc.Features[0].ID, fc.Features[1].ID)
	}
	// no per-file .gen output in merge mode
	if _, err := os.Stat(filepath.Join(dir, "a.gen")); err == nil {
		t.Error("per-file output written in merge mode")
	}
}

func TestConverterShapefile(t *testing.T) {
	dir := t.TempDir()
	in := writeTestIDF(t, dir, "shp.idf")

	cv, err := genidf.NewConverter(genidf.Config{
		Hull: genidf.HullEdges, Shapefile: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(in); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "shp.shp")); err != nil {
		t.Error("no shapefile written:", err)
	}
}

func TestConverterGeoJSON(t *testing.T) {
	dir := t.TempDir()
	in := writeTestIDF(t, dir, "gj.idf")

	cv, err := genidf.NewConverter(genidf.Config{
		Hull: genidf.HullEdges, GeoJSON: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run(in); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(filepath.Join(dir, "gj.geojson"))
	if err != nil {
		t.Fatal("no GeoJSON written:", err)
	}
	var out struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]string `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Type != "FeatureCollection" || len(out.Features) != 1 {
		t.Errorf("GeoJSON content: %+v", out)
	}
	if out.Features[0].Properties["Count"] != "4" {
		t.Errorf("properties: %v", out.Features[0].Properties)
	}
}

func TestConverterUnsupportedExtension(t *testing.T) {
	cv, err := genidf.NewConverter(genidf.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := cv.Run("input.txt"); err == nil {
		t.Error("unsupported extension accepted")
	}
}

func TestConfigValidate(t *testing.T) {
	c := genidf.Config{}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	if c.CellSize != genidf.DefaultCellSize {
		t.Errorf("default cell size %g", c.CellSize)
	}
	if c.NoData != genidf.DefaultNoData {
		t.Errorf("default NoData %g", c.NoData)
	}
	if c.K != genidf.DefaultConcaveK {
		t.Errorf("default k %d", c.K)
	}

	bad := []genidf.Config{
		{CellSize: -1},
		{Hull: genidf.HullType(99)},
		{Hull: genidf.HullConcave, K: 2},
		{Overlap: genidf.OverlapMethod(99)},
		{Overlap: genidf.OverlapWeightedAverage}, // needs true overlap
		{Values: genidf.ValueSource{Column: -1}},
		{Values: genidf.ValueSource{Expression: "a +* b"}},
	}
	for i, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: invalid configuration accepted", i)
		}
	}

	ok := genidf.Config{Overlap: genidf.OverlapWeightedAverage,
		CellOverlap: genidf.CellTrueOverlap}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid configuration rejected: %v", err)
	}
}
