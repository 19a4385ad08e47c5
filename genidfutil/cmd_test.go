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

package genidfutil

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spatialmodel/genidf"
)

func TestDefaults(t *testing.T) {
	c, err := ConfigFromViper(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.CellSize != genidf.DefaultCellSize {
		t.Errorf("CellSize = %g, want %g", c.CellSize, float64(genidf.DefaultCellSize))
	}
	if c.NoData != genidf.DefaultNoData {
		t.Errorf("NoData = %g, want %g", c.NoData, float64(genidf.DefaultNoData))
	}
	if c.Hull != genidf.HullConvex {
		t.Errorf("Hull = %d, want %d", c.Hull, genidf.HullConvex)
	}
	if c.K != genidf.DefaultConcaveK {
		t.Errorf("K = %d, want %d", c.K, genidf.DefaultConcaveK)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

// TestOverlapMethodUsage checks that the numbering in the OverlapMethod
// help text matches the method constants.
func TestOverlapMethodUsage(t *testing.T) {
	flag := convertCmd.Flags().Lookup("OverlapMethod")
	if flag == nil {
		t.Fatal("OverlapMethod flag not registered")
	}
	cases := []struct {
		method  genidf.OverlapMethod
		meaning string
	}{
		{genidf.OverlapDefault, "default"},
		{genidf.OverlapFirst, "first"},
		{genidf.OverlapMin, "minimum"},
		{genidf.OverlapMax, "maximum"},
		{genidf.OverlapSum, "sum"},
		{genidf.OverlapLargestCellArea, "largest cell overlap"},
		{genidf.OverlapWeightedAverage, "area-weighted average"},
		{genidf.OverlapSmallestCellArea, "smallest cell overlap"},
		{genidf.OverlapLargestTotalArea, "largest feature area"},
		{genidf.OverlapSmallestTotalArea, "smallest feature area"},
		{genidf.OverlapLast, "last"},
	}
	for _, c := range cases {
		phrase := fmt.Sprintf("%d %s", c.method, c.meaning)
		if !strings.Contains(flag.Usage, phrase) {
			t.Errorf("usage does not describe method %d as %q", c.method, c.meaning)
		}
	}
	if want := fmt.Sprintf("%d", genidf.OverlapDefault); flag.DefValue != want {
		t.Errorf("OverlapMethod default = %s, want %s", flag.DefValue, want)
	}
}

// TestLengthUsage checks that the Length help text describes the line
// length grid and sends polygon overlap areas to the area raster.
func TestLengthUsage(t *testing.T) {
	flag := convertCmd.Flags().Lookup("Length")
	if flag == nil {
		t.Fatal("Length flag not registered")
	}
	if !strings.Contains(flag.Usage, "line") {
		t.Error("Length usage does not mention line length")
	}
	if !strings.Contains(flag.Usage, "separate area raster") {
		t.Error("Length usage does not point polygon areas to the area raster")
	}
}

func TestParseSkipRanges(t *testing.T) {
	ranges, err := parseSkipRanges([]string{"5", "10:20", "30:25"})
	if err != nil {
		t.Fatal(err)
	}
	want := []genidf.ValueRange{{V1: 5, V2: 5}, {V1: 10, V2: 20}, {V1: 25, V2: 30}}
	if len(ranges) != len(want) {
		t.Fatalf("%d ranges, want %d", len(ranges), len(want))
	}
	for i, r := range ranges {
		if r != want[i] {
			t.Errorf("range %d = %+v, want %+v", i, r, want[i])
		}
	}
	if _, err := parseSkipRanges([]string{"abc"}); err == nil {
		t.Error("invalid range accepted")
	}
	if _, err := parseSkipRanges([]string{"1:x"}); err == nil {
		t.Error("invalid range limit accepted")
	}
}

func TestParseMask(t *testing.T) {
	mask, err := parseMask("")
	if err != nil || mask != nil {
		t.Errorf("empty mask path: %v, %v", mask, err)
	}

	dir := t.TempDir()
	name := filepath.Join(dir, "mask.geojson")
	geojson := `{"type": "Polygon", "coordinates": [[[0, 0], [0, 4], [4, 4], [4, 0], [0, 0]]]}`
	if err := ioutil.WriteFile(name, []byte(geojson), 0644); err != nil {
		t.Fatal(err)
	}
	mask, err = parseMask(name)
	if err != nil {
		t.Fatal(err)
	}
	if len(mask) != 1 || len(mask[0]) != 5 {
		t.Errorf("mask shape: %v", mask)
	}

	if _, err := parseMask(filepath.Join(dir, "missing.geojson")); err == nil {
		t.Error("missing mask file accepted")
	}
}

func TestSetConfigFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "cfg.yaml")
	if err := ioutil.WriteFile(name, []byte("CellSize: 50\n"), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", name)
	defer Cfg.Set("config", "")
	if err := setConfig(); err != nil {
		t.Fatal(err)
	}
	c, err := ConfigFromViper(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.CellSize != 50 {
		t.Errorf("CellSize = %g, want 50", c.CellSize)
	}
}
